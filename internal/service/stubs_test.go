package service

import (
	"context"
	"sort"
	"time"

	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"

	"github.com/google/uuid"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubRFIDRepo struct {
	tags map[string]*model.RFIDTag
}

func (r *stubRFIDRepo) Create(_ context.Context, tag *model.RFIDTag) error {
	r.tags[tag.ID] = tag
	return nil
}

func (r *stubRFIDRepo) FindByID(_ context.Context, id string) (*model.RFIDTag, error) {
	t, ok := r.tags[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (r *stubRFIDRepo) FindAll(_ context.Context) ([]model.RFIDTag, error) {
	var out []model.RFIDTag
	for _, t := range r.tags {
		out = append(out, *t)
	}
	return out, nil
}

var _ repository.RFIDRepository = (*stubRFIDRepo)(nil)

type stubAuditRepo struct {
	entries []model.AuditEntry
	err     error
}

func (r *stubAuditRepo) Append(_ context.Context, e *model.AuditEntry) error {
	if r.err != nil {
		return r.err
	}
	e.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, *e)
	return nil
}

func (r *stubAuditRepo) List(_ context.Context, f repository.AuditFilter) ([]model.AuditEntry, int64, error) {
	var out []model.AuditEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if f.Title == "" || r.entries[i].Title == f.Title {
			out = append(out, r.entries[i])
		}
	}
	return out, int64(len(out)), nil
}

var _ repository.AuditRepository = (*stubAuditRepo)(nil)

type stubNotifier struct {
	adjustments []ledger.Adjustment
	sources     []string
}

func (n *stubNotifier) StockReplenished(_ context.Context, adj ledger.Adjustment, source, _ string) {
	n.adjustments = append(n.adjustments, adj)
	n.sources = append(n.sources, source)
}

var _ ReplenishNotifier = (*stubNotifier)(nil)

type stubStockRepo struct {
	items []model.StockItem
}

func (r *stubStockRepo) Create(_ context.Context, item *model.StockItem) error {
	item.ID = uint(len(r.items) + 1)
	r.items = append(r.items, *item)
	return nil
}

func (r *stubStockRepo) FindAll(_ context.Context) ([]model.StockItem, error) {
	return r.items, nil
}

func (r *stubStockRepo) FindByID(_ context.Context, id uint) (*model.StockItem, error) {
	for i := range r.items {
		if r.items[i].ID == id {
			return &r.items[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubStockRepo) FindByName(_ context.Context, name string) (*model.StockItem, error) {
	for i := range r.items {
		if r.items[i].Name == name {
			return &r.items[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubStockRepo) FindLow(_ context.Context) ([]model.StockItem, error) {
	var out []model.StockItem
	for _, it := range r.items {
		if it.IsLow() {
			out = append(out, it)
		}
	}
	return out, nil
}

var _ repository.StockRepository = (*stubStockRepo)(nil)

type stubReceiptRepo struct {
	receipts []model.Receipt
}

func (r *stubReceiptRepo) Create(_ context.Context, rc *model.Receipt) error {
	r.receipts = append(r.receipts, *rc)
	return nil
}

func (r *stubReceiptRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Receipt, error) {
	for i := range r.receipts {
		if r.receipts[i].ID == id {
			return &r.receipts[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubReceiptRepo) FindByOrderKey(_ context.Context, key string) (*model.Receipt, error) {
	for i := range r.receipts {
		if r.receipts[i].OrderKey != nil && *r.receipts[i].OrderKey == key {
			return &r.receipts[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubReceiptRepo) List(_ context.Context, _ repository.ReceiptFilter) ([]model.Receipt, int64, error) {
	out := append([]model.Receipt(nil), r.receipts...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *stubReceiptRepo) FindBetween(_ context.Context, from, to time.Time) ([]model.Receipt, error) {
	var out []model.Receipt
	for _, rc := range r.receipts {
		if !rc.CreatedAt.Before(from) && rc.CreatedAt.Before(to) {
			out = append(out, rc)
		}
	}
	return out, nil
}

func (r *stubReceiptRepo) SalesByDay(_ context.Context, _, _ time.Time) ([]repository.DailySales, error) {
	return nil, nil
}

var _ repository.ReceiptRepository = (*stubReceiptRepo)(nil)

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hashed string) error {
	r.users[id].Password = hashed
	return nil
}

func (r *stubUserRepo) UpdatePrivileges(_ context.Context, id uuid.UUID, privileges []model.Privilege) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Privileges = privileges
	return nil
}

func (r *stubUserRepo) UpdateTokenVersion(_ context.Context, id uuid.UUID, version string) error {
	r.users[id].TokenVersion = version
	return nil
}

func (r *stubUserRepo) UpdateLastSeen(_ context.Context, id uuid.UUID) error {
	now := time.Now()
	r.users[id].LastSeenAt = &now
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)
