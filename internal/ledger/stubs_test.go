package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go-pos-ledger/internal/model"

	"github.com/shopspring/decimal"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubRecipes is an in-memory RecipeSource.
type stubRecipes struct {
	mu    sync.Mutex
	rows  []model.Recipe
	calls int
	err   error
}

func (s *stubRecipes) FindByProductIDs(_ context.Context, productIDs []uint) ([]model.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	want := make(map[uint]bool, len(productIDs))
	for _, id := range productIDs {
		want[id] = true
	}
	var out []model.Recipe
	for _, r := range s.rows {
		if want[r.ProductID] {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

var _ RecipeSource = (*stubRecipes)(nil)

// stubCatalog is an in-memory ProductCatalog.
type stubCatalog struct {
	products map[uint]model.Product
}

func (s *stubCatalog) FindByIDs(_ context.Context, ids []uint) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ ProductCatalog = (*stubCatalog)(nil)

// stubReceipts records receipts and can be told to fail.
// Order keys are unique, like the receipts table's index. beforeCreate runs
// ahead of the insert so a test can slip in a concurrent writer.
type stubReceipts struct {
	mu           sync.Mutex
	receipts     []*model.Receipt
	err          error
	lookupErr    error
	beforeCreate func()
}

func (s *stubReceipts) Create(_ context.Context, r *model.Receipt) error {
	if s.beforeCreate != nil {
		s.beforeCreate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if r.OrderKey != nil {
		for _, existing := range s.receipts {
			if existing.OrderKey != nil && *existing.OrderKey == *r.OrderKey {
				return fmt.Errorf("duplicate order_key %q: %w", *r.OrderKey, ErrReferenceUsed)
			}
		}
	}
	s.receipts = append(s.receipts, r)
	return nil
}

func (s *stubReceipts) FindByOrderKey(_ context.Context, key string) (*model.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	for _, r := range s.receipts {
		if r.OrderKey != nil && *r.OrderKey == key {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubReceipts) add(r *model.Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, r)
}

func (s *stubReceipts) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.receipts)
}

var _ ReceiptStore = (*stubReceipts)(nil)

// stubAudit records entries; failTitle makes appends with that title fail.
type stubAudit struct {
	mu        sync.Mutex
	entries   []*model.AuditEntry
	failTitle string
}

func (s *stubAudit) Append(_ context.Context, e *model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTitle != "" && e.Title == s.failTitle {
		return errors.New("audit unavailable")
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *stubAudit) titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Title)
	}
	return out
}

var _ AuditLog = (*stubAudit)(nil)

type stubNotifier struct {
	mu     sync.Mutex
	orders []*model.Receipt
}

func (s *stubNotifier) OrderCompleted(_ context.Context, r *model.Receipt, _ map[uint]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, r)
}

var _ OrderNotifier = (*stubNotifier)(nil)

// conflictStore fails the first n Apply/Increment calls with ErrConflict.
type conflictStore struct {
	*MemoryStore
	mu        sync.Mutex
	conflicts int
	calls     int
}

func (s *conflictStore) Apply(ctx context.Context, req ApplyRequest) (map[uint]int, error) {
	if s.conflict() {
		return nil, ErrConflict
	}
	return s.MemoryStore.Apply(ctx, req)
}

func (s *conflictStore) Increment(ctx context.Context, stockID uint, qty int, reference, actorID string) (Adjustment, error) {
	if s.conflict() {
		return Adjustment{}, ErrConflict
	}
	return s.MemoryStore.Increment(ctx, stockID, qty, reference, actorID)
}

func (s *conflictStore) conflict() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.conflicts > 0 {
		s.conflicts--
		return true
	}
	return false
}

var _ StockStore = (*conflictStore)(nil)

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	store    *MemoryStore
	recipes  *stubRecipes
	catalog  *stubCatalog
	receipts *stubReceipts
	audit    *stubAudit
	notifier *stubNotifier
	ledger   *StockLedger
	coord    *Coordinator
}

// newFixture seeds:
//
//	stock 1 "Espresso beans" qty 10, stock 2 "Milk" qty 8
//	product 5 "Americano" = 3×stock 1
//	product 6 "Latte"     = 5×stock 2
//	product 7 "Flat white" = 5×stock 2
//	product 8 "Water"     (no recipe)
//	product 9 "Seasonal"  disabled
func newFixture(policy UnrecipedPolicy) *fixture {
	store := NewMemoryStore()
	store.Put(model.StockItem{ID: 1, Name: "Espresso beans", Quantity: 10, MinimumThreshold: 2})
	store.Put(model.StockItem{ID: 2, Name: "Milk", Quantity: 8, MinimumThreshold: 2})

	recipes := &stubRecipes{rows: []model.Recipe{
		{ID: 1, ProductID: 5, StockID: 1, QuantityPerUnit: 3},
		{ID: 2, ProductID: 6, StockID: 2, QuantityPerUnit: 5},
		{ID: 3, ProductID: 7, StockID: 2, QuantityPerUnit: 5},
		{ID: 4, ProductID: 9, StockID: 1, QuantityPerUnit: 1},
	}}
	catalog := &stubCatalog{products: map[uint]model.Product{
		5: {ID: 5, Name: "Americano", UnitPrice: decimal.RequireFromString("3.50")},
		6: {ID: 6, Name: "Latte", UnitPrice: decimal.RequireFromString("4.25")},
		7: {ID: 7, Name: "Flat white", UnitPrice: decimal.RequireFromString("4.00")},
		8: {ID: 8, Name: "Water", UnitPrice: decimal.RequireFromString("1.00")},
		9: {ID: 9, Name: "Seasonal", UnitPrice: decimal.RequireFromString("5.00"), Disabled: true},
	}}

	f := &fixture{
		store:    store,
		recipes:  recipes,
		catalog:  catalog,
		receipts: &stubReceipts{},
		audit:    &stubAudit{},
		notifier: &stubNotifier{},
	}
	f.ledger = NewStockLedger(store, WithRetryDelay(0))
	checker := NewAvailabilityChecker(NewRecipeResolver(recipes), f.ledger, policy)
	f.coord = NewCoordinator(catalog, checker, f.ledger, f.receipts, f.audit, NewMemoryGuard(), f.notifier)
	return f
}

func order(lines ...OrderLine) OrderRequest {
	return OrderRequest{ActorID: "cashier-1", OrderType: model.OrderDineIn, Lines: lines}
}
