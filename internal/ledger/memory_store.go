package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-pos-ledger/internal/model"
)

// MemoryStore is an in-process StockStore. A single mutex is the critical
// section, so Apply is trivially serializable.
type MemoryStore struct {
	mu        sync.Mutex
	items     map[uint]model.StockItem
	movements []model.StockMovement
	applied   map[string]struct{}
	nextID    uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:   make(map[uint]model.StockItem),
		applied: make(map[string]struct{}),
	}
}

// Put creates or overwrites a stock row. It bypasses the movement log and is
// meant for seeding.
func (s *MemoryStore) Put(item model.StockItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *MemoryStore) Quantity(stockID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[stockID].Quantity
}

// Items returns a copy of every row.
func (s *MemoryStore) Items() map[uint]model.StockItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint]model.StockItem, len(s.items))
	for id, it := range s.items {
		out[id] = it
	}
	return out
}

func (s *MemoryStore) Movements() []model.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.StockMovement, len(s.movements))
	copy(out, s.movements)
	return out
}

func (s *MemoryStore) Snapshot(_ context.Context, stockIDs []uint) (map[uint]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint]int, len(stockIDs))
	for _, id := range stockIDs {
		if it, ok := s.items[id]; ok {
			out[id] = it.Quantity
		}
	}
	return out, nil
}

func (s *MemoryStore) HasReference(_ context.Context, reference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.applied[reference]
	return ok, nil
}

func (s *MemoryStore) Apply(ctx context.Context, req ApplyRequest) (map[uint]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := s.applied[req.Reference]; ok {
		return nil, fmt.Errorf("%s: %w", req.Reference, ErrReferenceUsed)
	}

	// validate everything before touching any row
	available := make(map[uint]int, len(req.Demand))
	for id := range req.Demand {
		if it, ok := s.items[id]; ok {
			available[id] = it.Quantity
		}
	}
	if short := FirstShortfall(req.Demand, available); short != nil {
		return nil, short
	}

	now := time.Now()
	out := make(map[uint]int, len(req.Demand))
	for _, id := range req.Demand.StockIDs() {
		it := s.items[id]
		before := it.Quantity
		it.Quantity -= req.Demand[id]
		it.UpdatedAt = now
		s.items[id] = it
		out[id] = it.Quantity
		s.nextID++
		s.movements = append(s.movements, model.StockMovement{
			ID:        s.nextID,
			StockID:   id,
			Kind:      model.MovementSale,
			Reference: req.Reference,
			Delta:     -req.Demand[id],
			Before:    before,
			After:     it.Quantity,
			ActorID:   req.ActorID,
			CreatedAt: now,
		})
	}
	s.applied[req.Reference] = struct{}{}
	return out, nil
}

func (s *MemoryStore) Increment(ctx context.Context, stockID uint, qty int, reference, actorID string) (Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Adjustment{}, err
	}
	it, ok := s.items[stockID]
	if !ok {
		return Adjustment{}, fmt.Errorf("stock %d: %w", stockID, ErrStockNotFound)
	}
	before := it.Quantity
	it.Quantity += qty
	it.UpdatedAt = time.Now()
	s.items[stockID] = it
	s.nextID++
	s.movements = append(s.movements, model.StockMovement{
		ID:        s.nextID,
		StockID:   stockID,
		Kind:      model.MovementReplenish,
		Reference: reference,
		Delta:     qty,
		Before:    before,
		After:     it.Quantity,
		ActorID:   actorID,
		CreatedAt: it.UpdatedAt,
	})
	return Adjustment{StockID: stockID, Name: it.Name, Before: before, After: it.Quantity}, nil
}
