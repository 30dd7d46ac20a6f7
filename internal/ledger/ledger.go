package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ApplyRequest is one atomic deduction. Reference identifies the order; a
// store must refuse to apply the same reference twice.
type ApplyRequest struct {
	Reference string
	ActorID   string
	Demand    Demand
}

// Adjustment describes a single-row replenishment.
type Adjustment struct {
	StockID uint   `json:"stock_id"`
	Name    string `json:"name"`
	Before  int    `json:"before"`
	After   int    `json:"after"`
}

// StockStore is the storage contract behind the ledger.
//
// Apply must re-validate every demanded row inside the same critical section
// that writes it and either update all rows or none. It returns the new
// quantities, an *InsufficientStockError, ErrConflict for lost updates or
// serialization failures, or ErrReferenceUsed.
type StockStore interface {
	Snapshot(ctx context.Context, stockIDs []uint) (map[uint]int, error)
	Apply(ctx context.Context, req ApplyRequest) (map[uint]int, error)
	Increment(ctx context.Context, stockID uint, qty int, reference, actorID string) (Adjustment, error)
	HasReference(ctx context.Context, reference string) (bool, error)
}

// StockLedger owns every quantity change. It retries ErrConflict from the
// store a bounded number of times and never retries anything else.
type StockLedger struct {
	store       StockStore
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*StockLedger)

func WithMaxAttempts(n int) Option {
	return func(l *StockLedger) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(l *StockLedger) { l.baseDelay = d }
}

func NewStockLedger(store StockStore, opts ...Option) *StockLedger {
	l := &StockLedger{
		store:       store,
		maxAttempts: 3,
		baseDelay:   25 * time.Millisecond,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *StockLedger) Snapshot(ctx context.Context, stockIDs []uint) (map[uint]int, error) {
	return l.store.Snapshot(ctx, stockIDs)
}

func (l *StockLedger) HasReference(ctx context.Context, reference string) (bool, error) {
	return l.store.HasReference(ctx, reference)
}

// Apply deducts the whole demand atomically.
func (l *StockLedger) Apply(ctx context.Context, req ApplyRequest) (map[uint]int, error) {
	for id, qty := range req.Demand {
		if qty <= 0 {
			return nil, fmt.Errorf("stock %d: %w", id, ErrInvalidDemand)
		}
	}
	if len(req.Demand) == 0 {
		return map[uint]int{}, nil
	}

	var out map[uint]int
	err := l.withRetry(ctx, "apply", func() error {
		var err error
		out, err = l.store.Apply(ctx, req)
		return err
	})
	return out, err
}

// Increment adds qty to one stock row.
func (l *StockLedger) Increment(ctx context.Context, stockID uint, qty int, reference, actorID string) (Adjustment, error) {
	if qty <= 0 {
		return Adjustment{}, fmt.Errorf("stock %d: %w", stockID, ErrInvalidDemand)
	}
	var adj Adjustment
	err := l.withRetry(ctx, "increment", func() error {
		var err error
		adj, err = l.store.Increment(ctx, stockID, qty, reference, actorID)
		return err
	})
	return adj, err
}

// withRetry backs off 1x, 2x, 4x … baseDelay between conflicting attempts.
func (l *StockLedger) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrConflict) {
			return err
		}
		log.Warn().Str("op", op).Int("attempt", attempt).Err(err).Msg("stock ledger conflict")
		if attempt == l.maxAttempts {
			break
		}
		wait := l.baseDelay * time.Duration(1<<uint(attempt-1))
		if serr := l.sleep(ctx, wait); serr != nil {
			return serr
		}
	}
	return &ConflictError{Attempts: l.maxAttempts, Err: err}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
