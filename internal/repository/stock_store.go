package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStockStore is the ledger's production StockStore. Every write runs
// in one transaction that locks the touched rows FOR UPDATE in ascending id
// order and re-validates them before updating.
type PostgresStockStore struct {
	db        *gorm.DB
	isolation sql.IsolationLevel
}

func NewPostgresStockStore(db *gorm.DB, isolation sql.IsolationLevel) *PostgresStockStore {
	return &PostgresStockStore{db: db, isolation: isolation}
}

// ParseIsolation accepts "read_committed" (default) or "serializable".
func ParseIsolation(s string) (sql.IsolationLevel, error) {
	switch s {
	case "", "read_committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	}
	return 0, fmt.Errorf("unknown isolation level %q", s)
}

func (s *PostgresStockStore) Snapshot(ctx context.Context, stockIDs []uint) (map[uint]int, error) {
	out := make(map[uint]int, len(stockIDs))
	if len(stockIDs) == 0 {
		return out, nil
	}
	var rows []model.StockItem
	if err := s.db.WithContext(ctx).Select("id", "quantity").Where("id IN ?", stockIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Quantity
	}
	return out, nil
}

func (s *PostgresStockStore) HasReference(ctx context.Context, reference string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.StockMovement{}).
		Where("reference = ? AND kind = ?", reference, model.MovementSale).
		Count(&n).Error
	return n > 0, err
}

func (s *PostgresStockStore) Apply(ctx context.Context, req ledger.ApplyRequest) (map[uint]int, error) {
	ids := req.Demand.StockIDs()
	out := make(map[uint]int, len(ids))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []model.StockItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Order("id ASC").
			Find(&rows).Error; err != nil {
			return err
		}

		available := make(map[uint]int, len(rows))
		for _, row := range rows {
			available[row.ID] = row.Quantity
		}
		if short := ledger.FirstShortfall(req.Demand, available); short != nil {
			return short
		}

		now := time.Now()
		movements := make([]model.StockMovement, 0, len(rows))
		for _, row := range rows {
			qty := req.Demand[row.ID]
			after := row.Quantity - qty
			if err := tx.Model(&model.StockItem{}).
				Where("id = ?", row.ID).
				Updates(map[string]interface{}{
					"quantity":   after,
					"updated_at": now,
				}).Error; err != nil {
				return err
			}
			out[row.ID] = after
			movements = append(movements, model.StockMovement{
				StockID:   row.ID,
				Kind:      model.MovementSale,
				Reference: req.Reference,
				Delta:     -qty,
				Before:    row.Quantity,
				After:     after,
				ActorID:   req.ActorID,
				CreatedAt: now,
			})
		}
		return tx.Create(&movements).Error
	}, &sql.TxOptions{Isolation: s.isolation})
	if err != nil {
		var short *ledger.InsufficientStockError
		if errors.As(err, &short) {
			return nil, short
		}
		return nil, classify(err)
	}
	return out, nil
}

func (s *PostgresStockStore) Increment(ctx context.Context, stockID uint, qty int, reference, actorID string) (ledger.Adjustment, error) {
	var adj ledger.Adjustment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.StockItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, stockID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("stock %d: %w", stockID, ledger.ErrStockNotFound)
			}
			return err
		}

		now := time.Now()
		after := row.Quantity + qty
		if err := tx.Model(&model.StockItem{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"quantity":   after,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
		adj = ledger.Adjustment{StockID: row.ID, Name: row.Name, Before: row.Quantity, After: after}
		return tx.Create(&model.StockMovement{
			StockID:   row.ID,
			Kind:      model.MovementReplenish,
			Reference: reference,
			Delta:     qty,
			Before:    row.Quantity,
			After:     after,
			ActorID:   actorID,
			CreatedAt: now,
		}).Error
	}, &sql.TxOptions{Isolation: s.isolation})
	if err != nil {
		if errors.Is(err, ledger.ErrStockNotFound) {
			return ledger.Adjustment{}, err
		}
		return ledger.Adjustment{}, classify(err)
	}
	return adj, nil
}

var _ ledger.StockStore = (*PostgresStockStore)(nil)
