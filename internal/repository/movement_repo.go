package repository

import (
	"context"
	"time"

	"go-pos-ledger/internal/model"

	"gorm.io/gorm"
)

// MovementByDay is one point of the stock movement chart.
type MovementByDay struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type MovementRepository interface {
	FindByStock(ctx context.Context, stockID uint, limit int) ([]model.StockMovement, error)
	FindByReference(ctx context.Context, reference string) ([]model.StockMovement, error)
	ByDay(ctx context.Context, from, to time.Time) ([]MovementByDay, error)
}

type movementRepo struct {
	db *gorm.DB
}

func NewMovementRepo(db *gorm.DB) MovementRepository {
	return &movementRepo{db}
}

func (r *movementRepo) FindByStock(ctx context.Context, stockID uint, limit int) ([]model.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var movements []model.StockMovement
	err := r.db.WithContext(ctx).
		Where("stock_id = ?", stockID).
		Order("id DESC").
		Limit(limit).
		Find(&movements).Error
	return movements, err
}

func (r *movementRepo) FindByReference(ctx context.Context, reference string) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.WithContext(ctx).Where("reference = ?", reference).Order("stock_id ASC").Find(&movements).Error
	return movements, err
}

// ByDay sums replenished (inbound) and sold (outbound) units per day.
func (r *movementRepo) ByDay(ctx context.Context, from, to time.Time) ([]MovementByDay, error) {
	var results []MovementByDay

	rows, err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select(`
			TO_CHAR(DATE(created_at), 'YYYY-MM-DD') as date,
			COALESCE(SUM(CASE WHEN kind = ? THEN delta ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN kind = ? THEN -delta ELSE 0 END), 0) as outbound
		`, model.MovementReplenish, model.MovementSale).
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data MovementByDay
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}
