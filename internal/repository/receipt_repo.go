package repository

import (
	"context"
	"time"

	"go-pos-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReceiptFilter struct {
	From      *time.Time
	To        *time.Time
	OrderType model.OrderType
	ActorID   string
	Limit     int
	Offset    int
}

// DailySales is one row of the sales chart.
type DailySales struct {
	Date   string          `json:"date"`
	Orders int64           `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *model.Receipt) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Receipt, error)
	FindByOrderKey(ctx context.Context, orderKey string) (*model.Receipt, error)
	List(ctx context.Context, f ReceiptFilter) ([]model.Receipt, int64, error)
	FindBetween(ctx context.Context, from, to time.Time) ([]model.Receipt, error)
	SalesByDay(ctx context.Context, from, to time.Time) ([]DailySales, error)
}

type receiptRepo struct {
	db *gorm.DB
}

func NewReceiptRepo(db *gorm.DB) ReceiptRepository {
	return &receiptRepo{db}
}

func (r *receiptRepo) Create(ctx context.Context, receipt *model.Receipt) error {
	return classify(r.db.WithContext(ctx).Create(receipt).Error)
}

func (r *receiptRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Receipt, error) {
	var receipt model.Receipt
	if err := r.db.WithContext(ctx).First(&receipt, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &receipt, nil
}

func (r *receiptRepo) FindByOrderKey(ctx context.Context, orderKey string) (*model.Receipt, error) {
	var receipt model.Receipt
	if err := r.db.WithContext(ctx).First(&receipt, "order_key = ?", orderKey).Error; err != nil {
		return nil, notFound(err)
	}
	return &receipt, nil
}

// List returns receipts newest first together with the unpaged count.
func (r *receiptRepo) List(ctx context.Context, f ReceiptFilter) ([]model.Receipt, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Receipt{})
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	if f.OrderType != "" {
		q = q.Where("order_type = ?", f.OrderType)
	}
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var receipts []model.Receipt
	err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&receipts).Error
	return receipts, total, err
}

func (r *receiptRepo) FindBetween(ctx context.Context, from, to time.Time) ([]model.Receipt, error) {
	var receipts []model.Receipt
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepo) SalesByDay(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	var results []DailySales

	rows, err := r.db.WithContext(ctx).Model(&model.Receipt{}).
		Select(`
			TO_CHAR(DATE(created_at), 'YYYY-MM-DD') as date,
			COUNT(*) as orders,
			COALESCE(SUM(total), 0) as total
		`).
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Date, &d.Orders, &d.Total); err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}
