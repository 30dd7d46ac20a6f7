package repository

import (
	"context"

	"go-pos-ledger/internal/model"

	"gorm.io/gorm"
)

// StockRepository is the read side of the stock table. Quantities are only
// written through the StockStore.
type StockRepository interface {
	Create(ctx context.Context, item *model.StockItem) error
	FindAll(ctx context.Context) ([]model.StockItem, error)
	FindByID(ctx context.Context, id uint) (*model.StockItem, error)
	FindByName(ctx context.Context, name string) (*model.StockItem, error)
	FindLow(ctx context.Context) ([]model.StockItem, error)
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) Create(ctx context.Context, item *model.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *stockRepo) FindAll(ctx context.Context) ([]model.StockItem, error) {
	var items []model.StockItem
	err := r.db.WithContext(ctx).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *stockRepo) FindByID(ctx context.Context, id uint) (*model.StockItem, error) {
	var item model.StockItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *stockRepo) FindByName(ctx context.Context, name string) (*model.StockItem, error) {
	var item model.StockItem
	if err := r.db.WithContext(ctx).Where("lower(name) = lower(?)", name).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// FindLow returns items strictly under their minimum threshold.
func (r *stockRepo) FindLow(ctx context.Context) ([]model.StockItem, error) {
	var items []model.StockItem
	err := r.db.WithContext(ctx).
		Where("quantity < minimum_threshold").
		Order("quantity ASC, id ASC").
		Find(&items).Error
	return items, err
}
