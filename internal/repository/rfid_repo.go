package repository

import (
	"context"

	"go-pos-ledger/internal/model"

	"gorm.io/gorm"
)

type RFIDRepository interface {
	Create(ctx context.Context, tag *model.RFIDTag) error
	FindByID(ctx context.Context, id string) (*model.RFIDTag, error)
	FindAll(ctx context.Context) ([]model.RFIDTag, error)
}

type rfidRepo struct {
	db *gorm.DB
}

func NewRFIDRepo(db *gorm.DB) RFIDRepository {
	return &rfidRepo{db}
}

func (r *rfidRepo) Create(ctx context.Context, tag *model.RFIDTag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *rfidRepo) FindByID(ctx context.Context, id string) (*model.RFIDTag, error) {
	var tag model.RFIDTag
	if err := r.db.WithContext(ctx).Preload("Stock").First(&tag, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tag, nil
}

func (r *rfidRepo) FindAll(ctx context.Context) ([]model.RFIDTag, error) {
	var tags []model.RFIDTag
	err := r.db.WithContext(ctx).Preload("Stock").Order("stock_id ASC").Find(&tags).Error
	return tags, err
}
