package repository

import (
	"context"
	"time"

	"go-pos-ledger/internal/model"

	"gorm.io/gorm"
)

type AuditFilter struct {
	Title   string
	ActorID string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
	List(ctx context.Context, f AuditFilter) ([]model.AuditEntry, int64, error)
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db}
}

func (r *auditRepo) Append(ctx context.Context, entry *model.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns entries newest first.
func (r *auditRepo) List(ctx context.Context, f AuditFilter) ([]model.AuditEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditEntry{})
	if f.Title != "" {
		q = q.Where("title = ?", f.Title)
	}
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []model.AuditEntry
	err := q.Order("id DESC").Limit(limit).Offset(f.Offset).Find(&entries).Error
	return entries, total, err
}
