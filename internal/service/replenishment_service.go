package service

import (
	"context"
	"errors"
	"fmt"

	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrTagNotFound = errors.New("rfid tag not registered")
	ErrTagDisabled = errors.New("rfid tag is disabled")
)

// StockIncrementer is the ledger's replenishment path.
type StockIncrementer interface {
	Increment(ctx context.Context, stockID uint, qty int, reference, actorID string) (ledger.Adjustment, error)
}

type ReplenishNotifier interface {
	StockReplenished(ctx context.Context, adj ledger.Adjustment, source, actorID string)
}

type ReplenishmentService interface {
	Replenish(ctx context.Context, stockID uint, qty int, actorID string) (*ledger.Adjustment, error)
	ScanRFID(ctx context.Context, tagID, actorID string) (*ledger.Adjustment, error)
}

type ReplenishRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type replenishmentService struct {
	ledger   StockIncrementer
	tags     repository.RFIDRepository
	audit    repository.AuditRepository
	notifier ReplenishNotifier
}

func NewReplenishmentService(l StockIncrementer, tags repository.RFIDRepository, audit repository.AuditRepository, notifier ReplenishNotifier) ReplenishmentService {
	return &replenishmentService{ledger: l, tags: tags, audit: audit, notifier: notifier}
}

func (s *replenishmentService) Replenish(ctx context.Context, stockID uint, qty int, actorID string) (*ledger.Adjustment, error) {
	reference := "manual:" + uuid.NewString()
	adj, err := s.ledger.Increment(ctx, stockID, qty, reference, actorID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, model.AuditStockReplenish, adj, actorID)
	s.notify(ctx, adj, "manual", actorID)
	return &adj, nil
}

// ScanRFID adds the tag's fixed quantity to its stock item.
func (s *replenishmentService) ScanRFID(ctx context.Context, tagID, actorID string) (*ledger.Adjustment, error) {
	tag, err := s.tags.FindByID(ctx, tagID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	if tag.Disabled {
		return nil, ErrTagDisabled
	}

	reference := fmt.Sprintf("rfid:%s:%s", tag.ID, uuid.NewString())
	adj, err := s.ledger.Increment(ctx, tag.StockID, tag.Quantity, reference, actorID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, model.AuditScannedRFID, adj, actorID)
	s.notify(ctx, adj, "rfid", actorID)
	return &adj, nil
}

// record writes the audit entry. The movement row already holds the change,
// so a failure here is logged only.
func (s *replenishmentService) record(ctx context.Context, title string, adj ledger.Adjustment, actorID string) {
	entry := &model.AuditEntry{
		Title:       title,
		Description: fmt.Sprintf("%s: %d → %d", adj.Name, adj.Before, adj.After),
		ActorID:     actorID,
	}
	if err := s.audit.Append(context.WithoutCancel(ctx), entry); err != nil {
		log.Error().Err(err).Uint("stock_id", adj.StockID).Str("title", title).Msg("failed to append audit entry")
	}
}

func (s *replenishmentService) notify(ctx context.Context, adj ledger.Adjustment, source, actorID string) {
	if s.notifier != nil {
		s.notifier.StockReplenished(context.WithoutCancel(ctx), adj, source, actorID)
	}
}
