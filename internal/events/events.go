// Package events fans domain events out to dashboards (websocket) and
// downstream consumers (Kafka). Delivery is best effort: a failing sink is
// logged and never fails the operation that produced the event.
package events

import (
	"context"
	"time"

	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderCompleted   = "order.completed"
	TypeStockReplenished = "stock.replenished"
)

type Event struct {
	Type    string
	Key     string
	Payload interface{}
}

// Sink delivers one event somewhere.
type Sink interface {
	Send(ctx context.Context, ev Event) error
	Name() string
}

type OrderCompleted struct {
	ReceiptID     uuid.UUID       `json:"receipt_id"`
	Reference     string          `json:"reference"`
	OrderType     model.OrderType `json:"order_type"`
	Total         decimal.Decimal `json:"total"`
	ActorID       string          `json:"actor_id"`
	NewQuantities map[uint]int    `json:"new_quantities"`
	CreatedAt     time.Time       `json:"created_at"`
}

type StockReplenished struct {
	ledger.Adjustment
	Source  string `json:"source"`
	ActorID string `json:"actor_id"`
}

// Dispatcher sends every event to all sinks.
type Dispatcher struct {
	sinks []Sink
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

func (d *Dispatcher) OrderCompleted(ctx context.Context, receipt *model.Receipt, quantities map[uint]int) {
	d.dispatch(ctx, Event{
		Type: TypeOrderCompleted,
		Key:  receipt.ID.String(),
		Payload: OrderCompleted{
			ReceiptID:     receipt.ID,
			Reference:     receipt.Reference,
			OrderType:     receipt.OrderType,
			Total:         receipt.Total,
			ActorID:       receipt.ActorID,
			NewQuantities: quantities,
			CreatedAt:     receipt.CreatedAt,
		},
	})
}

func (d *Dispatcher) StockReplenished(ctx context.Context, adj ledger.Adjustment, source, actorID string) {
	d.dispatch(ctx, Event{
		Type:    TypeStockReplenished,
		Key:     adj.Name,
		Payload: StockReplenished{Adjustment: adj, Source: source, ActorID: actorID},
	})
}

func (d *Dispatcher) dispatch(ctx context.Context, ev Event) {
	for _, s := range d.sinks {
		if err := s.Send(ctx, ev); err != nil {
			log.Warn().Err(err).Str("sink", s.Name()).Str("type", ev.Type).Str("key", ev.Key).Msg("event delivery failed")
		}
	}
}

var _ ledger.OrderNotifier = (*Dispatcher)(nil)
