package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/ws"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProducer struct {
	msgs []kafka.Message
	err  error
}

func (p *stubProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func (p *stubProducer) Close() error { return nil }

type recordingSink struct {
	events []Event
	err    error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(_ context.Context, ev Event) error {
	s.events = append(s.events, ev)
	return s.err
}

func testReceipt() *model.Receipt {
	return &model.Receipt{
		ID:        uuid.New(),
		Reference: "till-1-0001",
		OrderType: model.OrderTakeOut,
		Total:     decimal.RequireFromString("7.00"),
		ActorID:   "cashier-1",
		CreatedAt: time.Now(),
	}
}

func TestKafkaSink_SendsJSONWithHeaders(t *testing.T) {
	p := &stubProducer{}
	d := NewDispatcher(NewKafkaSink(p))
	r := testReceipt()

	d.OrderCompleted(context.Background(), r, map[uint]int{1: 4})

	require.Len(t, p.msgs, 1)
	msg := p.msgs[0]
	assert.Equal(t, r.ID.String(), string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, TypeOrderCompleted, string(msg.Headers[0].Value))

	var body OrderCompleted
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, r.ID, body.ReceiptID)
	assert.Equal(t, 4, body.NewQuantities[1])
}

func TestDispatcher_FailingSinkDoesNotStopOthers(t *testing.T) {
	failing := &recordingSink{err: errors.New("broker down")}
	ok := &recordingSink{}
	d := NewDispatcher(failing, ok)

	d.StockReplenished(context.Background(), ledger.Adjustment{StockID: 2, Name: "Milk", Before: 1, After: 13}, "rfid", "u1")

	require.Len(t, ok.events, 1)
	assert.Equal(t, TypeStockReplenished, ok.events[0].Type)
	payload := ok.events[0].Payload.(StockReplenished)
	assert.Equal(t, 13, payload.After)
	assert.Equal(t, "rfid", payload.Source)
}

func TestHubSink_QueuesBroadcast(t *testing.T) {
	hub := ws.NewHub()
	d := NewDispatcher(NewHubSink(hub))

	d.OrderCompleted(context.Background(), testReceipt(), nil)

	select {
	case msg := <-hub.Broadcast:
		var ev ws.Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		assert.Equal(t, TypeOrderCompleted, ev.Type)
	default:
		t.Fatal("expected a queued broadcast")
	}
}
