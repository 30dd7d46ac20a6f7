package events

import (
	"context"

	"go-pos-ledger/internal/ws"
)

// HubSink pushes events to connected websocket dashboards.
type HubSink struct {
	hub *ws.Hub
}

func NewHubSink(hub *ws.Hub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Name() string { return "ws" }

func (s *HubSink) Send(_ context.Context, ev Event) error {
	s.hub.Publish(ev.Type, ev.Payload)
	return nil
}
