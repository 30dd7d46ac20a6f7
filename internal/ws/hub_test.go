package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	fail     bool
}

func (c *fakeClient) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) snapshot() ([][]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.messages...), c.closed
}

func TestHub_PublishReachesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	good := &fakeClient{}
	bad := &fakeClient{fail: true}
	h.Register <- good
	h.Register <- bad

	h.Publish("order.completed", map[string]int{"stock_1": 4})

	require.Eventually(t, func() bool {
		msgs, _ := good.snapshot()
		return len(msgs) == 1
	}, time.Second, 5*time.Millisecond)

	msgs, _ := good.snapshot()
	var ev Event
	require.NoError(t, json.Unmarshal(msgs[0], &ev))
	assert.Equal(t, "order.completed", ev.Type)

	require.Eventually(t, func() bool {
		_, closed := bad.snapshot()
		return closed
	}, time.Second, 5*time.Millisecond)
}

func TestHub_RunClosesClientsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := &fakeClient{}
	h.Register <- c
	cancel()
	<-done

	_, closed := c.snapshot()
	assert.True(t, closed)
}

func TestHub_PublishDoesNotBlockWhenFull(t *testing.T) {
	h := NewHub()
	for i := 0; i < cap(h.Broadcast)+10; i++ {
		h.Publish("x", i)
	}
	assert.Len(t, h.Broadcast, cap(h.Broadcast))
}
