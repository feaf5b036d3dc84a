package ws

import (
	"context"
	"errors"
	"sync"
)

// RuntimeClient is one live connection handle. Writes go through a buffered
// out channel drained by a single writeLoop, so a stalled peer never blocks
// the goroutine routing a message to it.
type RuntimeClient struct {
	ctx    context.Context
	cancel context.CancelFunc
	ws     *WebSocket
	connID string
	out    chan []byte
	once   sync.Once
}

func NewClient(parent context.Context, ws *WebSocket, connID string) *RuntimeClient {
	ctx, cancel := context.WithCancel(parent)
	c := &RuntimeClient{
		ctx:    ctx,
		cancel: cancel,
		ws:     ws,
		connID: connID,
		out:    make(chan []byte, 256),
	}
	go c.writeLoop()
	return c
}

// ID identifies the connection, not the user bound to it.
func (c *RuntimeClient) ID() string { return c.connID }

func (c *RuntimeClient) Send(ctx context.Context, data []byte) error {
	select {
	case c.out <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return errors.New("client closed")
	}
}

// Close is safe to call concurrently with Send: the out channel is never
// closed, cancelling the context is what stops writeLoop and fails senders.
func (c *RuntimeClient) Close() {
	c.once.Do(func() {
		c.cancel()
		c.ws.Close()
	})
}

func (c *RuntimeClient) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.out:
			_ = c.ws.WriteMessage(data)
		}
	}
}
