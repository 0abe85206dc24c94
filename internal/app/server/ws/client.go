package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Client owns one connection's outbound queue. UserID is empty until the
// authenticate event succeeds; reads and writes of it go through the mutex
// because the registry and the read loop touch it from different goroutines.
type Client struct {
	ctx    context.Context
	cancel context.CancelFunc
	ws     *WebSocket
	connID string

	mu     sync.RWMutex
	userID string

	out  chan []byte
	once sync.Once
}

func NewClient(parent context.Context, ws *WebSocket) *Client {
	ctx, cancel := context.WithCancel(parent)
	c := &Client{
		ctx:    ctx,
		cancel: cancel,
		ws:     ws,
		connID: uuid.NewString(),
		out:    make(chan []byte, 256),
	}
	go c.writeLoop()
	return c
}

func (c *Client) ID() string { return c.connID }

func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) SetUserID(id string) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

func (c *Client) Send(ctx context.Context, data []byte) error {
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return errors.New("client closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		c.cancel()
		c.ws.Close()
	})
}

func (c *Client) writeLoop() {
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
