package registry

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Likith-Yadav/echo-us/internal/core/contracts"
	"github.com/Likith-Yadav/echo-us/internal/core/domain"
)

// Registry maps user ids to their single meaningful connection and keeps the
// set of all open connections for presence fan-out. Lifecycle equals process
// lifetime; every user is implicitly offline at startup.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]contracts.Client // conn id → client, all open connections
	byUser map[string]contracts.Client // user id → current winner
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]contracts.Client),
		byUser: make(map[string]contracts.Client),
	}
}

func (r *Registry) Add(c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID()] = c
}

// Remove drops the connection entirely. The user index entry is only cleared
// when this connection still owns it, so a superseded connection going away
// never unbinds its successor.
func (r *Registry) Remove(c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c.ID())
	if uid := c.UserID(); uid != "" {
		if cur, ok := r.byUser[uid]; ok && cur.ID() == c.ID() {
			delete(r.byUser, uid)
		}
	}
}

// Bind makes c the addressed connection for userID. Any previous holder is
// returned orphaned: still open, no longer reachable by user id.
func (r *Registry) Bind(userID string, c contracts.Client) contracts.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.byUser[userID]
	r.byUser[userID] = c
	if prev != nil && prev.ID() == c.ID() {
		return nil
	}
	return prev
}

// Unbind removes userID's index entry only when c still holds it.
func (r *Registry) Unbind(userID string, c contracts.Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byUser[userID]
	if !ok || cur.ID() != c.ID() {
		return false
	}
	delete(r.byUser, userID)
	return true
}

func (r *Registry) SendToUser(ctx context.Context, userID string, event string, data any) bool {
	r.mu.RLock()
	c := r.byUser[userID]
	r.mu.RUnlock()
	if c == nil {
		return false
	}
	raw, err := encode(event, data)
	if err != nil {
		return false
	}
	return c.Send(ctx, raw) == nil
}

func (r *Registry) Broadcast(ctx context.Context, event string, data any) {
	raw, err := encode(event, data)
	if err != nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conns {
		_ = c.Send(ctx, raw)
	}
}

func encode(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(domain.Envelope{Event: event, Data: payload})
}
