package contracts

import (
	"context"
)

// Registry is the user-id → connection index plus the all-connections
// broadcast set. It is the only mutable shared structure in the process and
// is rebuilt empty on restart.
type Registry interface {
	// Add joins a connection to the broadcast set before it authenticates.
	Add(c Client)
	// Remove drops the connection from the broadcast set and, if it is the
	// current holder of its user id, from the index.
	Remove(c Client)
	// Bind records userID → c, returning the previous holder when the entry
	// was overwritten. The previous connection is orphaned, not closed.
	Bind(userID string, c Client) (prev Client)
	// Unbind clears userID's entry only when c is the current holder and
	// reports whether it did. A superseded connection unbinding is a no-op.
	Unbind(userID string, c Client) bool
	// SendToUser delivers an event to the connection currently bound to
	// userID. It reports false, without error, when no connection is bound.
	SendToUser(ctx context.Context, userID string, event string, data any) bool
	// Broadcast delivers an event to every connection, authenticated or not.
	Broadcast(ctx context.Context, event string, data any)
}

// Client is the minimal connection surface the registry and services need.
type Client interface {
	// ID identifies the physical connection.
	ID() string
	// UserID returns the bound user id, empty until authenticated.
	UserID() string
	SetUserID(id string)
	Send(ctx context.Context, data []byte) error
	Close()
}
