package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TxManager runs fn inside one storage transaction.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository handles persistent identity and the presence projection.
type UserRepository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	ListOtherUsers(ctx context.Context, excludeID uuid.UUID) ([]User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, username, status *string) (*User, error)
	UpdateProfilePic(ctx context.Context, id uuid.UUID, url string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdatePushToken(ctx context.Context, id uuid.UUID, token *string) error
	// SetPresence flips the persistent isOnline/lastSeen projection. It is
	// called before any presence broadcast.
	SetPresence(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error
}

// MessageRepository handles message persistence. Create must assign the id
// and timestamp and return the record with sender/receiver/replyTo
// projections resolved.
type MessageRepository interface {
	CreateMessage(ctx context.Context, m *Message) (*Message, error)
	GetMessageByID(ctx context.Context, id uuid.UUID) (*Message, error)
	GetConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]Message, error)
	// MarkRead flips isRead on all unread messages from senderID to
	// readerID and returns the affected count.
	MarkRead(ctx context.Context, senderID, readerID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, senderID, readerID uuid.UUID) (int64, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
}

// CallRepository handles call persistence. Status legality is the call
// service's concern; the repository writes what it is told.
type CallRepository interface {
	CreateCall(ctx context.Context, c *Call) (*Call, error)
	GetCallByID(ctx context.Context, id uuid.UUID) (*Call, error)
	ListCallsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]Call, error)
	UpdateCallStatus(ctx context.Context, id uuid.UUID, status string, duration *int, endedAt *time.Time) (*Call, error)
}
