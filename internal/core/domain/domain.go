package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message content kinds.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeVoice = "voice"
)

// Call media kinds.
const (
	CallTypeAudio = "audio"
	CallTypeVideo = "video"
)

// Call lifecycle states.
const (
	CallStatusInitiated = "initiated"
	CallStatusRinging   = "ringing"
	CallStatusOngoing   = "ongoing"
	CallStatusEnded     = "ended"
	CallStatusRejected  = "rejected"
	CallStatusMissed    = "missed"
)

// User is the persistent identity. Password holds the bcrypt hash and is
// never serialized outward.
type User struct {
	ID         uuid.UUID
	Username   string
	Name       string
	Email      string
	Password   string
	ProfilePic *string
	Status     string
	PushToken  *string
	IsOnline   bool
	LastSeen   time.Time
	CreatedAt  time.Time
}

// Profile is the public projection of a user embedded in message and call
// records.
type Profile struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	ProfilePic *string   `json:"profilePic"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		ProfilePic: u.ProfilePic,
	}
}

// Message is a persisted direct message. ReplyTo is populated on reads when
// ReplyToID is set.
type Message struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    uuid.UUID  `json:"senderId"`
	ReceiverID  uuid.UUID  `json:"receiverId"`
	Content     string     `json:"content"`
	MessageType string     `json:"messageType"`
	MediaURL    *string    `json:"mediaUrl"`
	ReplyToID   *uuid.UUID `json:"replyToId"`
	IsRead      bool       `json:"isRead"`
	CreatedAt   time.Time  `json:"createdAt"`
	Sender      *Profile   `json:"sender,omitempty"`
	Receiver    *Profile   `json:"receiver,omitempty"`
	ReplyTo     *ReplyRef  `json:"replyTo,omitempty"`
}

// ReplyRef is the shallow projection of the message being replied to.
type ReplyRef struct {
	ID          uuid.UUID `json:"id"`
	Content     string    `json:"content"`
	MessageType string    `json:"messageType"`
	MediaURL    *string   `json:"mediaUrl"`
	Sender      *Profile  `json:"sender,omitempty"`
}

// Call is a persisted call record. Status transitions are mediated by the
// call service; terminal states never revert.
type Call struct {
	ID         uuid.UUID  `json:"id"`
	CallerID   uuid.UUID  `json:"callerId"`
	ReceiverID uuid.UUID  `json:"receiverId"`
	CallType   string     `json:"callType"`
	Status     string     `json:"status"`
	Duration   int        `json:"duration"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt"`
	Caller     *Profile   `json:"caller,omitempty"`
	Receiver   *Profile   `json:"receiver,omitempty"`
}

// IsParticipant reports whether userID is one of the two call parties.
func (c *Call) IsParticipant(userID uuid.UUID) bool {
	return c.CallerID == userID || c.ReceiverID == userID
}

// Terminal reports whether the call has reached a final state.
func (c *Call) Terminal() bool {
	return CallStatusTerminal(c.Status)
}

func CallStatusTerminal(status string) bool {
	switch status {
	case CallStatusEnded, CallStatusRejected, CallStatusMissed:
		return true
	}
	return false
}

func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVoice:
		return true
	}
	return false
}

func ValidCallType(t string) bool {
	return t == CallTypeAudio || t == CallTypeVideo
}
