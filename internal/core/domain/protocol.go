package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Socket event names, client to server.
const (
	EventAuthenticate = "authenticate"
	EventSendMessage  = "send_message"
	EventMarkRead     = "mark_read"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"
	EventCallInitiate = "call_initiate"
	EventCallAnswer   = "call_answer"
	EventCallReject   = "call_reject"
	EventCallEnd      = "call_end"
	EventICECandidate = "ice_candidate"
)

// Socket event names, server to client.
const (
	EventAuthenticated = "authenticated"
	EventAuthError     = "auth_error"
	EventError         = "error"
	EventNewMessage    = "new_message"
	EventMessageSent   = "message_sent"
	EventUserTyping    = "user_typing"
	EventUserStatus    = "user_status"
	EventIncomingCall  = "incoming_call"
	EventCallInitiated = "call_initiated"
	EventCallAnswered  = "call_answered"
	EventCallRejected  = "call_rejected"
	EventCallEnded     = "call_ended"
)

// Envelope frames every socket message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type AuthenticatedEvent struct {
	UserID uuid.UUID `json:"userId"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

type SendMessagePayload struct {
	ReceiverID  uuid.UUID  `json:"receiverId"`
	Content     string     `json:"content"`
	MessageType string     `json:"messageType,omitempty"`
	MediaURL    *string    `json:"mediaUrl,omitempty"`
	ReplyToID   *uuid.UUID `json:"replyToId,omitempty"`
}

type MarkReadPayload struct {
	SenderID uuid.UUID `json:"senderId"`
}

type TypingPayload struct {
	ReceiverID uuid.UUID `json:"receiverId"`
}

type UserTypingEvent struct {
	UserID   uuid.UUID `json:"userId"`
	IsTyping bool      `json:"isTyping"`
}

// UserStatusEvent is fanned out to every connection on presence changes.
// LastSeen is only set on the offline edge.
type UserStatusEvent struct {
	UserID   uuid.UUID  `json:"userId"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

type CallInitiatePayload struct {
	ReceiverID uuid.UUID       `json:"receiverId"`
	CallType   string          `json:"callType"`
	Offer      json.RawMessage `json:"offer"`
}

type IncomingCallEvent struct {
	Call     *Call           `json:"call"`
	Offer    json.RawMessage `json:"offer"`
	CallerID uuid.UUID       `json:"callerId"`
	CallType string          `json:"callType"`
}

type CallInitiatedEvent struct {
	CallID uuid.UUID `json:"callId"`
}

type CallAnswerPayload struct {
	CallID   uuid.UUID       `json:"callId"`
	CallerID uuid.UUID       `json:"callerId"`
	Answer   json.RawMessage `json:"answer"`
}

type CallAnsweredEvent struct {
	CallID     uuid.UUID       `json:"callId"`
	Answer     json.RawMessage `json:"answer"`
	ReceiverID uuid.UUID       `json:"receiverId"`
}

type CallRejectPayload struct {
	CallID   uuid.UUID `json:"callId"`
	CallerID uuid.UUID `json:"callerId"`
}

type CallRejectedEvent struct {
	CallID uuid.UUID `json:"callId"`
}

type CallEndPayload struct {
	CallID      uuid.UUID `json:"callId"`
	OtherUserID uuid.UUID `json:"otherUserId"`
	Duration    int       `json:"duration"`
}

type CallEndedEvent struct {
	CallID uuid.UUID `json:"callId"`
}

type ICECandidatePayload struct {
	ReceiverID uuid.UUID       `json:"receiverId"`
	Candidate  json.RawMessage `json:"candidate"`
}

type ICECandidateEvent struct {
	Candidate json.RawMessage `json:"candidate"`
	SenderID  uuid.UUID       `json:"senderId"`
}

// PushJob is the payload queued for the notification worker when a relay
// target has no active connection.
type PushJob struct {
	UserID uuid.UUID         `json:"user_id"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}
