package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/Likith-Yadav/echo-us/internal/core/contracts"
	"github.com/Likith-Yadav/echo-us/internal/core/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const conversationPageSize = 100

// MessageService persists and relays direct messages. Persistence always
// completes before any delivery event is emitted; offline receivers get a
// queued push job instead of a live relay.
type MessageService struct {
	repo       domain.MessageRepository
	registry   contracts.Registry
	queue      contracts.PushQueue
	pushStream string
	log        *slog.Logger
}

func NewMessageService(
	log *slog.Logger,
	repo domain.MessageRepository,
	registry contracts.Registry,
	queue contracts.PushQueue,
	pushStream string,
) *MessageService {
	return &MessageService{
		log:        log,
		repo:       repo,
		registry:   registry,
		queue:      queue,
		pushStream: pushStream,
	}
}

// Send persists the message, then relays new_message to the receiver's
// address. Delivery to an offline receiver is a silent no-op on the relay
// path; history is the REST endpoint's job. The persisted record is
// returned for the caller's message_sent acknowledgment.
func (s *MessageService) Send(ctx context.Context, senderID uuid.UUID, in domain.SendMessagePayload) (*domain.Message, error) {
	ctx, span := tracer.Start(ctx, "MessageService.Send", trace.WithAttributes(
		attribute.String("sender_id", senderID.String()),
		attribute.String("receiver_id", in.ReceiverID.String()),
	))
	defer span.End()

	msg, err := s.Create(ctx, senderID, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "message - send - persist failed", "sender_id", senderID, "err", err)
		return nil, err
	}

	delivered := s.registry.SendToUser(ctx, in.ReceiverID.String(), domain.EventNewMessage, msg)
	if !delivered {
		s.enqueuePush(ctx, domain.PushJob{
			UserID: in.ReceiverID,
			Title:  senderName(msg),
			Body:   previewBody(msg),
			Data:   map[string]string{"messageId": msg.ID.String(), "senderId": senderID.String()},
		})
	}
	span.SetAttributes(attribute.Bool("delivered", delivered))
	s.log.InfoContext(ctx, "message - send - persisted",
		"message_id", msg.ID, "sender_id", senderID, "receiver_id", in.ReceiverID, "delivered", delivered)
	return msg, nil
}

// Relay pushes an already-persisted message to the receiver's address. Used
// by the REST send and upload paths, which persist on their own.
func (s *MessageService) Relay(ctx context.Context, msg *domain.Message) {
	if !s.registry.SendToUser(ctx, msg.ReceiverID.String(), domain.EventNewMessage, msg) {
		s.enqueuePush(ctx, domain.PushJob{
			UserID: msg.ReceiverID,
			Title:  senderName(msg),
			Body:   previewBody(msg),
			Data:   map[string]string{"messageId": msg.ID.String(), "senderId": msg.SenderID.String()},
		})
	}
}

// Create persists without relaying. The REST handler calls Relay after the
// HTTP response is prepared; durability still precedes notification.
func (s *MessageService) Create(ctx context.Context, senderID uuid.UUID, in domain.SendMessagePayload) (*domain.Message, error) {
	if in.ReceiverID == uuid.Nil || in.Content == "" {
		return nil, domain.ErrPayloadInvalid
	}
	msgType := in.MessageType
	if msgType == "" {
		msgType = domain.MessageTypeText
	}
	if !domain.ValidMessageType(msgType) {
		return nil, domain.ErrPayloadInvalid
	}
	return s.repo.CreateMessage(ctx, &domain.Message{
		SenderID:    senderID,
		ReceiverID:  in.ReceiverID,
		Content:     in.Content,
		MessageType: msgType,
		MediaURL:    in.MediaURL,
		ReplyToID:   in.ReplyToID,
	})
}

// History returns the most recent page of a conversation, oldest first.
func (s *MessageService) History(ctx context.Context, userID, otherUserID uuid.UUID) ([]domain.Message, error) {
	return s.repo.GetConversation(ctx, userID, otherUserID, conversationPageSize)
}

// MarkRead flips isRead on all unread messages from senderID to readerID.
// No live receipt goes back to the sender on this path.
func (s *MessageService) MarkRead(ctx context.Context, readerID, senderID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkRead(ctx, senderID, readerID)
	if err != nil {
		s.log.ErrorContext(ctx, "message - mark read failed", "reader_id", readerID, "sender_id", senderID, "err", err)
		return 0, err
	}
	return count, nil
}

// Delete removes a message; only the original sender may delete.
func (s *MessageService) Delete(ctx context.Context, userID, messageID uuid.UUID) error {
	msg, err := s.repo.GetMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return domain.ErrForbidden
	}
	return s.repo.DeleteMessage(ctx, messageID)
}

// Typing forwards the indicator to the receiver only. Stateless, no
// persistence, no server-side debouncing.
func (s *MessageService) Typing(ctx context.Context, userID, receiverID uuid.UUID, isTyping bool) {
	s.registry.SendToUser(ctx, receiverID.String(), domain.EventUserTyping, domain.UserTypingEvent{
		UserID:   userID,
		IsTyping: isTyping,
	})
}

func (s *MessageService) enqueuePush(ctx context.Context, job domain.PushJob) {
	if s.queue == nil {
		return
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return
	}
	// A lost notification never fails the send.
	if err := s.queue.Publish(ctx, s.pushStream, raw); err != nil && !errors.Is(err, context.Canceled) {
		s.log.ErrorContext(ctx, "message - push enqueue failed", "user_id", job.UserID, "err", err)
	}
}

func senderName(msg *domain.Message) string {
	if msg.Sender != nil && msg.Sender.Name != "" {
		return msg.Sender.Name
	}
	return "New message"
}

const previewRuneLimit = 80

func previewBody(msg *domain.Message) string {
	switch msg.MessageType {
	case domain.MessageTypeImage:
		return "\U0001F4F7 Photo"
	case domain.MessageTypeVoice:
		return "\U0001F3A4 Voice message"
	}
	if utf8.RuneCountInString(msg.Content) <= previewRuneLimit {
		return msg.Content
	}
	runes := []rune(msg.Content)
	return string(runes[:previewRuneLimit])
}
