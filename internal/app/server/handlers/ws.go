package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Likith-Yadav/echo-us/internal/app/server/ws"
	"github.com/Likith-Yadav/echo-us/internal/core/contracts"
	"github.com/Likith-Yadav/echo-us/internal/core/domain"
	"github.com/Likith-Yadav/echo-us/internal/core/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// wsEventHandler processes one inbound socket event. Errors are reported to
// the originating connection only; the connection is never closed for them.
type wsEventHandler func(ctx context.Context, c contracts.Client, data json.RawMessage) error

type WSHandler struct {
	registry contracts.Registry
	sessions *services.SessionService
	messages *services.MessageService
	calls    *services.CallService
	log      *slog.Logger
	dispatch map[string]wsEventHandler
	upgrader websocket.Upgrader
}

func NewWSHandler(
	log *slog.Logger,
	reg contracts.Registry,
	sessions *services.SessionService,
	messages *services.MessageService,
	calls *services.CallService,
) *WSHandler {
	h := &WSHandler{
		registry: reg,
		sessions: sessions,
		messages: messages,
		calls:    calls,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	// Explicit dispatch table keyed by event name.
	h.dispatch = map[string]wsEventHandler{
		domain.EventAuthenticate: h.onAuthenticate,
		domain.EventSendMessage:  h.onSendMessage,
		domain.EventMarkRead:     h.onMarkRead,
		domain.EventTypingStart:  h.onTypingStart,
		domain.EventTypingStop:   h.onTypingStop,
		domain.EventCallInitiate: h.onCallInitiate,
		domain.EventCallAnswer:   h.onCallAnswer,
		domain.EventCallReject:   h.onCallReject,
		domain.EventCallEnd:      h.onCallEnd,
		domain.EventICECandidate: h.onICECandidate,
	}
	return h
}

func (h *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.ErrorContext(r.Context(), "ws handler - upgrade failed", "err", err)
		return
	}

	// The session outlives the HTTP request.
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	socket := ws.NewWebSocket(sessionCtx, conn, h.log)
	client := ws.NewClient(sessionCtx, socket)
	h.registry.Add(client)
	h.log.InfoContext(sessionCtx, "ws handler - connection opened", "conn_id", client.ID())

	defer func() {
		// Teardown order: presence first so the offline broadcast can
		// still reach everyone else, then drop the connection.
		_ = h.sessions.Disconnect(sessionCtx, client)
		h.registry.Remove(client)
		client.Close()
		h.log.InfoContext(sessionCtx, "ws handler - connection closed", "conn_id", client.ID())
	}()

	// Inline dispatch keeps per-connection events in arrival order.
	socket.ReadLoop(func(data []byte) {
		h.handleFrame(sessionCtx, client, data)
	})
}

func (h *WSHandler) handleFrame(ctx context.Context, c contracts.Client, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
		h.emitError(ctx, c, domain.EventError, "malformed event")
		return
	}
	handler, ok := h.dispatch[env.Event]
	if !ok {
		h.emitError(ctx, c, domain.EventError, "unknown event: "+env.Event)
		return
	}
	if err := handler(ctx, c, env.Data); err != nil {
		event := domain.EventError
		if errors.Is(err, domain.ErrInvalidToken) {
			event = domain.EventAuthError
		}
		h.log.ErrorContext(ctx, "ws handler - event failed", "event", env.Event, "conn_id", c.ID(), "err", err)
		h.emitError(ctx, c, event, errorText(env.Event, err))
	}
}

func (h *WSHandler) onAuthenticate(ctx context.Context, c contracts.Client, data json.RawMessage) error {
	var p domain.AuthenticatePayload
	if err := json.Unmarshal(data, &p); err != nil || p.Token == "" {
		// Socket.io sends the bare token string; accept that shape too.
		if err := json.Unmarshal(data, &p.Token); err != nil || p.Token == "" {
			return domain.ErrInvalidToken
		}
	}
	userID, err := h.sessions.Authenticate(ctx, c, p.Token)
	if err != nil {
		return err
	}
	return h.emit(ctx, c, domain.EventAuthenticated, domain.AuthenticatedEvent{UserID: userID})
}

func (h *WSHandler) onSendMessage(ctx context.Context, c contracts.Client, data json.RawMessage) error {
	senderID, err := requireAuth(c)
	if err != nil {
		return err
	}
	var p domain.SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ErrPayloadInvalid
	}
	msg, err := h.messages.Send(ctx, senderID, p)
	if err != nil {
		return err
	}
	// The ack goes to the originating connection, not the user address:
	// a superseded connection still learns its send was durable.
	return h.emit(ctx, c, domain.EventMessageSent, msg)
}

func (h *WSHandler) onMarkRead(ctx context.Context, c contracts.Client, data json.RawMessage) error {
	readerID, err := requireAuth(c)
	if err != nil {
		return err
	}
	var p domain.MarkReadPayload
	if err := json.Unmarshal(data, &p); err != nil || p.SenderID == uuid.Nil {
		return domain.ErrPayloadInvalid
	}
	_, err = h.messages.MarkRead(ctx, readerID, p.SenderID)
	return err
}

func (h *WSHandler) onTypingStart(ctx context.Context, c contracts.Client, data json.RawMessage) error {
	return h.typing(ctx, c, data, true)
}

func (h *WSHandler) onTypingStop(ctx context.Context, c contracts.Client, data json.RawMessage) error {
	return h.typing(ctx, c, data, false)
}

func (h *WSHandler) typing(ctx context.Context, c contracts.Client, data json.RawMessage, isTyping bool) error {
	userID, err := requireAuth(c)
	if err != nil {
		return err
	}
	var p domain.TypingPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverID == uuid.Nil {
		return domain.ErrPayloadInvalid
	}
	h.messages.Typing(ctx, userID, p.ReceiverID, isTyping)
	return nil
}

func (h *WSHandler) onCallInitiate(ctx context.Context, c contracts.Client, data json.RawMessage) error {
	callerID, err := requireAuth(c)
	if err != nil {
		return err
	}
	var p domain.CallInitiatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ErrPayloadInvalid
	}
	call, err := h.calls.Initiate(ctx, callerID, p)
	if err != nil {
		return err
	}
	return h.emit(ctx, c, domain.EventCallInitiated, domain.CallInitiatedEvent{CallID: call.ID})
}

func (h *WSHandler) onCallAnswer(ctx context.Context, c contracts.Client, data json.RawMessage) error {
	userID, err := requireAuth(c)
	if err != nil {
		return err
	}
	var p domain.CallAnswerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ErrPayloadInvalid
	}
	_, err = h.calls.Answer(ctx, userID, p)
	return err
}

func (h *WSHandler) onCallReject(ctx context.Context, c contracts.Client, data json.RawMessage) error {
	userID, err := requireAuth(c)
	if err != nil {
		return err
	}
	var p domain.CallRejectPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ErrPayloadInvalid
	}
	_, err = h.calls.Reject(ctx, userID, p)
	return err
}

func (h *WSHandler) onCallEnd(ctx context.Context, c contracts.Client, data json.RawMessage) error {
	userID, err := requireAuth(c)
	if err != nil {
		return err
	}
	var p domain.CallEndPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ErrPayloadInvalid
	}
	_, err = h.calls.End(ctx, userID, p)
	return err
}

func (h *WSHandler) onICECandidate(ctx context.Context, c contracts.Client, data json.RawMessage) error {
	senderID, err := requireAuth(c)
	if err != nil {
		return err
	}
	var p domain.ICECandidatePayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverID == uuid.Nil {
		return domain.ErrPayloadInvalid
	}
	h.calls.RelayCandidate(ctx, senderID, p)
	return nil
}

func (h *WSHandler) emit(ctx context.Context, c contracts.Client, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(domain.Envelope{Event: event, Data: data})
	if err != nil {
		return err
	}
	return c.Send(ctx, raw)
}

func (h *WSHandler) emitError(ctx context.Context, c contracts.Client, event, message string) {
	_ = h.emit(ctx, c, event, domain.ErrorEvent{Message: message})
}

func requireAuth(c contracts.Client) (uuid.UUID, error) {
	uid := c.UserID()
	if uid == "" {
		return uuid.Nil, domain.ErrUnauthenticated
	}
	id, err := uuid.Parse(uid)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthenticated
	}
	return id, nil
}

func errorText(event string, err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "Not authenticated"
	case errors.Is(err, domain.ErrPayloadInvalid):
		return "Invalid payload for " + event
	case errors.Is(err, domain.ErrForbidden):
		return "Not a participant of this call"
	case errors.Is(err, domain.ErrCallTerminal), errors.Is(err, domain.ErrCallTransition):
		return "Call state does not allow this transition"
	case errors.Is(err, domain.ErrCallNotFound):
		return "Call not found"
	}
	return "Failed to process " + event
}
