package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Likith-Yadav/echo-us/internal/core/contracts"
	"github.com/Likith-Yadav/echo-us/internal/core/domain"
	"github.com/Likith-Yadav/echo-us/internal/core/services"
	"github.com/Likith-Yadav/echo-us/pkg/middleware"

	"github.com/google/uuid"
)

type MessageHandler struct {
	msgSvc   *services.MessageService
	media    contracts.MediaStore
	maxBytes int64
}

func NewMessageHandler(m *services.MessageService, media contracts.MediaStore, maxUploadBytes int64) *MessageHandler {
	return &MessageHandler{msgSvc: m, media: media, maxBytes: maxUploadBytes}
}

// History returns the last page of the conversation with another user,
// oldest first.
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	otherID, err := uuid.Parse(r.PathValue("otherUserId"))
	if err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	msgs, err := h.msgSvc.History(r.Context(), userID, otherID)
	if err != nil {
		respondError(w, err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// Send persists a text message and relays it live to the receiver.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	var req domain.SendMessagePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	msg, err := h.msgSvc.Create(r.Context(), userID, req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.msgSvc.Relay(r.Context(), msg)
	respondJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

// Upload stores a media blob, persists the media message, and relays it.
func (h *MessageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFromContext(r.Context())
	userID := middleware.UserFromContext(r.Context())
	data, err := readUpload(r, "media", h.maxBytes)
	if err != nil {
		respondError(w, err)
		return
	}
	receiverID, err := uuid.Parse(r.FormValue("receiverId"))
	if err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	msgType := r.FormValue("messageType")
	if msgType == "" {
		msgType = domain.MessageTypeImage
	}

	url, err := h.media.Upload(r.Context(), data, "echous/messages")
	if err != nil {
		log.ErrorContext(r.Context(), "message handler - media upload failed", "user_id", userID, "err", err)
		respondError(w, err)
		return
	}
	msg, err := h.msgSvc.Create(r.Context(), userID, domain.SendMessagePayload{
		ReceiverID:  receiverID,
		Content:     url,
		MessageType: msgType,
		MediaURL:    &url,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	h.msgSvc.Relay(r.Context(), msg)
	respondJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

// MarkRead flips all unread messages from the other user to the caller.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	otherID, err := uuid.Parse(r.PathValue("otherUserId"))
	if err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	count, err := h.msgSvc.MarkRead(r.Context(), userID, otherID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Messages marked as read",
		"count":   count,
	})
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	messageID, err := uuid.Parse(r.PathValue("messageId"))
	if err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	if err := h.msgSvc.Delete(r.Context(), userID, messageID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Message deleted successfully"})
}
