package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/core/domain"
	"github.com/Likith-Yadav/echo-us/internal/core/services"
	"github.com/Likith-Yadav/echo-us/pkg/middleware"

	"github.com/google/uuid"
)

type CallHandler struct {
	callSvc *services.CallService
}

func NewCallHandler(c *services.CallService) *CallHandler {
	return &CallHandler{callSvc: c}
}

// History returns the caller's most recent calls, newest first.
func (h *CallHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	calls, err := h.callSvc.History(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	if calls == nil {
		calls = []domain.Call{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"calls": calls})
}

// Create logs a call record in initiated state without signaling.
func (h *CallHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	var req struct {
		ReceiverID uuid.UUID `json:"receiverId"`
		CallType   string    `json:"callType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	call, err := h.callSvc.CreateRecord(r.Context(), userID, req.ReceiverID, req.CallType)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"call": call})
}

// Update applies a participant-validated status change through the call
// lifecycle rules.
func (h *CallHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	callID, err := uuid.Parse(r.PathValue("callId"))
	if err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	var req struct {
		Status   string     `json:"status"`
		Duration *int       `json:"duration"`
		EndedAt  *time.Time `json:"endedAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	if req.Status == "" {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	call, err := h.callSvc.Update(r.Context(), userID, callID, req.Status, req.Duration, req.EndedAt)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"call": call})
}
