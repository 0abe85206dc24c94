package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Likith-Yadav/echo-us/internal/core/domain"
	"github.com/Likith-Yadav/echo-us/internal/core/services"
	"github.com/Likith-Yadav/echo-us/pkg/middleware"

	"github.com/google/uuid"
)

type UserHandler struct {
	userSvc  *services.UserService
	maxBytes int64
}

func NewUserHandler(u *services.UserService, maxUploadBytes int64) *UserHandler {
	return &UserHandler{userSvc: u, maxBytes: maxUploadBytes}
}

// List returns every other user with the caller's unread counts. With a
// path user id it narrows to that single user.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.UserFromContext(r.Context())
	users, err := h.userSvc.ListOthers(r.Context(), callerID)
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		count := u.UnreadCount
		out = append(out, toUserJSON(u.User, &count))
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.UserFromContext(r.Context())
	userID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	u, err := h.userSvc.GetWithUnread(r.Context(), callerID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	count := u.UnreadCount
	respondJSON(w, http.StatusOK, map[string]any{"user": toUserJSON(u.User, &count)})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	var req struct {
		Name     *string `json:"name"`
		Username *string `json:"username"`
		Status   *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	user, err := h.userSvc.UpdateProfile(r.Context(), userID, req.Name, req.Username, req.Status)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": toUserJSON(user, nil)})
}

func (h *UserHandler) UploadProfilePic(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFromContext(r.Context())
	userID := middleware.UserFromContext(r.Context())
	data, err := readUpload(r, "profilePic", h.maxBytes)
	if err != nil {
		respondError(w, err)
		return
	}
	user, err := h.userSvc.UploadProfilePic(r.Context(), userID, data)
	if err != nil {
		log.ErrorContext(r.Context(), "user handler - profile pic upload failed", "user_id", userID, "err", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": toUserJSON(user, nil)})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	if err := h.userSvc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (h *UserHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	var req struct {
		PushToken *string `json:"pushToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	if err := h.userSvc.SetPushToken(r.Context(), userID, req.PushToken); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Push token updated"})
}

// readUpload pulls one multipart file field, bounded by the configured size
// ceiling.
func readUpload(r *http.Request, field string, maxBytes int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, domain.ErrPayloadInvalid
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, domain.ErrPayloadInvalid
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, domain.ErrPayloadInvalid
	}
	return data, nil
}
