package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Likith-Yadav/echo-us/internal/core/domain"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps the domain error taxonomy onto HTTP status codes.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrPayloadInvalid),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrUsernameTaken):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrMessageNotFound),
		errors.Is(err, domain.ErrCallNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrCallTerminal),
		errors.Is(err, domain.ErrCallTransition):
		status = http.StatusConflict
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

// userJSON is the outward user shape; the password hash never leaves.
type userJSON struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	ProfilePic  *string `json:"profilePic"`
	Status      string  `json:"status"`
	IsOnline    bool    `json:"isOnline"`
	LastSeen    string  `json:"lastSeen"`
	CreatedAt   string  `json:"createdAt"`
	UnreadCount *int64  `json:"unreadCount,omitempty"`
}

func toUserJSON(u *domain.User, unread *int64) userJSON {
	return userJSON{
		ID:          u.ID.String(),
		Username:    u.Username,
		Name:        u.Name,
		Email:       u.Email,
		ProfilePic:  u.ProfilePic,
		Status:      u.Status,
		IsOnline:    u.IsOnline,
		LastSeen:    u.LastSeen.UTC().Format("2006-01-02T15:04:05.000Z"),
		CreatedAt:   u.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		UnreadCount: unread,
	}
}
