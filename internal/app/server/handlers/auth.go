package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/core/contracts"
	"github.com/Likith-Yadav/echo-us/internal/core/domain"
	"github.com/Likith-Yadav/echo-us/internal/core/services"
	"github.com/Likith-Yadav/echo-us/pkg/middleware"
)

const (
	authRateLimit  = 10
	authRateWindow = 5 * time.Minute
)

type AuthHandler struct {
	userSvc  *services.UserService
	tokenSvc *services.TokenService
	limiter  contracts.RateLimiter
}

func NewAuthHandler(u *services.UserService, t *services.TokenService, l contracts.RateLimiter) *AuthHandler {
	return &AuthHandler{userSvc: u, tokenSvc: t, limiter: l}
}

func (h *AuthHandler) allow(r *http.Request, action string) bool {
	if h.limiter == nil {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ok, err := h.limiter.Allow(r.Context(), action+":"+host, authRateLimit, authRateWindow)
	if err != nil {
		// Limiter outage must not lock users out.
		return true
	}
	return ok
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFromContext(r.Context())
	if !h.allow(r, "register") {
		respondJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many attempts, try again later"})
		return
	}
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	user, err := h.userSvc.Register(r.Context(), req.Username, req.Name, req.Email, req.Password)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - register failed", "email", req.Email, "err", err)
		respondError(w, err)
		return
	}
	token, err := h.tokenSvc.GenerateToken(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"token":   token,
		"user":    toUserJSON(user, nil),
	})
	log.InfoContext(r.Context(), "auth handler - registered", "user_id", user.ID)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFromContext(r.Context())
	if !h.allow(r, "login") {
		respondJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many attempts, try again later"})
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.ErrPayloadInvalid)
		return
	}
	user, err := h.userSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - login failed", "email", req.Email, "err", err)
		respondError(w, err)
		return
	}
	token, err := h.tokenSvc.GenerateToken(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    toUserJSON(user, nil),
	})
	log.InfoContext(r.Context(), "auth handler - login success", "user_id", user.ID)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	user, err := h.userSvc.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": toUserJSON(user, nil)})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	if err := h.userSvc.Logout(r.Context(), userID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}
