package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/app/server/handlers"
	"github.com/Likith-Yadav/echo-us/internal/core/domain"
	"github.com/Likith-Yadav/echo-us/internal/core/services"

	"github.com/google/uuid"
)

// memUserRepo embeds the interface; only the methods the auth flow touches
// have bodies.
type memUserRepo struct {
	domain.UserRepository
	users map[uuid.UUID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uuid.UUID]*domain.User{}}
}

func (r *memUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email || u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) CreateUser(_ context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) SetPresence(_ context.Context, id uuid.UUID, online bool, lastSeen time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsOnline = online
	u.LastSeen = lastSeen
	return nil
}

// passthroughTx runs the function without an actual transaction.
type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newAuthHandler() *handlers.AuthHandler {
	log := slog.New(slog.DiscardHandler)
	userSvc := services.NewUserService(log, newMemUserRepo(), nil, nil, passthroughTx{})
	tokenSvc := services.NewTokenService("test-secret")
	return handlers.NewAuthHandler(userSvc, tokenSvc, nil)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestRegisterThenLogin(t *testing.T) {
	h := newAuthHandler()

	w := postJSON(t, h.Register, `{"username":"alice","name":"Alice","email":"alice@example.com","password":"hunter22"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}

	var reg struct {
		Token string `json:"token"`
		User  struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatalf("register body: %v", err)
	}
	if reg.Token == "" || reg.User.ID == "" {
		t.Fatalf("register response missing token or user: %s", w.Body.String())
	}
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Fatal("register response leaks the password field")
	}

	w = postJSON(t, h.Login, `{"email":"alice@example.com","password":"hunter22"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestRegisterDuplicateEmailRejected(t *testing.T) {
	h := newAuthHandler()

	body := `{"username":"alice","name":"Alice","email":"alice@example.com","password":"hunter22"}`
	if w := postJSON(t, h.Register, body); w.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", w.Code)
	}
	w := postJSON(t, h.Register, `{"username":"alice2","name":"Alice","email":"alice@example.com","password":"hunter22"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate email: expected 400, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestLoginWrongPasswordIs401(t *testing.T) {
	h := newAuthHandler()

	body := `{"username":"alice","name":"Alice","email":"alice@example.com","password":"hunter22"}`
	if w := postJSON(t, h.Register, body); w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", w.Code)
	}

	w := postJSON(t, h.Login, `{"email":"alice@example.com","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d, body=%s", w.Code, w.Body.String())
	}
	// Unknown accounts fail the same way so emails cannot be probed.
	w = postJSON(t, h.Login, `{"email":"nobody@example.com","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown email, got %d", w.Code)
	}
}

func TestLoginMalformedBodyIs400(t *testing.T) {
	h := newAuthHandler()
	w := postJSON(t, h.Login, `{"email":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
