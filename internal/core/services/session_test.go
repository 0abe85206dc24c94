package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Likith-Yadav/echo-us/internal/core/domain"

	"github.com/google/uuid"
)

func newSessionFixture() (*SessionService, *fakeUserRepo, *fakeRegistry, *TokenService) {
	users := newFakeUserRepo()
	reg := newFakeRegistry()
	tokens := NewTokenService("test-secret")
	svc := NewSessionService(testLogger(), users, tokens, reg)
	return svc, users, reg, tokens
}

func seedUser(t *testing.T, users *fakeUserRepo) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Username: "alice", Name: "Alice", Email: "alice@example.com"}
	if err := users.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestAuthenticateBindsAndBroadcastsOnline(t *testing.T) {
	svc, users, reg, tokens := newSessionFixture()
	user := seedUser(t, users)

	token, err := tokens.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	c := newFakeClient()
	gotID, err := svc.Authenticate(context.Background(), c, token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if gotID != user.ID {
		t.Fatalf("authenticated as %s, want %s", gotID, user.ID)
	}
	if c.UserID() != user.ID.String() {
		t.Fatalf("client user id not set")
	}
	if reg.bound[user.ID.String()] != c {
		t.Fatal("connection not bound in registry")
	}

	// The presence row flips before anyone hears about it.
	if len(users.presence) != 1 || !users.presence[0].online {
		t.Fatalf("expected one online presence write, got %+v", users.presence)
	}
	if len(reg.broadcasts) != 1 || reg.broadcasts[0].event != domain.EventUserStatus {
		t.Fatalf("expected one user_status broadcast, got %+v", reg.broadcasts)
	}
	ev := reg.broadcasts[0].data.(domain.UserStatusEvent)
	if !ev.IsOnline || ev.UserID != user.ID {
		t.Fatalf("unexpected status event: %+v", ev)
	}
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	svc, _, reg, _ := newSessionFixture()

	c := newFakeClient()
	_, err := svc.Authenticate(context.Background(), c, "not-a-jwt")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if len(reg.broadcasts) != 0 {
		t.Fatal("failed auth must not broadcast presence")
	}
}

func TestReauthenticateSupersedesPreviousConnection(t *testing.T) {
	svc, users, reg, tokens := newSessionFixture()
	user := seedUser(t, users)
	token, _ := tokens.GenerateToken(user.ID)

	first := newFakeClient()
	if _, err := svc.Authenticate(context.Background(), first, token); err != nil {
		t.Fatalf("first Authenticate failed: %v", err)
	}
	second := newFakeClient()
	if _, err := svc.Authenticate(context.Background(), second, token); err != nil {
		t.Fatalf("second Authenticate failed: %v", err)
	}
	if reg.bound[user.ID.String()] != second {
		t.Fatal("second connection must hold the address")
	}

	// The orphaned first connection closing must not mark the user offline.
	if err := svc.Disconnect(context.Background(), first); err != nil {
		t.Fatalf("orphan Disconnect failed: %v", err)
	}
	if reg.bound[user.ID.String()] != second {
		t.Fatal("orphan disconnect evicted the live connection")
	}
	last := users.presence[len(users.presence)-1]
	if !last.online {
		t.Fatalf("orphan disconnect flipped presence offline: %+v", users.presence)
	}
}

func TestDisconnectBroadcastsOfflineWithLastSeen(t *testing.T) {
	svc, users, reg, tokens := newSessionFixture()
	user := seedUser(t, users)
	token, _ := tokens.GenerateToken(user.ID)

	c := newFakeClient()
	if _, err := svc.Authenticate(context.Background(), c, token); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if err := svc.Disconnect(context.Background(), c); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	last := reg.broadcasts[len(reg.broadcasts)-1].data.(domain.UserStatusEvent)
	if last.IsOnline {
		t.Fatal("expected offline status event")
	}
	if last.LastSeen == nil {
		t.Fatal("offline event must carry lastSeen")
	}
	if _, ok := reg.bound[user.ID.String()]; ok {
		t.Fatal("registry still holds the disconnected client")
	}
}

func TestDisconnectUnauthenticatedIsNoop(t *testing.T) {
	svc, users, reg, _ := newSessionFixture()

	c := newFakeClient()
	if err := svc.Disconnect(context.Background(), c); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if len(users.presence) != 0 || len(reg.broadcasts) != 0 {
		t.Fatal("unauthenticated disconnect must not touch presence")
	}
}
