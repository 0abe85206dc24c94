package services

import (
	"errors"
	"testing"

	"github.com/Likith-Yadav/echo-us/internal/core/domain"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")
	userID := uuid.New()

	token, err := svc.GenerateToken(userID)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	gotID, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if gotID != userID {
		t.Fatalf("validated %s, want %s", gotID, userID)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, err := NewTokenService("secret-a").GenerateToken(uuid.New())
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	_, err = NewTokenService("secret-b").ValidateToken(token)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenGarbageRejected(t *testing.T) {
	svc := NewTokenService("test-secret")
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.ValidateToken(tok); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}
