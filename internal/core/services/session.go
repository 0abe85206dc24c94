package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/core/contracts"
	"github.com/Likith-Yadav/echo-us/internal/core/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("echous-services")

// SessionService binds authenticated users to their connection and drives
// the presence projection. Persistence always precedes the presence
// broadcast so a REST read after the event sees consistent state.
type SessionService struct {
	users    domain.UserRepository
	tokens   *TokenService
	registry contracts.Registry
	log      *slog.Logger
}

func NewSessionService(
	log *slog.Logger,
	users domain.UserRepository,
	tokens *TokenService,
	registry contracts.Registry,
) *SessionService {
	return &SessionService{
		log:      log,
		users:    users,
		tokens:   tokens,
		registry: registry,
	}
}

// Authenticate verifies the token and makes c the addressed connection for
// its user. A previously bound connection is orphaned, not closed. Returns
// the user id on success; domain.ErrInvalidToken keeps the connection open.
func (s *SessionService) Authenticate(ctx context.Context, c contracts.Client, token string) (uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "SessionService.Authenticate")
	defer span.End()

	userID, err := s.tokens.ValidateToken(token)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, domain.ErrInvalidToken
	}
	span.SetAttributes(attribute.String("user_id", userID.String()))

	c.SetUserID(userID.String())
	if prev := s.registry.Bind(userID.String(), c); prev != nil {
		s.log.InfoContext(ctx, "session - authenticate - superseded previous connection",
			"user_id", userID, "prev_conn", prev.ID())
	}

	now := time.Now()
	if err := s.users.SetPresence(ctx, userID, true, now); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "presence write failed")
		s.log.ErrorContext(ctx, "session - authenticate - presence write failed", "user_id", userID, "err", err)
		return uuid.Nil, err
	}
	s.registry.Broadcast(ctx, domain.EventUserStatus, domain.UserStatusEvent{
		UserID:   userID,
		IsOnline: true,
	})
	s.log.InfoContext(ctx, "session - authenticate - user online", "user_id", userID, "conn_id", c.ID())
	return userID, nil
}

// Disconnect tears down an authenticated connection. When the connection was
// superseded, the registry leaves the successor bound and this becomes a
// presence no-op.
func (s *SessionService) Disconnect(ctx context.Context, c contracts.Client) error {
	uid := c.UserID()
	if uid == "" {
		return nil
	}
	ctx, span := tracer.Start(ctx, "SessionService.Disconnect", trace.WithAttributes(
		attribute.String("user_id", uid),
	))
	defer span.End()

	userID, err := uuid.Parse(uid)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !s.registry.Unbind(uid, c) {
		// A newer connection owns the address; its presence stands.
		s.log.InfoContext(ctx, "session - disconnect - orphaned connection closed", "user_id", uid, "conn_id", c.ID())
		return nil
	}
	now := time.Now()
	if err := s.users.SetPresence(ctx, userID, false, now); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "presence write failed")
		s.log.ErrorContext(ctx, "session - disconnect - presence write failed", "user_id", uid, "err", err)
		return err
	}
	s.registry.Broadcast(ctx, domain.EventUserStatus, domain.UserStatusEvent{
		UserID:   userID,
		IsOnline: false,
		LastSeen: &now,
	})
	s.log.InfoContext(ctx, "session - disconnect - user offline", "user_id", uid)
	return nil
}
