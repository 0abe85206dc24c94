package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/core/contracts"
	"github.com/Likith-Yadav/echo-us/internal/core/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserWithUnread decorates a user listing entry with the caller's unread
// message count from that user.
type UserWithUnread struct {
	User        *domain.User
	UnreadCount int64
}

type UserService struct {
	repo    domain.UserRepository
	msgRepo domain.MessageRepository
	media   contracts.MediaStore
	txm     domain.TxManager
	log     *slog.Logger
}

func NewUserService(
	log *slog.Logger,
	repo domain.UserRepository,
	msgRepo domain.MessageRepository,
	media contracts.MediaStore,
	txm domain.TxManager,
) *UserService {
	return &UserService{
		log:     log,
		repo:    repo,
		msgRepo: msgRepo,
		media:   media,
		txm:     txm,
	}
}

// Register creates a new identity. Email and username are unique; the check
// and the insert run in one transaction.
func (s *UserService) Register(ctx context.Context, username, name, email, password string) (*domain.User, error) {
	if username == "" || name == "" || email == "" || password == "" {
		return nil, domain.ErrPayloadInvalid
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		ID:       uuid.New(),
		Username: username,
		Name:     name,
		Email:    email,
		Password: string(hash),
	}
	err = s.txm.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByEmailOrUsername(ctx, email, username)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		if existing != nil {
			if existing.Email == email {
				return domain.ErrEmailTaken
			}
			return domain.ErrUsernameTaken
		}
		return s.repo.CreateUser(ctx, user)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "user - register - create failed", "email", email, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "user - register - created", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and flips the user online.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, domain.ErrPayloadInvalid
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	now := time.Now()
	if err := s.repo.SetPresence(ctx, user.ID, true, now); err != nil {
		s.log.ErrorContext(ctx, "user - login - set presence failed", "user_id", user.ID, "err", err)
		return nil, err
	}
	user.IsOnline = true
	user.LastSeen = now
	return user, nil
}

// Logout flips the user offline.
func (s *UserService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.repo.SetPresence(ctx, userID, false, time.Now())
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListOthers returns every other user with the caller's unread count.
func (s *UserService) ListOthers(ctx context.Context, callerID uuid.UUID) ([]UserWithUnread, error) {
	users, err := s.repo.ListOtherUsers(ctx, callerID)
	if err != nil {
		return nil, err
	}
	out := make([]UserWithUnread, 0, len(users))
	for i := range users {
		count, err := s.msgRepo.CountUnread(ctx, users[i].ID, callerID)
		if err != nil {
			return nil, err
		}
		out = append(out, UserWithUnread{User: &users[i], UnreadCount: count})
	}
	return out, nil
}

// GetWithUnread returns one user with the caller's unread count from them.
func (s *UserService) GetWithUnread(ctx context.Context, callerID, userID uuid.UUID) (*UserWithUnread, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.msgRepo.CountUnread(ctx, userID, callerID)
	if err != nil {
		return nil, err
	}
	return &UserWithUnread{User: user, UnreadCount: count}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, name, username, status *string) (*domain.User, error) {
	if username != nil {
		existing, err := s.repo.FindByEmailOrUsername(ctx, "", *username)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != userID {
			return nil, domain.ErrUsernameTaken
		}
	}
	return s.repo.UpdateProfile(ctx, userID, name, username, status)
}

// UploadProfilePic stores the blob and persists the hosted URL.
func (s *UserService) UploadProfilePic(ctx context.Context, userID uuid.UUID, data []byte) (*domain.User, error) {
	if len(data) == 0 {
		return nil, domain.ErrPayloadInvalid
	}
	url, err := s.media.Upload(ctx, data, "echous/profiles")
	if err != nil {
		s.log.ErrorContext(ctx, "user - profile pic upload failed", "user_id", userID, "err", err)
		return nil, err
	}
	return s.repo.UpdateProfilePic(ctx, userID, url)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if current == "" || next == "" {
		return domain.ErrPayloadInvalid
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	// Verify and rewrite in one transaction so a concurrent change cannot
	// slip between the check and the update.
	return s.txm.WithTx(ctx, func(ctx context.Context) error {
		user, err := s.repo.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
			return domain.ErrForbidden
		}
		return s.repo.UpdatePassword(ctx, userID, string(hash))
	})
}

func (s *UserService) SetPushToken(ctx context.Context, userID uuid.UUID, token *string) error {
	return s.repo.UpdatePushToken(ctx, userID, token)
}
