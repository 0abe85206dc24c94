package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/core/domain"

	"github.com/google/uuid"
)

/*
	CREATE TABLE users (
		id          UUID PRIMARY KEY,
		username    TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		email       TEXT NOT NULL UNIQUE,
		password    TEXT NOT NULL,
		profile_pic TEXT,
		status      TEXT NOT NULL DEFAULT 'Hey there! I am using EchoUs',
		push_token  TEXT,
		is_online   BOOLEAN NOT NULL DEFAULT FALSE,
		last_seen   TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);
*/

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, name, email, password, profile_pic, status, push_token, is_online, last_seen, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Name,
		&u.Email,
		&u.Password,
		&u.ProfilePic,
		&u.Status,
		&u.PushToken,
		&u.IsOnline,
		&u.LastSeen,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	return scanUser(exec.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	return scanUser(exec.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepo) FindByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	return scanUser(exec.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $2 LIMIT 1`,
		email, username))
}

func (r *UserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	exec := GetExecutor(ctx, r.db)
	return exec.QueryRowContext(ctx, `
		INSERT INTO users (id, username, name, email, password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING status, is_online, last_seen, created_at
	`,
		u.ID,
		u.Username,
		u.Name,
		u.Email,
		u.Password,
	).Scan(&u.Status, &u.IsOnline, &u.LastSeen, &u.CreatedAt)
}

func (r *UserRepo) ListOtherUsers(ctx context.Context, excludeID uuid.UUID) ([]domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id <> $1 ORDER BY name ASC`, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, name, username, status *string) (*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	return scanUser(exec.QueryRowContext(ctx, `
		UPDATE users
		SET name     = COALESCE($2, name),
		    username = COALESCE($3, username),
		    status   = COALESCE($4, status)
		WHERE id = $1
		RETURNING `+userColumns,
		id, name, username, status))
}

func (r *UserRepo) UpdateProfilePic(ctx context.Context, id uuid.UUID, url string) (*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	return scanUser(exec.QueryRowContext(ctx,
		`UPDATE users SET profile_pic = $2 WHERE id = $1 RETURNING `+userColumns,
		id, url))
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx,
		`UPDATE users SET password = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrUserNotFound)
}

func (r *UserRepo) UpdatePushToken(ctx context.Context, id uuid.UUID, token *string) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx,
		`UPDATE users SET push_token = $2 WHERE id = $1`, id, token)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrUserNotFound)
}

func (r *UserRepo) SetPresence(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx,
		`UPDATE users SET is_online = $2, last_seen = $3 WHERE id = $1`,
		id, online, lastSeen)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrUserNotFound)
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
