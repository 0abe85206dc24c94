package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/core/domain"

	"github.com/google/uuid"
)

/*
	CREATE TABLE calls (
		id          UUID PRIMARY KEY,
		caller_id   UUID NOT NULL REFERENCES users(id),
		receiver_id UUID NOT NULL REFERENCES users(id),
		call_type   TEXT NOT NULL,
		status      TEXT NOT NULL,
		duration    INTEGER NOT NULL DEFAULT 0,
		started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		ended_at    TIMESTAMPTZ
	);
	CREATE INDEX idx_calls_participant ON calls (caller_id, started_at DESC);
*/

type CallRepo struct {
	db *sql.DB
}

func NewCallRepo(db *sql.DB) *CallRepo {
	return &CallRepo{db: db}
}

const callSelect = `
	SELECT c.id, c.caller_id, c.receiver_id, c.call_type, c.status,
	       c.duration, c.started_at, c.ended_at,
	       cu.username, cu.name, cu.profile_pic,
	       ru.username, ru.name, ru.profile_pic
	FROM calls c
	JOIN users cu ON cu.id = c.caller_id
	JOIN users ru ON ru.id = c.receiver_id
`

func scanCall(row interface{ Scan(...any) error }) (*domain.Call, error) {
	var c domain.Call
	var caller, receiver domain.Profile
	err := row.Scan(
		&c.ID, &c.CallerID, &c.ReceiverID, &c.CallType, &c.Status,
		&c.Duration, &c.StartedAt, &c.EndedAt,
		&caller.Username, &caller.Name, &caller.ProfilePic,
		&receiver.Username, &receiver.Name, &receiver.ProfilePic,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrCallNotFound
		}
		return nil, err
	}
	caller.ID = c.CallerID
	receiver.ID = c.ReceiverID
	c.Caller = &caller
	c.Receiver = &receiver
	return &c, nil
}

func (r *CallRepo) CreateCall(ctx context.Context, c *domain.Call) (*domain.Call, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO calls (id, caller_id, receiver_id, call_type, status)
		VALUES ($1, $2, $3, $4, $5)
	`,
		c.ID,
		c.CallerID,
		c.ReceiverID,
		c.CallType,
		c.Status,
	)
	if err != nil {
		return nil, err
	}
	return r.GetCallByID(ctx, c.ID)
}

func (r *CallRepo) GetCallByID(ctx context.Context, id uuid.UUID) (*domain.Call, error) {
	exec := GetExecutor(ctx, r.db)
	return scanCall(exec.QueryRowContext(ctx, callSelect+` WHERE c.id = $1`, id))
}

func (r *CallRepo) ListCallsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Call, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, callSelect+`
		WHERE c.caller_id = $1 OR c.receiver_id = $1
		ORDER BY c.started_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var calls []domain.Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, *c)
	}
	return calls, rows.Err()
}

func (r *CallRepo) UpdateCallStatus(ctx context.Context, id uuid.UUID, status string, duration *int, endedAt *time.Time) (*domain.Call, error) {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE calls
		SET status   = $2,
		    duration = COALESCE($3, duration),
		    ended_at = COALESCE($4, ended_at)
		WHERE id = $1
	`, id, status, duration, endedAt)
	if err != nil {
		return nil, err
	}
	if err := requireRow(result, domain.ErrCallNotFound); err != nil {
		return nil, err
	}
	return r.GetCallByID(ctx, id)
}
