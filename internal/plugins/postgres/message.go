package postgres

import (
	"context"
	"database/sql"

	"github.com/Likith-Yadav/echo-us/internal/core/domain"

	"github.com/google/uuid"
)

/*
	CREATE TABLE messages (
		id           UUID PRIMARY KEY,
		sender_id    UUID NOT NULL REFERENCES users(id),
		receiver_id  UUID NOT NULL REFERENCES users(id),
		content      TEXT NOT NULL,
		message_type TEXT NOT NULL DEFAULT 'text',
		media_url    TEXT,
		reply_to_id  UUID REFERENCES messages(id) ON DELETE SET NULL,
		is_read      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX idx_messages_pair ON messages (sender_id, receiver_id, created_at DESC);
*/

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// messageSelect joins the sender, receiver and reply-to projections in one
// round trip, mirroring what the history endpoint returns.
const messageSelect = `
	SELECT m.id, m.sender_id, m.receiver_id, m.content, m.message_type,
	       m.media_url, m.reply_to_id, m.is_read, m.created_at,
	       s.username, s.name, s.profile_pic,
	       r.username, r.name, r.profile_pic,
	       p.id, p.content, p.message_type, p.media_url,
	       ps.id, ps.username, ps.name, ps.profile_pic
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.receiver_id
	LEFT JOIN messages p ON p.id = m.reply_to_id
	LEFT JOIN users ps ON ps.id = p.sender_id
`

func scanMessage(row interface{ Scan(...any) error }) (*domain.Message, error) {
	var m domain.Message
	var sender, receiver domain.Profile
	var replyID *uuid.UUID
	var replyContent, replyType *string
	var replyMedia *string
	var replySenderID *uuid.UUID
	var replySenderUsername, replySenderName *string
	var replySenderPic *string
	err := row.Scan(
		&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType,
		&m.MediaURL, &m.ReplyToID, &m.IsRead, &m.CreatedAt,
		&sender.Username, &sender.Name, &sender.ProfilePic,
		&receiver.Username, &receiver.Name, &receiver.ProfilePic,
		&replyID, &replyContent, &replyType, &replyMedia,
		&replySenderID, &replySenderUsername, &replySenderName, &replySenderPic,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	sender.ID = m.SenderID
	receiver.ID = m.ReceiverID
	m.Sender = &sender
	m.Receiver = &receiver
	if replyID != nil {
		ref := &domain.ReplyRef{
			ID:          *replyID,
			Content:     *replyContent,
			MessageType: *replyType,
			MediaURL:    replyMedia,
		}
		if replySenderID != nil {
			ref.Sender = &domain.Profile{
				ID:         *replySenderID,
				Username:   *replySenderUsername,
				Name:       *replySenderName,
				ProfilePic: replySenderPic,
			}
		}
		m.ReplyTo = ref
	}
	return &m, nil
}

func (r *MessageRepo) CreateMessage(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, content, message_type, media_url, reply_to_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		m.ID,
		m.SenderID,
		m.ReceiverID,
		m.Content,
		m.MessageType,
		m.MediaURL,
		m.ReplyToID,
	)
	if err != nil {
		return nil, err
	}
	return r.GetMessageByID(ctx, m.ID)
}

func (r *MessageRepo) GetMessageByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	exec := GetExecutor(ctx, r.db)
	return scanMessage(exec.QueryRowContext(ctx, messageSelect+` WHERE m.id = $1`, id))
}

func (r *MessageRepo) GetConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]domain.Message, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, messageSelect+`
		WHERE (m.sender_id = $1 AND m.receiver_id = $2)
		   OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.created_at DESC
		LIMIT $3
	`, userA, userB, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Newest-first query, oldest-first response.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *MessageRepo) MarkRead(ctx context.Context, senderID, readerID uuid.UUID) (int64, error) {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE sender_id = $1 AND receiver_id = $2 AND is_read = FALSE
	`, senderID, readerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *MessageRepo) CountUnread(ctx context.Context, senderID, readerID uuid.UUID) (int64, error) {
	exec := GetExecutor(ctx, r.db)
	var count int64
	err := exec.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE sender_id = $1 AND receiver_id = $2 AND is_read = FALSE
	`, senderID, readerID).Scan(&count)
	return count, err
}

func (r *MessageRepo) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrMessageNotFound)
}
