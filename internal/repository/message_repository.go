package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/wa-router/internal/model"
)

type MessageRepositoryInterface interface {
	Create(ctx context.Context, msg *model.Message) error
	Recent(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
	LastCreatedAt(ctx context.Context, conversationID string) (time.Time, bool, error)
	Count(ctx context.Context, conversationID string) (int, error)
}

// MessageRepository is append-only: messages are never updated or deleted.
type MessageRepository struct {
	DB sqlx.ExtContext
}

// Create inserts a message and sets its generated ID
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	var metadata any
	if !msg.Metadata.Empty() {
		metadata = msg.Metadata
	}
	query := r.DB.Rebind(`
        INSERT INTO messages (conversation_id, sender, body, metadata, created_at)
        VALUES (?, ?, ?, ?, ?)
        RETURNING id
    `)
	return r.DB.QueryRowxContext(ctx, query,
		msg.ConversationID, msg.Sender, msg.Body, metadata, msg.CreatedAt,
	).Scan(&msg.ID)
}

// Recent returns up to limit messages, newest first.
func (r *MessageRepository) Recent(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	query := r.DB.Rebind(`
        SELECT id, conversation_id, sender, body, metadata, created_at
        FROM messages
        WHERE conversation_id = ?
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `)
	msgs := []model.Message{}
	if err := sqlx.SelectContext(ctx, r.DB, &msgs, query, conversationID, limit); err != nil {
		return nil, err
	}
	return msgs, nil
}

// LastCreatedAt returns the timestamp of the newest message of any sender.
func (r *MessageRepository) LastCreatedAt(ctx context.Context, conversationID string) (time.Time, bool, error) {
	query := r.DB.Rebind(`
        SELECT created_at
        FROM messages
        WHERE conversation_id = ?
        ORDER BY created_at DESC, id DESC
        LIMIT 1
    `)
	var at time.Time
	if err := sqlx.GetContext(ctx, r.DB, &at, query, conversationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return at, true, nil
}

func (r *MessageRepository) Count(ctx context.Context, conversationID string) (int, error) {
	query := r.DB.Rebind(`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`)
	var n int
	err := sqlx.GetContext(ctx, r.DB, &n, query, conversationID)
	return n, err
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
