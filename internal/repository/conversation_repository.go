package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/wa-router/internal/errors"
	"github.com/unclebandit/wa-router/internal/model"
)

type ConversationRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Conversation, error)
	LatestByPhone(ctx context.Context, phone string) (*model.Conversation, error)
	Create(ctx context.Context, c *model.Conversation) error
	TouchLastMessage(ctx context.Context, id string, at time.Time) error
	UpdateArea(ctx context.Context, id, area, estado string, at time.Time) error
}

type ConversationRepository struct {
	DB sqlx.ExtContext
}

const conversationColumns = `id, contact_id, phone, area, estado, last_message_at, created_at, updated_at`

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	query := r.DB.Rebind(`SELECT ` + conversationColumns + ` FROM conversations WHERE id = ?`)
	var c model.Conversation
	if err := sqlx.GetContext(ctx, r.DB, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewConversationNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

// LatestByPhone returns the most recently active conversation for phone, nil when none.
func (r *ConversationRepository) LatestByPhone(ctx context.Context, phone string) (*model.Conversation, error) {
	query := r.DB.Rebind(`
        SELECT ` + conversationColumns + `
        FROM conversations
        WHERE phone = ?
        ORDER BY last_message_at DESC, created_at DESC
        LIMIT 1
    `)
	var c model.Conversation
	if err := sqlx.GetContext(ctx, r.DB, &c, query, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ConversationRepository) Create(ctx context.Context, c *model.Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Area == "" {
		c.Area = model.DefaultArea
	}
	if c.Estado == "" {
		c.Estado = model.EstadoNew
	}
	query := r.DB.Rebind(`
        INSERT INTO conversations (id, contact_id, phone, area, estado, last_message_at, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `)
	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.ContactID, c.Phone, c.Area, c.Estado, c.LastMessageAt, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *ConversationRepository) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	query := r.DB.Rebind(`UPDATE conversations SET last_message_at = ?, updated_at = ? WHERE id = ?`)
	_, err := r.DB.ExecContext(ctx, query, at, at, id)
	return err
}

func (r *ConversationRepository) UpdateArea(ctx context.Context, id, area, estado string, at time.Time) error {
	query := r.DB.Rebind(`UPDATE conversations SET area = ?, estado = ?, updated_at = ? WHERE id = ?`)
	res, err := r.DB.ExecContext(ctx, query, area, estado, at, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewConversationNotFound(id)
	}
	return nil
}

var _ ConversationRepositoryInterface = (*ConversationRepository)(nil)
