package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/unclebandit/wa-router/internal/db"
	appErrors "github.com/unclebandit/wa-router/internal/errors"
	"github.com/unclebandit/wa-router/internal/model"
)

// Store is the only writer of conversations, messages and attributions.
type Store struct {
	DB     *sqlx.DB
	Logger *zap.Logger
	Now    func() time.Time

	Conversations *ConversationRepository
	Messages      *MessageRepository
	Attributions  *AttributionRepository
}

func NewStore(conn *sqlx.DB, logger *zap.Logger) *Store {
	return &Store{
		DB:            conn,
		Logger:        logger.Named("store"),
		Now:           func() time.Time { return time.Now().UTC() },
		Conversations: &ConversationRepository{DB: conn},
		Messages:      &MessageRepository{DB: conn},
		Attributions:  &AttributionRepository{DB: conn},
	}
}

// ResolveOrCreateConversation returns the most recent conversation for phone,
// creating the contact and a router-default conversation when none exists.
// Creation runs in one transaction; on Postgres it also takes an advisory
// lock on the phone so concurrent processes cannot both create.
func (s *Store) ResolveOrCreateConversation(ctx context.Context, phone string) (*model.Conversation, error) {
	if conv, err := s.Conversations.LatestByPhone(ctx, phone); err != nil {
		return nil, appErrors.NewStoreError("resolve conversation", err)
	} else if conv != nil {
		return conv, nil
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.NewStoreError("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if s.DB.DriverName() == db.DriverPostgres {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, phone); err != nil {
			return nil, appErrors.NewStoreError("lock phone", err)
		}
	}

	conversations := &ConversationRepository{DB: tx}
	// another writer may have won the race before we got the lock
	conv, err := conversations.LatestByPhone(ctx, phone)
	if err != nil {
		return nil, appErrors.NewStoreError("resolve conversation", err)
	}
	if conv != nil {
		return conv, tx.Commit()
	}

	now := s.Now()
	contact, err := (&ContactRepository{DB: tx}).Upsert(ctx, phone, now)
	if err != nil {
		return nil, appErrors.NewStoreError("upsert contact", err)
	}

	conv = &model.Conversation{
		ContactID:     contact.ID,
		Phone:         phone,
		Area:          model.DefaultArea,
		Estado:        model.EstadoNew,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := conversations.Create(ctx, conv); err != nil {
		return nil, appErrors.NewStoreError("create conversation", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.NewStoreError("commit", err)
	}

	s.Logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("phone", phone))
	return conv, nil
}

// SaveMessage appends a message and bumps the conversation activity timestamp.
// The second write is best-effort: its failure is logged, the message stays.
func (s *Store) SaveMessage(ctx context.Context, conversationID, sender, body string, metadata *model.MessageMetadata) (*model.Message, error) {
	msg := &model.Message{
		ConversationID: conversationID,
		Sender:         sender,
		Body:           body,
		Metadata:       metadata,
		CreatedAt:      s.Now(),
	}
	if err := s.Messages.Create(ctx, msg); err != nil {
		return nil, appErrors.NewStoreError("save message", err)
	}

	if err := s.Conversations.TouchLastMessage(ctx, conversationID, msg.CreatedAt); err != nil {
		s.Logger.Warn("failed to bump last_message_at",
			zap.String("conversation_id", conversationID),
			zap.Int64("message_id", msg.ID),
			zap.Error(err))
	}
	return msg, nil
}

func (s *Store) RecentMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	msgs, err := s.Messages.Recent(ctx, conversationID, limit)
	if err != nil {
		return nil, appErrors.NewStoreError("recent messages", err)
	}
	return msgs, nil
}

func (s *Store) LastMessageAt(ctx context.Context, conversationID string) (time.Time, bool, error) {
	at, ok, err := s.Messages.LastCreatedAt(ctx, conversationID)
	if err != nil {
		return time.Time{}, false, appErrors.NewStoreError("last message", err)
	}
	return at, ok, nil
}

// DeriveConversation hands the conversation to area and marks it active.
func (s *Store) DeriveConversation(ctx context.Context, conversationID, area string) error {
	if err := s.Conversations.UpdateArea(ctx, conversationID, area, model.EstadoActive, s.Now()); err != nil {
		return fmt.Errorf("derive conversation: %w", err)
	}
	return nil
}

func (s *Store) SaveAttribution(ctx context.Context, messageID int64, conversationID string, data model.AttributionData) error {
	row := &model.Attribution{
		MessageID:       messageID,
		ConversationID:  conversationID,
		AttributionData: data,
		CreatedAt:       s.Now(),
	}
	if err := s.Attributions.Create(ctx, row); err != nil {
		return appErrors.NewStoreError("save attribution", err)
	}
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	return s.Conversations.GetByID(ctx, id)
}

func (s *Store) CountMessages(ctx context.Context, conversationID string) (int, error) {
	return s.Messages.Count(ctx, conversationID)
}

// ListAttributions returns the attribution rows of a conversation, oldest first.
func (s *Store) ListAttributions(ctx context.Context, conversationID string) ([]model.Attribution, error) {
	rows, err := s.Attributions.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, appErrors.NewStoreError("list attributions", err)
	}
	return rows, nil
}
