package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/wa-router/internal/model"
)

// ContactRepositoryInterface defines methods used by the store
type ContactRepositoryInterface interface {
	GetByPhone(ctx context.Context, phone string) (*model.Contact, error)
	Upsert(ctx context.Context, phone string, now time.Time) (*model.Contact, error)
}

// ContactRepository works on a pool or on a transaction.
type ContactRepository struct {
	DB sqlx.ExtContext
}

// GetByPhone fetches a contact by phone, nil when absent
func (r *ContactRepository) GetByPhone(ctx context.Context, phone string) (*model.Contact, error) {
	query := r.DB.Rebind(`
        SELECT id, phone, name, email, created_at
        FROM contacts
        WHERE phone = ?
    `)
	var c model.Contact
	if err := sqlx.GetContext(ctx, r.DB, &c, query, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

// Upsert creates the contact for phone unless it already exists, then returns it.
func (r *ContactRepository) Upsert(ctx context.Context, phone string, now time.Time) (*model.Contact, error) {
	query := r.DB.Rebind(`
        INSERT INTO contacts (id, phone, created_at)
        VALUES (?, ?, ?)
        ON CONFLICT (phone) DO NOTHING
    `)
	if _, err := r.DB.ExecContext(ctx, query, uuid.NewString(), phone, now); err != nil {
		return nil, err
	}

	c, err := r.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.New("contact vanished after upsert")
	}
	return c, nil
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
