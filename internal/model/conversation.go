// internal/model/conversation.go
package model

import "time"

const (
	// DefaultArea is the area of a conversation that has not been derived yet.
	DefaultArea = "router-default"

	EstadoNew     = "new"
	EstadoActive  = "active"
	EstadoDerived = "derived"
)

type Conversation struct {
	ID            string    `db:"id" json:"id"`
	ContactID     string    `db:"contact_id" json:"contact_id"`
	Phone         string    `db:"phone" json:"phone"`
	Area          string    `db:"area" json:"area"`
	Estado        string    `db:"estado" json:"estado"` // new, active, derived
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
