// internal/model/contact.go
package model

import "time"

// Contact is keyed by phone number and reused by every conversation for that number.
type Contact struct {
	ID        string    `db:"id" json:"id"`
	Phone     string    `db:"phone" json:"phone"`
	Name      *string   `db:"name" json:"name,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
