// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrInvalidInbound is returned when an inbound message fails validation.
var ErrInvalidInbound = errors.New("invalid inbound message")

// ErrConversationNotFound is a sentinel error
type ErrConversationNotFound struct {
	ConversationID string
}

func (e *ErrConversationNotFound) Error() string {
	return fmt.Sprintf("conversation with ID %s not found", e.ConversationID)
}

// Helper constructor
func NewConversationNotFound(id string) error {
	return &ErrConversationNotFound{ConversationID: id}
}

// ErrStore wraps a failed store operation on the critical path.
type ErrStore struct {
	Op    string
	Cause error
}

func (e *ErrStore) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Cause)
}

func (e *ErrStore) Unwrap() error { return e.Cause }

func NewStoreError(op string, cause error) error {
	return &ErrStore{Op: op, Cause: cause}
}

// ErrSendFailed is returned when an outbound HTTP call (WhatsApp API, webhook,
// transcription) did not complete with a 2xx response.
type ErrSendFailed struct {
	Target     string
	StatusCode int
	Cause      error
}

func (e *ErrSendFailed) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("send to %s failed: %v", e.Target, e.Cause)
	}
	return fmt.Sprintf("send to %s failed with status %d", e.Target, e.StatusCode)
}

func (e *ErrSendFailed) Unwrap() error { return e.Cause }
