// internal/model/message.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SenderSystem tags messages generated by the routing engine.
const SenderSystem = "system"

type Message struct {
	ID             int64            `db:"id" json:"id"`
	ConversationID string           `db:"conversation_id" json:"conversation_id"`
	Sender         string           `db:"sender" json:"sender"`
	Body           string           `db:"body" json:"body"`
	Metadata       *MessageMetadata `db:"metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// IsSystem reports whether the message was produced by the engine.
func (m Message) IsSystem() bool {
	return m.Sender == SenderSystem
}

// MessageMetadata is the free-form blob stored next to every message.
type MessageMetadata struct {
	Type              string           `json:"type,omitempty"`
	ProviderMessageID string           `json:"providerMessageId,omitempty"`
	ProviderTimestamp string           `json:"providerTimestamp,omitempty"`
	Caption           string           `json:"caption,omitempty"`
	Media             *MediaDescriptor `json:"media,omitempty"`
	Links             []string         `json:"links,omitempty"`
	Attribution       *AttributionData `json:"attribution,omitempty"`
}

// Empty reports whether nothing worth storing was collected.
func (m *MessageMetadata) Empty() bool {
	return m == nil || (m.Type == "" && m.ProviderMessageID == "" && m.ProviderTimestamp == "" &&
		m.Caption == "" && m.Media == nil && len(m.Links) == 0 && m.Attribution == nil)
}

// Value stores the metadata as JSON text so it fits both jsonb and TEXT columns.
func (m *MessageMetadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *MessageMetadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("message metadata: unsupported type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, m)
}
