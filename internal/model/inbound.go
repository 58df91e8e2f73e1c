package model

import (
	"encoding/json"
	"strings"
)

// Message types accepted on the inbound contract.
const (
	TypeText     = "text"
	TypeImage    = "image"
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeDocument = "document"
	TypeSticker  = "sticker"
	TypeLink     = "link"
)

// InboundMessage is the already-deserialized message handed over by the gateway.
type InboundMessage struct {
	From        string          `json:"from" validate:"required"`
	To          string          `json:"to"`
	Message     string          `json:"message"`
	MessageID   string          `json:"messageId,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	Type        string          `json:"type,omitempty" validate:"omitempty,oneof=text image video audio document sticker link"`
	Media       *MediaRef       `json:"media,omitempty" validate:"omitempty"`
	Attribution json.RawMessage `json:"attribution,omitempty"`
	Referral    json.RawMessage `json:"referral,omitempty"`
}

// OrderingKey groups messages that must be processed one after another.
func (m InboundMessage) OrderingKey() string {
	return strings.TrimSpace(m.From)
}

// HasMedia reports whether the message carries an attachment to fetch.
func (m InboundMessage) HasMedia() bool {
	return m.Media != nil && m.Media.ID != "" && m.Type != TypeText && m.Type != TypeLink
}
