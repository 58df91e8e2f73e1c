package dispatcher

import "github.com/unclebandit/wa-router/internal/model"

// IngestionPayload is posted once per processed inbound message.
type IngestionPayload struct {
	ConversationID string                 `json:"conversationId"`
	Phone          string                 `json:"phone"`
	Message        string                 `json:"message"`
	Media          *model.MediaDescriptor `json:"media,omitempty"`
}

// DerivationPayload is posted once when a conversation is handed to an area.
type DerivationPayload struct {
	ConversationID string `json:"conversationId"`
	Phone          string `json:"phone"`
	Area           string `json:"area"`
	Subarea        string `json:"subarea,omitempty"`
}
