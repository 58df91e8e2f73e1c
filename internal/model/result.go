package model

// ProcessResult is what the processor reports for every inbound message.
type ProcessResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	Area           string `json:"area,omitempty"`
	Subarea        string `json:"subarea,omitempty"`
}
