// internal/controller/message_controller.go
package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/wa-router/internal/model"
)

type Processor interface {
	Process(ctx context.Context, msg model.InboundMessage) model.ProcessResult
}

// MessageController exposes the gateway contract: one already-parsed
// inbound message per request, processed synchronously.
type MessageController struct {
	Processor Processor
	Logger    *zap.Logger
}

func NewMessageController(p Processor, logger *zap.Logger) *MessageController {
	return &MessageController{Processor: p, Logger: logger.Named("messages")}
}

func (c *MessageController) Create(w http.ResponseWriter, r *http.Request) {
	var msg model.InboundMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ProcessResult{Success: false, Message: "invalid body"})
		return
	}

	res := c.Processor.Process(r.Context(), msg)
	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
		c.Logger.Warn("message processing failed", zap.String("from", msg.From), zap.String("reason", res.Message))
	}
	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
