// internal/handler/conversation_handler.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/wa-router/internal/errors"
	"github.com/unclebandit/wa-router/internal/model"
	"github.com/unclebandit/wa-router/internal/service"
)

// ConversationReader is the read side of the store used by support tooling.
type ConversationReader interface {
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	CountMessages(ctx context.Context, conversationID string) (int, error)
	ListAttributions(ctx context.Context, conversationID string) ([]model.Attribution, error)
}

// ConversationHandler holds the dependencies for conversation HTTP handlers
type ConversationHandler struct {
	Store     ConversationReader
	Inference *service.StateInference
	Logger    *zap.Logger
}

func NewConversationHandler(store ConversationReader, inference *service.StateInference, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{Store: store, Inference: inference, Logger: logger.Named("conversations")}
}

type menuState struct {
	Kind string `json:"kind"`
	Area string `json:"area,omitempty"`
}

type conversationDetails struct {
	*model.Conversation
	MenuState    menuState           `json:"menu_state"`
	MessageCount int                 `json:"message_count"`
	Attributions []model.Attribution `json:"attributions,omitempty"`
}

// GetConversation returns a conversation with its inferred menu position.
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return
	}

	conv, err := h.Store.GetConversation(r.Context(), id)
	if err != nil {
		var notFound *appErrors.ErrConversationNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.Logger.Error("failed to fetch conversation", zap.String("conversation_id", id), zap.Error(err))
		http.Error(w, "failed to fetch conversation", http.StatusInternalServerError)
		return
	}

	count, err := h.Store.CountMessages(r.Context(), id)
	if err != nil {
		h.Logger.Error("failed to count messages", zap.String("conversation_id", id), zap.Error(err))
		http.Error(w, "failed to fetch conversation", http.StatusInternalServerError)
		return
	}

	attributions, err := h.Store.ListAttributions(r.Context(), id)
	if err != nil {
		h.Logger.Warn("failed to list attributions", zap.String("conversation_id", id), zap.Error(err))
	}

	state, err := h.Inference.Infer(r.Context(), id)
	if err != nil {
		h.Logger.Warn("state inference failed", zap.String("conversation_id", id), zap.Error(err))
	}

	details := conversationDetails{
		Conversation: conv,
		MenuState:    menuState{Kind: kindName(state.Kind), Area: state.Area},
		MessageCount: count,
		Attributions: attributions,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(details)
}

func kindName(k service.MenuKind) string {
	if k == service.MenuSubmenu {
		return "submenu"
	}
	return "main"
}
