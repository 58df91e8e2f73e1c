package service

import (
	"context"
	"fmt"

	"github.com/unclebandit/wa-router/internal/menu"
	"github.com/unclebandit/wa-router/internal/model"
)

// DefaultHistoryWindow is how many recent messages are scanned for sentinels.
const DefaultHistoryWindow = 10

// MessageLister is the slice of the store the inference engine reads from.
type MessageLister interface {
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
}

// StateInference rebuilds the menu state from the conversation history.
// There is no state column: the most recent system message carrying a known
// sentinel decides. Rewording menu copy without keeping the sentinels resets
// every open conversation to the main menu.
type StateInference struct {
	Messages MessageLister
	Catalog  *menu.Catalog
	Window   int
}

func NewStateInference(messages MessageLister, catalog *menu.Catalog, window int) *StateInference {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &StateInference{Messages: messages, Catalog: catalog, Window: window}
}

// Infer returns the current state of a conversation.
func (s *StateInference) Infer(ctx context.Context, conversationID string) (State, error) {
	msgs, err := s.Messages.RecentMessages(ctx, conversationID, s.Window)
	if err != nil {
		return MainState(), fmt.Errorf("infer state of %s: %w", conversationID, err)
	}
	return s.FromHistory(msgs), nil
}

// FromHistory scans newest-first messages for the first matching sentinel.
func (s *StateInference) FromHistory(newestFirst []model.Message) State {
	for _, m := range newestFirst {
		if !m.IsSystem() {
			continue
		}
		switch {
		case s.Catalog.IsMainMenu(m.Body):
			return MainState()
		case s.Catalog.IsDerivation(m.Body):
			return MainState()
		}
		if area, ok := s.Catalog.SubmenuArea(m.Body); ok {
			return SubmenuState(area)
		}
	}
	return MainState()
}
