package service

import (
	"context"
	"time"
)

// DefaultAntiLoopWindow is the cooldown applied after the last message of a conversation.
const DefaultAntiLoopWindow = 15 * time.Minute

type LastMessageReader interface {
	LastMessageAt(ctx context.Context, conversationID string) (time.Time, bool, error)
}

// AntiLoopGuard short-circuits processing when a conversation saw a message
// less than Window ago. A zero Window disables the guard.
type AntiLoopGuard struct {
	Messages LastMessageReader
	Window   time.Duration
	Now      func() time.Time
}

func NewAntiLoopGuard(messages LastMessageReader, window time.Duration) *AntiLoopGuard {
	return &AntiLoopGuard{Messages: messages, Window: window, Now: time.Now}
}

// IsSuppressed reports whether inbound processing should stop after persistence.
func (g *AntiLoopGuard) IsSuppressed(ctx context.Context, conversationID string) (bool, error) {
	if g.Window <= 0 {
		return false, nil
	}
	last, ok, err := g.Messages.LastMessageAt(ctx, conversationID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return g.now().Sub(last) < g.Window, nil
}

func (g *AntiLoopGuard) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}
