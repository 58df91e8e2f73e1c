// internal/service/processor.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/wa-router/internal/dispatcher"
	appErrors "github.com/unclebandit/wa-router/internal/errors"
	"github.com/unclebandit/wa-router/internal/keylock"
	"github.com/unclebandit/wa-router/internal/menu"
	"github.com/unclebandit/wa-router/internal/model"
)

// Result messages that are not failures.
const (
	ResultDuplicate  = "duplicate"
	ResultSuppressed = "suppressed"
)

// ConversationStore is everything the processor needs from persistence.
type ConversationStore interface {
	MessageLister
	LastMessageReader
	ResolveOrCreateConversation(ctx context.Context, phone string) (*model.Conversation, error)
	SaveMessage(ctx context.Context, conversationID, sender, body string, metadata *model.MessageMetadata) (*model.Message, error)
	SaveAttribution(ctx context.Context, messageID int64, conversationID string, data model.AttributionData) error
	DeriveConversation(ctx context.Context, conversationID, area string) error
}

type MediaProcessor interface {
	Process(ctx context.Context, conversationID string, ref model.MediaRef, messageType string) (*model.MediaDescriptor, error)
}

// OutboundDispatcher performs best-effort side effects; it never reports errors.
type OutboundDispatcher interface {
	SendReply(ctx context.Context, phone, text string)
	FireIngestion(ctx context.Context, area string, payload dispatcher.IngestionPayload)
	FireDerivation(ctx context.Context, area string, payload dispatcher.DerivationPayload)
}

type Options struct {
	AntiLoopWindow time.Duration
	HistoryWindow  int
	Deduper        *Deduper // nil disables message-id de-duplication
}

// Processor runs one inbound message through the whole routing pipeline.
type Processor struct {
	Store       ConversationStore
	Media       MediaProcessor // nil skips attachments
	Dispatcher  OutboundDispatcher
	Guard       *AntiLoopGuard
	Inference   *StateInference
	Router      *Router
	Attribution AttributionExtractor
	Dedupe      *Deduper
	Locks       *keylock.KeyLock
	Logger      *zap.Logger

	validate *validator.Validate
}

func NewProcessor(store ConversationStore, media MediaProcessor, out OutboundDispatcher, catalog *menu.Catalog, opts Options, logger *zap.Logger) *Processor {
	return &Processor{
		Store:      store,
		Media:      media,
		Dispatcher: out,
		Guard:      NewAntiLoopGuard(store, opts.AntiLoopWindow),
		Inference:  NewStateInference(store, catalog, opts.HistoryWindow),
		Router:     NewRouter(catalog),
		Dedupe:     opts.Deduper,
		Locks:      keylock.New(),
		Logger:     logger.Named("processor"),
		validate:   validator.New(),
	}
}

// Process never returns an error: every outcome is reported in the result.
// Messages from the same phone are processed one at a time.
func (p *Processor) Process(ctx context.Context, msg model.InboundMessage) (result model.ProcessResult) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("panic while processing message", zap.Any("panic", r), zap.Stack("stack"))
			result = model.ProcessResult{Success: false, Message: "internal error"}
		}
	}()

	msg.From = strings.TrimSpace(msg.From)
	if err := p.validate.Struct(msg); err != nil {
		p.Logger.Warn("rejected inbound message", zap.Error(err))
		return failure(fmt.Errorf("%w: %v", appErrors.ErrInvalidInbound, err), "")
	}

	if p.Dedupe != nil && p.Dedupe.Seen(msg.MessageID) {
		p.Logger.Info("duplicate message ignored", zap.String("message_id", msg.MessageID))
		return model.ProcessResult{Success: true, Message: ResultDuplicate}
	}

	unlock := p.Locks.Lock(msg.OrderingKey())
	defer unlock()

	phone := msg.From
	conv, err := p.Store.ResolveOrCreateConversation(ctx, phone)
	if err != nil {
		p.Logger.Error("failed to resolve conversation", zap.String("phone", phone), zap.Error(err))
		p.forget(msg)
		return failure(err, "")
	}
	log := p.Logger.With(zap.String("conversation_id", conv.ID), zap.String("phone", phone))

	suppressed, err := p.Guard.IsSuppressed(ctx, conv.ID)
	if err != nil {
		log.Warn("anti-loop check failed, continuing", zap.Error(err))
		suppressed = false
	}

	var (
		attribution *model.AttributionData
		media       *model.MediaDescriptor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		attribution = p.Attribution.Extract(msg)
		return nil
	})
	if p.Media != nil && msg.HasMedia() {
		g.Go(func() error {
			desc, err := p.Media.Process(gctx, conv.ID, *msg.Media, msg.Type)
			if err != nil {
				log.Warn("media processing failed", zap.String("media_id", msg.Media.ID), zap.Error(err))
				return nil
			}
			media = desc
			return nil
		})
	}
	_ = g.Wait()

	saved, err := p.Store.SaveMessage(ctx, conv.ID, phone, msg.Message, buildMetadata(msg, media, attribution))
	if err != nil {
		log.Error("failed to persist inbound message", zap.Error(err))
		p.forget(msg)
		return failure(err, conv.ID)
	}

	if attribution != nil {
		if err := p.Store.SaveAttribution(ctx, saved.ID, conv.ID, *attribution); err != nil {
			log.Warn("failed to save attribution", zap.Int64("message_id", saved.ID), zap.Error(err))
		}
	}

	if suppressed {
		log.Info("anti-loop window active, message stored without routing")
		return model.ProcessResult{Success: true, Message: ResultSuppressed, ConversationID: conv.ID, Area: conv.Area}
	}

	state := MainState()
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		p.Dispatcher.FireIngestion(gctx, conv.Area, dispatcher.IngestionPayload{
			ConversationID: conv.ID,
			Phone:          phone,
			Message:        msg.Message,
			Media:          media,
		})
		return nil
	})
	g.Go(func() error {
		s, err := p.Inference.Infer(gctx, conv.ID)
		if err != nil {
			log.Warn("state inference failed, assuming main menu", zap.Error(err))
		}
		state = s
		return nil
	})
	_ = g.Wait()

	decision := p.Router.Decide(state, msg.Message)
	log.Debug("routing decision",
		zap.String("state", state.String()),
		zap.String("next", decision.Next.String()))

	if _, err := p.Store.SaveMessage(ctx, conv.ID, model.SenderSystem, decision.Reply, nil); err != nil {
		log.Error("failed to persist reply", zap.Error(err))
		return failure(err, conv.ID)
	}

	result = model.ProcessResult{Success: true, ConversationID: conv.ID, Area: conv.Area}
	if d := decision.Derivation; d != nil {
		if err := p.Store.DeriveConversation(ctx, conv.ID, d.Area); err != nil {
			log.Warn("failed to update conversation area", zap.String("area", d.Area), zap.Error(err))
		}
		result.Area = d.Area
		result.Subarea = d.Subarea
		log.Info("conversation derived", zap.String("area", d.Area), zap.String("subarea", d.Subarea))
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		p.Dispatcher.SendReply(gctx, phone, decision.Reply)
		return nil
	})
	if d := decision.Derivation; d != nil {
		g.Go(func() error {
			p.Dispatcher.FireDerivation(gctx, d.Area, dispatcher.DerivationPayload{
				ConversationID: conv.ID,
				Phone:          phone,
				Area:           d.Area,
				Subarea:        d.Subarea,
			})
			return nil
		})
	}
	_ = g.Wait()

	return result
}

// forget lets a redelivery of a failed message be processed again.
func (p *Processor) forget(msg model.InboundMessage) {
	if p.Dedupe != nil && msg.MessageID != "" {
		p.Dedupe.Forget(msg.MessageID)
	}
}

func failure(err error, conversationID string) model.ProcessResult {
	return model.ProcessResult{Success: false, Message: err.Error(), ConversationID: conversationID}
}

func buildMetadata(msg model.InboundMessage, media *model.MediaDescriptor, attribution *model.AttributionData) *model.MessageMetadata {
	md := &model.MessageMetadata{
		Type:              msg.Type,
		ProviderMessageID: msg.MessageID,
		ProviderTimestamp: msg.Timestamp,
		Media:             media,
		Links:             ExtractLinks(msg.Message),
		Attribution:       attribution,
	}
	if md.Type == "" {
		md.Type = model.TypeText
	}
	if msg.Media != nil {
		md.Caption = msg.Media.Caption
	}
	return md
}
