// Package dispatcher delivers the side effects of a routing decision: the
// WhatsApp reply and the automation webhooks. Every call is best-effort.
package dispatcher

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/unclebandit/wa-router/internal/menu"
	"github.com/unclebandit/wa-router/internal/whatsapp"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// Routes maps area slugs to webhook URLs. Built once from configuration.
type Routes struct {
	Ingestion        map[string]string
	IngestionDefault string
	Derivation       map[string]string
}

// IngestionURL resolves the ingestion webhook of an area, falling back to the default.
func (r Routes) IngestionURL(area string) string {
	if u := r.Ingestion[menu.Slug(area)]; u != "" {
		return u
	}
	return r.IngestionDefault
}

// DerivationURL resolves the derivation webhook of an area. There is no fallback.
func (r Routes) DerivationURL(area string) string {
	return r.Derivation[menu.Slug(area)]
}

type Dispatcher struct {
	Sender   Sender
	Webhooks *WebhookClient
	Routes   Routes
	Logger   *zap.Logger
}

func New(sender Sender, webhooks *WebhookClient, routes Routes, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		Sender:   sender,
		Webhooks: webhooks,
		Routes:   routes,
		Logger:   logger.Named("dispatcher"),
	}
}

// SendReply sends text to phone. Failures are logged, never returned.
func (d *Dispatcher) SendReply(ctx context.Context, phone, text string) {
	if d.Sender == nil {
		d.Logger.Warn("no reply sender configured, reply dropped", zap.String("phone", phone))
		return
	}
	err := d.Sender.SendText(ctx, phone, text)
	switch {
	case err == nil:
		d.Logger.Debug("reply sent", zap.String("phone", phone))
	case errors.Is(err, whatsapp.ErrNotConfigured):
		d.Logger.Warn("whatsapp token missing, reply not sent", zap.String("phone", phone))
	default:
		d.Logger.Warn("reply send failed", zap.String("phone", phone), zap.Error(err))
	}
}

// FireIngestion notifies the ingestion webhook of area.
func (d *Dispatcher) FireIngestion(ctx context.Context, area string, payload IngestionPayload) {
	d.fire(ctx, "ingestion", area, d.Routes.IngestionURL(area), payload)
}

// FireDerivation notifies the derivation webhook of area.
func (d *Dispatcher) FireDerivation(ctx context.Context, area string, payload DerivationPayload) {
	d.fire(ctx, "derivation", area, d.Routes.DerivationURL(area), payload)
}

func (d *Dispatcher) fire(ctx context.Context, kind, area, url string, payload any) {
	log := d.Logger.With(zap.String("webhook", kind), zap.String("area", area))
	if url == "" {
		log.Debug("no webhook configured")
		return
	}
	if d.Webhooks == nil {
		log.Warn("webhook client missing")
		return
	}
	if err := d.Webhooks.Post(ctx, url, payload); err != nil {
		log.Warn("webhook failed", zap.Error(err))
		return
	}
	log.Debug("webhook delivered")
}
