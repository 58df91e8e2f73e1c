// internal/controller/webhook_controller.go
package controller

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/wa-router/internal/dispatcher"
	"github.com/unclebandit/wa-router/internal/model"
	"github.com/unclebandit/wa-router/internal/queue"
)

// SignatureHeader is set by Meta on every webhook delivery.
const SignatureHeader = "X-Hub-Signature-256"

const maxWebhookBody = 1 << 20

// Publisher hands an inbound message over for asynchronous processing.
type Publisher func(ctx context.Context, msg model.InboundMessage) error

// QueuePublisher publishes on the inbound topic of q.
func QueuePublisher(q queue.Queue) Publisher {
	return func(ctx context.Context, msg model.InboundMessage) error {
		return queue.PublishInbound(ctx, q, msg)
	}
}

// WebhookController receives the WhatsApp Cloud API webhook.
type WebhookController struct {
	Publish     Publisher
	VerifyToken string
	AppSecret   string // empty skips signature verification
	Logger      *zap.Logger
}

func NewWebhookController(publish Publisher, verifyToken, appSecret string, logger *zap.Logger) *WebhookController {
	return &WebhookController{
		Publish:     publish,
		VerifyToken: verifyToken,
		AppSecret:   appSecret,
		Logger:      logger.Named("webhook"),
	}
}

// Verify answers Meta's subscription handshake.
func (c *WebhookController) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if c.VerifyToken == "" || q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != c.VerifyToken {
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, q.Get("hub.challenge"))
}

// Receive queues every message of the envelope and acknowledges right away.
func (c *WebhookController) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if c.AppSecret != "" && !validSignature(c.AppSecret, body, r.Header.Get(SignatureHeader)) {
		c.Logger.Warn("rejected webhook with bad signature", zap.String("remote", r.RemoteAddr))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	for _, msg := range env.InboundMessages() {
		if err := c.Publish(r.Context(), msg); err != nil {
			// a non-2xx makes Meta redeliver; duplicates are filtered by message id
			c.Logger.Error("failed to queue inbound message",
				zap.String("message_id", msg.MessageID), zap.Error(err))
			http.Error(w, "failed to queue message", http.StatusInternalServerError)
			return
		}
		c.Logger.Debug("inbound message queued",
			zap.String("message_id", msg.MessageID), zap.String("type", msg.Type))
	}

	w.WriteHeader(http.StatusOK)
}

func validSignature(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}
	return hmac.Equal([]byte(dispatcher.Sign(secret, body)), []byte(header))
}
