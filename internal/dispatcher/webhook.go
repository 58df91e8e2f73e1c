package dispatcher

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	appErrors "github.com/unclebandit/wa-router/internal/errors"
)

// SignatureHeader carries the HMAC-SHA256 of the body when a secret is set.
const SignatureHeader = "X-Signature-256"

// WebhookClient posts JSON payloads to automation endpoints.
type WebhookClient struct {
	HTTP    *http.Client
	Secret  string
	Timeout time.Duration
}

func NewWebhookClient(secret string, timeout time.Duration) *WebhookClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookClient{HTTP: &http.Client{}, Secret: secret, Timeout: timeout}
}

// Sign returns the "sha256=<hex>" signature of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Post sends payload as JSON. Any non-2xx answer is an error.
func (c *WebhookClient) Post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(c.Secret, body))
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &appErrors.ErrSendFailed{Target: url, Cause: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &appErrors.ErrSendFailed{Target: url, StatusCode: resp.StatusCode}
	}
	return nil
}
