// Package whatsapp talks to the WhatsApp Cloud (Graph) API: text sends and
// the two-step media download.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appErrors "github.com/unclebandit/wa-router/internal/errors"
)

// ErrNotConfigured is returned by every call when no access token is set.
var ErrNotConfigured = errors.New("whatsapp: access token not configured")

// ErrMediaTooLarge is returned when a download exceeds the configured limit.
var ErrMediaTooLarge = errors.New("whatsapp: media too large")

type Config struct {
	BaseURL       string
	PhoneNumberID string
	Token         string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// MediaInfo is the metadata returned by the media-by-id endpoint.
type MediaInfo struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
	FileSize int64  `json:"file_size"`
}

type textBody struct {
	Body string `json:"body"`
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logger = logger.Named("whatsapp")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "whatsapp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		breaker: breaker,
		logger:  logger,
	}
}

// Enabled reports whether an access token is configured.
func (c *Client) Enabled() bool {
	return c.cfg.Token != ""
}

// DigitsOnly strips every non-digit from a phone number.
func DigitsOnly(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}

// SendText posts a text message. It is not retried.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               DigitsOnly(to),
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/messages", c.cfg.BaseURL, c.cfg.PhoneNumberID)
	_, err = c.do(ctx, http.MethodPost, endpoint, payload, -1)
	return err
}

// MediaInfo resolves a media id into its signed download URL.
func (c *Client) MediaInfo(ctx context.Context, mediaID string) (*MediaInfo, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	raw, err := c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/"+mediaID, nil, 1<<20)
	if err != nil {
		return nil, err
	}
	var info MediaInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decode media info: %w", err)
	}
	if info.URL == "" {
		return nil, fmt.Errorf("media %s has no download url", mediaID)
	}
	return &info, nil
}

// Download fetches the binary behind a signed media URL. The signed URL
// still requires the bearer token.
func (c *Client) Download(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	return c.do(ctx, http.MethodGet, url, nil, maxBytes)
}

// do runs one rate-limited, breaker-guarded call. maxBytes < 0 discards the body.
func (c *Client) do(ctx context.Context, method, url string, body []byte, maxBytes int64) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, &appErrors.ErrSendFailed{Target: "whatsapp", Cause: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			c.logger.Debug("graph api error body", zap.Int("status", resp.StatusCode), zap.ByteString("body", snippet))
			return nil, &appErrors.ErrSendFailed{Target: "whatsapp", StatusCode: resp.StatusCode}
		}

		if maxBytes < 0 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return []byte(nil), nil
		}
		return readAllWithLimit(resp.Body, maxBytes)
	})
	if err != nil {
		return nil, err
	}
	data, _ := out.([]byte)
	return data, nil
}

func readAllWithLimit(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes == 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(&io.LimitedReader{R: r, N: maxBytes + 1})
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrMediaTooLarge, maxBytes)
	}
	return data, nil
}
