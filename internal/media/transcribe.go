package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appErrors "github.com/unclebandit/wa-router/internal/errors"
)

// Transcriber turns a publicly reachable audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, mimeType string) (string, error)
}

type transcribeRequest struct {
	AudioURL string `json:"audioUrl"`
	MimeType string `json:"mimeType"`
}

type transcribeResponse struct {
	Text string `json:"text"`
}

// HTTPTranscriber calls a speech-to-text service over HTTP.
type HTTPTranscriber struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

func NewHTTPTranscriber(url string, timeout time.Duration) *HTTPTranscriber {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTranscriber{URL: url, Timeout: timeout, Client: &http.Client{}}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audioURL, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	body, err := json.Marshal(transcribeRequest{AudioURL: audioURL, MimeType: mimeType})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return "", &appErrors.ErrSendFailed{Target: "transcription", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &appErrors.ErrSendFailed{Target: "transcription", StatusCode: resp.StatusCode}
	}

	var out transcribeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}
