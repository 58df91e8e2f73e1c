package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/wa-router/internal/errors"
)

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "5491122334455", DigitsOnly("+54 9 11 2233-4455"))
	assert.Equal(t, "", DigitsOnly("abc"))
}

func TestSendText(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v21.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/v21.0/", PhoneNumberID: "12345", Token: "tok"}, zap.NewNop())
	require.NoError(t, c.SendText(context.Background(), "+54 9 11 2233-4455", "hola"))

	assert.Equal(t, "whatsapp", got["messaging_product"])
	assert.Equal(t, "5491122334455", got["to"])
	assert.Equal(t, "text", got["type"])
	assert.Equal(t, map[string]any{"body": "hola"}, got["text"])
}

func TestSendTextWithoutToken(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"}, zap.NewNop())
	assert.False(t, c.Enabled())
	assert.ErrorIs(t, c.SendText(context.Background(), "1", "x"), ErrNotConfigured)
}

func TestSendTextNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, PhoneNumberID: "1", Token: "tok"}, zap.NewNop())
	err := c.SendText(context.Background(), "1", "x")
	var sendErr *appErrors.ErrSendFailed
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, http.StatusBadRequest, sendErr.StatusCode)
}

func TestMediaInfoAndDownload(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/media-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(MediaInfo{ID: "media-1", URL: srv.URL + "/signed/media-1", MimeType: "audio/ogg"})
	})
	mux.HandleFunc("/signed/media-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("OggS-binary"))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "tok"}, zap.NewNop())
	info, err := c.MediaInfo(context.Background(), "media-1")
	require.NoError(t, err)
	assert.Equal(t, "audio/ogg", info.MimeType)

	data, err := c.Download(context.Background(), info.URL, 1024)
	require.NoError(t, err)
	assert.Equal(t, "OggS-binary", string(data))

	_, err = c.Download(context.Background(), info.URL, 4)
	assert.ErrorIs(t, err, ErrMediaTooLarge)
}
