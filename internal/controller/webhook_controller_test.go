package controller_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/wa-router/internal/controller"
	"github.com/unclebandit/wa-router/internal/dispatcher"
	"github.com/unclebandit/wa-router/internal/model"
)

const envelope = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "1029",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "5491100000000", "phone_number_id": "123"},
        "messages": [
          {"from": "5491122334455", "id": "wamid.1", "timestamp": "1767225600", "type": "text",
           "text": {"body": "hola"},
           "referral": {"source_url": "https://fb.me/x?utm_source=facebook", "source_type": "ad", "ctwa_clid": "c1"}},
          {"from": "5491122334455", "id": "wamid.2", "timestamp": "1767225601", "type": "audio",
           "audio": {"id": "media-9", "mime_type": "audio/ogg; codecs=opus"}},
          {"from": "5491122334455", "id": "wamid.3", "timestamp": "1767225602", "type": "interactive",
           "interactive": {"type": "button_reply", "button_reply": {"id": "2", "title": "Alumnos"}}},
          {"from": "5491122334455", "id": "wamid.4", "timestamp": "1767225603", "type": "image",
           "image": {"id": "img-1", "mime_type": "image/jpeg", "caption": "comprobante"}},
          {"from": "5491122334455", "id": "wamid.5", "timestamp": "1767225604", "type": "reaction",
           "reaction": {"emoji": "👍"}}
        ]
      }
    }]
  }]
}`

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []model.InboundMessage
	err  error
}

func (p *recordingPublisher) publish(_ context.Context, msg model.InboundMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestEnvelopeInboundMessages(t *testing.T) {
	var env controller.Envelope
	require.NoError(t, json.Unmarshal([]byte(envelope), &env))

	msgs := env.InboundMessages()
	require.Len(t, msgs, 4, "unsupported types are skipped")

	assert.Equal(t, "5491122334455", msgs[0].From)
	assert.Equal(t, "5491100000000", msgs[0].To)
	assert.Equal(t, "hola", msgs[0].Message)
	assert.Equal(t, model.TypeText, msgs[0].Type)
	assert.Contains(t, string(msgs[0].Referral), "ctwa_clid")

	assert.Equal(t, model.TypeAudio, msgs[1].Type)
	require.NotNil(t, msgs[1].Media)
	assert.Equal(t, "media-9", msgs[1].Media.ID)
	assert.True(t, msgs[1].HasMedia())
	assert.Empty(t, msgs[1].Referral)

	assert.Equal(t, model.TypeText, msgs[2].Type)
	assert.Equal(t, "2", msgs[2].Message)

	assert.Equal(t, "comprobante", msgs[3].Message)
	assert.Equal(t, "comprobante", msgs[3].Media.Caption)
}

func TestVerify(t *testing.T) {
	ctrl := controller.NewWebhookController(nil, "tok", "", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=tok&hub.challenge=42", nil)
	w := httptest.NewRecorder()
	ctrl.Verify(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=42", nil)
	w = httptest.NewRecorder()
	ctrl.Verify(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReceivePublishesMessages(t *testing.T) {
	pub := &recordingPublisher{}
	ctrl := controller.NewWebhookController(pub.publish, "", "", zap.NewNop())

	w := httptest.NewRecorder()
	ctrl.Receive(w, httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(envelope)))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, pub.msgs, 4)
	assert.Equal(t, "wamid.1", pub.msgs[0].MessageID)
}

func TestReceiveChecksSignature(t *testing.T) {
	pub := &recordingPublisher{}
	ctrl := controller.NewWebhookController(pub.publish, "", "app-secret", zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(envelope))
	req.Header.Set(controller.SignatureHeader, "sha256=deadbeef")
	w := httptest.NewRecorder()
	ctrl.Receive(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, pub.msgs)

	req = httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(envelope))
	req.Header.Set(controller.SignatureHeader, dispatcher.Sign("app-secret", []byte(envelope)))
	w = httptest.NewRecorder()
	ctrl.Receive(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, pub.msgs, 4)
}

func TestReceiveErrors(t *testing.T) {
	ctrl := controller.NewWebhookController((&recordingPublisher{}).publish, "", "", zap.NewNop())
	w := httptest.NewRecorder()
	ctrl.Receive(w, httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	failing := &recordingPublisher{err: errors.New("queue closed")}
	ctrl = controller.NewWebhookController(failing.publish, "", "", zap.NewNop())
	w = httptest.NewRecorder()
	ctrl.Receive(w, httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(envelope)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// --- MessageController ---

type stubProcessor struct {
	result model.ProcessResult
	got    model.InboundMessage
}

func (s *stubProcessor) Process(_ context.Context, msg model.InboundMessage) model.ProcessResult {
	s.got = msg
	return s.result
}

func TestCreateMessage(t *testing.T) {
	p := &stubProcessor{result: model.ProcessResult{Success: true, ConversationID: "c1", Area: "router-default"}}
	ctrl := controller.NewMessageController(p, zap.NewNop())

	body := `{"from":"5491122334455","to":"5491100000000","message":"2","messageId":"wamid.9"}`
	w := httptest.NewRecorder()
	ctrl.Create(w, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", p.got.Message)
	var res model.ProcessResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, p.result, res)
}

func TestCreateMessageFailures(t *testing.T) {
	p := &stubProcessor{result: model.ProcessResult{Success: false, Message: "store down"}}
	ctrl := controller.NewMessageController(p, zap.NewNop())

	w := httptest.NewRecorder()
	ctrl.Create(w, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"from":"1"}`)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "store down")

	w = httptest.NewRecorder()
	ctrl.Create(w, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
