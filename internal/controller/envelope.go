// internal/controller/envelope.go
package controller

import (
	"encoding/json"

	"github.com/unclebandit/wa-router/internal/model"
)

// Envelope is the body Meta posts to the WhatsApp Cloud API webhook.
type Envelope struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string      `json:"field"`
			Value changeValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type changeValue struct {
	MessagingProduct string `json:"messaging_product"`
	Metadata         struct {
		DisplayPhoneNumber string `json:"display_phone_number"`
		PhoneNumberID      string `json:"phone_number_id"`
	} `json:"metadata"`
	Messages []waMessage `json:"messages"`
}

type waMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

type waMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image    *waMedia `json:"image"`
	Audio    *waMedia `json:"audio"`
	Video    *waMedia `json:"video"`
	Document *waMedia `json:"document"`
	Sticker  *waMedia `json:"sticker"`
	Button   *struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
	Referral json.RawMessage `json:"referral"`
}

// InboundMessages flattens every user message of the envelope. Status
// callbacks and unsupported message types are skipped.
func (e Envelope) InboundMessages() []model.InboundMessage {
	var out []model.InboundMessage
	for _, entry := range e.Entry {
		for _, change := range entry.Changes {
			if change.Field != "" && change.Field != "messages" {
				continue
			}
			for _, m := range change.Value.Messages {
				if msg, ok := m.toInbound(change.Value.Metadata.DisplayPhoneNumber); ok {
					out = append(out, msg)
				}
			}
		}
	}
	return out
}

func (m waMessage) toInbound(to string) (model.InboundMessage, bool) {
	msg := model.InboundMessage{
		From:      m.From,
		To:        to,
		MessageID: m.ID,
		Timestamp: m.Timestamp,
		Type:      model.TypeText,
	}
	if len(m.Referral) > 0 && string(m.Referral) != "null" {
		msg.Referral = m.Referral
	}

	attach := func(kind string, media *waMedia) {
		msg.Type = kind
		msg.Message = media.Caption
		msg.Media = &model.MediaRef{
			ID:       media.ID,
			MimeType: media.MimeType,
			Caption:  media.Caption,
			SHA256:   media.SHA256,
		}
	}

	switch {
	case m.Type == "text" && m.Text != nil:
		msg.Message = m.Text.Body
	case m.Type == "image" && m.Image != nil:
		attach(model.TypeImage, m.Image)
	case m.Type == "audio" && m.Audio != nil:
		attach(model.TypeAudio, m.Audio)
	case m.Type == "video" && m.Video != nil:
		attach(model.TypeVideo, m.Video)
	case m.Type == "document" && m.Document != nil:
		attach(model.TypeDocument, m.Document)
	case m.Type == "sticker" && m.Sticker != nil:
		attach(model.TypeSticker, m.Sticker)
	case m.Type == "button" && m.Button != nil:
		msg.Message = firstNonEmpty(m.Button.Payload, m.Button.Text)
	case m.Type == "interactive" && m.Interactive != nil:
		switch {
		case m.Interactive.ButtonReply != nil:
			msg.Message = firstNonEmpty(m.Interactive.ButtonReply.ID, m.Interactive.ButtonReply.Title)
		case m.Interactive.ListReply != nil:
			msg.Message = firstNonEmpty(m.Interactive.ListReply.ID, m.Interactive.ListReply.Title)
		default:
			return msg, false
		}
	default:
		return msg, false
	}
	return msg, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
