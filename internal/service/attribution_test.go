package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/wa-router/internal/model"
)

func TestExtractAttribution(t *testing.T) {
	msg := model.InboundMessage{
		Attribution: json.RawMessage(`{"campaignId":"c-1","adset_id":"as-9","adId":12345,"landingPage":"https://uni.example/?utm_source=ig&utm_medium=cpc&utm_term=beca"}`),
		Referral:    json.RawMessage(`{"source_type":"ad","source_id":"987","headline":"Inscribite","campaign_id":"from-referral"}`),
	}
	got := AttributionExtractor{}.Extract(msg)
	require.NotNil(t, got)

	assert.Equal(t, "c-1", got.CampaignID, "attribution object wins over referral")
	assert.Equal(t, "as-9", got.AdsetID)
	assert.Equal(t, "12345", got.AdID)
	assert.Equal(t, "ad", got.SourceType)
	assert.Equal(t, "987", got.SourceID)
	assert.Equal(t, "Inscribite", got.Headline)
	assert.Equal(t, "ig", got.UTMSource)
	assert.Equal(t, "cpc", got.UTMMedium)
	assert.Equal(t, "beca", got.UTMTerm)
	assert.Empty(t, got.UTMCampaign)
}

func TestExtractAttributionExplicitUTMWins(t *testing.T) {
	msg := model.InboundMessage{
		Attribution: json.RawMessage(`{"utm_source":"newsletter","sourceUrl":"https://x.example/?utm_source=fb"}`),
	}
	got := AttributionExtractor{}.Extract(msg)
	require.NotNil(t, got)
	assert.Equal(t, "newsletter", got.UTMSource)
}

func TestExtractAttributionEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", "{}", "[1,2]", "not json", `{"unrelated":"x"}`} {
		msg := model.InboundMessage{Attribution: json.RawMessage(raw)}
		assert.Nil(t, AttributionExtractor{}.Extract(msg), raw)
	}
}

func TestExtractLinks(t *testing.T) {
	assert.Nil(t, ExtractLinks("sin links"))
	assert.Equal(t,
		[]string{"https://a.example/x", "http://b.example/?q=1"},
		ExtractLinks("mirá https://a.example/x, y (http://b.example/?q=1) y https://a.example/x."))
}
