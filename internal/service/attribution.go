package service

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/unclebandit/wa-router/internal/model"
)

// attributionKeys lists the accepted spellings of every attribution field.
// Gateways forward either camelCase or snake_case; Meta referrals use snake_case.
var attributionKeys = []struct {
	keys []string
	set  func(*model.AttributionData, string)
}{
	{[]string{"campaignId", "campaign_id"}, func(a *model.AttributionData, v string) { a.CampaignID = v }},
	{[]string{"adsetId", "adset_id", "ad_set_id"}, func(a *model.AttributionData, v string) { a.AdsetID = v }},
	{[]string{"adId", "ad_id"}, func(a *model.AttributionData, v string) { a.AdID = v }},
	{[]string{"sourceType", "source_type"}, func(a *model.AttributionData, v string) { a.SourceType = v }},
	{[]string{"sourceId", "source_id"}, func(a *model.AttributionData, v string) { a.SourceID = v }},
	{[]string{"sourceUrl", "source_url"}, func(a *model.AttributionData, v string) { a.SourceURL = v }},
	{[]string{"headline"}, func(a *model.AttributionData, v string) { a.Headline = v }},
	{[]string{"ctwaClid", "ctwa_clid"}, func(a *model.AttributionData, v string) { a.CtwaClid = v }},
	{[]string{"utmSource", "utm_source"}, func(a *model.AttributionData, v string) { a.UTMSource = v }},
	{[]string{"utmMedium", "utm_medium"}, func(a *model.AttributionData, v string) { a.UTMMedium = v }},
	{[]string{"utmCampaign", "utm_campaign"}, func(a *model.AttributionData, v string) { a.UTMCampaign = v }},
	{[]string{"utmContent", "utm_content"}, func(a *model.AttributionData, v string) { a.UTMContent = v }},
	{[]string{"utmTerm", "utm_term"}, func(a *model.AttributionData, v string) { a.UTMTerm = v }},
	{[]string{"landingPage", "landing_page"}, func(a *model.AttributionData, v string) { a.LandingPage = v }},
	{[]string{"referralUrl", "referral_url"}, func(a *model.AttributionData, v string) { a.ReferralURL = v }},
}

var linkPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// AttributionExtractor pulls ad-click metadata out of an inbound message.
type AttributionExtractor struct{}

// Extract merges the attribution object, the provider referral and any UTM
// parameters found on the landing or source URL. Returns nil when nothing
// was found. Malformed payloads are ignored.
func (AttributionExtractor) Extract(msg model.InboundMessage) *model.AttributionData {
	var data model.AttributionData

	// explicit attribution wins over the referral
	applyFields(&data, decodeObject(msg.Referral))
	applyFields(&data, decodeObject(msg.Attribution))

	for _, raw := range []string{data.LandingPage, data.SourceURL, data.ReferralURL} {
		applyUTM(&data, raw)
	}

	if data.Empty() {
		return nil
	}
	return &data
}

// ExtractLinks returns the distinct http(s) links found in a message body.
func ExtractLinks(text string) []string {
	found := linkPattern.FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(found))
	links := make([]string, 0, len(found))
	for _, l := range found {
		l = strings.TrimRight(l, ".,;:!?)")
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		links = append(links, l)
	}
	return links
}

func decodeObject(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

func applyFields(data *model.AttributionData, obj map[string]any) {
	if obj == nil {
		return
	}
	for _, f := range attributionKeys {
		for _, k := range f.keys {
			if v := stringValue(obj[k]); v != "" {
				f.set(data, v)
				break
			}
		}
	}
}

func applyUTM(data *model.AttributionData, raw string) {
	if raw == "" {
		return
	}
	u, err := url.Parse(raw)
	if err != nil {
		return
	}
	q := u.Query()
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = q.Get(key)
		}
	}
	fill(&data.UTMSource, "utm_source")
	fill(&data.UTMMedium, "utm_medium")
	fill(&data.UTMCampaign, "utm_campaign")
	fill(&data.UTMContent, "utm_content")
	fill(&data.UTMTerm, "utm_term")
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool, json.Number:
		return fmt.Sprint(t)
	default:
		return ""
	}
}
