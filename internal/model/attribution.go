package model

import "time"

// AttributionData captures ad-click and campaign metadata of an inbound message.
type AttributionData struct {
	CampaignID  string `db:"campaign_id" json:"campaignId,omitempty"`
	AdsetID     string `db:"adset_id" json:"adsetId,omitempty"`
	AdID        string `db:"ad_id" json:"adId,omitempty"`
	SourceType  string `db:"source_type" json:"sourceType,omitempty"`
	SourceID    string `db:"source_id" json:"sourceId,omitempty"`
	SourceURL   string `db:"source_url" json:"sourceUrl,omitempty"`
	Headline    string `db:"headline" json:"headline,omitempty"`
	CtwaClid    string `db:"ctwa_clid" json:"ctwaClid,omitempty"`
	UTMSource   string `db:"utm_source" json:"utmSource,omitempty"`
	UTMMedium   string `db:"utm_medium" json:"utmMedium,omitempty"`
	UTMCampaign string `db:"utm_campaign" json:"utmCampaign,omitempty"`
	UTMContent  string `db:"utm_content" json:"utmContent,omitempty"`
	UTMTerm     string `db:"utm_term" json:"utmTerm,omitempty"`
	LandingPage string `db:"landing_page" json:"landingPage,omitempty"`
	ReferralURL string `db:"referral_url" json:"referralUrl,omitempty"`
}

// Empty reports whether no attribution field was found.
func (a AttributionData) Empty() bool {
	return a == AttributionData{}
}

// Attribution is one row of the append-only attribution table.
type Attribution struct {
	ID             int64  `db:"id" json:"id"`
	MessageID      int64  `db:"message_id" json:"message_id"`
	ConversationID string `db:"conversation_id" json:"conversation_id"`
	AttributionData
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
