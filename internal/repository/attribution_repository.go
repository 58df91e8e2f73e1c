package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/wa-router/internal/model"
)

type AttributionRepositoryInterface interface {
	Create(ctx context.Context, a *model.Attribution) error
	ListByConversation(ctx context.Context, conversationID string) ([]model.Attribution, error)
}

type AttributionRepository struct {
	DB sqlx.ExtContext
}

func (r *AttributionRepository) Create(ctx context.Context, a *model.Attribution) error {
	query := r.DB.Rebind(`
        INSERT INTO attributions (
            message_id, conversation_id, campaign_id, adset_id, ad_id,
            source_type, source_id, source_url, headline, ctwa_clid,
            utm_source, utm_medium, utm_campaign, utm_content, utm_term,
            landing_page, referral_url, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `)
	d := a.AttributionData
	return r.DB.QueryRowxContext(ctx, query,
		a.MessageID, a.ConversationID, d.CampaignID, d.AdsetID, d.AdID,
		d.SourceType, d.SourceID, d.SourceURL, d.Headline, d.CtwaClid,
		d.UTMSource, d.UTMMedium, d.UTMCampaign, d.UTMContent, d.UTMTerm,
		d.LandingPage, d.ReferralURL, a.CreatedAt,
	).Scan(&a.ID)
}

func (r *AttributionRepository) ListByConversation(ctx context.Context, conversationID string) ([]model.Attribution, error) {
	query := r.DB.Rebind(`
        SELECT id, message_id, conversation_id, campaign_id, adset_id, ad_id,
               source_type, source_id, source_url, headline, ctwa_clid,
               utm_source, utm_medium, utm_campaign, utm_content, utm_term,
               landing_page, referral_url, created_at
        FROM attributions
        WHERE conversation_id = ?
        ORDER BY id
    `)
	rows := []model.Attribution{}
	if err := sqlx.SelectContext(ctx, r.DB, &rows, query, conversationID); err != nil {
		return nil, err
	}
	return rows, nil
}

var _ AttributionRepositoryInterface = (*AttributionRepository)(nil)
