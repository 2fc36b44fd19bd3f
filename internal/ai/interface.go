package ai

import (
	"context"

	"github.com/flowcrm/pain-radar/internal/models"
)

// Extractor turns a raw post into zero or more structured pain records.
type Extractor interface {
	Extract(ctx context.Context, post *models.SocialPost, searchContext string) ([]models.PainRecord, error)
}

// InsightService produces a narrative insight payload for one pain.
type InsightService interface {
	Insights(ctx context.Context, painText string, category models.PainCategory, sentiment float64) (*models.InsightPayload, error)
}
