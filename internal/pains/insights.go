package pains

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flowcrm/pain-radar/internal/ai"
	"github.com/flowcrm/pain-radar/internal/models"
	"github.com/flowcrm/pain-radar/internal/store"
)

// InsightGenerator produces and persists narrative insights for a pain
// through the AI collaborator. Regeneration overwrites the previous
// payload; there is no history.
type InsightGenerator struct {
	store   store.Store
	ai      ai.InsightService
	timeout time.Duration
}

// NewInsightGenerator creates a new insight generator
func NewInsightGenerator(st store.Store, svc ai.InsightService, timeout time.Duration) *InsightGenerator {
	return &InsightGenerator{store: st, ai: svc, timeout: timeout}
}

// Generate creates insights for the pain and stores them on the record.
// A pain of another tenant is forbidden; a collaborator failure leaves
// any previously stored insights untouched.
func (g *InsightGenerator) Generate(ctx context.Context, tenantID, painID string) (*models.InsightPayload, error) {
	pain, err := g.store.GetPain(ctx, painID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NewNotFoundError("pain", painID)
	}
	if err != nil {
		return nil, err
	}
	if pain.TenantID != tenantID {
		logrus.Warnf("Tenant %s attempted to generate insights for pain %s of tenant %s",
			tenantID, painID, pain.TenantID)
		return nil, models.NewForbiddenError("pain belongs to another workspace")
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := g.ai.Insights(callCtx, pain.PainText, pain.Category, pain.Sentiment)
	if err != nil {
		return nil, err
	}
	payload.GeneratedAt = time.Now().UTC()

	if err := g.store.SetPainInsights(ctx, tenantID, painID, payload); err != nil {
		return nil, fmt.Errorf("failed to store insights: %w", err)
	}

	logrus.Infof("Generated insights for pain %s", painID)
	return payload, nil
}
