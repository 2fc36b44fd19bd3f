package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/pain-radar/internal/ai"
	"github.com/flowcrm/pain-radar/internal/models"
	"github.com/flowcrm/pain-radar/internal/store"
)

const contextExcerptLen = 500

// Extractor materializes pain signals from unanalyzed posts through the
// AI collaborator. Failure mode is fail-fast per run: a collaborator
// error aborts the remaining batch, leaving the failed post unanalyzed
// for a later sweep, while everything already committed stays committed.
type Extractor struct {
	store   store.Store
	ai      ai.Extractor
	timeout time.Duration
}

// NewExtractor creates a new pain extractor
func NewExtractor(st store.Store, extractor ai.Extractor, timeout time.Duration) *Extractor {
	return &Extractor{store: st, ai: extractor, timeout: timeout}
}

// Analyze runs the posts through the AI collaborator one by one and
// returns how many posts were analyzed. A post that yields zero pains is
// still analyzed; absence of a pain is a valid outcome.
func (e *Extractor) Analyze(ctx context.Context, posts []models.SocialPost, searchContext string) (int, error) {
	analyzed := 0

	for idx := range posts {
		post := &posts[idx]

		records, err := e.extractOne(ctx, post, searchContext)
		if err != nil {
			// Post stays unanalyzed; the rest of the batch is abandoned.
			return analyzed, err
		}

		now := time.Now().UTC()
		for _, record := range records {
			pain := &models.ExtractedPain{
				ID:               uuid.NewString(),
				TenantID:         post.TenantID,
				PostID:           post.ID,
				PainText:         record.PainText,
				Category:         record.Category,
				Severity:         record.Severity,
				Sentiment:        record.Sentiment,
				Confidence:       record.Confidence,
				Keywords:         record.Keywords,
				Context:          excerpt(post.Content, contextExcerptLen),
				Frequency:        1,
				Trend:            0,
				LinkedProjectIDs: []string{},
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := e.store.CreatePain(ctx, pain); err != nil {
				return analyzed, err
			}
		}

		if err := e.store.MarkPostAnalyzed(ctx, post.ID, now); err != nil {
			return analyzed, err
		}
		analyzed++

		logrus.Debugf("Extracted %d pains from post %s", len(records), post.ID)
	}

	return analyzed, nil
}

func (e *Extractor) extractOne(ctx context.Context, post *models.SocialPost, searchContext string) ([]models.PainRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.ai.Extract(callCtx, post, searchContext)
}

func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
