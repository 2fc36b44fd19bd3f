package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/pain-radar/internal/models"
	"github.com/flowcrm/pain-radar/internal/store"
)

// Ingestor normalizes and deduplicates raw posts. The upsert key is
// (platform, external_id); re-discovered posts only get their engagement
// counters refreshed and keep their analyzed state and original keyword
// attribution.
type Ingestor struct {
	store store.Store
}

// NewIngestor creates a new post ingestor
func NewIngestor(st store.Store) *Ingestor {
	return &Ingestor{store: st}
}

// Ingest upserts the raw posts under the keyword that discovered them and
// returns the subset that was newly inserted. Only those are extraction
// candidates within the same run; the backlog sweep covers the rest.
func (i *Ingestor) Ingest(ctx context.Context, keyword *models.Keyword, rawPosts []models.RawPost) ([]models.SocialPost, error) {
	var newPosts []models.SocialPost

	for _, raw := range rawPosts {
		post := models.SocialPost{
			ID:          uuid.NewString(),
			TenantID:    keyword.TenantID,
			KeywordID:   keyword.ID,
			Platform:    raw.Platform,
			ExternalID:  raw.ExternalID,
			Author:      raw.Author,
			Content:     normalizeContent(raw),
			URL:         raw.URL,
			PublishedAt: raw.PublishedAt,
			Likes:       raw.Likes,
			Comments:    raw.Comments,
			FetchedAt:   time.Now().UTC(),
		}

		created, err := i.store.UpsertPost(ctx, &post)
		if err != nil {
			return newPosts, fmt.Errorf("failed to upsert post %s/%s: %w", raw.Platform, raw.ExternalID, err)
		}
		if created {
			newPosts = append(newPosts, post)
		}
	}

	logrus.Debugf("Ingested %d posts for keyword %q, %d new", len(rawPosts), keyword.Text, len(newPosts))
	return newPosts, nil
}

// normalizeContent folds the title into the content so the extractor sees
// the whole text; many platforms put the substance in the title.
func normalizeContent(raw models.RawPost) string {
	if raw.Title == "" {
		return raw.Content
	}
	if raw.Content == "" {
		return raw.Title
	}
	return raw.Title + "\n\n" + raw.Content
}
