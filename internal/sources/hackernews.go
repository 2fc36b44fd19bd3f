package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/pain-radar/internal/models"
)

// HackerNewsFetcher searches Hacker News through the Algolia API, which
// requires no credentials.
type HackerNewsFetcher struct {
	client *resty.Client
}

// Ensure HackerNewsFetcher implements Fetcher
var _ Fetcher = (*HackerNewsFetcher)(nil)

type algoliaSearchResponse struct {
	Hits []algoliaHit `json:"hits"`
}

type algoliaHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	StoryText   string `json:"story_text"`
	CommentText string `json:"comment_text"`
	Author      string `json:"author"`
	URL         string `json:"url"`
	CreatedAtI  int64  `json:"created_at_i"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
}

// NewHackerNewsFetcher creates a Hacker News fetcher.
func NewHackerNewsFetcher(timeout time.Duration) *HackerNewsFetcher {
	return &HackerNewsFetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", "PainRadar/1.0"),
	}
}

func (h *HackerNewsFetcher) Platform() models.Platform {
	return models.PlatformHackerNews
}

func (h *HackerNewsFetcher) IsEnabled() bool {
	return true
}

func (h *HackerNewsFetcher) Fetch(ctx context.Context, keyword string, limit int) ([]models.RawPost, error) {
	searchURL := fmt.Sprintf(
		"https://hn.algolia.com/api/v1/search_by_date?query=%s&hitsPerPage=%d",
		url.QueryEscape(keyword), limit)

	resp, err := h.client.R().
		SetContext(ctx).
		Get(searchURL)
	if err != nil {
		return nil, models.NewCollaboratorError("hackernews", 0, err)
	}
	if resp.StatusCode() != 200 {
		return nil, models.NewCollaboratorError("hackernews", resp.StatusCode(),
			fmt.Errorf("search returned status %d", resp.StatusCode()))
	}

	var searchResp algoliaSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, models.NewCollaboratorError("hackernews", 0, fmt.Errorf("malformed response: %w", err))
	}

	var posts []models.RawPost
	for _, hit := range searchResp.Hits {
		content := hit.StoryText
		if content == "" {
			content = hit.CommentText
		}

		postURL := hit.URL
		if postURL == "" {
			postURL = "https://news.ycombinator.com/item?id=" + hit.ObjectID
		}

		posts = append(posts, models.RawPost{
			Platform:    models.PlatformHackerNews,
			ExternalID:  hit.ObjectID,
			Author:      hit.Author,
			Title:       hit.Title,
			Content:     content,
			URL:         postURL,
			PublishedAt: time.Unix(hit.CreatedAtI, 0).UTC(),
			Likes:       hit.Points,
			Comments:    hit.NumComments,
		})
	}

	logrus.Debugf("Hacker News returned %d posts for keyword %q", len(posts), keyword)
	return posts, nil
}
