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

const redditUserAgent = "PainRadar/1.0"

// RedditFetcher searches Reddit through the OAuth API. It keeps no
// mutable state, so one instance serves concurrent scans; the access
// token lives only for the duration of a single Fetch.
type RedditFetcher struct {
	clientID     string
	clientSecret string
	client       *resty.Client
}

// Ensure RedditFetcher implements Fetcher
var _ Fetcher = (*RedditFetcher)(nil)

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

// NewRedditFetcher creates a Reddit fetcher with the given credentials.
func NewRedditFetcher(clientID, clientSecret string, timeout time.Duration) *RedditFetcher {
	return &RedditFetcher{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       resty.New().SetTimeout(timeout),
	}
}

func (r *RedditFetcher) Platform() models.Platform {
	return models.PlatformReddit
}

func (r *RedditFetcher) IsEnabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

func (r *RedditFetcher) Fetch(ctx context.Context, keyword string, limit int) ([]models.RawPost, error) {
	accessToken, err := r.authenticate(ctx)
	if err != nil {
		return nil, models.NewCollaboratorError("reddit", 0, fmt.Errorf("authentication failed: %w", err))
	}

	searchURL := fmt.Sprintf("https://oauth.reddit.com/search.json?q=%s&sort=new&limit=%d",
		url.QueryEscape(keyword), limit)

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+accessToken).
		SetHeader("User-Agent", redditUserAgent).
		Get(searchURL)
	if err != nil {
		return nil, models.NewCollaboratorError("reddit", 0, err)
	}
	if resp.StatusCode() != 200 {
		return nil, models.NewCollaboratorError("reddit", resp.StatusCode(),
			fmt.Errorf("search returned status %d", resp.StatusCode()))
	}

	var searchResp redditSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, models.NewCollaboratorError("reddit", 0, fmt.Errorf("malformed response: %w", err))
	}

	var posts []models.RawPost
	for _, child := range searchResp.Data.Children {
		post := child.Data
		posts = append(posts, models.RawPost{
			Platform:    models.PlatformReddit,
			ExternalID:  post.ID,
			Author:      post.Author,
			Title:       post.Title,
			Content:     post.Selftext,
			URL:         fmt.Sprintf("https://reddit.com%s", post.Permalink),
			PublishedAt: time.Unix(int64(post.Created), 0).UTC(),
			Likes:       post.Score,
			Comments:    post.NumComments,
		})
	}

	logrus.Debugf("Reddit returned %d posts for keyword %q", len(posts), keyword)
	return posts, nil
}

func (r *RedditFetcher) authenticate(ctx context.Context) (string, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", redditUserAgent).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post("https://www.reddit.com/api/v1/access_token")
	if err != nil {
		return "", err
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return "", err
	}
	if authResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token (status %d)", resp.StatusCode())
	}

	return authResp.AccessToken, nil
}
