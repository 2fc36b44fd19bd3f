package models

import "time"

// Platform identifies the social platform a post was discovered on.
type Platform string

const (
	PlatformReddit     Platform = "REDDIT"
	PlatformHackerNews Platform = "HACKERNEWS"
)

// ValidPlatform reports whether p is a known platform.
func ValidPlatform(p Platform) bool {
	return p == PlatformReddit || p == PlatformHackerNews
}

// ScanStatus is the state of a scan job.
// Transitions: PENDING -> RUNNING -> COMPLETED | FAILED. COMPLETED and
// FAILED are terminal; a retry is always a new scan.
type ScanStatus string

const (
	ScanPending   ScanStatus = "PENDING"
	ScanRunning   ScanStatus = "RUNNING"
	ScanCompleted ScanStatus = "COMPLETED"
	ScanFailed    ScanStatus = "FAILED"
)

// Terminal reports whether the status allows no further transitions.
func (s ScanStatus) Terminal() bool {
	return s == ScanCompleted || s == ScanFailed
}

// PainCategory is the closed set of pain classifications.
type PainCategory string

const (
	CategoryTimeManagement PainCategory = "TIME_MANAGEMENT"
	CategoryCost           PainCategory = "COST"
	CategoryTechnical      PainCategory = "TECHNICAL"
	CategoryProcess        PainCategory = "PROCESS"
	CategoryCommunication  PainCategory = "COMMUNICATION"
	CategoryQuality        PainCategory = "QUALITY"
	CategoryScalability    PainCategory = "SCALABILITY"
	CategorySecurity       PainCategory = "SECURITY"
	CategoryOther          PainCategory = "OTHER"
)

// Categories lists every valid pain category.
func Categories() []PainCategory {
	return []PainCategory{
		CategoryTimeManagement, CategoryCost, CategoryTechnical,
		CategoryProcess, CategoryCommunication, CategoryQuality,
		CategoryScalability, CategorySecurity, CategoryOther,
	}
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c PainCategory) bool {
	for _, v := range Categories() {
		if c == v {
			return true
		}
	}
	return false
}

// PainSeverity is the ordered severity scale LOW < MEDIUM < HIGH < CRITICAL.
type PainSeverity string

const (
	SeverityLow      PainSeverity = "LOW"
	SeverityMedium   PainSeverity = "MEDIUM"
	SeverityHigh     PainSeverity = "HIGH"
	SeverityCritical PainSeverity = "CRITICAL"
)

// Severities lists every valid severity, lowest first.
func Severities() []PainSeverity {
	return []PainSeverity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Rank returns the position of the severity on the ordered scale,
// 0 for LOW up to 3 for CRITICAL.
func (s PainSeverity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s PainSeverity) bool {
	return s.Rank() >= 0
}

// Keyword is a monitored search term owned by one tenant.
// Duplicate texts within a tenant are allowed and tracked independently.
type Keyword struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Text      string    `json:"text"`
	Category  string    `json:"category,omitempty"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// KeywordStats is a keyword with its discovery counters, as returned
// by the registry list operation.
type KeywordStats struct {
	Keyword
	PostCount int `json:"postCount"`
	ScanCount int `json:"scanCount"`
}

// Scan is one execution of keyword-triggered discovery + ingestion +
// extraction. Scans are never deleted; they form the audit trail.
type Scan struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenantId"`
	KeywordID     string     `json:"keywordId"`
	Platform      Platform   `json:"platform"`
	Status        ScanStatus `json:"status"`
	Limit         int        `json:"limit"`
	PostsFound    int        `json:"postsFound"`
	PostsNew      int        `json:"postsNew"`
	PostsAnalyzed int        `json:"postsAnalyzed"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// RawPost is a post record as returned by a source fetcher, before
// normalization and deduplication.
type RawPost struct {
	Platform    Platform  `json:"platform"`
	ExternalID  string    `json:"externalId"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Likes       int       `json:"likes"`
	Comments    int       `json:"comments"`
}

// SocialPost is a persisted, deduplicated post attributed to the keyword
// whose scan discovered it. (platform, external_id) is unique across the
// whole table: re-discovery updates engagement counters only.
type SocialPost struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenantId"`
	KeywordID   string     `json:"keywordId"`
	Platform    Platform   `json:"platform"`
	ExternalID  string     `json:"externalId"`
	Author      string     `json:"author"`
	Content     string     `json:"content"`
	URL         string     `json:"url"`
	PublishedAt time.Time  `json:"publishedAt"`
	Likes       int        `json:"likes"`
	Comments    int        `json:"comments"`
	IsAnalyzed  bool       `json:"isAnalyzed"`
	AnalyzedAt  *time.Time `json:"analyzedAt,omitempty"`
	FetchedAt   time.Time  `json:"fetchedAt"`
}

// PainRecord is a single structured pain as reported by the AI extractor
// for one post. One post may yield zero, one, or many records.
type PainRecord struct {
	PainText   string       `json:"painText"`
	Category   PainCategory `json:"category"`
	Severity   PainSeverity `json:"severity"`
	Sentiment  float64      `json:"sentiment"`
	Confidence float64      `json:"confidence"`
	Keywords   []string     `json:"keywords"`
	Context    string       `json:"context,omitempty"`
}

// InsightPayload is the narrative payload produced by the insight service
// for one pain. Regenerating overwrites the previous payload.
type InsightPayload struct {
	Suggestions   []string  `json:"suggestions"`
	Opportunities []string  `json:"opportunities"`
	Risks         []string  `json:"risks"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// ExtractedPain is a materialized pain signal. severity, category and
// linkedProjectIds may be changed later by a reviewer; aiInsights only by
// the insight generator; frequency and trend only by an external scoring
// job (they default to 1 and 0 here and are read-only afterwards).
type ExtractedPain struct {
	ID               string          `json:"id"`
	TenantID         string          `json:"tenantId"`
	PostID           string          `json:"postId"`
	PainText         string          `json:"painText"`
	Category         PainCategory    `json:"category"`
	Severity         PainSeverity    `json:"severity"`
	Sentiment        float64         `json:"sentiment"`
	Confidence       float64         `json:"confidence"`
	Keywords         []string        `json:"keywords"`
	Context          string          `json:"context,omitempty"`
	Frequency        int             `json:"frequency"`
	Trend            float64         `json:"trend"`
	AIInsights       *InsightPayload `json:"aiInsights,omitempty"`
	LinkedProjectIDs []string        `json:"linkedProjectIds,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// PainWithPost is a pain joined with its source post for detail views.
type PainWithPost struct {
	ExtractedPain
	Post *SocialPost `json:"post,omitempty"`
}

// Pain list sort keys.
const (
	SortByCreatedAt = "createdAt"
	SortByFrequency = "frequency"
	SortByTrend     = "trend"
)

// PainFilter selects and orders pains for list and aggregation reads.
// A Search shorter than 2 characters is treated as no filter.
type PainFilter struct {
	Category PainCategory
	Severity PainSeverity
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	SortBy   string
	Limit    int
	Offset   int
}

// PainUpdate is a reviewer patch; nil fields are left untouched.
type PainUpdate struct {
	Category         *PainCategory
	Severity         *PainSeverity
	LinkedProjectIDs *[]string
}

// PainAggregates are group counts over one filtered snapshot of pains.
// ByCategory and BySeverity each sum to Total.
type PainAggregates struct {
	Total      int                  `json:"total"`
	ByCategory map[PainCategory]int `json:"byCategory"`
	BySeverity map[PainSeverity]int `json:"bySeverity"`
}

// PostFilter selects posts for list reads.
type PostFilter struct {
	KeywordID  string
	IsAnalyzed *bool
	Limit      int
	Offset     int
}

// TrendPoint is one day of pain activity.
type TrendPoint struct {
	Date         string  `json:"date"`
	Count        int     `json:"count"`
	AvgSentiment float64 `json:"avgSentiment"`
}

// SentimentDistribution buckets pains by sentiment score: positive above
// 0.2, negative below -0.2, neutral in between.
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// TopPain is one entry of the dashboard's ranked pain list, with enough
// of the source post to link back to it.
type TopPain struct {
	ID        string       `json:"id"`
	PainText  string       `json:"painText"`
	Category  PainCategory `json:"category"`
	Severity  PainSeverity `json:"severity"`
	Sentiment float64      `json:"sentiment"`
	Frequency int          `json:"frequency"`
	Platform  Platform     `json:"platform,omitempty"`
	Author    string       `json:"author,omitempty"`
	URL       string       `json:"url,omitempty"`
}

// DashboardStats is the aggregate view backing the dashboard endpoint.
// TopPains holds at most ten pains ranked by frequency, then severity.
type DashboardStats struct {
	TotalPains   int                   `json:"totalPains"`
	TotalPosts   int                   `json:"totalPosts"`
	TopCategory  *PainCategory         `json:"topCategory"`
	AvgSentiment float64               `json:"avgSentiment"`
	Sentiment    SentimentDistribution `json:"sentimentDistribution"`
	TopPains     []TopPain             `json:"topPains"`
	Trends       []TrendPoint          `json:"trends"`
}
