package store

import (
	"context"
	"errors"
	"time"

	"github.com/flowcrm/pain-radar/internal/models"
)

// ErrNotFound is returned when a row does not exist. Services translate
// it into the caller-facing error taxonomy.
var ErrNotFound = errors.New("not found")

// ErrScanActive is returned by CreateScan when the keyword already has a
// scan in a non-terminal state. At most one PENDING/RUNNING scan may exist
// per keyword; the check and the insert are a single atomic step.
var ErrScanActive = errors.New("keyword already has an active scan")

// Store is the persistence contract for the pipeline. Every tenant-facing
// read and write is scoped by tenant id; cross-tenant access is impossible
// through this interface except where explicitly noted.
type Store interface {
	// IsMember reports whether the user belongs to the tenant.
	IsMember(ctx context.Context, tenantID, userID string) (bool, error)

	CreateKeyword(ctx context.Context, k *models.Keyword) error
	GetKeyword(ctx context.Context, tenantID, id string) (*models.Keyword, error)
	// ListKeywords returns the tenant's keywords newest first, with post
	// and scan counts.
	ListKeywords(ctx context.Context, tenantID string) ([]models.KeywordStats, error)

	// CreateScan inserts a PENDING scan, failing with ErrScanActive if a
	// non-terminal scan exists for the same keyword.
	CreateScan(ctx context.Context, s *models.Scan) error
	UpdateScan(ctx context.Context, s *models.Scan) error
	GetScan(ctx context.Context, tenantID, id string) (*models.Scan, error)

	// UpsertPost inserts the post or, when (platform, external_id) already
	// exists, refreshes only the engagement counters. It reports whether a
	// new row was created and rewrites p with the stored row either way.
	UpsertPost(ctx context.Context, p *models.SocialPost) (created bool, err error)
	ListPosts(ctx context.Context, tenantID string, f models.PostFilter) ([]models.SocialPost, int, error)
	// UnanalyzedPosts returns up to limit posts with is_analyzed = false,
	// oldest first, across all tenants. Posts whose keyword has a
	// non-terminal scan are excluded so the sweep never races an in-flight
	// extraction. Used only by the backlog sweep.
	UnanalyzedPosts(ctx context.Context, limit int) ([]models.SocialPost, error)
	MarkPostAnalyzed(ctx context.Context, postID string, at time.Time) error

	CreatePain(ctx context.Context, p *models.ExtractedPain) error
	// GetPain fetches a pain by id regardless of tenant; callers own the
	// tenant comparison so that a mismatch surfaces as forbidden rather
	// than a silent not-found.
	GetPain(ctx context.Context, id string) (*models.PainWithPost, error)
	ListPains(ctx context.Context, tenantID string, f models.PainFilter) ([]models.ExtractedPain, int, error)
	// AggregatePains group-counts the same filtered set ListPains would
	// return, ignoring pagination.
	AggregatePains(ctx context.Context, tenantID string, f models.PainFilter) (*models.PainAggregates, error)
	UpdatePain(ctx context.Context, tenantID, id string, u models.PainUpdate) (*models.ExtractedPain, error)
	SetPainInsights(ctx context.Context, tenantID, id string, insights *models.InsightPayload) error

	// DashboardStats aggregates pain/post activity since the given time.
	DashboardStats(ctx context.Context, tenantID string, since time.Time) (*models.DashboardStats, error)
}
