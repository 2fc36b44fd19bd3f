package pains

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flowcrm/pain-radar/internal/models"
	"github.com/flowcrm/pain-radar/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Service is the read side of the pipeline: filtered pain lists with
// snapshot-consistent aggregates, pain detail, reviewer updates, post
// listing and the dashboard. Aggregates are computed at read time; no
// counters are maintained on write.
type Service struct {
	store store.Store
}

// NewService creates a new pain query service
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// ListResult is a page of pains with aggregates over the whole filtered
// set the page was cut from.
type ListResult struct {
	Pains      []models.ExtractedPain `json:"pains"`
	Total      int                    `json:"total"`
	Aggregates *models.PainAggregates `json:"aggregates"`
}

// List returns the tenant's pains matching the filter, paginated, along
// with category and severity counts over the same filtered set. Each
// count map sums to the total.
func (s *Service) List(ctx context.Context, tenantID string, f models.PainFilter) (*ListResult, error) {
	if err := validateFilter(&f); err != nil {
		return nil, err
	}

	pains, total, err := s.store.ListPains(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list pains: %w", err)
	}

	aggregates, err := s.store.AggregatePains(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate pains: %w", err)
	}

	return &ListResult{Pains: pains, Total: total, Aggregates: aggregates}, nil
}

// Get returns one pain with its source post. A pain belonging to another
// tenant is reported as forbidden, not as missing.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*models.PainWithPost, error) {
	pain, err := s.store.GetPain(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NewNotFoundError("pain", id)
	}
	if err != nil {
		return nil, err
	}
	if pain.TenantID != tenantID {
		logrus.Warnf("Tenant %s attempted to access pain %s of tenant %s", tenantID, id, pain.TenantID)
		return nil, models.NewForbiddenError("pain belongs to another workspace")
	}
	return pain, nil
}

// Update applies a reviewer patch to a pain. Only category, severity and
// linked project ids are reviewer-writable.
func (s *Service) Update(ctx context.Context, tenantID, id string, u models.PainUpdate) (*models.ExtractedPain, error) {
	if u.Category != nil && !models.ValidCategory(*u.Category) {
		return nil, models.NewValidationError("category", fmt.Sprintf("unknown category %q", *u.Category))
	}
	if u.Severity != nil && !models.ValidSeverity(*u.Severity) {
		return nil, models.NewValidationError("severity", fmt.Sprintf("unknown severity %q", *u.Severity))
	}

	// Tenant check happens before the write so a cross-tenant patch is
	// rejected as forbidden rather than swallowed.
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}

	pain, err := s.store.UpdatePain(ctx, tenantID, id, u)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NewNotFoundError("pain", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update pain: %w", err)
	}

	logrus.Infof("Pain %s updated by tenant %s", id, tenantID)
	return pain, nil
}

// ListPosts returns the tenant's ingested posts, newest first.
func (s *Service) ListPosts(ctx context.Context, tenantID string, f models.PostFilter) ([]models.SocialPost, int, error) {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.ListPosts(ctx, tenantID, f)
}

// Dashboard returns aggregate pain activity for the period, one of
// "7d", "30d" or "90d".
func (s *Service) Dashboard(ctx context.Context, tenantID, period string) (*models.DashboardStats, error) {
	var days int
	switch period {
	case "", "30d":
		days = 30
	case "7d":
		days = 7
	case "90d":
		days = 90
	default:
		return nil, models.NewValidationError("period", "must be one of 7d, 30d, 90d")
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	stats, err := s.store.DashboardStats(ctx, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}
	return stats, nil
}

// validateFilter normalizes pagination and rejects unknown enum values
// and sort keys. A search shorter than 2 characters is dropped.
func validateFilter(f *models.PainFilter) error {
	if f.Category != "" && !models.ValidCategory(f.Category) {
		return models.NewValidationError("category", fmt.Sprintf("unknown category %q", f.Category))
	}
	if f.Severity != "" && !models.ValidSeverity(f.Severity) {
		return models.NewValidationError("severity", fmt.Sprintf("unknown severity %q", f.Severity))
	}

	switch f.SortBy {
	case "":
		f.SortBy = models.SortByCreatedAt
	case models.SortByCreatedAt, models.SortByFrequency, models.SortByTrend:
	default:
		return models.NewValidationError("sortBy", "must be one of createdAt, frequency, trend")
	}

	if len(strings.TrimSpace(f.Search)) < 2 {
		f.Search = ""
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return nil
}
