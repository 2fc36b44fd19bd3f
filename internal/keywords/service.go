package keywords

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/pain-radar/internal/models"
	"github.com/flowcrm/pain-radar/internal/store"
)

const (
	minLength = 2
	maxLength = 100
)

// Service is the keyword registry: durable storage of the terms each
// tenant monitors. Duplicate texts are allowed and tracked independently.
type Service struct {
	store store.Store
}

// NewService creates a new keyword registry
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Create validates and persists a new keyword for the tenant.
func (s *Service) Create(ctx context.Context, tenantID, userID, text, category string) (*models.Keyword, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < minLength || n > maxLength {
		return nil, models.NewValidationError("text",
			fmt.Sprintf("must be between %d and %d characters", minLength, maxLength))
	}

	keyword := &models.Keyword{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Text:      text,
		Category:  strings.TrimSpace(category),
		CreatedBy: userID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateKeyword(ctx, keyword); err != nil {
		return nil, fmt.Errorf("failed to create keyword: %w", err)
	}

	logrus.Infof("Created keyword %q for tenant %s", keyword.Text, tenantID)
	return keyword, nil
}

// List returns the tenant's keywords, newest first, with post and scan
// counts.
func (s *Service) List(ctx context.Context, tenantID string) ([]models.KeywordStats, error) {
	return s.store.ListKeywords(ctx, tenantID)
}

// Get returns one keyword of the tenant.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*models.Keyword, error) {
	keyword, err := s.store.GetKeyword(ctx, tenantID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NewNotFoundError("keyword", id)
	}
	if err != nil {
		return nil, err
	}
	return keyword, nil
}
