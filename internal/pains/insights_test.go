package pains

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flowcrm/pain-radar/internal/models"
	"github.com/flowcrm/pain-radar/internal/store"
)

// MockInsightService is a mock implementation of the ai.InsightService interface
type MockInsightService struct {
	mock.Mock
}

func (m *MockInsightService) Insights(ctx context.Context, painText string, category models.PainCategory, sentiment float64) (*models.InsightPayload, error) {
	args := m.Called(ctx, painText, category, sentiment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InsightPayload), args.Error(1)
}

func TestInsightGenerator_Generate(t *testing.T) {
	mem := store.NewMemory()
	seedPains(t, mem)
	aiMock := &MockInsightService{}
	generator := NewInsightGenerator(mem, aiMock, time.Second)
	ctx := context.Background()

	payload := &models.InsightPayload{
		Suggestions:   []string{"automate invoice generation"},
		Opportunities: []string{"invoicing add-on"},
		Risks:         []string{"churn to competitors"},
	}
	aiMock.On("Insights", mock.Anything, "invoices take forever",
		models.CategoryTimeManagement, -0.7).Return(payload, nil)

	got, err := generator.Generate(ctx, "tenant-1", "pain-1")
	require.NoError(t, err)
	assert.Equal(t, payload.Suggestions, got.Suggestions)
	assert.False(t, got.GeneratedAt.IsZero())

	// The payload lands on the record.
	stored, err := mem.GetPain(ctx, "pain-1")
	require.NoError(t, err)
	require.NotNil(t, stored.AIInsights)
	assert.Equal(t, payload.Opportunities, stored.AIInsights.Opportunities)
	aiMock.AssertExpectations(t)
}

func TestInsightGenerator_Generate_CrossTenantIsForbidden(t *testing.T) {
	mem := store.NewMemory()
	seedPains(t, mem)
	aiMock := &MockInsightService{}
	generator := NewInsightGenerator(mem, aiMock, time.Second)

	_, err := generator.Generate(context.Background(), "tenant-1", "pain-other")
	var forbiddenErr *models.ForbiddenError
	assert.ErrorAs(t, err, &forbiddenErr)
	aiMock.AssertNotCalled(t, "Insights", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInsightGenerator_Generate_NotFound(t *testing.T) {
	mem := store.NewMemory()
	generator := NewInsightGenerator(mem, &MockInsightService{}, time.Second)

	_, err := generator.Generate(context.Background(), "tenant-1", "missing")
	var notFoundErr *models.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestInsightGenerator_Generate_FailureKeepsExistingInsights(t *testing.T) {
	mem := store.NewMemory()
	seedPains(t, mem)
	aiMock := &MockInsightService{}
	generator := NewInsightGenerator(mem, aiMock, time.Second)
	ctx := context.Background()

	existing := &models.InsightPayload{
		Suggestions: []string{"keep this"},
		GeneratedAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, mem.SetPainInsights(ctx, "tenant-1", "pain-1", existing))

	aiMock.On("Insights", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, models.NewCollaboratorError("openai", 500, errors.New("server error")))

	_, err := generator.Generate(ctx, "tenant-1", "pain-1")
	var collaboratorErr *models.CollaboratorError
	assert.ErrorAs(t, err, &collaboratorErr)

	stored, err := mem.GetPain(ctx, "pain-1")
	require.NoError(t, err)
	require.NotNil(t, stored.AIInsights)
	assert.Equal(t, []string{"keep this"}, stored.AIInsights.Suggestions)
}
