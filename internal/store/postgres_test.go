package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcrm/pain-radar/internal/models"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresFromDB(db), mock
}

func TestPostgres_CreateScan_MapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scans")).
		WithArgs("scan-1", "tenant-1", "kw-1", "REDDIT", "PENDING", 50, sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_scans_one_active"})

	err := store.CreateScan(context.Background(), &models.Scan{
		ID: "scan-1", TenantID: "tenant-1", KeywordID: "kw-1",
		Platform: models.PlatformReddit, Status: models.ScanPending,
		Limit: 50, CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrScanActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertPost_ReportsCreated(t *testing.T) {
	store, mock := newMockStore(t)
	fetchedAt := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "keyword_id", "is_analyzed", "analyzed_at", "fetched_at", "created",
	}).AddRow("post-1", "tenant-1", "kw-1", false, nil, fetchedAt, true)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO social_posts")).
		WillReturnRows(rows)

	post := &models.SocialPost{
		ID: "post-1", TenantID: "tenant-1", KeywordID: "kw-1",
		Platform: models.PlatformReddit, ExternalID: "abc",
		PublishedAt: fetchedAt, FetchedAt: fetchedAt,
	}
	created, err := store.UpsertPost(context.Background(), post)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, post.IsAnalyzed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertPost_ExistingRowKeepsIdentity(t *testing.T) {
	store, mock := newMockStore(t)
	fetchedAt := time.Now().UTC()
	analyzedAt := fetchedAt.Add(-time.Hour)

	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "keyword_id", "is_analyzed", "analyzed_at", "fetched_at", "created",
	}).AddRow("post-orig", "tenant-1", "kw-orig", true, analyzedAt, fetchedAt, false)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO social_posts")).
		WillReturnRows(rows)

	post := &models.SocialPost{
		ID: "post-dup", TenantID: "tenant-1", KeywordID: "kw-other",
		Platform: models.PlatformReddit, ExternalID: "abc",
		PublishedAt: fetchedAt, FetchedAt: fetchedAt,
	}
	created, err := store.UpsertPost(context.Background(), post)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "post-orig", post.ID)
	assert.Equal(t, "kw-orig", post.KeywordID)
	assert.True(t, post.IsAnalyzed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetKeyword_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM keywords")).
		WithArgs("tenant-1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetKeyword(context.Background(), "tenant-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetPainInsights_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE extracted_pains SET ai_insights")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetPainInsights(context.Background(), "tenant-1", "missing", &models.InsightPayload{
		Suggestions: []string{"do less"},
		GeneratedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPainFilterClause_EscapesLikeWildcards(t *testing.T) {
	_, args := painFilterClause("tenant-1", models.PainFilter{Search: "50%_off"})
	require.Len(t, args, 2)
	assert.Equal(t, `%50\%\_off%`, args[1])

	_, args = painFilterClause("tenant-1", models.PainFilter{Search: `back\slash`})
	require.Len(t, args, 2)
	assert.Equal(t, `%back\\slash%`, args[1])
}

func TestPostgres_AggregatePains_SingleGroupedQuery(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"category", "severity", "count"}).
		AddRow("COST", "HIGH", 2).
		AddRow("COST", "LOW", 1).
		AddRow("TECHNICAL", "HIGH", 3)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY category, severity")).
		WithArgs("tenant-1").
		WillReturnRows(rows)

	agg, err := store.AggregatePains(context.Background(), "tenant-1", models.PainFilter{})
	require.NoError(t, err)
	assert.Equal(t, 6, agg.Total)
	assert.Equal(t, 3, agg.ByCategory[models.CategoryCost])
	assert.Equal(t, 3, agg.ByCategory[models.CategoryTechnical])
	assert.Equal(t, 5, agg.BySeverity[models.SeverityHigh])
	assert.Equal(t, 1, agg.BySeverity[models.SeverityLow])
	assert.NoError(t, mock.ExpectationsWereMet())
}
