package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcrm/pain-radar/internal/keywords"
	"github.com/flowcrm/pain-radar/internal/models"
	"github.com/flowcrm/pain-radar/internal/pains"
	"github.com/flowcrm/pain-radar/internal/pipeline"
	"github.com/flowcrm/pain-radar/internal/sources"
	"github.com/flowcrm/pain-radar/internal/store"
)

// stubFetcher blocks until released so scans stay active during a test.
type stubFetcher struct {
	release chan struct{}
}

func (s *stubFetcher) Platform() models.Platform { return models.PlatformReddit }
func (s *stubFetcher) IsEnabled() bool           { return true }

func (s *stubFetcher) Fetch(ctx context.Context, keyword string, limit int) ([]models.RawPost, error) {
	if s.release != nil {
		<-s.release
	}
	return nil, nil
}

// stubAI yields no pains and no insights.
type stubAI struct{}

func (stubAI) Extract(context.Context, *models.SocialPost, string) ([]models.PainRecord, error) {
	return nil, nil
}

func (stubAI) Insights(context.Context, string, models.PainCategory, float64) (*models.InsightPayload, error) {
	return &models.InsightPayload{Suggestions: []string{"fix it"}}, nil
}

// memArchive keeps archived pages in a map so tests can seed and inspect them.
type memArchive struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemArchive() *memArchive {
	return &memArchive{blobs: map[string][]byte{}}
}

func (a *memArchive) Store(name string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blobs[name] = data
	return nil
}

func (a *memArchive) Retrieve(name string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.blobs[name], nil
}

func (a *memArchive) List(prefix string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var names []string
	for name := range a.blobs {
		names = append(names, name)
	}
	return names, nil
}

func (a *memArchive) Delete(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.blobs, name)
	return nil
}

type testServer struct {
	router  http.Handler
	store   *store.Memory
	fetcher *stubFetcher
	archive *memArchive
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mem := store.NewMemory()
	mem.AddMember("tenant-1", "user-1")
	mem.AddMember("tenant-2", "user-2")

	fetcher := &stubFetcher{}
	arc := newMemArchive()
	keywordSvc := keywords.NewService(mem)
	extractor := pipeline.NewExtractor(mem, stubAI{}, time.Second)
	orchestrator := pipeline.NewOrchestrator(mem, sources.NewRegistry(fetcher),
		pipeline.NewIngestor(mem), extractor, arc, noopNotifier{},
		time.Second, 5*time.Second)
	painSvc := pains.NewService(mem)
	insightGen := pains.NewInsightGenerator(mem, stubAI{}, time.Second)

	server := NewServer(mem, keywordSvc, orchestrator, painSvc, insightGen, 50)
	return &testServer{router: server.Router(), store: mem, fetcher: fetcher, archive: arc}
}

type noopNotifier struct{}

func (noopNotifier) SendScanReport(*models.Keyword, *models.Scan) error { return nil }

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func asTenant1() map[string]string {
	return map[string]string{"X-Tenant-ID": "tenant-1", "X-User-ID": "user-1"}
}

func TestServer_Healthz_NoAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_MissingHeaders(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/keywords", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_NonMemberForbidden(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/keywords", nil, map[string]string{
		"X-Tenant-ID": "tenant-1", "X-User-ID": "user-2",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_CreateKeyword(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/keywords",
		map[string]string{"text": "time tracking"}, asTenant1())
	require.Equal(t, http.StatusCreated, rec.Code)

	var keyword models.Keyword
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &keyword))
	assert.NotEmpty(t, keyword.ID)
	assert.Equal(t, "time tracking", keyword.Text)
	assert.Equal(t, "tenant-1", keyword.TenantID)
	assert.Equal(t, "user-1", keyword.CreatedBy)

	rec = ts.do(t, http.MethodPost, "/api/v1/keywords",
		map[string]string{"text": "x"}, asTenant1())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.NotEmpty(t, errResp.Error)
}

func TestServer_TriggerScan(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	keyword := &models.Keyword{ID: "kw-1", TenantID: "tenant-1", Text: "crm",
		CreatedBy: "user-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, ts.store.CreateKeyword(ctx, keyword))

	ts.fetcher.release = make(chan struct{})

	rec := ts.do(t, http.MethodPost, "/api/v1/scans",
		map[string]interface{}{"keywordId": "kw-1", "platform": "REDDIT"}, asTenant1())
	require.Equal(t, http.StatusAccepted, rec.Code)

	var scan models.Scan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scan))
	assert.Equal(t, models.ScanPending, scan.Status)
	assert.Equal(t, 50, scan.Limit, "server default page size applies when omitted")

	// While the first scan is active a second trigger conflicts.
	rec = ts.do(t, http.MethodPost, "/api/v1/scans",
		map[string]interface{}{"keywordId": "kw-1", "platform": "REDDIT"}, asTenant1())
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(ts.fetcher.release)

	rec = ts.do(t, http.MethodGet, "/api/v1/scans/"+scan.ID, nil, asTenant1())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/scans",
		map[string]interface{}{"keywordId": "missing", "platform": "REDDIT"}, asTenant1())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/scans",
		map[string]interface{}{"keywordId": "kw-1", "platform": "MYSPACE"}, asTenant1())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ScanPage(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	now := time.Now().UTC()

	scan := &models.Scan{ID: "scan-1", TenantID: "tenant-1", KeywordID: "kw-1",
		Platform: models.PlatformReddit, Status: models.ScanCompleted,
		CompletedAt: &now, CreatedAt: now}
	require.NoError(t, ts.store.CreateScan(ctx, scan))

	page := []byte(`[{"externalId":"abc123","content":"exports are painfully slow"}]`)
	require.NoError(t, ts.archive.Store("tenant-1/kw-1/scan-1.json", page))

	rec := ts.do(t, http.MethodGet, "/api/v1/scans/scan-1/page", nil, asTenant1())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, page, rec.Body.Bytes())

	// A scan without an archived page reads as not found.
	noPage := &models.Scan{ID: "scan-2", TenantID: "tenant-1", KeywordID: "kw-2",
		Platform: models.PlatformReddit, Status: models.ScanCompleted,
		CompletedAt: &now, CreatedAt: now}
	require.NoError(t, ts.store.CreateScan(ctx, noPage))

	rec = ts.do(t, http.MethodGet, "/api/v1/scans/scan-2/page", nil, asTenant1())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/scans/missing/page", nil, asTenant1())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_GetPain_CrossTenant(t *testing.T) {
	ts := newTestServer(t)
	now := time.Now().UTC()

	require.NoError(t, ts.store.CreatePain(context.Background(), &models.ExtractedPain{
		ID: "pain-1", TenantID: "tenant-2", PostID: "post-1",
		PainText: "foreign pain", Category: models.CategoryOther,
		Severity: models.SeverityLow, CreatedAt: now, UpdatedAt: now,
	}))

	rec := ts.do(t, http.MethodGet, "/api/v1/pains/pain-1", nil, asTenant1())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/pains/missing", nil, asTenant1())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListPains(t *testing.T) {
	ts := newTestServer(t)
	now := time.Now().UTC()

	require.NoError(t, ts.store.CreatePain(context.Background(), &models.ExtractedPain{
		ID: "pain-1", TenantID: "tenant-1", PostID: "post-1",
		PainText: "slow exports", Category: models.CategoryTechnical,
		Severity: models.SeverityHigh, CreatedAt: now, UpdatedAt: now,
	}))

	rec := ts.do(t, http.MethodGet, "/api/v1/pains?category=TECHNICAL", nil, asTenant1())
	require.Equal(t, http.StatusOK, rec.Code)

	var result pains.ListResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Aggregates.ByCategory[models.CategoryTechnical])

	rec = ts.do(t, http.MethodGet, "/api/v1/pains?severity=EXTREME", nil, asTenant1())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/pains?dateFrom=not-a-date", nil, asTenant1())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_UpdatePain(t *testing.T) {
	ts := newTestServer(t)
	now := time.Now().UTC()

	require.NoError(t, ts.store.CreatePain(context.Background(), &models.ExtractedPain{
		ID: "pain-1", TenantID: "tenant-1", PostID: "post-1",
		PainText: "slow exports", Category: models.CategoryTechnical,
		Severity: models.SeverityLow, CreatedAt: now, UpdatedAt: now,
	}))

	rec := ts.do(t, http.MethodPatch, "/api/v1/pains/pain-1",
		map[string]string{"severity": "CRITICAL"}, asTenant1())
	require.Equal(t, http.StatusOK, rec.Code)

	var pain models.ExtractedPain
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pain))
	assert.Equal(t, models.SeverityCritical, pain.Severity)

	rec = ts.do(t, http.MethodPatch, "/api/v1/pains/pain-1",
		map[string]string{"severity": "EXTREME"}, asTenant1())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_GenerateInsights(t *testing.T) {
	ts := newTestServer(t)
	now := time.Now().UTC()

	require.NoError(t, ts.store.CreatePain(context.Background(), &models.ExtractedPain{
		ID: "pain-1", TenantID: "tenant-1", PostID: "post-1",
		PainText: "slow exports", Category: models.CategoryTechnical,
		Severity: models.SeverityHigh, CreatedAt: now, UpdatedAt: now,
	}))

	rec := ts.do(t, http.MethodPost, "/api/v1/pains/pain-1/insights", nil, asTenant1())
	require.Equal(t, http.StatusOK, rec.Code)

	var payload models.InsightPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, []string{"fix it"}, payload.Suggestions)
}

func TestServer_Dashboard(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/dashboard?period=7d", nil, asTenant1())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/dashboard?period=1y", nil, asTenant1())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
