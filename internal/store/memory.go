package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flowcrm/pain-radar/internal/models"
)

// Memory is a full in-memory Store used by tests and credential-free
// development. Each method takes the mutex for its whole body, so every
// read returns one consistent snapshot and the scan check-and-insert is
// atomic, mirroring the Postgres constraints.
type Memory struct {
	mu       sync.Mutex
	members  map[string]map[string]bool // tenant -> user set
	keywords map[string]*models.Keyword
	scans    map[string]*models.Scan
	posts    map[string]*models.SocialPost
	pains    map[string]*models.ExtractedPain
}

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		members:  make(map[string]map[string]bool),
		keywords: make(map[string]*models.Keyword),
		scans:    make(map[string]*models.Scan),
		posts:    make(map[string]*models.SocialPost),
		pains:    make(map[string]*models.ExtractedPain),
	}
}

// AddMember registers a user in a tenant. Test and dev seeding helper.
func (m *Memory) AddMember(tenantID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[tenantID] == nil {
		m.members[tenantID] = make(map[string]bool)
	}
	m.members[tenantID][userID] = true
}

func (m *Memory) IsMember(_ context.Context, tenantID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[tenantID][userID], nil
}

func (m *Memory) CreateKeyword(_ context.Context, k *models.Keyword) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *k
	m.keywords[k.ID] = &cp
	return nil
}

func (m *Memory) GetKeyword(_ context.Context, tenantID, id string) (*models.Keyword, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keywords[id]
	if !ok || k.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *k
	return &cp, nil
}

func (m *Memory) ListKeywords(_ context.Context, tenantID string) ([]models.KeywordStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.KeywordStats
	for _, k := range m.keywords {
		if k.TenantID != tenantID {
			continue
		}
		ks := models.KeywordStats{Keyword: *k}
		for _, p := range m.posts {
			if p.KeywordID == k.ID {
				ks.PostCount++
			}
		}
		for _, s := range m.scans {
			if s.KeywordID == k.ID {
				ks.ScanCount++
			}
		}
		out = append(out, ks)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) CreateScan(_ context.Context, s *models.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.scans {
		if existing.KeywordID == s.KeywordID && !existing.Status.Terminal() {
			return ErrScanActive
		}
	}
	cp := *s
	m.scans[s.ID] = &cp
	return nil
}

func (m *Memory) UpdateScan(_ context.Context, s *models.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scans[s.ID]; !ok {
		return ErrNotFound
	}
	cp := *s
	m.scans[s.ID] = &cp
	return nil
}

func (m *Memory) GetScan(_ context.Context, tenantID, id string) (*models.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[id]
	if !ok || s.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) UpsertPost(_ context.Context, p *models.SocialPost) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.posts {
		if existing.Platform == p.Platform && existing.ExternalID == p.ExternalID {
			// Volatile fields only; is_analyzed stays untouched.
			existing.Likes = p.Likes
			existing.Comments = p.Comments
			*p = *existing
			return false, nil
		}
	}
	p.IsAnalyzed = false
	p.AnalyzedAt = nil
	cp := *p
	m.posts[p.ID] = &cp
	return true, nil
}

func (m *Memory) ListPosts(_ context.Context, tenantID string, f models.PostFilter) ([]models.SocialPost, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []models.SocialPost
	for _, p := range m.posts {
		if p.TenantID != tenantID {
			continue
		}
		if f.KeywordID != "" && p.KeywordID != f.KeywordID {
			continue
		}
		if f.IsAnalyzed != nil && p.IsAnalyzed != *f.IsAnalyzed {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].FetchedAt.After(matched[j].FetchedAt)
	})

	total := len(matched)
	return paginatePosts(matched, f.Limit, f.Offset), total, nil
}

func (m *Memory) UnanalyzedPosts(_ context.Context, limit int) ([]models.SocialPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	activeKeywords := make(map[string]bool)
	for _, s := range m.scans {
		if !s.Status.Terminal() {
			activeKeywords[s.KeywordID] = true
		}
	}

	var matched []models.SocialPost
	for _, p := range m.posts {
		if !p.IsAnalyzed && !activeKeywords[p.KeywordID] {
			matched = append(matched, *p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].FetchedAt.Before(matched[j].FetchedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *Memory) MarkPostAnalyzed(_ context.Context, postID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return ErrNotFound
	}
	p.IsAnalyzed = true
	t := at
	p.AnalyzedAt = &t
	return nil
}

func (m *Memory) CreatePain(_ context.Context, pain *models.ExtractedPain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pain
	m.pains[pain.ID] = &cp
	return nil
}

func (m *Memory) GetPain(_ context.Context, id string) (*models.PainWithPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pain, ok := m.pains[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := models.PainWithPost{ExtractedPain: *pain}
	if post, ok := m.posts[pain.PostID]; ok {
		cp := *post
		out.Post = &cp
	}
	return &out, nil
}

func matchesPainFilter(p *models.ExtractedPain, f models.PainFilter) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Severity != "" && p.Severity != f.Severity {
		return false
	}
	if f.DateFrom != nil && p.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && p.CreatedAt.After(*f.DateTo) {
		return false
	}
	if search := strings.TrimSpace(f.Search); len(search) >= 2 {
		search = strings.ToLower(search)
		if strings.Contains(strings.ToLower(p.PainText), search) {
			return true
		}
		for _, kw := range p.Keywords {
			if strings.Contains(strings.ToLower(kw), search) {
				return true
			}
		}
		return false
	}
	return true
}

func (m *Memory) filteredPains(tenantID string, f models.PainFilter) []models.ExtractedPain {
	var matched []models.ExtractedPain
	for _, p := range m.pains {
		if p.TenantID != tenantID {
			continue
		}
		if matchesPainFilter(p, f) {
			matched = append(matched, *p)
		}
	}
	return matched
}

func (m *Memory) ListPains(_ context.Context, tenantID string, f models.PainFilter) ([]models.ExtractedPain, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := m.filteredPains(tenantID, f)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.SortBy {
		case models.SortByFrequency:
			if a.Frequency != b.Frequency {
				return a.Frequency > b.Frequency
			}
		case models.SortByTrend:
			if a.Trend != b.Trend {
				return a.Trend > b.Trend
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	total := len(matched)
	return paginatePains(matched, f.Limit, f.Offset), total, nil
}

func (m *Memory) AggregatePains(_ context.Context, tenantID string, f models.PainFilter) (*models.PainAggregates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agg := &models.PainAggregates{
		ByCategory: make(map[models.PainCategory]int),
		BySeverity: make(map[models.PainSeverity]int),
	}
	for _, p := range m.filteredPains(tenantID, f) {
		agg.ByCategory[p.Category]++
		agg.BySeverity[p.Severity]++
		agg.Total++
	}
	return agg, nil
}

func (m *Memory) UpdatePain(_ context.Context, tenantID, id string, u models.PainUpdate) (*models.ExtractedPain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pain, ok := m.pains[id]
	if !ok || pain.TenantID != tenantID {
		return nil, ErrNotFound
	}
	if u.Category != nil {
		pain.Category = *u.Category
	}
	if u.Severity != nil {
		pain.Severity = *u.Severity
	}
	if u.LinkedProjectIDs != nil {
		pain.LinkedProjectIDs = append([]string(nil), (*u.LinkedProjectIDs)...)
	}
	pain.UpdatedAt = time.Now().UTC()
	cp := *pain
	return &cp, nil
}

func (m *Memory) SetPainInsights(_ context.Context, tenantID, id string, insights *models.InsightPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pain, ok := m.pains[id]
	if !ok || pain.TenantID != tenantID {
		return ErrNotFound
	}
	cp := *insights
	pain.AIInsights = &cp
	pain.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) DashboardStats(_ context.Context, tenantID string, since time.Time) (*models.DashboardStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &models.DashboardStats{}
	byCategory := make(map[models.PainCategory]int)
	byDay := make(map[string]*models.TrendPoint)
	daySentiment := make(map[string]float64)
	var sentimentSum float64
	var ranked []*models.ExtractedPain

	for _, p := range m.pains {
		if p.TenantID != tenantID || p.CreatedAt.Before(since) {
			continue
		}
		ranked = append(ranked, p)
		stats.TotalPains++
		sentimentSum += p.Sentiment
		byCategory[p.Category]++

		switch {
		case p.Sentiment > 0.2:
			stats.Sentiment.Positive++
		case p.Sentiment < -0.2:
			stats.Sentiment.Negative++
		default:
			stats.Sentiment.Neutral++
		}

		day := p.CreatedAt.UTC().Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = &models.TrendPoint{Date: day}
		}
		byDay[day].Count++
		daySentiment[day] += p.Sentiment
	}

	for _, p := range m.posts {
		if p.TenantID == tenantID && !p.FetchedAt.Before(since) {
			stats.TotalPosts++
		}
	}

	if stats.TotalPains > 0 {
		stats.AvgSentiment = sentimentSum / float64(stats.TotalPains)
	}

	best := 0
	for category, count := range byCategory {
		if count > best {
			best = count
			c := category
			stats.TopCategory = &c
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Frequency != ranked[j].Frequency {
			return ranked[i].Frequency > ranked[j].Frequency
		}
		return ranked[i].Severity.Rank() > ranked[j].Severity.Rank()
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}
	for _, p := range ranked {
		tp := models.TopPain{
			ID: p.ID, PainText: p.PainText, Category: p.Category,
			Severity: p.Severity, Sentiment: p.Sentiment, Frequency: p.Frequency,
		}
		if post, ok := m.posts[p.PostID]; ok {
			tp.Platform = post.Platform
			tp.Author = post.Author
			tp.URL = post.URL
		}
		stats.TopPains = append(stats.TopPains, tp)
	}

	var days []string
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		tp := byDay[day]
		tp.AvgSentiment = daySentiment[day] / float64(tp.Count)
		stats.Trends = append(stats.Trends, *tp)
	}

	return stats, nil
}

func paginatePosts(items []models.SocialPost, limit, offset int) []models.SocialPost {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func paginatePains(items []models.ExtractedPain, limit, offset int) []models.ExtractedPain {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
