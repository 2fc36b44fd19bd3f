package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/flowcrm/pain-radar/internal/models"
)

//go:embed schema.sql
var schemaFS embed.FS

// Postgres is the production Store backed by PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// Ensure Postgres implements Store
var _ Store = (*Postgres)(nil)

// NewPostgres opens a connection pool and verifies connectivity.
func NewPostgres(databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// NewPostgresFromDB wraps an existing connection, used by tests.
func NewPostgresFromDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema applies the embedded schema. All statements are idempotent.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	return nil
}

// Close closes the underlying pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) IsMember(ctx context.Context, tenantID, userID string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM members WHERE tenant_id = $1 AND user_id = $2)`,
		tenantID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

func (p *Postgres) CreateKeyword(ctx context.Context, k *models.Keyword) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO keywords (id, tenant_id, text, category, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		k.ID, k.TenantID, k.Text, k.Category, k.CreatedBy, k.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert keyword: %w", err)
	}
	return nil
}

func (p *Postgres) GetKeyword(ctx context.Context, tenantID, id string) (*models.Keyword, error) {
	var k models.Keyword
	err := p.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, text, category, created_by, created_at
		 FROM keywords WHERE tenant_id = $1 AND id = $2`,
		tenantID, id).Scan(&k.ID, &k.TenantID, &k.Text, &k.Category, &k.CreatedBy, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword: %w", err)
	}
	return &k, nil
}

func (p *Postgres) ListKeywords(ctx context.Context, tenantID string) ([]models.KeywordStats, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT k.id, k.tenant_id, k.text, k.category, k.created_by, k.created_at,
		        (SELECT COUNT(*) FROM social_posts p WHERE p.keyword_id = k.id),
		        (SELECT COUNT(*) FROM scans s WHERE s.keyword_id = k.id)
		 FROM keywords k
		 WHERE k.tenant_id = $1
		 ORDER BY k.created_at DESC`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	defer rows.Close()

	var out []models.KeywordStats
	for rows.Next() {
		var ks models.KeywordStats
		if err := rows.Scan(&ks.ID, &ks.TenantID, &ks.Text, &ks.Category,
			&ks.CreatedBy, &ks.CreatedAt, &ks.PostCount, &ks.ScanCount); err != nil {
			return nil, fmt.Errorf("failed to scan keyword row: %w", err)
		}
		out = append(out, ks)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateScan(ctx context.Context, s *models.Scan) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO scans (id, tenant_id, keyword_id, platform, status, page_limit, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.TenantID, s.KeywordID, s.Platform, s.Status, s.Limit, s.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrScanActive
		}
		return fmt.Errorf("failed to insert scan: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateScan(ctx context.Context, s *models.Scan) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE scans
		 SET status = $1, posts_found = $2, posts_new = $3, posts_analyzed = $4,
		     error_message = $5, started_at = $6, completed_at = $7
		 WHERE id = $8`,
		s.Status, s.PostsFound, s.PostsNew, s.PostsAnalyzed,
		s.ErrorMessage, s.StartedAt, s.CompletedAt, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update scan: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetScan(ctx context.Context, tenantID, id string) (*models.Scan, error) {
	var s models.Scan
	err := p.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, keyword_id, platform, status, page_limit,
		        posts_found, posts_new, posts_analyzed, error_message,
		        started_at, completed_at, created_at
		 FROM scans WHERE tenant_id = $1 AND id = $2`,
		tenantID, id).Scan(&s.ID, &s.TenantID, &s.KeywordID, &s.Platform, &s.Status,
		&s.Limit, &s.PostsFound, &s.PostsNew, &s.PostsAnalyzed, &s.ErrorMessage,
		&s.StartedAt, &s.CompletedAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	return &s, nil
}

func (p *Postgres) UpsertPost(ctx context.Context, post *models.SocialPost) (bool, error) {
	// xmax = 0 only on freshly inserted rows, which distinguishes insert
	// from conflict-update in a single round trip.
	var created bool
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO social_posts
		     (id, tenant_id, keyword_id, platform, external_id, author, content,
		      url, published_at, likes, comments, is_analyzed, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE, $12)
		 ON CONFLICT (platform, external_id)
		 DO UPDATE SET likes = EXCLUDED.likes, comments = EXCLUDED.comments
		 RETURNING id, tenant_id, keyword_id, is_analyzed, analyzed_at, fetched_at, (xmax = 0)`,
		post.ID, post.TenantID, post.KeywordID, post.Platform, post.ExternalID,
		post.Author, post.Content, post.URL, post.PublishedAt,
		post.Likes, post.Comments, post.FetchedAt).
		Scan(&post.ID, &post.TenantID, &post.KeywordID, &post.IsAnalyzed,
			&post.AnalyzedAt, &post.FetchedAt, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert post: %w", err)
	}
	return created, nil
}

func (p *Postgres) ListPosts(ctx context.Context, tenantID string, f models.PostFilter) ([]models.SocialPost, int, error) {
	where := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}

	if f.KeywordID != "" {
		args = append(args, f.KeywordID)
		where = append(where, fmt.Sprintf("keyword_id = $%d", len(args)))
	}
	if f.IsAnalyzed != nil {
		args = append(args, *f.IsAnalyzed)
		where = append(where, fmt.Sprintf("is_analyzed = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := p.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM social_posts WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit, f.Offset)

	rows, err := p.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, tenant_id, keyword_id, platform, external_id, author,
		        content, url, published_at, likes, comments, is_analyzed, analyzed_at, fetched_at
		 FROM social_posts WHERE %s
		 ORDER BY fetched_at DESC
		 LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts, err := scanPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (p *Postgres) UnanalyzedPosts(ctx context.Context, limit int) ([]models.SocialPost, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, tenant_id, keyword_id, platform, external_id, author,
		        content, url, published_at, likes, comments, is_analyzed, analyzed_at, fetched_at
		 FROM social_posts
		 WHERE is_analyzed = FALSE
		   AND NOT EXISTS (SELECT 1 FROM scans s
		                   WHERE s.keyword_id = social_posts.keyword_id
		                     AND s.status IN ('PENDING', 'RUNNING'))
		 ORDER BY fetched_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unanalyzed posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

func scanPosts(rows *sql.Rows) ([]models.SocialPost, error) {
	var posts []models.SocialPost
	for rows.Next() {
		var post models.SocialPost
		if err := rows.Scan(&post.ID, &post.TenantID, &post.KeywordID, &post.Platform,
			&post.ExternalID, &post.Author, &post.Content, &post.URL, &post.PublishedAt,
			&post.Likes, &post.Comments, &post.IsAnalyzed, &post.AnalyzedAt, &post.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (p *Postgres) MarkPostAnalyzed(ctx context.Context, postID string, at time.Time) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE social_posts SET is_analyzed = TRUE, analyzed_at = $1 WHERE id = $2`,
		at, postID)
	if err != nil {
		return fmt.Errorf("failed to mark post analyzed: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreatePain(ctx context.Context, pain *models.ExtractedPain) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO extracted_pains
		     (id, tenant_id, post_id, pain_text, category, severity, sentiment,
		      confidence, keywords, context, frequency, trend, linked_project_ids,
		      created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		pain.ID, pain.TenantID, pain.PostID, pain.PainText, pain.Category,
		pain.Severity, pain.Sentiment, pain.Confidence, pq.Array(pain.Keywords),
		pain.Context, pain.Frequency, pain.Trend, pq.Array(pain.LinkedProjectIDs),
		pain.CreatedAt, pain.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pain: %w", err)
	}
	return nil
}

func (p *Postgres) GetPain(ctx context.Context, id string) (*models.PainWithPost, error) {
	var pain models.PainWithPost
	var post models.SocialPost
	var insights []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT e.id, e.tenant_id, e.post_id, e.pain_text, e.category, e.severity,
		        e.sentiment, e.confidence, e.keywords, e.context, e.frequency,
		        e.trend, e.ai_insights, e.linked_project_ids, e.created_at, e.updated_at,
		        sp.id, sp.tenant_id, sp.keyword_id, sp.platform, sp.external_id,
		        sp.author, sp.content, sp.url, sp.published_at, sp.likes, sp.comments,
		        sp.is_analyzed, sp.analyzed_at, sp.fetched_at
		 FROM extracted_pains e
		 JOIN social_posts sp ON sp.id = e.post_id
		 WHERE e.id = $1`, id).
		Scan(&pain.ID, &pain.TenantID, &pain.PostID, &pain.PainText, &pain.Category,
			&pain.Severity, &pain.Sentiment, &pain.Confidence, pq.Array(&pain.Keywords),
			&pain.Context, &pain.Frequency, &pain.Trend, &insights,
			pq.Array(&pain.LinkedProjectIDs), &pain.CreatedAt, &pain.UpdatedAt,
			&post.ID, &post.TenantID, &post.KeywordID, &post.Platform, &post.ExternalID,
			&post.Author, &post.Content, &post.URL, &post.PublishedAt, &post.Likes,
			&post.Comments, &post.IsAnalyzed, &post.AnalyzedAt, &post.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pain: %w", err)
	}

	if len(insights) > 0 {
		var payload models.InsightPayload
		if err := json.Unmarshal(insights, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode insights payload: %w", err)
		}
		pain.AIInsights = &payload
	}

	pain.Post = &post
	return &pain, nil
}

// painFilterClause builds the WHERE fragment shared by ListPains and
// AggregatePains so both operate on the same filtered set.
func painFilterClause(tenantID string, f models.PainFilter) (string, []interface{}) {
	where := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}

	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Severity != "" {
		args = append(args, f.Severity)
		where = append(where, fmt.Sprintf("severity = $%d", len(args)))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if search := strings.TrimSpace(f.Search); len(search) >= 2 {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(pain_text ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(keywords) AS kw WHERE kw ILIKE $%d))", n, n))
	}

	return strings.Join(where, " AND "), args
}

// escapeLike neutralizes LIKE wildcards so search input matches
// literally, the same way the in-memory store does.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func painOrderClause(sortBy string) string {
	switch sortBy {
	case models.SortByFrequency:
		return "frequency DESC, created_at DESC"
	case models.SortByTrend:
		return "trend DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}

func (p *Postgres) ListPains(ctx context.Context, tenantID string, f models.PainFilter) ([]models.ExtractedPain, int, error) {
	cond, args := painFilterClause(tenantID, f)

	var total int
	if err := p.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM extracted_pains WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pains: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit, f.Offset)

	rows, err := p.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, tenant_id, post_id, pain_text, category, severity,
		        sentiment, confidence, keywords, context, frequency, trend,
		        ai_insights, linked_project_ids, created_at, updated_at
		 FROM extracted_pains WHERE %s
		 ORDER BY %s
		 LIMIT $%d OFFSET $%d`, cond, painOrderClause(f.SortBy), len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pains: %w", err)
	}
	defer rows.Close()

	var pains []models.ExtractedPain
	for rows.Next() {
		var pain models.ExtractedPain
		var insights []byte
		if err := rows.Scan(&pain.ID, &pain.TenantID, &pain.PostID, &pain.PainText,
			&pain.Category, &pain.Severity, &pain.Sentiment, &pain.Confidence,
			pq.Array(&pain.Keywords), &pain.Context, &pain.Frequency, &pain.Trend,
			&insights, pq.Array(&pain.LinkedProjectIDs), &pain.CreatedAt, &pain.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan pain row: %w", err)
		}
		if len(insights) > 0 {
			var payload models.InsightPayload
			if err := json.Unmarshal(insights, &payload); err != nil {
				return nil, 0, fmt.Errorf("failed to decode insights payload: %w", err)
			}
			pain.AIInsights = &payload
		}
		pains = append(pains, pain)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return pains, total, nil
}

func (p *Postgres) AggregatePains(ctx context.Context, tenantID string, f models.PainFilter) (*models.PainAggregates, error) {
	cond, args := painFilterClause(tenantID, f)

	// A single grouped statement so both breakdowns and the total come
	// from one snapshot.
	rows, err := p.db.QueryContext(ctx,
		"SELECT category, severity, COUNT(*) FROM extracted_pains WHERE "+cond+
			" GROUP BY category, severity", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate pains: %w", err)
	}
	defer rows.Close()

	agg := &models.PainAggregates{
		ByCategory: make(map[models.PainCategory]int),
		BySeverity: make(map[models.PainSeverity]int),
	}
	for rows.Next() {
		var category models.PainCategory
		var severity models.PainSeverity
		var count int
		if err := rows.Scan(&category, &severity, &count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		agg.ByCategory[category] += count
		agg.BySeverity[severity] += count
		agg.Total += count
	}
	return agg, rows.Err()
}

func (p *Postgres) UpdatePain(ctx context.Context, tenantID, id string, u models.PainUpdate) (*models.ExtractedPain, error) {
	set := []string{}
	args := []interface{}{}

	if u.Category != nil {
		args = append(args, *u.Category)
		set = append(set, fmt.Sprintf("category = $%d", len(args)))
	}
	if u.Severity != nil {
		args = append(args, *u.Severity)
		set = append(set, fmt.Sprintf("severity = $%d", len(args)))
	}
	if u.LinkedProjectIDs != nil {
		args = append(args, pq.Array(*u.LinkedProjectIDs))
		set = append(set, fmt.Sprintf("linked_project_ids = $%d", len(args)))
	}

	args = append(args, time.Now().UTC())
	set = append(set, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, tenantID, id)
	query := fmt.Sprintf(
		`UPDATE extracted_pains SET %s WHERE tenant_id = $%d AND id = $%d
		 RETURNING id, tenant_id, post_id, pain_text, category, severity, sentiment,
		           confidence, keywords, context, frequency, trend, linked_project_ids,
		           created_at, updated_at`,
		strings.Join(set, ", "), len(args)-1, len(args))

	var pain models.ExtractedPain
	err := p.db.QueryRowContext(ctx, query, args...).
		Scan(&pain.ID, &pain.TenantID, &pain.PostID, &pain.PainText, &pain.Category,
			&pain.Severity, &pain.Sentiment, &pain.Confidence, pq.Array(&pain.Keywords),
			&pain.Context, &pain.Frequency, &pain.Trend, pq.Array(&pain.LinkedProjectIDs),
			&pain.CreatedAt, &pain.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update pain: %w", err)
	}
	return &pain, nil
}

func (p *Postgres) SetPainInsights(ctx context.Context, tenantID, id string, insights *models.InsightPayload) error {
	payload, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("failed to encode insights payload: %w", err)
	}

	res, err := p.db.ExecContext(ctx,
		`UPDATE extracted_pains SET ai_insights = $1, updated_at = $2
		 WHERE tenant_id = $3 AND id = $4`,
		payload, time.Now().UTC(), tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to set insights: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DashboardStats(ctx context.Context, tenantID string, since time.Time) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}

	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(AVG(sentiment), 0),
		        COUNT(*) FILTER (WHERE sentiment > 0.2),
		        COUNT(*) FILTER (WHERE sentiment < -0.2)
		 FROM extracted_pains
		 WHERE tenant_id = $1 AND created_at >= $2`,
		tenantID, since).
		Scan(&stats.TotalPains, &stats.AvgSentiment,
			&stats.Sentiment.Positive, &stats.Sentiment.Negative)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate pain overview: %w", err)
	}
	stats.Sentiment.Neutral = stats.TotalPains - stats.Sentiment.Positive - stats.Sentiment.Negative

	err = p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM social_posts WHERE tenant_id = $1 AND fetched_at >= $2`,
		tenantID, since).Scan(&stats.TotalPosts)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	var topCategory sql.NullString
	err = p.db.QueryRowContext(ctx,
		`SELECT category FROM extracted_pains
		 WHERE tenant_id = $1 AND created_at >= $2
		 GROUP BY category ORDER BY COUNT(*) DESC LIMIT 1`,
		tenantID, since).Scan(&topCategory)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find top category: %w", err)
	}
	if topCategory.Valid {
		c := models.PainCategory(topCategory.String)
		stats.TopCategory = &c
	}

	topRows, err := p.db.QueryContext(ctx,
		`SELECT e.id, e.pain_text, e.category, e.severity, e.sentiment, e.frequency,
		        sp.platform, sp.author, sp.url
		 FROM extracted_pains e
		 JOIN social_posts sp ON sp.id = e.post_id
		 WHERE e.tenant_id = $1 AND e.created_at >= $2
		 ORDER BY e.frequency DESC,
		          CASE e.severity
		              WHEN 'CRITICAL' THEN 3 WHEN 'HIGH' THEN 2
		              WHEN 'MEDIUM' THEN 1 ELSE 0
		          END DESC
		 LIMIT 10`,
		tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list top pains: %w", err)
	}
	defer topRows.Close()

	for topRows.Next() {
		var tp models.TopPain
		if err := topRows.Scan(&tp.ID, &tp.PainText, &tp.Category, &tp.Severity,
			&tp.Sentiment, &tp.Frequency, &tp.Platform, &tp.Author, &tp.URL); err != nil {
			return nil, fmt.Errorf("failed to scan top pain row: %w", err)
		}
		stats.TopPains = append(stats.TopPains, tp)
	}
	if err := topRows.Err(); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT DATE(created_at)::text, COUNT(*)::int, COALESCE(AVG(sentiment), 0)
		 FROM extracted_pains
		 WHERE tenant_id = $1 AND created_at >= $2
		 GROUP BY DATE(created_at)
		 ORDER BY DATE(created_at) ASC`,
		tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate trends: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tp models.TrendPoint
		if err := rows.Scan(&tp.Date, &tp.Count, &tp.AvgSentiment); err != nil {
			return nil, fmt.Errorf("failed to scan trend row: %w", err)
		}
		stats.Trends = append(stats.Trends, tp)
	}
	return stats, rows.Err()
}
