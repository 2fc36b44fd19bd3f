package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/pain-radar/internal/archive"
	"github.com/flowcrm/pain-radar/internal/models"
	"github.com/flowcrm/pain-radar/internal/notifications"
	"github.com/flowcrm/pain-radar/internal/sources"
	"github.com/flowcrm/pain-radar/internal/store"
)

// Orchestrator drives scans through their state machine:
// PENDING -> RUNNING -> COMPLETED | FAILED. Terminal states are never
// left; a retry is a new scan. At most one non-terminal scan exists per
// keyword, enforced atomically by the store at creation.
type Orchestrator struct {
	store        store.Store
	registry     *sources.Registry
	ingestor     *Ingestor
	extractor    *Extractor
	archive      archive.Archive
	notifier     notifications.Notifier
	fetchTimeout time.Duration
	scanTimeout  time.Duration
}

// NewOrchestrator creates a new scan orchestrator
func NewOrchestrator(
	st store.Store,
	registry *sources.Registry,
	ingestor *Ingestor,
	extractor *Extractor,
	arc archive.Archive,
	notifier notifications.Notifier,
	fetchTimeout, scanTimeout time.Duration,
) *Orchestrator {
	return &Orchestrator{
		store:        st,
		registry:     registry,
		ingestor:     ingestor,
		extractor:    extractor,
		archive:      arc,
		notifier:     notifier,
		fetchTimeout: fetchTimeout,
		scanTimeout:  scanTimeout,
	}
}

// Trigger creates a PENDING scan for the keyword and starts the run on
// its own goroutine. It fails with ConflictError when the keyword
// already has an active scan, and never queues.
func (o *Orchestrator) Trigger(ctx context.Context, tenantID, keywordID string, platform models.Platform, limit int) (*models.Scan, error) {
	if !models.ValidPlatform(platform) {
		return nil, models.NewValidationError("platform", fmt.Sprintf("unknown platform %q", platform))
	}
	if limit < 1 || limit > 100 {
		return nil, models.NewValidationError("limit", "must be between 1 and 100")
	}

	keyword, err := o.store.GetKeyword(ctx, tenantID, keywordID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NewNotFoundError("keyword", keywordID)
	}
	if err != nil {
		return nil, err
	}

	if _, ok := o.registry.ForPlatform(platform); !ok {
		return nil, models.NewValidationError("platform", fmt.Sprintf("no fetcher configured for %q", platform))
	}

	scan := &models.Scan{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		KeywordID: keywordID,
		Platform:  platform,
		Status:    models.ScanPending,
		Limit:     limit,
		CreatedAt: time.Now().UTC(),
	}

	if err := o.store.CreateScan(ctx, scan); err != nil {
		if errors.Is(err, store.ErrScanActive) {
			return nil, models.NewConflictError("keyword already has an active scan")
		}
		return nil, fmt.Errorf("failed to create scan: %w", err)
	}

	logrus.Infof("Scan %s created for keyword %q (%s)", scan.ID, keyword.Text, platform)

	// The run detaches from the request; its lifetime is bounded by the
	// scan timeout, not by the caller.
	go o.run(scan, keyword)

	return scan, nil
}

// GetScan returns one scan of the tenant for status polling.
func (o *Orchestrator) GetScan(ctx context.Context, tenantID, id string) (*models.Scan, error) {
	scan, err := o.store.GetScan(ctx, tenantID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NewNotFoundError("scan", id)
	}
	if err != nil {
		return nil, err
	}
	return scan, nil
}

// RawPage returns the archived fetch page of a scan for replay and
// debugging. Scans that found nothing, or ran before archival was
// configured, have no page.
func (o *Orchestrator) RawPage(ctx context.Context, tenantID, id string) ([]byte, error) {
	scan, err := o.GetScan(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	data, err := o.archive.Retrieve(pageName(scan))
	if err != nil {
		return nil, models.NewCollaboratorError("archive", 0, err)
	}
	if len(data) == 0 {
		return nil, models.NewNotFoundError("scan page", id)
	}
	return data, nil
}

func (o *Orchestrator) run(scan *models.Scan, keyword *models.Keyword) {
	ctx, cancel := context.WithTimeout(context.Background(), o.scanTimeout)
	defer cancel()

	start := time.Now()

	now := start.UTC()
	scan.Status = models.ScanRunning
	scan.StartedAt = &now
	if err := o.store.UpdateScan(ctx, scan); err != nil {
		logrus.Errorf("Failed to mark scan %s running: %v", scan.ID, err)
		return
	}

	fetcher, ok := o.registry.ForPlatform(scan.Platform)
	if !ok {
		o.fail(ctx, scan, keyword, fmt.Errorf("no fetcher configured for %q", scan.Platform))
		return
	}

	fetchCtx, cancelFetch := context.WithTimeout(ctx, o.fetchTimeout)
	rawPosts, err := fetcher.Fetch(fetchCtx, keyword.Text, scan.Limit)
	cancelFetch()
	if err != nil {
		o.fail(ctx, scan, keyword, err)
		return
	}
	scan.PostsFound = len(rawPosts)

	o.archiveRawPage(scan, rawPosts)

	newPosts, err := o.ingestor.Ingest(ctx, keyword, rawPosts)
	scan.PostsNew = len(newPosts)
	if err != nil {
		// Posts committed before the failure are kept.
		o.fail(ctx, scan, keyword, err)
		return
	}

	analyzed, err := o.extractor.Analyze(ctx, newPosts, keyword.Category)
	scan.PostsAnalyzed = analyzed
	if err != nil {
		// Pains committed before the failure are kept; unanalyzed posts
		// are picked up by the backlog sweep.
		o.fail(ctx, scan, keyword, err)
		return
	}

	done := time.Now().UTC()
	scan.Status = models.ScanCompleted
	scan.CompletedAt = &done
	if err := o.store.UpdateScan(ctx, scan); err != nil {
		logrus.Errorf("Failed to mark scan %s completed: %v", scan.ID, err)
		return
	}

	logrus.Infof("Scan %s completed in %v: found=%d new=%d analyzed=%d",
		scan.ID, time.Since(start), scan.PostsFound, scan.PostsNew, scan.PostsAnalyzed)

	o.notify(keyword, scan)
}

// fail transitions the scan to its terminal FAILED state, recording the
// error for operator visibility. Partial progress is never rolled back.
func (o *Orchestrator) fail(ctx context.Context, scan *models.Scan, keyword *models.Keyword, cause error) {
	logrus.Errorf("Scan %s failed: %v", scan.ID, cause)

	done := time.Now().UTC()
	scan.Status = models.ScanFailed
	scan.ErrorMessage = cause.Error()
	scan.CompletedAt = &done
	if err := o.store.UpdateScan(ctx, scan); err != nil {
		logrus.Errorf("Failed to mark scan %s failed: %v", scan.ID, err)
	}

	o.notify(keyword, scan)
}

func (o *Orchestrator) archiveRawPage(scan *models.Scan, rawPosts []models.RawPost) {
	if len(rawPosts) == 0 {
		return
	}

	go func() {
		data, err := json.Marshal(rawPosts)
		if err != nil {
			logrus.Errorf("Failed to marshal raw page for scan %s: %v", scan.ID, err)
			return
		}
		if err := o.archive.Store(pageName(scan), data); err != nil {
			logrus.Errorf("Failed to archive raw page for scan %s: %v", scan.ID, err)
		}
	}()
}

// pageName is the blob name of a scan's raw page. The retention sweep
// parses it back, so the tenant/keyword/scan layout is load-bearing.
func pageName(scan *models.Scan) string {
	return fmt.Sprintf("%s/%s/%s.json", scan.TenantID, scan.KeywordID, scan.ID)
}

func (o *Orchestrator) notify(keyword *models.Keyword, scan *models.Scan) {
	go func() {
		if err := o.notifier.SendScanReport(keyword, scan); err != nil {
			logrus.Errorf("Failed to send scan report for %s: %v", scan.ID, err)
		}
	}()
}
