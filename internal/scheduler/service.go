package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/pain-radar/internal/archive"
	"github.com/flowcrm/pain-radar/internal/config"
	"github.com/flowcrm/pain-radar/internal/pipeline"
	"github.com/flowcrm/pain-radar/internal/store"
)

// Service runs the background jobs: the backlog sweep re-feeds posts a
// failed scan left unanalyzed, and the retention sweep prunes archived
// raw pages past their retention window.
type Service struct {
	config    *config.Config
	store     store.Store
	extractor *pipeline.Extractor
	archive   archive.Archive
	cron      *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, st store.Store, extractor *pipeline.Extractor, arc archive.Archive) *Service {
	return &Service{
		config:    cfg,
		store:     st,
		extractor: extractor,
		archive:   arc,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled jobs
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.SweepSchedule, func() {
		if err := s.Sweep(context.Background()); err != nil {
			logrus.Errorf("Backlog sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	if s.config.ArchiveRetention > 0 {
		// Daily at 3 AM UTC
		_, err = s.cron.AddFunc("0 0 3 * * *", func() {
			if err := s.PruneArchive(context.Background()); err != nil {
				logrus.Errorf("Archive prune failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with sweep schedule %q", s.config.SweepSchedule)
	return nil
}

// Sweep picks up the oldest unanalyzed posts and runs extraction over
// them. A collaborator failure stops the batch; the remainder is picked
// up on the next tick.
func (s *Service) Sweep(ctx context.Context) error {
	posts, err := s.store.UnanalyzedPosts(ctx, s.config.SweepBatchSize)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		logrus.Debug("Backlog sweep found no unanalyzed posts")
		return nil
	}

	logrus.Infof("Backlog sweep picked up %d unanalyzed posts", len(posts))

	analyzed, err := s.extractor.Analyze(ctx, posts, "")
	if err != nil {
		logrus.Errorf("Backlog sweep analyzed %d of %d posts before failing: %v",
			analyzed, len(posts), err)
		return err
	}

	logrus.Infof("Backlog sweep analyzed %d posts", analyzed)
	return nil
}

// PruneArchive deletes archived raw pages whose scan finished before the
// retention cutoff, along with pages whose scan no longer exists. Page
// names follow the tenant/keyword/scan layout written at archival time.
func (s *Service) PruneArchive(ctx context.Context) error {
	names, err := s.archive.List("")
	if err != nil {
		return err
	}

	cutoff := time.Now().UTC().Add(-s.config.ArchiveRetention)
	pruned := 0
	for _, name := range names {
		parts := strings.Split(strings.TrimSuffix(name, ".json"), "/")
		if len(parts) != 3 {
			logrus.Warnf("Skipping archive blob with unexpected name %q", name)
			continue
		}
		tenantID, scanID := parts[0], parts[2]

		scan, err := s.store.GetScan(ctx, tenantID, scanID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if scan != nil {
			if !scan.Status.Terminal() || scan.CompletedAt == nil || scan.CompletedAt.After(cutoff) {
				continue
			}
		}

		if err := s.archive.Delete(name); err != nil {
			logrus.Errorf("Failed to delete archived page %s: %v", name, err)
			continue
		}
		pruned++
	}

	if pruned > 0 {
		logrus.Infof("Archive prune deleted %d pages", pruned)
	}
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
