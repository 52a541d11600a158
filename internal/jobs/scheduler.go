package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"kidotrendz/storefront/internal/service"
)

// Scheduler rebuilds the featured-products cache on a timer so admin edits
// made outside this process still converge.
type Scheduler struct {
	cron    *cron.Cron
	catalog *service.CatalogService
	log     zerolog.Logger
}

func NewScheduler(catalog *service.CatalogService, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		catalog: catalog,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 30m", s.refreshFeatured); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running job to finish, bounded by
// a short timeout.
func (s *Scheduler) Stop() {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) refreshFeatured() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.catalog.RefreshFeatured(ctx); err != nil {
		s.log.Error().Err(err).Msg("featured cache refresh failed")
	}
}
