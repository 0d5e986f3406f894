// Package scheduler periodically refreshes cached weather for configured
// cities so dashboard reads stay warm between live lookups.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/citygrid/concierge/internal/weather"
)

// RefreshFunc resolves and caches weather for one query.
type RefreshFunc func(ctx context.Context, q weather.Query)

// Scheduler runs the periodic refresh job.
type Scheduler struct {
	scheduler *gocron.Scheduler
	queries   []weather.Query
	interval  time.Duration
	refresh   RefreshFunc
	logger    zerolog.Logger
}

// New creates a Scheduler over the given queries.
func New(queries []weather.Query, interval time.Duration, refresh RefreshFunc, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		queries:   queries,
		interval:  interval,
		refresh:   refresh,
		logger:    logger,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.queries) == 0 {
		s.logger.Info().Msg("scheduler: no cities configured, nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.logger.Debug().Int("cities", len(s.queries)).Msg("scheduler: running weather refresh")

		var wg sync.WaitGroup
		for _, q := range s.queries {
			q := q
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				s.refresh(ctx, q)
			}()
		}
		wg.Wait()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
