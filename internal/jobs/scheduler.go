package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"schedcal/internal/cache"
	"schedcal/internal/repository"
)

// Scheduler runs the periodic housekeeping: an hourly usage-stats log line
// and a nightly cache reset.
type Scheduler struct {
	cron   *cron.Cron
	users  repository.Users
	events repository.Events
	cache  *cache.EventCache
	log    zerolog.Logger
}

func NewScheduler(users repository.Users, events repository.Events, eventCache *cache.EventCache, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		users:  users,
		events: events,
		cache:  eventCache,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.resetCache); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.logUsageStats); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish, up to a bound.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) resetCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.cache.Invalidate(ctx)
	s.log.Info().Msg("event cache reset")
}

func (s *Scheduler) logUsageStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users, err := s.users.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("usage stats: list users failed")
		return
	}
	events, err := s.events.ListAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("usage stats: list events failed")
		return
	}

	owned := 0
	for _, event := range events {
		if event.UserID != nil {
			owned++
		}
	}

	s.log.Info().
		Int("users", len(users)).
		Int("events", len(events)).
		Int("owned_events", owned).
		Msg("usage stats")
}
