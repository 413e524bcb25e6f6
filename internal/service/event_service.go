package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"schedcal/internal/cache"
	"schedcal/internal/models"
	"schedcal/internal/repository"
)

var ErrMissingEventFields = errors.New("title, start_time, and end_time are required")

type EventService struct {
	events repository.Events
	users  repository.Users
	cache  *cache.EventCache
	log    zerolog.Logger
}

func NewEventService(events repository.Events, users repository.Users, eventCache *cache.EventCache, log zerolog.Logger) *EventService {
	return &EventService{events: events, users: users, cache: eventCache, log: log}
}

func (s *EventService) Create(ctx context.Context, event models.Event) (models.Event, error) {
	if event.Title == "" || event.StartTime.IsZero() || event.EndTime.IsZero() {
		return models.Event{}, ErrMissingEventFields
	}
	if event.Resource == "" {
		event.Resource = models.DefaultEventResource
	}

	// The existence check is only a fast path; the foreign-key constraint
	// decides, so an owner deleted between check and insert still surfaces
	// as ErrUnknownOwner from Create.
	if event.UserID != nil {
		exists, err := s.users.Exists(ctx, *event.UserID)
		if err != nil {
			return models.Event{}, err
		}
		if !exists {
			return models.Event{}, repository.ErrUnknownOwner
		}
	}

	created, err := s.events.Create(ctx, event)
	if err != nil {
		return models.Event{}, err
	}

	s.cache.Invalidate(ctx)
	s.log.Info().Int("event_id", created.ID).Str("title", created.Title).Msg("event created")
	return created, nil
}

func (s *EventService) GetByID(ctx context.Context, id int) (models.Event, error) {
	return s.events.GetByID(ctx, id)
}

func (s *EventService) ListAll(ctx context.Context) ([]models.Event, error) {
	events, version, ok := s.cache.GetList(ctx, cache.ListAllKey())
	if ok {
		return events, nil
	}

	events, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetList(ctx, cache.ListAllKey(), version, events)
	return events, nil
}

// ListByOwner returns the owning user alongside its events so callers can
// echo both without a second round trip.
func (s *EventService) ListByOwner(ctx context.Context, userID int) (models.User, []models.Event, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, nil, err
	}

	events, err := s.events.ListByOwner(ctx, userID)
	if err != nil {
		return models.User{}, nil, err
	}
	return user, events, nil
}

func (s *EventService) ListByRange(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	key := cache.ListRangeKey(start, end)
	events, version, ok := s.cache.GetList(ctx, key)
	if ok {
		return events, nil
	}

	events, err := s.events.ListByRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	s.cache.SetList(ctx, key, version, events)
	return events, nil
}

func (s *EventService) Update(ctx context.Context, id int, patch models.EventPatch) (models.Event, error) {
	if patch.UserID != nil {
		exists, err := s.users.Exists(ctx, *patch.UserID)
		if err != nil {
			return models.Event{}, err
		}
		if !exists {
			return models.Event{}, repository.ErrUnknownOwner
		}
	}

	event, err := s.events.Update(ctx, id, patch)
	if err != nil {
		return models.Event{}, err
	}

	s.cache.Invalidate(ctx)
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, id int) (models.Event, error) {
	event, err := s.events.Delete(ctx, id)
	if err != nil {
		return models.Event{}, err
	}

	s.cache.Invalidate(ctx)
	s.log.Info().Int("event_id", id).Msg("event deleted")
	return event, nil
}
