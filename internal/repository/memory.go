package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"schedcal/internal/models"
)

// MemoryStore is an in-process implementation of both relations with the
// same constraint behavior as postgres: unique username/email, owner
// foreign key, cascade delete. Handler and client tests run against it.
type MemoryStore struct {
	mu         sync.Mutex
	users      map[int]models.User
	events     map[int]models.Event
	nextUserID int
	nextEvent  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[int]models.User),
		events:     make(map[int]models.Event),
		nextUserID: 1,
		nextEvent:  1,
	}
}

func (s *MemoryStore) Users() Users   { return memoryUsers{s} }
func (s *MemoryStore) Events() Events { return memoryEvents{s} }

type memoryUsers struct {
	s *MemoryStore
}

func (m memoryUsers) Create(_ context.Context, user models.User) (models.User, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return models.User{}, ErrDuplicate
		}
	}

	now := time.Now().UTC()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.nextUserID++
	s.users[user.ID] = user
	return user, nil
}

func (m memoryUsers) GetByID(_ context.Context, id int) (models.User, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

func (m memoryUsers) GetByLogin(_ context.Context, login string) (models.User, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var byEmail *models.User
	for _, user := range sortedUsersByID(s.users) {
		if user.Username == login {
			return user, nil
		}
		if user.Email == login && byEmail == nil {
			u := user
			byEmail = &u
		}
	}
	if byEmail != nil {
		return *byEmail, nil
	}
	return models.User{}, ErrUserNotFound
}

func (m memoryUsers) List(_ context.Context) ([]models.User, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	users := sortedUsersByID(s.users)
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (m memoryUsers) Update(_ context.Context, id int, patch models.UserPatch) (models.User, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}

	username := user.Username
	email := user.Email
	if patch.Username != nil {
		username = *patch.Username
	}
	if patch.Email != nil {
		email = *patch.Email
	}
	for otherID, other := range s.users {
		if otherID == id {
			continue
		}
		if other.Username == username || other.Email == email {
			return models.User{}, ErrDuplicate
		}
	}

	user.Username = username
	user.Email = email
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return user, nil
}

func (m memoryUsers) Delete(_ context.Context, id int) (models.User, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	delete(s.users, id)

	// cascade, same as the ON DELETE CASCADE constraint
	for eventID, event := range s.events {
		if event.UserID != nil && *event.UserID == id {
			delete(s.events, eventID)
		}
	}
	return user, nil
}

func (m memoryUsers) Exists(_ context.Context, id int) (bool, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.users[id]
	return ok, nil
}

type memoryEvents struct {
	s *MemoryStore
}

func (m memoryEvents) Create(_ context.Context, event models.Event) (models.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.UserID != nil {
		if _, ok := s.users[*event.UserID]; !ok {
			return models.Event{}, ErrUnknownOwner
		}
	}
	if strings.TrimSpace(event.Resource) == "" {
		event.Resource = models.DefaultEventResource
	}

	now := time.Now().UTC()
	event.ID = s.nextEvent
	event.Username = nil
	event.CreatedAt = now
	event.UpdatedAt = now
	s.nextEvent++
	s.events[event.ID] = event
	return event, nil
}

func (m memoryEvents) GetByID(_ context.Context, id int) (models.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return models.Event{}, ErrEventNotFound
	}
	return s.joinOwner(event), nil
}

func (m memoryEvents) ListAll(_ context.Context) ([]models.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]models.Event, 0, len(s.events))
	for _, event := range s.events {
		events = append(events, s.joinOwner(event))
	}
	sortEventsByStart(events)
	return events, nil
}

func (m memoryEvents) ListByOwner(_ context.Context, userID int) ([]models.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]models.Event, 0)
	for _, event := range s.events {
		if event.UserID != nil && *event.UserID == userID {
			events = append(events, event)
		}
	}
	sortEventsByStart(events)
	return events, nil
}

func (m memoryEvents) ListByRange(_ context.Context, start, end time.Time) ([]models.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]models.Event, 0)
	for _, event := range s.events {
		if !event.StartTime.Before(start) && !event.EndTime.After(end) {
			events = append(events, s.joinOwner(event))
		}
	}
	sortEventsByStart(events)
	return events, nil
}

func (m memoryEvents) Update(_ context.Context, id int, patch models.EventPatch) (models.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return models.Event{}, ErrEventNotFound
	}

	if patch.UserID != nil {
		if _, exists := s.users[*patch.UserID]; !exists {
			return models.Event{}, ErrUnknownOwner
		}
		event.UserID = patch.UserID
	}
	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.StartTime != nil {
		event.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		event.EndTime = *patch.EndTime
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Resource != nil {
		event.Resource = *patch.Resource
	}
	event.UpdatedAt = time.Now().UTC()
	s.events[id] = event
	return event, nil
}

func (m memoryEvents) Delete(_ context.Context, id int) (models.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return models.Event{}, ErrEventNotFound
	}
	delete(s.events, id)
	return event, nil
}

// joinOwner mirrors the left join onto users: username present when the
// owner resolves, nil otherwise. Caller must hold the lock.
func (s *MemoryStore) joinOwner(event models.Event) models.Event {
	if event.UserID != nil {
		if owner, ok := s.users[*event.UserID]; ok {
			username := owner.Username
			event.Username = &username
		}
	}
	return event
}

func sortedUsersByID(users map[int]models.User) []models.User {
	out := make([]models.User, 0, len(users))
	for _, user := range users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortEventsByStart(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].StartTime.Equal(events[j].StartTime) {
			return events[i].ID < events[j].ID
		}
		return events[i].StartTime.Before(events[j].StartTime)
	})
}
