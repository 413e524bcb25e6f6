// Package calendar keeps an in-memory list of calendar items consistent
// with the server, scoped either to every event or to the current
// identity's own events.
package calendar

import (
	"context"
	"errors"
	"sync"
	"time"

	"schedcal/internal/client/api"
	"schedcal/internal/client/session"
)

// ErrSessionRestoring is returned when a fetch is attempted before the
// session restore has completed.
var ErrSessionRestoring = errors.New("session is still restoring")

// Item is an event shaped for calendar rendering.
type Item struct {
	ID            int
	Title         string
	Start         time.Time
	End           time.Time
	ResourceTag   string
	Description   string
	OwnerUsername string
	OwnerID       *int
}

// API is the slice of the server client the sync needs.
type API interface {
	ListEvents(ctx context.Context) ([]api.Event, error)
	ListUserEvents(ctx context.Context, userID int) (api.User, []api.Event, error)
	CreateEvent(ctx context.Context, req api.CreateEventRequest) (api.Event, error)
	DeleteEvent(ctx context.Context, id int) (api.Event, error)
}

type Sync struct {
	mu            sync.Mutex
	api           API
	session       *session.Context
	items         []Item
	showOwnedOnly bool
	// seq tags each Reload; a response is installed only if no newer
	// reload was issued while it was in flight.
	seq uint64
}

func NewSync(client API, sess *session.Context) *Sync {
	return &Sync{api: client, session: sess}
}

// Reload replaces the whole item list from the server. The scope follows
// showOwnedOnly and the current identity: owned-only with an identity
// fetches that user's events, anything else fetches all events. On any
// failure the current list is left untouched.
func (s *Sync) Reload(ctx context.Context) error {
	if !s.session.Ready() {
		return ErrSessionRestoring
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	ownedOnly := s.showOwnedOnly
	s.mu.Unlock()

	identity := s.session.Identity()

	var events []api.Event
	var err error
	if ownedOnly && identity != nil {
		_, events, err = s.api.ListUserEvents(ctx, identity.ID)
	} else {
		events, err = s.api.ListEvents(ctx)
	}
	if err != nil {
		return err
	}

	items := make([]Item, 0, len(events))
	for _, event := range events {
		items = append(items, itemFromEvent(event))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		// a newer reload is in flight or already landed
		return nil
	}
	s.items = items
	return nil
}

// CreateAt creates a point-in-time event (end == start) owned by the
// current identity, or anonymous when there is none, and appends it to the
// local list without a refetch.
func (s *Sync) CreateAt(ctx context.Context, start time.Time, title, description string) (Item, error) {
	if !s.session.Ready() {
		return Item{}, ErrSessionRestoring
	}

	var ownerID *int
	if identity := s.session.Identity(); identity != nil {
		ownerID = &identity.ID
	}

	event, err := s.api.CreateEvent(ctx, api.CreateEventRequest{
		Title:       title,
		StartTime:   start,
		EndTime:     start,
		Description: description,
		Resource:    "point-in-time",
		UserID:      ownerID,
	})
	if err != nil {
		return Item{}, err
	}

	item := itemFromEvent(event)
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	return item, nil
}

// Remove deletes the event on the server, then drops it from the local
// list. A failed delete leaves the list unchanged.
func (s *Sync) Remove(ctx context.Context, id int) error {
	if _, err := s.api.DeleteEvent(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return nil
}

// SetShowOwnedOnly switches the scope and refreshes the list.
func (s *Sync) SetShowOwnedOnly(ctx context.Context, ownedOnly bool) error {
	s.mu.Lock()
	s.showOwnedOnly = ownedOnly
	s.mu.Unlock()

	return s.Reload(ctx)
}

func (s *Sync) ShowOwnedOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showOwnedOnly
}

// Items returns a copy of the current list.
func (s *Sync) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Item, len(s.items))
	copy(items, s.items)
	return items
}

func itemFromEvent(event api.Event) Item {
	item := Item{
		ID:          event.ID,
		Title:       event.Title,
		Start:       event.StartTime,
		End:         event.EndTime,
		ResourceTag: event.Resource,
		Description: event.Description,
		OwnerID:     event.UserID,
	}
	if item.ResourceTag == "" {
		item.ResourceTag = "point-in-time"
	}
	if event.Username != nil {
		item.OwnerUsername = *event.Username
	}
	return item
}
