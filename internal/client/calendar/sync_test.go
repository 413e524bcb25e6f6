package calendar

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedcal/internal/client/api"
	"schedcal/internal/client/session"
)

type fakeAPI struct {
	mu         sync.Mutex
	events     []api.Event
	owner      api.User
	listErr    error
	createErr  error
	deleteErr  error
	nextID     int
	listCalls  int
	ownedCalls int

	// when set, the next ListEvents blocks on gate after snapshotting
	// its result; started is signalled first
	gate    chan struct{}
	started chan struct{}
	release func()
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 100}
}

func (f *fakeAPI) setEvents(events []api.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = events
}

func (f *fakeAPI) blockNextList() {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gate = gate
	f.started = make(chan struct{}, 1)
	f.release = func() { close(gate) }
}

func (f *fakeAPI) ListEvents(context.Context) ([]api.Event, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.gate
	started := f.started
	f.gate = nil
	events := append([]api.Event(nil), f.events...)
	err := f.listErr
	f.mu.Unlock()

	if gate != nil {
		started <- struct{}{}
		<-gate
	}
	return events, err
}

func (f *fakeAPI) ListUserEvents(_ context.Context, userID int) (api.User, []api.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ownedCalls++

	owned := make([]api.Event, 0)
	for _, event := range f.events {
		if event.UserID != nil && *event.UserID == userID {
			owned = append(owned, event)
		}
	}
	return f.owner, owned, nil
}

func (f *fakeAPI) CreateEvent(_ context.Context, req api.CreateEventRequest) (api.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return api.Event{}, f.createErr
	}

	f.nextID++
	event := api.Event{
		ID:          f.nextID,
		Title:       req.Title,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
		Resource:    req.Resource,
		UserID:      req.UserID,
	}
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeAPI) DeleteEvent(_ context.Context, id int) (api.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return api.Event{}, f.deleteErr
	}

	for i, event := range f.events {
		if event.ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return event, nil
		}
	}
	return api.Event{}, &api.Error{StatusCode: 404, Message: "Event not found"}
}

func anonymousSession(t *testing.T) *session.Context {
	t.Helper()
	sess := session.NewContext(session.NewMemoryStore())
	require.NoError(t, sess.Restore(context.Background()))
	return sess
}

func aliceSession(t *testing.T) *session.Context {
	t.Helper()
	sess := anonymousSession(t)
	require.NoError(t, sess.Login(context.Background(), session.Identity{
		ID:       1,
		Username: "alice",
		Email:    "alice@x.com",
	}))
	return sess
}

func intp(v int) *int { return &v }

func strp(v string) *string { return &v }

func sampleEvents() []api.Event {
	return []api.Event{
		{ID: 1, Title: "Owned", StartTime: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), Resource: "point-in-time", UserID: intp(1), Username: strp("alice")},
		{ID: 2, Title: "Other", StartTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), Resource: "meeting", UserID: intp(2), Username: strp("bob")},
		{ID: 3, Title: "Anonymous", StartTime: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func TestReload_GatedWhileRestoring(t *testing.T) {
	fake := newFakeAPI()
	sess := session.NewContext(session.NewMemoryStore())
	s := NewSync(fake, sess)

	err := s.Reload(context.Background())
	assert.ErrorIs(t, err, ErrSessionRestoring)
	assert.Zero(t, fake.listCalls)

	_, err = s.CreateAt(context.Background(), time.Now(), "Standup", "")
	assert.ErrorIs(t, err, ErrSessionRestoring)
}

func TestReload_AllEvents(t *testing.T) {
	fake := newFakeAPI()
	fake.setEvents(sampleEvents())
	s := NewSync(fake, anonymousSession(t))

	require.NoError(t, s.Reload(context.Background()))

	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "Owned", items[0].Title)
	assert.Equal(t, "alice", items[0].OwnerUsername)
	assert.Equal(t, 1, *items[0].OwnerID)
	assert.Equal(t, "point-in-time", items[0].ResourceTag)
	assert.Empty(t, items[2].OwnerUsername)
	assert.Nil(t, items[2].OwnerID)
	// a missing resource tag falls back to the point-in-time default
	assert.Equal(t, "point-in-time", items[2].ResourceTag)
}

func TestReload_OwnedOnlyScope(t *testing.T) {
	fake := newFakeAPI()
	fake.setEvents(sampleEvents())
	s := NewSync(fake, aliceSession(t))

	// 3 events total, 1 owned by alice
	require.NoError(t, s.SetShowOwnedOnly(context.Background(), true))
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Owned", items[0].Title)
	assert.Equal(t, 1, fake.ownedCalls)

	// toggling back refetches everything
	require.NoError(t, s.SetShowOwnedOnly(context.Background(), false))
	assert.Len(t, s.Items(), 3)
}

func TestReload_OwnedOnlyWithoutIdentityFetchesAll(t *testing.T) {
	fake := newFakeAPI()
	fake.setEvents(sampleEvents())
	s := NewSync(fake, anonymousSession(t))

	require.NoError(t, s.SetShowOwnedOnly(context.Background(), true))
	assert.Len(t, s.Items(), 3)
	assert.Zero(t, fake.ownedCalls)
}

func TestReload_FailureLeavesListUntouched(t *testing.T) {
	fake := newFakeAPI()
	fake.setEvents(sampleEvents())
	s := NewSync(fake, anonymousSession(t))
	require.NoError(t, s.Reload(context.Background()))

	fake.mu.Lock()
	fake.listErr = errors.New("connection refused")
	fake.mu.Unlock()

	err := s.Reload(context.Background())
	require.Error(t, err)
	assert.Len(t, s.Items(), 3)
}

func TestReload_StaleResponseDiscarded(t *testing.T) {
	fake := newFakeAPI()
	stale := sampleEvents()
	fake.setEvents(stale)
	s := NewSync(fake, anonymousSession(t))

	fake.blockNextList()

	done := make(chan error, 1)
	go func() {
		done <- s.Reload(context.Background())
	}()
	<-fake.started // first reload has snapshotted the stale list

	fresh := []api.Event{{ID: 9, Title: "Fresh", StartTime: time.Now(), EndTime: time.Now()}}
	fake.setEvents(fresh)
	require.NoError(t, s.Reload(context.Background()))

	fake.release()
	require.NoError(t, <-done)

	// the later reload wins even though the first finished last
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Fresh", items[0].Title)
}

func TestCreateAt_OptimisticAppend(t *testing.T) {
	fake := newFakeAPI()
	s := NewSync(fake, aliceSession(t))
	require.NoError(t, s.Reload(context.Background()))
	listCallsBefore := fake.listCalls

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	item, err := s.CreateAt(context.Background(), start, "Standup", "daily sync")
	require.NoError(t, err)

	assert.Equal(t, "Standup", item.Title)
	assert.Equal(t, start, item.Start)
	assert.Equal(t, start, item.End, "point-in-time default: end equals start")
	assert.Equal(t, "point-in-time", item.ResourceTag)
	require.NotNil(t, item.OwnerID)
	assert.Equal(t, 1, *item.OwnerID)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, listCallsBefore, fake.listCalls, "append must not refetch")
}

func TestCreateAt_AnonymousOwner(t *testing.T) {
	fake := newFakeAPI()
	s := NewSync(fake, anonymousSession(t))

	item, err := s.CreateAt(context.Background(), time.Now(), "Standup", "")
	require.NoError(t, err)
	assert.Nil(t, item.OwnerID)
}

func TestCreateAt_FailureLeavesListUntouched(t *testing.T) {
	fake := newFakeAPI()
	fake.setEvents(sampleEvents())
	s := NewSync(fake, anonymousSession(t))
	require.NoError(t, s.Reload(context.Background()))

	fake.mu.Lock()
	fake.createErr = &api.Error{StatusCode: 400, Message: "Invalid user_id"}
	fake.mu.Unlock()

	_, err := s.CreateAt(context.Background(), time.Now(), "Standup", "")
	require.Error(t, err)
	assert.Len(t, s.Items(), 3)
}

func TestRemove(t *testing.T) {
	fake := newFakeAPI()
	fake.setEvents(sampleEvents())
	s := NewSync(fake, anonymousSession(t))
	require.NoError(t, s.Reload(context.Background()))

	require.NoError(t, s.Remove(context.Background(), 2))
	items := s.Items()
	require.Len(t, items, 2)
	for _, item := range items {
		assert.NotEqual(t, 2, item.ID)
	}
}

func TestRemove_FailureLeavesListUntouched(t *testing.T) {
	fake := newFakeAPI()
	fake.setEvents(sampleEvents())
	s := NewSync(fake, anonymousSession(t))
	require.NoError(t, s.Reload(context.Background()))

	err := s.Remove(context.Background(), 999)
	require.Error(t, err)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Len(t, s.Items(), 3)
}
