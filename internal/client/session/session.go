// Package session owns the client's current identity. It is the single
// source of truth consumers read; they never mutate it except through
// Login and Logout.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type State int

const (
	// StateRestoring is the initial state while the persisted identity is
	// being read back. Dependent consumers must not act until the state
	// moves on.
	StateRestoring State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Identity is the public projection of the logged-in user. It never
// carries the password digest.
type Identity struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

const identityKey = "user"

// Context holds the session state machine: restoring -> {authenticated,
// anonymous}. Login and Logout persist through the Store before the state
// changes, so a failed write leaves the prior state intact.
type Context struct {
	mu       sync.Mutex
	store    Store
	state    State
	identity *Identity
	subs     map[int]func(State, *Identity)
	nextSub  int
}

func NewContext(store Store) *Context {
	return &Context{
		store: store,
		state: StateRestoring,
		subs:  make(map[int]func(State, *Identity)),
	}
}

// Restore reads the persisted identity. A missing entry means anonymous;
// a corrupt entry is purged and also means anonymous. A store read error
// is returned and the session stays in StateRestoring.
func (c *Context) Restore(ctx context.Context) error {
	raw, err := c.store.Get(ctx, identityKey)
	if err != nil {
		return err
	}
	if raw == nil {
		c.transition(StateAnonymous, nil)
		return nil
	}

	var identity Identity
	if err := json.Unmarshal(raw, &identity); err != nil || identity.ID <= 0 {
		_ = c.store.Delete(ctx, identityKey)
		c.transition(StateAnonymous, nil)
		return nil
	}

	c.transition(StateAuthenticated, &identity)
	return nil
}

func (c *Context) Login(ctx context.Context, identity Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, identityKey, raw); err != nil {
		return err
	}

	c.transition(StateAuthenticated, &identity)
	return nil
}

func (c *Context) Logout(ctx context.Context) error {
	if err := c.store.Delete(ctx, identityKey); err != nil {
		return err
	}

	c.transition(StateAnonymous, nil)
	return nil
}

func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns a copy of the current identity, nil unless
// authenticated.
func (c *Context) Identity() *Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil
	}
	identity := *c.identity
	return &identity
}

// Ready reports whether the restore has completed, in either direction.
func (c *Context) Ready() bool {
	return c.State() != StateRestoring
}

// Subscribe registers a listener invoked on every state transition. The
// returned func removes the listener.
func (c *Context) Subscribe(fn func(State, *Identity)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Context) transition(state State, identity *Identity) {
	// authenticated with no identity would violate the session invariant
	if state == StateAuthenticated && identity == nil {
		state = StateAnonymous
	}

	c.mu.Lock()
	c.state = state
	c.identity = identity
	listeners := make([]func(State, *Identity), 0, len(c.subs))
	for _, fn := range c.subs {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	// listeners run without the lock so they may call back into Context
	for _, fn := range listeners {
		fn(state, identity)
	}
}
