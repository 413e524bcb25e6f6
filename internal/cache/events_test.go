package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedcal/internal/models"
)

func newTestCache(t *testing.T) *EventCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewEventCache(rdb, time.Minute, zerolog.Nop())
}

func listing(titles ...string) []models.Event {
	events := make([]models.Event, 0, len(titles))
	for i, title := range titles {
		events = append(events, models.Event{ID: i + 1, Title: title})
	}
	return events
}

func TestEventCache_MissThenFill(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, version, ok := c.GetList(ctx, ListAllKey())
	require.False(t, ok)

	c.SetList(ctx, ListAllKey(), version, listing("Standup"))

	cached, _, ok := c.GetList(ctx, ListAllKey())
	require.True(t, ok)
	require.Len(t, cached, 1)
	assert.Equal(t, "Standup", cached[0].Title)
}

func TestEventCache_InvalidateDropsAllListings(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	rangeKey := ListRangeKey(time.Unix(0, 0), time.Unix(3600, 0))

	_, version, _ := c.GetList(ctx, ListAllKey())
	c.SetList(ctx, ListAllKey(), version, listing("Standup"))
	c.SetList(ctx, rangeKey, version, listing("Standup"))

	c.Invalidate(ctx)

	_, _, ok := c.GetList(ctx, ListAllKey())
	assert.False(t, ok)
	_, _, ok = c.GetList(ctx, rangeKey)
	assert.False(t, ok)
}

// A fill races an invalidation: the listing was read before the mutation
// but written after. Stamped with the version seen at read time, the entry
// lands in the retired generation and is never served.
func TestEventCache_FillOvertakenByInvalidationNotServed(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, version, ok := c.GetList(ctx, ListAllKey())
	require.False(t, ok)

	c.Invalidate(ctx)
	c.SetList(ctx, ListAllKey(), version, listing("Stale"))

	_, _, ok = c.GetList(ctx, ListAllKey())
	assert.False(t, ok, "pre-invalidation fill must not be served")
}

func TestEventCache_NilSafe(t *testing.T) {
	var c *EventCache
	ctx := context.Background()

	_, version, ok := c.GetList(ctx, ListAllKey())
	assert.False(t, ok)

	c.SetList(ctx, ListAllKey(), version, listing("Standup"))
	c.Invalidate(ctx)
}
