package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"schedcal/internal/models"
)

const eventVersionKey = "events:version"

// versionUnknown marks a lookup that could not establish a generation; a
// fill stamped with it would be unsafe to serve, so SetList drops it.
const versionUnknown int64 = -1

// EventCache keeps recent event listings in redis. Entries are keyed under
// a version counter; invalidation bumps the counter so every stale listing
// falls out of scope at once instead of being scanned for. A nil cache is
// a valid no-op cache.
type EventCache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

func NewEventCache(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *EventCache {
	return &EventCache{rdb: rdb, ttl: ttl, log: log}
}

// GetList looks up a cached listing. The returned version identifies the
// generation the lookup ran against; a miss-then-fill must hand the same
// version back to SetList so an invalidation landing in between keeps the
// fill out of the new generation.
func (c *EventCache) GetList(ctx context.Context, key string) ([]models.Event, int64, bool) {
	if c == nil || c.rdb == nil {
		return nil, versionUnknown, false
	}

	version, err := c.version(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("event cache version read failed")
		return nil, versionUnknown, false
	}

	payload, err := c.rdb.Get(ctx, versionedKey(version, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("key", key).Msg("event cache read failed")
		}
		return nil, version, false
	}

	var events []models.Event
	if err := json.Unmarshal(payload, &events); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("event cache entry corrupt")
		return nil, version, false
	}
	return events, version, true
}

// SetList stores a listing under the generation observed by the matching
// GetList. A bumped counter leaves the entry addressing a retired
// generation, where no reader will find it.
func (c *EventCache) SetList(ctx context.Context, key string, version int64, events []models.Event) {
	if c == nil || c.rdb == nil || version == versionUnknown {
		return
	}

	payload, err := json.Marshal(events)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, versionedKey(version, key), payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("event cache write failed")
	}
}

// Invalidate drops every cached listing. Called after any event or user
// mutation; a user delete cascades into events, so it counts too.
func (c *EventCache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Incr(ctx, eventVersionKey).Err(); err != nil {
		c.log.Warn().Err(err).Msg("event cache invalidation failed")
	}
}

func (c *EventCache) version(ctx context.Context) (int64, error) {
	version, err := c.rdb.Get(ctx, eventVersionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return version, err
}

func versionedKey(version int64, key string) string {
	return fmt.Sprintf("events:%d:%s", version, key)
}

func ListAllKey() string {
	return "all"
}

func ListRangeKey(start, end time.Time) string {
	return fmt.Sprintf("range:%d:%d", start.UnixNano(), end.UnixNano())
}
