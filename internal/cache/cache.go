package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// TTLs configures the lifetime of each kind of cached value.  Single
// records live longer than aggregate listings because they change less
// often.
type TTLs struct {
	Session        time.Duration
	UserSessions   time.Duration
	PublicSessions time.Duration
	Movie          time.Duration
	Search         time.Duration
	Bucket         time.Duration
}

// DefaultTTLs returns the TTLs used when configuration leaves them unset.
func DefaultTTLs() TTLs {
	return TTLs{
		Session:        10 * time.Minute,
		UserSessions:   2 * time.Minute,
		PublicSessions: 2 * time.Minute,
		Movie:          24 * time.Hour,
		Search:         24 * time.Hour,
		Bucket:         10 * time.Minute,
	}
}

// Cache namespaces keys in a Store and applies the read-through and
// invalidation rules.  A nil *Cache is valid and caches nothing.
type Cache struct {
	store  Store
	prefix string
	ttl    TTLs
	log    zerolog.Logger
}

// New builds a Cache.  prefix is prepended to every key as "prefix:key".
func New(store Store, prefix string, ttl TTLs, log zerolog.Logger) *Cache {
	return &Cache{
		store:  store,
		prefix: prefix,
		ttl:    ttl,
		log:    log.With().Str("component", "cache").Logger(),
	}
}

// TTL returns the configured lifetimes.  A nil cache reports zero TTLs.
func (c *Cache) TTL() TTLs {
	if c == nil {
		return TTLs{}
	}
	return c.ttl
}

func (c *Cache) fullKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// ReadThrough returns the cached value for key or, on a miss, calls load,
// stores its result for ttl and returns it.  Store failures and undecodable
// entries are logged and handled as misses; only load can fail the call.
// Errors from load are never cached.
func ReadThrough[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.store == nil {
		return load(ctx)
	}
	full := c.fullKey(key)
	bs, ok, err := c.store.Get(ctx, full)
	if err != nil {
		c.log.Warn().Err(err).Str("key", full).Msg("cache get failed, reading source")
	} else if ok {
		var v T
		if err := json.Unmarshal(bs, &v); err == nil {
			c.log.Debug().Str("key", full).Msg("cache hit")
			return v, nil
		}
		c.log.Warn().Str("key", full).Msg("cache entry undecodable, reading source")
	}

	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if payload, err := json.Marshal(v); err != nil {
		c.log.Warn().Err(err).Str("key", full).Msg("cache encode failed")
	} else if err := c.store.Set(ctx, full, payload, ttl); err != nil {
		c.log.Warn().Err(err).Str("key", full).Msg("cache set failed")
	}
	return v, nil
}

// Invalidate deletes keys.  Failures are logged; the stale entries then
// expire with their TTL.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.store == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.store.Delete(ctx, full...); err != nil {
		c.log.Warn().Err(err).Strs("keys", full).Msg("cache invalidation failed")
		return
	}
	c.log.Debug().Strs("keys", full).Msg("cache invalidated")
}

// InvalidateFor deletes every key the invalidation table lists for m.
func (c *Cache) InvalidateFor(ctx context.Context, m Mutation, s Subject) {
	c.Invalidate(ctx, KeysFor(m, s)...)
}
