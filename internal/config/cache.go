package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/watch-party/internal/cache"
)

// Supported values of CACHE_BACKEND.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// CacheConfig defines settings for the read-through cache layer.  Backend
// selects the store; "redis" falls back to memory when Redis is
// unreachable at startup.  Every TTL can be overridden individually and a
// zero TTL disables caching of that kind.
type CacheConfig struct {
	Backend       string
	Prefix        string
	TTL           cache.TTLs
	SweepInterval time.Duration // how often the memory backend drops expired entries
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	def := cache.DefaultTTLs()
	return CacheConfig{
		Backend: strings.ToLower(getenv("CACHE_BACKEND", CacheMemory)),
		Prefix:  getenv("CACHE_PREFIX", "wp"),
		TTL: cache.TTLs{
			Session:        envDur("CACHE_TTL_SESSION", def.Session),
			UserSessions:   envDur("CACHE_TTL_USER_SESSIONS", def.UserSessions),
			PublicSessions: envDur("CACHE_TTL_PUBLIC_SESSIONS", def.PublicSessions),
			Movie:          envDur("CACHE_TTL_MOVIE", def.Movie),
			Search:         envDur("CACHE_TTL_SEARCH", def.Search),
			Bucket:         envDur("CACHE_TTL_BUCKET", def.Bucket),
		},
		SweepInterval: envDur("CACHE_SWEEP_INTERVAL", time.Minute),
	}
}

// Helper functions reused from config.go, redis.go and ratelimit.go.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
