package tmdb

import (
	"context"

	"github.com/iliyamo/watch-party/internal/cache"
	"github.com/iliyamo/watch-party/internal/model"
)

// Source is the raw lookup capability wrapped by Cached.
type Source interface {
	GetMovie(ctx context.Context, id int64) (model.Movie, error)
	SearchMovies(ctx context.Context, query string) ([]model.Movie, error)
}

// Cached serves movie details and searches from the cache.  Movie
// metadata is never invalidated; entries only expire.
type Cached struct {
	src   Source
	cache *cache.Cache
}

// NewCached wraps src.  A nil cache disables caching.
func NewCached(src Source, c *cache.Cache) *Cached {
	return &Cached{src: src, cache: c}
}

func (c *Cached) GetMovie(ctx context.Context, id int64) (model.Movie, error) {
	return cache.ReadThrough(ctx, c.cache, cache.MovieKey(id), c.cache.TTL().Movie,
		func(ctx context.Context) (model.Movie, error) { return c.src.GetMovie(ctx, id) })
}

func (c *Cached) SearchMovies(ctx context.Context, query string) ([]model.Movie, error) {
	return cache.ReadThrough(ctx, c.cache, cache.SearchKey(query), c.cache.TTL().Search,
		func(ctx context.Context) ([]model.Movie, error) { return c.src.SearchMovies(ctx, query) })
}
