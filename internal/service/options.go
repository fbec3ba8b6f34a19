package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/watch-party/internal/model"
)

// MovieLookup resolves movie metadata.  The tmdb package provides the
// production implementation.
type MovieLookup interface {
	GetMovie(ctx context.Context, id int64) (model.Movie, error)
	SearchMovies(ctx context.Context, query string) ([]model.Movie, error)
}

// Option customizes the clock and id source of a service.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the UUID generator used for new records.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, newID: func() string { return uuid.NewString() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// searchMovies trims query and delegates to lookup.
func searchMovies(ctx context.Context, lookup MovieLookup, query string) ([]model.Movie, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrValidation)
	}
	movies, err := lookup.SearchMovies(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search movies: %v", ErrUpstream, err)
	}
	if movies == nil {
		movies = []model.Movie{}
	}
	return movies, nil
}
