package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/watch-party/internal/cache"
	"github.com/iliyamo/watch-party/internal/model"
	"github.com/iliyamo/watch-party/internal/repository"
)

// ErrBucketFull is the Conflict returned when the bucket already holds
// model.MaxBucketMovies movies.
var ErrBucketFull = fmt.Errorf("%w: bucket limit reached", ErrConflict)

// MarathonService manages each user's marathon bucket: an ordered list of
// up to model.MaxBucketMovies movies planned to be watched back to back.
type MarathonService struct {
	buckets repository.BucketRepository
	movies  MovieLookup
	cache   *cache.Cache
	log     zerolog.Logger
	opts    options
}

func NewMarathonService(buckets repository.BucketRepository, movies MovieLookup, c *cache.Cache, log zerolog.Logger, opts ...Option) *MarathonService {
	return &MarathonService{
		buckets: buckets,
		movies:  movies,
		cache:   c,
		log:     log.With().Str("component", "marathon").Logger(),
		opts:    buildOptions(opts),
	}
}

// AddMovie looks movieID up and appends it to the user's bucket.
func (s *MarathonService) AddMovie(ctx context.Context, userID string, movieID int64) (*model.Bucket, error) {
	if movieID <= 0 {
		return nil, fmt.Errorf("%w: movieId must be positive", ErrValidation)
	}
	m, err := s.movies.GetMovie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("%w: movie %d: %v", ErrUpstream, movieID, err)
	}
	if m.Runtime <= 0 {
		return nil, fmt.Errorf("%w: movie %d has no runtime", ErrValidation, movieID)
	}

	entry := model.BucketEntry{MovieSummary: m.Summary(), AddedAt: s.opts.now().UTC()}
	err = s.buckets.AddMovie(ctx, userID, entry, model.MaxBucketMovies)
	switch {
	case errors.Is(err, repository.ErrLimitReached):
		return nil, fmt.Errorf("%w (%d movies)", ErrBucketFull, model.MaxBucketMovies)
	case errors.Is(err, repository.ErrConflict):
		return nil, fmt.Errorf("%w: movie %d already in bucket", ErrConflict, movieID)
	case err != nil:
		return nil, fmt.Errorf("add movie to bucket: %w", err)
	}
	s.cache.InvalidateFor(ctx, cache.BucketChanged, cache.Subject{UserID: userID})
	s.log.Info().Str("user_id", userID).Int64("movie_id", movieID).Msg("movie added to bucket")
	return s.loadBucket(ctx, userID)
}

// RemoveMovie drops movieID from the bucket.  Removing a movie that is not
// queued is a no-op; a user without a bucket gets ErrNotFound.
func (s *MarathonService) RemoveMovie(ctx context.Context, userID string, movieID int64) (*model.Bucket, error) {
	if err := s.buckets.RemoveMovie(ctx, userID, movieID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: bucket for %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("remove movie from bucket: %w", err)
	}
	s.cache.InvalidateFor(ctx, cache.BucketChanged, cache.Subject{UserID: userID})
	return s.loadBucket(ctx, userID)
}

// GetBucket returns the user's bucket; a user who never added a movie gets
// an empty one.
func (s *MarathonService) GetBucket(ctx context.Context, userID string) (*model.Bucket, error) {
	return cache.ReadThrough(ctx, s.cache, cache.BucketKey(userID), s.cache.TTL().Bucket, s.bucketLoader(userID))
}

// TotalRuntime sums the runtime of every queued movie.
func (s *MarathonService) TotalRuntime(ctx context.Context, userID string) (model.RuntimeSummary, error) {
	return cache.ReadThrough(ctx, s.cache, cache.BucketRuntimeKey(userID), s.cache.TTL().Bucket,
		func(ctx context.Context) (model.RuntimeSummary, error) {
			b, err := s.loadBucket(ctx, userID)
			if err != nil {
				return model.RuntimeSummary{}, err
			}
			return summarize(b), nil
		})
}

// SearchMovies proxies a free-text search to the movie provider.
func (s *MarathonService) SearchMovies(ctx context.Context, query string) ([]model.Movie, error) {
	return searchMovies(ctx, s.movies, query)
}

func (s *MarathonService) loadBucket(ctx context.Context, userID string) (*model.Bucket, error) {
	return s.bucketLoader(userID)(ctx)
}

func (s *MarathonService) bucketLoader(userID string) func(context.Context) (*model.Bucket, error) {
	return func(ctx context.Context) (*model.Bucket, error) {
		b, err := s.buckets.Get(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return &model.Bucket{UserID: userID, Movies: []model.BucketEntry{}}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load bucket for %s: %w", userID, err)
		}
		if b.Movies == nil {
			b.Movies = []model.BucketEntry{}
		}
		return b, nil
	}
}

func summarize(b *model.Bucket) model.RuntimeSummary {
	total := 0
	for _, m := range b.Movies {
		total += m.Runtime
	}
	return model.RuntimeSummary{
		TotalMinutes: total,
		Formatted:    FormatRuntime(total),
		MovieCount:   len(b.Movies),
	}
}

// FormatRuntime renders minutes as "Xh Ym".
func FormatRuntime(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
