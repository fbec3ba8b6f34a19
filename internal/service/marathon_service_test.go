package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/watch-party/internal/model"
)

func TestMarathon_AddAndTotal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	empty, err := h.marathon.GetBucket(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, empty.Movies)

	_, err = h.marathon.AddMovie(ctx, "u1", 603)
	require.NoError(t, err)
	b, err := h.marathon.AddMovie(ctx, "u1", 604)
	require.NoError(t, err)
	require.Len(t, b.Movies, 2)
	require.Equal(t, int64(603), b.Movies[0].ID)

	cached, err := h.marathon.GetBucket(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cached.Movies, 2)

	sum, err := h.marathon.TotalRuntime(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, model.RuntimeSummary{TotalMinutes: 274, Formatted: "4h 34m", MovieCount: 2}, sum)
}

func TestMarathon_DuplicateIsConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.marathon.AddMovie(ctx, "u1", 603)
	require.NoError(t, err)
	_, err = h.marathon.AddMovie(ctx, "u1", 603)
	require.ErrorIs(t, err, ErrConflict)
	require.NotErrorIs(t, err, ErrBucketFull)
}

func TestMarathon_LimitIsConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 1; i <= model.MaxBucketMovies+1; i++ {
		h.movies.movies[int64(1000+i)] = model.Movie{ID: int64(1000 + i), Title: fmt.Sprintf("m%d", i), Runtime: 90}
	}
	for i := 1; i <= model.MaxBucketMovies; i++ {
		_, err := h.marathon.AddMovie(ctx, "u1", int64(1000+i))
		require.NoError(t, err)
	}
	_, err := h.marathon.AddMovie(ctx, "u1", int64(1000+model.MaxBucketMovies+1))
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ErrBucketFull)

	b, err := h.marathon.GetBucket(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, b.Movies, model.MaxBucketMovies)
}

func TestMarathon_AddErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.marathon.AddMovie(ctx, "u1", 0)
	require.ErrorIs(t, err, ErrValidation)
	_, err = h.marathon.AddMovie(ctx, "u1", 700)
	require.ErrorIs(t, err, ErrValidation)
	_, err = h.marathon.AddMovie(ctx, "u1", 999)
	require.ErrorIs(t, err, ErrUpstream)
}

func TestMarathon_Remove(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.marathon.RemoveMovie(ctx, "u1", 603)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = h.marathon.AddMovie(ctx, "u1", 603)
	require.NoError(t, err)
	_, err = h.marathon.AddMovie(ctx, "u1", 605)
	require.NoError(t, err)
	sum, err := h.marathon.TotalRuntime(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 181, sum.TotalMinutes)

	b, err := h.marathon.RemoveMovie(ctx, "u1", 603)
	require.NoError(t, err)
	require.Len(t, b.Movies, 1)

	b, err = h.marathon.RemoveMovie(ctx, "u1", 4242)
	require.NoError(t, err)
	require.Len(t, b.Movies, 1)

	sum, err = h.marathon.TotalRuntime(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, model.RuntimeSummary{TotalMinutes: 45, Formatted: "0h 45m", MovieCount: 1}, sum)
}

func TestFormatRuntime(t *testing.T) {
	cases := map[int]string{0: "0h 0m", 45: "0h 45m", 60: "1h 0m", 136: "2h 16m", 1500: "25h 0m"}
	for in, want := range cases {
		require.Equal(t, want, FormatRuntime(in))
	}
}
