package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/watch-party/internal/cache"
)

func newTestServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		require.Equal(t, "secret", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/movie/603":
			_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix","runtime":136,"poster_path":"/m.jpg","overview":"Neo","release_date":"1999-03-30"}`))
		case "/search/movie":
			require.Equal(t, "matrix", r.URL.Query().Get("query"))
			_, _ = w.Write([]byte(`{"results":[{"id":603,"title":"The Matrix","poster_path":"/m.jpg"},{"id":604,"title":"The Matrix Reloaded","runtime":138}]}`))
		case "/movie/500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestClient_GetMovie(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, zerolog.Nop())

	m, err := c.GetMovie(context.Background(), 603)
	require.NoError(t, err)
	require.Equal(t, int64(603), m.ID)
	require.Equal(t, "The Matrix", m.Title)
	require.Equal(t, 136, m.Runtime)
	require.Equal(t, "/m.jpg", m.PosterPath)
}

func TestClient_GetMovieErrors(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, zerolog.Nop())

	_, err := c.GetMovie(context.Background(), 1)
	require.ErrorIs(t, err, ErrMovieNotFound)

	_, err = c.GetMovie(context.Background(), 500)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, zerolog.Nop())

	for i := 0; i < 5; i++ {
		_, err := c.GetMovie(context.Background(), 500)
		require.ErrorIs(t, err, ErrUnavailable)
	}
	before := atomic.LoadInt32(&hits)
	_, err := c.GetMovie(context.Background(), 603)
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, before, atomic.LoadInt32(&hits), "open breaker must not reach the server")
}

func TestClient_SearchDefaultsRuntime(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, zerolog.Nop())

	movies, err := c.SearchMovies(context.Background(), "  matrix ")
	require.NoError(t, err)
	require.Len(t, movies, 2)
	require.Equal(t, 120, movies[0].Runtime)
	require.Equal(t, 138, movies[1].Runtime)
}

func TestCached_ServesRepeatLookupsFromCache(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret", Timeout: time.Second}, zerolog.Nop())
	cc := cache.New(cache.NewMemory(), "wp", cache.DefaultTTLs(), zerolog.Nop())
	cached := NewCached(c, cc)

	for i := 0; i < 3; i++ {
		m, err := cached.GetMovie(context.Background(), 603)
		require.NoError(t, err)
		require.Equal(t, "The Matrix", m.Title)
	}
	for i := 0; i < 2; i++ {
		_, err := cached.SearchMovies(context.Background(), "matrix")
		require.NoError(t, err)
	}
	require.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
