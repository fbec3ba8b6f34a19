// Package tmdb adapts The Movie Database HTTP API to the movie lookup
// capability used by the watch party and marathon services.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/iliyamo/watch-party/internal/model"
)

// DefaultBaseURL is the public TMDB v3 endpoint.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// defaultSearchRuntime is reported for search hits because the search
// endpoint does not return runtimes.
const defaultSearchRuntime = 120

var (
	// ErrMovieNotFound is returned when TMDB has no movie with the id.
	ErrMovieNotFound = errors.New("tmdb: movie not found")
	// ErrUnavailable wraps transport failures, non-2xx responses and an
	// open circuit.
	ErrUnavailable = errors.New("tmdb: unavailable")
)

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls TMDB through a circuit breaker so a failing upstream is not
// hammered by every request.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
	log     zerolog.Logger
}

// NewClient builds a Client.  The breaker opens after five consecutive
// failures and probes again after thirty seconds.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	log = log.With().Str("component", "tmdb").Logger()
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tmdb-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMovieNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		cb:      cb,
		log:     log,
	}
}

type movieResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Runtime     int    `json:"runtime"`
	PosterPath  string `json:"poster_path"`
	Overview    string `json:"overview"`
	ReleaseDate string `json:"release_date"`
}

func (m movieResponse) toModel() model.Movie {
	return model.Movie{
		ID:          m.ID,
		Title:       m.Title,
		Runtime:     m.Runtime,
		PosterPath:  m.PosterPath,
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
	}
}

type searchResponse struct {
	Results []movieResponse `json:"results"`
}

// GetMovie fetches the details of one movie.
func (c *Client) GetMovie(ctx context.Context, id int64) (model.Movie, error) {
	body, err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return model.Movie{}, err
	}
	var resp movieResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Movie{}, fmt.Errorf("%w: decode movie %d: %v", ErrUnavailable, id, err)
	}
	return resp.toModel(), nil
}

// SearchMovies returns the first page of matches for query.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]model.Movie, error) {
	params := url.Values{}
	params.Set("query", strings.TrimSpace(query))
	params.Set("page", "1")
	params.Set("include_adult", "false")
	body, err := c.get(ctx, "/search/movie", params)
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode search: %v", ErrUnavailable, err)
	}
	out := make([]model.Movie, 0, len(resp.Results))
	for _, r := range resp.Results {
		m := r.toModel()
		if m.Runtime == 0 {
			m.Runtime = defaultSearchRuntime
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	target := c.baseURL + path + "?" + params.Encode()

	body, err := c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrMovieNotFound
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		c.log.Debug().Err(err).Str("path", path).Msg("tmdb request failed")
		return nil, err
	}
	return body, nil
}
