package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/watch-party/internal/service"
)

// MarathonHandler serves /api/tools/marathon.  Every route requires a
// user.
type MarathonHandler struct {
	Marathon *service.MarathonService
	log      zerolog.Logger
}

func NewMarathonHandler(marathon *service.MarathonService, log zerolog.Logger) *MarathonHandler {
	if marathon == nil {
		panic("nil service passed to NewMarathonHandler")
	}
	return &MarathonHandler{Marathon: marathon, log: log.With().Str("component", "http.marathon").Logger()}
}

type addBucketMovieRequest struct {
	MovieID int64 `json:"movieId" validate:"required,gt=0"`
}

// Search handles GET /search?query=.
func (h *MarathonHandler) Search(c echo.Context) error {
	var req searchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errMsg{"error": "Invalid search query"})
	}
	movies, err := h.Marathon.SearchMovies(c.Request().Context(), req.Query)
	return respondSearch(c, h.log, movies, err)
}

// GetBucket handles GET /bucket.
func (h *MarathonHandler) GetBucket(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	b, err := h.Marathon.GetBucket(c.Request().Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("get bucket failed")
		return c.JSON(http.StatusInternalServerError, errMsg{"error": "Failed to fetch bucket"})
	}
	return c.JSON(http.StatusOK, b)
}

// AddMovie handles POST /bucket.
func (h *MarathonHandler) AddMovie(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req addBucketMovieRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errMsg{"error": "movieId is required"})
	}
	b, err := h.Marathon.AddMovie(c.Request().Context(), uid, req.MovieID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConflict):
			return c.JSON(http.StatusBadRequest, errMsg{"error": conflictMessage(err)})
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, errMsg{"error": "Movie runtime not available"})
		case errors.Is(err, service.ErrUpstream):
			h.log.Error().Err(err).Int64("movie_id", req.MovieID).Msg("movie lookup failed")
			return c.JSON(http.StatusBadGateway, errMsg{"error": "Failed to fetch movie details"})
		}
		h.log.Error().Err(err).Str("user_id", uid).Msg("add bucket movie failed")
		return c.JSON(http.StatusInternalServerError, errMsg{"error": "Failed to add movie"})
	}
	return c.JSON(http.StatusOK, b)
}

// conflictMessage tells the two bucket conflicts apart for the client.
func conflictMessage(err error) string {
	if errors.Is(err, service.ErrBucketFull) {
		return "Bucket is full"
	}
	return "Movie already in bucket"
}

// RemoveMovie handles DELETE /bucket/:movieId.
func (h *MarathonHandler) RemoveMovie(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	movieID, err := strconv.ParseInt(c.Param("movieId"), 10, 64)
	if err != nil || movieID <= 0 {
		return c.JSON(http.StatusBadRequest, errMsg{"error": "invalid movieId"})
	}
	b, err := h.Marathon.RemoveMovie(c.Request().Context(), uid, movieID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errMsg{"error": "Bucket not found"})
		}
		h.log.Error().Err(err).Str("user_id", uid).Msg("remove bucket movie failed")
		return c.JSON(http.StatusInternalServerError, errMsg{"error": "Failed to remove movie"})
	}
	return c.JSON(http.StatusOK, b)
}

// TotalRuntime handles GET /bucket/runtime.
func (h *MarathonHandler) TotalRuntime(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	sum, err := h.Marathon.TotalRuntime(c.Request().Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("bucket runtime failed")
		return c.JSON(http.StatusInternalServerError, errMsg{"error": "Failed to compute runtime"})
	}
	return c.JSON(http.StatusOK, sum)
}
