package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/watch-party/internal/service"
)

// WatchPartyHandler serves /api/tools/watchparty.
type WatchPartyHandler struct {
	Sessions      *service.WatchPartyService
	Messages      *service.MessageService
	Notifications *service.NotificationService
	Keys          *service.KeyDirectory
	log           zerolog.Logger
}

// NewWatchPartyHandler panics if any dependency is nil.
func NewWatchPartyHandler(sessions *service.WatchPartyService, messages *service.MessageService, notifications *service.NotificationService, keys *service.KeyDirectory, log zerolog.Logger) *WatchPartyHandler {
	if sessions == nil || messages == nil || notifications == nil || keys == nil {
		panic("nil service passed to NewWatchPartyHandler")
	}
	return &WatchPartyHandler{
		Sessions:      sessions,
		Messages:      messages,
		Notifications: notifications,
		Keys:          keys,
		log:           log.With().Str("component", "http.watchparty").Logger(),
	}
}

type createSessionRequest struct {
	Title          string     `json:"title" validate:"required,max=200"`
	Description    string     `json:"description" validate:"max=2000"`
	DateTime       *time.Time `json:"dateTime" validate:"required"`
	MovieIDs       []int64    `json:"movieIds" validate:"required,min=1,dive,gt=0"`
	IsPublic       bool       `json:"isPublic"`
	InvitedUserIDs []string   `json:"invitedUserIds"`
}

type searchRequest struct {
	Query string `query:"query" validate:"required,min=1,max=200"`
}

type envelopeRequest struct {
	EncryptedMessage      string `json:"encryptedMessage"`
	EncryptedSymmetricKey string `json:"encryptedSymmetricKey"`
	Nonce                 string `json:"nonce"`
	RecipientPublicKey    string `json:"recipientPublicKey"`
}

// Envelope contents are opaque; only the presence of the array is checked.
type sendMessageRequest struct {
	Messages []envelopeRequest `json:"messages" validate:"required,min=1"`
}

type publicKeyRequest struct {
	PublicKey string `json:"publicKey" validate:"required"`
}

// CreateSession handles POST /create.
func (h *WatchPartyHandler) CreateSession(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req createSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errMsg{"error": "Missing required fields"})
	}
	wp, err := h.Sessions.CreateSession(c.Request().Context(), uid, service.CreateSessionCommand{
		Title:          req.Title,
		Description:    req.Description,
		DateTime:       *req.DateTime,
		MovieIDs:       req.MovieIDs,
		IsPublic:       req.IsPublic,
		InvitedUserIDs: req.InvitedUserIDs,
	})
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("create watch party failed")
		return c.JSON(http.StatusBadRequest, errMsg{"error": "Failed to create watch party"})
	}
	return c.JSON(http.StatusOK, wp)
}

// JoinSession handles POST /join/:id.  Every domain failure is a 400.
func (h *WatchPartyHandler) JoinSession(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, errMsg{"error": "Watch party ID is required"})
	}
	wp, err := h.Sessions.JoinSession(c.Request().Context(), uid, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrForbidden),
			errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrValidation):
			h.log.Warn().Err(err).Str("watch_party_id", id).Msg("join rejected")
			return c.JSON(http.StatusBadRequest, errMsg{"error": "Failed to join watch party"})
		}
		h.log.Error().Err(err).Str("watch_party_id", id).Msg("join failed")
		return c.JSON(http.StatusInternalServerError, errMsg{"error": "Failed to join watch party"})
	}
	return c.JSON(http.StatusOK, wp)
}

// GetSession handles GET /:id.
func (h *WatchPartyHandler) GetSession(c echo.Context) error {
	id := c.Param("id")
	wp, err := h.Sessions.GetSession(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errMsg{"error": "Watch party not found"})
		}
		h.log.Error().Err(err).Str("watch_party_id", id).Msg("get watch party failed")
		return c.JSON(http.StatusInternalServerError, errMsg{"error": "Failed to fetch watch party"})
	}
	return c.JSON(http.StatusOK, wp)
}

// GetUserSessions handles GET /user.
func (h *WatchPartyHandler) GetUserSessions(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.Sessions.GetSessionsForUser(c.Request().Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("list user watch parties failed")
		return c.JSON(http.StatusInternalServerError, errMsg{"error": "Failed to fetch watch parties"})
	}
	return c.JSON(http.StatusOK, list)
}

// GetPublicSessions handles GET /public.  No authentication.
func (h *WatchPartyHandler) GetPublicSessions(c echo.Context) error {
	list, err := h.Sessions.GetPublicSessions(c.Request().Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list public watch parties failed")
		return c.JSON(http.StatusInternalServerError, errMsg{"error": "Failed to fetch public watch parties"})
	}
	return c.JSON(http.StatusOK, list)
}

// SearchMovies handles GET /search?query=.
func (h *WatchPartyHandler) SearchMovies(c echo.Context) error {
	var req searchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errMsg{"error": "Invalid search query"})
	}
	movies, err := h.Sessions.SearchMovies(c.Request().Context(), req.Query)
	return respondSearch(c, h.log, movies, err)
}

// GetNotifications handles GET /notifications.
func (h *WatchPartyHandler) GetNotifications(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.Notifications.GetNotifications(c.Request().Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("list notifications failed")
		return c.JSON(http.StatusInternalServerError, errMsg{"error": "Failed to fetch notifications"})
	}
	return c.JSON(http.StatusOK, list)
}

// SendMessage handles POST /:id/message.
func (h *WatchPartyHandler) SendMessage(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id := c.Param("id")
	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errMsg{"error": "Messages array is required"})
	}
	envelopes := make([]service.EnvelopeInput, len(req.Messages))
	for i, m := range req.Messages {
		envelopes[i] = service.EnvelopeInput(m)
	}
	batch, err := h.Messages.SendMessage(c.Request().Context(), id, uid, envelopes)
	if err != nil {
		h.log.Error().Err(err).Str("watch_party_id", id).Msg("send message failed")
		return c.JSON(http.StatusBadRequest, errMsg{"error": "Failed to send message"})
	}
	return c.JSON(http.StatusOK, batch)
}

// GetMessages handles GET /:id/messages.
func (h *WatchPartyHandler) GetMessages(c echo.Context) error {
	id := c.Param("id")
	list, err := h.Messages.GetMessages(c.Request().Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("watch_party_id", id).Msg("list messages failed")
		return c.JSON(http.StatusInternalServerError, errMsg{"error": "Failed to fetch messages"})
	}
	return c.JSON(http.StatusOK, list)
}

// GetUsers handles GET /:id/users: the declared public keys of the party.
func (h *WatchPartyHandler) GetUsers(c echo.Context) error {
	id := c.Param("id")
	list, err := h.Keys.ListParticipantsWithKeys(c.Request().Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("watch_party_id", id).Msg("list public keys failed")
		return c.JSON(http.StatusInternalServerError, errMsg{"error": "Failed to fetch users"})
	}
	return c.JSON(http.StatusOK, list)
}

// AddPublicKey handles POST /:id/users.
func (h *WatchPartyHandler) AddPublicKey(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id := c.Param("id")
	var req publicKeyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errMsg{"error": "Public key is required"})
	}
	if err := h.Keys.SetPublicKey(c.Request().Context(), id, uid, req.PublicKey); err != nil {
		h.log.Error().Err(err).Str("watch_party_id", id).Msg("store public key failed")
		return c.JSON(http.StatusBadRequest, errMsg{"error": "Failed to add public key"})
	}
	return c.JSON(http.StatusOK, errMsg{"message": "Public key added successfully"})
}

// respondSearch maps a search result shared by both route groups.
func respondSearch(c echo.Context, log zerolog.Logger, movies interface{}, err error) error {
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, errMsg{"error": "Invalid search query"})
		}
		log.Error().Err(err).Msg("movie search failed")
		return c.JSON(http.StatusInternalServerError, errMsg{"error": "Failed to search movies"})
	}
	return c.JSON(http.StatusOK, movies)
}
