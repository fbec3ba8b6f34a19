package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/watch-party/internal/cache"
	"github.com/iliyamo/watch-party/internal/model"
	"github.com/iliyamo/watch-party/internal/repository"
)

// Notifier is the slice of NotificationService the session manager uses.
type Notifier interface {
	Notify(ctx context.Context, userID string, in NotificationInput) (*model.Notification, error)
	NotifyAll(ctx context.Context, dispatches []Dispatch) []DispatchOutcome
}

// CreateSessionCommand carries the host-supplied fields of a new party.
type CreateSessionCommand struct {
	Title          string
	Description    string
	DateTime       time.Time
	MovieIDs       []int64
	IsPublic       bool
	InvitedUserIDs []string
}

// WatchPartyService owns the watch party lifecycle: creation, joining and
// the cached read paths.
type WatchPartyService struct {
	parties  repository.WatchPartyRepository
	movies   MovieLookup
	notifier Notifier
	cache    *cache.Cache
	log      zerolog.Logger
	opts     options
}

func NewWatchPartyService(parties repository.WatchPartyRepository, movies MovieLookup, notifier Notifier, c *cache.Cache, log zerolog.Logger, opts ...Option) *WatchPartyService {
	return &WatchPartyService{
		parties:  parties,
		movies:   movies,
		notifier: notifier,
		cache:    c,
		log:      log.With().Str("component", "watchparty").Logger(),
		opts:     buildOptions(opts),
	}
}

// CreateSession resolves every movie, stores the party with the creator as
// host and sole participant, then invites the requested users.  Nothing is
// stored when any movie lookup fails.  Invitation failures are logged and
// never undo the creation.
func (s *WatchPartyService) CreateSession(ctx context.Context, creatorID string, cmd CreateSessionCommand) (*model.WatchParty, error) {
	if strings.TrimSpace(creatorID) == "" {
		return nil, fmt.Errorf("%w: creator is required", ErrValidation)
	}
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if cmd.DateTime.IsZero() {
		return nil, fmt.Errorf("%w: dateTime is required", ErrValidation)
	}
	if len(cmd.MovieIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one movie is required", ErrValidation)
	}

	movies, err := s.resolveMovies(ctx, cmd.MovieIDs)
	if err != nil {
		return nil, err
	}

	wp := &model.WatchParty{
		ID:             s.opts.newID(),
		Title:          title,
		Description:    cmd.Description,
		HostID:         creatorID,
		DateTime:       cmd.DateTime.UTC(),
		Movies:         movies,
		IsPublic:       cmd.IsPublic,
		Participants:   []string{creatorID},
		InvitedUserIDs: inviteList(creatorID, cmd.InvitedUserIDs),
		CreatedAt:      s.opts.now().UTC(),
		Status:         model.StatusScheduled,
	}
	if err := s.parties.Create(ctx, wp); err != nil {
		return nil, fmt.Errorf("create watch party: %w", err)
	}
	s.cache.InvalidateFor(ctx, cache.SessionCreated, cache.Subject{
		SessionID: wp.ID,
		HostID:    wp.HostID,
		Public:    wp.IsPublic,
	})
	s.log.Info().Str("watch_party_id", wp.ID).Str("host_id", creatorID).
		Int("movies", len(movies)).Int("invited", len(wp.InvitedUserIDs)).Msg("watch party created")

	s.sendInvites(ctx, wp)
	return wp, nil
}

// lookupLimit bounds concurrent movie lookups for one creation.
const lookupLimit = 8

// resolveMovies looks every id up concurrently and keeps the input order.
func (s *WatchPartyService) resolveMovies(ctx context.Context, ids []int64) ([]model.MovieSummary, error) {
	out := make([]model.MovieSummary, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupLimit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			m, err := s.movies.GetMovie(gctx, id)
			if err != nil {
				return fmt.Errorf("%w: movie %d: %v", ErrUpstream, id, err)
			}
			out[i] = m.Summary()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// inviteList drops blanks, duplicates and the host from the invitations.
func inviteList(hostID string, ids []string) []string {
	seen := map[string]bool{hostID: true}
	out := []string{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (s *WatchPartyService) sendInvites(ctx context.Context, wp *model.WatchParty) {
	if s.notifier == nil || len(wp.InvitedUserIDs) == 0 {
		return
	}
	msg := fmt.Sprintf("You've been invited to \"%s\" by %s", wp.Title, wp.HostID)
	dispatches := make([]Dispatch, len(wp.InvitedUserIDs))
	for i, uid := range wp.InvitedUserIDs {
		dispatches[i] = Dispatch{UserID: uid, Input: NotificationInput{
			Type:         model.NotificationInvite,
			Message:      msg,
			WatchPartyID: wp.ID,
		}}
	}
	for _, o := range s.notifier.NotifyAll(ctx, dispatches) {
		if o.Err != nil {
			s.log.Warn().Err(o.Err).Str("watch_party_id", wp.ID).Str("user_id", o.UserID).Msg("invite notification failed")
		}
	}
}

// JoinSession adds userID to the party's participants.  The membership
// change is a single conditional write, so two concurrent joins by the
// same user cannot both succeed.
func (s *WatchPartyService) JoinSession(ctx context.Context, userID, sessionID string) (*model.WatchParty, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user is required", ErrValidation)
	}
	// Always decide on fresh state, never on a cached record.
	wp, err := s.parties.GetByID(ctx, sessionID)
	if err != nil {
		return nil, s.mapStoreErr(err, "watch party "+sessionID)
	}
	if wp.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: user %s already joined watch party %s", ErrConflict, userID, sessionID)
	}
	if !wp.IsPublic && !wp.IsInvited(userID) {
		return nil, fmt.Errorf("%w: user %s is not invited to watch party %s", ErrForbidden, userID, sessionID)
	}

	if err := s.parties.AddParticipant(ctx, sessionID, userID, !wp.IsPublic); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: user %s already joined watch party %s", ErrConflict, userID, sessionID)
		}
		return nil, s.mapStoreErr(err, "watch party "+sessionID)
	}
	s.cache.InvalidateFor(ctx, cache.SessionJoined, cache.Subject{
		SessionID:    wp.ID,
		HostID:       wp.HostID,
		UserID:       userID,
		Public:       wp.IsPublic,
		Participants: wp.Participants,
	})

	updated, err := s.parties.GetByID(ctx, sessionID)
	if err != nil {
		s.log.Warn().Err(err).Str("watch_party_id", sessionID).Msg("reload after join failed")
		updated = wp
		updated.Participants = append(updated.Participants, userID)
		updated.InvitedUserIDs = removeString(updated.InvitedUserIDs, userID)
	}
	s.log.Info().Str("watch_party_id", sessionID).Str("user_id", userID).Msg("watch party joined")

	if s.notifier != nil && wp.HostID != userID {
		_, err := s.notifier.Notify(ctx, wp.HostID, NotificationInput{
			Type:         model.NotificationJoin,
			Message:      fmt.Sprintf("%s joined your watch party \"%s\"", userID, wp.Title),
			WatchPartyID: wp.ID,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("watch_party_id", sessionID).Msg("join notification failed")
		}
	}
	return updated, nil
}

func removeString(list []string, v string) []string {
	out := []string{}
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

// GetSession returns one party, served from the cache when possible.
func (s *WatchPartyService) GetSession(ctx context.Context, sessionID string) (*model.WatchParty, error) {
	return cache.ReadThrough(ctx, s.cache, cache.SessionKey(sessionID), s.cache.TTL().Session,
		func(ctx context.Context) (*model.WatchParty, error) {
			wp, err := s.parties.GetByID(ctx, sessionID)
			if err != nil {
				return nil, s.mapStoreErr(err, "watch party "+sessionID)
			}
			return wp, nil
		})
}

// GetSessionsForUser lists the parties userID participates in.
func (s *WatchPartyService) GetSessionsForUser(ctx context.Context, userID string) ([]model.WatchParty, error) {
	return cache.ReadThrough(ctx, s.cache, cache.UserSessionsKey(userID), s.cache.TTL().UserSessions,
		func(ctx context.Context) ([]model.WatchParty, error) {
			list, err := s.parties.ListByParticipant(ctx, userID)
			if err != nil {
				return nil, fmt.Errorf("list watch parties for %s: %w", userID, err)
			}
			if list == nil {
				list = []model.WatchParty{}
			}
			return list, nil
		})
}

// GetPublicSessions lists every public party still scheduled.
func (s *WatchPartyService) GetPublicSessions(ctx context.Context) ([]model.WatchParty, error) {
	return cache.ReadThrough(ctx, s.cache, cache.PublicSessionsKey, s.cache.TTL().PublicSessions,
		func(ctx context.Context) ([]model.WatchParty, error) {
			list, err := s.parties.ListPublicScheduled(ctx)
			if err != nil {
				return nil, fmt.Errorf("list public watch parties: %w", err)
			}
			if list == nil {
				list = []model.WatchParty{}
			}
			return list, nil
		})
}

// SearchMovies proxies a free-text search to the movie provider.
func (s *WatchPartyService) SearchMovies(ctx context.Context, query string) ([]model.Movie, error) {
	return searchMovies(ctx, s.movies, query)
}

func (s *WatchPartyService) mapStoreErr(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}
