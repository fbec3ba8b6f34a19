package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/watch-party/internal/model"
)

func TestCreateSession_MovieNight(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	wp, err := h.sessions.CreateSession(ctx, "u1", CreateSessionCommand{
		Title:    "Movie Night",
		DateTime: t0.Add(48 * time.Hour),
		MovieIDs: []int64{603},
		IsPublic: false,
	})
	require.NoError(t, err)
	require.NotEmpty(t, wp.ID)
	require.Equal(t, "u1", wp.HostID)
	require.Equal(t, []string{"u1"}, wp.Participants)
	require.Empty(t, wp.InvitedUserIDs)
	require.Equal(t, model.StatusScheduled, wp.Status)
	require.Equal(t, t0, wp.CreatedAt)
	require.Equal(t, []model.MovieSummary{{ID: 603, Title: "The Matrix", Runtime: 136, PosterPath: "/matrix.jpg"}}, wp.Movies)

	got, err := h.sessions.GetSession(ctx, wp.ID)
	require.NoError(t, err)
	require.Equal(t, wp.Title, got.Title)
	require.Contains(t, got.Participants, got.HostID)
}

func TestCreateSession_KeepsMovieOrder(t *testing.T) {
	h := newHarness(t)
	wp, err := h.sessions.CreateSession(context.Background(), "u1", CreateSessionCommand{
		Title:    "Marathon",
		DateTime: t0,
		MovieIDs: []int64{605, 603, 604},
	})
	require.NoError(t, err)
	require.Len(t, wp.Movies, 3)
	require.Equal(t, int64(605), wp.Movies[0].ID)
	require.Equal(t, int64(603), wp.Movies[1].ID)
	require.Equal(t, int64(604), wp.Movies[2].ID)
}

func TestCreateSession_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := map[string]CreateSessionCommand{
		"blank title": {Title: "   ", DateTime: t0, MovieIDs: []int64{603}},
		"no movies":   {Title: "x", DateTime: t0},
		"no dateTime": {Title: "x", MovieIDs: []int64{603}},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.sessions.CreateSession(ctx, "u1", cmd)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateSession_LookupFailurePersistsNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.sessions.CreateSession(ctx, "u1", CreateSessionCommand{
		Title:          "Broken",
		DateTime:       t0,
		MovieIDs:       []int64{603, 999},
		InvitedUserIDs: []string{"u2"},
	})
	require.ErrorIs(t, err, ErrUpstream)

	mine, err := h.sessions.GetSessionsForUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, mine)
	notes, err := h.notifier.GetNotifications(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, notes)
}

func TestCreateSession_InvitesEachUserOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	wp := h.create(t, "u1", false, "u2", "u3", "u2", "u1", " ")
	require.Equal(t, []string{"u2", "u3"}, wp.InvitedUserIDs)

	for _, uid := range []string{"u2", "u3"} {
		notes, err := h.notifier.GetNotifications(ctx, uid)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		require.Equal(t, model.NotificationInvite, notes[0].Type)
		require.Equal(t, wp.ID, notes[0].WatchPartyID)
		require.Equal(t, `You've been invited to "Movie Night" by u1`, notes[0].Message)
	}
	hostNotes, err := h.notifier.GetNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, hostNotes)
}

func TestCreateSession_NotificationFailureDoesNotFail(t *testing.T) {
	h := newHarness(t)
	h.notifications.fail["u2"] = true

	wp := h.create(t, "u1", false, "u2", "u3")
	require.Equal(t, []string{"u2", "u3"}, wp.InvitedUserIDs)

	notes, err := h.notifier.GetNotifications(context.Background(), "u3")
	require.NoError(t, err)
	require.Len(t, notes, 1)
}

func TestCreateSession_PublicInvalidatesPublicList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	list, err := h.sessions.GetPublicSessions(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	wp := h.create(t, "u1", true)

	list, err = h.sessions.GetPublicSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, wp.ID, list[0].ID)
}

func TestCreateSession_InvalidatesHostSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mine, err := h.sessions.GetSessionsForUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, mine)

	h.create(t, "u1", false)

	mine, err = h.sessions.GetSessionsForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestJoinSession_Public(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	wp := h.create(t, "u1", true)

	joined, err := h.sessions.JoinSession(ctx, "u2", wp.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2"}, joined.Participants)

	notes, err := h.notifier.GetNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, model.NotificationJoin, notes[0].Type)
	require.Equal(t, `u2 joined your watch party "Movie Night"`, notes[0].Message)
}

func TestJoinSession_PrivateRequiresInvite(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	wp := h.create(t, "u1", false, "u2")

	_, err := h.sessions.JoinSession(ctx, "u3", wp.ID)
	require.ErrorIs(t, err, ErrForbidden)

	joined, err := h.sessions.JoinSession(ctx, "u2", wp.ID)
	require.NoError(t, err)
	require.Contains(t, joined.Participants, "u2")
	require.NotContains(t, joined.InvitedUserIDs, "u2")
}

func TestJoinSession_TwiceIsConflict(t *testing.T) {
	for _, public := range []bool{true, false} {
		t.Run(fmt.Sprintf("public=%v", public), func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			wp := h.create(t, "u1", public, "u2")

			_, err := h.sessions.JoinSession(ctx, "u2", wp.ID)
			require.NoError(t, err)
			_, err = h.sessions.JoinSession(ctx, "u2", wp.ID)
			require.ErrorIs(t, err, ErrConflict)

			_, err = h.sessions.JoinSession(ctx, "u1", wp.ID)
			require.ErrorIs(t, err, ErrConflict)
		})
	}
}

func TestJoinSession_UnknownSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.sessions.JoinSession(context.Background(), "u2", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestJoinSession_NotificationFailureDoesNotFail(t *testing.T) {
	h := newHarness(t)
	h.notifications.fail["u1"] = true
	wp := h.create(t, "u1", true)

	joined, err := h.sessions.JoinSession(context.Background(), "u2", wp.ID)
	require.NoError(t, err)
	require.Contains(t, joined.Participants, "u2")
}

func TestJoinSession_InvalidatesCachedSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	wp := h.create(t, "u1", true)

	before, err := h.sessions.GetSession(ctx, wp.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"u1"}, before.Participants)
	u1Sessions, err := h.sessions.GetSessionsForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, u1Sessions, 1)

	_, err = h.sessions.JoinSession(ctx, "u2", wp.ID)
	require.NoError(t, err)

	after, err := h.sessions.GetSession(ctx, wp.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2"}, after.Participants)

	u1Sessions, err = h.sessions.GetSessionsForUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2"}, u1Sessions[0].Participants)
	u2Sessions, err := h.sessions.GetSessionsForUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, u2Sessions, 1)
}

func TestJoinSession_RefreshesCachedPublicList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	wp := h.create(t, "alice", true, "bob")

	public, err := h.sessions.GetPublicSessions(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	require.Equal(t, []string{"alice"}, public[0].Participants)

	_, err = h.sessions.JoinSession(ctx, "carol", wp.ID)
	require.NoError(t, err)
	_, err = h.sessions.JoinSession(ctx, "bob", wp.ID)
	require.NoError(t, err)

	public, err = h.sessions.GetPublicSessions(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	require.Equal(t, []string{"alice", "carol", "bob"}, public[0].Participants)
	require.Empty(t, public[0].InvitedUserIDs)

	_, err = h.sessions.JoinSession(ctx, "carol", wp.ID)
	require.ErrorIs(t, err, ErrConflict)
}

func TestJoinSession_ConcurrentDistinctUsers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	wp := h.create(t, "host", true)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.sessions.JoinSession(ctx, fmt.Sprintf("user-%d", i), wp.ID)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	final, err := h.parties.GetByID(ctx, wp.ID)
	require.NoError(t, err)
	require.Len(t, final.Participants, n+1)
	require.Equal(t, "host", final.Participants[0])
}

func TestJoinSession_ConcurrentSameUserSucceedsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	wp := h.create(t, "host", false, "guest")

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.sessions.JoinSession(ctx, "guest", wp.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrConflict)
	}
	require.Equal(t, 1, ok)

	final, err := h.parties.GetByID(ctx, wp.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"host", "guest"}, final.Participants)
	require.Empty(t, final.InvitedUserIDs)
}

func TestGetSession_ExpiresAfterTTL(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	wp := h.create(t, "u1", false)
	base := h.parties.gets.Load()

	_, err := h.sessions.GetSession(ctx, wp.ID)
	require.NoError(t, err)
	require.Equal(t, base+1, h.parties.gets.Load())

	h.clock.Advance(599 * time.Second)
	_, err = h.sessions.GetSession(ctx, wp.ID)
	require.NoError(t, err)
	require.Equal(t, base+1, h.parties.gets.Load(), "served from cache within the TTL")

	h.clock.Advance(2 * time.Second)
	_, err = h.sessions.GetSession(ctx, wp.ID)
	require.NoError(t, err)
	require.Equal(t, base+2, h.parties.gets.Load(), "expired entry reads the store")
}

func TestGetSession_NotFoundIsNotCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.sessions.GetSession(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = h.sessions.GetSession(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, int32(2), h.parties.gets.Load())
}

func TestSearchMovies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.movies.search = []model.Movie{{ID: 603, Title: "The Matrix", Runtime: 120}}

	_, err := h.sessions.SearchMovies(ctx, "   ")
	require.ErrorIs(t, err, ErrValidation)

	got, err := h.sessions.SearchMovies(ctx, "  matrix ")
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = h.sessions.SearchMovies(ctx, "explode")
	require.ErrorIs(t, err, ErrUpstream)

	h.movies.search = nil
	got, err = h.sessions.SearchMovies(ctx, "nothing")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}
