package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/watch-party/internal/cache"
	"github.com/iliyamo/watch-party/internal/model"
	"github.com/iliyamo/watch-party/internal/queue"
	"github.com/iliyamo/watch-party/internal/repository"
	"github.com/iliyamo/watch-party/internal/repository/memory"
)

var t0 = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: t0} }

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// fakeMovies serves a fixed catalogue.  Ids missing from it fail.
type fakeMovies struct {
	movies map[int64]model.Movie
	search []model.Movie
}

func newFakeMovies() *fakeMovies {
	return &fakeMovies{movies: map[int64]model.Movie{
		603: {ID: 603, Title: "The Matrix", Runtime: 136, PosterPath: "/matrix.jpg"},
		604: {ID: 604, Title: "The Matrix Reloaded", Runtime: 138},
		605: {ID: 605, Title: "Short", Runtime: 45},
		700: {ID: 700, Title: "Unreleased", Runtime: 0},
	}}
}

func (f *fakeMovies) GetMovie(_ context.Context, id int64) (model.Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return model.Movie{}, fmt.Errorf("movie %d unavailable", id)
	}
	return m, nil
}

func (f *fakeMovies) SearchMovies(_ context.Context, query string) ([]model.Movie, error) {
	if query == "explode" {
		return nil, errors.New("provider down")
	}
	return f.search, nil
}

// countingParties counts store reads of single parties.
type countingParties struct {
	repository.WatchPartyRepository
	gets atomic.Int32
}

func (c *countingParties) GetByID(ctx context.Context, id string) (*model.WatchParty, error) {
	c.gets.Add(1)
	return c.WatchPartyRepository.GetByID(ctx, id)
}

// failingNotifications rejects every write addressed to a user in fail.
type failingNotifications struct {
	repository.NotificationRepository
	fail map[string]bool
}

func (f *failingNotifications) Create(ctx context.Context, n *model.Notification) error {
	if f.fail[n.UserID] {
		return errors.New("notification store unavailable")
	}
	return f.NotificationRepository.Create(ctx, n)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.NotificationEvent
	err    error
}

func (p *recordingPublisher) PublishNotification(_ context.Context, ev queue.NotificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type harness struct {
	clock         *fakeClock
	movies        *fakeMovies
	parties       *countingParties
	notifications *failingNotifications
	notifier      *NotificationService
	cache         *cache.Cache
	sessions      *WatchPartyService
	messages      *MessageService
	keys          *KeyDirectory
	marathon      *MarathonService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:         newFakeClock(),
		movies:        newFakeMovies(),
		parties:       &countingParties{WatchPartyRepository: memory.NewWatchPartyRepo()},
		notifications: &failingNotifications{NotificationRepository: memory.NewNotificationRepo(), fail: map[string]bool{}},
	}
	log := zerolog.Nop()
	ttl := cache.DefaultTTLs()
	ttl.Session = 600 * time.Second
	h.cache = cache.New(cache.NewMemory(cache.WithClock(h.clock.Now)), "test", ttl, log)

	opts := []Option{WithClock(h.clock.Now)}
	h.notifier = NewNotificationService(h.notifications, log, opts...)
	h.sessions = NewWatchPartyService(h.parties, h.movies, h.notifier, h.cache, log, opts...)
	h.messages = NewMessageService(memory.NewMessageRepo(), log, opts...)
	h.keys = NewKeyDirectory(memory.NewParticipantKeyRepo(), opts...)
	h.marathon = NewMarathonService(memory.NewBucketRepo(), h.movies, h.cache, log, opts...)
	return h
}

func (h *harness) create(t *testing.T, host string, public bool, invited ...string) *model.WatchParty {
	t.Helper()
	wp, err := h.sessions.CreateSession(context.Background(), host, CreateSessionCommand{
		Title:          "Movie Night",
		DateTime:       t0.Add(24 * time.Hour),
		MovieIDs:       []int64{603},
		IsPublic:       public,
		InvitedUserIDs: invited,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return wp
}
