package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

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

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("boom")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("boom")
}
func (failingStore) Delete(context.Context, ...string) error { return errors.New("boom") }

type record struct {
	ID    string   `json:"id"`
	Users []string `json:"users"`
}

func TestMemory_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory(WithClock(clock.Now))

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	clock.Advance(time.Minute)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, m.Len())
}

func TestMemory_NonPositiveTTLStoresNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	_, ok, _ := m.Get(ctx, "k")
	require.False(t, ok)
}

func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := NewMemory(WithClock(clock.Now))
	require.NoError(t, m.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "long", []byte("2"), time.Hour))

	clock.Advance(time.Minute)
	require.Equal(t, 1, m.Sweep())
	require.Equal(t, 1, m.Len())
}

func TestReadThrough_MissThenHit(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemory(), "wp", DefaultTTLs(), zerolog.Nop())
	loads := 0
	load := func(context.Context) (record, error) {
		loads++
		return record{ID: "a", Users: []string{"alice"}}, nil
	}

	first, err := ReadThrough(ctx, c, "session:a", time.Minute, load)
	require.NoError(t, err)
	second, err := ReadThrough(ctx, c, "session:a", time.Minute, load)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, loads)
}

func TestReadThrough_LoadErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemory(), "", DefaultTTLs(), zerolog.Nop())
	calls := 0
	load := func(context.Context) (record, error) {
		calls++
		if calls == 1 {
			return record{}, errors.New("store down")
		}
		return record{ID: "b"}, nil
	}

	_, err := ReadThrough(ctx, c, "k", time.Minute, load)
	require.Error(t, err)
	v, err := ReadThrough(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	require.Equal(t, "b", v.ID)
}

func TestReadThrough_StoreErrorsFallThrough(t *testing.T) {
	ctx := context.Background()
	c := New(failingStore{}, "wp", DefaultTTLs(), zerolog.Nop())
	loads := 0
	load := func(context.Context) (record, error) {
		loads++
		return record{ID: "c"}, nil
	}

	for i := 0; i < 2; i++ {
		v, err := ReadThrough(ctx, c, "k", time.Minute, load)
		require.NoError(t, err)
		require.Equal(t, "c", v.ID)
	}
	require.Equal(t, 2, loads)

	// must not panic or surface the delete failure
	c.Invalidate(ctx, "k")
}

func TestReadThrough_NilCacheAlwaysLoads(t *testing.T) {
	var c *Cache
	loads := 0
	for i := 0; i < 3; i++ {
		_, err := ReadThrough(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) {
			loads++
			return loads, nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 3, loads)
	c.Invalidate(context.Background(), "k")
}

func TestInvalidate_UsesPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	c := New(store, "wp", DefaultTTLs(), zerolog.Nop())

	_, err := ReadThrough(ctx, c, PublicSessionsKey, time.Minute, func(context.Context) ([]record, error) {
		return []record{{ID: "x"}}, nil
	})
	require.NoError(t, err)
	_, ok, _ := store.Get(ctx, "wp:"+PublicSessionsKey)
	require.True(t, ok)

	c.Invalidate(ctx, PublicSessionsKey)
	_, ok, _ = store.Get(ctx, "wp:"+PublicSessionsKey)
	require.False(t, ok)
}

func TestKeysFor(t *testing.T) {
	created := KeysFor(SessionCreated, Subject{SessionID: "s1", HostID: "alice", Public: true})
	require.ElementsMatch(t, []string{UserSessionsKey("alice"), PublicSessionsKey}, created)

	private := KeysFor(SessionCreated, Subject{SessionID: "s1", HostID: "alice"})
	require.Equal(t, []string{UserSessionsKey("alice")}, private)

	joined := KeysFor(SessionJoined, Subject{
		SessionID:    "s1",
		HostID:       "alice",
		UserID:       "bob",
		Public:       true,
		Participants: []string{"alice", "carol"},
	})
	require.ElementsMatch(t, []string{
		SessionKey("s1"),
		UserSessionsKey("bob"),
		UserSessionsKey("alice"),
		UserSessionsKey("carol"),
		PublicSessionsKey,
	}, joined)

	bucket := KeysFor(BucketChanged, Subject{UserID: "dave"})
	require.ElementsMatch(t, []string{BucketKey("dave"), BucketRuntimeKey("dave")}, bucket)

	require.Nil(t, KeysFor(Mutation("unknown"), Subject{}))
}

func TestSearchKey_Normalizes(t *testing.T) {
	require.Equal(t, SearchKey("The  Matrix"), SearchKey(" the matrix "))
	require.NotEqual(t, SearchKey("matrix"), SearchKey("matrix reloaded"))
	require.Len(t, SearchKey("anything"), len("search:")+32)
}
