// Package memory provides in-process implementations of the repository
// interfaces.  They back the "memory" store driver used for local
// development and are the store used by service and handler tests.  Every
// method copies data in and out so callers never share slices with the
// store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/watch-party/internal/model"
	"github.com/iliyamo/watch-party/internal/repository"
)

// WatchPartyRepo keeps watch parties in a map guarded by a mutex.
type WatchPartyRepo struct {
	mu      sync.RWMutex
	parties map[string]*model.WatchParty
	order   []string
}

func NewWatchPartyRepo() *WatchPartyRepo {
	return &WatchPartyRepo{parties: make(map[string]*model.WatchParty)}
}

func (r *WatchPartyRepo) Create(_ context.Context, wp *model.WatchParty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.parties[wp.ID]; ok {
		return repository.ErrConflict
	}
	r.parties[wp.ID] = cloneParty(wp)
	r.order = append(r.order, wp.ID)
	return nil
}

func (r *WatchPartyRepo) GetByID(_ context.Context, id string) (*model.WatchParty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wp, ok := r.parties[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneParty(wp), nil
}

func (r *WatchPartyRepo) ListByParticipant(_ context.Context, userID string) ([]model.WatchParty, error) {
	return r.filter(func(wp *model.WatchParty) bool { return wp.HasParticipant(userID) }), nil
}

func (r *WatchPartyRepo) ListPublicScheduled(_ context.Context) ([]model.WatchParty, error) {
	return r.filter(func(wp *model.WatchParty) bool {
		return wp.IsPublic && wp.Status == model.StatusScheduled
	}), nil
}

// AddParticipant applies the same transition as the MySQL statement: move
// the user from invited to participant, or admit directly when no
// invitation is required.
func (r *WatchPartyRepo) AddParticipant(_ context.Context, id, userID string, requireInvite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	wp, ok := r.parties[id]
	if !ok {
		return repository.ErrNotFound
	}
	if wp.HasParticipant(userID) {
		return repository.ErrConflict
	}
	if requireInvite && !wp.IsInvited(userID) {
		return repository.ErrConflict
	}
	wp.InvitedUserIDs = without(wp.InvitedUserIDs, userID)
	wp.Participants = append(wp.Participants, userID)
	return nil
}

func (r *WatchPartyRepo) filter(keep func(*model.WatchParty) bool) []model.WatchParty {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.WatchParty{}
	for _, id := range r.order {
		if wp := r.parties[id]; keep(wp) {
			out = append(out, *cloneParty(wp))
		}
	}
	return out
}

func cloneParty(wp *model.WatchParty) *model.WatchParty {
	c := *wp
	c.Movies = append([]model.MovieSummary{}, wp.Movies...)
	c.Participants = append([]string{}, wp.Participants...)
	c.InvitedUserIDs = append([]string{}, wp.InvitedUserIDs...)
	return &c
}

func without(list []string, v string) []string {
	out := list[:0:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

// MessageRepo keeps batches in insertion order.
type MessageRepo struct {
	mu      sync.RWMutex
	batches []model.MessageBatch
}

func NewMessageRepo() *MessageRepo { return &MessageRepo{} }

func (r *MessageRepo) Create(_ context.Context, b *model.MessageBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *b
	c.Messages = append([]model.MessageEnvelope{}, b.Messages...)
	r.batches = append(r.batches, c)
	return nil
}

func (r *MessageRepo) ListByWatchParty(_ context.Context, watchPartyID string) ([]model.MessageBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.MessageBatch{}
	for _, b := range r.batches {
		if b.WatchPartyID == watchPartyID {
			b.Messages = append([]model.MessageEnvelope{}, b.Messages...)
			out = append(out, b)
		}
	}
	return out, nil
}

// NotificationRepo keeps one log per user.
type NotificationRepo struct {
	mu   sync.RWMutex
	logs map[string][]model.Notification
}

func NewNotificationRepo() *NotificationRepo {
	return &NotificationRepo{logs: make(map[string][]model.Notification)}
}

func (r *NotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[n.UserID] = append(r.logs[n.UserID], *n)
	return nil
}

// ListByUser sorts newest first; entries with equal timestamps keep
// reverse insertion order.
func (r *NotificationRepo) ListByUser(_ context.Context, userID string) ([]model.Notification, error) {
	r.mu.RLock()
	src := r.logs[userID]
	out := make([]model.Notification, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ParticipantKeyRepo keeps keys by composite id.
type ParticipantKeyRepo struct {
	mu   sync.RWMutex
	keys map[model.ParticipantKeyID]model.ParticipantKey
}

func NewParticipantKeyRepo() *ParticipantKeyRepo {
	return &ParticipantKeyRepo{keys: make(map[model.ParticipantKeyID]model.ParticipantKey)}
}

func (r *ParticipantKeyRepo) Upsert(_ context.Context, k *model.ParticipantKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[k.ID()] = *k
	return nil
}

func (r *ParticipantKeyRepo) ListByWatchParty(_ context.Context, watchPartyID string) ([]model.ParticipantKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.ParticipantKey{}
	for id, k := range r.keys {
		if id.WatchPartyID == watchPartyID {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// BucketRepo keeps marathon buckets per user.
type BucketRepo struct {
	mu      sync.Mutex
	buckets map[string][]model.BucketEntry
}

func NewBucketRepo() *BucketRepo {
	return &BucketRepo{buckets: make(map[string][]model.BucketEntry)}
}

func (r *BucketRepo) Get(_ context.Context, userID string) (*model.Bucket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, ok := r.buckets[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.Bucket{UserID: userID, Movies: append([]model.BucketEntry{}, entries...)}, nil
}

func (r *BucketRepo) AddMovie(_ context.Context, userID string, e model.BucketEntry, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.buckets[userID]
	if entries == nil {
		entries = []model.BucketEntry{}
	}
	if len(entries) >= limit {
		return repository.ErrLimitReached
	}
	for _, m := range entries {
		if m.ID == e.ID {
			return repository.ErrConflict
		}
	}
	r.buckets[userID] = append(entries, e)
	return nil
}

func (r *BucketRepo) RemoveMovie(_ context.Context, userID string, movieID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, ok := r.buckets[userID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := []model.BucketEntry{}
	for _, m := range entries {
		if m.ID != movieID {
			kept = append(kept, m)
		}
	}
	r.buckets[userID] = kept
	return nil
}
