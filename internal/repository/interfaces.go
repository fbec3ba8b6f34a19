package repository

import (
	"context"

	"github.com/iliyamo/watch-party/internal/model"
)

// WatchPartyRepository persists watch parties and their membership.
type WatchPartyRepository interface {
	// Create stores a new party including its initial participants and
	// invitations.
	Create(ctx context.Context, wp *model.WatchParty) error
	// GetByID returns ErrNotFound when the party does not exist.
	GetByID(ctx context.Context, id string) (*model.WatchParty, error)
	ListByParticipant(ctx context.Context, userID string) ([]model.WatchParty, error)
	ListPublicScheduled(ctx context.Context) ([]model.WatchParty, error)
	// AddParticipant atomically adds userID to the participants and drops
	// any pending invitation for it.  When requireInvite is set the user
	// must hold an invitation.  It returns ErrConflict when the user is
	// already a participant (or, with requireInvite, no longer invited).
	AddParticipant(ctx context.Context, id, userID string, requireInvite bool) error
}

// MessageRepository stores encrypted message batches.
type MessageRepository interface {
	Create(ctx context.Context, batch *model.MessageBatch) error
	ListByWatchParty(ctx context.Context, watchPartyID string) ([]model.MessageBatch, error)
}

// NotificationRepository stores per-user notification logs.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// ListByUser returns the user's notifications newest first.
	ListByUser(ctx context.Context, userID string) ([]model.Notification, error)
}

// ParticipantKeyRepository stores the public keys declared per party.
type ParticipantKeyRepository interface {
	Upsert(ctx context.Context, key *model.ParticipantKey) error
	ListByWatchParty(ctx context.Context, watchPartyID string) ([]model.ParticipantKey, error)
}

// BucketRepository stores marathon buckets.
type BucketRepository interface {
	// Get returns ErrNotFound when the user never created a bucket.
	Get(ctx context.Context, userID string) (*model.Bucket, error)
	// AddMovie appends entry, returning ErrConflict when the movie is
	// already queued and ErrLimitReached when the bucket already holds
	// limit movies.
	AddMovie(ctx context.Context, userID string, entry model.BucketEntry, limit int) error
	// RemoveMovie returns ErrNotFound when the user has no bucket.
	RemoveMovie(ctx context.Context, userID string, movieID int64) error
}
