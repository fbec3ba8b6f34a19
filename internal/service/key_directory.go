package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/watch-party/internal/model"
	"github.com/iliyamo/watch-party/internal/repository"
)

// KeyDirectory records the public key each participant declares for a
// party so senders can encrypt one envelope per recipient.
type KeyDirectory struct {
	keys repository.ParticipantKeyRepository
	opts options
}

func NewKeyDirectory(keys repository.ParticipantKeyRepository, opts ...Option) *KeyDirectory {
	return &KeyDirectory{keys: keys, opts: buildOptions(opts)}
}

// SetPublicKey creates or replaces the key for (sessionID, userID).
func (d *KeyDirectory) SetPublicKey(ctx context.Context, sessionID, userID, publicKey string) error {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: watch party and user are required", ErrValidation)
	}
	if strings.TrimSpace(publicKey) == "" {
		return fmt.Errorf("%w: publicKey is required", ErrValidation)
	}
	key := &model.ParticipantKey{
		WatchPartyID: sessionID,
		UserID:       userID,
		PublicKey:    publicKey,
		UpdatedAt:    d.opts.now().UTC(),
	}
	if err := d.keys.Upsert(ctx, key); err != nil {
		return fmt.Errorf("store public key %s: %w", key.ID(), err)
	}
	return nil
}

// ListParticipantsWithKeys returns every declared key of the party.  A
// party without keys yields an empty slice.
func (d *KeyDirectory) ListParticipantsWithKeys(ctx context.Context, sessionID string) ([]model.ParticipantKey, error) {
	list, err := d.keys.ListByWatchParty(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list public keys for %s: %w", sessionID, err)
	}
	if list == nil {
		list = []model.ParticipantKey{}
	}
	return list, nil
}
