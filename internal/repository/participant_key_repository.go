package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/watch-party/internal/model"
)

// ParticipantKeyRepo stores one public key per (watch party, user).
type ParticipantKeyRepo struct{ db *sql.DB }

func NewParticipantKeyRepo(db *sql.DB) *ParticipantKeyRepo { return &ParticipantKeyRepo{db: db} }

// Upsert inserts the key or replaces the previous one for the same pair.
func (r *ParticipantKeyRepo) Upsert(ctx context.Context, k *model.ParticipantKey) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO watch_party_keys (watch_party_id, user_id, public_key, updated_at) VALUES (?,?,?,?)
         ON DUPLICATE KEY UPDATE public_key = VALUES(public_key), updated_at = VALUES(updated_at)`,
		k.WatchPartyID, k.UserID, k.PublicKey, k.UpdatedAt.UTC())
	return err
}

// ListByWatchParty returns every key registered for the party.
func (r *ParticipantKeyRepo) ListByWatchParty(ctx context.Context, watchPartyID string) ([]model.ParticipantKey, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT watch_party_id, user_id, public_key, updated_at FROM watch_party_keys WHERE watch_party_id=? ORDER BY user_id",
		watchPartyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ParticipantKey{}
	for rows.Next() {
		var k model.ParticipantKey
		if err := rows.Scan(&k.WatchPartyID, &k.UserID, &k.PublicKey, &k.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
