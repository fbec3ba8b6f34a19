package repository

import (
	"context"
	"database/sql"

	"github.com/goccy/go-json"

	"github.com/iliyamo/watch-party/internal/model"
)

// MessageRepo stores encrypted message batches.  Envelopes are kept as a
// JSON array because the server never queries inside them.
type MessageRepo struct{ db *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// Create inserts one batch row.
func (r *MessageRepo) Create(ctx context.Context, b *model.MessageBatch) error {
	envelopes, err := json.Marshal(b.Messages)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO watch_party_messages (id, watch_party_id, sender_id, envelopes, created_at) VALUES (?,?,?,?,?)",
		b.ID, b.WatchPartyID, b.SenderID, envelopes, b.CreatedAt.UTC())
	return err
}

// ListByWatchParty returns the batches of a party in insertion order.
func (r *MessageRepo) ListByWatchParty(ctx context.Context, watchPartyID string) ([]model.MessageBatch, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, watch_party_id, sender_id, envelopes, created_at FROM watch_party_messages WHERE watch_party_id=? ORDER BY created_at ASC, id ASC",
		watchPartyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.MessageBatch{}
	for rows.Next() {
		var (
			b         model.MessageBatch
			envelopes []byte
		)
		if err := rows.Scan(&b.ID, &b.WatchPartyID, &b.SenderID, &envelopes, &b.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(envelopes, &b.Messages); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
