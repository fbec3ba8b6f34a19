package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/watch-party/internal/model"
)

// NotificationRepo persists user notifications.
type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create appends a notification to the owner's log.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO notifications (id, user_id, type, message, watch_party_id, created_at) VALUES (?,?,?,?,?,?)",
		n.ID, n.UserID, string(n.Type), n.Message, n.WatchPartyID, n.CreatedAt.UTC())
	return err
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, type, message, watch_party_id, created_at FROM notifications WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Notification{}
	for rows.Next() {
		var (
			n    model.Notification
			kind string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Message, &n.WatchPartyID, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = model.NotificationType(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}
