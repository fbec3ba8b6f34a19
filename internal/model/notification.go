package model

import "time"

// NotificationType enumerates the alerts a user can receive.
type NotificationType string

const (
	NotificationInvite NotificationType = "watchPartyInvite"
	NotificationJoin   NotificationType = "watchPartyJoin"
)

// Notification is an entry in a user's notification log.
type Notification struct {
	ID           string           `json:"id"`           // notifications.id
	UserID       string           `json:"userId"`       // notifications.user_id
	Type         NotificationType `json:"type"`         // notifications.type
	Message      string           `json:"message"`      // notifications.message
	WatchPartyID string           `json:"watchPartyId"` // notifications.watch_party_id
	CreatedAt    time.Time        `json:"createdAt"`    // notifications.created_at
}
