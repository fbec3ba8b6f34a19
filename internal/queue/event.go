// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationQueueName is the durable queue notification events go to.
const NotificationQueueName = "watchparty.notification"

// NotificationEvent is published after a notification has been stored.
// It carries everything a downstream consumer (mailer, push gateway,
// audit log) needs without querying the primary store.
type NotificationEvent struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Type           string `json:"type"`
	Message        string `json:"message"`
	WatchPartyID   string `json:"watch_party_id"`
	CreatedAt      string `json:"created_at"`
}
