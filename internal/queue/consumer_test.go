package queue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestConsumer_HandleMessageAppendsLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "notifications.log")
	c := NewConsumer("amqp://unused", path, zerolog.Nop())

	body, err := json.Marshal(NotificationEvent{
		NotificationID: "n1",
		UserID:         "alice",
		Type:           "watchPartyJoin",
		Message:        `bob joined your watch party "Movie Night"`,
		WatchPartyID:   "wp1",
		CreatedAt:      "2025-01-01T20:00:00Z",
	})
	require.NoError(t, err)
	require.NoError(t, c.HandleMessage(body))
	require.NoError(t, c.HandleMessage(body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "user_id=alice | type=watchPartyJoin | watch_party_id=wp1")
	require.Equal(t, 2, countLines(data))
}

func TestConsumer_HandleMessageRejectsGarbage(t *testing.T) {
	c := NewConsumer("amqp://unused", filepath.Join(t.TempDir(), "n.log"), zerolog.Nop())
	require.Error(t, c.HandleMessage([]byte("{not json")))
}

func countLines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}
