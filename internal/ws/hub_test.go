package ws

import (
	"context"
	"encoding/json"
	"testing"

	"karya/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishesToOwnerOnly(t *testing.T) {
	hub := NewHub()
	alice := &Client{OwnerID: "alice", Send: make(chan []byte, 1), Hub: hub}
	bob := &Client{OwnerID: "bob", Send: make(chan []byte, 1), Hub: hub}
	hub.Register(alice)
	hub.Register(bob)

	r := domain.FormatReminder(domain.ReminderMessage{OwnerID: "alice", TaskID: "t1", Title: "Pay rent", DueDate: "12/01/2025"})
	require.NoError(t, hub.Publish(context.Background(), r))

	require.Len(t, alice.Send, 1)
	assert.Len(t, bob.Send, 0)

	var env struct {
		Type    string          `json:"type"`
		Payload domain.Reminder `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(<-alice.Send, &env))
	assert.Equal(t, MsgReminder, env.Type)
	assert.Equal(t, "t1", env.Payload.TaskID)
	assert.Equal(t, "Task Reminder", env.Payload.Subject)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	c := &Client{OwnerID: "alice", Send: make(chan []byte, 1), Hub: hub}
	hub.Register(c)

	r := domain.Reminder{OwnerID: "alice", TaskID: "t1"}
	require.NoError(t, hub.Publish(context.Background(), r))
	require.NoError(t, hub.Publish(context.Background(), r))
	assert.Len(t, c.Send, 1)
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	c := &Client{OwnerID: "alice", Send: make(chan []byte, 1), Hub: hub}
	hub.Register(c)
	assert.Equal(t, 1, hub.Connections("alice"))

	hub.Unregister(c)
	hub.Unregister(c)
	assert.Equal(t, 0, hub.Connections("alice"))

	_, open := <-c.Send
	assert.False(t, open)

	assert.NoError(t, hub.Publish(context.Background(), domain.Reminder{OwnerID: "alice"}))
}
