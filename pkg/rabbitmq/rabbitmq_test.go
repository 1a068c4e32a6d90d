package rabbitmq

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(EventCommentPosted, map[string]any{"video_id": 3, "user": "bob"})
	require.NoError(t, err)

	assert.Equal(t, EventCommentPosted, event.Type)
	assert.False(t, event.OccurredAt.IsZero())

	var payload map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, "bob", payload["user"])
}

func TestNewEvent_Unmarshalable(t *testing.T) {
	_, err := NewEvent(EventLikeToggled, make(chan int))
	assert.Error(t, err)
}

func TestPublishEvent_WithoutChannel(t *testing.T) {
	var c *Client
	assert.Error(t, c.PublishEvent(EventVideoUploaded, nil))
}

func TestActivityLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := ActivityLogger(zap.New(core))

	event, err := NewEvent(EventUserSignedUp, map[string]string{"username": "alice"})
	require.NoError(t, err)
	require.NoError(t, handler(event))

	entries := logs.FilterMessage("activity").All()
	require.Len(t, entries, 1)
	assert.Equal(t, EventUserSignedUp, entries[0].ContextMap()["type"])
}
