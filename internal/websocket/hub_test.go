package websocket

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/pkg/events"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, rdb *redis.Client) *Hub {
	t.Helper()
	h := NewHub(rdb, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "client channel closed")
		var m Message
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return Message{}
	}
}

func TestHubDeliversEventsToClients(t *testing.T) {
	h := startHub(t, nil)
	a, b := newClient(h, nil), newClient(h, nil)
	require.True(t, h.add(a))
	require.True(t, h.add(b))

	err := h.Publish(context.Background(), events.New(events.NoteCreated, map[string]interface{}{"note_id": "n1"}))
	require.NoError(t, err)

	for _, c := range []*Client{a, b} {
		m := receive(t, c)
		assert.Equal(t, events.NoteCreated, m.Type)
		assert.Equal(t, "n1", m.Data["note_id"])
		assert.False(t, m.OccurredAt.IsZero())
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h := startHub(t, nil)
	slow := &Client{hub: h, send: make(chan []byte)}
	require.True(t, h.add(slow))

	require.NoError(t, h.Publish(context.Background(), events.New(events.NoteDeleted, nil)))

	select {
	case _, ok := <-slow.send:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was not dropped")
	}
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	h := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	c := newClient(h, nil)
	require.True(t, h.add(c))
	cancel()
	<-h.done

	_, ok := <-c.send
	assert.False(t, ok)
	assert.False(t, h.add(newClient(h, nil)))
}

func TestHubRelaysThroughRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	// two hubs sharing one redis behave like two API instances
	sender := startHub(t, redis.NewClient(opts))
	listener := startHub(t, redis.NewClient(opts))
	c := newClient(listener, nil)
	require.True(t, listener.add(c))

	// give both subscriptions time to attach
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, sender.Publish(context.Background(), events.New(events.ReflectionCompleted, nil)))

	assert.Equal(t, events.ReflectionCompleted, receive(t, c).Type)
}
