package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hr-assistant-be/internal/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, ctx context.Context, rdb *redis.Client) *Hub {
	t.Helper()
	h := NewHub(rdb, logger.NewNopLogger())
	go h.Run(ctx)
	select {
	case <-h.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("hub not ready")
	}
	return h
}

func subscribe(t *testing.T, h *Hub, sessionID string) *Client {
	t.Helper()
	c := &Client{Hub: h, SessionID: sessionID, Send: make(chan []byte, 8)}
	h.Register(c)
	require.Eventually(t, func() bool { return h.ClientCount(sessionID) > 0 }, time.Second, 5*time.Millisecond)
	return c
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case raw := <-c.Send:
		var m Message
		require.NoError(t, json.Unmarshal(raw, &m))
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
	return Message{}
}

func TestHubDeliversOnlyToSessionSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := startHub(t, ctx, nil)

	a := subscribe(t, h, "s-1")
	b := subscribe(t, h, "s-2")

	h.Publish(ctx, Message{Type: "activity", SessionID: "s-1", Data: map[string]string{"type": "TASK_STARTED"}})

	got := receive(t, a)
	assert.Equal(t, "activity", got.Type)
	assert.Equal(t, "s-1", got.SessionID)
	assert.Len(t, b.Send, 0)
}

func TestHubRelaysAcrossInstancesThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newClient := func() *redis.Client {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		return rdb
	}
	origin := startHub(t, ctx, newClient())
	remote := startHub(t, ctx, newClient())

	local := subscribe(t, origin, "s-9")
	far := subscribe(t, remote, "s-9")

	origin.Publish(ctx, Message{Type: "activity", SessionID: "s-9", Data: "x"})

	assert.Equal(t, "s-9", receive(t, far).SessionID)
	assert.Equal(t, "s-9", receive(t, local).SessionID)

	// the origin skips its own cluster frame, so the local client sees it once
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, local.Send, 0)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := startHub(t, ctx, nil)

	c := subscribe(t, h, "s-3")
	h.Unregister(c)
	require.Eventually(t, func() bool { return h.ClientCount("s-3") == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-c.Send
	assert.False(t, open)
}

func TestSubscribedFrameComesFirst(t *testing.T) {
	c := &Client{SessionID: "s-9", Send: make(chan []byte, 1)}
	c.subscribedFrame()
	c.subscribedFrame() // full queue drops silently

	got := receive(t, c)
	assert.Equal(t, TypeSubscribed, got.Type)
	assert.Equal(t, "s-9", got.SessionID)
	c.close()
}
