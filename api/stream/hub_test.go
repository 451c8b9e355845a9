package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulseapi/api/quote"
)

func testClient(h *Hub, buffer int) *Client {
	return &Client{hub: h, send: make(chan []byte, buffer)}
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		require.True(t, ok)
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := testClient(h, 4)
	h.register <- client

	quotes := []quote.Quote{{Token: "3045", Symbol: "SBIN", Ltp: 820.5}}
	h.PublishQuotes(quotes)

	msg := receive(t, client)

	var got []quote.Quote
	require.NoError(t, json.Unmarshal(msg, &got))
	require.Len(t, got, 1)
	require.Equal(t, "SBIN", got[0].Symbol)
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	fast := testClient(h, 4)
	slow := testClient(h, 0) // no buffer, every send would block
	h.register <- fast
	h.register <- slow

	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	h.PublishQuotes([]quote.Quote{{Token: "3045", Symbol: "SBIN"}})

	// The fast client still gets the batch, the slow one is disconnected.
	receive(t, fast)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	_, open := <-slow.send
	require.False(t, open)
}

func TestHubSendsLatestToNewClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	first := testClient(h, 4)
	h.register <- first
	h.PublishQuotes([]quote.Quote{{Token: "3045", Symbol: "SBIN"}})
	receive(t, first)

	late := testClient(h, 4)
	h.register <- late

	msg := receive(t, late)
	var got []quote.Quote
	require.NoError(t, json.Unmarshal(msg, &got))
	require.Equal(t, "3045", got[0].Token)
}

func TestHubUnregister(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := testClient(h, 4)
	h.register <- client
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.unregister <- client
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-client.send
	require.False(t, open)
}

func TestPublishQuotesEmptyBatch(t *testing.T) {
	h := NewHub()
	// Run loop not started: a non-empty publish would fill the buffer, an
	// empty one must be a no-op.
	h.PublishQuotes(nil)
	require.Empty(t, h.broadcast)
}

func TestPublishQuotesNonBlockingWhenFull(t *testing.T) {
	h := NewHub()
	// Run loop not started, so the buffer fills up.
	batch := []quote.Quote{{Token: "3045"}}

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+5; i++ {
			h.PublishQuotes(batch)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PublishQuotes blocked on a full buffer")
	}
}
