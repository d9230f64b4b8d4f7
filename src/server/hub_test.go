package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenfeed/src/interfaces"
	"tokenfeed/src/logger"
	"tokenfeed/src/models"
)

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

// stubFeed satisfies the feed contract without any transport.
type stubFeed struct{}

func (stubFeed) Connect() {}

func (stubFeed) Subscribe(topic, consumerID string, cb interfaces.FeedCallback) {}

func (stubFeed) Unsubscribe(topic, consumerID string) {}

func (stubFeed) Send(v interface{}) {}

func (stubFeed) ForceReconnect() {}

func (stubFeed) NotifyVisible() {}

func (stubFeed) IsConnected() bool { return true }

func (stubFeed) IsInitialized() bool { return true }

func (stubFeed) Close() {}

func newTestServer() *APIServer {
	cfg := &models.MConfig{Name: "test", LogLevel: "INFO", Host: "127.0.0.1", Port: 0}
	return NewAPIServer(cfg, logger.NewLogger(cfg, "test"), stubFeed{}, nil)
}

// -----------------------------------------------------------------------------

func TestStopTerminatesHubLoop(t *testing.T) {
	s := newTestServer()

	exited := make(chan struct{})
	go func() {
		s.handleWebsockets()
		close(exited)
	}()

	// A connected client must not turn Stop into a nil-frame dispatch.
	client := &Client{hub: s, send: make(chan interface{}, 1), topics: make(map[string]struct{})}
	s.register <- client

	require.NoError(t, s.Stop())

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("hub loop still running after Stop")
	}

	// Stop is idempotent.
	require.NoError(t, s.Stop())
}

// -----------------------------------------------------------------------------

func TestEnqueueAfterStopDoesNotBlock(t *testing.T) {
	s := newTestServer()

	exited := make(chan struct{})
	go func() {
		s.handleWebsockets()
		close(exited)
	}()

	require.NoError(t, s.Stop())
	<-exited

	// Late feed callbacks park on the buffered queue or drop, never panic.
	for i := 0; i < 300; i++ {
		s.enqueue("mintA", models.FrameTypeTrade, models.MTrade{BaseMint: "mintA"})
	}
	assert.NotPanics(t, func() {
		s.enqueue("mintA", models.FrameTypeTrade, models.MTrade{BaseMint: "mintA"})
	})
}
