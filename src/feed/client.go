package feed

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"tokenfeed/src/interfaces"
	"tokenfeed/src/logger"
	"tokenfeed/src/models"
)

// -----------------------------------------------------------------------------
// Connection State
// -----------------------------------------------------------------------------

type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "disconnected"
	}
}

// -----------------------------------------------------------------------------
// FeedClient
// -----------------------------------------------------------------------------

// FeedClient owns one persistent streaming connection to the market-feed
// server and multiplexes inbound events to many independent consumers. One
// instance is shared process-wide; the application entry point owns its
// lifetime and injects it wherever a consumer needs it.
type FeedClient struct {
	Config *models.MConfig
	Logger *logger.Logger

	dialer   interfaces.IFeedDialer
	registry *SubscriptionRegistry
	buffer   *OutboundBuffer

	mu          sync.Mutex
	state       ConnectionState
	conn        interfaces.IFeedConn
	gen         uint64 // connection generation; stale dial/read loops bail out
	attempts    int    // consecutive failed connect attempts
	initialized bool
	closed      bool

	wmu sync.Mutex // serializes transport writes

	retryInterval    time.Duration
	livenessInterval time.Duration
	maxAttempts      int

	onError interfaces.ErrorCallback

	livenessOnce sync.Once
	stopLiveness chan struct{}
}

var _ interfaces.IFeedClient = (*FeedClient)(nil)

// -----------------------------------------------------------------------------

func NewFeedClient(cfg *models.MConfig, dialer interfaces.IFeedDialer, log *logger.Logger) *FeedClient {
	return &FeedClient{
		Config:           cfg,
		Logger:           log,
		dialer:           dialer,
		registry:         NewSubscriptionRegistry(),
		buffer:           NewOutboundBuffer(),
		retryInterval:    time.Duration(cfg.Feed.ReconnectIntervalSeconds) * time.Second,
		livenessInterval: time.Duration(cfg.Feed.LivenessIntervalSeconds) * time.Second,
		maxAttempts:      cfg.Feed.MaxReconnectAttempts,
		stopLiveness:     make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// OnError installs the hook transport errors are surfaced through. Errors are
// never raised synchronously into a caller's stack.
func (c *FeedClient) OnError(hook interfaces.ErrorCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = hook
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Connect opens the transport. It is idempotent: a call while the state is
// Open or Connecting is a no-op, so the reconnect timer, the liveness ticker
// and an explicit ForceReconnect can all race through here without ever
// creating a duplicate socket.
func (c *FeedClient) Connect() {
	c.mu.Lock()
	if c.closed || c.state == StateOpen || c.state == StateConnecting {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.initialized = true
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.livenessOnce.Do(func() { go c.livenessLoop() })

	go c.dial(gen)
}

// -----------------------------------------------------------------------------

func (c *FeedClient) dial(gen uint64) {
	conn, err := c.dialer.Dial(c.Config.Feed.Endpoint)

	c.mu.Lock()
	if c.closed || c.gen != gen {
		c.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		c.state = StateDisconnected
		c.attempts++
		attempt := c.attempts
		c.mu.Unlock()

		c.reportError(fmt.Errorf("feed connect failed (attempt %d/%d): %w", attempt, c.maxAttempts, err))
		c.scheduleRetry()
		return
	}

	c.conn = conn
	c.state = StateOpen
	c.attempts = 0
	pending := c.buffer.Drain()
	topics := c.registry.Topics()
	c.mu.Unlock()

	c.Logger.Info("Feed connected to %s", c.Config.Feed.Endpoint)

	// Flush queued messages first, in FIFO order, then replay one SUBSCRIBE
	// per live topic. The registry itself is untouched; only the wire-level
	// subscription intents are re-issued.
	for _, msg := range pending {
		c.write(msg)
	}
	for _, topic := range topics {
		c.writeControl(models.FrameTypeSubscribe, topic)
	}

	go c.readLoop(conn, gen)
}

// -----------------------------------------------------------------------------

func (c *FeedClient) readLoop(conn interfaces.IFeedConn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(gen, err)
			return
		}
		c.dispatch(data)
	}
}

// -----------------------------------------------------------------------------

func (c *FeedClient) handleDisconnect(gen uint64, cause error) {
	c.mu.Lock()
	if c.closed || c.gen != gen {
		c.mu.Unlock()
		return
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
	c.mu.Unlock()

	c.reportError(fmt.Errorf("feed connection lost: %w", cause))
	c.scheduleRetry()
}

// -----------------------------------------------------------------------------

// scheduleRetry arms one fixed-interval reconnect. Once the attempt budget is
// exhausted the client goes dormant until ForceReconnect.
func (c *FeedClient) scheduleRetry() {
	c.mu.Lock()
	if c.closed || c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	if c.attempts >= c.maxAttempts {
		c.mu.Unlock()
		c.Logger.Warning("Max reconnect attempts (%d) reached, waiting for explicit reconnect", c.maxAttempts)
		return
	}
	interval := c.retryInterval
	c.mu.Unlock()

	c.Logger.Info("Scheduling feed reconnect in %s", interval)
	time.AfterFunc(interval, c.Connect)
}

// -----------------------------------------------------------------------------

// ForceReconnect drops any current transport, resets the retry budget and
// reconnects. This is the only way back from a dormant client.
func (c *FeedClient) ForceReconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.gen++
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
	c.attempts = 0
	c.mu.Unlock()

	c.Connect()
}

// -----------------------------------------------------------------------------

// NotifyVisible is called by the host when the UI becomes foreground-visible
// again. It covers sleep/suspend gaps without waiting for the liveness tick.
func (c *FeedClient) NotifyVisible() {
	c.mu.Lock()
	stale := c.initialized && !c.closed && c.state != StateOpen && c.state != StateConnecting
	c.mu.Unlock()

	if stale {
		c.Logger.Info("UI visible and transport not open, reconnecting")
		c.ForceReconnect()
	}
}

// -----------------------------------------------------------------------------

// livenessLoop periodically inspects the transport state. The upstream server
// does not acknowledge protocol pings, so a dead transport is recovered by
// force-reconnecting rather than by ping/pong.
func (c *FeedClient) livenessLoop() {
	ticker := time.NewTicker(c.livenessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopLiveness:
			return
		case <-ticker.C:
			c.mu.Lock()
			stale := !c.closed && c.initialized && c.state != StateOpen && c.state != StateConnecting
			c.mu.Unlock()

			if stale {
				c.Logger.Warning("Liveness check: transport not open, forcing reconnect")
				c.ForceReconnect()
			}
		}
	}
}

// -----------------------------------------------------------------------------

// Close performs a caller-initiated shutdown with a normal close code.
// Auto-reconnect is suppressed permanently.
func (c *FeedClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.state = StateClosing
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	close(c.stopLiveness)

	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown")
		conn.WriteMessage(websocket.CloseMessage, msg)
		conn.Close()
	}

	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()

	c.Logger.Info("Feed client closed")
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

func (c *FeedClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateOpen
}

// -----------------------------------------------------------------------------

func (c *FeedClient) IsInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// -----------------------------------------------------------------------------

// State returns the current connection state (for status endpoints).
func (c *FeedClient) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// -----------------------------------------------------------------------------
// Outbound
// -----------------------------------------------------------------------------

// Send transmits v immediately when Open, otherwise queues it until the next
// Open. No backpressure is signaled to the caller; the queue is unbounded.
func (c *FeedClient) Send(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.Logger.Error("Dropping unmarshalable outbound message: %v", err)
		return
	}
	c.sendBytes(data)
}

// -----------------------------------------------------------------------------

func (c *FeedClient) sendBytes(data []byte) {
	c.mu.Lock()
	open := c.state == StateOpen
	c.mu.Unlock()

	if open {
		c.write(data)
		return
	}
	c.buffer.Push(data)
}

// -----------------------------------------------------------------------------

func (c *FeedClient) write(data []byte) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		c.buffer.Push(data)
		return
	}

	c.wmu.Lock()
	err := conn.WriteMessage(websocket.TextMessage, data)
	c.wmu.Unlock()

	if err != nil {
		c.reportError(fmt.Errorf("feed write failed: %w", err))
	}
}

// -----------------------------------------------------------------------------

func (c *FeedClient) writeControl(msgType, topic string) {
	data, err := json.Marshal(models.MControlMessage{Type: msgType, BaseMint: topic})
	if err != nil {
		return
	}
	c.write(data)
}

// -----------------------------------------------------------------------------
// Subscriptions
// -----------------------------------------------------------------------------

// Subscribe registers cb under (topic, consumerID) and issues the wire
// SUBSCRIBE message. The registration outlives the connection and is replayed
// on every reconnect.
func (c *FeedClient) Subscribe(topic, consumerID string, cb interfaces.FeedCallback) {
	c.registry.Register(topic, consumerID, cb)
	c.Send(models.MControlMessage{Type: models.FrameTypeSubscribe, BaseMint: topic})
}

// -----------------------------------------------------------------------------

// Unsubscribe removes the (topic, consumerID) registration and issues the
// wire UNSUBSCRIBE message.
func (c *FeedClient) Unsubscribe(topic, consumerID string) {
	c.registry.Deregister(topic, consumerID)
	c.Send(models.MControlMessage{Type: models.FrameTypeUnsubscribe, BaseMint: topic})
}

// -----------------------------------------------------------------------------
// Inbound dispatch
// -----------------------------------------------------------------------------

// dispatch runs on the read-loop goroutine. It must not block it: callbacks
// are invoked over a registry snapshot and one panicking consumer never
// prevents delivery to the others.
func (c *FeedClient) dispatch(data []byte) {
	t := gjson.GetBytes(data, "type")
	if !t.Exists() {
		c.Logger.Debug("Dropping frame without type discriminator")
		return
	}
	frameType := t.String()

	var payload interface{}

	switch frameType {
	case models.FrameTypeKline:
		var frame models.MDataFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.Logger.Debug("Dropping malformed KLINE frame: %v", err)
			return
		}
		kline, err := normalizeKline(frame.Data)
		if err != nil {
			c.Logger.Debug("Dropping malformed KLINE frame: %v", err)
			return
		}
		payload = kline

	case models.FrameTypeTrade:
		var frame models.MDataFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.Logger.Debug("Dropping malformed TRADE frame: %v", err)
			return
		}
		trade, err := normalizeTrade(frame.Data)
		if err != nil {
			c.Logger.Debug("Dropping malformed TRADE frame: %v", err)
			return
		}
		payload = trade

	default:
		// Unrecognized types pass through verbatim.
		var raw map[string]interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			c.Logger.Debug("Dropping malformed frame: %v", err)
			return
		}
		payload = raw
	}

	for _, cb := range c.registry.Snapshot(frameType) {
		c.invoke(cb, payload)
	}
}

// -----------------------------------------------------------------------------

func (c *FeedClient) invoke(cb interfaces.FeedCallback, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Error("Consumer callback panicked: %v", r)
		}
	}()
	cb(payload)
}

// -----------------------------------------------------------------------------

func (c *FeedClient) reportError(err error) {
	c.mu.Lock()
	hook := c.onError
	c.mu.Unlock()

	c.Logger.Error("%v", err)
	if hook != nil {
		hook(err)
	}
}
