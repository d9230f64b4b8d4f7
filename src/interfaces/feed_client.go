package interfaces

// -----------------------------------------------------------------------------
// Consumer-facing contract of the live feed client.
// -----------------------------------------------------------------------------

// FeedCallback receives one dispatched payload. For KLINE frames the payload
// is a models.MKline, for TRADE frames a models.MTrade; any other frame type
// is delivered as its raw decoded envelope.
type FeedCallback func(payload interface{})

// ErrorCallback receives transport-level errors. They are reported through
// this hook only, never raised into a caller's stack.
type ErrorCallback func(err error)

type IFeedClient interface {

	// Connect opens the upstream connection. No-op while already Open or
	// Connecting, so racing timers cannot create duplicate sockets.
	Connect()

	// -----------------------------------------------------------------------------

	// Subscribe registers cb for topic under consumerID and issues the wire
	// SUBSCRIBE control message. Re-registering the same (topic, consumerID)
	// pair replaces the prior callback.
	Subscribe(topic, consumerID string, cb FeedCallback)

	// -----------------------------------------------------------------------------

	// Unsubscribe removes the (topic, consumerID) registration and issues the
	// wire UNSUBSCRIBE control message.
	Unsubscribe(topic, consumerID string)

	// -----------------------------------------------------------------------------

	// Send transmits v immediately when the connection is Open, otherwise
	// queues it until the next Open. The queue is unbounded.
	Send(v interface{})

	// -----------------------------------------------------------------------------

	// ForceReconnect tears down any current transport and reconnects, even
	// after the automatic retry budget is exhausted.
	ForceReconnect()

	// -----------------------------------------------------------------------------

	// NotifyVisible tells the client the hosting UI became foreground-visible
	// again; if the transport is not Open it reconnects immediately.
	NotifyVisible()

	// -----------------------------------------------------------------------------

	// IsConnected reports whether the connection state is Open.
	IsConnected() bool

	// IsInitialized reports whether Connect has ever been called.
	IsInitialized() bool

	// -----------------------------------------------------------------------------

	// Close shuts the client down permanently; auto-reconnect is suppressed.
	Close()
}
