package interfaces

// -----------------------------------------------------------------------------
// Transport abstraction under the feed client (websocket in production,
// in-memory fakes in tests).
// -----------------------------------------------------------------------------

type IFeedConn interface {

	// ReadMessage blocks until the next frame arrives.
	ReadMessage() (messageType int, data []byte, err error)

	// WriteMessage writes one frame.
	WriteMessage(messageType int, data []byte) error

	// Close closes the underlying connection.
	Close() error
}

// -----------------------------------------------------------------------------

type IFeedDialer interface {

	// Dial opens a connection to the feed endpoint.
	Dial(endpoint string) (IFeedConn, error)
}
