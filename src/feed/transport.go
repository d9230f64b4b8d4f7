package feed

import (
	"time"

	"github.com/gorilla/websocket"

	"tokenfeed/src/interfaces"
)

// -----------------------------------------------------------------------------
// WebsocketDialer
// -----------------------------------------------------------------------------

// WebsocketDialer is the production IFeedDialer backed by gorilla/websocket.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
}

// -----------------------------------------------------------------------------

func NewWebsocketDialer(handshakeTimeout time.Duration) *WebsocketDialer {
	return &WebsocketDialer{HandshakeTimeout: handshakeTimeout}
}

// -----------------------------------------------------------------------------

// Dial opens a websocket connection to the feed endpoint.
// *websocket.Conn satisfies IFeedConn directly.
func (d *WebsocketDialer) Dial(endpoint string) (interfaces.IFeedConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.HandshakeTimeout}
	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
