package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tokenfeed/src/models"
	"tokenfeed/src/utils"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// outbound is one live frame flowing from the upstream feed to browser
// clients, tagged with the base mint so the hub can filter per client.
type outbound struct {
	Topic string
	Frame models.MDataFrame
}

// -----------------------------------------------------------------------------

// attachFeed registers the server as a consumer on the shared upstream feed
// client. Frames are re-marshaled once here, before entering the broadcast
// queue, so the hub loop never does data processing.
func (s *APIServer) attachFeed() {
	consumerID := "api-server-" + uuid.NewString()

	s.Feed.Subscribe(models.FrameTypeKline, consumerID, func(payload interface{}) {
		kline, ok := payload.(models.MKline)
		if !ok {
			return
		}
		s.enqueue(kline.BaseMint, models.FrameTypeKline, kline)
	})

	s.Feed.Subscribe(models.FrameTypeTrade, consumerID, func(payload interface{}) {
		trade, ok := payload.(models.MTrade)
		if !ok {
			return
		}
		s.recordTrade(trade)
		s.enqueue(trade.BaseMint, models.FrameTypeTrade, trade)
	})
}

// -----------------------------------------------------------------------------

const recentTradeCap = 50

func (s *APIServer) recordTrade(trade models.MTrade) {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()

	ring, ok := s.recent[trade.BaseMint]
	if !ok {
		ring = utils.NewTradeRing(recentTradeCap)
		s.recent[trade.BaseMint] = ring
	}
	ring.Append(trade)
}

// -----------------------------------------------------------------------------

func (s *APIServer) recentTrades(topic string) []models.MTrade {
	s.recentMu.RLock()
	defer s.recentMu.RUnlock()

	ring, ok := s.recent[topic]
	if !ok {
		return nil
	}
	return ring.GetAll()
}

// -----------------------------------------------------------------------------

func (s *APIServer) enqueue(topic string, frameType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.Logger.Warning("Failed to marshal %s frame: %v", frameType, err)
		return
	}

	select {
	case s.broadcast <- &outbound{Topic: topic, Frame: models.MDataFrame{Type: frameType, Data: body}}:
	default:
		// Queue full, drop the frame rather than stall the feed callback
		s.Logger.Warning("Broadcast queue full, dropping %s frame for %s", frameType, topic)
	}
}

// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case <-s.stop:
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}

		case message := <-s.broadcast:
			for client := range s.clients {
				if !client.wants(message.Topic) {
					continue
				}
				select {
				case client.send <- message.Frame:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send:   make(chan interface{}, 256),
		topics: make(map[string]struct{}),
	}

	s.register <- client

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	switch cmd.Command {
	case "subscribe":
		client.setTopics(cmd.Topics)
		s.replayRecent(client, cmd.Topics)
	case "unsubscribe":
		client.setTopics(nil)
	}
}

// -----------------------------------------------------------------------------

// replayRecent sends the cached recent trades of each freshly subscribed
// topic, so a chart is not empty until the next live frame.
func (s *APIServer) replayRecent(client *Client, topics []string) {
	for _, topic := range topics {
		for _, trade := range s.recentTrades(topic) {
			body, err := json.Marshal(trade)
			if err != nil {
				continue
			}
			select {
			case client.send <- models.MDataFrame{Type: models.FrameTypeTrade, Data: body}:
			default:
				// Client buffer full, skip the rest of the snapshot
				return
			}
		}
	}
}
