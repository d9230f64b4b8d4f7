package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"tokenfeed/src/interfaces"
	"tokenfeed/src/logger"
	"tokenfeed/src/models"
)

// -----------------------------------------------------------------------------
// KafkaRelay
// -----------------------------------------------------------------------------

// KafkaRelay re-publishes live trade frames onto a Kafka topic for downstream
// consumers. It registers itself as one more subscriber on the shared feed
// client, so relaying never interferes with the in-process consumers.
type KafkaRelay struct {
	Config     *models.MConfig
	Logger     *logger.Logger
	writer     *kafka.Writer
	consumerID string
}

// -----------------------------------------------------------------------------

func NewKafkaRelay(cfg *models.MConfig, log *logger.Logger) *KafkaRelay {
	return &KafkaRelay{
		Config: cfg,
		Logger: log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Relay.Brokers...),
			Topic:        cfg.Relay.Topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		consumerID: "kafka-relay-" + uuid.NewString(),
	}
}

// -----------------------------------------------------------------------------

// Attach subscribes the relay to live trade frames on client.
func (r *KafkaRelay) Attach(client interfaces.IFeedClient) {
	client.Subscribe(models.FrameTypeTrade, r.consumerID, func(payload interface{}) {
		trade, ok := payload.(models.MTrade)
		if !ok {
			return
		}
		if err := r.publish(trade); err != nil {
			r.Logger.Warning("Failed to relay trade for %s: %v", trade.BaseMint, err)
		}
	})
	r.Logger.Info("Kafka relay attached (brokers=%v topic=%s)", r.Config.Relay.Brokers, r.Config.Relay.Topic)
}

// -----------------------------------------------------------------------------

// publish writes one trade keyed by base mint so per-token ordering survives
// partitioning.
func (r *KafkaRelay) publish(trade models.MTrade) error {
	body, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(trade.BaseMint),
		Value: body,
	})
}

// -----------------------------------------------------------------------------

func (r *KafkaRelay) Close() error {
	return r.writer.Close()
}
