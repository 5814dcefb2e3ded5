package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes orders-changed events so downstream consumers
// (order-list projections, analytics) refresh their view of a user's orders.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(writer *kafka.Writer) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

type ordersChangedEvent struct {
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (n *KafkaNotifier) OrdersChanged(ctx context.Context, userID string) error {
	value, err := json.Marshal(ordersChangedEvent{UserID: userID, OccurredAt: time.Now()})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte("orders-changed-" + userID),
		Value: value,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish orders-changed: %w", err)
	}
	return nil
}
