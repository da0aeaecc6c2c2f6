package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler processes one decoded lifecycle event. Returning an error
// stops the consume loop.
type Handler func(ctx context.Context, event Event) error

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume reads messages and hands each decoded Event to the handler.
// Messages that do not decode are skipped: a malformed payload can
// never succeed on redelivery, so it must not wedge the loop.
func (c *Consumer) Consume(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		event, err := decodeEvent(msg.Value)
		if err != nil {
			continue
		}
		if err := handle(ctx, event); err != nil {
			return err
		}
	}
}

func decodeEvent(payload []byte) (Event, error) {
	var event Event
	err := json.Unmarshal(payload, &event)
	return event, err
}
