package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event is the message published for every booking or payment state
// change. Payment fields are empty on booking events.
type Event struct {
	Type           string    `json:"type"`
	Reference      string    `json:"reference"`
	BookingID      int64     `json:"booking_id"`
	OwnerID        int64     `json:"owner_id"`
	EventDate      string    `json:"event_date"`
	Pax            int       `json:"pax,omitempty"`
	Status         string    `json:"status"`
	TotalCostCents int64     `json:"total_cost_cents,omitempty"`
	ClientEmail    string    `json:"client_email,omitempty"`
	PaymentID      int64     `json:"payment_id,omitempty"`
	PaymentType    string    `json:"payment_type,omitempty"`
	AmountCents    int64     `json:"amount_cents,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
