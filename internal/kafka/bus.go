package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event is the wire shape for order lifecycle events.
type Event struct {
	Type      string    `json:"type"`
	InvoiceID string    `json:"invoice_id"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

// messageWriter is the slice of kafka.Writer the bus needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventBus publishes order lifecycle events to a Kafka topic. Messages are
// keyed by invoice id so events for the same order land on one partition.
type EventBus struct {
	writer messageWriter
}

// NewEventBus builds a bus with acknowledgement from all in-sync replicas and
// bounded write timeouts.
func NewEventBus(brokers []string, topic string) *EventBus {
	return &EventBus{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Close releases the underlying writer.
func (b *EventBus) Close() error {
	return b.writer.Close()
}

func (b *EventBus) PublishOrderPlaced(ctx context.Context, invoiceID string) error {
	return b.publish(ctx, Event{Type: "order.placed", InvoiceID: invoiceID, At: time.Now().UTC()})
}

func (b *EventBus) PublishDispatchFailed(ctx context.Context, invoiceID string, reason string) error {
	return b.publish(ctx, Event{Type: "order.dispatch_failed", InvoiceID: invoiceID, Reason: reason, At: time.Now().UTC()})
}

func (b *EventBus) publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.InvoiceID),
		Value: value,
	})
}
