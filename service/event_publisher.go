package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"mars3lo-orders/models"
)

// EventPublisherInterface publishes order lifecycle events
type EventPublisherInterface interface {
	Publish(ctx context.Context, event models.OrderEvent) error
	Close() error
}

// KafkaPublisher writes order events to a Kafka topic, keyed by order id
type KafkaPublisher struct {
	writer *kafkaGo.Writer
}

// NewKafkaPublisher creates a publisher for topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkaGo.Writer{
			Addr:         kafkaGo.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkaGo.LeastBytes{},
			RequiredAcks: kafkaGo.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

var _ EventPublisherInterface = (*KafkaPublisher)(nil)

func (p *KafkaPublisher) Publish(ctx context.Context, event models.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher only logs events. Used when no brokers are configured.
type LogPublisher struct{}

var _ EventPublisherInterface = LogPublisher{}

func (LogPublisher) Publish(_ context.Context, event models.OrderEvent) error {
	log.Printf("📣 Event: %s order=%s status=%s", event.Type, event.OrderID, event.Status)
	return nil
}

func (LogPublisher) Close() error { return nil }

// newOrderEvent builds an event stamped with the current time
func newOrderEvent(eventType, orderID string, status models.OrderStatus) models.OrderEvent {
	return models.OrderEvent{
		Type:    eventType,
		OrderID: orderID,
		Status:  status,
		At:      time.Now().UTC().Format(time.RFC3339),
	}
}

// publishEvent sends an event after a commit. Failures are logged and never
// change the outcome of the committed operation.
func publishEvent(ctx context.Context, publisher EventPublisherInterface, event models.OrderEvent) {
	if publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := publisher.Publish(ctx, event); err != nil {
		log.Printf("⚠️  Event: failed to publish %s for order %s: %v", event.Type, event.OrderID, err)
	}
}
