// Package events publishes dispatch domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Event types.
const (
	TypeRouteAssigned  = "route.assigned"
	TypeRouteCompleted = "route.completed"
)

const (
	publishTimeout     = 2 * time.Second
	writerBatchTimeout = 10 * time.Millisecond
)

// Event is the JSON envelope written to the topic.
type Event struct {
	Type       string    `json:"type"`
	RouteID    string    `json:"routeId"`
	VehicleID  string    `json:"vehicleId"`
	RequestIDs []string  `json:"requestIds,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher writes domain events. Implementations must not block the caller
// for longer than a short timeout.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher keys messages by route id so a route's events stay ordered
// within one partition.
type KafkaPublisher struct {
	writer messageWriter
	logger logrus.FieldLogger
}

// NewKafkaPublisher returns a publisher for topic. When brokers is empty a
// no-op publisher is returned.
func NewKafkaPublisher(brokers []string, topic string, logger logrus.FieldLogger) Publisher {
	if len(brokers) == 0 {
		return NopPublisher{}
	}
	return &KafkaPublisher{writer: newWriter(brokers, topic), logger: logger.WithField("component", "events")}
}

// newWriter flushes every message almost at once. Publish is called
// synchronously from commit and stop completion.
func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: writerBatchTimeout,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.RouteID), Value: b}); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{"type": e.Type, "route": e.RouteID}).Warn("publish failed")
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
