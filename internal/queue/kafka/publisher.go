// Package kafka streams scan results to a Kafka topic with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// DefaultTopic receives every opportunity when no topic is configured.
const DefaultTopic = "arbscanner.opportunities"

// messageWriter is the subset of *kafka.Writer the Publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Envelope is the JSON value of each message.
type Envelope struct {
	ScanID      string    `json:"scanId"`
	Kind        string    `json:"kind"`
	CapturedAt  time.Time `json:"capturedAt"`
	Opportunity any       `json:"opportunity"`
}

// Publisher implements domain.OpportunitySink on a Kafka topic.
type Publisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewPublisher creates a synchronous writer for topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 100 * time.Millisecond,
	}
	return newPublisher(w, topic)
}

func newPublisher(w messageWriter, topic string) *Publisher {
	return &Publisher{writer: w, topic: topic, now: time.Now}
}

// Topic returns the destination topic.
func (p *Publisher) Topic() string { return p.topic }

// PublishOpportunities writes one message per item keyed by
// {kind}-{scanID}-{opportunityID}.
func (p *Publisher) PublishOpportunities(ctx context.Context, scanID, kind string, items []any) error {
	if len(items) == 0 {
		return nil
	}
	captured := p.now().UTC()

	msgs := make([]kafka.Message, 0, len(items))
	for i, item := range items {
		value, err := json.Marshal(Envelope{
			ScanID:      scanID,
			Kind:        kind,
			CapturedAt:  captured,
			Opportunity: item,
		})
		if err != nil {
			return fmt.Errorf("kafka: marshal %s opportunity: %w", kind, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(kind + "-" + scanID + "-" + opportunityID(item, i)),
			Value: value,
			Time:  captured,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka: write %d messages to %s: %w", len(msgs), p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// opportunityID picks a stable id for an item, falling back to its index.
func opportunityID(item any, index int) string {
	switch o := item.(type) {
	case domain.Opportunity:
		return o.ID
	case *domain.Opportunity:
		return o.ID
	case domain.CrossVenueOpportunity:
		return o.VenueAID + ":" + o.VenueBID
	case *domain.CrossVenueOpportunity:
		return o.VenueAID + ":" + o.VenueBID
	}
	return strconv.Itoa(index)
}

// EnsureTopic creates topic on the cluster controller if it does not exist.
func EnsureTopic(ctx context.Context, brokers []string, topic string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("kafka: no brokers configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("kafka: dial broker %s: %w", brokers[0], err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka: get controller: %w", err)
	}

	ctrlConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("kafka: dial controller: %w", err)
	}
	defer ctrlConn.Close()

	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !strings.Contains(err.Error(), "Topic with this name already exists") {
		return fmt.Errorf("kafka: create topic %s: %w", topic, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.OpportunitySink = (*Publisher)(nil)
