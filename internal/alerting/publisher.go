package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Publisher delivers alert events to downstream notifiers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error

	// Name returns the publisher name for logging and metrics.
	Name() string

	Close() error
}

// LogPublisher writes events to the log only.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a log-only publisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	p.logger.Info().
		Int64("location_id", event.LocationID).
		Str("city", event.City).
		Int("aqi", event.AQI).
		Int("threshold", event.Threshold).
		Strs("channels", event.Channels).
		Msg("aqi alert triggered")
	return nil
}

// Name implements Publisher.
func (p *LogPublisher) Name() string { return "log" }

// Close implements Publisher.
func (p *LogPublisher) Close() error { return nil }

// PubSubConfig holds configuration for the Pub/Sub publisher.
type PubSubConfig struct {
	ProjectID string
	TopicID   string
}

// PubSubPublisher publishes events to a Google Cloud Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicID   string
}

// NewPubSubPublisher creates a publisher for cfg.TopicID.
func NewPubSubPublisher(ctx context.Context, cfg PubSubConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicID),
		topicID:   cfg.TopicID,
	}, nil
}

// Publish sends the event and waits for the server to acknowledge it.
func (p *PubSubPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling alert event: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id":    event.ID,
			"location_id": strconv.FormatInt(event.LocationID, 10),
			"level":       event.Level,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.topicID, err)
	}
	return nil
}

// Name implements Publisher.
func (p *PubSubPublisher) Name() string { return "pubsub" }

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

// KafkaMessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type KafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes events to a Kafka topic keyed by location id, so
// events for one location stay ordered within a partition.
type KafkaPublisher struct {
	writer KafkaMessageWriter
}

// NewKafkaPublisher creates a synchronous Kafka publisher.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	})
}

// NewKafkaPublisherWithWriter creates a publisher over an existing writer.
func NewKafkaPublisherWithWriter(w KafkaMessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish writes the event as JSON.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling alert event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.LocationID, 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Name implements Publisher.
func (p *KafkaPublisher) Name() string { return "kafka" }

// Close closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var (
	_ Publisher = (*LogPublisher)(nil)
	_ Publisher = (*PubSubPublisher)(nil)
	_ Publisher = (*KafkaPublisher)(nil)
)
