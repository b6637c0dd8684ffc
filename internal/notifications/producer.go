package notifications

import (
	"context"
	"fmt"
	"time"

	"showtime/internal/shared/config"
	"showtime/pkg/logger"

	"github.com/IBM/sarama"
)

// Publisher sends booking events to downstream consumers. Publishing is best effort
// for callers: a failure never undoes the booking change it describes.
type Publisher interface {
	Publish(ctx context.Context, event *BookingEvent) error
	Close() error
}

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewSaramaConfig returns the producer settings used for booking events: every
// in-sync replica acknowledges, writes are idempotent and keys hash to partitions.
func NewSaramaConfig(clientID string) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = clientID

	// Producer configuration
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	// Use hash partitioner so one catalog event always lands on one partition
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	return saramaConfig
}

func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewSaramaConfig(cfg.ClientID))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topic), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, log: logger.GetDefault()}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *BookingEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(event.PartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Headers:   headers(event),
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send booking event to Kafka: %w", err)
	}

	p.log.DebugContext(ctx, "Booking event published",
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
		"type", event.Type,
		"booking_id", event.BookingID,
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}

func headers(event *BookingEvent) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(event.Type)},
		{Key: []byte("message_id"), Value: []byte(event.ID.String())},
		{Key: []byte("booking_id"), Value: []byte(event.BookingID)},
		{Key: []byte("version"), Value: []byte("1.0")},
		{Key: []byte("producer"), Value: []byte("showtime-bookings")},
	}
}

// NoopPublisher drops events; used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *BookingEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
