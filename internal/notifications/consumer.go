package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"showtime/pkg/logger"

	"github.com/IBM/sarama"
)

// HandlerFunc reacts to one decoded booking event.
type HandlerFunc func(ctx context.Context, event *BookingEvent) error

type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topics   []string
	ClientID string
}

// Consumer runs a consumer group over the booking topic. Every instance uses its own
// group so each one sees every event.
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler *groupHandler
	log     *logger.Logger
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewConsumer(cfg ConsumerConfig, handle HandlerFunc) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.ClientID
	saramaConfig.Consumer.Group.Session.Timeout = 30 * time.Second
	saramaConfig.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	log := logger.GetDefault()
	return &Consumer{
		group:   group,
		topics:  cfg.Topics,
		handler: &groupHandler{handle: handle, log: log},
		log:     log,
		done:    make(chan struct{}),
	}, nil
}

// Start consumes in the background until Stop is called or ctx ends.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	go func() {
		for err := range c.group.Errors() {
			c.log.WarnWithContext(ctx, "Consumer group error", err, nil)
		}
	}()

	go func() {
		defer close(c.done)
		for {
			err := c.group.Consume(ctx, c.topics, c.handler)
			if errors.Is(err, sarama.ErrClosedConsumerGroup) || ctx.Err() != nil {
				return
			}
			if err != nil {
				c.log.WarnWithContext(ctx, "Consume failed, retrying", err, map[string]interface{}{"topics": c.topics})
				time.Sleep(time.Second)
			}
		}
	}()
}

func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	if err := c.group.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

type groupHandler struct {
	handle HandlerFunc
	log    *logger.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process(session.Context(), message); err != nil {
				h.log.WarnWithContext(session.Context(), "Failed to process booking event", err, map[string]interface{}{
					"partition": message.Partition,
					"offset":    message.Offset,
				})
			}
			// Handlers are idempotent, so a bad message is skipped rather than retried
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *groupHandler) process(ctx context.Context, message *sarama.ConsumerMessage) error {
	event, err := FromJSON(message.Value)
	if err != nil {
		return fmt.Errorf("failed to decode booking event: %w", err)
	}
	return h.handle(ctx, event)
}

// AvailabilityCacheSync returns a handler that drops cached availability for every
// event whose seats changed.
func AvailabilityCacheSync(invalidate func(ctx context.Context, eventID int)) HandlerFunc {
	return func(ctx context.Context, event *BookingEvent) error {
		if event.ChangesAvailability() {
			invalidate(ctx, event.EventID)
		}
		return nil
	}
}
