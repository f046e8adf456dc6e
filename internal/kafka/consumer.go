package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"flashsale-system/internal/config"
	"flashsale-system/internal/logger"
	"flashsale-system/internal/models"

	"github.com/IBM/sarama"
)

// EventHandler processes one decoded domain event.
type EventHandler func(ctx context.Context, event *models.Event) error

// Consumer reads domain events from the configured topics and dispatches
// them to registered handlers by event type.
type Consumer struct {
	group    sarama.ConsumerGroup
	topics   []string
	log      *logger.Logger
	handlers map[models.EventType]EventHandler
	mu       sync.RWMutex
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewConsumer creates a consumer group member for the configured topics.
func NewConsumer(cfg *config.KafkaConfig, log *logger.Logger) (*Consumer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer group: %w", err)
	}

	return &Consumer{
		group:    group,
		topics:   []string{cfg.Topics.FlashSales, cfg.Topics.Purchases},
		log:      log,
		handlers: make(map[models.EventType]EventHandler),
	}, nil
}

// RegisterHandler attaches a handler for one event type. Later registrations
// for the same type replace earlier ones.
func (c *Consumer) RegisterHandler(eventType models.EventType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = handler
}

// HandlerCount returns the number of registered handlers.
func (c *Consumer) HandlerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}

// Start begins consuming in the background until Stop is called.
func (c *Consumer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		for {
			if err := c.group.Consume(ctx, c.topics, c); err != nil {
				c.log.WithError(err).Error("Kafka consume loop error")
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	return nil
}

// Stop cancels the consume loop and closes the group.
func (c *Consumer) Stop() error {
	if c == nil {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	if c.group != nil {
		return c.group.Close()
	}
	return nil
}

// Setup implements sarama.ConsumerGroupHandler.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup implements sarama.ConsumerGroupHandler.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim implements sarama.ConsumerGroupHandler.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := c.processMessage(msg); err != nil {
			c.log.WithError(err).WithField("topic", msg.Topic).Error("Failed to process message")
		}
		session.MarkMessage(msg, "")
	}
	return nil
}

func (c *Consumer) processMessage(msg *sarama.ConsumerMessage) error {
	var event models.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	c.mu.RLock()
	handler, ok := c.handlers[event.Type]
	c.mu.RUnlock()

	if !ok {
		c.log.WithField("event_type", event.Type).Debug("No handler registered for event")
		return nil
	}

	return handler(context.Background(), &event)
}
