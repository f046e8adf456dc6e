package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"flashsale-system/internal/config"
	"flashsale-system/internal/logger"
	"flashsale-system/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer publishes domain events to Kafka with a synchronous producer.
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer creates a sync producer connected to the configured brokers.
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("Successfully connected to Kafka")
	return &Producer{
		producer: producer,
		log:      log,
		topics:   &cfg.Topics,
	}, nil
}

// Close shuts the producer down.
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// PublishFlashSaleCreated announces a newly created campaign.
func (p *Producer) PublishFlashSaleCreated(sale *models.FlashSale) error {
	return p.publishEvent(p.topics.FlashSales, models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeFlashSaleCreated,
		Timestamp: time.Now(),
		Data:      sale,
	})
}

// PublishFlashSaleStatusChanged announces a status change (manual or timed).
func (p *Producer) PublishFlashSaleStatusChanged(flashSaleID int64, oldStatus, newStatus models.FlashSaleStatus) error {
	return p.publishEvent(p.topics.FlashSales, models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeFlashSaleStatusChanged,
		Timestamp: time.Now(),
		Data: models.FlashSaleStatusChangedData{
			FlashSaleID: flashSaleID,
			OldStatus:   oldStatus,
			NewStatus:   newStatus,
		},
	})
}

// PublishFlashSaleDeleted announces a campaign removal.
func (p *Producer) PublishFlashSaleDeleted(flashSaleID int64) error {
	return p.publishEvent(p.topics.FlashSales, models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeFlashSaleDeleted,
		Timestamp: time.Now(),
		Data:      map[string]int64{"flash_sale_id": flashSaleID},
	})
}

// PublishPurchaseRecorded announces a confirmed flash-sale purchase.
func (p *Producer) PublishPurchaseRecorded(data models.PurchaseEventData) error {
	return p.publishEvent(p.topics.Purchases, models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypePurchaseRecorded,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// PublishPurchaseCancelled announces a cancelled flash-sale purchase.
func (p *Producer) PublishPurchaseCancelled(data models.PurchaseEventData) error {
	return p.publishEvent(p.topics.Purchases, models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypePurchaseCancelled,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (p *Producer) publishEvent(topic string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.ID.String()),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send event %s: %w", event.Type, err)
	}

	p.log.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"topic":      topic,
		"partition":  partition,
		"offset":     offset,
	}).Debug("Event published")

	return nil
}
