package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"flashsale-system/internal/config"
	"flashsale-system/internal/logger"
	"flashsale-system/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

func newConsumerLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

func TestConsumer_ProcessMessage_WithHandler(t *testing.T) {
	c := &Consumer{
		log:      newConsumerLogger(),
		handlers: make(map[models.EventType]EventHandler),
	}

	called := false
	c.RegisterHandler(models.EventTypePurchaseRecorded, func(ctx context.Context, event *models.Event) error {
		called = true
		return nil
	})

	ev := models.Event{ID: uuid.New(), Type: models.EventTypePurchaseRecorded}
	data, _ := json.Marshal(ev)
	msg := &sarama.ConsumerMessage{Value: data, Topic: "flash-sale-purchases"}

	if err := c.processMessage(msg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatalf("handler not called")
	}
	if c.HandlerCount() != 1 {
		t.Fatalf("handler count expected 1")
	}
}

func TestConsumer_ProcessMessage_NoHandler(t *testing.T) {
	c := &Consumer{
		log:      newConsumerLogger(),
		handlers: make(map[models.EventType]EventHandler),
	}

	ev := models.Event{ID: uuid.New(), Type: models.EventTypeFlashSaleDeleted}
	data, _ := json.Marshal(ev)
	msg := &sarama.ConsumerMessage{Value: data, Topic: "flash-sales"}

	if err := c.processMessage(msg); err != nil {
		t.Fatalf("unhandled event should not error, got %v", err)
	}
}

func TestConsumer_ProcessMessage_BadPayload(t *testing.T) {
	c := &Consumer{
		log:      newConsumerLogger(),
		handlers: make(map[models.EventType]EventHandler),
	}

	msg := &sarama.ConsumerMessage{Value: []byte("not json"), Topic: "flash-sales"}
	if err := c.processMessage(msg); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestConsumer_RegisterHandler_Replaces(t *testing.T) {
	c := &Consumer{
		log:      newConsumerLogger(),
		handlers: make(map[models.EventType]EventHandler),
	}

	first, second := false, false
	c.RegisterHandler(models.EventTypeFlashSaleCreated, func(ctx context.Context, event *models.Event) error {
		first = true
		return nil
	})
	c.RegisterHandler(models.EventTypeFlashSaleCreated, func(ctx context.Context, event *models.Event) error {
		second = true
		return nil
	})

	ev := models.Event{ID: uuid.New(), Type: models.EventTypeFlashSaleCreated}
	data, _ := json.Marshal(ev)
	if err := c.processMessage(&sarama.ConsumerMessage{Value: data}); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if first || !second {
		t.Fatalf("expected replacement handler to run: first=%v second=%v", first, second)
	}
	if c.HandlerCount() != 1 {
		t.Fatalf("expected single handler after replacement")
	}
}

func TestConsumer_StopNil(t *testing.T) {
	var c *Consumer
	if err := c.Stop(); err != nil {
		t.Fatalf("expected nil error for nil consumer stop, got %v", err)
	}
}

func TestNewConsumer_Error(t *testing.T) {
	log := newConsumerLogger()
	cfg := &config.KafkaConfig{Brokers: []string{}, GroupID: "g"}
	if _, err := NewConsumer(cfg, log); err == nil {
		t.Fatalf("expected error for empty brokers")
	}
}
