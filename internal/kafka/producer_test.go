package kafka

import (
	"testing"

	"flashsale-system/internal/config"
	"flashsale-system/internal/logger"
	"flashsale-system/internal/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
)

func newProducerLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

func TestPublishEvent(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	mp.ExpectSendMessageAndSucceed()

	event := models.Event{ID: uuid.New(), Type: models.EventTypeFlashSaleCreated}
	p := &Producer{
		producer: mp,
		log:      newProducerLogger(),
		topics:   &config.Topics{FlashSales: "flash-sales"},
	}
	if err := p.publishEvent("flash-sales", event); err != nil {
		t.Fatalf("expected publish success, got %v", err)
	}

	if err := mp.Close(); err != nil {
		t.Fatalf("failed to close mock producer: %v", err)
	}
}

func TestProducer_WrapperMethods(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	for i := 0; i < 5; i++ {
		mp.ExpectSendMessageAndSucceed()
	}

	p := &Producer{
		producer: mp,
		log:      newProducerLogger(),
		topics:   &config.Topics{FlashSales: "flash-sales", Purchases: "flash-sale-purchases"},
	}

	sale := &models.FlashSale{ID: 1, Name: "test", StartTime: 100, EndTime: 200, Status: models.FlashSaleStatusDraft}
	if err := p.PublishFlashSaleCreated(sale); err != nil {
		t.Fatalf("PublishFlashSaleCreated failed: %v", err)
	}
	if err := p.PublishFlashSaleStatusChanged(1, models.FlashSaleStatusScheduled, models.FlashSaleStatusActive); err != nil {
		t.Fatalf("PublishFlashSaleStatusChanged failed: %v", err)
	}
	if err := p.PublishFlashSaleDeleted(1); err != nil {
		t.Fatalf("PublishFlashSaleDeleted failed: %v", err)
	}
	data := models.PurchaseEventData{FlashSaleID: 1, FlashSaleProductID: 2, OrderID: "ORD-1", Quantity: 1}
	if err := p.PublishPurchaseRecorded(data); err != nil {
		t.Fatalf("PublishPurchaseRecorded failed: %v", err)
	}
	if err := p.PublishPurchaseCancelled(data); err != nil {
		t.Fatalf("PublishPurchaseCancelled failed: %v", err)
	}
}

func TestProducer_PublishEvent_Failure(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := &Producer{
		producer: mp,
		log:      newProducerLogger(),
		topics:   &config.Topics{FlashSales: "flash-sales"},
	}

	ev := models.Event{ID: uuid.New(), Type: models.EventTypeFlashSaleCreated}
	if err := p.publishEvent("flash-sales", ev); err == nil {
		t.Fatalf("expected error on send failure")
	}
	_ = p.Close()
}

func TestNewProducer_Error(t *testing.T) {
	log := newProducerLogger()
	cfg := &config.KafkaConfig{Brokers: []string{"localhost:0"}}
	if _, err := NewProducer(cfg, log); err == nil {
		t.Fatalf("expected error creating producer")
	}
}

func TestProducer_CloseNil(t *testing.T) {
	var p *Producer
	if err := p.Close(); err != nil {
		t.Fatalf("expected nil error on nil producer")
	}
	p = &Producer{}
	if err := p.Close(); err != nil {
		t.Fatalf("expected nil error on empty producer, got %v", err)
	}
}
