package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a domain event published to Kafka.
type EventType string

const (
	EventTypeFlashSaleCreated       EventType = "flash_sale.created"
	EventTypeFlashSaleStatusChanged EventType = "flash_sale.status_changed"
	EventTypeFlashSaleDeleted       EventType = "flash_sale.deleted"
	EventTypePurchaseRecorded       EventType = "purchase.recorded"
	EventTypePurchaseCancelled      EventType = "purchase.cancelled"
)

// Event is the envelope for all published domain events.
type Event struct {
	ID        uuid.UUID   `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// FlashSaleStatusChangedData is the payload of a status-change event.
type FlashSaleStatusChangedData struct {
	FlashSaleID int64           `json:"flash_sale_id"`
	OldStatus   FlashSaleStatus `json:"old_status"`
	NewStatus   FlashSaleStatus `json:"new_status"`
}

// PurchaseEventData is the payload of purchase recorded/cancelled events.
type PurchaseEventData struct {
	FlashSaleID        int64  `json:"flash_sale_id"`
	FlashSaleProductID int64  `json:"flash_sale_product_id"`
	OrderID            string `json:"order_id"`
	Quantity           int64  `json:"quantity"`
}
