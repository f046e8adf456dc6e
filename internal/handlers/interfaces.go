package handlers

import (
	"context"

	"flashsale-system/internal/models"
)

// FlashSaleManager is the campaign surface the handlers depend on.
type FlashSaleManager interface {
	List(ctx context.Context) ([]models.FlashSaleSummary, error)
	ListActive(ctx context.Context) ([]models.FlashSaleSummary, error)
	Get(ctx context.Context, id int64) (*models.FlashSale, error)
	Create(ctx context.Context, req *models.CreateFlashSaleRequest) (*models.FlashSale, error)
	Update(ctx context.Context, id int64, req *models.UpdateFlashSaleRequest) (*models.FlashSale, error)
	Delete(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status models.FlashSaleStatus) (models.FlashSaleStatus, error)
}

// FlashSaleProductManager is the line-item surface the handlers depend on.
type FlashSaleProductManager interface {
	ListProducts(ctx context.Context, flashSaleID int64) ([]models.FlashSaleProductDetail, error)
	Add(ctx context.Context, flashSaleID int64, req *models.AddFlashSaleProductRequest) (*models.FlashSaleProduct, error)
	AddMany(ctx context.Context, flashSaleID int64, entries []models.AddFlashSaleProductRequest) (*models.BulkAddOutcome, error)
	Update(ctx context.Context, id int64, req *models.UpdateFlashSaleProductRequest) (*models.FlashSaleProduct, error)
	Remove(ctx context.Context, id int64) error
	RemoveAll(ctx context.Context, flashSaleID int64) (int64, error)
	Replace(ctx context.Context, flashSaleID int64, req *models.ReplaceProductsRequest) (*models.ReplaceProductsOutcome, error)
	CheckProduct(ctx context.Context, productID int64) (*models.ProductEligibility, error)
	IncrementSoldCount(ctx context.Context, id int64, quantity int64) (*models.FlashSaleProduct, error)
	Stats(ctx context.Context, flashSaleID int64) (*models.FlashSaleStats, error)
}

// PurchaseManager is the purchase-tracking surface the handlers depend on.
type PurchaseManager interface {
	CanPurchase(ctx context.Context, flashSaleProductID int64, customerPhone string, quantity int64) (*models.PurchaseEligibility, error)
	Record(ctx context.Context, req *models.RecordPurchaseRequest) (*models.FlashSalePurchase, error)
	CustomerPurchases(ctx context.Context, customerPhone string, flashSaleID int64) ([]models.PurchaseHistoryEntry, error)
	Stats(ctx context.Context, flashSaleID int64) (*models.PurchaseStats, []models.TopCustomer, error)
	Cancel(ctx context.Context, orderID string) (*models.FlashSalePurchase, error)
}

// EventPublisher publishes domain events after successful mutations. A nil
// publisher disables eventing.
type EventPublisher interface {
	PublishFlashSaleCreated(sale *models.FlashSale) error
	PublishFlashSaleStatusChanged(flashSaleID int64, oldStatus, newStatus models.FlashSaleStatus) error
	PublishFlashSaleDeleted(flashSaleID int64) error
	PublishPurchaseRecorded(data models.PurchaseEventData) error
	PublishPurchaseCancelled(data models.PurchaseEventData) error
}
