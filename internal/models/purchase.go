package models

// FlashSalePurchase records one confirmed purchase of a flash-sale line item.
type FlashSalePurchase struct {
	ID                 int64   `json:"id" db:"id"`
	FlashSaleID        int64   `json:"flash_sale_id" db:"flash_sale_id"`
	FlashSaleProductID int64   `json:"flash_sale_product_id" db:"flash_sale_product_id"`
	OrderID            string  `json:"order_id" db:"order_id"`
	CustomerPhone      string  `json:"customer_phone" db:"customer_phone"`
	CustomerName       string  `json:"customer_name" db:"customer_name"`
	Quantity           int64   `json:"quantity" db:"quantity"`
	FlashPrice         float64 `json:"flash_price" db:"flash_price"`
	TotalAmount        float64 `json:"total_amount" db:"total_amount"`
	PurchasedAt        int64   `json:"purchased_at_unix" db:"purchased_at_unix"`
}

// PurchaseHistoryEntry is a purchase joined with campaign and catalog data.
type PurchaseHistoryEntry struct {
	FlashSalePurchase
	FlashSaleName string  `json:"flash_sale_name"`
	StartTime     int64   `json:"start_time"`
	EndTime       int64   `json:"end_time"`
	ProductID     int64   `json:"product_id"`
	ProductName   *string `json:"product_name,omitempty"`
	ImageURL      *string `json:"image_url,omitempty"`
}

// RecordPurchaseRequest reports a confirmed sale. Callers invoke this after
// payment confirmation, not before.
type RecordPurchaseRequest struct {
	FlashSaleID        int64   `json:"flash_sale_id"`
	FlashSaleProductID int64   `json:"flash_sale_product_id"`
	OrderID            string  `json:"order_id"`
	CustomerPhone      string  `json:"customer_phone"`
	CustomerName       string  `json:"customer_name,omitempty"`
	Quantity           int64   `json:"quantity"`
	FlashPrice         float64 `json:"flash_price"`
}

// PurchaseEligibility is the outcome of a pre-purchase limit check.
type PurchaseEligibility struct {
	Allowed          bool                   `json:"allowed"`
	Reason           string                 `json:"reason,omitempty"`
	Remaining        *int64                 `json:"remaining,omitempty"`
	AlreadyPurchased *int64                 `json:"alreadyPurchased,omitempty"`
	CanStillBuy      *int64                 `json:"canStillBuy,omitempty"`
	MaxPerCustomer   *int64                 `json:"maxPerCustomer,omitempty"`
	Product          *EligibleFlashSaleItem `json:"product,omitempty"`
}

// PurchaseStats aggregates confirmed purchases of one campaign.
type PurchaseStats struct {
	UniqueCustomers     int64   `json:"unique_customers"`
	TotalOrders         int64   `json:"total_orders"`
	TotalQuantitySold   int64   `json:"total_quantity_sold"`
	TotalRevenue        float64 `json:"total_revenue"`
	AvgQuantityPerOrder float64 `json:"avg_quantity_per_order"`
	FirstPurchase       *int64  `json:"first_purchase,omitempty"`
	LastPurchase        *int64  `json:"last_purchase,omitempty"`
}

// TopCustomer is one row of the per-campaign top-spenders board.
type TopCustomer struct {
	CustomerPhone string  `json:"customer_phone"`
	CustomerName  string  `json:"customer_name"`
	OrderCount    int64   `json:"order_count"`
	TotalQuantity int64   `json:"total_quantity"`
	TotalSpent    float64 `json:"total_spent"`
}
