package models

// FlashSaleProduct is a per-product line item inside a campaign. At most one
// line item may exist per (flash_sale_id, product_id) pair.
type FlashSaleProduct struct {
	ID                 int64   `json:"id" db:"id"`
	FlashSaleID        int64   `json:"flash_sale_id" db:"flash_sale_id"`
	ProductID          int64   `json:"product_id" db:"product_id"`
	OriginalPrice      float64 `json:"original_price" db:"original_price"`
	FlashPrice         float64 `json:"flash_price" db:"flash_price"`
	DiscountPercentage int     `json:"discount_percentage" db:"discount_percentage"`
	StockLimit         *int64  `json:"stock_limit,omitempty" db:"stock_limit"`
	SoldCount          int64   `json:"sold_count" db:"sold_count"`
	MaxPerCustomer     *int64  `json:"max_per_customer,omitempty" db:"max_per_customer"`
	IsActive           bool    `json:"is_active" db:"is_active"`
	CreatedAt          int64   `json:"created_at_unix" db:"created_at_unix"`
	UpdatedAt          int64   `json:"updated_at_unix" db:"updated_at_unix"`
}

// ProductCategory is a category attached to a catalog product.
type ProductCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FlashSaleProductDetail is a line item joined with catalog data for the
// admin product list.
type FlashSaleProductDetail struct {
	FlashSaleProduct
	ProductName string            `json:"product_name"`
	ImageURL    *string           `json:"image_url,omitempty"`
	SKU         *string           `json:"sku,omitempty"`
	Categories  []ProductCategory `json:"categories"`
}

// AddFlashSaleProductRequest adds one product to a campaign. OriginalPrice
// falls back to the catalog price when omitted.
type AddFlashSaleProductRequest struct {
	ProductID      int64    `json:"product_id"`
	OriginalPrice  *float64 `json:"original_price,omitempty"`
	FlashPrice     *float64 `json:"flash_price"`
	StockLimit     *int64   `json:"stock_limit,omitempty"`
	MaxPerCustomer *int64   `json:"max_per_customer,omitempty"`
	IsActive       *bool    `json:"is_active,omitempty"`
}

// UpdateFlashSaleProductRequest is a partial line-item update.
type UpdateFlashSaleProductRequest struct {
	OriginalPrice  *float64 `json:"original_price,omitempty"`
	FlashPrice     *float64 `json:"flash_price,omitempty"`
	StockLimit     *int64   `json:"stock_limit,omitempty"`
	MaxPerCustomer *int64   `json:"max_per_customer,omitempty"`
	IsActive       *bool    `json:"is_active,omitempty"`
}

// IsEmpty reports whether the update carries no fields at all.
func (r *UpdateFlashSaleProductRequest) IsEmpty() bool {
	return r.OriginalPrice == nil && r.FlashPrice == nil && r.StockLimit == nil &&
		r.MaxPerCustomer == nil && r.IsActive == nil
}

// BulkAddResult is the per-entry success record of a best-effort batch add.
type BulkAddResult struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	ID          int64  `json:"id"`
}

// BulkAddError is the per-entry failure record of a best-effort batch add.
type BulkAddError struct {
	ProductID int64  `json:"product_id"`
	Error     string `json:"error"`
}

// BulkAddOutcome summarizes a best-effort batch add: the batch as a whole
// never fails because one entry did.
type BulkAddOutcome struct {
	Added   int             `json:"added"`
	Failed  int             `json:"failed"`
	Results []BulkAddResult `json:"results"`
	Errors  []BulkAddError  `json:"errors"`
}

// ReplaceProductsRequest wholesale-replaces a campaign's line items.
type ReplaceProductsRequest struct {
	Products []ReplaceProductEntry `json:"products"`
}

// ReplaceProductEntry is one row of a bulk replace. Unlike single add, the
// original price is required here (the admin UI always sends both).
type ReplaceProductEntry struct {
	ProductID      int64   `json:"product_id"`
	OriginalPrice  float64 `json:"original_price"`
	FlashPrice     float64 `json:"flash_price"`
	StockLimit     *int64  `json:"stock_limit,omitempty"`
	MaxPerCustomer *int64  `json:"max_per_customer,omitempty"`
}

// ReplaceProductsOutcome reports what an atomic replace did.
type ReplaceProductsOutcome struct {
	DeletedCount int64 `json:"deletedCount"`
	AddedCount   int   `json:"addedCount"`
}

// ProductEligibility answers the storefront "is this product on flash sale
// right now" question.
type ProductEligibility struct {
	InFlashSale bool                   `json:"inFlashSale"`
	Product     *EligibleFlashSaleItem `json:"flashSaleProduct"`
}

// EligibleFlashSaleItem is the best-matching line item for an eligible product.
type EligibleFlashSaleItem struct {
	FlashSaleProduct
	FlashSaleName string `json:"flash_sale_name"`
	EndTime       int64  `json:"end_time"`
}

// FlashSaleStats aggregates active line items of one campaign.
type FlashSaleStats struct {
	TotalProducts         int64   `json:"total_products"`
	TotalSold             int64   `json:"total_sold"`
	TotalRevenue          float64 `json:"total_revenue"`
	TotalDiscountGiven    float64 `json:"total_discount_given"`
	AvgDiscountPercentage float64 `json:"avg_discount_percentage"`
}
