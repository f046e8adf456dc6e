package models

// FlashSaleStatus represents the lifecycle state of a campaign.
type FlashSaleStatus string

const (
	FlashSaleStatusDraft     FlashSaleStatus = "draft"
	FlashSaleStatusScheduled FlashSaleStatus = "scheduled"
	FlashSaleStatusActive    FlashSaleStatus = "active"
	FlashSaleStatusEnded     FlashSaleStatus = "ended"
	FlashSaleStatusCancelled FlashSaleStatus = "cancelled"
)

// ValidFlashSaleStatus reports whether s is one of the five known statuses.
func ValidFlashSaleStatus(s FlashSaleStatus) bool {
	switch s {
	case FlashSaleStatusDraft, FlashSaleStatusScheduled, FlashSaleStatusActive,
		FlashSaleStatusEnded, FlashSaleStatusCancelled:
		return true
	}
	return false
}

// FlashSale represents a flash-sale campaign. Times are unix seconds; the row
// shape is also the API shape.
type FlashSale struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	StartTime   int64           `json:"start_time" db:"start_time"`
	EndTime     int64           `json:"end_time" db:"end_time"`
	Status      FlashSaleStatus `json:"status" db:"status"`
	IsVisible   bool            `json:"is_visible" db:"is_visible"`
	BannerImage *string         `json:"banner_image,omitempty" db:"banner_image"`
	CreatedAt   int64           `json:"created_at_unix" db:"created_at_unix"`
	UpdatedAt   int64           `json:"updated_at_unix" db:"updated_at_unix"`
}

// FlashSaleSummary is a campaign plus the aggregates the admin list shows.
type FlashSaleSummary struct {
	FlashSale
	ProductCount int64 `json:"product_count"`
	TotalSold    int64 `json:"total_sold"`
}

// CreateFlashSaleRequest is the payload for creating a campaign.
type CreateFlashSaleRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	StartTime   int64           `json:"start_time"`
	EndTime     int64           `json:"end_time"`
	Status      FlashSaleStatus `json:"status,omitempty"`
	IsVisible   *bool           `json:"is_visible,omitempty"`
	BannerImage *string         `json:"banner_image,omitempty"`
}

// UpdateFlashSaleRequest is a partial update: nil fields are left untouched.
type UpdateFlashSaleRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	StartTime   *int64           `json:"start_time,omitempty"`
	EndTime     *int64           `json:"end_time,omitempty"`
	Status      *FlashSaleStatus `json:"status,omitempty"`
	IsVisible   *bool            `json:"is_visible,omitempty"`
	BannerImage *string          `json:"banner_image,omitempty"`
}

// IsEmpty reports whether the update carries no fields at all.
func (r *UpdateFlashSaleRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.StartTime == nil &&
		r.EndTime == nil && r.Status == nil && r.IsVisible == nil && r.BannerImage == nil
}

// UpdateFlashSaleStatusRequest sets only the status field.
type UpdateFlashSaleStatusRequest struct {
	Status FlashSaleStatus `json:"status"`
}

// TimeConflict describes an already-planned campaign whose window overlaps a
// prospective one for the same product.
type TimeConflict struct {
	FlashSaleID int64  `json:"flash_sale_id"`
	Name        string `json:"name"`
	StartTime   int64  `json:"start_time"`
	EndTime     int64  `json:"end_time"`
}
