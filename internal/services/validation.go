package services

import (
	"math"
	"strings"
	"unicode/utf8"

	"flashsale-system/internal/models"
)

const maxFlashSaleNameLen = 200

// ValidateFlashSaleData checks a create payload and accumulates every
// violation instead of stopping at the first one.
func ValidateFlashSaleData(req *models.CreateFlashSaleRequest) []string {
	var violations []string

	if strings.TrimSpace(req.Name) == "" {
		violations = append(violations, "flash sale name must not be empty")
	}
	// Length is counted in characters, not bytes; names are Vietnamese.
	if utf8.RuneCountInString(req.Name) > maxFlashSaleNameLen {
		violations = append(violations, "flash sale name must be at most 200 characters")
	}

	if req.StartTime == 0 {
		violations = append(violations, "start time is required")
	}
	if req.EndTime == 0 {
		violations = append(violations, "end time is required")
	}
	if req.StartTime != 0 && req.EndTime != 0 && req.EndTime <= req.StartTime {
		violations = append(violations, "end time must be after start time")
	}

	if req.Status != "" && !models.ValidFlashSaleStatus(req.Status) {
		violations = append(violations, "invalid status")
	}

	return violations
}

// ValidateFlashSaleProductData checks a line-item payload. productPrice is the
// catalog price, used when the payload omits original_price.
func ValidateFlashSaleProductData(req *models.AddFlashSaleProductRequest, productPrice float64) []string {
	var violations []string

	if req.ProductID == 0 {
		violations = append(violations, "product id is required")
	}

	if req.FlashPrice == nil {
		violations = append(violations, "flash price is required")
	} else {
		if *req.FlashPrice < 0 {
			violations = append(violations, "flash price must be non-negative")
		}
		originalPrice := productPrice
		if req.OriginalPrice != nil {
			originalPrice = *req.OriginalPrice
		}
		if *req.FlashPrice >= originalPrice {
			violations = append(violations, "flash price must be lower than the original price")
		}
	}

	if req.StockLimit != nil && *req.StockLimit <= 0 {
		violations = append(violations, "stock limit must be greater than zero")
	}

	return violations
}

// DiscountPercentage computes the rounded percentage discount of flashPrice
// relative to originalPrice.
func DiscountPercentage(originalPrice, flashPrice float64) int {
	if originalPrice <= 0 {
		return 0
	}
	return int(math.Round((originalPrice - flashPrice) / originalPrice * 100))
}
