package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"flashsale-system/internal/apperror"
	"flashsale-system/internal/config"
	"flashsale-system/internal/database"
	"flashsale-system/internal/logger"
	"flashsale-system/internal/models"
	"flashsale-system/internal/redis"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

const flashSaleProductColumns = `id, flash_sale_id, product_id, original_price, flash_price, discount_percentage, stock_limit, sold_count, max_per_customer, is_active, created_at_unix, updated_at_unix`

// FlashSaleProductService manages the line items inside campaigns and answers
// the storefront eligibility question.
type FlashSaleProductService struct {
	db             *database.DB
	sales          *FlashSaleService
	cache          cacheStore
	eligibilityTTL time.Duration
	log            *logger.Logger
}

// NewFlashSaleProductService creates a line-item service. cache may be nil.
func NewFlashSaleProductService(db *database.DB, sales *FlashSaleService, cache *redis.Client, cacheCfg *config.CacheConfig, log *logger.Logger) *FlashSaleProductService {
	s := &FlashSaleProductService{
		db:             db,
		sales:          sales,
		eligibilityTTL: 15 * time.Second,
		log:            log,
	}
	if cache != nil {
		s.cache = cache
	}
	if cacheCfg != nil && cacheCfg.EligibilityTTLSeconds > 0 {
		s.eligibilityTTL = time.Duration(cacheCfg.EligibilityTTLSeconds) * time.Second
	}
	return s
}

// campaignWindow is the slice of a campaign the line-item operations need.
type campaignWindow struct {
	ID        int64
	StartTime int64
	EndTime   int64
}

// ListProducts returns a campaign's line items joined with catalog data.
// Categories are fetched in one batched query rather than per product.
func (s *FlashSaleProductService) ListProducts(ctx context.Context, flashSaleID int64) ([]models.FlashSaleProductDetail, error) {
	if _, err := s.campaign(ctx, flashSaleID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fsp.id, fsp.flash_sale_id, fsp.product_id, fsp.original_price, fsp.flash_price,
		       fsp.discount_percentage, fsp.stock_limit, fsp.sold_count, fsp.max_per_customer,
		       fsp.is_active, fsp.created_at_unix, fsp.updated_at_unix,
		       p.name, p.image_url, p.sku
		FROM flash_sale_products fsp
		JOIN products p ON fsp.product_id = p.id
		WHERE fsp.flash_sale_id = $1
		ORDER BY fsp.created_at_unix DESC`, flashSaleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flash sale products: %w", err)
	}
	defer rows.Close()

	details := make([]models.FlashSaleProductDetail, 0)
	var productIDs []int64
	for rows.Next() {
		var d models.FlashSaleProductDetail
		if err := rows.Scan(&d.ID, &d.FlashSaleID, &d.ProductID, &d.OriginalPrice, &d.FlashPrice,
			&d.DiscountPercentage, &d.StockLimit, &d.SoldCount, &d.MaxPerCustomer,
			&d.IsActive, &d.CreatedAt, &d.UpdatedAt,
			&d.ProductName, &d.ImageURL, &d.SKU); err != nil {
			return nil, fmt.Errorf("failed to scan flash sale product: %w", err)
		}
		d.Categories = []models.ProductCategory{}
		details = append(details, d)
		productIDs = append(productIDs, d.ProductID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	categories, err := s.categoriesFor(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	for i := range details {
		if cats, ok := categories[details[i].ProductID]; ok {
			details[i].Categories = cats
		}
	}
	return details, nil
}

func (s *FlashSaleProductService) categoriesFor(ctx context.Context, productIDs []int64) (map[int64][]models.ProductCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pc.product_id, c.id, c.name
		FROM product_categories pc
		JOIN categories c ON pc.category_id = c.id
		WHERE pc.product_id = ANY($1)
		ORDER BY pc.product_id, pc.is_primary DESC, pc.display_order ASC`, pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load product categories: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]models.ProductCategory)
	for rows.Next() {
		var productID int64
		var cat models.ProductCategory
		if err := rows.Scan(&productID, &cat.ID, &cat.Name); err != nil {
			return nil, fmt.Errorf("failed to scan product category: %w", err)
		}
		out[productID] = append(out[productID], cat)
	}
	return out, rows.Err()
}

// Add inserts one line item after checking the campaign, the catalog product,
// duplicates, prices and overlapping campaigns for the same product.
func (s *FlashSaleProductService) Add(ctx context.Context, flashSaleID int64, req *models.AddFlashSaleProductRequest) (*models.FlashSaleProduct, error) {
	campaign, err := s.campaign(ctx, flashSaleID)
	if err != nil {
		return nil, err
	}
	item, _, err := s.addLineItem(ctx, campaign, req)
	if err != nil {
		return nil, err
	}
	s.invalidateCaches(ctx)
	s.log.WithFields(map[string]interface{}{
		"flash_sale_id": flashSaleID,
		"product_id":    req.ProductID,
	}).Info("Product added to flash sale")
	return item, nil
}

// AddMany adds a batch of line items best-effort: each entry succeeds or fails
// on its own and the batch as a whole always reports the outcome.
func (s *FlashSaleProductService) AddMany(ctx context.Context, flashSaleID int64, entries []models.AddFlashSaleProductRequest) (*models.BulkAddOutcome, error) {
	if len(entries) == 0 {
		return nil, apperror.Validation("products must not be empty", nil)
	}
	campaign, err := s.campaign(ctx, flashSaleID)
	if err != nil {
		return nil, err
	}

	outcome := &models.BulkAddOutcome{
		Results: []models.BulkAddResult{},
		Errors:  []models.BulkAddError{},
	}
	for i := range entries {
		entry := &entries[i]
		item, productName, err := s.addLineItem(ctx, campaign, entry)
		if err != nil {
			outcome.Failed++
			outcome.Errors = append(outcome.Errors, models.BulkAddError{
				ProductID: entry.ProductID,
				Error:     err.Error(),
			})
			continue
		}
		outcome.Added++
		outcome.Results = append(outcome.Results, models.BulkAddResult{
			ProductID:   entry.ProductID,
			ProductName: productName,
			ID:          item.ID,
		})
	}

	if outcome.Added > 0 {
		s.invalidateCaches(ctx)
	}
	s.log.WithFields(map[string]interface{}{
		"flash_sale_id": flashSaleID,
		"added":         outcome.Added,
		"failed":        outcome.Failed,
	}).Info("Bulk add to flash sale finished")
	return outcome, nil
}

func (s *FlashSaleProductService) addLineItem(ctx context.Context, campaign *campaignWindow, req *models.AddFlashSaleProductRequest) (*models.FlashSaleProduct, string, error) {
	var productName string
	var productPrice float64
	err := s.db.QueryRowContext(ctx,
		`SELECT name, price FROM products WHERE id = $1`, req.ProductID).Scan(&productName, &productPrice)
	if err == sql.ErrNoRows {
		return nil, "", apperror.NotFound("product not found", err)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load product: %w", err)
	}

	var existingID int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM flash_sale_products WHERE flash_sale_id = $1 AND product_id = $2`,
		campaign.ID, req.ProductID).Scan(&existingID)
	if err == nil {
		return nil, "", apperror.Conflict("product is already in this flash sale", nil)
	}
	if err != sql.ErrNoRows {
		return nil, "", fmt.Errorf("failed to check for duplicate product: %w", err)
	}

	if violations := ValidateFlashSaleProductData(req, productPrice); len(violations) > 0 {
		return nil, "", apperror.ValidationList(violations)
	}

	conflicts, err := s.sales.CheckTimeConflicts(ctx, req.ProductID, campaign.StartTime, campaign.EndTime, campaign.ID)
	if err != nil {
		return nil, "", err
	}
	if len(conflicts) > 0 {
		return nil, "", apperror.Conflict(
			fmt.Sprintf("product is already in overlapping flash sale %q", conflicts[0].Name), nil)
	}

	originalPrice := productPrice
	if req.OriginalPrice != nil {
		originalPrice = *req.OriginalPrice
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	now := time.Now().Unix()

	item := &models.FlashSaleProduct{
		FlashSaleID:        campaign.ID,
		ProductID:          req.ProductID,
		OriginalPrice:      originalPrice,
		FlashPrice:         *req.FlashPrice,
		DiscountPercentage: DiscountPercentage(originalPrice, *req.FlashPrice),
		StockLimit:         req.StockLimit,
		SoldCount:          0,
		MaxPerCustomer:     req.MaxPerCustomer,
		IsActive:           isActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO flash_sale_products (flash_sale_id, product_id, original_price, flash_price, discount_percentage, stock_limit, sold_count, max_per_customer, is_active, created_at_unix, updated_at_unix)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		item.FlashSaleID, item.ProductID, item.OriginalPrice, item.FlashPrice,
		item.DiscountPercentage, item.StockLimit, item.SoldCount, item.MaxPerCustomer,
		item.IsActive, item.CreatedAt, item.UpdatedAt).Scan(&item.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			return nil, "", apperror.Conflict("product is already in this flash sale", err)
		}
		return nil, "", fmt.Errorf("failed to add product to flash sale: %w", err)
	}
	return item, productName, nil
}

// Update applies a partial line-item update. The merged price pair must stay
// ordered and the discount is recomputed when either price changes.
func (s *FlashSaleProductService) Update(ctx context.Context, id int64, req *models.UpdateFlashSaleProductRequest) (*models.FlashSaleProduct, error) {
	if req.IsEmpty() {
		return nil, apperror.Validation("no fields to update", nil)
	}

	existing, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	originalPrice := existing.OriginalPrice
	if req.OriginalPrice != nil {
		originalPrice = *req.OriginalPrice
	}
	flashPrice := existing.FlashPrice
	if req.FlashPrice != nil {
		flashPrice = *req.FlashPrice
	}

	var violations []string
	if flashPrice < 0 {
		violations = append(violations, "flash price must be non-negative")
	}
	if flashPrice >= originalPrice {
		violations = append(violations, "flash price must be lower than the original price")
	}
	if req.StockLimit != nil && *req.StockLimit <= 0 {
		violations = append(violations, "stock limit must be greater than zero")
	}
	if len(violations) > 0 {
		return nil, apperror.ValidationList(violations)
	}

	var sets []string
	var args []interface{}
	addSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.OriginalPrice != nil {
		addSet("original_price", *req.OriginalPrice)
	}
	if req.FlashPrice != nil {
		addSet("flash_price", *req.FlashPrice)
	}
	if req.OriginalPrice != nil || req.FlashPrice != nil {
		addSet("discount_percentage", DiscountPercentage(originalPrice, flashPrice))
	}
	if req.StockLimit != nil {
		addSet("stock_limit", *req.StockLimit)
	}
	if req.MaxPerCustomer != nil {
		addSet("max_per_customer", *req.MaxPerCustomer)
	}
	if req.IsActive != nil {
		addSet("is_active", *req.IsActive)
	}
	addSet("updated_at_unix", time.Now().Unix())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE flash_sale_products SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update flash sale product: %w", err)
	}

	s.invalidateCaches(ctx)
	s.log.WithField("flash_sale_product_id", id).Info("Flash sale product updated")
	return s.getByID(ctx, id)
}

// Remove deletes one line item.
func (s *FlashSaleProductService) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flash_sale_products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove flash sale product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("flash sale product not found", nil)
	}
	s.invalidateCaches(ctx)
	return nil
}

// RemoveAll deletes every line item of a campaign and reports how many rows
// went away. Zero is not an error.
func (s *FlashSaleProductService) RemoveAll(ctx context.Context, flashSaleID int64) (int64, error) {
	if _, err := s.campaign(ctx, flashSaleID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM flash_sale_products WHERE flash_sale_id = $1`, flashSaleID)
	if err != nil {
		return 0, fmt.Errorf("failed to remove flash sale products: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	s.invalidateCaches(ctx)
	return deleted, nil
}

// Replace swaps a campaign's line items for the provided set in one
// transaction: either the full delete-and-insert happens or nothing does.
func (s *FlashSaleProductService) Replace(ctx context.Context, flashSaleID int64, req *models.ReplaceProductsRequest) (*models.ReplaceProductsOutcome, error) {
	if len(req.Products) == 0 {
		return nil, apperror.Validation("products must not be empty", nil)
	}

	var violations []string
	for _, e := range req.Products {
		if e.ProductID == 0 {
			violations = append(violations, "product id is required")
			continue
		}
		if e.FlashPrice < 0 {
			violations = append(violations, fmt.Sprintf("product %d: flash price must be non-negative", e.ProductID))
		}
		if e.FlashPrice >= e.OriginalPrice {
			violations = append(violations, fmt.Sprintf("product %d: flash price must be lower than the original price", e.ProductID))
		}
		if e.StockLimit != nil && *e.StockLimit <= 0 {
			violations = append(violations, fmt.Sprintf("product %d: stock limit must be greater than zero", e.ProductID))
		}
	}
	if len(violations) > 0 {
		return nil, apperror.ValidationList(violations)
	}

	if _, err := s.campaign(ctx, flashSaleID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM flash_sale_products WHERE flash_sale_id = $1`, flashSaleID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear flash sale products: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}

	now := time.Now().Unix()
	for _, e := range req.Products {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO flash_sale_products (flash_sale_id, product_id, original_price, flash_price, discount_percentage, stock_limit, sold_count, max_per_customer, is_active, created_at_unix, updated_at_unix)
			VALUES ($1, $2, $3, $4, $5, $6, 0, $7, TRUE, $8, $8)`,
			flashSaleID, e.ProductID, e.OriginalPrice, e.FlashPrice,
			DiscountPercentage(e.OriginalPrice, e.FlashPrice), e.StockLimit, e.MaxPerCustomer, now)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
				return nil, apperror.Conflict(
					fmt.Sprintf("duplicate product %d in replacement payload", e.ProductID), err)
			}
			return nil, fmt.Errorf("failed to insert flash sale product %d: %w", e.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product replacement: %w", err)
	}

	s.invalidateCaches(ctx)
	s.log.WithFields(map[string]interface{}{
		"flash_sale_id": flashSaleID,
		"deleted":       deleted,
		"added":         len(req.Products),
	}).Info("Flash sale products replaced")
	return &models.ReplaceProductsOutcome{DeletedCount: deleted, AddedCount: len(req.Products)}, nil
}

// CheckProduct answers whether a product is purchasable on flash sale right
// now. When several active campaigns carry the product, the cheapest flash
// price wins. Sold-out line items do not qualify.
func (s *FlashSaleProductService) CheckProduct(ctx context.Context, productID int64) (*models.ProductEligibility, error) {
	cacheKey := redis.GenerateKey(redis.KeyPrefixEligibility, fmt.Sprintf("%d", productID))
	if s.cache != nil {
		var cached models.ProductEligibility
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	if err := s.sales.AutoTransition(ctx); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	var item models.EligibleFlashSaleItem
	err := s.db.QueryRowContext(ctx, `
		SELECT fsp.id, fsp.flash_sale_id, fsp.product_id, fsp.original_price, fsp.flash_price,
		       fsp.discount_percentage, fsp.stock_limit, fsp.sold_count, fsp.max_per_customer,
		       fsp.is_active, fsp.created_at_unix, fsp.updated_at_unix,
		       fs.name, fs.end_time
		FROM flash_sale_products fsp
		JOIN flash_sales fs ON fsp.flash_sale_id = fs.id
		WHERE fsp.product_id = $1 AND fsp.is_active = TRUE
		  AND fs.status = 'active' AND fs.start_time <= $2 AND fs.end_time > $2
		  AND (fsp.stock_limit IS NULL OR fsp.sold_count < fsp.stock_limit)
		ORDER BY fsp.flash_price ASC
		LIMIT 1`, productID, now).Scan(
		&item.ID, &item.FlashSaleID, &item.ProductID, &item.OriginalPrice, &item.FlashPrice,
		&item.DiscountPercentage, &item.StockLimit, &item.SoldCount, &item.MaxPerCustomer,
		&item.IsActive, &item.CreatedAt, &item.UpdatedAt,
		&item.FlashSaleName, &item.EndTime)

	eligibility := &models.ProductEligibility{}
	switch {
	case err == sql.ErrNoRows:
		// not on sale; cache the negative answer too
	case err != nil:
		return nil, fmt.Errorf("failed to check flash sale eligibility: %w", err)
	default:
		eligibility.InFlashSale = true
		eligibility.Product = &item
	}

	if s.cache != nil {
		// a positive answer must not outlive the window it advertises
		ttl := s.eligibilityTTL
		if eligibility.InFlashSale {
			ttl = capToWindow(ttl, item.EndTime, now)
		}
		if ttl > 0 {
			if err := s.cache.Set(ctx, cacheKey, eligibility, ttl); err != nil {
				s.log.WithError(err).Warn("Failed to cache product eligibility")
			}
		}
	}
	return eligibility, nil
}

// IncrementSoldCount bumps a line item's sold counter by quantity. The stock
// guard lives in the UPDATE itself so concurrent calls cannot oversell.
func (s *FlashSaleProductService) IncrementSoldCount(ctx context.Context, id int64, quantity int64) (*models.FlashSaleProduct, error) {
	if quantity <= 0 {
		return nil, apperror.Validation("quantity must be greater than zero", nil)
	}

	var item models.FlashSaleProduct
	err := s.db.QueryRowContext(ctx, `
		UPDATE flash_sale_products
		SET sold_count = sold_count + $1, updated_at_unix = $2
		WHERE id = $3 AND (stock_limit IS NULL OR sold_count + $1 <= stock_limit)
		RETURNING `+flashSaleProductColumns,
		quantity, time.Now().Unix(), id).Scan(
		&item.ID, &item.FlashSaleID, &item.ProductID, &item.OriginalPrice, &item.FlashPrice,
		&item.DiscountPercentage, &item.StockLimit, &item.SoldCount, &item.MaxPerCustomer,
		&item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		var existingID int64
		checkErr := s.db.QueryRowContext(ctx,
			`SELECT id FROM flash_sale_products WHERE id = $1`, id).Scan(&existingID)
		if checkErr == sql.ErrNoRows {
			return nil, apperror.NotFound("flash sale product not found", checkErr)
		}
		if checkErr != nil {
			return nil, fmt.Errorf("failed to load flash sale product: %w", checkErr)
		}
		return nil, apperror.Conflict("insufficient flash sale stock", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment sold count: %w", err)
	}

	s.invalidateCaches(ctx)
	return &item, nil
}

// Stats aggregates a campaign's active line items.
func (s *FlashSaleProductService) Stats(ctx context.Context, flashSaleID int64) (*models.FlashSaleStats, error) {
	if _, err := s.campaign(ctx, flashSaleID); err != nil {
		return nil, err
	}

	var stats models.FlashSaleStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(fsp.id),
		       COALESCE(SUM(fsp.sold_count), 0),
		       COALESCE(SUM(fsp.sold_count * fsp.flash_price), 0),
		       COALESCE(SUM(fsp.sold_count * (fsp.original_price - fsp.flash_price)), 0),
		       COALESCE(AVG(fsp.discount_percentage), 0)
		FROM flash_sale_products fsp
		WHERE fsp.flash_sale_id = $1 AND fsp.is_active = TRUE`, flashSaleID).Scan(
		&stats.TotalProducts, &stats.TotalSold, &stats.TotalRevenue,
		&stats.TotalDiscountGiven, &stats.AvgDiscountPercentage)
	if err != nil {
		return nil, fmt.Errorf("failed to load flash sale stats: %w", err)
	}
	return &stats, nil
}

func (s *FlashSaleProductService) campaign(ctx context.Context, flashSaleID int64) (*campaignWindow, error) {
	var c campaignWindow
	err := s.db.QueryRowContext(ctx,
		`SELECT id, start_time, end_time FROM flash_sales WHERE id = $1`, flashSaleID).Scan(
		&c.ID, &c.StartTime, &c.EndTime)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("flash sale not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flash sale: %w", err)
	}
	return &c, nil
}

func (s *FlashSaleProductService) getByID(ctx context.Context, id int64) (*models.FlashSaleProduct, error) {
	var item models.FlashSaleProduct
	err := s.db.QueryRowContext(ctx,
		`SELECT `+flashSaleProductColumns+` FROM flash_sale_products WHERE id = $1`, id).Scan(
		&item.ID, &item.FlashSaleID, &item.ProductID, &item.OriginalPrice, &item.FlashPrice,
		&item.DiscountPercentage, &item.StockLimit, &item.SoldCount, &item.MaxPerCustomer,
		&item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("flash sale product not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flash sale product: %w", err)
	}
	return &item, nil
}

func (s *FlashSaleProductService) invalidateCaches(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, redis.KeyPrefixActiveSales); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate active flash sale cache")
	}
	if err := s.cache.DeleteByPrefix(ctx, redis.KeyPrefixEligibility); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate eligibility cache")
	}
}
