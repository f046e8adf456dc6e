package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"flashsale-system/internal/apperror"
	"flashsale-system/internal/database"
	"flashsale-system/internal/logger"
	"flashsale-system/internal/models"
	"flashsale-system/internal/redis"

	"github.com/lib/pq"
)

// PurchaseService records confirmed flash-sale purchases and enforces the
// per-customer limits.
type PurchaseService struct {
	db    *database.DB
	cache cacheStore
	log   *logger.Logger
}

// NewPurchaseService creates a purchase service. cache may be nil.
func NewPurchaseService(db *database.DB, cache *redis.Client, log *logger.Logger) *PurchaseService {
	s := &PurchaseService{db: db, log: log}
	if cache != nil {
		s.cache = cache
	}
	return s
}

const purchaseColumns = `id, flash_sale_id, flash_sale_product_id, order_id, customer_phone, customer_name, quantity, flash_price, total_amount, purchased_at_unix`

// CanPurchase answers whether a customer may buy quantity units of a line
// item right now, and how much headroom is left.
func (s *PurchaseService) CanPurchase(ctx context.Context, flashSaleProductID int64, customerPhone string, quantity int64) (*models.PurchaseEligibility, error) {
	if quantity <= 0 {
		return nil, apperror.Validation("quantity must be greater than zero", nil)
	}
	if strings.TrimSpace(customerPhone) == "" {
		return nil, apperror.Validation("customer phone is required", nil)
	}

	var (
		stockLimit     *int64
		soldCount      int64
		maxPerCustomer *int64
		status         models.FlashSaleStatus
		startTime      int64
		endTime        int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT fsp.stock_limit, fsp.sold_count, fsp.max_per_customer,
		       fs.status, fs.start_time, fs.end_time
		FROM flash_sale_products fsp
		JOIN flash_sales fs ON fsp.flash_sale_id = fs.id
		WHERE fsp.id = $1 AND fsp.is_active = TRUE`, flashSaleProductID).Scan(
		&stockLimit, &soldCount, &maxPerCustomer, &status, &startTime, &endTime)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("flash sale product not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flash sale product: %w", err)
	}

	now := time.Now().Unix()
	if status != models.FlashSaleStatusActive || now < startTime || now >= endTime {
		return &models.PurchaseEligibility{Allowed: false, Reason: "flash sale is not active"}, nil
	}

	eligibility := &models.PurchaseEligibility{Allowed: true}
	if stockLimit != nil {
		remaining := *stockLimit - soldCount
		eligibility.Remaining = &remaining
		if quantity > remaining {
			eligibility.Allowed = false
			eligibility.Reason = "insufficient flash sale stock"
			return eligibility, nil
		}
	}

	if maxPerCustomer != nil {
		already, err := s.purchasedQuantity(ctx, s.db.DB, flashSaleProductID, customerPhone)
		if err != nil {
			return nil, err
		}
		canStillBuy := *maxPerCustomer - already
		if canStillBuy < 0 {
			canStillBuy = 0
		}
		eligibility.AlreadyPurchased = &already
		eligibility.CanStillBuy = &canStillBuy
		eligibility.MaxPerCustomer = maxPerCustomer
		if quantity > canStillBuy {
			eligibility.Allowed = false
			eligibility.Reason = "per-customer purchase limit reached"
		}
	}
	return eligibility, nil
}

// Record stores a confirmed purchase. The stock and per-customer checks and
// the sold counter bump happen in one transaction so a concurrent burst
// cannot oversell.
func (s *PurchaseService) Record(ctx context.Context, req *models.RecordPurchaseRequest) (*models.FlashSalePurchase, error) {
	var violations []string
	if req.FlashSaleID == 0 {
		violations = append(violations, "flash sale id is required")
	}
	if req.FlashSaleProductID == 0 {
		violations = append(violations, "flash sale product id is required")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		violations = append(violations, "order id is required")
	}
	if strings.TrimSpace(req.CustomerPhone) == "" {
		violations = append(violations, "customer phone is required")
	}
	if req.Quantity <= 0 {
		violations = append(violations, "quantity must be greater than zero")
	}
	if req.FlashPrice < 0 {
		violations = append(violations, "flash price must be non-negative")
	}
	if len(violations) > 0 {
		return nil, apperror.ValidationList(violations)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		flashSaleID    int64
		maxPerCustomer *int64
		status         models.FlashSaleStatus
		startTime      int64
		endTime        int64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT fsp.flash_sale_id, fsp.max_per_customer, fs.status, fs.start_time, fs.end_time
		FROM flash_sale_products fsp
		JOIN flash_sales fs ON fsp.flash_sale_id = fs.id
		WHERE fsp.id = $1 AND fsp.is_active = TRUE
		FOR UPDATE OF fsp`, req.FlashSaleProductID).Scan(
		&flashSaleID, &maxPerCustomer, &status, &startTime, &endTime)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("flash sale product not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flash sale product: %w", err)
	}

	if flashSaleID != req.FlashSaleID {
		return nil, apperror.Validation("flash sale id does not match the product", nil)
	}

	now := time.Now().Unix()
	if status != models.FlashSaleStatusActive || now < startTime || now >= endTime {
		return nil, apperror.Conflict("flash sale is not active", nil)
	}

	if maxPerCustomer != nil {
		already, err := s.purchasedQuantity(ctx, tx, req.FlashSaleProductID, req.CustomerPhone)
		if err != nil {
			return nil, err
		}
		if already+req.Quantity > *maxPerCustomer {
			return nil, apperror.Conflict("per-customer purchase limit reached", nil)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE flash_sale_products
		SET sold_count = sold_count + $1, updated_at_unix = $2
		WHERE id = $3 AND (stock_limit IS NULL OR sold_count + $1 <= stock_limit)`,
		req.Quantity, now, req.FlashSaleProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to increment sold count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, apperror.Conflict("insufficient flash sale stock", nil)
	}

	purchase := &models.FlashSalePurchase{
		FlashSaleID:        req.FlashSaleID,
		FlashSaleProductID: req.FlashSaleProductID,
		OrderID:            req.OrderID,
		CustomerPhone:      req.CustomerPhone,
		CustomerName:       req.CustomerName,
		Quantity:           req.Quantity,
		FlashPrice:         req.FlashPrice,
		TotalAmount:        req.FlashPrice * float64(req.Quantity),
		PurchasedAt:        now,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO flash_sale_purchases (flash_sale_id, flash_sale_product_id, order_id, customer_phone, customer_name, quantity, flash_price, total_amount, purchased_at_unix)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		purchase.FlashSaleID, purchase.FlashSaleProductID, purchase.OrderID,
		purchase.CustomerPhone, purchase.CustomerName, purchase.Quantity,
		purchase.FlashPrice, purchase.TotalAmount, purchase.PurchasedAt).Scan(&purchase.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			return nil, apperror.Conflict("purchase already recorded for this order", err)
		}
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	s.invalidateCaches(ctx)
	s.log.WithFields(map[string]interface{}{
		"order_id":              purchase.OrderID,
		"flash_sale_product_id": purchase.FlashSaleProductID,
		"quantity":              purchase.Quantity,
	}).Info("Flash sale purchase recorded")
	return purchase, nil
}

// CustomerPurchases returns a customer's purchase history, optionally scoped
// to one campaign (flashSaleID 0 means all).
func (s *PurchaseService) CustomerPurchases(ctx context.Context, customerPhone string, flashSaleID int64) ([]models.PurchaseHistoryEntry, error) {
	if strings.TrimSpace(customerPhone) == "" {
		return nil, apperror.Validation("customer phone is required", nil)
	}

	query := `
		SELECT p.id, p.flash_sale_id, p.flash_sale_product_id, p.order_id, p.customer_phone,
		       p.customer_name, p.quantity, p.flash_price, p.total_amount, p.purchased_at_unix,
		       fs.name, fs.start_time, fs.end_time, fsp.product_id, pr.name, pr.image_url
		FROM flash_sale_purchases p
		JOIN flash_sales fs ON p.flash_sale_id = fs.id
		JOIN flash_sale_products fsp ON p.flash_sale_product_id = fsp.id
		LEFT JOIN products pr ON fsp.product_id = pr.id
		WHERE p.customer_phone = $1`
	args := []interface{}{customerPhone}
	if flashSaleID > 0 {
		query += ` AND p.flash_sale_id = $2`
		args = append(args, flashSaleID)
	}
	query += ` ORDER BY p.purchased_at_unix DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer purchases: %w", err)
	}
	defer rows.Close()

	entries := make([]models.PurchaseHistoryEntry, 0)
	for rows.Next() {
		var e models.PurchaseHistoryEntry
		if err := rows.Scan(&e.ID, &e.FlashSaleID, &e.FlashSaleProductID, &e.OrderID,
			&e.CustomerPhone, &e.CustomerName, &e.Quantity, &e.FlashPrice, &e.TotalAmount,
			&e.PurchasedAt, &e.FlashSaleName, &e.StartTime, &e.EndTime,
			&e.ProductID, &e.ProductName, &e.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats aggregates a campaign's confirmed purchases and returns the top ten
// customers by spend.
func (s *PurchaseService) Stats(ctx context.Context, flashSaleID int64) (*models.PurchaseStats, []models.TopCustomer, error) {
	var exists int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM flash_sales WHERE id = $1`, flashSaleID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, nil, apperror.NotFound("flash sale not found", err)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load flash sale: %w", err)
	}

	var stats models.PurchaseStats
	var first, last sql.NullInt64
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT customer_phone), COUNT(*),
		       COALESCE(SUM(quantity), 0), COALESCE(SUM(total_amount), 0),
		       COALESCE(AVG(quantity), 0),
		       MIN(purchased_at_unix), MAX(purchased_at_unix)
		FROM flash_sale_purchases
		WHERE flash_sale_id = $1`, flashSaleID).Scan(
		&stats.UniqueCustomers, &stats.TotalOrders, &stats.TotalQuantitySold,
		&stats.TotalRevenue, &stats.AvgQuantityPerOrder, &first, &last)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load purchase stats: %w", err)
	}
	if first.Valid {
		stats.FirstPurchase = &first.Int64
	}
	if last.Valid {
		stats.LastPurchase = &last.Int64
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_phone, MAX(customer_name),
		       COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total_amount), 0)
		FROM flash_sale_purchases
		WHERE flash_sale_id = $1
		GROUP BY customer_phone
		ORDER BY SUM(total_amount) DESC
		LIMIT 10`, flashSaleID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load top customers: %w", err)
	}
	defer rows.Close()

	top := make([]models.TopCustomer, 0)
	for rows.Next() {
		var c models.TopCustomer
		if err := rows.Scan(&c.CustomerPhone, &c.CustomerName, &c.OrderCount,
			&c.TotalQuantity, &c.TotalSpent); err != nil {
			return nil, nil, fmt.Errorf("failed to scan top customer: %w", err)
		}
		top = append(top, c)
	}
	return &stats, top, rows.Err()
}

// Cancel deletes a purchase by order id and hands its quantity back to the
// line item. The counter never drops below zero.
func (s *PurchaseService) Cancel(ctx context.Context, orderID string) (*models.FlashSalePurchase, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperror.Validation("order id is required", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var p models.FlashSalePurchase
	err = tx.QueryRowContext(ctx,
		`SELECT `+purchaseColumns+` FROM flash_sale_purchases WHERE order_id = $1 FOR UPDATE`, orderID).Scan(
		&p.ID, &p.FlashSaleID, &p.FlashSaleProductID, &p.OrderID, &p.CustomerPhone,
		&p.CustomerName, &p.Quantity, &p.FlashPrice, &p.TotalAmount, &p.PurchasedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("purchase not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE flash_sale_products
		SET sold_count = GREATEST(0, sold_count - $1), updated_at_unix = $2
		WHERE id = $3`,
		p.Quantity, time.Now().Unix(), p.FlashSaleProductID); err != nil {
		return nil, fmt.Errorf("failed to restore sold count: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM flash_sale_purchases WHERE id = $1`, p.ID); err != nil {
		return nil, fmt.Errorf("failed to delete purchase: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	s.invalidateCaches(ctx)
	s.log.WithFields(map[string]interface{}{
		"order_id": p.OrderID,
		"quantity": p.Quantity,
	}).Info("Flash sale purchase cancelled")
	return &p, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *PurchaseService) purchasedQuantity(ctx context.Context, q queryRower, flashSaleProductID int64, customerPhone string) (int64, error) {
	var total int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM flash_sale_purchases
		WHERE flash_sale_product_id = $1 AND customer_phone = $2`,
		flashSaleProductID, customerPhone).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to load purchased quantity: %w", err)
	}
	return total, nil
}

func (s *PurchaseService) invalidateCaches(ctx context.Context) {
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
