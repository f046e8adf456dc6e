package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"flashsale-system/internal/apperror"
	"flashsale-system/internal/config"
	"flashsale-system/internal/database"
	"flashsale-system/internal/logger"
	"flashsale-system/internal/models"
	"flashsale-system/internal/redis"
)

// cacheStore is the slice of the Redis client the services need. Nil means
// caching is disabled.
type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// FlashSaleService manages flash-sale campaigns.
type FlashSaleService struct {
	db        *database.DB
	cache     cacheStore
	activeTTL time.Duration
	log       *logger.Logger
}

// NewFlashSaleService creates a campaign service. cache may be nil.
func NewFlashSaleService(db *database.DB, cache *redis.Client, cacheCfg *config.CacheConfig, log *logger.Logger) *FlashSaleService {
	s := &FlashSaleService{
		db:        db,
		activeTTL: 30 * time.Second,
		log:       log,
	}
	if cache != nil {
		s.cache = cache
	}
	if cacheCfg != nil && cacheCfg.ActiveTTLSeconds > 0 {
		s.activeTTL = time.Duration(cacheCfg.ActiveTTLSeconds) * time.Second
	}
	return s
}

const flashSaleColumns = `id, name, description, start_time, end_time, status, is_visible, banner_image, created_at_unix, updated_at_unix`

// AutoTransition moves campaigns whose window boundaries have passed into
// their time-correct status: scheduled becomes active once the window opens,
// and anything whose window has closed becomes ended. Every read path calls
// this before querying so clients never observe a stale status.
func (s *FlashSaleService) AutoTransition(ctx context.Context) error {
	now := time.Now().Unix()

	if _, err := s.db.ExecContext(ctx,
		`UPDATE flash_sales SET status = 'active', updated_at_unix = $1
		 WHERE status = 'scheduled' AND start_time <= $1 AND end_time > $1`, now); err != nil {
		return fmt.Errorf("failed to activate scheduled flash sales: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE flash_sales SET status = 'ended', updated_at_unix = $1
		 WHERE status IN ('active', 'scheduled') AND end_time <= $1`, now); err != nil {
		return fmt.Errorf("failed to end expired flash sales: %w", err)
	}

	return nil
}

// List returns every campaign, newest first, with per-campaign aggregates
// over active line items.
func (s *FlashSaleService) List(ctx context.Context) ([]models.FlashSaleSummary, error) {
	if err := s.AutoTransition(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fs.id, fs.name, fs.description, fs.start_time, fs.end_time, fs.status,
		       fs.is_visible, fs.banner_image, fs.created_at_unix, fs.updated_at_unix,
		       COUNT(fsp.id) AS product_count,
		       COALESCE(SUM(fsp.sold_count), 0) AS total_sold
		FROM flash_sales fs
		LEFT JOIN flash_sale_products fsp ON fs.id = fsp.flash_sale_id AND fsp.is_active = TRUE
		GROUP BY fs.id
		ORDER BY fs.created_at_unix DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list flash sales: %w", err)
	}
	defer rows.Close()

	return scanFlashSaleSummaries(rows)
}

// ListActive returns campaigns the storefront should show right now: active,
// visible and inside their window, soonest-ending first. Results are cached
// briefly since this is the hottest read.
func (s *FlashSaleService) ListActive(ctx context.Context) ([]models.FlashSaleSummary, error) {
	cacheKey := redis.GenerateKey(redis.KeyPrefixActiveSales, "all")
	if s.cache != nil {
		var cached []models.FlashSaleSummary
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	if err := s.AutoTransition(ctx); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	rows, err := s.db.QueryContext(ctx, `
		SELECT fs.id, fs.name, fs.description, fs.start_time, fs.end_time, fs.status,
		       fs.is_visible, fs.banner_image, fs.created_at_unix, fs.updated_at_unix,
		       COUNT(fsp.id) AS product_count,
		       COALESCE(SUM(fsp.sold_count), 0) AS total_sold
		FROM flash_sales fs
		LEFT JOIN flash_sale_products fsp ON fs.id = fsp.flash_sale_id AND fsp.is_active = TRUE
		WHERE fs.status = 'active' AND fs.is_visible = TRUE
		  AND fs.start_time <= $1 AND fs.end_time > $1
		GROUP BY fs.id
		ORDER BY fs.end_time ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active flash sales: %w", err)
	}
	defer rows.Close()

	sales, err := scanFlashSaleSummaries(rows)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		// the cached list must not outlive its soonest-ending campaign
		ttl := s.activeTTL
		if len(sales) > 0 {
			ttl = capToWindow(ttl, sales[0].EndTime, now)
		}
		if ttl > 0 {
			if err := s.cache.Set(ctx, cacheKey, sales, ttl); err != nil {
				s.log.WithError(err).Warn("Failed to cache active flash sales")
			}
		}
	}
	return sales, nil
}

// capToWindow bounds a cache TTL by the time left until endTime.
func capToWindow(ttl time.Duration, endTime, now int64) time.Duration {
	remaining := time.Duration(endTime-now) * time.Second
	if remaining < ttl {
		return remaining
	}
	return ttl
}

// Get returns one campaign by id.
func (s *FlashSaleService) Get(ctx context.Context, id int64) (*models.FlashSale, error) {
	if err := s.AutoTransition(ctx); err != nil {
		return nil, err
	}

	var sale models.FlashSale
	err := s.db.QueryRowContext(ctx,
		`SELECT `+flashSaleColumns+` FROM flash_sales WHERE id = $1`, id).Scan(
		&sale.ID, &sale.Name, &sale.Description, &sale.StartTime, &sale.EndTime,
		&sale.Status, &sale.IsVisible, &sale.BannerImage, &sale.CreatedAt, &sale.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("flash sale not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flash sale: %w", err)
	}
	return &sale, nil
}

// Create validates and inserts a campaign. A requested scheduled/active status
// is overridden by the actual time window; draft and cancelled are kept as is.
func (s *FlashSaleService) Create(ctx context.Context, req *models.CreateFlashSaleRequest) (*models.FlashSale, error) {
	if violations := ValidateFlashSaleData(req); len(violations) > 0 {
		return nil, apperror.ValidationList(violations)
	}

	now := time.Now().Unix()
	status := req.Status
	if status == "" {
		status = models.FlashSaleStatusDraft
	}
	if status == models.FlashSaleStatusScheduled || status == models.FlashSaleStatusActive {
		switch {
		case req.EndTime <= now:
			status = models.FlashSaleStatusEnded
		case req.StartTime <= now:
			status = models.FlashSaleStatusActive
		default:
			status = models.FlashSaleStatusScheduled
		}
	}

	isVisible := true
	if req.IsVisible != nil {
		isVisible = *req.IsVisible
	}

	sale := &models.FlashSale{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      status,
		IsVisible:   isVisible,
		BannerImage: req.BannerImage,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO flash_sales (name, description, start_time, end_time, status, is_visible, banner_image, created_at_unix, updated_at_unix)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		sale.Name, sale.Description, sale.StartTime, sale.EndTime, sale.Status,
		sale.IsVisible, sale.BannerImage, sale.CreatedAt, sale.UpdatedAt).Scan(&sale.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create flash sale: %w", err)
	}

	s.invalidateCaches(ctx)
	s.log.WithFields(map[string]interface{}{
		"flash_sale_id": sale.ID,
		"status":        sale.Status,
	}).Info("Flash sale created")
	return sale, nil
}

// Update applies a partial update. The merged time window (stored values
// overlaid with provided ones) must stay ordered, and campaigns that have
// ended or were cancelled cannot be edited.
func (s *FlashSaleService) Update(ctx context.Context, id int64, req *models.UpdateFlashSaleRequest) (*models.FlashSale, error) {
	if req.IsEmpty() {
		return nil, apperror.Validation("no fields to update", nil)
	}

	var existing models.FlashSale
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, start_time, end_time FROM flash_sales WHERE id = $1`, id).Scan(
		&existing.ID, &existing.Status, &existing.StartTime, &existing.EndTime)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("flash sale not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flash sale: %w", err)
	}

	if !editableStatus(existing.Status) {
		return nil, apperror.Conflict(
			fmt.Sprintf("cannot edit a flash sale with status %q", existing.Status), nil)
	}

	var violations []string
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			violations = append(violations, "flash sale name must not be empty")
		}
		if utf8.RuneCountInString(*req.Name) > maxFlashSaleNameLen {
			violations = append(violations, "flash sale name must be at most 200 characters")
		}
	}
	if req.Status != nil && !models.ValidFlashSaleStatus(*req.Status) {
		violations = append(violations, "invalid status")
	}

	startTime := existing.StartTime
	if req.StartTime != nil {
		startTime = *req.StartTime
	}
	endTime := existing.EndTime
	if req.EndTime != nil {
		endTime = *req.EndTime
	}
	if endTime <= startTime {
		violations = append(violations, "end time must be after start time")
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

	if req.Name != nil {
		addSet("name", strings.TrimSpace(*req.Name))
	}
	if req.Description != nil {
		addSet("description", *req.Description)
	}
	if req.StartTime != nil {
		addSet("start_time", *req.StartTime)
	}
	if req.EndTime != nil {
		addSet("end_time", *req.EndTime)
	}
	if req.Status != nil {
		addSet("status", *req.Status)
	}
	if req.IsVisible != nil {
		addSet("is_visible", *req.IsVisible)
	}
	if req.BannerImage != nil {
		addSet("banner_image", *req.BannerImage)
	}
	addSet("updated_at_unix", time.Now().Unix())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE flash_sales SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update flash sale: %w", err)
	}

	s.invalidateCaches(ctx)
	s.log.WithField("flash_sale_id", id).Info("Flash sale updated")
	return s.Get(ctx, id)
}

// Delete removes a campaign and, via the FK cascade, its line items. Active
// campaigns must be ended or cancelled first.
func (s *FlashSaleService) Delete(ctx context.Context, id int64) error {
	ok, reason, err := s.CanDelete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Conflict(reason, nil)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM flash_sales WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete flash sale: %w", err)
	}

	s.invalidateCaches(ctx)
	s.log.WithField("flash_sale_id", id).Info("Flash sale deleted")
	return nil
}

// SetStatus force-sets the campaign status and returns the previous one.
// Unlike Update it is not guarded, so operators can always pull a campaign
// out of any state.
func (s *FlashSaleService) SetStatus(ctx context.Context, id int64, status models.FlashSaleStatus) (models.FlashSaleStatus, error) {
	if !models.ValidFlashSaleStatus(status) {
		return "", apperror.Validation("invalid status", nil)
	}

	var old models.FlashSaleStatus
	err := s.db.QueryRowContext(ctx, `SELECT status FROM flash_sales WHERE id = $1`, id).Scan(&old)
	if err == sql.ErrNoRows {
		return "", apperror.NotFound("flash sale not found", err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load flash sale status: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE flash_sales SET status = $1, updated_at_unix = $2 WHERE id = $3`,
		status, time.Now().Unix(), id); err != nil {
		return "", fmt.Errorf("failed to update flash sale status: %w", err)
	}

	s.invalidateCaches(ctx)
	s.log.WithFields(map[string]interface{}{
		"flash_sale_id": id,
		"old_status":    old,
		"new_status":    status,
	}).Info("Flash sale status changed")
	return old, nil
}

// CanDelete reports whether a campaign may be deleted right now.
func (s *FlashSaleService) CanDelete(ctx context.Context, id int64) (bool, string, error) {
	status, err := s.status(ctx, id)
	if err != nil {
		return false, "", err
	}
	if status == models.FlashSaleStatusActive {
		return false, "cannot delete an active flash sale; end or cancel it first", nil
	}
	return true, "", nil
}

// CanEdit reports whether a campaign may still be edited.
func (s *FlashSaleService) CanEdit(ctx context.Context, id int64) (bool, string, error) {
	status, err := s.status(ctx, id)
	if err != nil {
		return false, "", err
	}
	if !editableStatus(status) {
		return false, fmt.Sprintf("cannot edit a flash sale with status %q", status), nil
	}
	return true, "", nil
}

// CheckTimeConflicts returns the planned campaigns (scheduled or active)
// whose window overlaps [startTime, endTime) for the given product.
// excludeFlashSaleID skips one campaign, 0 skips none.
func (s *FlashSaleService) CheckTimeConflicts(ctx context.Context, productID, startTime, endTime, excludeFlashSaleID int64) ([]models.TimeConflict, error) {
	// The three disjuncts cover every overlap of half-open windows: the
	// existing window contains the new start, contains the new end, or lies
	// entirely inside the new one. Adjacent windows (end == start) never
	// match because both boundary comparisons are strict.
	query := `
		SELECT fs.id, fs.name, fs.start_time, fs.end_time
		FROM flash_sale_products fsp
		JOIN flash_sales fs ON fsp.flash_sale_id = fs.id
		WHERE fsp.product_id = $1 AND fsp.is_active = TRUE
		  AND fs.status IN ('scheduled', 'active')
		  AND ((fs.start_time <= $2 AND fs.end_time > $2)
		    OR (fs.start_time < $3 AND fs.end_time >= $3)
		    OR (fs.start_time >= $2 AND fs.end_time <= $3))`
	args := []interface{}{productID, startTime, endTime}
	if excludeFlashSaleID > 0 {
		query += ` AND fs.id != $4`
		args = append(args, excludeFlashSaleID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check time conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []models.TimeConflict
	for rows.Next() {
		var c models.TimeConflict
		if err := rows.Scan(&c.FlashSaleID, &c.Name, &c.StartTime, &c.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan time conflict: %w", err)
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func (s *FlashSaleService) status(ctx context.Context, id int64) (models.FlashSaleStatus, error) {
	var status models.FlashSaleStatus
	err := s.db.QueryRowContext(ctx, `SELECT status FROM flash_sales WHERE id = $1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return "", apperror.NotFound("flash sale not found", err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load flash sale status: %w", err)
	}
	return status, nil
}

func (s *FlashSaleService) invalidateCaches(ctx context.Context) {
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

func editableStatus(status models.FlashSaleStatus) bool {
	return status != models.FlashSaleStatusEnded && status != models.FlashSaleStatusCancelled
}

func scanFlashSaleSummaries(rows *sql.Rows) ([]models.FlashSaleSummary, error) {
	sales := make([]models.FlashSaleSummary, 0)
	for rows.Next() {
		var s models.FlashSaleSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.StartTime, &s.EndTime,
			&s.Status, &s.IsVisible, &s.BannerImage, &s.CreatedAt, &s.UpdatedAt,
			&s.ProductCount, &s.TotalSold); err != nil {
			return nil, fmt.Errorf("failed to scan flash sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}
