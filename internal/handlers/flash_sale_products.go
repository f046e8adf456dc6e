package handlers

import (
	"encoding/json"
	"net/http"

	"flashsale-system/internal/logger"
	"flashsale-system/internal/models"
)

const (
	flashSaleProductsPrefix = "/api/flash-sale-products/"
	productsPrefix          = "/api/products/"
)

// FlashSaleProductHandler serves the line-item and eligibility endpoints.
type FlashSaleProductHandler struct {
	service FlashSaleProductManager
	log     *logger.Logger
}

// NewFlashSaleProductHandler creates a line-item handler.
func NewFlashSaleProductHandler(service FlashSaleProductManager, log *logger.Logger) *FlashSaleProductHandler {
	return &FlashSaleProductHandler{
		service: service,
		log:     log,
	}
}

// ListProducts returns a campaign's line items with catalog data.
func (h *FlashSaleProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	flashSaleID, err := extractIDFromPath(r.URL.Path, flashSalesPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.service.ListProducts(r.Context(), flashSaleID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list flash sale products")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"products": products,
	})
}

// Add inserts one product into a campaign.
func (h *FlashSaleProductHandler) Add(w http.ResponseWriter, r *http.Request) {
	flashSaleID, err := extractIDFromPath(r.URL.Path, flashSalesPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.AddFlashSaleProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.Add(r.Context(), flashSaleID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to add product to flash sale")
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Product added to flash sale",
		"product": product,
	})
}

// AddMany inserts a batch of products best-effort and reports the outcome.
func (h *FlashSaleProductHandler) AddMany(w http.ResponseWriter, r *http.Request) {
	flashSaleID, err := extractIDFromPath(r.URL.Path, flashSalesPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Products []models.AddFlashSaleProductRequest `json:"products"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.service.AddMany(r.Context(), flashSaleID, req.Products)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to bulk add products")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Bulk add finished",
		"added":   outcome.Added,
		"failed":  outcome.Failed,
		"results": outcome.Results,
		"errors":  outcome.Errors,
	})
}

// Replace atomically swaps a campaign's line items.
func (h *FlashSaleProductHandler) Replace(w http.ResponseWriter, r *http.Request) {
	flashSaleID, err := extractIDFromPath(r.URL.Path, flashSalesPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.ReplaceProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.service.Replace(r.Context(), flashSaleID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to replace flash sale products")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "Flash sale products replaced",
		"deletedCount": outcome.DeletedCount,
		"addedCount":   outcome.AddedCount,
	})
}

// RemoveAll deletes every line item of a campaign.
func (h *FlashSaleProductHandler) RemoveAll(w http.ResponseWriter, r *http.Request) {
	flashSaleID, err := extractIDFromPath(r.URL.Path, flashSalesPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := h.service.RemoveAll(r.Context(), flashSaleID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to remove flash sale products")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "Flash sale products removed",
		"deletedCount": deleted,
	})
}

// Update partially updates one line item.
func (h *FlashSaleProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractIDFromPath(r.URL.Path, flashSaleProductsPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.UpdateFlashSaleProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update flash sale product")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Flash sale product updated",
		"product": product,
	})
}

// Remove deletes one line item.
func (h *FlashSaleProductHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractIDFromPath(r.URL.Path, flashSaleProductsPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "Failed to remove flash sale product")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Product removed from flash sale",
	})
}

// IncrementSold bumps the sold counter for one line item.
func (h *FlashSaleProductHandler) IncrementSold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractIDFromPath(r.URL.Path, flashSaleProductsPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.IncrementSoldCount(r.Context(), id, req.Quantity)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to increment sold count")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"product": product,
	})
}

// Stats returns the line-item aggregates of a campaign.
func (h *FlashSaleProductHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	flashSaleID, err := extractIDFromPath(r.URL.Path, flashSalesPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.service.Stats(r.Context(), flashSaleID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load flash sale stats")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// CheckProduct answers the storefront eligibility question for one product.
func (h *FlashSaleProductHandler) CheckProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	productID, err := extractIDFromPath(r.URL.Path, productsPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	eligibility, err := h.service.CheckProduct(r.Context(), productID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to check flash sale eligibility")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"inFlashSale":      eligibility.InFlashSale,
		"flashSaleProduct": eligibility.Product,
	})
}
