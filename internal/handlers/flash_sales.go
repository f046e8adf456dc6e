package handlers

import (
	"encoding/json"
	"net/http"

	"flashsale-system/internal/logger"
	"flashsale-system/internal/models"
)

const flashSalesPrefix = "/api/flash-sales/"

// FlashSaleHandler serves the campaign endpoints.
type FlashSaleHandler struct {
	service   FlashSaleManager
	publisher EventPublisher
	log       *logger.Logger
}

// NewFlashSaleHandler creates a campaign handler. publisher may be nil.
func NewFlashSaleHandler(service FlashSaleManager, publisher EventPublisher, log *logger.Logger) *FlashSaleHandler {
	return &FlashSaleHandler{
		service:   service,
		publisher: publisher,
		log:       log,
	}
}

// List returns every campaign with aggregates, newest first.
func (h *FlashSaleHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sales, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list flash sales")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"flashSales": sales,
	})
}

// ListActive returns the storefront view of currently running campaigns.
func (h *FlashSaleHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sales, err := h.service.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list active flash sales")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"flashSales": sales,
	})
}

// Get returns one campaign.
func (h *FlashSaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractIDFromPath(r.URL.Path, flashSalesPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get flash sale")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"flashSale": sale,
	})
}

// Create creates a campaign.
func (h *FlashSaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateFlashSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sale, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create flash sale")
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishFlashSaleCreated(sale); err != nil {
			h.log.WithError(err).Warn("Failed to publish flash sale created event")
		}
	}

	writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"message":   "Flash sale created",
		"flashSale": sale,
	})
}

// Update partially updates a campaign.
func (h *FlashSaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractIDFromPath(r.URL.Path, flashSalesPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.UpdateFlashSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sale, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update flash sale")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Flash sale updated",
		"flashSale": sale,
	})
}

// Delete removes a campaign and its line items.
func (h *FlashSaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractIDFromPath(r.URL.Path, flashSalesPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete flash sale")
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishFlashSaleDeleted(id); err != nil {
			h.log.WithError(err).Warn("Failed to publish flash sale deleted event")
		}
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Flash sale deleted",
	})
}

// SetStatus force-sets the campaign status.
func (h *FlashSaleHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := extractIDFromPath(r.URL.Path, flashSalesPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.UpdateFlashSaleStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	oldStatus, err := h.service.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update flash sale status")
		return
	}

	if h.publisher != nil && oldStatus != req.Status {
		if err := h.publisher.PublishFlashSaleStatusChanged(id, oldStatus, req.Status); err != nil {
			h.log.WithError(err).Warn("Failed to publish status change event")
		}
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Flash sale status updated",
		"status":  req.Status,
	})
}
