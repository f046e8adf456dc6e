package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"flashsale-system/internal/logger"
	"flashsale-system/internal/models"
)

const purchasesPrefix = "/api/purchases/"

// PurchaseHandler serves the purchase-tracking endpoints.
type PurchaseHandler struct {
	service   PurchaseManager
	publisher EventPublisher
	log       *logger.Logger
}

// NewPurchaseHandler creates a purchase handler. publisher may be nil.
func NewPurchaseHandler(service PurchaseManager, publisher EventPublisher, log *logger.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		service:   service,
		publisher: publisher,
		log:       log,
	}
}

// CanPurchase checks stock and per-customer limits before checkout. Denials
// come back as 400 with the reason and remaining headroom.
func (h *PurchaseHandler) CanPurchase(w http.ResponseWriter, r *http.Request) {
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
		CustomerPhone string `json:"customer_phone"`
		Quantity      int64  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	eligibility, err := h.service.CanPurchase(r.Context(), id, req.CustomerPhone, req.Quantity)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to check purchase eligibility")
		return
	}

	statusCode := http.StatusOK
	if !eligibility.Allowed {
		statusCode = http.StatusBadRequest
	}
	writeJSONResponse(w, statusCode, map[string]interface{}{
		"success":          eligibility.Allowed,
		"allowed":          eligibility.Allowed,
		"reason":           eligibility.Reason,
		"remaining":        eligibility.Remaining,
		"alreadyPurchased": eligibility.AlreadyPurchased,
		"canStillBuy":      eligibility.CanStillBuy,
		"maxPerCustomer":   eligibility.MaxPerCustomer,
	})
}

// Record stores a confirmed purchase.
func (h *PurchaseHandler) Record(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.RecordPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	purchase, err := h.service.Record(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to record purchase")
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishPurchaseRecorded(models.PurchaseEventData{
			FlashSaleID:        purchase.FlashSaleID,
			FlashSaleProductID: purchase.FlashSaleProductID,
			OrderID:            purchase.OrderID,
			Quantity:           purchase.Quantity,
		}); err != nil {
			h.log.WithError(err).Warn("Failed to publish purchase recorded event")
		}
	}

	writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"message":  "Purchase recorded",
		"purchase": purchase,
	})
}

// History returns a customer's purchases, optionally scoped to one campaign.
func (h *PurchaseHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	phone := r.URL.Query().Get("customer_phone")
	var flashSaleID int64
	if raw := r.URL.Query().Get("flash_sale_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			writeErrorResponse(w, http.StatusBadRequest, "invalid flash_sale_id")
			return
		}
		flashSaleID = v
	}

	purchases, err := h.service.CustomerPurchases(r.Context(), phone, flashSaleID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load purchase history")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"purchases": purchases,
		"total":     len(purchases),
	})
}

// Stats returns a campaign's purchase aggregates and top customers.
func (h *PurchaseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	flashSaleID, err := extractIDFromPath(r.URL.Path, flashSalesPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, topCustomers, err := h.service.Stats(r.Context(), flashSaleID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load purchase stats")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"stats":        stats,
		"topCustomers": topCustomers,
	})
}

// Cancel removes a purchase by order id and restores its stock.
func (h *PurchaseHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractSegmentFromPath(r.URL.Path, purchasesPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	purchase, err := h.service.Cancel(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to cancel purchase")
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishPurchaseCancelled(models.PurchaseEventData{
			FlashSaleID:        purchase.FlashSaleID,
			FlashSaleProductID: purchase.FlashSaleProductID,
			OrderID:            purchase.OrderID,
			Quantity:           purchase.Quantity,
		}); err != nil {
			h.log.WithError(err).Warn("Failed to publish purchase cancelled event")
		}
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Purchase cancelled",
		"purchase": purchase,
	})
}
