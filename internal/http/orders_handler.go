package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/billionairedev24/royal-grace-cards/internal/order"
	"github.com/billionairedev24/royal-grace-cards/internal/payment"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	orders  order.Repository
	settler *payment.Settler
	timeout time.Duration
}

func NewOrdersHandler(orders order.Repository, settler *payment.Settler, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		settler: settler,
		timeout: timeout,
	}
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.orders.GetByID(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) ListByEmail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	email := r.URL.Query().Get("email")
	if email == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "email query parameter is required")
		return
	}

	orders, err := h.orders.ListByEmail(ctx, email)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

type UpdateStatusRequestDTO struct {
	PaymentStatus     string `json:"payment_status,omitempty"`
	FulfillmentStatus string `json:"fulfillment_status,omitempty"`
}

// UpdateStatus is the operator path. Marking payment COMPLETED for an
// offline method routes through the settler, so it shares the
// conditional flip with the webhook and a race between the two still
// decrements inventory at most once.
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	switch domain.PaymentStatus(req.PaymentStatus) {
	case domain.PaymentCompleted:
		if err := h.settler.Settle(ctx, orderID, ""); err != nil {
			handleServiceError(w, err)
			return
		}
	case domain.PaymentFailed:
		if err := h.orders.MarkPaymentFailed(ctx, orderID); err != nil {
			handleServiceError(w, err)
			return
		}
	case "":
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "unknown payment status")
		return
	}

	if req.FulfillmentStatus != "" {
		next := domain.FulfillmentStatus(req.FulfillmentStatus)
		if err := h.orders.UpdateFulfillmentStatus(ctx, orderID, next); err != nil {
			handleServiceError(w, err)
			return
		}
	}

	o, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

type TrackingRequestDTO struct {
	TrackingCode string `json:"tracking_code,omitempty"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
}

func (h *OrdersHandler) AddTracking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")

	var req TrackingRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "status is required")
		return
	}

	update := &domain.TrackingUpdate{
		Status:    req.Status,
		Message:   req.Message,
		Timestamp: time.Now(),
	}
	if err := h.orders.AddTracking(ctx, orderID, req.TrackingCode, update); err != nil {
		handleServiceError(w, err)
		return
	}

	o, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}
