package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/checkout"
	"github.com/billionairedev24/royal-grace-cards/internal/payment"
	"github.com/go-chi/chi/v5"
)

type CheckoutHandler struct {
	checkout *checkout.Service
	qr       *payment.QRService
	cookie   SessionCookie
	timeout  time.Duration
}

func NewCheckoutHandler(checkoutSvc *checkout.Service, qr *payment.QRService, cookie SessionCookie, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkoutSvc,
		qr:       qr,
		cookie:   cookie,
		timeout:  timeout,
	}
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	resp, err := h.checkout.Checkout(ctx, h.cookie.Read(r), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *CheckoutHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp, err := h.checkout.RetryPayment(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

type QRCodeRequestDTO struct {
	OrderID string `json:"order_id"`
}

func (h *CheckoutHandler) GenerateQRCodes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req QRCodeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "order_id is required")
		return
	}

	resp, err := h.qr.GenerateQRCodes(ctx, req.OrderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
