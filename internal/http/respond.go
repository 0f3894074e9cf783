package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/billionairedev24/royal-grace-cards/internal/cart/repository"
	"github.com/billionairedev24/royal-grace-cards/internal/catalog"
	"github.com/billionairedev24/royal-grace-cards/internal/checkout"
	"github.com/billionairedev24/royal-grace-cards/internal/order"
	"github.com/billionairedev24/royal-grace-cards/internal/payment"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps the error taxonomy onto HTTP statuses.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrCardNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, checkout.ErrInsufficientInventory):
		respondError(w, http.StatusConflict, "insufficient_inventory", err.Error())
	case errors.Is(err, checkout.ErrEmptyOrder),
		errors.Is(err, checkout.ErrPaymentMethodRequired),
		errors.Is(err, checkout.ErrPaymentMethodDisabled),
		errors.Is(err, checkout.ErrCartSessionRequired),
		errors.Is(err, checkout.ErrOrderNotRetryable):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, order.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, payment.ErrGateway):
		respondError(w, http.StatusBadGateway, "gateway_error", err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
