package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/payment"
)

const signatureHeader = "Stripe-Signature"

// maxWebhookBody bounds how much of a webhook payload is read.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	settler *payment.Settler
	timeout time.Duration
}

func NewWebhookHandler(settler *payment.Settler, timeout time.Duration) *WebhookHandler {
	return &WebhookHandler{settler: settler, timeout: timeout}
}

// Handle receives provider deliveries. The raw body is handed to the
// settler untouched because the signature covers the exact bytes.
// Anything past signature verification is acknowledged with 200 so the
// provider stops redelivering, per its delivery contract.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read body")
		return
	}

	err = h.settler.HandleWebhook(ctx, payload, r.Header.Get(signatureHeader))
	if errors.Is(err, payment.ErrInvalidSignature) {
		respondError(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}
