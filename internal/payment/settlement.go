package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/billionairedev24/royal-grace-cards/internal/order"
)

// CartClearer removes the originating cart after settlement. Clearing
// an already gone cart is fine.
type CartClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// Notifier sends the order confirmation. Fire and forget from the
// settlement's perspective, a failed notification never rolls back a
// completed payment.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, o *domain.Order) error
}

type checkoutEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string            `json:"id"`
			PaymentStatus string            `json:"payment_status"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// Settler reconciles asynchronous provider events onto orders. The
// provider may deliver the same event late, duplicated, or out of
// order relative to client polling, so everything here has to be
// idempotent.
type Settler struct {
	orders        order.Repository
	carts         CartClearer
	notifier      Notifier
	webhookSecret string
}

func NewSettler(orders order.Repository, carts CartClearer, notifier Notifier, webhookSecret string) *Settler {
	return &Settler{
		orders:        orders,
		carts:         carts,
		notifier:      notifier,
		webhookSecret: webhookSecret,
	}
}

// HandleWebhook consumes one signed provider event. Signature
// verification happens on the raw bytes before anything is parsed. A
// nil return means the delivery should be acknowledged to the
// provider; per its delivery contract that includes events whose order
// no longer exists, which are logged loudly instead of retried
// forever.
func (s *Settler) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if err := VerifySignature(payload, sigHeader, s.webhookSecret, time.Now()); err != nil {
		log.Printf("SECURITY: dropping webhook with bad signature: %v", err)
		return err
	}

	var event checkoutEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	if event.Type != "checkout.session.completed" {
		log.Printf("ignoring webhook event type %q", event.Type)
		return nil
	}
	if event.Data.Object.PaymentStatus != "paid" {
		log.Printf("ignoring checkout session %s with payment status %q",
			event.Data.Object.ID, event.Data.Object.PaymentStatus)
		return nil
	}

	orderID := event.Data.Object.Metadata["orderId"]
	cartSessionID := event.Data.Object.Metadata["cartSessionId"]
	if orderID == "" {
		log.Printf("webhook for session %s carries no order id, dropping", event.Data.Object.ID)
		return nil
	}

	if err := s.Settle(ctx, orderID, cartSessionID); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			log.Printf("webhook references unknown order %s, acknowledging anyway", orderID)
			return nil
		}
		return err
	}
	return nil
}

// Settle flips the order to COMPLETED, decrements inventory exactly
// once and applies the side effects. Duplicate deliveries and the
// manual operator path both land here, the conditional update in the
// repository makes the whole thing behave as if performed once.
func (s *Settler) Settle(ctx context.Context, orderID, cartSessionID string) error {
	o, err := s.orders.Settle(ctx, orderID)
	if errors.Is(err, order.ErrAlreadySettled) {
		log.Printf("order %s already settled, treating redelivery as no-op", orderID)
		return nil
	}
	if err != nil {
		return err
	}

	if cartSessionID == "" {
		cartSessionID = o.CartSessionID
	}
	if cartSessionID != "" {
		if err := s.carts.Clear(ctx, cartSessionID); err != nil {
			log.Printf("failed to clear cart %s after settling order %s: %v", cartSessionID, orderID, err)
		}
	}

	if err := s.notifier.SendOrderConfirmation(ctx, o); err != nil {
		log.Printf("failed to send confirmation for order %s: %v", orderID, err)
	}

	log.Printf("order %s settled, payment %s", orderID, o.PaymentStatus)
	return nil
}
