package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodStripe  PaymentMethod = "STRIPE"
	PaymentMethodZelle   PaymentMethod = "ZELLE"
	PaymentMethodCashapp PaymentMethod = "CASHAPP"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentMethodStripe, PaymentMethodZelle, PaymentMethodCashapp:
		return PaymentMethod(s), nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// Offline methods are settled out of band by an operator status update,
// not by the gateway adapter.
func (m PaymentMethod) Offline() bool {
	return m == PaymentMethodZelle || m == PaymentMethodCashapp
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentCompleted, PaymentFailed},
	PaymentFailed:  {PaymentPending},
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) String() string { return string(s) }

type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "PENDING"
	FulfillmentProcessing FulfillmentStatus = "PROCESSING"
	FulfillmentShipped    FulfillmentStatus = "SHIPPED"
	FulfillmentDelivered  FulfillmentStatus = "DELIVERED"
)

var fulfillmentRank = map[FulfillmentStatus]int{
	FulfillmentPending:    0,
	FulfillmentProcessing: 1,
	FulfillmentShipped:    2,
	FulfillmentDelivered:  3,
}

// Fulfillment only moves forward. Skipping a stage is allowed, an
// operator may mark a pending order shipped directly.
func (s FulfillmentStatus) CanTransitionTo(next FulfillmentStatus) bool {
	cur, ok := fulfillmentRank[s]
	if !ok {
		return false
	}
	n, ok := fulfillmentRank[next]
	if !ok {
		return false
	}
	return n > cur
}

func (s FulfillmentStatus) String() string { return string(s) }

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

// OrderItem freezes the catalog price at purchase time. It is never
// re-derived from the catalog after the order is created.
type OrderItem struct {
	CardID          string          `json:"card_id"`
	CardName        string          `json:"card_name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

type TrackingUpdate struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Order is the durable record of the transaction. It is created once in
// state (PENDING, PENDING) and never deleted. Monetary fields are
// derived and persisted at creation, client input is not trusted for
// them afterwards.
type Order struct {
	ID                string            `json:"id"`
	CustomerName      string            `json:"customer_name"`
	CustomerEmail     string            `json:"customer_email"`
	CustomerPhone     string            `json:"customer_phone,omitempty"`
	CartSessionID     string            `json:"-"`
	PaymentSessionID  string            `json:"payment_session_id,omitempty"`
	ShippingAddress   ShippingAddress   `json:"shipping_address"`
	Items             []OrderItem       `json:"items"`
	Subtotal          decimal.Decimal   `json:"subtotal"`
	ShippingFee       decimal.Decimal   `json:"shipping_fee"`
	Total             decimal.Decimal   `json:"total"`
	PaymentMethod     PaymentMethod     `json:"payment_method"`
	PaymentStatus     PaymentStatus     `json:"payment_status"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status"`
	TrackingCode      string            `json:"tracking_code,omitempty"`
	TrackingUpdates   []TrackingUpdate  `json:"tracking_updates"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
