package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the session-scoped pre-order collection. The session id is the
// sole ownership credential, so it has to be unguessable.
type Cart struct {
	ID        string     `bson:"_id,omitempty"`
	SessionID string     `bson:"session_id"`
	Items     []CartItem `bson:"items"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// CartItem holds at most one line per card id, quantity always >= 1.
type CartItem struct {
	CardID   string    `bson:"card_id"`
	Quantity int       `bson:"quantity"`
	AddedAt  time.Time `bson:"added_at"`
}

// CartSummary is a live preview priced with current catalog prices,
// distinct from the frozen prices on an order.
type CartSummary struct {
	Items      []CartSummaryItem `json:"items"`
	TotalItems int               `json:"total_items"`
	Subtotal   decimal.Decimal   `json:"subtotal"`
}

type CartSummaryItem struct {
	CardID   string          `json:"card_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}
