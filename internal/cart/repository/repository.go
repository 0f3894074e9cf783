package repository

import (
	"context"
	"errors"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// CartRepository defines the interface for cart data operations.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	IncrementItem(ctx context.Context, sessionID, cardID string) error
	SetItemQuantity(ctx context.Context, sessionID, cardID string, quantity int) error
	RemoveItem(ctx context.Context, sessionID, cardID string) error
	DeleteCart(ctx context.Context, sessionID string) error
	DeleteIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
}
