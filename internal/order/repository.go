package order

import (
	"context"
	"errors"

	"github.com/billionairedev24/royal-grace-cards/internal/domain"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrAlreadySettled    = errors.New("order payment already completed")
	ErrIllegalTransition = errors.New("illegal status transition")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Repository is defined by its consumers (checkout, settlement, the
// HTTP layer), not by the Postgres implementation.
type Repository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByPaymentSessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.Order, error)
	SetPaymentSession(ctx context.Context, orderID, paymentSessionID string) error

	// Settle flips payment status PENDING -> COMPLETED and decrements
	// inventory for every line, clamped at zero, in one transaction.
	// The conditional update guarantees only one caller wins; losers
	// get ErrAlreadySettled.
	Settle(ctx context.Context, orderID string) (*domain.Order, error)

	MarkPaymentFailed(ctx context.Context, orderID string) error
	UpdateFulfillmentStatus(ctx context.Context, orderID string, next domain.FulfillmentStatus) error
	AddTracking(ctx context.Context, orderID, trackingCode string, update *domain.TrackingUpdate) error
}
