package checkout

import (
	"context"
	"fmt"
	"log"

	"github.com/billionairedev24/royal-grace-cards/internal/appconfig"
	"github.com/billionairedev24/royal-grace-cards/internal/catalog"
	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/billionairedev24/royal-grace-cards/internal/order"
	"github.com/billionairedev24/royal-grace-cards/internal/payment"
	"github.com/billionairedev24/royal-grace-cards/internal/pricing"
	"github.com/google/uuid"
)

type RequestItem struct {
	CardID   string `json:"card_id"`
	Quantity int    `json:"quantity"`
}

type Request struct {
	CustomerName    string                 `json:"customer_name"`
	CustomerEmail   string                 `json:"customer_email"`
	CustomerPhone   string                 `json:"customer_phone"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	Items           []RequestItem          `json:"items"`
	PaymentMethod   string                 `json:"payment_method"`
}

type Response struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	Message     string `json:"message,omitempty"`
}

type Service struct {
	orders     order.Repository
	catalog    catalog.Lookup
	config     appconfig.Store
	gateway    payment.Gateway
	successURL string
	cancelURL  string
}

func NewService(orders order.Repository, catalog catalog.Lookup, config appconfig.Store, gateway payment.Gateway, baseURL string) *Service {
	return &Service{
		orders:     orders,
		catalog:    catalog,
		config:     config,
		gateway:    gateway,
		successURL: baseURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  baseURL + "/payment/cancel",
	}
}

// Checkout converts the mutable cart contents into an immutable priced
// order. The order is persisted in state (PENDING, PENDING) before any
// gateway call so a gateway failure never loses it, it stays queryable
// and retryable. Validation failures reject synchronously and leave no
// partial order behind.
func (s *Service) Checkout(ctx context.Context, cartSessionID string, req *Request) (*Response, error) {
	if cartSessionID == "" {
		return nil, ErrCartSessionRequired
	}

	o, err := s.buildOrder(ctx, cartSessionID, req)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if o.PaymentMethod.Offline() {
		return &Response{
			OrderID: o.ID,
			Message: fmt.Sprintf("Order created. Complete payment via %s.", o.PaymentMethod),
		}, nil
	}

	return s.openGatewaySession(ctx, o)
}

// RetryPayment re-initiates the hosted gateway flow for an order whose
// earlier gateway call failed or was abandoned.
func (s *Service) RetryPayment(ctx context.Context, orderID string) (*Response, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus != domain.PaymentPending || o.PaymentMethod.Offline() {
		return nil, ErrOrderNotRetryable
	}
	return s.openGatewaySession(ctx, o)
}

func (s *Service) buildOrder(ctx context.Context, cartSessionID string, req *Request) (*domain.Order, error) {
	if req == nil || req.PaymentMethod == "" {
		return nil, ErrPaymentMethodRequired
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentMethodRequired, err)
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.MethodEnabled(method) {
		return nil, fmt.Errorf("%w: %s", ErrPaymentMethodDisabled, method)
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, reqItem := range req.Items {
		if reqItem.Quantity <= 0 {
			return nil, fmt.Errorf("%w: invalid quantity for card %s", ErrEmptyOrder, reqItem.CardID)
		}

		card, err := s.catalog.FindByID(ctx, reqItem.CardID)
		if err != nil {
			return nil, err
		}

		// The inventory check is a read, not a reservation. Other
		// settlements may still drain inventory between here and this
		// order's own settlement, which clamps instead of failing.
		if card.Inventory < reqItem.Quantity {
			return nil, fmt.Errorf("%w: %s has %d left", ErrInsufficientInventory, card.Name, card.Inventory)
		}

		items = append(items, domain.OrderItem{
			CardID:          card.ID,
			CardName:        card.Name,
			Quantity:        reqItem.Quantity,
			PriceAtPurchase: card.Price,
		})
	}

	quote := pricing.Price(items, cfg)

	return &domain.Order{
		ID:                uuid.NewString(),
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		CustomerPhone:     req.CustomerPhone,
		CartSessionID:     cartSessionID,
		ShippingAddress:   req.ShippingAddress,
		Items:             items,
		Subtotal:          quote.Subtotal,
		ShippingFee:       quote.ShippingFee,
		Total:             quote.Total,
		PaymentMethod:     method,
		PaymentStatus:     domain.PaymentPending,
		FulfillmentStatus: domain.FulfillmentPending,
		TrackingUpdates:   []domain.TrackingUpdate{},
	}, nil
}

func (s *Service) openGatewaySession(ctx context.Context, o *domain.Order) (*Response, error) {
	session, err := s.gateway.CreateCheckoutSession(ctx, o, s.successURL, s.cancelURL)
	if err != nil {
		log.Printf("gateway session failed for order %s, order stays pending: %v", o.ID, err)
		return nil, err
	}

	if err := s.orders.SetPaymentSession(ctx, o.ID, session.ID); err != nil {
		return nil, fmt.Errorf("failed to record payment session: %w", err)
	}

	return &Response{
		OrderID:     o.ID,
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}
