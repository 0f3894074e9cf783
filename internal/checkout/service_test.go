package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/billionairedev24/royal-grace-cards/internal/catalog"
	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/billionairedev24/royal-grace-cards/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCards() map[string]*domain.Card {
	return map[string]*domain.Card{
		"card-1": {
			ID:        "card-1",
			Name:      "Birthday Card",
			Price:     decimal.RequireFromString("3.25"),
			Inventory: 10,
			InStock:   true,
		},
		"card-2": {
			ID:        "card-2",
			Name:      "Anniversary Card",
			Price:     decimal.RequireFromString("7.00"),
			Inventory: 2,
			InStock:   true,
		},
	}
}

func enabledConfig() *domain.AppConfig {
	return &domain.AppConfig{
		StandardShippingFee:   decimal.RequireFromString("4.80"),
		FreeShippingThreshold: decimal.RequireFromString("50.00"),
		StripeEnabled:         true,
		ZelleEnabled:          true,
		CashappEnabled:        true,
	}
}

func validRequest(method string) *Request {
	return &Request{
		CustomerName:  "Jamie Buyer",
		CustomerEmail: "jamie@example.com",
		ShippingAddress: domain.ShippingAddress{
			Street: "1 Main St", City: "Austin", State: "TX", ZipCode: "78701",
		},
		Items: []RequestItem{
			{CardID: "card-1", Quantity: 2},
			{CardID: "card-2", Quantity: 1},
		},
		PaymentMethod: method,
	}
}

func TestCheckout_Stripe_CreatesOrderAndSession(t *testing.T) {
	repo := &MockOrderRepository{}
	gw := &MockGateway{Session: &payment.Session{ID: "cs_123", URL: "https://pay.example.com/cs_123"}}
	svc := newTestService(repo, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: enabledConfig()}, gw)

	resp, err := svc.Checkout(context.Background(), "cart-session-1", validRequest("STRIPE"))

	require.NoError(t, err)
	assert.Equal(t, "cs_123", resp.SessionID)
	assert.Equal(t, "https://pay.example.com/cs_123", resp.RedirectURL)

	o := repo.CreatedOrder
	require.NotNil(t, o)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "cart-session-1", o.CartSessionID)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	assert.Equal(t, domain.FulfillmentPending, o.FulfillmentStatus)

	// Prices are frozen from the catalog, totals derive from them
	assert.True(t, o.Subtotal.Equal(decimal.RequireFromString("13.50")), "subtotal %s", o.Subtotal)
	assert.True(t, o.ShippingFee.Equal(decimal.RequireFromString("4.80")))
	assert.True(t, o.Total.Equal(o.Subtotal.Add(o.ShippingFee)))
	assert.True(t, o.Items[0].PriceAtPurchase.Equal(decimal.RequireFromString("3.25")))

	assert.Equal(t, o.ID, repo.SessionOrderID)
	assert.Equal(t, "cs_123", repo.SessionID)
}

func TestCheckout_OfflineMethod_SkipsGateway(t *testing.T) {
	repo := &MockOrderRepository{}
	gw := &MockGateway{}
	svc := newTestService(repo, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: enabledConfig()}, gw)

	resp, err := svc.Checkout(context.Background(), "cart-session-1", validRequest("ZELLE"))

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Message)
	assert.Empty(t, resp.RedirectURL)
	assert.Equal(t, 0, gw.Calls)
	require.NotNil(t, repo.CreatedOrder)
	assert.Equal(t, domain.PaymentMethodZelle, repo.CreatedOrder.PaymentMethod)
	assert.Equal(t, domain.PaymentPending, repo.CreatedOrder.PaymentStatus)
}

func TestCheckout_MissingCartSession(t *testing.T) {
	svc := newTestService(&MockOrderRepository{}, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: enabledConfig()}, &MockGateway{})

	_, err := svc.Checkout(context.Background(), "", validRequest("STRIPE"))
	assert.ErrorIs(t, err, ErrCartSessionRequired)
}

func TestCheckout_EmptyItems(t *testing.T) {
	repo := &MockOrderRepository{}
	svc := newTestService(repo, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: enabledConfig()}, &MockGateway{})

	req := validRequest("STRIPE")
	req.Items = nil

	_, err := svc.Checkout(context.Background(), "cart-session-1", req)
	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Nil(t, repo.CreatedOrder)
}

func TestCheckout_UnknownPaymentMethod(t *testing.T) {
	svc := newTestService(&MockOrderRepository{}, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: enabledConfig()}, &MockGateway{})

	req := validRequest("PAYPAL")
	_, err := svc.Checkout(context.Background(), "cart-session-1", req)
	assert.ErrorIs(t, err, ErrPaymentMethodRequired)
}

func TestCheckout_DisabledMethod(t *testing.T) {
	cfg := enabledConfig()
	cfg.ZelleEnabled = false
	repo := &MockOrderRepository{}
	svc := newTestService(repo, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: cfg}, &MockGateway{})

	_, err := svc.Checkout(context.Background(), "cart-session-1", validRequest("ZELLE"))
	assert.ErrorIs(t, err, ErrPaymentMethodDisabled)
	assert.Nil(t, repo.CreatedOrder)
}

func TestCheckout_UnknownCard(t *testing.T) {
	repo := &MockOrderRepository{}
	svc := newTestService(repo, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: enabledConfig()}, &MockGateway{})

	req := validRequest("STRIPE")
	req.Items = []RequestItem{{CardID: "ghost", Quantity: 1}}

	_, err := svc.Checkout(context.Background(), "cart-session-1", req)
	assert.ErrorIs(t, err, catalog.ErrCardNotFound)
	assert.Nil(t, repo.CreatedOrder)
}

func TestCheckout_InsufficientInventory_NoOrderPersisted(t *testing.T) {
	repo := &MockOrderRepository{}
	svc := newTestService(repo, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: enabledConfig()}, &MockGateway{})

	req := validRequest("STRIPE")
	req.Items = []RequestItem{{CardID: "card-2", Quantity: 3}} // only 2 left

	_, err := svc.Checkout(context.Background(), "cart-session-1", req)
	assert.ErrorIs(t, err, ErrInsufficientInventory)
	assert.Nil(t, repo.CreatedOrder)
}

func TestCheckout_NonPositiveQuantity(t *testing.T) {
	svc := newTestService(&MockOrderRepository{}, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: enabledConfig()}, &MockGateway{})

	req := validRequest("STRIPE")
	req.Items = []RequestItem{{CardID: "card-1", Quantity: 0}}

	_, err := svc.Checkout(context.Background(), "cart-session-1", req)
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCheckout_GatewayFailure_OrderSurvives(t *testing.T) {
	repo := &MockOrderRepository{}
	gw := &MockGateway{Err: payment.ErrGateway}
	svc := newTestService(repo, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: enabledConfig()}, gw)

	_, err := svc.Checkout(context.Background(), "cart-session-1", validRequest("STRIPE"))

	assert.ErrorIs(t, err, payment.ErrGateway)
	// The order was persisted before the gateway call and stays pending
	require.NotNil(t, repo.CreatedOrder)
	assert.Equal(t, domain.PaymentPending, repo.CreatedOrder.PaymentStatus)
}

func TestRetryPayment_PendingStripeOrder(t *testing.T) {
	pending := &domain.Order{
		ID:            "order-1",
		PaymentMethod: domain.PaymentMethodStripe,
		PaymentStatus: domain.PaymentPending,
	}
	repo := &MockOrderRepository{StoredOrder: pending}
	gw := &MockGateway{Session: &payment.Session{ID: "cs_456", URL: "https://pay.example.com/cs_456"}}
	svc := newTestService(repo, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: enabledConfig()}, gw)

	resp, err := svc.RetryPayment(context.Background(), "order-1")

	require.NoError(t, err)
	assert.Equal(t, "cs_456", resp.SessionID)
	assert.Equal(t, "cs_456", repo.SessionID)
}

func TestRetryPayment_CompletedOrder(t *testing.T) {
	repo := &MockOrderRepository{StoredOrder: &domain.Order{
		ID:            "order-1",
		PaymentMethod: domain.PaymentMethodStripe,
		PaymentStatus: domain.PaymentCompleted,
	}}
	svc := newTestService(repo, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: enabledConfig()}, &MockGateway{})

	_, err := svc.RetryPayment(context.Background(), "order-1")
	assert.ErrorIs(t, err, ErrOrderNotRetryable)
}

func TestRetryPayment_OfflineOrder(t *testing.T) {
	repo := &MockOrderRepository{StoredOrder: &domain.Order{
		ID:            "order-1",
		PaymentMethod: domain.PaymentMethodCashapp,
		PaymentStatus: domain.PaymentPending,
	}}
	svc := newTestService(repo, &MockCatalog{Cards: testCards()}, &MockConfigStore{Config: enabledConfig()}, &MockGateway{})

	_, err := svc.RetryPayment(context.Background(), "order-1")
	assert.ErrorIs(t, err, ErrOrderNotRetryable)
}

func TestCheckout_ConfigLoadFailure(t *testing.T) {
	svc := newTestService(&MockOrderRepository{}, &MockCatalog{Cards: testCards()},
		&MockConfigStore{Err: errors.New("db down")}, &MockGateway{})

	_, err := svc.Checkout(context.Background(), "cart-session-1", validRequest("STRIPE"))
	assert.Error(t, err)
}
