package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/billionairedev24/royal-grace-cards/internal/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository implements order.Repository for testing
type MockOrderRepository struct {
	SettledOrder *domain.Order
	SettleErr    error
	SettleCalls  int
}

func (m *MockOrderRepository) Create(_ context.Context, _ *domain.Order) error { return nil }

func (m *MockOrderRepository) GetByID(_ context.Context, _ string) (*domain.Order, error) {
	return m.SettledOrder, nil
}

func (m *MockOrderRepository) GetByPaymentSessionID(_ context.Context, _ string) (*domain.Order, error) {
	return m.SettledOrder, nil
}

func (m *MockOrderRepository) ListByEmail(_ context.Context, _ string) ([]*domain.Order, error) {
	return nil, nil
}

func (m *MockOrderRepository) SetPaymentSession(_ context.Context, _, _ string) error { return nil }

func (m *MockOrderRepository) Settle(_ context.Context, _ string) (*domain.Order, error) {
	m.SettleCalls++
	if m.SettleErr != nil {
		return nil, m.SettleErr
	}
	return m.SettledOrder, nil
}

func (m *MockOrderRepository) MarkPaymentFailed(_ context.Context, _ string) error { return nil }

func (m *MockOrderRepository) UpdateFulfillmentStatus(_ context.Context, _ string, _ domain.FulfillmentStatus) error {
	return nil
}

func (m *MockOrderRepository) AddTracking(_ context.Context, _, _ string, _ *domain.TrackingUpdate) error {
	return nil
}

type MockCartClearer struct {
	ClearedSessions []string
	Err             error
}

func (m *MockCartClearer) Clear(_ context.Context, sessionID string) error {
	m.ClearedSessions = append(m.ClearedSessions, sessionID)
	return m.Err
}

type MockNotifier struct {
	SentOrders []string
	Err        error
}

func (m *MockNotifier) SendOrderConfirmation(_ context.Context, o *domain.Order) error {
	m.SentOrders = append(m.SentOrders, o.ID)
	return m.Err
}

func settledOrder() *domain.Order {
	return &domain.Order{
		ID:            "order-1",
		CartSessionID: "cart-session-1",
		CustomerEmail: "buyer@example.com",
		PaymentStatus: domain.PaymentCompleted,
	}
}

func newTestSettler(repo *MockOrderRepository, carts *MockCartClearer, notifier *MockNotifier) *Settler {
	return NewSettler(repo, carts, notifier, testSecret)
}

func TestSettle_WinnerClearsCartAndNotifies(t *testing.T) {
	repo := &MockOrderRepository{SettledOrder: settledOrder()}
	carts := &MockCartClearer{}
	notifier := &MockNotifier{}
	s := newTestSettler(repo, carts, notifier)

	err := s.Settle(context.Background(), "order-1", "cart-session-1")

	require.NoError(t, err)
	assert.Equal(t, 1, repo.SettleCalls)
	assert.Equal(t, []string{"cart-session-1"}, carts.ClearedSessions)
	assert.Equal(t, []string{"order-1"}, notifier.SentOrders)
}

func TestSettle_AlreadySettled_NoSideEffects(t *testing.T) {
	repo := &MockOrderRepository{SettleErr: order.ErrAlreadySettled}
	carts := &MockCartClearer{}
	notifier := &MockNotifier{}
	s := newTestSettler(repo, carts, notifier)

	err := s.Settle(context.Background(), "order-1", "cart-session-1")

	require.NoError(t, err)
	assert.Empty(t, carts.ClearedSessions)
	assert.Empty(t, notifier.SentOrders)
}

func TestSettle_FallsBackToOrderCartSession(t *testing.T) {
	repo := &MockOrderRepository{SettledOrder: settledOrder()}
	carts := &MockCartClearer{}
	s := newTestSettler(repo, carts, &MockNotifier{})

	err := s.Settle(context.Background(), "order-1", "")

	require.NoError(t, err)
	assert.Equal(t, []string{"cart-session-1"}, carts.ClearedSessions)
}

func TestSettle_CartClearFailure_StillSucceeds(t *testing.T) {
	repo := &MockOrderRepository{SettledOrder: settledOrder()}
	carts := &MockCartClearer{Err: errors.New("mongo down")}
	notifier := &MockNotifier{}
	s := newTestSettler(repo, carts, notifier)

	err := s.Settle(context.Background(), "order-1", "cart-session-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"order-1"}, notifier.SentOrders)
}

func TestSettle_NotifierFailure_StillSucceeds(t *testing.T) {
	repo := &MockOrderRepository{SettledOrder: settledOrder()}
	notifier := &MockNotifier{Err: errors.New("kafka down")}
	s := newTestSettler(repo, &MockCartClearer{}, notifier)

	err := s.Settle(context.Background(), "order-1", "cart-session-1")

	require.NoError(t, err)
}

func signedEvent(t *testing.T, body string) ([]byte, string) {
	t.Helper()
	payload := []byte(body)
	return payload, SignPayload(payload, testSecret, time.Now())
}

func TestHandleWebhook_SettlesPaidSession(t *testing.T) {
	repo := &MockOrderRepository{SettledOrder: settledOrder()}
	carts := &MockCartClearer{}
	s := newTestSettler(repo, carts, &MockNotifier{})

	payload, header := signedEvent(t, `{
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_123",
			"payment_status": "paid",
			"metadata": {"orderId": "order-1", "cartSessionId": "cart-session-1"}
		}}
	}`)

	err := s.HandleWebhook(context.Background(), payload, header)

	require.NoError(t, err)
	assert.Equal(t, 1, repo.SettleCalls)
	assert.Equal(t, []string{"cart-session-1"}, carts.ClearedSessions)
}

func TestHandleWebhook_BadSignature_NoStateChange(t *testing.T) {
	repo := &MockOrderRepository{SettledOrder: settledOrder()}
	s := newTestSettler(repo, &MockCartClearer{}, &MockNotifier{})

	payload := []byte(`{"type": "checkout.session.completed"}`)
	err := s.HandleWebhook(context.Background(), payload, "t=123,v1=deadbeef")

	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, 0, repo.SettleCalls)
}

func TestHandleWebhook_IgnoresOtherEventTypes(t *testing.T) {
	repo := &MockOrderRepository{SettledOrder: settledOrder()}
	s := newTestSettler(repo, &MockCartClearer{}, &MockNotifier{})

	payload, header := signedEvent(t, `{"type": "payment_intent.created"}`)
	err := s.HandleWebhook(context.Background(), payload, header)

	require.NoError(t, err)
	assert.Equal(t, 0, repo.SettleCalls)
}

func TestHandleWebhook_IgnoresUnpaidSession(t *testing.T) {
	repo := &MockOrderRepository{SettledOrder: settledOrder()}
	s := newTestSettler(repo, &MockCartClearer{}, &MockNotifier{})

	payload, header := signedEvent(t, `{
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_123", "payment_status": "unpaid",
			"metadata": {"orderId": "order-1"}}}
	}`)
	err := s.HandleWebhook(context.Background(), payload, header)

	require.NoError(t, err)
	assert.Equal(t, 0, repo.SettleCalls)
}

func TestHandleWebhook_MissingOrderID_Acked(t *testing.T) {
	repo := &MockOrderRepository{SettledOrder: settledOrder()}
	s := newTestSettler(repo, &MockCartClearer{}, &MockNotifier{})

	payload, header := signedEvent(t, `{
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_123", "payment_status": "paid", "metadata": {}}}
	}`)
	err := s.HandleWebhook(context.Background(), payload, header)

	require.NoError(t, err)
	assert.Equal(t, 0, repo.SettleCalls)
}

func TestHandleWebhook_UnknownOrder_Acked(t *testing.T) {
	repo := &MockOrderRepository{SettleErr: order.ErrOrderNotFound}
	s := newTestSettler(repo, &MockCartClearer{}, &MockNotifier{})

	payload, header := signedEvent(t, `{
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_123", "payment_status": "paid",
			"metadata": {"orderId": "ghost-order"}}}
	}`)
	err := s.HandleWebhook(context.Background(), payload, header)

	assert.NoError(t, err)
}

func TestHandleWebhook_RepositoryError_Propagates(t *testing.T) {
	repo := &MockOrderRepository{SettleErr: errors.New("db down")}
	s := newTestSettler(repo, &MockCartClearer{}, &MockNotifier{})

	payload, header := signedEvent(t, `{
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_123", "payment_status": "paid",
			"metadata": {"orderId": "order-1"}}}
	}`)
	err := s.HandleWebhook(context.Background(), payload, header)

	assert.Error(t, err)
}
