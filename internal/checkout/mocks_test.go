package checkout

import (
	"context"

	"github.com/billionairedev24/royal-grace-cards/internal/catalog"
	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/billionairedev24/royal-grace-cards/internal/payment"
)

// MockOrderRepository implements order.Repository for testing
type MockOrderRepository struct {
	CreatedOrder   *domain.Order // Captures the order passed to Create
	CreateErr      error
	StoredOrder    *domain.Order
	GetErr         error
	SessionOrderID string
	SessionID      string
	SetSessionErr  error
}

func (m *MockOrderRepository) Create(_ context.Context, o *domain.Order) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.CreatedOrder = o
	return nil
}

func (m *MockOrderRepository) GetByID(_ context.Context, _ string) (*domain.Order, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.StoredOrder, nil
}

func (m *MockOrderRepository) GetByPaymentSessionID(_ context.Context, _ string) (*domain.Order, error) {
	return m.StoredOrder, m.GetErr
}

func (m *MockOrderRepository) ListByEmail(_ context.Context, _ string) ([]*domain.Order, error) {
	return nil, nil
}

func (m *MockOrderRepository) SetPaymentSession(_ context.Context, orderID, sessionID string) error {
	if m.SetSessionErr != nil {
		return m.SetSessionErr
	}
	m.SessionOrderID = orderID
	m.SessionID = sessionID
	return nil
}

func (m *MockOrderRepository) Settle(_ context.Context, _ string) (*domain.Order, error) {
	return m.StoredOrder, nil
}

func (m *MockOrderRepository) MarkPaymentFailed(_ context.Context, _ string) error { return nil }

func (m *MockOrderRepository) UpdateFulfillmentStatus(_ context.Context, _ string, _ domain.FulfillmentStatus) error {
	return nil
}

func (m *MockOrderRepository) AddTracking(_ context.Context, _, _ string, _ *domain.TrackingUpdate) error {
	return nil
}

// MockCatalog implements catalog.Lookup for testing
type MockCatalog struct {
	Cards map[string]*domain.Card
	Err   error
}

func (m *MockCatalog) FindByID(_ context.Context, id string) (*domain.Card, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	card, ok := m.Cards[id]
	if !ok {
		return nil, catalog.ErrCardNotFound
	}
	return card, nil
}

// MockConfigStore implements appconfig.Store for testing
type MockConfigStore struct {
	Config *domain.AppConfig
	Err    error
}

func (m *MockConfigStore) Get(_ context.Context) (*domain.AppConfig, error) {
	return m.Config, m.Err
}

// MockGateway implements payment.Gateway for testing
type MockGateway struct {
	Session *payment.Session
	Err     error
	Calls   int
}

func (m *MockGateway) CreateCheckoutSession(_ context.Context, _ *domain.Order, _, _ string) (*payment.Session, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Session, nil
}

func newTestService(repo *MockOrderRepository, cat *MockCatalog, cfg *MockConfigStore, gw *MockGateway) *Service {
	return NewService(repo, cat, cfg, gw, "https://shop.example.com")
}
