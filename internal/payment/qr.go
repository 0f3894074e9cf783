package payment

import (
	"context"

	"github.com/billionairedev24/royal-grace-cards/internal/appconfig"
	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/billionairedev24/royal-grace-cards/internal/order"
	"github.com/shopspring/decimal"
)

// QRCodeResponse carries the offline payment instructions for an
// order. Settlement for these methods is confirmed out of band by an
// operator status update.
type QRCodeResponse struct {
	OrderID string                 `json:"order_id"`
	Total   decimal.Decimal        `json:"total"`
	Methods map[string]Instruction `json:"methods"`
}

type Instruction struct {
	Handle string `json:"handle"`
	Note   string `json:"note,omitempty"`
}

type QRService struct {
	orders order.Repository
	config appconfig.Store
}

func NewQRService(orders order.Repository, config appconfig.Store) *QRService {
	return &QRService{orders: orders, config: config}
}

func (s *QRService) GenerateQRCodes(ctx context.Context, orderID string) (*QRCodeResponse, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}

	methods := map[string]Instruction{}
	if cfg.ZelleEnabled {
		methods[string(domain.PaymentMethodZelle)] = Instruction{
			Handle: cfg.ZelleEmail,
			Note:   "include order id " + o.ID + " in the memo",
		}
	}
	if cfg.CashappEnabled {
		methods[string(domain.PaymentMethodCashapp)] = Instruction{
			Handle: cfg.CashappHandle,
			Note:   "include order id " + o.ID + " in the note",
		}
	}

	return &QRCodeResponse{
		OrderID: o.ID,
		Total:   o.Total,
		Methods: methods,
	}, nil
}
