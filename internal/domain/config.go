package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppConfig is a singleton record. It is lazily created with these
// defaults on first read and there must never be more than one row.
type AppConfig struct {
	ID                    string          `json:"id"`
	StandardShippingFee   decimal.Decimal `json:"standard_shipping_fee"`
	FreeShippingThreshold decimal.Decimal `json:"free_shipping_threshold"`
	StripeEnabled         bool            `json:"stripe_enabled"`
	ZelleEnabled          bool            `json:"zelle_enabled"`
	CashappEnabled        bool            `json:"cashapp_enabled"`
	ZelleEmail            string          `json:"zelle_email,omitempty"`
	ZellePhone            string          `json:"zelle_phone,omitempty"`
	CashappHandle         string          `json:"cashapp_handle,omitempty"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func (c *AppConfig) MethodEnabled(m PaymentMethod) bool {
	switch m {
	case PaymentMethodStripe:
		return c.StripeEnabled
	case PaymentMethodZelle:
		return c.ZelleEnabled
	case PaymentMethodCashapp:
		return c.CashappEnabled
	}
	return false
}

func DefaultConfig() *AppConfig {
	return &AppConfig{
		StandardShippingFee:   decimal.NewFromFloat(4.80),
		FreeShippingThreshold: decimal.NewFromInt(5),
		StripeEnabled:         true,
		ZelleEnabled:          true,
		CashappEnabled:        true,
		ZelleEmail:            "info@royalgracecards.com",
		ZellePhone:            "1234567890",
		CashappHandle:         "@royalgracecards",
	}
}
