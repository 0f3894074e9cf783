// Package pricing computes order totals. It is pure, it never touches
// the catalog or mutates its inputs.
package pricing

import (
	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/shopspring/decimal"
)

type Quote struct {
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// Price sums the frozen line prices and applies the shipping rule:
// free shipping at or above the configured threshold, the standard fee
// below it.
func Price(items []domain.OrderItem, cfg *domain.AppConfig) Quote {
	subtotal := decimal.Zero
	for _, item := range items {
		line := item.PriceAtPurchase.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	fee := cfg.StandardShippingFee
	if subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		fee = decimal.Zero
	}

	return Quote{
		Subtotal:    subtotal,
		ShippingFee: fee,
		Total:       subtotal.Add(fee),
	}
}
