package service

import (
	"otomar/internal/config"

	"github.com/shopspring/decimal"
)

// ShippingPolicy charges a flat cost below the free shipping threshold.
type ShippingPolicy struct {
	FreeThreshold decimal.Decimal
	Cost          decimal.Decimal
}

func NewShippingPolicy(cfg config.Shipping) ShippingPolicy {
	return ShippingPolicy{
		FreeThreshold: cfg.FreeThreshold,
		Cost:          cfg.Cost,
	}
}

func (p ShippingPolicy) ShippingFor(subTotal decimal.Decimal) decimal.Decimal {
	if subTotal.LessThan(p.FreeThreshold) {
		return p.Cost
	}
	return decimal.Zero
}

// Totals returns the shipping and grand total for a subtotal.
func (p ShippingPolicy) Totals(subTotal decimal.Decimal) (shipping, total decimal.Decimal) {
	shipping = p.ShippingFor(subTotal)
	return shipping, subTotal.Add(shipping)
}
