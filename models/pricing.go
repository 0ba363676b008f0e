package models

import "github.com/shopspring/decimal"

// PricingSummary is derived from the cart on every read, never stored.
type PricingSummary struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	ServiceFee decimal.Decimal `json:"service_fee"`
	Total      decimal.Decimal `json:"total"`
}

// Summarize computes subtotal, tax and total for the cart. The service fee
// is flat per order regardless of cart size.
func Summarize(c *Cart, taxRate, serviceFee decimal.Decimal) PricingSummary {
	subtotal := c.Subtotal()
	tax := subtotal.Mul(taxRate)
	return PricingSummary{
		Subtotal:   subtotal,
		Tax:        tax,
		ServiceFee: serviceFee,
		Total:      subtotal.Add(tax).Add(serviceFee),
	}
}

// TotalMinorUnits converts the total to the payment gateway's minor-unit
// integer amount (paise for INR), rounding to the nearest unit.
func (p PricingSummary) TotalMinorUnits() int64 {
	return p.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
