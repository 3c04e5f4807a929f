package domain

import "github.com/shopspring/decimal"

// Money is an amount of Vietnamese đồng. VND has no minor unit in circulation,
// so one đồng is the smallest representable amount.
type Money int64

// MoneyFromDecimal rounds d half away from zero to whole đồng.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Round(0).IntPart())
}

// Decimal returns m as a decimal for percentage math.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

// Times multiplies m by a quantity.
func (m Money) Times(quantity int) Money {
	return m * Money(quantity)
}
