package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// amountTolerance absorbs floating round-off in client-claimed amounts.
var amountTolerance = decimal.New(1, -2)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func (m Money) Mul(quantity int) Money {
	return Money{
		Amount:   m.Amount.Mul(decimal.NewFromInt(int64(quantity))),
		Currency: m.Currency,
	}
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency %s differs from %s: %w", other.Currency, m.Currency, ErrInvalidValue)
	}

	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Matches reports whether amount is within one hundredth of m, in either direction.
func (m Money) Matches(amount decimal.Decimal) bool {
	return m.Amount.Sub(amount).Abs().LessThanOrEqual(amountTolerance)
}

// MinorUnits converts the amount to the smallest currency unit (paise, cents), rounding half away from zero.
func (m Money) MinorUnits() int64 {
	scale, _ := currency.Standard.Rounding(m.Currency)
	return m.Amount.Shift(int32(scale)).Round(0).IntPart()
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency.String()
}
