package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

// Money renders a decimal amount as a fixed two-place string, e.g. "39.90".
type Money decimal.Decimal

// NewMoney wraps d.
func NewMoney(d decimal.Decimal) Money {
	return Money(d)
}

// Decimal returns the wrapped value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.Decimal(m)
}

func (m Money) String() string {
	return decimal.Decimal(m).StringFixed(moneyPlaces)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a JSON number or numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = Money(d)
	return nil
}
