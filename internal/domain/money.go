package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Money is an amount in cents.
type Money int64

// TaxRate is applied by WithTax, expressed in tenths: 11 means ×1.1.
const taxRateTenths = 11

// MoneyFromFloat converts a decimal amount such as 19.99 to cents, rounding to the nearest cent.
func MoneyFromFloat(f float64) Money {
	return Money(math.Round(f * 100))
}

// Float returns the amount as a decimal number of currency units.
func (m Money) Float() float64 {
	return float64(m) / 100
}

// String formats the amount with two decimal places.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// WithTax returns the amount plus 10% tax, rounded half-up to the cent.
func (m Money) WithTax() Money {
	v := int64(m) * taxRateTenths
	if v >= 0 {
		return Money((v + 5) / 10)
	}
	return Money(-((-v + 5) / 10))
}

// Times multiplies the amount by a quantity.
func (m Money) Times(qty int) Money {
	return m * Money(qty)
}

// MarshalJSON renders the amount as a number with two decimal places.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("money: %w", err)
		}
		n = json.Number(s)
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*m = MoneyFromFloat(f)
	return nil
}
