package core

import (
	"bytes"
	"database/sql/driver"
	"math"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

var (
	errMoneyNotFinite = errors.New("amount must be a finite number")
	errMoneyPrecision = errors.New("amount cannot have more than 2 decimal places")
	errMoneyMalformed = errors.New("amount must be a valid number")
	errMoneyNullScan  = errors.New("cannot scan NULL into Money")

	jsonNull  = []byte("null")
	jsonQuote = []byte(`"`)

	ZeroMoney = Money{}
)

// Money is a non-float monetary amount with at most 2 decimal places.
// The zero value is 0.
type Money struct {
	d decimal.Decimal
}

func newMoney(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Round(moneyPlaces)) {
		return Money{}, errMoneyPrecision
	}
	return Money{d: d}, nil
}

// ParseMoney parses a decimal string, rejecting NaN, infinities and sub-cent precision.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, errMoneyMalformed
	}
	return newMoney(d)
}

func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, errMoneyNotFinite
	}
	return newMoney(decimal.NewFromFloat(f))
}

func MoneyFromInt(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

// MustMoney is ParseMoney for literals; it panics on invalid input.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(errors.Wrapf(err, "MustMoney(%q)", s))
	}
	return m
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Neg() Money        { return Money{d: m.d.Neg()} }

func (m Money) Cmp(o Money) int                 { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool              { return m.d.Equal(o.d) }
func (m Money) GreaterThanOrEqual(o Money) bool { return m.d.GreaterThanOrEqual(o.d) }
func (m Money) IsPositive() bool                { return m.d.IsPositive() }
func (m Money) IsNegative() bool                { return m.d.IsNegative() }
func (m Money) IsZero() bool                    { return m.d.IsZero() }
func (m Money) Float64() float64                { return m.d.InexactFloat64() }
func (m Money) String() string                  { return m.d.StringFixed(moneyPlaces) }

// ClampedAtZero returns m, or 0 when m is negative.
func (m Money) ClampedAtZero() Money {
	if m.d.IsNegative() {
		return ZeroMoney
	}
	return m
}

// MarshalJSON encodes the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) {
		*m = Money{}
		return nil
	}
	data = bytes.TrimSuffix(bytes.TrimPrefix(data, jsonQuote), jsonQuote)
	parsed, err := ParseMoney(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m *Money) UnmarshalParam(param string) error {
	parsed, err := ParseMoney(param)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m *Money) Scan(value interface{}) error {
	if value == nil {
		return errMoneyNullScan
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return errors.Wrap(err, "scanning money")
	}
	// float columns (sqlite) may carry binary noise past the cents
	m.d = d.Round(moneyPlaces)
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.d.String(), nil
}
