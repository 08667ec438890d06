// Package money represents currency amounts without floating point drift.
package money

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// Amount is a currency amount. The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// New returns an amount of whole currency units.
func New(units int64) Amount {
	return Amount{d: decimal.NewFromInt(units)}
}

// FromDecimal wraps a decimal value.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// Parse reads an amount such as "3374" or "1644.50".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

// MustParse is Parse that panics; for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// Mul multiplies the amount by a quantity.
func (a Amount) Mul(qty int) Amount { return Amount{d: a.d.Mul(decimal.NewFromInt(int64(qty)))} }

// Cmp compares a and b, returning -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// Equal reports whether a and b are the same amount.
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool { return a.d.IsPositive() }

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// Float64 returns the nearest float64, for metrics.
func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// String formats the amount without trailing zeros.
func (a Amount) String() string { return a.d.String() }

// MarshalJSON writes the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.d.UnmarshalJSON(b)
}

// MarshalDynamoDBAttributeValue stores the amount as a number attribute.
func (a Amount) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: a.d.String()}, nil
}

// UnmarshalDynamoDBAttributeValue reads a number (or legacy string) attribute.
func (a *Amount) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = v.Value
	case *types.AttributeValueMemberNULL:
		a.d = decimal.Zero
		return nil
	default:
		return fmt.Errorf("unsupported attribute type %T for amount", av)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("parse amount attribute %q: %w", raw, err)
	}
	a.d = d
	return nil
}
