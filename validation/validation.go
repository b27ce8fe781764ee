package validation

import (
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Violations maps a field name to a violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Error lists the violations as "field:code" pairs in field order.
func (v Violations) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ":" + v[f]
	}
	return "invalid: " + strings.Join(parts, ", ")
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MaxLen(field, value string, n int, v Violations) {
	if len([]rune(value)) > n {
		v[field] = "too_long"
	}
}

func Positive(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v[field] = "must_be_positive"
	}
}

func NonNegative(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v[field] = "must_not_be_negative"
	}
}

// OptionalURL accepts an empty value or an absolute http(s) URL.
func OptionalURL(field, value string, v Violations) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v[field] = "invalid_url"
	}
}

func OneOf[T ~string](field string, value T, allowed []T, v Violations) {
	if !slices.Contains(allowed, value) {
		v[field] = "invalid_choice"
	}
}

// Money bounds match the NUMERIC(12,2) columns amounts are stored in.
const (
	moneyScale     = 2
	moneyIntDigits = 10
)

var moneyLimit = decimal.New(1, moneyIntDigits)

// Money rejects amounts with more than two decimals or ten integer digits.
// A field that already failed a sign check keeps that code.
func Money(field string, val decimal.Decimal, v Violations) {
	if _, bad := v[field]; bad {
		return
	}
	if !val.Equal(val.Truncate(moneyScale)) || val.Abs().GreaterThanOrEqual(moneyLimit) {
		v[field] = "must_be_money"
	}
}
