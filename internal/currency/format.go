// Package currency converts and formats USD amounts for display. Stored
// values are always USD; IQD is a display conversion only.
package currency

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Code is a display currency.
type Code string

const (
	USD Code = "USD"
	IQD Code = "IQD"
)

// Default is the display currency when no preference is set.
const Default = USD

// Codes lists the selectable display currencies.
var Codes = []Code{USD, IQD}

var printer = message.NewPrinter(language.English)

// ParseCode accepts "usd"/"IQD" in any case.
func ParseCode(s string) (Code, bool) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(Codes, c) {
		return "", false
	}
	return c, true
}

// Convert returns amount USD expressed in code at rate IQD per USD.
func Convert(amount float64, code Code, rate float64) float64 {
	if code != IQD {
		return amount
	}
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).InexactFloat64()
}

// Format renders amount (USD) in code: "$1,234.50" or "1,814,715 IQD".
func Format(amount float64, code Code, rate float64) string {
	d := decimal.NewFromFloat(amount)
	if code == IQD {
		iqd := d.Mul(decimal.NewFromFloat(rate)).Round(0).IntPart()
		return printer.Sprintf("%d IQD", iqd)
	}
	usd := "$" + printer.Sprintf("%.2f", d.Abs().Round(2).InexactFloat64())
	if d.Round(2).IsNegative() {
		return "-" + usd
	}
	return usd
}
