// Package renderer renders cryptotax reports to markdown strings.
package renderer

import (
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// eur formats a monetary value in EUR, rounded to 2 decimal places.
func eur(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	cents := decimal.NewFromFloat(v).Round(2).Shift(2).IntPart()
	return money.New(cents, money.EUR).Display()
}

// signedEUR formats a monetary value with an explicit sign; zero renders "-".
func signedEUR(v float64) string {
	if v == 0 {
		return "-"
	}
	if v > 0 {
		return "+" + eur(v)
	}
	return eur(v)
}

// quantity formats an asset quantity, rounded to 8 decimal places.
func quantity(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return decimal.NewFromFloat(v).Round(8).String()
}
