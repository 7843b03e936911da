// Package currency converts offer prices between currencies using static
// reference rates expressed as USD multipliers.
package currency

import (
	"math"
	"strings"
)

// USD is the currency every offer price is normalized to.
const USD = "USD"

// DefaultRates maps an ISO code to its value in USD.
var DefaultRates = map[string]float64{
	"USD": 1,
	"EUR": 1.08,
	"GBP": 1.27,
	"CAD": 0.74,
	"AUD": 0.66,
	"JPY": 0.0067,
	"CNY": 0.14,
	"INR": 0.012,
	"MXN": 0.058,
}

// Converter converts amounts with a fixed rate table.
type Converter struct {
	rates map[string]float64
}

// NewConverter creates a converter. A nil table uses DefaultRates.
func NewConverter(rates map[string]float64) *Converter {
	if rates == nil {
		rates = DefaultRates
	}
	return &Converter{rates: rates}
}

// Normalize returns the upper-case ISO code, or "" when code is not a known
// three-letter currency.
func (c *Converter) Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return ""
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	if _, ok := c.rates[code]; !ok {
		return ""
	}
	return code
}

// Convert converts amount from one currency to another, rounding half-up to
// cents. Unknown codes are treated as USD. ok is false when a rate is missing
// or not positive.
func (c *Converter) Convert(amount float64, from, to string) (float64, bool) {
	src := c.Normalize(from)
	if src == "" {
		src = USD
	}
	dst := c.Normalize(to)
	if dst == "" {
		dst = USD
	}
	if src == dst {
		return round2(amount), true
	}

	srcRate, ok1 := c.rates[src]
	dstRate, ok2 := c.rates[dst]
	if !ok1 || !ok2 || srcRate <= 0 || dstRate <= 0 {
		return 0, false
	}
	return round2(amount * srcRate / dstRate), true
}

// ToUSD is Convert with USD as the target.
func (c *Converter) ToUSD(amount float64, from string) (float64, bool) {
	return c.Convert(amount, from, USD)
}

func round2(v float64) float64 {
	// 1e-9 absorbs binary representation error such as 1.005 -> 1.00499999
	if v < 0 {
		return -math.Floor(-v*100+0.5+1e-9) / 100
	}
	return math.Floor(v*100+0.5+1e-9) / 100
}
