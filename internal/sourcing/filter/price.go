package filter

import (
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// PriceFilter applies budget bounds as hard limits. Offers without a price
// are quote based and always pass.
type PriceFilter struct {
	min, max *float64
}

// NewPriceFilter creates a price filter. Bounds in another currency are
// converted to USD, the currency of normalized prices.
func NewPriceFilter(b types.Budget) *PriceFilter {
	usd := b.InUSD()
	return &PriceFilter{min: usd.Min, max: usd.Max}
}

// Name implements Filter
func (f *PriceFilter) Name() string { return "price" }

// Apply implements Filter
func (f *PriceFilter) Apply(offers []*types.NormalizedOffer) ([]*types.NormalizedOffer, int) {
	if f.min == nil && f.max == nil {
		return offers, 0
	}
	return keep(offers, func(o *types.NormalizedOffer) bool {
		if o.Price == nil {
			return false
		}
		if f.min != nil && *o.Price < *f.min {
			return true
		}
		return f.max != nil && *o.Price > *f.max
	})
}
