package biz

import (
	"github.com/lk2023060901/offer-sourcing/internal/pkg/urlx"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// User-facing messages for searches that produced nothing
const (
	MessageQuotaExhausted = "Search providers have exhausted their quota. Please try again later or contact support."
	MessageRateLimited    = "Search is temporarily rate-limited. Please wait a moment and try again."
	MessageUnavailable    = "Unable to search at this time. Please try again later."
)

// Dedupe drops offers whose canonical URL was already seen. The first
// occurrence wins; optional fields it lacks are filled from later
// duplicates. Offers without a URL are kept as is. Input offers are not
// modified.
func Dedupe(offers []*types.NormalizedOffer) []*types.NormalizedOffer {
	out := make([]*types.NormalizedOffer, 0, len(offers))
	index := make(map[string]int, len(offers))
	for _, o := range offers {
		if o == nil {
			continue
		}
		key := o.CanonicalURL
		if key == "" && o.URL != "" {
			key = urlx.Canonicalize(o.URL)
		}
		if key == "" {
			out = append(out, o)
			continue
		}
		if i, ok := index[key]; ok {
			out[i] = enrich(out[i], o)
			continue
		}
		index[key] = len(out)
		out = append(out, o)
	}
	return out
}

// enrich returns a copy of first with missing optional fields taken from dup
func enrich(first, dup *types.NormalizedOffer) *types.NormalizedOffer {
	if !lacks(first, dup) {
		return first
	}
	c := *first
	if c.Price == nil && dup.Price != nil {
		c.Price, c.Currency = dup.Price, dup.Currency
		c.PriceOriginal, c.CurrencyOriginal = dup.PriceOriginal, dup.CurrencyOriginal
	}
	if c.ImageURL == nil {
		c.ImageURL = dup.ImageURL
	}
	if c.Rating == nil {
		c.Rating = dup.Rating
	}
	if c.ReviewCount == nil {
		c.ReviewCount = dup.ReviewCount
	}
	if c.ShippingInfo == "" {
		c.ShippingInfo = dup.ShippingInfo
	}
	if c.Description == "" {
		c.Description = dup.Description
	}
	return &c
}

func lacks(first, dup *types.NormalizedOffer) bool {
	return (first.Price == nil && dup.Price != nil) ||
		(first.ImageURL == nil && dup.ImageURL != nil) ||
		(first.Rating == nil && dup.Rating != nil) ||
		(first.ReviewCount == nil && dup.ReviewCount != nil) ||
		(first.ShippingInfo == "" && dup.ShippingInfo != "") ||
		(first.Description == "" && dup.Description != "")
}

// AllFailed reports whether no source finished ok
func AllFailed(statuses []types.ProviderStatus) bool {
	for _, s := range statuses {
		if s.Status == types.StatusOK {
			return false
		}
	}
	return true
}

// UserMessage explains an empty result: every source out of quota, any
// source rate limited, or every source failed. It returns "" when some
// source answered and simply had nothing.
func UserMessage(statuses []types.ProviderStatus) string {
	exhausted, limited := 0, 0
	for _, s := range statuses {
		switch s.Status {
		case types.StatusExhausted:
			exhausted++
		case types.StatusRateLimited:
			limited++
		}
	}
	switch {
	case len(statuses) > 0 && exhausted == len(statuses):
		return MessageQuotaExhausted
	case limited > 0:
		return MessageRateLimited
	case AllFailed(statuses):
		return MessageUnavailable
	}
	return ""
}
