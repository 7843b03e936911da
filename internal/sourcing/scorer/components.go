package scorer

import (
	"math"
	"strings"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// PriceFit scores how well price sits in the budget. Quote based offers get
// a neutral 0.5.
func PriceFit(price *float64, b types.Budget) float64 {
	if price == nil {
		return 0.5
	}
	p := *price
	if p <= 0 {
		return 0.3
	}

	switch {
	case b.Min != nil && b.Max != nil:
		lo, hi := *b.Min, *b.Max
		mid := (lo + hi) / 2
		span := hi - lo
		if span <= 0 {
			if math.Abs(p-mid) < 1 {
				return 1.0
			}
			return 0.2
		}
		distance := math.Abs(p-mid) / (span / 2)
		if distance <= 1 {
			return 1.0 - distance*0.3
		}
		return math.Max(0, 0.7-(distance-1)*0.5)

	case b.Max != nil:
		hi := *b.Max
		if hi <= 0 {
			return 0.5
		}
		if p <= hi {
			return 0.8 + 0.2*(1-p/hi)
		}
		return math.Max(0, 0.5-(p-hi)/hi)

	case b.Min != nil:
		lo := *b.Min
		if lo <= 0 || p >= lo {
			return 0.8
		}
		return math.Max(0, 0.5-(lo-p)/lo)
	}
	return 0.5
}

// Relevance scores the textual match between an offer and the intent
func Relevance(o *types.NormalizedOffer, intent *types.SearchIntent) float64 {
	if intent == nil {
		return 0.5
	}

	title := strings.ToLower(o.Title)
	searchable := title + " " + strings.ToLower(o.MerchantName) + " " + strings.ToLower(o.Description)
	score := 0.0

	if brand := strings.ToLower(strings.TrimSpace(intent.Brand)); brand != "" {
		switch {
		case strings.Contains(title, brand):
			score += 0.25
		case strings.Contains(searchable, brand):
			score += 0.15
		case anyWordIn(strings.Fields(brand), searchable):
			score += 0.08
		}
	}

	if n := len(intent.Keywords); n > 0 {
		inTitle, inAll := 0, 0
		for _, kw := range intent.Keywords {
			kw = strings.ToLower(kw)
			if strings.Contains(title, kw) {
				inTitle++
			}
			if strings.Contains(searchable, kw) {
				inAll++
			}
		}
		titleRatio := float64(inTitle) / float64(n)
		allRatio := float64(inAll) / float64(n)
		score += titleRatio*0.35 + (allRatio-titleRatio)*0.10
	}

	name := intent.ProductName
	if strings.TrimSpace(name) == "" {
		name = intent.Query
	}
	if words := significantWords(name); len(words) > 0 {
		score += matchRatio(words, title) * 0.15
	}

	if intent.Category != "" {
		words := strings.Fields(strings.ReplaceAll(strings.ToLower(intent.Category), "_", " "))
		if len(words) > 0 {
			score += matchRatio(words, searchable) * 0.10
		}
	}

	var values []string
	for _, cf := range intent.ChoiceFactors {
		if v := strings.ToLower(strings.TrimSpace(cf.Value)); v != "" && !isNegative(v) {
			values = append(values, v)
		}
	}
	if len(values) > 0 {
		score += matchRatio(values, searchable) * 0.10
	}

	score += 0.05
	return math.Min(score, 1.0)
}

// Quality scores rating, review volume, listing completeness and the
// merchant's reputation tier bonus
func Quality(o *types.NormalizedOffer, merchantBonus float64) float64 {
	score := 0.3
	if o.Rating != nil && *o.Rating > 0 {
		score += *o.Rating / 5.0 * 0.35
	}
	if o.ReviewCount != nil && *o.ReviewCount > 0 {
		score += math.Min(math.Log10(float64(*o.ReviewCount)+1)/3.0, 1.0) * 0.2
	}
	if o.ImageURL != nil && *o.ImageURL != "" {
		score += 0.05
	}
	if strings.TrimSpace(o.ShippingInfo) != "" {
		score += 0.1
	}
	score += merchantBonus
	return math.Min(score, 1.0)
}

// shareBucket maps a representation share to a diversity value
func shareBucket(share float64) float64 {
	switch {
	case share < 0.2:
		return 1.0
	case share < 0.4:
		return 0.7
	case share < 0.6:
		return 0.4
	default:
		return 0.2
	}
}

func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

func matchRatio(words []string, text string) float64 {
	matched := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}

func anyWordIn(words []string, text string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func isNegative(v string) bool {
	switch v {
	case "no", "false", "not answered", "any", "none", "n/a":
		return true
	}
	return false
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
