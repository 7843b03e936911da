package types

import (
	"sort"
	"strings"
	"time"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/currency"
)

// Constraint names usable in SearchIntent.Mandatory.
const (
	ConstraintCondition = "condition"
	ConstraintPrice     = "price"
	ConstraintBrand     = "brand"
	ConstraintCategory  = "category"
)

// Budget bounds the acceptable price range. Nil bounds are open.
type Budget struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

// HasBounds reports whether either bound is set.
func (b Budget) HasBounds() bool {
	return b.Min != nil || b.Max != nil
}

// InUSD returns the budget with both bounds converted to USD, the currency
// of normalized prices. Unknown currencies are taken as USD.
func (b Budget) InUSD() Budget {
	conv := currency.NewConverter(nil)
	toUSD := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		usd, ok := conv.ToUSD(*v, b.Currency)
		if !ok {
			usd = *v
		}
		return &usd
	}
	return Budget{Min: toUSD(b.Min), Max: toUSD(b.Max), Currency: currency.USD}
}

// ChoiceFactor is one answered buyer preference, e.g. {"material", "leather", "high"}.
type ChoiceFactor struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Importance string `json:"importance,omitempty"`
}

// SearchIntent is the structured description of what the buyer wants.
// It is the sole input of one search invocation and must not be mutated
// once the invocation starts; use Clone to derive a modified copy.
type SearchIntent struct {
	Category      string            `json:"category,omitempty"`
	Query         string            `json:"query,omitempty"`
	ProductName   string            `json:"product_name,omitempty"`
	Brand         string            `json:"brand,omitempty"`
	Condition     string            `json:"condition,omitempty"`
	Budget        Budget            `json:"budget"`
	Preferences   map[string]string `json:"preferences,omitempty"`
	ChoiceFactors []ChoiceFactor    `json:"choice_factors,omitempty"`
	Keywords      []string          `json:"keywords,omitempty"`
	Freshness     time.Duration     `json:"freshness,omitempty"` // max listing age; only the auction source can filter on it

	ExcludeKeywords  []string `json:"exclude_keywords,omitempty"`
	ExcludeMerchants []string `json:"exclude_merchants,omitempty"`
	Mandatory        []string `json:"mandatory,omitempty"`
}

// Validate checks that the intent can drive a search.
func (i *SearchIntent) Validate() error {
	if strings.TrimSpace(i.Category) == "" && strings.TrimSpace(i.Query) == "" &&
		strings.TrimSpace(i.ProductName) == "" && len(i.Keywords) == 0 {
		return ErrEmptyIntent
	}
	if (i.Budget.Min != nil && *i.Budget.Min < 0) || (i.Budget.Max != nil && *i.Budget.Max < 0) {
		return ErrNegativeBudget
	}
	if i.Budget.Min != nil && i.Budget.Max != nil && *i.Budget.Min > *i.Budget.Max {
		return ErrInvalidBudget
	}
	return nil
}

// IsMandatory reports whether the named constraint must be honoured by every source.
func (i *SearchIntent) IsMandatory(constraint string) bool {
	for _, m := range i.Mandatory {
		if strings.EqualFold(strings.TrimSpace(m), constraint) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy with keywords normalized
// (trimmed, de-duplicated case-insensitively, sorted).
func (i *SearchIntent) Clone() *SearchIntent {
	c := *i
	if i.Budget.Min != nil {
		v := *i.Budget.Min
		c.Budget.Min = &v
	}
	if i.Budget.Max != nil {
		v := *i.Budget.Max
		c.Budget.Max = &v
	}
	if i.Preferences != nil {
		c.Preferences = make(map[string]string, len(i.Preferences))
		for k, v := range i.Preferences {
			c.Preferences[k] = v
		}
	}
	c.ChoiceFactors = append([]ChoiceFactor(nil), i.ChoiceFactors...)
	c.Keywords = NormalizeKeywords(i.Keywords)
	c.ExcludeKeywords = append([]string(nil), i.ExcludeKeywords...)
	c.ExcludeMerchants = append([]string(nil), i.ExcludeMerchants...)
	c.Mandatory = append([]string(nil), i.Mandatory...)
	return &c
}

// SearchText returns the primary free-text description of the intent.
func (i *SearchIntent) SearchText() string {
	switch {
	case strings.TrimSpace(i.Query) != "":
		return strings.TrimSpace(i.Query)
	case strings.TrimSpace(i.ProductName) != "":
		return strings.TrimSpace(i.ProductName)
	default:
		return strings.TrimSpace(i.Category)
	}
}

// Attributes merges preferences and choice factors into one lookup.
// Choice factors win over preferences with the same name.
func (i *SearchIntent) Attributes() map[string]string {
	out := make(map[string]string, len(i.Preferences)+len(i.ChoiceFactors))
	for k, v := range i.Preferences {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for _, cf := range i.ChoiceFactors {
		out[strings.ToLower(strings.TrimSpace(cf.Name))] = cf.Value
	}
	return out
}

// NormalizeKeywords trims, de-duplicates (case-insensitively) and sorts keywords.
func NormalizeKeywords(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	sort.Slice(out, func(a, b int) bool { return strings.ToLower(out[a]) < strings.ToLower(out[b]) })
	return out
}
