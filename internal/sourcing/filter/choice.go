package filter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// attributeKeys are choice factors that describe the product itself and can
// be matched against titles. Context answers such as recipient or occasion
// never exclude offers.
var attributeKeys = map[string]struct{}{
	"material": {}, "color": {}, "colour": {}, "size": {}, "style": {}, "brand": {},
	"type": {}, "finish": {}, "pattern": {}, "shape": {}, "flavor": {},
	"weight": {}, "length": {}, "width": {}, "height": {},
}

var compoundSep = regexp.MustCompile(`\s+or\s+|\s+and\s+|,\s*|/\s*`)

type constraint struct {
	key   string
	parts []string
}

// ChoiceFilter drops offers whose titles contradict answered product
// attributes, or that match the buyer's excluded keywords or merchants.
type ChoiceFilter struct {
	constraints      []constraint
	excludeKeywords  []string
	excludeMerchants []string
}

// NewChoiceFilter creates the choice-factor filter for intent
func NewChoiceFilter(intent *types.SearchIntent) *ChoiceFilter {
	f := &ChoiceFilter{}

	attrs := intent.Attributes()
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, ok := attributeKeys[key]; !ok {
			continue
		}
		value := normalize(attrs[key])
		if isSkippedAnswer(value) {
			continue
		}
		if value == "yes" || value == "true" {
			f.constraints = append(f.constraints, constraint{key: key, parts: []string{key}})
			continue
		}
		var parts []string
		for _, p := range compoundSep.Split(value, -1) {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			f.constraints = append(f.constraints, constraint{key: key, parts: parts})
		}
	}

	for _, kw := range intent.ExcludeKeywords {
		if kw = normalize(kw); kw != "" {
			f.excludeKeywords = append(f.excludeKeywords, kw)
		}
	}
	for _, m := range intent.ExcludeMerchants {
		if m = normalize(m); m != "" {
			f.excludeMerchants = append(f.excludeMerchants, m)
		}
	}
	return f
}

func isSkippedAnswer(v string) bool {
	switch v {
	case "", "no", "false", "not answered", "any", "none", "n/a":
		return true
	}
	return false
}

// Name implements Filter
func (f *ChoiceFilter) Name() string { return "choice" }

// Apply implements Filter
func (f *ChoiceFilter) Apply(offers []*types.NormalizedOffer) ([]*types.NormalizedOffer, int) {
	if len(f.constraints) == 0 && len(f.excludeKeywords) == 0 && len(f.excludeMerchants) == 0 {
		return offers, 0
	}
	return keep(offers, f.excluded)
}

func (f *ChoiceFilter) excluded(o *types.NormalizedOffer) bool {
	title := normalize(o.Title)
	merchant := normalize(o.MerchantName)
	domain := normalize(o.MerchantDomain)

	for _, m := range f.excludeMerchants {
		if strings.Contains(merchant, m) || strings.Contains(domain, m) {
			return true
		}
	}
	if title == "" {
		return false
	}
	for _, kw := range f.excludeKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	for _, c := range f.constraints {
		if !matchesAny(title, c.parts) {
			return true
		}
	}
	return false
}

func matchesAny(title string, parts []string) bool {
	for _, p := range parts {
		if containsTerm(title, p) {
			return true
		}
	}
	return false
}
