package provider

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

var (
	nonAlnum     = regexp.MustCompile(`[^a-z0-9]+`)
	firstNumeric = regexp.MustCompile(`\d[\d,]*\.?\d*`)
)

var categoryLabels = map[string]string{
	"running_shoes": "running shoes",
	"laptop":        "laptop",
	"headphones":    "headphones",
	"office_chair":  "office chair",
}

var categoryPaths = map[string][]string{
	"running_shoes": {"shoes", "running shoes"},
	"laptop":        {"electronics", "computers", "laptop"},
	"headphones":    {"electronics", "audio", "headphones"},
	"office_chair":  {"furniture", "office", "chair"},
}

// NormalizeCategory turns "Office Chair" into "office_chair".
func NormalizeCategory(category string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(category)), "_"), "_")
}

// CategoryLabel returns the human label of a category.
func CategoryLabel(category string) string {
	n := NormalizeCategory(category)
	if label, ok := categoryLabels[n]; ok {
		return label
	}
	return strings.TrimSpace(strings.ReplaceAll(n, "_", " "))
}

// CategoryPath returns the taxonomy path of a category.
func CategoryPath(category string) []string {
	n := NormalizeCategory(category)
	if path, ok := categoryPaths[n]; ok {
		return path
	}
	return strings.Fields(CategoryLabel(n))
}

// QueryTerms collects the de-duplicated search terms of an intent in
// priority order: brand, product name, category, keywords, attribute values,
// free-text query.
func QueryTerms(intent *types.SearchIntent) []string {
	var terms []string
	terms = append(terms, intent.Brand, intent.ProductName)
	if intent.Category != "" {
		terms = append(terms, CategoryLabel(intent.Category))
	}
	terms = append(terms, intent.Keywords...)

	attrs := intent.Attributes()
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v := attrs[name]; !isNegativeAnswer(v) {
			terms = append(terms, v)
		}
	}
	terms = append(terms, intent.Query)

	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// QueryString joins QueryTerms, falling back to the category label.
func QueryString(intent *types.SearchIntent) string {
	if terms := QueryTerms(intent); len(terms) > 0 {
		return strings.Join(terms, " ")
	}
	return CategoryLabel(intent.Category)
}

func isNegativeAnswer(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "no", "false", "none", "not answered", "any", "n/a":
		return true
	}
	return false
}

// conditionOf returns the intent condition, or "" when any condition is fine.
func conditionOf(intent *types.SearchIntent) string {
	c := strings.ToLower(strings.TrimSpace(intent.Condition))
	if c == "any" {
		return ""
	}
	return c
}

// checkMandatory fails when the intent sets a mandatory constraint that the
// source cannot represent. Unsupported optional constraints are dropped by
// the caller.
func checkMandatory(source types.SourceID, intent *types.SearchIntent, supported ...string) error {
	set := make(map[string]struct{}, len(supported))
	for _, s := range supported {
		set[s] = struct{}{}
	}

	for _, m := range intent.Mandatory {
		name := strings.ToLower(strings.TrimSpace(m))
		if _, ok := set[name]; ok {
			continue
		}
		if !constraintSet(intent, name) {
			continue
		}
		return &types.AdapterBuildError{Source: source, Constraint: name, Reason: "source has no such filter"}
	}
	return nil
}

func constraintSet(intent *types.SearchIntent, name string) bool {
	switch name {
	case types.ConstraintCondition:
		return conditionOf(intent) != ""
	case types.ConstraintPrice:
		return intent.Budget.HasBounds()
	case types.ConstraintBrand:
		return strings.TrimSpace(intent.Brand) != ""
	case types.ConstraintCategory:
		return strings.TrimSpace(intent.Category) != ""
	}
	return true
}

// ParsePrice extracts the first number of strings like "$1,299.99",
// "USD 1299" or "$500 - $800". ok is false for missing or non-positive values.
func ParsePrice(s string) (float64, bool) {
	m := firstNumeric.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
