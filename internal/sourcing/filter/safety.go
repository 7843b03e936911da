package filter

import (
	"regexp"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// SafetyStatus is the verdict on a piece of text
type SafetyStatus string

const (
	SafetySafe        SafetyStatus = "safe"
	SafetyNeedsReview SafetyStatus = "needs_review"
	SafetyBlocked     SafetyStatus = "blocked"
)

var blockedPatterns = compileAll(
	`\b(cp|csam)\b`,
	`\b(underage|minor|child)\s+(sex|escort|companion)\b`,
	`\b(hitman|murder|kill)\s+for\s+hire\b`,
	`\bhire\s+(a\s+)?hitman\b`,
	`\b(bomb|explosive)\s+making\b`,
	`\b(meth|heroin|fentanyl|cocaine)\b`,
	`\b(trafficking|smuggling)\b`,
)

var sensitivePatterns = compileAll(
	`\b(escort|companion|massage|body\s*rub)\b`,
	`\b(adult|xxx|porn)\b`,
	`\b(weapon|firearm|gun|ammo)\b`,
	`\b(drug|pill|prescription)\b`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// CheckText classifies free text such as a buyer query
func CheckText(text string) SafetyStatus {
	text = normalize(text)
	for _, re := range blockedPatterns {
		if re.MatchString(text) {
			return SafetyBlocked
		}
	}
	for _, re := range sensitivePatterns {
		if re.MatchString(text) {
			return SafetyNeedsReview
		}
	}
	return SafetySafe
}

// SafetyFilter drops offers matching blocked patterns or banned categories.
// Sensitive matches are dropped only when the config asks for it.
type SafetyFilter struct {
	banned         []string
	blockSensitive bool
}

// NewSafetyFilter creates the safety filter
func NewSafetyFilter(cfg Config) *SafetyFilter {
	banned := make([]string, 0, len(cfg.BannedCategories))
	for _, c := range cfg.BannedCategories {
		if c = normalize(c); c != "" {
			banned = append(banned, c)
		}
	}
	return &SafetyFilter{banned: banned, blockSensitive: cfg.BlockSensitive}
}

// Name implements Filter
func (f *SafetyFilter) Name() string { return "safety" }

// Apply implements Filter
func (f *SafetyFilter) Apply(offers []*types.NormalizedOffer) ([]*types.NormalizedOffer, int) {
	return keep(offers, func(o *types.NormalizedOffer) bool {
		text := normalize(o.Title + " " + o.Category)
		switch CheckText(text) {
		case SafetyBlocked:
			return true
		case SafetyNeedsReview:
			if f.blockSensitive {
				return true
			}
		}
		category := normalize(o.Category)
		for _, b := range f.banned {
			if containsTerm(category, b) || containsTerm(normalize(o.Title), b) {
				return true
			}
		}
		return false
	})
}
