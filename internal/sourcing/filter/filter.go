// Package filter removes disallowed or unwanted offers before scoring.
// Filters only ever drop offers; survivors keep their order and contents.
package filter

import (
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// Filter is one policy step of the chain
type Filter interface {
	Name() string
	Apply(offers []*types.NormalizedOffer) (kept []*types.NormalizedOffer, rejected int)
}

// Config holds operator policy for the chain
type Config struct {
	BannedCategories []string `mapstructure:"banned_categories"`
	BlockSensitive   bool     `mapstructure:"block_sensitive"`
}

// Report is the per-filter rejection count of one run, in chain order
type Report []types.Rejection

// Total returns the number of offers removed by all filters
func (r Report) Total() int {
	n := 0
	for _, rej := range r {
		n += rej.Count
	}
	return n
}

// Chain runs filters in a fixed order
type Chain struct {
	filters []Filter
	logger  *logger.Logger
}

// NewChain creates a chain running filters in the given order
func NewChain(log *logger.Logger, filters ...Filter) *Chain {
	if log == nil {
		log = logger.L()
	}
	return &Chain{filters: filters, logger: log.Named("filter")}
}

// NewChainForIntent builds safety, price, material and choice filters for intent
func NewChainForIntent(intent *types.SearchIntent, cfg Config, log *logger.Logger) *Chain {
	return NewChain(log,
		NewSafetyFilter(cfg),
		NewPriceFilter(intent.Budget),
		NewMaterialFilter(intent.Attributes()),
		NewChoiceFilter(intent),
	)
}

// Run applies every filter in order. Once no candidates remain the later
// filters are skipped and reported with zero rejections.
func (c *Chain) Run(offers []*types.NormalizedOffer) ([]*types.NormalizedOffer, Report) {
	report := make(Report, 0, len(c.filters))
	kept := offers
	for _, f := range c.filters {
		if len(kept) == 0 {
			report = append(report, types.Rejection{Filter: f.Name()})
			continue
		}
		var rejected int
		kept, rejected = f.Apply(kept)
		report = append(report, types.Rejection{Filter: f.Name(), Count: rejected})
		if rejected > 0 {
			c.logger.Debug("offers rejected", zap.String("filter", f.Name()), zap.Int("rejected", rejected), zap.Int("remaining", len(kept)))
		}
	}
	if kept == nil {
		kept = []*types.NormalizedOffer{}
	}
	return kept, report
}

// keep returns the offers for which drop is false
func keep(offers []*types.NormalizedOffer, drop func(*types.NormalizedOffer) bool) ([]*types.NormalizedOffer, int) {
	kept := make([]*types.NormalizedOffer, 0, len(offers))
	for _, o := range offers {
		if !drop(o) {
			kept = append(kept, o)
		}
	}
	return kept, len(offers) - len(kept)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// containsTerm matches short terms on word boundaries and longer ones as substrings
func containsTerm(text, term string) bool {
	term = normalize(term)
	if term == "" {
		return false
	}
	if len(term) <= 3 {
		return wordPattern(term).MatchString(text)
	}
	return strings.Contains(text, term)
}

var wordPatterns sync.Map

func wordPattern(term string) *regexp.Regexp {
	if re, ok := wordPatterns.Load(term); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	wordPatterns.Store(term, re)
	return re
}
