// Package scorer ranks offers by a weighted sum of price fit, relevance,
// quality and diversity. Ranking is a pure function of its input.
package scorer

import (
	"sort"
	"strings"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// DefaultDiversityTopK is the window over which representation is measured
const DefaultDiversityTopK = 10

// merchantTierBonus is the quality bonus per merchant reputation tier
const merchantTierBonus = 0.05

// Config configures a Scorer
type Config struct {
	Weights       Weights        `mapstructure:"weights"`
	DiversityTopK int            `mapstructure:"diversity_top_k"`
	MerchantTiers map[string]int `mapstructure:"merchant_tiers"` // merchant domain -> reputation tier
}

// DefaultConfig returns the default scorer configuration
func DefaultConfig() Config {
	return Config{Weights: DefaultWeights(), DiversityTopK: DefaultDiversityTopK}
}

// Scorer ranks offers
type Scorer struct {
	weights       Weights
	topK          int
	sourceTiers   map[types.SourceID]int
	merchantTiers map[string]int
}

// New creates a scorer. sourceTiers carries the trust tier used for
// tie-breaking.
func New(cfg Config, sourceTiers map[types.SourceID]int) *Scorer {
	if cfg.DiversityTopK <= 0 {
		cfg.DiversityTopK = DefaultDiversityTopK
	}
	merchants := make(map[string]int, len(cfg.MerchantTiers))
	for domain, tier := range cfg.MerchantTiers {
		merchants[strings.ToLower(strings.TrimPrefix(domain, "www."))] = tier
	}
	tiers := make(map[types.SourceID]int, len(sourceTiers))
	for id, tier := range sourceTiers {
		tiers[id] = tier
	}
	return &Scorer{
		weights:       cfg.Weights,
		topK:          cfg.DiversityTopK,
		sourceTiers:   tiers,
		merchantTiers: merchants,
	}
}

// Weights returns the active weights
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Rank scores every offer and returns them ordered by combined score
// descending, then source tier descending, then price ascending with
// unpriced offers last. Offers tied on all three keep their input order.
// The input slice and its offers are not modified.
func (s *Scorer) Rank(intent *types.SearchIntent, offers []*types.NormalizedOffer) []*types.ScoredOffer {
	budget := intent.Budget.InUSD()
	scored := make([]*types.ScoredOffer, len(offers))
	for i, o := range offers {
		sc := &types.ScoredOffer{NormalizedOffer: *o, SourceTier: s.sourceTiers[o.Source]}
		sc.Scores.Price = round4(PriceFit(o.Price, budget))
		sc.Scores.Relevance = round4(Relevance(o, intent))
		sc.Scores.Quality = round4(Quality(o, s.merchantBonus(o)))
		scored[i] = sc
	}

	s.applyDiversity(scored)

	w := s.weights
	for _, sc := range scored {
		sc.Scores.Combined = round4(w.Price*sc.Scores.Price +
			w.Relevance*sc.Scores.Relevance +
			w.Quality*sc.Scores.Quality +
			w.Diversity*sc.Scores.Diversity)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return ranksBefore(scored[i], scored[j], func(sc *types.ScoredOffer) float64 { return sc.Scores.Combined })
	})
	return scored
}

// applyDiversity measures, over the top K of a preliminary ranking without
// diversity, how well each offer's source and merchant are already
// represented, the offer itself excluded.
func (s *Scorer) applyDiversity(scored []*types.ScoredOffer) {
	if len(scored) <= 1 {
		for _, sc := range scored {
			sc.Scores.Diversity = 0.5
		}
		return
	}

	w := s.weights
	prelim := func(sc *types.ScoredOffer) float64 {
		return round4(w.Price*sc.Scores.Price + w.Relevance*sc.Scores.Relevance + w.Quality*sc.Scores.Quality)
	}
	order := make([]*types.ScoredOffer, len(scored))
	copy(order, scored)
	sort.SliceStable(order, func(i, j int) bool { return ranksBefore(order[i], order[j], prelim) })

	k := s.topK
	if k > len(order) {
		k = len(order)
	}
	top := order[:k]

	sources := make(map[types.SourceID]int)
	merchants := make(map[string]int)
	inTop := make(map[*types.ScoredOffer]bool, k)
	for _, sc := range top {
		sources[sc.Source]++
		merchants[merchantKey(&sc.NormalizedOffer)]++
		inTop[sc] = true
	}

	for _, sc := range scored {
		src := sources[sc.Source]
		mer := merchants[merchantKey(&sc.NormalizedOffer)]
		if inTop[sc] {
			src--
			mer--
		}
		sourceShare := float64(src) / float64(k)
		merchantShare := float64(mer) / float64(k)
		sc.Scores.Diversity = round4((shareBucket(sourceShare) + shareBucket(merchantShare)) / 2)
	}
}

func (s *Scorer) merchantBonus(o *types.NormalizedOffer) float64 {
	tier := s.merchantTiers[strings.ToLower(strings.TrimPrefix(o.MerchantDomain, "www."))]
	if tier <= 0 {
		return 0
	}
	return float64(tier) * merchantTierBonus
}

func merchantKey(o *types.NormalizedOffer) string {
	if o.MerchantDomain != "" {
		return strings.ToLower(o.MerchantDomain)
	}
	return strings.ToLower(strings.TrimSpace(o.MerchantName))
}

// ranksBefore orders by score desc, source tier desc, then price asc with
// nil prices last
func ranksBefore(a, b *types.ScoredOffer, score func(*types.ScoredOffer) float64) bool {
	sa, sb := score(a), score(b)
	if sa != sb {
		return sa > sb
	}
	if a.SourceTier != b.SourceTier {
		return a.SourceTier > b.SourceTier
	}
	switch {
	case a.Price == nil && b.Price == nil:
		return false
	case a.Price == nil:
		return false
	case b.Price == nil:
		return true
	}
	return *a.Price < *b.Price
}
