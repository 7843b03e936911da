package provider

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

const shoppingContract = "serpapi/google_shopping/v1"

// ShoppingProvider queries a web-shopping aggregator (Google Shopping via
// SerpAPI). The aggregator has no condition filter: a condition is dropped
// unless the intent marks it mandatory.
type ShoppingProvider struct {
	*BaseProvider
}

// NewShoppingProvider creates a new web-shopping aggregator source
func NewShoppingProvider(config *types.ProviderConfig, log *logger.Logger) (Source, error) {
	return &ShoppingProvider{BaseProvider: NewBaseProvider(config, log)}, nil
}

// BuildQuery maps the intent to SerpAPI parameters
func (p *ShoppingProvider) BuildQuery(intent *types.SearchIntent) (*types.ProviderQuery, error) {
	if err := checkMandatory(p.ID(), intent,
		types.ConstraintPrice, types.ConstraintBrand, types.ConstraintCategory); err != nil {
		return nil, err
	}

	gl := p.config.Marketplace
	if gl == "" {
		gl = "us"
	}

	q := p.newQuery(shoppingContract)
	q.Params["engine"] = "google_shopping"
	q.Params["q"] = QueryString(intent)
	q.Params["gl"] = gl
	q.Params["hl"] = "en"
	q.Params["num"] = fmt.Sprint(p.config.GetMaxResults())

	if budget := intent.Budget.InUSD(); budget.HasBounds() {
		// whole units only; round outward so the bounds never narrow
		tbs := []string{"mr:1", "price:1"}
		if budget.Min != nil {
			tbs = append(tbs, fmt.Sprintf("ppr_min:%d", int(math.Floor(*budget.Min))))
		}
		if budget.Max != nil {
			tbs = append(tbs, fmt.Sprintf("ppr_max:%d", int(math.Ceil(*budget.Max))))
		}
		q.Params["tbs"] = strings.Join(tbs, ",")
	}
	return q, nil
}

// Fetch executes one SerpAPI request
func (p *ShoppingProvider) Fetch(ctx context.Context, query *types.ProviderQuery) (*types.RawProviderResult, error) {
	params := url.Values{}
	for k, v := range query.Params {
		params.Set(k, v)
	}
	params.Set("api_key", p.APIKey())

	body, err := p.doGet(ctx, strings.TrimRight(p.config.APIHost, "/")+"/search.json", params, nil)
	if err != nil {
		return nil, err
	}

	// SerpAPI reports quota problems with a 200 and an error field
	if msg := gjson.GetBytes(body, "error").String(); msg != "" {
		pe := &types.ProviderError{Source: p.ID(), Kind: types.KindHTTP, Message: snippet([]byte(msg))}
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "run out of searches") {
			pe.Kind = types.KindExhausted
		}
		return nil, pe
	}
	return p.newRaw(body), nil
}

// Normalize parses shopping_results[] from a SerpAPI payload
func (p *ShoppingProvider) Normalize(raw *types.RawProviderResult) ([]*types.NormalizedOffer, error) {
	return p.normalizeItems(raw, "shopping_results", p.parseItem)
}

func (p *ShoppingProvider) parseItem(r gjson.Result) (*item, error) {
	it := &item{
		Title:       r.Get("title").String(),
		URL:         firstOf(r, "product_link", "link", "offers_link").String(),
		Merchant:    r.Get("source").String(),
		ImageURL:    r.Get("thumbnail").String(),
		Rating:      optFloat(r.Get("rating")),
		ReviewCount: optInt(r.Get("reviews")),
		Shipping:    r.Get("delivery").String(),
		Description: r.Get("snippet").String(),
	}

	it.Price = optPrice(r.Get("extracted_price"))
	if it.Price == nil {
		it.Price = optPrice(r.Get("price"))
	}
	if it.Price != nil {
		it.Currency = currencyFromSymbol(r.Get("price").String())
	}
	return it, nil
}

func currencyFromSymbol(display string) string {
	display = strings.TrimSpace(display)
	switch {
	case strings.HasPrefix(display, "€"):
		return "EUR"
	case strings.HasPrefix(display, "£"):
		return "GBP"
	case strings.HasPrefix(display, "CA$"), strings.HasPrefix(display, "C$"):
		return "CAD"
	case strings.HasPrefix(display, "A$"):
		return "AUD"
	case strings.HasPrefix(display, "¥"):
		return "JPY"
	case strings.HasPrefix(display, "₹"):
		return "INR"
	}
	return "USD"
}
