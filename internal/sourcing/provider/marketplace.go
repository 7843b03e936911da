package provider

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/urlx"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

const marketplaceContract = "rainforest/search/v1"

// MarketplaceProvider queries a general marketplace through the Rainforest
// product API (Amazon catalogue).
type MarketplaceProvider struct {
	*BaseProvider
}

// NewMarketplaceProvider creates a new general marketplace source
func NewMarketplaceProvider(config *types.ProviderConfig, log *logger.Logger) (Source, error) {
	return &MarketplaceProvider{BaseProvider: NewBaseProvider(config, log)}, nil
}

// BuildQuery maps the intent to Rainforest search parameters
func (p *MarketplaceProvider) BuildQuery(intent *types.SearchIntent) (*types.ProviderQuery, error) {
	if err := checkMandatory(p.ID(), intent,
		types.ConstraintCondition, types.ConstraintPrice, types.ConstraintBrand, types.ConstraintCategory); err != nil {
		return nil, err
	}

	domain := p.config.Marketplace
	if domain == "" {
		domain = "amazon.com"
	}

	q := p.newQuery(marketplaceContract)
	q.Params["type"] = "search"
	q.Params["amazon_domain"] = domain
	q.Params["search_term"] = QueryString(intent)
	budget := intent.Budget.InUSD()
	if budget.Min != nil {
		q.Params["min_price"] = formatAmount(*budget.Min)
	}
	if budget.Max != nil {
		q.Params["max_price"] = formatAmount(*budget.Max)
	}
	if c := conditionOf(intent); c != "" {
		q.Params["condition"] = c
	}
	return q, nil
}

// Fetch executes one Rainforest request
func (p *MarketplaceProvider) Fetch(ctx context.Context, query *types.ProviderQuery) (*types.RawProviderResult, error) {
	params := url.Values{}
	for k, v := range query.Params {
		params.Set(k, v)
	}
	params.Set("api_key", p.APIKey())

	body, err := p.doGet(ctx, p.config.APIHost+"/request", params, nil)
	if err != nil {
		return nil, err
	}
	return p.newRaw(body), nil
}

// Normalize parses search_results[] from a Rainforest payload
func (p *MarketplaceProvider) Normalize(raw *types.RawProviderResult) ([]*types.NormalizedOffer, error) {
	return p.normalizeItems(raw, "search_results", p.parseItem)
}

func (p *MarketplaceProvider) parseItem(r gjson.Result) (*item, error) {
	link := r.Get("link").String()
	if link != "" && p.config.AffiliateTag != "" {
		link = urlx.WithParam(link, "tag", p.config.AffiliateTag)
	}

	it := &item{
		Title:       r.Get("title").String(),
		URL:         link,
		Merchant:    "Amazon",
		ImageURL:    r.Get("image").String(),
		Rating:      optFloat(r.Get("rating")),
		ReviewCount: optInt(r.Get("ratings_total")),
		Shipping:    r.Get("delivery.tagline").String(),
	}
	if asin := r.Get("asin").String(); asin != "" {
		it.CanonicalURL = "https://amazon.com/dp/" + asin
	}

	priceNode := firstOf(r, "price", "prices.0", "prices.current_price", "prices.buybox_price")
	if priceNode.IsObject() {
		it.Price = optPrice(priceNode.Get("value"))
		if it.Price == nil {
			it.Price = optPrice(priceNode.Get("raw"))
		}
		it.Currency = priceNode.Get("currency").String()
	} else {
		it.Price = optPrice(priceNode)
	}

	if it.Shipping == "" && r.Get("is_prime").Bool() {
		it.Shipping = "Prime shipping"
	}
	return it, nil
}
