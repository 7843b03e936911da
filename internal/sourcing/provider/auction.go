package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

const (
	auctionContract = "ebay/browse/v1"
	ebayScope       = "https://api.ebay.com/oauth/api_scope"
)

var ebayConditions = map[string]string{
	"new":         "NEW",
	"used":        "USED",
	"refurbished": "CERTIFIED_REFURBISHED|SELLER_REFURBISHED",
}

// AuctionProvider queries an auction marketplace through the eBay Browse API.
// Access tokens come from the OAuth2 client credentials grant and are cached
// until shortly before expiry.
type AuctionProvider struct {
	*BaseProvider
	oauth *clientcredentials.Config

	tokenMu sync.Mutex
	token   *oauth2.Token
}

// NewAuctionProvider creates a new auction marketplace source
func NewAuctionProvider(config *types.ProviderConfig, log *logger.Logger) (Source, error) {
	tokenURL := config.TokenURL
	if tokenURL == "" {
		tokenURL = strings.TrimRight(config.APIHost, "/") + "/identity/v1/oauth2/token"
	}

	return &AuctionProvider{
		BaseProvider: NewBaseProvider(config, log),
		oauth: &clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{ebayScope},
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
	}, nil
}

// BuildQuery maps the intent to Browse API search parameters
func (p *AuctionProvider) BuildQuery(intent *types.SearchIntent) (*types.ProviderQuery, error) {
	if err := checkMandatory(p.ID(), intent,
		types.ConstraintCondition, types.ConstraintPrice, types.ConstraintBrand, types.ConstraintCategory); err != nil {
		return nil, err
	}

	q := p.newQuery(auctionContract)
	q.Params["q"] = QueryString(intent)
	q.Params["limit"] = fmt.Sprint(p.config.GetMaxResults())

	var filters []string
	if budget := intent.Budget.InUSD(); budget.HasBounds() {
		lo, hi := "", ""
		if budget.Min != nil {
			lo = formatAmount(*budget.Min)
		}
		if budget.Max != nil {
			hi = formatAmount(*budget.Max)
		}
		filters = append(filters, fmt.Sprintf("price:[%s..%s]", lo, hi), "priceCurrency:USD")
	}
	if c := conditionOf(intent); c != "" {
		if v, ok := ebayConditions[c]; ok {
			filters = append(filters, "conditions:{"+v+"}")
		} else if intent.IsMandatory(types.ConstraintCondition) {
			return nil, &types.AdapterBuildError{Source: p.ID(), Constraint: types.ConstraintCondition, Reason: "unknown condition " + c}
		}
	}
	if intent.Freshness > 0 {
		since := time.Now().UTC().Add(-intent.Freshness).Truncate(time.Second)
		filters = append(filters, "itemStartDate:["+since.Format(time.RFC3339)+"..]")
	}
	if len(filters) > 0 {
		q.Params["filter"] = strings.Join(filters, ",")
	}
	return q, nil
}

// Fetch executes one Browse API search
func (p *AuctionProvider) Fetch(ctx context.Context, query *types.ProviderQuery) (*types.RawProviderResult, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	for k, v := range query.Params {
		params.Set(k, v)
	}

	marketplace := p.config.Marketplace
	if marketplace == "" {
		marketplace = "EBAY_US"
	}
	headers := map[string]string{
		"Authorization":           "Bearer " + token,
		"X-EBAY-C-MARKETPLACE-ID": marketplace,
	}

	body, err := p.doGet(ctx, strings.TrimRight(p.config.APIHost, "/")+"/buy/browse/v1/item_summary/search", params, headers)
	if err != nil {
		return nil, err
	}
	return p.newRaw(body), nil
}

// accessToken returns a cached token or fetches a new one within ctx
func (p *AuctionProvider) accessToken(ctx context.Context) (string, error) {
	p.tokenMu.Lock()
	defer p.tokenMu.Unlock()

	if p.token != nil && p.token.Expiry.After(time.Now().Add(time.Minute)) {
		return p.token.AccessToken, nil
	}

	tok, err := p.oauth.Token(context.WithValue(ctx, oauth2.HTTPClient, p.httpClient))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return "", p.statusError(re.Response, re.Body)
		}
		return "", p.transportError(ctx, err)
	}
	p.token = tok
	return tok.AccessToken, nil
}

// Normalize parses itemSummaries[] from a Browse API payload
func (p *AuctionProvider) Normalize(raw *types.RawProviderResult) ([]*types.NormalizedOffer, error) {
	return p.normalizeItems(raw, "itemSummaries", p.parseItem)
}

func (p *AuctionProvider) parseItem(r gjson.Result) (*item, error) {
	it := &item{
		Title:          r.Get("title").String(),
		URL:            firstOf(r, "itemWebUrl", "itemHref").String(),
		Price:          optPrice(r.Get("price.value")),
		Currency:       r.Get("price.currency").String(),
		Merchant:       r.Get("seller.username").String(),
		MerchantDomain: "ebay.com",
		ImageURL:       r.Get("image.imageUrl").String(),
		Description:    r.Get("condition").String(),
	}
	if it.Merchant == "" {
		it.Merchant = "eBay Seller"
	}
	if id := firstOf(r, "legacyItemId", "itemId").String(); id != "" {
		it.CanonicalURL = "https://ebay.com/itm/" + id
	}
	if cats := r.Get("categories.0.categoryName"); cats.Exists() {
		it.Category = cats.String()
	}

	// seller feedback percentage stands in for a rating on a 5 point scale
	if pct := optFloat(r.Get("seller.feedbackPercentage")); pct != nil {
		v := *pct / 20
		it.Rating = &v
	}
	it.ReviewCount = optInt(r.Get("seller.feedbackScore"))

	if ship := r.Get("shippingOptions.0"); ship.Exists() {
		cost := optFloat(ship.Get("shippingCost.value"))
		switch {
		case strings.EqualFold(ship.Get("shippingCostType").String(), "free"), cost != nil && *cost == 0:
			it.Shipping = "Free shipping"
		case cost != nil:
			cur := ship.Get("shippingCost.currency").String()
			if cur == "" {
				cur = it.Currency
			}
			it.Shipping = fmt.Sprintf("Shipping %s %.2f", cur, *cost)
		default:
			it.Shipping = ship.Get("type").String()
		}
	}

	if it.URL == "" && it.CanonicalURL != "" {
		it.URL = it.CanonicalURL
	}
	if it.Price == nil && r.Get("price").Exists() && !r.Get("price").IsObject() {
		return nil, errors.New("price is not an object")
	}
	return it, nil
}
