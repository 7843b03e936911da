package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

func ptr(v float64) *float64 { return &v }

func marketplaceConfig(host string) *types.ProviderConfig {
	return &types.ProviderConfig{
		ID:      types.SourceMarketplace,
		Name:    "Marketplace",
		Enabled: true,
		APIHost: host,
		APIKey:  "rf-key",
		Tier:    3,
	}
}

func newMarketplace(t *testing.T, cfg *types.ProviderConfig) Source {
	t.Helper()
	s, err := NewMarketplaceProvider(cfg, logger.NewNop())
	require.NoError(t, err)
	return s
}

func TestNewBaseProvider(t *testing.T) {
	base := NewBaseProvider(marketplaceConfig("https://api.rainforestapi.com"), logger.NewNop())
	assert.Equal(t, types.SourceMarketplace, base.ID())
	assert.Equal(t, "Marketplace", base.Name())
	assert.Equal(t, 3, base.Tier())
	assert.Equal(t, "rf-key", base.APIKey())
	assert.Equal(t, 30*time.Second, base.HTTPClient().Timeout)
}

func TestBaseProvider_APIKey_Rotation(t *testing.T) {
	cfg := marketplaceConfig("https://api.rainforestapi.com")
	cfg.APIKey = "key1, key2,,key3"
	base := NewBaseProvider(cfg, logger.NewNop())

	assert.Equal(t, "key1", base.APIKey())
	assert.Equal(t, "key2", base.APIKey())
	assert.Equal(t, "key3", base.APIKey())
	assert.Equal(t, "key1", base.APIKey())
}

func TestQueryTerms(t *testing.T) {
	intent := &types.SearchIntent{
		Brand:       "Nike",
		ProductName: "Pegasus 40",
		Category:    "running_shoes",
		Keywords:    []string{"trail", "nike"},
		Preferences: map[string]string{"color": "blue", "waterproof": "no"},
		Query:       "trail",
	}
	assert.Equal(t, []string{"Nike", "Pegasus 40", "running shoes", "trail", "blue"}, QueryTerms(intent))
	assert.Equal(t, "Nike Pegasus 40 running shoes trail blue", QueryString(intent))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,299.99", 1299.99, true},
		{"USD 1299", 1299, true},
		{"$500 - $800", 500, true},
		{"free", 0, false},
		{"$0.00", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePrice(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestMarketplace_BuildQuery(t *testing.T) {
	p := newMarketplace(t, marketplaceConfig("https://api.rainforestapi.com"))

	q, err := p.BuildQuery(&types.SearchIntent{
		Query:     "running shoes",
		Condition: "new",
		Budget:    types.Budget{Min: ptr(50), Max: ptr(120.5)},
	})
	require.NoError(t, err)
	assert.Equal(t, types.SourceMarketplace, q.Source)
	assert.Equal(t, marketplaceContract, q.ContractVersion)
	assert.Equal(t, "search", q.Params["type"])
	assert.Equal(t, "amazon.com", q.Params["amazon_domain"])
	assert.Equal(t, "running shoes", q.Params["search_term"])
	assert.Equal(t, "50", q.Params["min_price"])
	assert.Equal(t, "120.5", q.Params["max_price"])
	assert.Equal(t, "new", q.Params["condition"])
	assert.NotContains(t, q.Params, "api_key")

	q, err = p.BuildQuery(&types.SearchIntent{
		Query:  "running shoes",
		Budget: types.Budget{Min: ptr(5000), Max: ptr(15000), Currency: "JPY"},
	})
	require.NoError(t, err)
	assert.Equal(t, "33.5", q.Params["min_price"])
	assert.Equal(t, "100.5", q.Params["max_price"])
}

const marketplacePayload = `{"search_results":[
	{"title":"Trail Runner 5","asin":"B001","link":"https://www.amazon.com/dp/B001?ref=sr_1","price":{"value":129.99,"currency":"USD"},"rating":4.6,"ratings_total":1204,"image":"https://m.media-amazon.com/1.jpg","is_prime":true},
	{"asin":"B002","link":"https://www.amazon.com/dp/B002"},
	"garbage",
	{"title":"Road Runner","link":"https://www.amazon.com/dp/B003","prices":[{"value":"89.50"}]}
]}`

func TestMarketplace_FetchAndNormalize(t *testing.T) {
	var gotKey, gotTerm string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/request", r.URL.Path)
		gotKey = r.URL.Query().Get("api_key")
		gotTerm = r.URL.Query().Get("search_term")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(marketplacePayload))
	}))
	defer srv.Close()

	p := newMarketplace(t, marketplaceConfig(srv.URL))
	q, err := p.BuildQuery(&types.SearchIntent{Query: "trail shoes"})
	require.NoError(t, err)

	raw, err := p.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "rf-key", gotKey)
	assert.Equal(t, "trail shoes", gotTerm)
	assert.NotEmpty(t, raw.ID)
	assert.Equal(t, types.SourceMarketplace, raw.Source)

	offers, err := p.Normalize(raw)
	require.NoError(t, err)
	require.Len(t, offers, 2)

	first := offers[0]
	assert.Equal(t, "Trail Runner 5", first.Title)
	require.NotNil(t, first.Price)
	assert.InDelta(t, 129.99, *first.Price, 1e-9)
	assert.Equal(t, "USD", first.Currency)
	assert.Equal(t, "https://amazon.com/dp/B001", first.CanonicalURL)
	assert.Equal(t, "amazon.com", first.MerchantDomain)
	assert.Equal(t, "Amazon", first.MerchantName)
	assert.Equal(t, "Prime shipping", first.ShippingInfo)
	require.NotNil(t, first.Rating)
	assert.InDelta(t, 4.6, *first.Rating, 1e-9)
	require.NotNil(t, first.ReviewCount)
	assert.Equal(t, 1204, *first.ReviewCount)
	require.NotNil(t, first.ImageURL)
	assert.Equal(t, raw.ID, first.Provenance.RawResultID)
	assert.Equal(t, 0, first.Provenance.ItemIndex)

	second := offers[1]
	assert.Equal(t, "Road Runner", second.Title)
	require.NotNil(t, second.Price)
	assert.InDelta(t, 89.5, *second.Price, 1e-9)
	assert.Equal(t, "https://amazon.com/dp/B003", second.CanonicalURL)
	assert.Nil(t, second.ImageURL)
	assert.Nil(t, second.Rating)
	assert.Nil(t, second.ReviewCount)
	assert.Equal(t, 3, second.Provenance.ItemIndex)
}

func TestMarketplace_AffiliateTag(t *testing.T) {
	cfg := marketplaceConfig("https://api.rainforestapi.com")
	cfg.AffiliateTag = "buyer-20"
	p := newMarketplace(t, cfg)

	raw := &types.RawProviderResult{ID: "r1", Source: types.SourceMarketplace, Payload: []byte(
		`{"search_results":[{"title":"Chair","asin":"C1","link":"https://www.amazon.com/dp/C1"}]}`)}
	offers, err := p.Normalize(raw)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "https://www.amazon.com/dp/C1?tag=buyer-20", offers[0].URL)
	assert.Equal(t, "https://amazon.com/dp/C1", offers[0].CanonicalURL)
}

func TestNormalize_PayloadShapes(t *testing.T) {
	p := newMarketplace(t, marketplaceConfig("https://api.rainforestapi.com"))

	t.Run("missing results is empty", func(t *testing.T) {
		offers, err := p.Normalize(&types.RawProviderResult{Payload: []byte(`{"search_results":null}`)})
		require.NoError(t, err)
		assert.NotNil(t, offers)
		assert.Empty(t, offers)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := p.Normalize(&types.RawProviderResult{Payload: []byte(`{"search_results":[`)})
		pe, ok := types.AsProviderError(err)
		require.True(t, ok)
		assert.Equal(t, types.KindDecode, pe.Kind)
		assert.ErrorIs(t, err, types.ErrInvalidResponse)
	})

	t.Run("results not an array", func(t *testing.T) {
		_, err := p.Normalize(&types.RawProviderResult{Payload: []byte(`{"search_results":{"title":"x"}}`)})
		assert.ErrorIs(t, err, types.ErrInvalidResponse)
	})

	t.Run("max results cap", func(t *testing.T) {
		cfg := marketplaceConfig("https://api.rainforestapi.com")
		cfg.MaxResults = 1
		capped := newMarketplace(t, cfg)
		offers, err := capped.Normalize(&types.RawProviderResult{Payload: []byte(marketplacePayload)})
		require.NoError(t, err)
		assert.Len(t, offers, 1)
	})
}

func TestFetch_StatusClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		header     map[string]string
		wantKind   types.ErrorKind
		wantRetry  time.Duration
		transient  bool
		wantStatus int
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, header: map[string]string{"Retry-After": "30"}, wantKind: types.KindRateLimited, wantRetry: 30 * time.Second, wantStatus: 429},
		{name: "quota exhausted", status: http.StatusPaymentRequired, wantKind: types.KindExhausted, wantStatus: 402},
		{name: "server error", status: http.StatusInternalServerError, wantKind: types.KindHTTP, wantStatus: 500},
		{name: "unauthorized", status: http.StatusUnauthorized, wantKind: types.KindHTTP, wantStatus: 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"denied","request":"api_key=rf-key"}`))
			}))
			defer srv.Close()

			p := newMarketplace(t, marketplaceConfig(srv.URL))
			q, err := p.BuildQuery(&types.SearchIntent{Query: "chair"})
			require.NoError(t, err)

			_, err = p.Fetch(context.Background(), q)
			pe, ok := types.AsProviderError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, pe.Kind)
			assert.Equal(t, tt.wantStatus, pe.StatusCode)
			assert.Equal(t, tt.wantRetry, pe.RetryAfter)
			assert.Equal(t, tt.transient, pe.Transient())
			assert.NotContains(t, pe.Error(), "rf-key")
		})
	}
}

func TestFetch_TransportClassification(t *testing.T) {
	t.Run("connection refused is network", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		host := srv.URL
		srv.Close()

		p := newMarketplace(t, marketplaceConfig(host))
		q, err := p.BuildQuery(&types.SearchIntent{Query: "chair"})
		require.NoError(t, err)

		_, err = p.Fetch(context.Background(), q)
		pe, ok := types.AsProviderError(err)
		require.True(t, ok)
		assert.Equal(t, types.KindNetwork, pe.Kind)
		assert.True(t, pe.Transient())
	})

	t.Run("deadline is timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		p := newMarketplace(t, marketplaceConfig(srv.URL))
		q, err := p.BuildQuery(&types.SearchIntent{Query: "chair"})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = p.Fetch(ctx, q)
		pe, ok := types.AsProviderError(err)
		require.True(t, ok)
		assert.Equal(t, types.KindTimeout, pe.Kind)
		assert.False(t, pe.Transient())
	})
}

func shoppingConfig(host string) *types.ProviderConfig {
	return &types.ProviderConfig{
		ID:      types.SourceShopping,
		Name:    "Web Shopping",
		Enabled: true,
		APIHost: host,
		APIKey:  "serp-key",
		Tier:    1,
	}
}

func TestShopping_BuildQuery(t *testing.T) {
	p, err := NewShoppingProvider(shoppingConfig("https://serpapi.com"), logger.NewNop())
	require.NoError(t, err)

	t.Run("optional condition is dropped", func(t *testing.T) {
		q, err := p.BuildQuery(&types.SearchIntent{
			Query:     "office chair",
			Condition: "used",
			Budget:    types.Budget{Min: ptr(500), Max: ptr(800)},
		})
		require.NoError(t, err)
		assert.Equal(t, "google_shopping", q.Params["engine"])
		assert.Equal(t, "office chair", q.Params["q"])
		assert.Equal(t, "mr:1,price:1,ppr_min:500,ppr_max:800", q.Params["tbs"])
		assert.NotContains(t, q.Params, "condition")
	})

	t.Run("foreign budget is converted and widened to whole dollars", func(t *testing.T) {
		q, err := p.BuildQuery(&types.SearchIntent{
			Query:  "office chair",
			Budget: types.Budget{Min: ptr(5000), Max: ptr(15000), Currency: "JPY"},
		})
		require.NoError(t, err)
		assert.Equal(t, "mr:1,price:1,ppr_min:33,ppr_max:101", q.Params["tbs"])
	})

	t.Run("small budget keeps a nonzero ceiling", func(t *testing.T) {
		q, err := p.BuildQuery(&types.SearchIntent{
			Query:  "sticker",
			Budget: types.Budget{Max: ptr(100), Currency: "JPY"},
		})
		require.NoError(t, err)
		assert.Equal(t, "mr:1,price:1,ppr_max:1", q.Params["tbs"])
	})

	t.Run("mandatory condition fails to build", func(t *testing.T) {
		_, err := p.BuildQuery(&types.SearchIntent{
			Query:     "office chair",
			Condition: "used",
			Mandatory: []string{"condition"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrUnsupportedTerm)
		var abe *types.AdapterBuildError
		require.True(t, errors.As(err, &abe))
		assert.Equal(t, types.SourceShopping, abe.Source)
		assert.Equal(t, types.ConstraintCondition, abe.Constraint)
	})

	t.Run("mandatory condition of any is satisfiable", func(t *testing.T) {
		_, err := p.BuildQuery(&types.SearchIntent{
			Query:     "office chair",
			Condition: "any",
			Mandatory: []string{"condition"},
		})
		assert.NoError(t, err)
	})
}

func TestShopping_FetchAndNormalize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "serp-key", r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(`{"shopping_results":[
			{"title":"Brooks Ghost 15","product_link":"https://www.google.com/shopping/product/1?utm_source=x","price":"$1,299.99","source":"Brooks Running","thumbnail":"https://img.example.com/2.jpg","rating":4.7,"reviews":"2,345","delivery":"Free delivery"},
			{"title":"Euro Trainer","link":"https://shop.example.de/p/9","price":"€100.00","extracted_price":100,"source":"Example DE"},
			{"title":"No link"}
		]}`))
	}))
	defer srv.Close()

	p, err := NewShoppingProvider(shoppingConfig(srv.URL), logger.NewNop())
	require.NoError(t, err)
	q, err := p.BuildQuery(&types.SearchIntent{Query: "running shoes"})
	require.NoError(t, err)

	raw, err := p.Fetch(context.Background(), q)
	require.NoError(t, err)
	offers, err := p.Normalize(raw)
	require.NoError(t, err)
	require.Len(t, offers, 2)

	assert.Equal(t, "Brooks Running", offers[0].MerchantName)
	assert.Equal(t, "https://google.com/shopping/product/1", offers[0].CanonicalURL)
	require.NotNil(t, offers[0].Price)
	assert.InDelta(t, 1299.99, *offers[0].Price, 1e-9)
	require.NotNil(t, offers[0].ReviewCount)
	assert.Equal(t, 2345, *offers[0].ReviewCount)
	assert.Equal(t, "Free delivery", offers[0].ShippingInfo)

	require.NotNil(t, offers[1].Price)
	assert.InDelta(t, 108.0, *offers[1].Price, 1e-9)
	assert.Equal(t, "USD", offers[1].Currency)
	assert.Equal(t, "EUR", offers[1].CurrencyOriginal)
	require.NotNil(t, offers[1].PriceOriginal)
	assert.InDelta(t, 100.0, *offers[1].PriceOriginal, 1e-9)
	assert.Equal(t, "shop.example.de", offers[1].MerchantDomain)
}

func TestShopping_QuotaErrorInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Your account has run out of searches."}`))
	}))
	defer srv.Close()

	p, err := NewShoppingProvider(shoppingConfig(srv.URL), logger.NewNop())
	require.NoError(t, err)
	q, err := p.BuildQuery(&types.SearchIntent{Query: "desk"})
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), q)
	pe, ok := types.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, types.KindExhausted, pe.Kind)
}

func auctionConfig(host string) *types.ProviderConfig {
	return &types.ProviderConfig{
		ID:           types.SourceAuction,
		Name:         "Auction",
		Enabled:      true,
		APIHost:      host,
		ClientID:     "client",
		ClientSecret: "secret",
		Tier:         2,
	}
}

func TestAuction_BuildQuery(t *testing.T) {
	p, err := NewAuctionProvider(auctionConfig("https://api.ebay.com"), logger.NewNop())
	require.NoError(t, err)

	q, err := p.BuildQuery(&types.SearchIntent{
		Query:     "garmin watch",
		Condition: "used",
		Budget:    types.Budget{Min: ptr(100), Max: ptr(300)},
	})
	require.NoError(t, err)
	assert.Equal(t, "garmin watch", q.Params["q"])
	assert.Equal(t, "20", q.Params["limit"])
	assert.Equal(t, "price:[100..300],priceCurrency:USD,conditions:{USED}", q.Params["filter"])

	_, err = p.BuildQuery(&types.SearchIntent{Query: "watch", Condition: "mint", Mandatory: []string{"condition"}})
	assert.ErrorIs(t, err, types.ErrUnsupportedTerm)

	q, err = p.BuildQuery(&types.SearchIntent{Query: "watch", Condition: "mint"})
	require.NoError(t, err)
	assert.NotContains(t, q.Params, "filter")
}

func TestAuction_BuildQuery_BudgetAndFreshness(t *testing.T) {
	p, err := NewAuctionProvider(auctionConfig("https://api.ebay.com"), logger.NewNop())
	require.NoError(t, err)

	q, err := p.BuildQuery(&types.SearchIntent{
		Query:  "garmin watch",
		Budget: types.Budget{Max: ptr(15000), Currency: "JPY"},
	})
	require.NoError(t, err)
	assert.Equal(t, "price:[..100.5],priceCurrency:USD", q.Params["filter"])

	before := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	q, err = p.BuildQuery(&types.SearchIntent{Query: "garmin watch", Freshness: 48 * time.Hour})
	require.NoError(t, err)
	filter := q.Params["filter"]
	require.True(t, strings.HasPrefix(filter, "itemStartDate:["), filter)
	require.True(t, strings.HasSuffix(filter, "..]"), filter)
	since, err := time.Parse(time.RFC3339, strings.TrimSuffix(strings.TrimPrefix(filter, "itemStartDate:["), "..]"))
	require.NoError(t, err)
	assert.WithinDuration(t, before, since, 2*time.Second)
}

func TestAuction_FetchAndNormalize(t *testing.T) {
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":7200}`))
	})
	mux.HandleFunc("/buy/browse/v1/item_summary/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "EBAY_US", r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
		_, _ = w.Write([]byte(`{"itemSummaries":[
			{"itemId":"v1|123|0","legacyItemId":"123","title":"Garmin Forerunner 255","itemWebUrl":"https://www.ebay.com/itm/123?hash=abc",
			 "price":{"value":"199.99","currency":"USD"},"seller":{"username":"gadgets","feedbackPercentage":"99.0","feedbackScore":5120},
			 "image":{"imageUrl":"https://i.ebayimg.com/1.jpg"},"condition":"Used",
			 "shippingOptions":[{"shippingCostType":"FIXED","shippingCost":{"value":"0.00","currency":"USD"}}]},
			{"itemId":"v1|124|0","title":"Bad price","price":"cheap"}
		]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p, err := NewAuctionProvider(auctionConfig(srv.URL), logger.NewNop())
	require.NoError(t, err)
	q, err := p.BuildQuery(&types.SearchIntent{Query: "garmin"})
	require.NoError(t, err)

	raw, err := p.Fetch(context.Background(), q)
	require.NoError(t, err)
	_, err = p.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))

	offers, err := p.Normalize(raw)
	require.NoError(t, err)
	require.Len(t, offers, 1)

	o := offers[0]
	assert.Equal(t, "https://ebay.com/itm/123", o.CanonicalURL)
	assert.Equal(t, "ebay.com", o.MerchantDomain)
	assert.Equal(t, "gadgets", o.MerchantName)
	assert.Equal(t, "Free shipping", o.ShippingInfo)
	require.NotNil(t, o.Price)
	assert.InDelta(t, 199.99, *o.Price, 1e-9)
	require.NotNil(t, o.Rating)
	assert.InDelta(t, 4.95, *o.Rating, 1e-9)
	require.NotNil(t, o.ReviewCount)
	assert.Equal(t, 5120, *o.ReviewCount)
}

func TestAuction_TokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	p, err := NewAuctionProvider(auctionConfig(srv.URL), logger.NewNop())
	require.NoError(t, err)
	q, err := p.BuildQuery(&types.SearchIntent{Query: "garmin"})
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), q)
	pe, ok := types.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, types.KindHTTP, pe.Kind)
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
}
