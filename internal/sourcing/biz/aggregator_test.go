package biz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/executor"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/filter"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/health"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/provider"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

type fakeSource struct {
	id        types.SourceID
	tier      int
	delay     time.Duration
	ignoreCtx bool
	offers    []*types.NormalizedOffer
	fetchErr  error
	buildErr  error
	panicNorm bool
	calls     int32
	built     *types.SearchIntent
}

func (f *fakeSource) ID() types.SourceID { return f.id }
func (f *fakeSource) Name() string       { return string(f.id) }
func (f *fakeSource) Tier() int          { return f.tier }

func (f *fakeSource) BuildQuery(intent *types.SearchIntent) (*types.ProviderQuery, error) {
	f.built = intent
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return &types.ProviderQuery{Source: f.id, Params: map[string]string{}}, nil
}

func (f *fakeSource) Fetch(ctx context.Context, _ *types.ProviderQuery) (*types.RawProviderResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		if f.ignoreCtx {
			time.Sleep(f.delay)
		} else {
			select {
			case <-ctx.Done():
				return nil, &types.ProviderError{Source: f.id, Kind: types.KindTimeout, Message: "request timed out", Err: ctx.Err()}
			case <-time.After(f.delay):
			}
		}
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &types.RawProviderResult{ID: "raw-" + string(f.id), Source: f.id, Payload: []byte("{}"), FetchedAt: time.Now()}, nil
}

func (f *fakeSource) Normalize(raw *types.RawProviderResult) ([]*types.NormalizedOffer, error) {
	if f.panicNorm {
		panic("normalizer bug")
	}
	out := make([]*types.NormalizedOffer, len(f.offers))
	for i, o := range f.offers {
		c := *o
		c.Provenance = types.Provenance{RawResultID: raw.ID, Source: f.id, ItemIndex: i}
		out[i] = &c
	}
	return out, nil
}

func (f *fakeSource) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

type fakeVendors struct {
	matches []types.VendorMatch
	err     error
	delay   time.Duration
}

func (f *fakeVendors) Match(ctx context.Context, _ *types.SearchIntent, _ float64) ([]types.VendorMatch, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.matches, f.err
}

func offer(src types.SourceID, n int, price float64) *types.NormalizedOffer {
	url := fmt.Sprintf("https://shop.example/%s/%d", src, n)
	return &types.NormalizedOffer{
		Title:          fmt.Sprintf("Wireless Headphones Model %d", n),
		Price:          &price,
		Currency:       "USD",
		MerchantName:   "Shop " + string(src),
		MerchantDomain: string(src) + ".example",
		URL:            url,
		CanonicalURL:   url,
		Source:         src,
	}
}

func offers(src types.SourceID, n int) []*types.NormalizedOffer {
	out := make([]*types.NormalizedOffer, n)
	for i := range out {
		out[i] = offer(src, i, float64(20+i*15))
	}
	return out
}

func headphonesIntent() *types.SearchIntent {
	max := 100.0
	return &types.SearchIntent{
		Category: "electronics",
		Query:    "wireless headphones",
		Budget:   types.Budget{Max: &max},
	}
}

func newTestAggregator(sources []provider.Source, vendors VendorMatcher, store health.Store, deadline time.Duration) *Aggregator {
	log := logger.NewNop()
	exec := executor.New(5*time.Second, 10*time.Millisecond, log)
	opts := DefaultOptions()
	opts.Deadline = deadline
	return NewAggregator(sources, vendors, store, exec, nil, filter.Config{}, opts, log)
}

func statusList(resp *types.SearchResponse) []types.Status {
	out := make([]types.Status, len(resp.Statuses))
	for i, s := range resp.Statuses {
		out[i] = s.Status
	}
	return out
}

func TestAggregator_ExampleScenario(t *testing.T) {
	a := &fakeSource{id: "a", delay: 80 * time.Millisecond, offers: offers("a", 5)}
	b := &fakeSource{id: "b", delay: 5 * time.Second}
	c := &fakeSource{id: "c", fetchErr: &types.ProviderError{Source: "c", Kind: types.KindRateLimited, StatusCode: http.StatusTooManyRequests, Message: "rate limited"}}

	deadline := 400 * time.Millisecond
	agg := newTestAggregator([]provider.Source{a, b, c}, nil, nil, deadline)

	start := time.Now()
	resp, err := agg.Search(context.Background(), headphonesIntent())
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Equal(t, []types.Status{types.StatusOK, types.StatusTimeout, types.StatusRateLimited}, statusList(resp))
	require.Len(t, resp.Offers, 5)
	for i, o := range resp.Offers {
		assert.Equal(t, types.SourceID("a"), o.Source)
		if i > 0 {
			assert.GreaterOrEqual(t, resp.Offers[i-1].Scores.Combined, o.Scores.Combined)
		}
	}
	assert.False(t, resp.AllFailed)
	assert.Empty(t, resp.UserMessage)
	assert.NotEmpty(t, resp.SearchID)
	assert.Less(t, elapsed, deadline+DefaultSlack+200*time.Millisecond)
	assert.Equal(t, 1, c.Calls(), "429 must not be retried")
}

func TestAggregator_PartialFailure(t *testing.T) {
	ok1 := &fakeSource{id: "ok1", offers: offers("ok1", 2)}
	ok2 := &fakeSource{id: "ok2", offers: offers("ok2", 3)}
	slow1 := &fakeSource{id: "slow1", delay: 3 * time.Second, offers: offers("slow1", 4)}
	slow2 := &fakeSource{id: "slow2", delay: 3 * time.Second, ignoreCtx: true, offers: offers("slow2", 4)}

	deadline := 300 * time.Millisecond
	agg := newTestAggregator([]provider.Source{ok1, slow1, ok2, slow2}, nil, nil, deadline)

	start := time.Now()
	resp, err := agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), deadline+DefaultSlack+200*time.Millisecond)

	assert.Equal(t, []types.Status{types.StatusOK, types.StatusTimeout, types.StatusOK, types.StatusTimeout}, statusList(resp))
	assert.Len(t, resp.Offers, 5)
	for _, o := range resp.Offers {
		assert.Contains(t, []types.SourceID{"ok1", "ok2"}, o.Source)
	}
}

func TestAggregator_OneStatusPerSourceInOrder(t *testing.T) {
	sources := []provider.Source{
		&fakeSource{id: "s1", delay: 60 * time.Millisecond, offers: offers("s1", 1)},
		&fakeSource{id: "s2", fetchErr: &types.ProviderError{Source: "s2", Kind: types.KindHTTP, StatusCode: 500, Message: "boom"}},
		&fakeSource{id: "s3", fetchErr: &types.ProviderError{Source: "s3", Kind: types.KindExhausted, StatusCode: 402, Message: "quota"}},
	}
	vendors := &fakeVendors{matches: []types.VendorMatch{{VendorID: "v1", Similarity: 0.9, Name: "Acme"}}}
	agg := newTestAggregator(sources, vendors, nil, time.Second)

	resp, err := agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)

	require.Len(t, resp.Statuses, 4)
	ids := []types.SourceID{}
	for _, s := range resp.Statuses {
		ids = append(ids, s.Source)
	}
	assert.Equal(t, []types.SourceID{"s1", "s2", "s3", types.SourceVendorDirectory}, ids)
	assert.Equal(t, []types.Status{types.StatusOK, types.StatusError, types.StatusExhausted, types.StatusOK}, statusList(resp))
	assert.Equal(t, 1, resp.Statuses[3].ResultCount)
	assert.Equal(t, vendors.matches, resp.Vendors)
}

func TestAggregator_RateLimitCooldownSkipsNextSearch(t *testing.T) {
	limited := &fakeSource{id: "limited", fetchErr: &types.ProviderError{Source: "limited", Kind: types.KindRateLimited, StatusCode: 429, RetryAfter: time.Minute}}
	fine := &fakeSource{id: "fine", offers: offers("fine", 1)}
	store := health.NewMemoryStore(health.DefaultPolicy())
	agg := newTestAggregator([]provider.Source{fine, limited}, nil, store, time.Second)

	_, err := agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)
	require.Equal(t, 1, limited.Calls())

	resp, err := agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)
	assert.Equal(t, 1, limited.Calls(), "cooling source must not be called")
	assert.Equal(t, types.StatusRateLimited, resp.Statuses[1].Status)
	assert.Contains(t, resp.Statuses[1].Message, "cooling down")
}

func TestAggregator_BudgetSpentReportsExhausted(t *testing.T) {
	src := &fakeSource{id: "budgeted", offers: offers("budgeted", 1)}
	policy := health.DefaultPolicy()
	policy.Budgets = map[types.SourceID]int{"budgeted": 1}
	agg := newTestAggregator([]provider.Source{src}, nil, health.NewMemoryStore(policy), time.Second)

	resp, err := agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)
	assert.Equal(t, types.StatusOK, resp.Statuses[0].Status)

	resp, err = agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)
	assert.Equal(t, types.StatusExhausted, resp.Statuses[0].Status)
	assert.Equal(t, 1, src.Calls())
	assert.True(t, resp.AllFailed)
	assert.Equal(t, MessageQuotaExhausted, resp.UserMessage)
}

func TestAggregator_PanicIsContained(t *testing.T) {
	bad := &fakeSource{id: "bad", panicNorm: true, offers: offers("bad", 2)}
	good := &fakeSource{id: "good", offers: offers("good", 2)}
	agg := newTestAggregator([]provider.Source{bad, good}, nil, nil, time.Second)

	resp, err := agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)
	assert.Equal(t, []types.Status{types.StatusError, types.StatusOK}, statusList(resp))
	assert.Len(t, resp.Offers, 2)
}

func TestAggregator_AdapterBuildErrorSkipsCall(t *testing.T) {
	src := &fakeSource{id: "strict", buildErr: &types.AdapterBuildError{Source: "strict", Constraint: "condition", Reason: "not supported"}}
	agg := newTestAggregator([]provider.Source{src}, nil, nil, time.Second)

	resp, err := agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)
	assert.Equal(t, types.StatusError, resp.Statuses[0].Status)
	assert.Contains(t, resp.Statuses[0].Message, "condition")
	assert.Equal(t, 0, src.Calls())
}

func TestAggregator_DedupeAcrossSources(t *testing.T) {
	shared := offer("first", 1, 50)
	shared.ImageURL = nil
	dup := *shared
	dup.Source = "second"
	img := "https://img.example/1.jpg"
	dup.ImageURL = &img

	first := &fakeSource{id: "first", delay: 40 * time.Millisecond, offers: []*types.NormalizedOffer{shared}}
	second := &fakeSource{id: "second", offers: []*types.NormalizedOffer{&dup, offer("second", 2, 60)}}
	agg := newTestAggregator([]provider.Source{first, second}, nil, nil, time.Second)

	resp, err := agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)
	require.Len(t, resp.Offers, 2)

	var kept *types.ScoredOffer
	for _, o := range resp.Offers {
		if o.CanonicalURL == shared.CanonicalURL {
			kept = o
		}
	}
	require.NotNil(t, kept)
	assert.Equal(t, types.SourceID("first"), kept.Source, "first source in registration order wins")
	require.NotNil(t, kept.ImageURL)
	assert.Equal(t, img, *kept.ImageURL)
}

func TestAggregator_AllFailed(t *testing.T) {
	sources := []provider.Source{
		&fakeSource{id: "x", fetchErr: &types.ProviderError{Source: "x", Kind: types.KindHTTP, StatusCode: 500}},
		&fakeSource{id: "y", fetchErr: &types.ProviderError{Source: "y", Kind: types.KindHTTP, StatusCode: 503}},
	}
	agg := newTestAggregator(sources, nil, nil, time.Second)

	resp, err := agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)
	assert.True(t, resp.AllFailed)
	assert.NotNil(t, resp.Offers)
	assert.Empty(t, resp.Offers)
	assert.NotNil(t, resp.Vendors)
	assert.Equal(t, MessageUnavailable, resp.UserMessage)
}

func TestAggregator_FiltersRunAfterMerge(t *testing.T) {
	cheap := offer("s", 1, 40)
	pricey := offer("s", 2, 400)
	src := &fakeSource{id: "s", offers: []*types.NormalizedOffer{cheap, pricey}}
	agg := newTestAggregator([]provider.Source{src}, nil, nil, time.Second)

	resp, err := agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)
	require.Len(t, resp.Offers, 1)
	assert.Equal(t, cheap.CanonicalURL, resp.Offers[0].CanonicalURL)
	assert.Equal(t, 2, resp.Statuses[0].ResultCount)

	total := 0
	for _, r := range resp.Rejections {
		total += r.Count
	}
	assert.Equal(t, 1, total)
}

func TestAggregator_VendorFailures(t *testing.T) {
	src := &fakeSource{id: "s", offers: offers("s", 1)}

	agg := newTestAggregator([]provider.Source{src}, &fakeVendors{err: errors.New("index unavailable")}, nil, time.Second)
	resp, err := agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)
	assert.Equal(t, []types.Status{types.StatusOK, types.StatusError}, statusList(resp))
	assert.Empty(t, resp.Vendors)

	agg = newTestAggregator([]provider.Source{src}, &fakeVendors{delay: 2 * time.Second}, nil, 200*time.Millisecond)
	resp, err = agg.Search(context.Background(), headphonesIntent())
	require.NoError(t, err)
	assert.Equal(t, []types.Status{types.StatusOK, types.StatusTimeout}, statusList(resp))
	assert.Len(t, resp.Offers, 1)
}

func TestAggregator_SearchStream(t *testing.T) {
	sources := []provider.Source{
		&fakeSource{id: "fast", offers: offers("fast", 2)},
		&fakeSource{id: "slow", delay: 50 * time.Millisecond, offers: offers("slow", 1)},
	}
	agg := newTestAggregator(sources, &fakeVendors{matches: []types.VendorMatch{}}, nil, time.Second)

	var mu sync.Mutex
	var events []SourceEvent
	resp, err := agg.SearchStream(context.Background(), headphonesIntent(), func(ev SourceEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Len(t, events, 3)
	seen := map[types.SourceID]bool{}
	for i, ev := range events {
		assert.Equal(t, 2-i, ev.Remaining)
		seen[ev.Status.Source] = true
	}
	assert.Len(t, seen, 3)
	assert.Len(t, resp.Offers, 3)
}

func TestAggregator_InvalidIntent(t *testing.T) {
	agg := newTestAggregator(nil, nil, nil, time.Second)

	_, err := agg.Search(context.Background(), &types.SearchIntent{})
	assert.ErrorIs(t, err, types.ErrEmptyIntent)

	_, err = agg.Search(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrEmptyIntent)
}

func TestAggregator_IntentNotMutated(t *testing.T) {
	src := &fakeSource{id: "s", offers: offers("s", 1)}
	agg := newTestAggregator([]provider.Source{src}, nil, nil, time.Second)

	intent := headphonesIntent()
	intent.Keywords = []string{"b", "A", "b"}
	_, err := agg.Search(context.Background(), intent)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "A", "b"}, intent.Keywords)
}

func TestAggregator_ForeignBudget(t *testing.T) {
	src := &fakeSource{id: "s", offers: []*types.NormalizedOffer{offer("s", 1, 0.5), offer("s", 2, 5)}}
	agg := newTestAggregator([]provider.Source{src}, nil, nil, time.Second)

	max := 100.0
	intent := &types.SearchIntent{Query: "wireless headphones", Budget: types.Budget{Max: &max, Currency: "JPY"}}
	resp, err := agg.Search(context.Background(), intent)
	require.NoError(t, err)

	// 100 JPY is 0.67 USD: the 5 USD offer is over budget
	require.Len(t, resp.Offers, 1)
	assert.Equal(t, 0.8507, resp.Offers[0].Scores.Price)

	require.NotNil(t, src.built)
	assert.Equal(t, "USD", src.built.Budget.Currency)
	assert.Equal(t, 0.67, *src.built.Budget.Max)

	assert.Equal(t, "JPY", intent.Budget.Currency)
	assert.Equal(t, 100.0, *intent.Budget.Max)
}

func TestAggregator_Sources(t *testing.T) {
	agg := newTestAggregator([]provider.Source{&fakeSource{id: "m", tier: 2}}, &fakeVendors{}, nil, time.Second)
	assert.Equal(t, []SourceInfo{
		{ID: "m", Name: "m", Tier: 2},
		{ID: types.SourceVendorDirectory, Name: "Vendor Directory"},
	}, agg.Sources())
}
