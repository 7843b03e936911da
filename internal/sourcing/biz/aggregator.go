// Package biz runs one sourcing search end to end: concurrent fan-out to
// every source and the vendor matcher, fan-in under a shared deadline,
// then dedupe, filter and rank over the merged set.
package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/redact"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/executor"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/filter"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/health"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/provider"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/scorer"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

const (
	DefaultDeadline        = 5 * time.Second
	DefaultSlack           = 250 * time.Millisecond
	DefaultVendorThreshold = 0.55
)

// VendorMatcher finds directory vendors similar to an intent
type VendorMatcher interface {
	Match(ctx context.Context, intent *types.SearchIntent, threshold float64) ([]types.VendorMatch, error)
}

// Options bound one search
type Options struct {
	Deadline        time.Duration `mapstructure:"deadline"`
	Slack           time.Duration `mapstructure:"slack"` // grace for bookkeeping after the deadline
	VendorThreshold float64       `mapstructure:"vendor_threshold"`
}

// DefaultOptions returns the default search bounds
func DefaultOptions() Options {
	return Options{
		Deadline:        DefaultDeadline,
		Slack:           DefaultSlack,
		VendorThreshold: DefaultVendorThreshold,
	}
}

// SourceEvent is emitted once per source as it reaches its outcome
type SourceEvent struct {
	Status    types.ProviderStatus     `json:"status"`
	Offers    []*types.NormalizedOffer `json:"offers,omitempty"`
	Vendors   []types.VendorMatch      `json:"vendors,omitempty"`
	Remaining int                      `json:"remaining"`
}

// SourceInfo describes one configured source
type SourceInfo struct {
	ID   types.SourceID `json:"id"`
	Name string         `json:"name"`
	Tier int            `json:"tier"`
}

// Aggregator coordinates the sources of a search
type Aggregator struct {
	sources []provider.Source
	vendors VendorMatcher
	health  health.Store
	exec    *executor.Executor
	scorer  *scorer.Scorer
	filters filter.Config
	opts    Options
	logger  *logger.Logger
}

// NewAggregator creates an aggregator. Sources are reported in the given
// order, with the vendor matcher last; vendors may be nil.
func NewAggregator(
	sources []provider.Source,
	vendors VendorMatcher,
	store health.Store,
	exec *executor.Executor,
	sc *scorer.Scorer,
	filters filter.Config,
	opts Options,
	log *logger.Logger,
) *Aggregator {
	if log == nil {
		log = logger.L()
	}
	if store == nil {
		store = health.NewMemoryStore(health.DefaultPolicy())
	}
	if exec == nil {
		exec = executor.New(0, 0, log)
	}
	if sc == nil {
		tiers := make(map[types.SourceID]int, len(sources))
		for _, s := range sources {
			tiers[s.ID()] = s.Tier()
		}
		sc = scorer.New(scorer.DefaultConfig(), tiers)
	}
	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}
	if opts.Slack <= 0 {
		opts.Slack = DefaultSlack
	}
	if opts.VendorThreshold <= 0 {
		opts.VendorThreshold = DefaultVendorThreshold
	}
	return &Aggregator{
		sources: sources,
		vendors: vendors,
		health:  store,
		exec:    exec,
		scorer:  sc,
		filters: filters,
		opts:    opts,
		logger:  log.Named("aggregator"),
	}
}

// Sources lists the sources a search invokes, in report order
func (a *Aggregator) Sources() []SourceInfo {
	out := make([]SourceInfo, 0, len(a.sources)+1)
	for _, s := range a.sources {
		out = append(out, SourceInfo{ID: s.ID(), Name: s.Name(), Tier: s.Tier()})
	}
	if a.vendors != nil {
		out = append(out, SourceInfo{ID: types.SourceVendorDirectory, Name: "Vendor Directory"})
	}
	return out
}

// Options returns the active search bounds
func (a *Aggregator) Options() Options {
	return a.opts
}

// Search runs one search. Source failures never surface as errors; they
// are reported in the status array. An error is returned only for an
// invalid intent or an internal defect.
func (a *Aggregator) Search(ctx context.Context, intent *types.SearchIntent) (*types.SearchResponse, error) {
	return a.search(ctx, intent, nil)
}

// SearchStream is Search that also calls emit as each source finishes.
// emit is called from a single goroutine, in completion order.
func (a *Aggregator) SearchStream(ctx context.Context, intent *types.SearchIntent, emit func(SourceEvent)) (*types.SearchResponse, error) {
	return a.search(ctx, intent, emit)
}

// result is what one source task hands to the fan-in loop
type result struct {
	idx     int
	status  types.Status
	message string
	latency time.Duration
	offers  []*types.NormalizedOffer
	vendors []types.VendorMatch
}

func (a *Aggregator) search(ctx context.Context, intent *types.SearchIntent, emit func(SourceEvent)) (*types.SearchResponse, error) {
	if intent == nil {
		return nil, types.ErrEmptyIntent
	}
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	intent = intent.Clone()
	intent.Budget = intent.Budget.InUSD()

	searchID := uuid.NewString()
	ctx = logger.WithSearchID(ctx, searchID)
	log := a.logger.With(logger.SearchID(searchID))
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, a.opts.Deadline)
	defer cancel()

	runs := a.newRuns()
	results := make(chan result, len(runs))
	for i, run := range runs {
		if err := run.advance(StateQuerying); err != nil {
			return nil, err
		}
		go a.invoke(ctx, i, intent, results)
	}

	if err := a.fanIn(ctx, runs, results, start, emit); err != nil {
		log.Error("search aborted", zap.Error(err))
		return nil, err
	}

	resp, m := a.assemble(intent, runs)
	resp.SearchID = searchID
	m.Latency = time.Since(start)
	m.log(log)
	return resp, nil
}

func (a *Aggregator) newRuns() []*sourceRun {
	runs := make([]*sourceRun, 0, len(a.sources)+1)
	for _, s := range a.sources {
		runs = append(runs, &sourceRun{id: s.ID(), tier: s.Tier()})
	}
	if a.vendors != nil {
		runs = append(runs, &sourceRun{id: types.SourceVendorDirectory})
	}
	return runs
}

// fanIn collects results until every source is done or the deadline
// passes. Sources still querying at the deadline are timed out and their
// late results discarded.
func (a *Aggregator) fanIn(ctx context.Context, runs []*sourceRun, results <-chan result, start time.Time, emit func(SourceEvent)) error {
	pending := len(runs)
	for pending > 0 {
		select {
		case r := <-results:
			run := runs[r.idx]
			if run.state != StateQuerying {
				continue
			}
			if err := run.advance(StateFor(r.status)); err != nil {
				return err
			}
			run.status = types.ProviderStatus{
				Source:      run.id,
				Status:      r.status,
				ResultCount: len(r.offers) + len(r.vendors),
				LatencyMs:   r.latency.Milliseconds(),
				Message:     r.message,
			}
			run.offers = r.offers
			run.vendors = r.vendors
			pending--
			if emit != nil {
				emit(SourceEvent{Status: run.status, Offers: r.offers, Vendors: r.vendors, Remaining: pending})
			}

		case <-ctx.Done():
			elapsed := time.Since(start).Milliseconds()
			for _, run := range runs {
				if run.state != StateQuerying {
					continue
				}
				if err := run.advance(StateTimedOut); err != nil {
					return err
				}
				run.status = types.ProviderStatus{
					Source:    run.id,
					Status:    types.StatusTimeout,
					LatencyMs: elapsed,
					Message:   "search deadline exceeded",
				}
				pending--
				if emit != nil {
					emit(SourceEvent{Status: run.status, Remaining: pending})
				}
			}
		}
	}

	for _, run := range runs {
		if err := run.advance(StateReported); err != nil {
			return err
		}
	}
	return nil
}

// invoke runs one source task and delivers exactly one result
func (a *Aggregator) invoke(ctx context.Context, idx int, intent *types.SearchIntent, out chan<- result) {
	start := time.Now()
	var r result
	defer func() {
		if p := recover(); p != nil {
			a.logger.Error("source task panicked", zap.Int("index", idx), zap.Any("panic", p), zap.Stack("stack"))
			r = result{status: types.StatusError, message: "internal error"}
		}
		r.idx = idx
		r.latency = time.Since(start)
		out <- r
	}()

	if idx < len(a.sources) {
		r = a.callSource(ctx, a.sources[idx], intent)
		return
	}
	r = a.callVendors(ctx, intent)
}

func (a *Aggregator) callSource(ctx context.Context, src provider.Source, intent *types.SearchIntent) result {
	id := src.ID()
	if r, ok := a.admit(ctx, id); !ok {
		return r
	}

	query, err := src.BuildQuery(intent)
	if err != nil {
		out := executor.Failure(id, err)
		a.logger.Info("source cannot represent intent", logger.Source(string(id)), zap.String("reason", out.Message))
		return result{status: out.Status, message: out.Message}
	}

	out := a.exec.Run(ctx, src, query)
	r := result{status: out.Status, message: out.Message}
	if out.OK() {
		offers, err := src.Normalize(out.Raw)
		if err != nil {
			r.status = types.StatusError
			r.message = redact.Error(err)
		} else {
			r.offers = offers
		}
	}
	a.record(ctx, id, health.Result{Status: r.status, RetryAfter: out.RetryAfter})
	return r
}

func (a *Aggregator) callVendors(ctx context.Context, intent *types.SearchIntent) result {
	id := types.SourceVendorDirectory
	if r, ok := a.admit(ctx, id); !ok {
		return r
	}

	matches, err := a.vendors.Match(ctx, intent, a.opts.VendorThreshold)
	r := result{status: types.StatusOK, vendors: matches}
	var retryAfter time.Duration
	if err != nil {
		r = result{status: executor.Classify(err), message: redact.Error(err)}
		if pe, ok := types.AsProviderError(err); ok {
			retryAfter = pe.RetryAfter
		}
		if ctx.Err() != nil {
			r.status = types.StatusTimeout
		}
	}
	a.record(ctx, id, health.Result{Status: r.status, RetryAfter: retryAfter})
	return r
}

// admit consults the health record. A failing record does not block the
// source.
func (a *Aggregator) admit(ctx context.Context, id types.SourceID) (result, bool) {
	v, err := a.health.Check(ctx, id)
	if err != nil {
		a.logger.Warn("health check failed, calling source anyway", logger.Source(string(id)), zap.Error(err))
		return result{}, true
	}
	if v.Allowed {
		return result{}, true
	}

	msg := "source cooling down"
	if v.Status == types.StatusExhausted {
		msg = "call budget spent"
	}
	if !v.Until.IsZero() {
		msg = fmt.Sprintf("%s until %s", msg, v.Until.UTC().Format(time.RFC3339))
	}
	a.logger.Info("source skipped", logger.Source(string(id)), logger.Status(string(v.Status)), zap.Time("until", v.Until))
	return result{status: v.Status, message: msg}, false
}

// record updates the health record. It runs even when the search deadline
// has passed, bounded by the slack.
func (a *Aggregator) record(ctx context.Context, id types.SourceID, r health.Result) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.opts.Slack)
	defer cancel()
	if err := a.health.Record(rctx, id, r); err != nil {
		a.logger.Warn("failed to record source health", logger.Source(string(id)), zap.Error(err))
	}
}

// assemble merges the reported runs into the response: offers in source
// order, deduped, filtered and ranked.
func (a *Aggregator) assemble(intent *types.SearchIntent, runs []*sourceRun) (*types.SearchResponse, *searchMetrics) {
	m := &searchMetrics{Query: intent.SearchText()}
	statuses := make([]types.ProviderStatus, 0, len(runs))
	var merged []*types.NormalizedOffer
	vendors := []types.VendorMatch{}

	for _, run := range runs {
		statuses = append(statuses, run.status)
		m.addStatus(run.status)
		if run.status.Status != types.StatusOK {
			continue
		}
		merged = append(merged, run.offers...)
		vendors = append(vendors, run.vendors...)
	}
	m.Total = len(merged)

	unique := Dedupe(merged)
	m.Unique = len(unique)

	kept, report := filter.NewChainForIntent(intent, a.filters, a.logger).Run(unique)
	m.Filtered = len(kept)
	m.Rejected = report.Total()

	offers := a.scorer.Rank(intent, kept)
	if offers == nil {
		offers = []*types.ScoredOffer{}
	}

	resp := &types.SearchResponse{
		Offers:      offers,
		Vendors:     vendors,
		Statuses:    statuses,
		Rejections:  []types.Rejection(report),
		AllFailed:   AllFailed(statuses),
		GeneratedAt: time.Now().UTC(),
	}
	if len(offers) == 0 && len(vendors) == 0 {
		resp.UserMessage = UserMessage(statuses)
	}
	return resp, m
}
