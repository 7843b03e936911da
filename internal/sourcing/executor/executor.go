// Package executor performs one bounded, classified call against a source.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/redact"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/provider"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

const (
	DefaultCallTimeout  = 4 * time.Second
	DefaultRetryBackoff = 100 * time.Millisecond

	// deadlineGuard keeps every call strictly inside the caller's deadline
	deadlineGuard = time.Millisecond
)

// Outcome is the typed result of one Run. Exactly one of Raw and Err is set.
type Outcome struct {
	Source     types.SourceID
	Status     types.Status
	Raw        *types.RawProviderResult
	Err        error
	Latency    time.Duration
	Attempts   int
	RetryAfter time.Duration
	Message    string
}

// OK reports whether the call succeeded
func (o *Outcome) OK() bool {
	return o.Status == types.StatusOK
}

// Executor runs source calls with a per-call timeout and a single retry
// on transient network failures.
type Executor struct {
	callTimeout  time.Duration
	retryBackoff time.Duration
	logger       *logger.Logger
}

// New creates an executor. Zero durations select the defaults.
func New(callTimeout, retryBackoff time.Duration, log *logger.Logger) *Executor {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	if retryBackoff < 0 {
		retryBackoff = 0
	} else if retryBackoff == 0 {
		retryBackoff = DefaultRetryBackoff
	}
	if log == nil {
		log = logger.L()
	}
	return &Executor{
		callTimeout:  callTimeout,
		retryBackoff: retryBackoff,
		logger:       log.Named("executor"),
	}
}

// CallTimeout returns the configured per-call timeout
func (e *Executor) CallTimeout() time.Duration {
	return e.callTimeout
}

// Run calls src.Fetch for query. It never panics and never returns an
// error: every failure is folded into the returned Outcome.
func (e *Executor) Run(ctx context.Context, src provider.Source, query *types.ProviderQuery) (out Outcome) {
	start := time.Now()
	out.Source = src.ID()

	defer func() {
		if r := recover(); r != nil {
			out.Raw = nil
			out.Err = fmt.Errorf("source panicked: %v", r)
			out.Status = types.StatusError
			out.Message = redact.Error(out.Err)
			e.logger.Error("source call panicked", logger.Source(string(out.Source)), zap.Any("panic", r))
		}
		out.Latency = time.Since(start)
	}()

	for attempt := 1; attempt <= 2; attempt++ {
		out.Attempts = attempt

		callCtx, cancel, ok := e.callContext(ctx)
		if !ok {
			out.setFailure(fmt.Errorf("%w: no time left for call", context.DeadlineExceeded))
			return out
		}
		raw, err := src.Fetch(callCtx, query)
		callErr := callCtx.Err()
		cancel()

		if err == nil && raw != nil {
			out.Raw = raw
			out.Err = nil
			out.Status = types.StatusOK
			out.Message = ""
			return out
		}
		if err == nil {
			err = &types.ProviderError{Source: out.Source, Kind: types.KindDecode, Message: "empty result"}
		}
		if callErr != nil && ctx.Err() == nil {
			// the per-call timeout fired, not the caller's deadline
			err = &types.ProviderError{Source: out.Source, Kind: types.KindTimeout, Message: "call timed out", Err: err}
		}
		out.setFailure(err)

		pe, isProvider := types.AsProviderError(err)
		if !isProvider || !pe.Transient() || attempt == 2 {
			break
		}

		e.logger.Warn("transient source failure, retrying",
			logger.Source(string(out.Source)), zap.Int("attempt", attempt), zap.String("error", out.Message))
		if !sleep(ctx, e.retryBackoff) {
			break
		}
	}

	e.logger.Debug("source call failed",
		logger.Source(string(out.Source)),
		logger.Status(string(out.Status)),
		zap.Int("attempts", out.Attempts),
		zap.String("error", out.Message))
	return out
}

// callContext derives the context of one attempt. ok is false when the
// parent deadline leaves no room for a call.
func (e *Executor) callContext(ctx context.Context) (context.Context, context.CancelFunc, bool) {
	timeout := e.callTimeout
	if dl, has := ctx.Deadline(); has {
		if left := time.Until(dl) - deadlineGuard; left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 || ctx.Err() != nil {
		return nil, nil, false
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	return c, cancel, true
}

func (o *Outcome) setFailure(err error) {
	o.Raw = nil
	o.Err = err
	o.Status = Classify(err)
	o.Message = redact.Error(err)
	if pe, ok := types.AsProviderError(err); ok {
		o.RetryAfter = pe.RetryAfter
	}
}

// Failure builds the Outcome of a source that failed before any call was
// made, such as an intent the source cannot represent.
func Failure(source types.SourceID, err error) Outcome {
	out := Outcome{Source: source}
	out.setFailure(err)
	return out
}

// Classify maps an error to the status reported for its source.
// Transient network failures that outlive the retry count as timeouts.
func Classify(err error) types.Status {
	if err == nil {
		return types.StatusOK
	}

	if pe, ok := types.AsProviderError(err); ok {
		switch pe.Kind {
		case types.KindRateLimited:
			return types.StatusRateLimited
		case types.KindExhausted:
			return types.StatusExhausted
		case types.KindTimeout, types.KindNetwork:
			return types.StatusTimeout
		default:
			return types.StatusError
		}
	}

	switch {
	case errors.Is(err, types.ErrBudgetExhausted):
		return types.StatusExhausted
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return types.StatusTimeout
	}
	return types.StatusError
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
