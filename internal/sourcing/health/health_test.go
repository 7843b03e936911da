package health

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestPolicy_Cooldown(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name       string
		result     Result
		streak     int
		wantD      time.Duration
		wantStatus types.Status
	}{
		{name: "ok", result: Result{Status: types.StatusOK}, wantD: 0},
		{name: "rate limited", result: Result{Status: types.StatusRateLimited}, wantD: time.Minute, wantStatus: types.StatusRateLimited},
		{name: "retry after wins when longer", result: Result{Status: types.StatusRateLimited, RetryAfter: 5 * time.Minute}, wantD: 5 * time.Minute, wantStatus: types.StatusRateLimited},
		{name: "exhausted", result: Result{Status: types.StatusExhausted}, wantD: time.Hour, wantStatus: types.StatusExhausted},
		{name: "error below threshold", result: Result{Status: types.StatusError}, streak: 2, wantD: 0},
		{name: "error at threshold", result: Result{Status: types.StatusTimeout}, streak: 3, wantD: 30 * time.Second, wantStatus: types.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, status := p.Cooldown(tt.result, tt.streak)
			assert.Equal(t, tt.wantD, d)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestMemoryStore_RateLimitCooldown(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	s := NewMemoryStore(DefaultPolicy(), WithClock(c.Now))

	v, err := s.Check(ctx, types.SourceMarketplace)
	require.NoError(t, err)
	assert.True(t, v.Allowed)

	require.NoError(t, s.Record(ctx, types.SourceMarketplace, Result{Status: types.StatusRateLimited}))

	v, err = s.Check(ctx, types.SourceMarketplace)
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, types.StatusRateLimited, v.Status)
	assert.Equal(t, c.Now().Add(time.Minute), v.Until)

	// other sources are unaffected
	v, _ = s.Check(ctx, types.SourceAuction)
	assert.True(t, v.Allowed)

	c.Advance(time.Minute)
	v, _ = s.Check(ctx, types.SourceMarketplace)
	assert.True(t, v.Allowed)
}

func TestMemoryStore_ErrorStreak(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	s := NewMemoryStore(DefaultPolicy(), WithClock(c.Now))

	require.NoError(t, s.Record(ctx, types.SourceShopping, Result{Status: types.StatusError}))
	require.NoError(t, s.Record(ctx, types.SourceShopping, Result{Status: types.StatusTimeout}))
	require.NoError(t, s.Record(ctx, types.SourceShopping, Result{Status: types.StatusOK}))
	require.NoError(t, s.Record(ctx, types.SourceShopping, Result{Status: types.StatusError}))

	v, _ := s.Check(ctx, types.SourceShopping)
	assert.True(t, v.Allowed, "success resets the streak")

	require.NoError(t, s.Record(ctx, types.SourceShopping, Result{Status: types.StatusError}))
	require.NoError(t, s.Record(ctx, types.SourceShopping, Result{Status: types.StatusError}))

	v, _ = s.Check(ctx, types.SourceShopping)
	assert.False(t, v.Allowed)
	assert.Equal(t, types.StatusError, v.Status)
	assert.Contains(t, s.Snapshot(), types.SourceShopping)

	c.Advance(31 * time.Second)
	v, _ = s.Check(ctx, types.SourceShopping)
	assert.True(t, v.Allowed)
	assert.Empty(t, s.Snapshot())
}

func TestMemoryStore_Budget(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	policy := DefaultPolicy()
	policy.Budgets = map[types.SourceID]int{types.SourceAuction: 2}
	s := NewMemoryStore(policy, WithClock(c.Now))

	for i := 0; i < 2; i++ {
		v, err := s.Check(ctx, types.SourceAuction)
		require.NoError(t, err)
		assert.True(t, v.Allowed)
	}

	v, _ := s.Check(ctx, types.SourceAuction)
	assert.False(t, v.Allowed)
	assert.Equal(t, types.StatusExhausted, v.Status)

	// unbudgeted sources are unlimited
	for i := 0; i < 10; i++ {
		v, _ = s.Check(ctx, types.SourceMarketplace)
		assert.True(t, v.Allowed)
	}

	c.Advance(30 * time.Minute)
	v, _ = s.Check(ctx, types.SourceAuction)
	assert.True(t, v.Allowed)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	policy := DefaultPolicy()
	policy.Budgets = map[types.SourceID]int{types.SourceMarketplace: 50}
	s := NewMemoryStore(policy)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := s.Check(ctx, types.SourceMarketplace)
			if v.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
			_ = s.Record(ctx, types.SourceMarketplace, Result{Status: types.StatusOK})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}
