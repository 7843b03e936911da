// Package data holds the shared-infrastructure implementations of the
// sourcing capabilities: the Redis health record and the Milvus vendor index.
package data

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/redis"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/health"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// KV is the subset of the Redis client the health store uses
type KV interface {
	Key(parts ...string) string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error)
}

// RedisHealthStore is a health.Store shared by every process pointed at the
// same Redis. Cool-downs are keys with a TTL, budgets are fixed-window
// counters and failure streaks are counters reset on success.
type RedisHealthStore struct {
	kv     KV
	policy health.Policy
	now    func() time.Time
	logger *logger.Logger
}

// NewRedisHealthStore creates a Redis-backed health record
func NewRedisHealthStore(kv KV, policy health.Policy, log *logger.Logger) *RedisHealthStore {
	if log == nil {
		log = logger.L()
	}
	return &RedisHealthStore{
		kv:     kv,
		policy: policy,
		now:    time.Now,
		logger: log.Named("health"),
	}
}

func (s *RedisHealthStore) cooldownKey(id types.SourceID) string {
	return s.kv.Key("health", "cooldown", string(id))
}

func (s *RedisHealthStore) streakKey(id types.SourceID) string {
	return s.kv.Key("health", "streak", string(id))
}

func (s *RedisHealthStore) budgetKey(id types.SourceID, window int64) string {
	return s.kv.Key("health", "budget", string(id), strconv.FormatInt(window, 10))
}

// Check implements health.Store
func (s *RedisHealthStore) Check(ctx context.Context, id types.SourceID) (health.Verdict, error) {
	now := s.now()

	status, err := s.kv.Get(ctx, s.cooldownKey(id))
	switch {
	case err == nil && status != "":
		v := health.Verdict{Status: types.Status(status)}
		if ttl, err := s.kv.TTL(ctx, s.cooldownKey(id)); err == nil && ttl > 0 {
			v.Until = now.Add(ttl)
		}
		return v, nil
	case err != nil && !redis.IsNil(err):
		return health.Allow, fmt.Errorf("read cooldown of %s: %w", id, err)
	}

	budget := s.policy.Budget(id)
	if budget <= 0 {
		return health.Allow, nil
	}

	window := s.policy.Window()
	idx := now.UnixNano() / int64(window)
	n, err := s.kv.IncrWithExpire(ctx, s.budgetKey(id, idx), window)
	if err != nil {
		return health.Allow, fmt.Errorf("count budget of %s: %w", id, err)
	}
	if n > int64(budget) {
		return health.Verdict{
			Status: types.StatusExhausted,
			Until:  time.Unix(0, (idx+1)*int64(window)),
		}, nil
	}
	return health.Allow, nil
}

// Record implements health.Store
func (s *RedisHealthStore) Record(ctx context.Context, id types.SourceID, r health.Result) error {
	streak := 0
	if health.IsFailure(r.Status) {
		n, err := s.kv.IncrWithExpire(ctx, s.streakKey(id), s.policy.Window())
		if err != nil {
			return fmt.Errorf("count failures of %s: %w", id, err)
		}
		streak = int(n)
	} else if _, err := s.kv.Del(ctx, s.streakKey(id)); err != nil {
		return fmt.Errorf("reset failures of %s: %w", id, err)
	}

	d, status := s.policy.Cooldown(r, streak)
	if d <= 0 {
		return nil
	}
	if err := s.kv.Set(ctx, s.cooldownKey(id), string(status), d); err != nil {
		return fmt.Errorf("set cooldown of %s: %w", id, err)
	}
	if health.IsFailure(r.Status) {
		if _, err := s.kv.Del(ctx, s.streakKey(id)); err != nil {
			s.logger.Warn("failed to reset failure streak", logger.Source(string(id)), zap.Error(err))
		}
	}

	s.logger.Info("source cooling down",
		logger.Source(string(id)),
		logger.Status(string(status)),
		zap.Duration("for", d))
	return nil
}

// FallbackStore uses primary and falls back to secondary when primary
// fails, so a Redis outage degrades to per-process health instead of
// failing searches.
type FallbackStore struct {
	primary   health.Store
	secondary health.Store
	logger    *logger.Logger
}

// NewFallbackStore creates a FallbackStore
func NewFallbackStore(primary, secondary health.Store, log *logger.Logger) *FallbackStore {
	if log == nil {
		log = logger.L()
	}
	return &FallbackStore{primary: primary, secondary: secondary, logger: log.Named("health")}
}

// Check implements health.Store
func (f *FallbackStore) Check(ctx context.Context, id types.SourceID) (health.Verdict, error) {
	v, err := f.primary.Check(ctx, id)
	if err == nil {
		return v, nil
	}
	f.logger.Warn("primary health store failed, using fallback", logger.Source(string(id)), zap.Error(err))
	return f.secondary.Check(ctx, id)
}

// Record implements health.Store
func (f *FallbackStore) Record(ctx context.Context, id types.SourceID, r health.Result) error {
	errP := f.primary.Record(ctx, id, r)
	errS := f.secondary.Record(ctx, id, r)
	if errP != nil && errS != nil {
		return errors.Join(errP, errS)
	}
	if errP != nil {
		f.logger.Warn("primary health store failed to record", logger.Source(string(id)), zap.Error(errP))
	}
	return nil
}

var (
	_ health.Store = (*RedisHealthStore)(nil)
	_ health.Store = (*FallbackStore)(nil)
	_ KV           = (*redis.Client)(nil)
)
