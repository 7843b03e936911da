package health

import (
	"time"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// Policy decides when a source has to rest and how many calls it may take
// per budget window.
type Policy struct {
	RateLimitCooldown time.Duration          `mapstructure:"rate_limit_cooldown"`
	ExhaustedCooldown time.Duration          `mapstructure:"exhausted_cooldown"`
	ErrorThreshold    int                    `mapstructure:"error_threshold"` // consecutive failures, 0 disables
	ErrorCooldown     time.Duration          `mapstructure:"error_cooldown"`
	BudgetWindow      time.Duration          `mapstructure:"budget_window"`
	Budgets           map[types.SourceID]int `mapstructure:"budgets"` // calls per window, missing or 0 = unlimited
}

// DefaultPolicy returns the default health policy
func DefaultPolicy() Policy {
	return Policy{
		RateLimitCooldown: time.Minute,
		ExhaustedCooldown: time.Hour,
		ErrorThreshold:    3,
		ErrorCooldown:     30 * time.Second,
		BudgetWindow:      time.Hour,
	}
}

// Budget returns the call budget of id; 0 means unlimited
func (p Policy) Budget(id types.SourceID) int {
	if p.Budgets == nil {
		return 0
	}
	if n := p.Budgets[id]; n > 0 {
		return n
	}
	return 0
}

// Window returns the budget window
func (p Policy) Window() time.Duration {
	if p.BudgetWindow <= 0 {
		return time.Hour
	}
	return p.BudgetWindow
}

// IsFailure reports whether status extends a source's failure streak
func IsFailure(status types.Status) bool {
	return status == types.StatusError || status == types.StatusTimeout
}

// Cooldown returns the rest period and reported status that follow r.
// streak is the consecutive failure count including r. A zero duration
// means the source stays available.
func (p Policy) Cooldown(r Result, streak int) (time.Duration, types.Status) {
	switch r.Status {
	case types.StatusRateLimited:
		d := p.RateLimitCooldown
		if r.RetryAfter > d {
			d = r.RetryAfter
		}
		return d, types.StatusRateLimited
	case types.StatusExhausted:
		return p.ExhaustedCooldown, types.StatusExhausted
	case types.StatusError, types.StatusTimeout:
		if p.ErrorThreshold > 0 && streak >= p.ErrorThreshold {
			return p.ErrorCooldown, types.StatusError
		}
	}
	return 0, ""
}
