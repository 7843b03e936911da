package biz

import (
	"fmt"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// State is the lifecycle position of one source within a search
type State int

const (
	StateIdle State = iota
	StateQuerying
	StateSucceeded
	StateTimedOut
	StateErrored
	StateRateLimited
	StateExhausted
	StateReported
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateQuerying:    "querying",
	StateSucceeded:   "succeeded",
	StateTimedOut:    "timed_out",
	StateErrored:     "errored",
	StateRateLimited: "rate_limited",
	StateExhausted:   "exhausted",
	StateReported:    "reported",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether s is one of the outcome states
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateTimedOut, StateErrored, StateRateLimited, StateExhausted:
		return true
	}
	return false
}

// Idle → Querying → outcome → Reported. A source skipped by the health
// record still passes through Querying: the check runs inside its task.
var transitions = map[State][]State{
	StateIdle:        {StateQuerying},
	StateQuerying:    {StateSucceeded, StateTimedOut, StateErrored, StateRateLimited, StateExhausted},
	StateSucceeded:   {StateReported},
	StateTimedOut:    {StateReported},
	StateErrored:     {StateReported},
	StateRateLimited: {StateReported},
	StateExhausted:   {StateReported},
}

// CanTransition reports whether from → to is a legal move
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StateFor maps a reported status to its outcome state
func StateFor(status types.Status) State {
	switch status {
	case types.StatusOK:
		return StateSucceeded
	case types.StatusTimeout:
		return StateTimedOut
	case types.StatusRateLimited:
		return StateRateLimited
	case types.StatusExhausted:
		return StateExhausted
	default:
		return StateErrored
	}
}

// sourceRun tracks one source through a search. It is only touched by the
// fan-in loop.
type sourceRun struct {
	id      types.SourceID
	tier    int
	state   State
	status  types.ProviderStatus
	offers  []*types.NormalizedOffer
	vendors []types.VendorMatch
}

func (r *sourceRun) advance(to State) error {
	if !CanTransition(r.state, to) {
		return fmt.Errorf("source %s: illegal transition %s -> %s", r.id, r.state, to)
	}
	r.state = to
	return nil
}
