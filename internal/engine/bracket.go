package engine

import (
	"fmt"

	"github.com/sievehq/sieve/internal/space"
)

// Round is one successive-halving round: how many configurations survive
// into it and the per-configuration resource budget they train with.
type Round struct {
	// Configs is the number of configurations running in this round.
	Configs int `json:"configs"`

	// Resource is the per-configuration budget (e.g. epochs), cumulative
	// from the start of training, capped at the schedule's max resource.
	Resource int `json:"resource"`
}

// Bracket is one full successive-halving run at aggressiveness level S.
// Rounds are ordered: each keeps roughly 1/factor of the previous round's
// configurations at factor-times the budget.
type Bracket struct {
	S      int     `json:"s"`
	Rounds []Round `json:"rounds"`
}

// Plan computes the bracket table for a resource schedule.
//
// Following the published successive-halving formulation:
//
//	sMax = floor(log_factor(maxResource))
//	bracket s (from sMax down to 0):
//	    n   = ceil((sMax+1)/(s+1) * factor^s)   initial configurations
//	    r_i = ceil(maxResource / factor^(s-i))  round budget, i = 0..s
//	    n_i = max(1, floor(n / factor^i))       round survivors
//
// All arithmetic is exact integer math; no float logarithms that could land
// on the wrong side of a bracket boundary.
//
// Fails fast with ConfigurationError for factor <= 1 or maxResource <= 0,
// before any trial runs.
func Plan(maxResource, factor int) ([]Bracket, error) {
	if factor <= 1 {
		return nil, &space.ConfigurationError{
			Reason: fmt.Sprintf("reduction factor must be greater than 1, got %d", factor),
		}
	}
	if maxResource <= 0 {
		return nil, &space.ConfigurationError{
			Reason: fmt.Sprintf("max resource must be positive, got %d", maxResource),
		}
	}

	// sMax = floor(log_factor(maxResource)) via repeated division.
	sMax := 0
	for v := maxResource; v >= factor; v /= factor {
		sMax++
	}

	brackets := make([]Bracket, 0, sMax+1)
	for s := sMax; s >= 0; s-- {
		n := ceilDiv((sMax+1)*intPow(factor, s), s+1)

		rounds := make([]Round, 0, s+1)
		configs := n
		for i := 0; i <= s; i++ {
			if i > 0 {
				configs = n / intPow(factor, i)
				if configs < 1 {
					configs = 1
				}
			}
			resource := ceilDiv(maxResource, intPow(factor, s-i))
			rounds = append(rounds, Round{Configs: configs, Resource: resource})
		}
		brackets = append(brackets, Bracket{S: s, Rounds: rounds})
	}

	return brackets, nil
}

// ceilDiv returns ceil(a/b) for positive integers.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// intPow returns base^exp for non-negative exp.
func intPow(base, exp int) int {
	out := 1
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
