package engines

import (
	"context"

	"github.com/mathledger/mathledger/foundation/ledger/work"
)

const (
	collatzScale         = 1_000
	collatzMaxIterations = 10_000
)

// Collatz iterates the 3n+1 rule over a difficulty-scaled range of seeds
// and records convergence behavior.
type Collatz struct{}

// Type returns the work type this engine serves.
func (Collatz) Type() work.Type {
	return work.TypeCollatz
}

// Run tests every seed in [1, difficulty*1000] up to the iteration ceiling.
// A seed that fails to reach 1 within the ceiling is recorded as a failure;
// none are expected at reachable ranges, but the ceiling keeps a hostile
// difficulty from looping forever.
func (Collatz) Run(ctx context.Context, difficulty int) (work.Payload, bool, error) {
	if difficulty < 1 {
		difficulty = 1
	}
	limit := uint64(difficulty) * collatzScale

	result := work.CollatzResult{
		RangeStart:    1,
		RangeEnd:      limit,
		MaxIterations: collatzMaxIterations,
	}

	var partial bool
	var converged int

	for seed := uint64(1); seed <= limit; seed++ {
		if seed%512 == 0 && cancelled(ctx) {
			result.RangeEnd = seed - 1
			partial = true
			break
		}

		steps, ok := collatzSteps(seed)
		result.TestedCount++

		if !ok {
			result.Failures = append(result.Failures, seed)
			continue
		}

		converged++
		if steps > result.LongestChain {
			result.LongestChain = steps
		}
	}

	if result.TestedCount > 0 {
		result.ConvergenceRate = float64(converged) / float64(result.TestedCount)
	}

	return work.Payload{Collatz: &result}, partial, nil
}

// collatzSteps iterates a single seed, returning the step count and whether
// the sequence reached 1 within the ceiling.
func collatzSteps(seed uint64) (int, bool) {
	n := seed
	for steps := 0; steps < collatzMaxIterations; steps++ {
		if n == 1 {
			return steps, true
		}

		if n%2 == 0 {
			n /= 2
		} else {
			n = 3*n + 1
		}
	}

	return collatzMaxIterations, false
}
