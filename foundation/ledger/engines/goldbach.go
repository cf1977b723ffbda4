package engines

import (
	"context"

	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// goldbachScale converts difficulty into the even-number scan bound.
const goldbachScale = 2_000

// Goldbach verifies the Goldbach conjecture over a difficulty-scaled range of
// even numbers: every even number greater than 2 must decompose into a sum
// of two primes.
type Goldbach struct{}

// Type returns the work type this engine serves.
func (Goldbach) Type() work.Type {
	return work.TypeGoldbach
}

// Run scans every even number in [4, difficulty*2000] for a prime-pair
// decomposition. Any even number without one is recorded as a
// counterexample; none are expected in any reachable range.
func (Goldbach) Run(ctx context.Context, difficulty int) (work.Payload, bool, error) {
	if difficulty < 1 {
		difficulty = 1
	}
	limit := difficulty * goldbachScale

	prime := sieve(limit)

	result := work.GoldbachResult{
		RangeStart:         4,
		RangeEnd:           limit,
		VerificationMethod: "sieve_pair_scan",
	}

	var partial bool

	for even := 4; even <= limit; even += 2 {
		if even%1024 == 0 && cancelled(ctx) {
			result.RangeEnd = even - 2
			partial = true
			break
		}

		found := false
		for p := 2; p <= even/2; p++ {
			if prime[p] && prime[even-p] {
				result.SampleTarget = even
				result.SamplePair = [2]int{p, even - p}
				found = true
				break
			}
		}

		if !found {
			result.Counterexamples = append(result.Counterexamples, even)
		}
		result.TestedCount++
	}

	return work.Payload{Goldbach: &result}, partial, nil
}
