package engines

import (
	"context"
	"math"

	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// primeGapScale converts difficulty into the sieve bound.
const primeGapScale = 2_000

// PrimeGap analyzes the distribution of gaps between consecutive primes
// below a difficulty-scaled bound.
type PrimeGap struct{}

// Type returns the work type this engine serves.
func (PrimeGap) Type() work.Type {
	return work.TypePrimeGap
}

// Run sieves primes up to difficulty*2000 and reports gap statistics, the
// twin prime count, and a resonance statistic derived from the gap
// distribution. Resonance is a smoothed twin-density metric and is not
// load-bearing for validation.
func (PrimeGap) Run(ctx context.Context, difficulty int) (work.Payload, bool, error) {
	if difficulty < 1 {
		difficulty = 1
	}
	limit := difficulty * primeGapScale

	prime := sieve(limit)

	var primes []int
	var partial bool
	for n := 2; n <= limit; n++ {
		if n%4096 == 0 && cancelled(ctx) {
			limit = n - 1
			partial = true
			break
		}
		if prime[n] {
			primes = append(primes, n)
		}
	}

	result := work.PrimeGapResult{
		Limit:      limit,
		PrimeCount: len(primes),
		MinGap:     math.MaxInt,
	}

	if len(primes) < 2 {
		result.MinGap = 0
		return work.Payload{PrimeGap: &result}, partial, nil
	}

	gaps := make([]int, 0, len(primes)-1)
	var sum int
	for i := 1; i < len(primes); i++ {
		gap := primes[i] - primes[i-1]
		gaps = append(gaps, gap)
		sum += gap

		if gap < result.MinGap {
			result.MinGap = gap
		}
		if gap > result.MaxGap {
			result.MaxGap = gap
		}
		if gap == 2 {
			result.TwinPrimeCount++
		}
	}

	mean := float64(sum) / float64(len(gaps))
	var varSum float64
	for _, gap := range gaps {
		d := float64(gap) - mean
		varSum += d * d
	}
	stddev := math.Sqrt(varSum / float64(len(gaps)))

	result.MeanGap = mean
	result.StdDevGap = stddev

	// Smoothing function over the gap distribution: twin density damped by
	// the spread of the gaps relative to their mean.
	twinDensity := float64(result.TwinPrimeCount) / float64(len(gaps))
	result.Resonance = twinDensity * math.Exp(-stddev/(mean+1))

	return work.Payload{PrimeGap: &result}, partial, nil
}
