package engines

import (
	"context"
	"math"

	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// goldenRatio is the constant the fibonacci ratio sequence converges toward.
const goldenRatio = 1.618033988749894848204586834365638118

const (
	fibonacciBase   = 30
	fibonacciMax    = 1_400 // float64 overflows past F(1476)
	fibonacciWindow = 10
)

// Fibonacci generates a difficulty-scaled fibonacci sequence and measures
// how closely the ratio of consecutive terms converges to the golden ratio.
type Fibonacci struct{}

// Type returns the work type this engine serves.
func (Fibonacci) Type() work.Type {
	return work.TypeFibonacci
}

// Run generates a sequence of length 30+difficulty (capped before float64
// overflow) and reports the mean absolute convergence error over the
// trailing window of ratios.
func (Fibonacci) Run(ctx context.Context, difficulty int) (work.Payload, bool, error) {
	if difficulty < 1 {
		difficulty = 1
	}

	length := fibonacciBase + difficulty
	if length > fibonacciMax {
		length = fibonacciMax
	}

	ratios := make([]float64, 0, length)

	var partial bool
	a, b := 1.0, 1.0
	for i := 2; i < length; i++ {
		if i%256 == 0 && cancelled(ctx) {
			length = i
			partial = true
			break
		}

		a, b = b, a+b
		ratios = append(ratios, b/a)
	}

	window := fibonacciWindow
	if window > len(ratios) {
		window = len(ratios)
	}

	var errSum float64
	for _, r := range ratios[len(ratios)-window:] {
		errSum += math.Abs(r - goldenRatio)
	}

	result := work.FibonacciResult{
		Length:           length,
		FinalRatio:       ratios[len(ratios)-1],
		ConvergenceError: errSum / float64(window),
		WindowSize:       window,
	}

	return work.Payload{Fibonacci: &result}, partial, nil
}
