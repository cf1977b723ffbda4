// Package formula implements the per-work-type acceptance rules. Validation
// is pure and total: malformed payloads score zero, they never produce an
// error or a panic.
package formula

import (
	"fmt"
	"math"

	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// riemannTolerance bounds how far a claimed zero's real part may sit from
// the critical line.
const riemannTolerance = 1e-6

// Verdict is the outcome of validating a result payload.
type Verdict struct {
	Valid   bool   `json:"valid"`
	Score   int    `json:"score"`
	Details string `json:"details"`
}

// Validate applies the structural and numeric rule for the work type to the
// result payload. Unknown work types pass with a neutral score when the
// payload carries any structured data at all.
func Validate(t work.Type, p work.Payload) Verdict {
	switch t {
	case work.TypeGoldbach:
		return validateGoldbach(p.Goldbach)
	case work.TypePrimeGap:
		return validatePrimeGap(p.PrimeGap)
	case work.TypeFibonacci:
		return validateFibonacci(p.Fibonacci)
	case work.TypeCollatz:
		return validateCollatz(p.Collatz)
	case work.TypeRiemann:
		return validateRiemann(p.Riemann)
	case work.TypeQuantumField:
		return validateQuantumField(p.QuantumField)
	case work.TypeParticlePhysics:
		return validateParticlePhysics(p.ParticlePhysics)
	}

	if p.Generic == nil {
		return invalid("unknown work type with no payload")
	}

	return Verdict{Valid: true, Score: 50, Details: "unknown work type, structural check only"}
}

func invalid(details string) Verdict {
	return Verdict{Valid: false, Score: 0, Details: details}
}

// =============================================================================

func validateGoldbach(r *work.GoldbachResult) Verdict {
	if r == nil {
		return invalid("missing goldbach payload")
	}

	if r.SampleTarget <= 2 || r.SampleTarget%2 != 0 {
		return invalid(fmt.Sprintf("sample target %d is not an even number greater than 2", r.SampleTarget))
	}

	p1, p2 := r.SamplePair[0], r.SamplePair[1]
	if p1+p2 != r.SampleTarget {
		return invalid(fmt.Sprintf("%d+%d does not decompose %d", p1, p2, r.SampleTarget))
	}
	if !isPrime(p1) || !isPrime(p2) {
		return invalid(fmt.Sprintf("decomposition %d+%d is not a prime pair", p1, p2))
	}

	if len(r.Counterexamples) > 0 {
		return Verdict{Valid: false, Score: 10, Details: fmt.Sprintf("%d counterexamples claimed", len(r.Counterexamples))}
	}
	if r.TestedCount <= 0 {
		return invalid("no even numbers tested")
	}

	return Verdict{Valid: true, Score: 100, Details: "prime pair decomposition verified"}
}

func validatePrimeGap(r *work.PrimeGapResult) Verdict {
	if r == nil {
		return invalid("missing prime gap payload")
	}

	if r.Limit < 2 || r.PrimeCount < 2 {
		return invalid("analysis range too small")
	}
	if r.MeanGap <= 0 || r.MinGap <= 0 || r.MaxGap < r.MinGap {
		return invalid("gap statistics inconsistent")
	}
	if r.MeanGap < float64(r.MinGap) || r.MeanGap > float64(r.MaxGap) {
		return invalid("mean gap outside min/max bounds")
	}

	score := 80
	if r.TwinPrimeCount > 0 {
		score = 100
	}

	return Verdict{Valid: true, Score: score, Details: "gap statistics consistent"}
}

func validateFibonacci(r *work.FibonacciResult) Verdict {
	if r == nil {
		return invalid("missing fibonacci payload")
	}

	if r.Length < 3 || r.WindowSize < 1 {
		return invalid("sequence too short")
	}

	const phi = 1.618033988749895
	if math.Abs(r.FinalRatio-phi) > 0.01 {
		return invalid(fmt.Sprintf("final ratio %v has not converged toward the golden ratio", r.FinalRatio))
	}
	if r.ConvergenceError < 0 || r.ConvergenceError > 0.01 {
		return invalid(fmt.Sprintf("convergence error %v out of tolerance", r.ConvergenceError))
	}

	return Verdict{Valid: true, Score: 100, Details: "golden ratio convergence verified"}
}

func validateCollatz(r *work.CollatzResult) Verdict {
	if r == nil {
		return invalid("missing collatz payload")
	}

	if r.TestedCount <= 0 || r.RangeEnd < r.RangeStart {
		return invalid("empty test range")
	}
	if r.ConvergenceRate < 0 || r.ConvergenceRate > 1 {
		return invalid(fmt.Sprintf("convergence rate %v outside [0,1]", r.ConvergenceRate))
	}

	if len(r.Failures) > 0 {
		return Verdict{Valid: false, Score: 20, Details: fmt.Sprintf("%d non-converging seeds claimed", len(r.Failures))}
	}

	return Verdict{Valid: true, Score: 100, Details: "all seeds converged"}
}

func validateRiemann(r *work.RiemannResult) Verdict {
	if r == nil {
		return invalid("missing riemann payload")
	}

	// Non-trivial zeros must sit on the critical line Re(s) = 1/2.
	if math.Abs(r.ZeroReal-0.5) > riemannTolerance {
		return Verdict{Valid: false, Score: 10, Details: fmt.Sprintf("real part %v off the critical line", r.ZeroReal)}
	}
	if r.ZeroImag == 0 {
		return invalid("trivial zero claimed as non-trivial")
	}

	return Verdict{Valid: true, Score: 100, Details: "zero lies on the critical line"}
}

func validateQuantumField(r *work.QuantumFieldResult) Verdict {
	if r == nil {
		return invalid("missing quantum field payload")
	}

	if r.FieldStrength <= 0 || r.CouplingConstant <= 0 || r.LatticeSize <= 0 {
		return invalid("field simulation requires positive field strength, coupling and lattice size")
	}

	return Verdict{Valid: true, Score: 90, Details: "field parameters plausible"}
}

func validateParticlePhysics(r *work.ParticlePhysicsResult) Verdict {
	if r == nil {
		return invalid("missing particle physics payload")
	}

	if r.CollisionEnergy <= 0 || r.CrossSection <= 0 || r.EventCount <= 0 {
		return invalid("collision analysis requires positive energy, cross section and event count")
	}

	return Verdict{Valid: true, Score: 90, Details: "collision parameters plausible"}
}

// =============================================================================

// isPrime is a trial-division check; validation only sees small pair values
// so the cost is negligible.
func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for i := 2; i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}

	return true
}
