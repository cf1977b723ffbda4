package engines_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/mathledger/mathledger/foundation/ledger/engines"
	"github.com/mathledger/mathledger/foundation/ledger/formula"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

func Test_Goldbach(t *testing.T) {
	catalog := engines.New(time.Minute)

	payload, partial, err := catalog.Run(context.Background(), work.TypeGoldbach, 1)
	if err != nil {
		t.Fatalf("Should be able to run the goldbach engine: %s", err)
	}
	if partial {
		t.Fatalf("Should complete the full range within the budget.")
	}

	r := payload.Goldbach
	if r == nil {
		t.Fatalf("Should produce a goldbach payload.")
	}

	if len(r.Counterexamples) != 0 {
		t.Fatalf("Should find no counterexamples, got %d.", len(r.Counterexamples))
	}
	if r.TestedCount != 999 {
		t.Fatalf("Should test every even number in [4, 2000], got %d.", r.TestedCount)
	}
	if r.SamplePair[0]+r.SamplePair[1] != r.SampleTarget {
		t.Fatalf("Should report a pair that sums to the sample target.")
	}

	verdict := formula.Validate(work.TypeGoldbach, payload)
	if !verdict.Valid {
		t.Fatalf("Should produce a payload that passes validation: %s", verdict.Details)
	}
}

func Test_Collatz(t *testing.T) {
	catalog := engines.New(time.Minute)

	payload, partial, err := catalog.Run(context.Background(), work.TypeCollatz, 1)
	if err != nil {
		t.Fatalf("Should be able to run the collatz engine: %s", err)
	}
	if partial {
		t.Fatalf("Should complete the full range within the budget.")
	}

	r := payload.Collatz
	if r == nil {
		t.Fatalf("Should produce a collatz payload.")
	}

	if len(r.Failures) != 0 {
		t.Fatalf("Should find no non-converging seeds, got %d.", len(r.Failures))
	}
	if r.ConvergenceRate != 1.0 {
		t.Fatalf("Should report full convergence, got %v.", r.ConvergenceRate)
	}
	if r.TestedCount != 1000 {
		t.Fatalf("Should test every seed in [1, 1000], got %d.", r.TestedCount)
	}
}

func Test_Fibonacci(t *testing.T) {
	catalog := engines.New(time.Minute)

	payload, _, err := catalog.Run(context.Background(), work.TypeFibonacci, 10)
	if err != nil {
		t.Fatalf("Should be able to run the fibonacci engine: %s", err)
	}

	r := payload.Fibonacci
	if r == nil {
		t.Fatalf("Should produce a fibonacci payload.")
	}

	const phi = 1.618033988749895
	if math.Abs(r.FinalRatio-phi) > 1e-9 {
		t.Fatalf("Should converge to the golden ratio, got %v.", r.FinalRatio)
	}
	if r.ConvergenceError > 1e-6 {
		t.Fatalf("Should report a tiny convergence error, got %v.", r.ConvergenceError)
	}
}

func Test_PrimeGap(t *testing.T) {
	catalog := engines.New(time.Minute)

	payload, _, err := catalog.Run(context.Background(), work.TypePrimeGap, 1)
	if err != nil {
		t.Fatalf("Should be able to run the prime gap engine: %s", err)
	}

	r := payload.PrimeGap
	if r == nil {
		t.Fatalf("Should produce a prime gap payload.")
	}

	if r.PrimeCount != 303 {
		t.Fatalf("Should count 303 primes below 2000, got %d.", r.PrimeCount)
	}
	if r.MinGap != 1 {
		t.Fatalf("Should report the 2 to 3 gap as the minimum, got %d.", r.MinGap)
	}
	if r.TwinPrimeCount == 0 {
		t.Fatalf("Should find twin primes below 2000.")
	}
	if r.MeanGap < float64(r.MinGap) || r.MeanGap > float64(r.MaxGap) {
		t.Fatalf("Should report a mean gap within the min/max bounds.")
	}
	if r.Resonance <= 0 {
		t.Fatalf("Should report a positive resonance, got %v.", r.Resonance)
	}
}

func Test_BudgetTruncation(t *testing.T) {
	catalog := engines.New(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload, partial, err := catalog.Run(ctx, work.TypeGoldbach, 1)
	if err != nil {
		t.Fatalf("Should not error on a cancelled context: %s", err)
	}
	if !partial {
		t.Fatalf("Should report a truncated run as partial.")
	}
	if payload.Goldbach == nil {
		t.Fatalf("Should still return the covered range.")
	}
	if payload.Goldbach.RangeEnd >= 2000 {
		t.Fatalf("Should have stopped short of the full range.")
	}
}

func Test_UnsupportedType(t *testing.T) {
	catalog := engines.New(time.Minute)

	if catalog.Supports(work.TypeRiemann) {
		t.Fatalf("Should report no engine for riemann zeros.")
	}

	if _, _, err := catalog.Run(context.Background(), work.TypeRiemann, 1); err == nil {
		t.Fatalf("Should error when no engine exists for the work type.")
	}
}
