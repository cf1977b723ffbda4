// Package router decides whether a work request is computed for real by an
// engine or fabricated by the simulated fallback path.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/mathledger/mathledger/foundation/ledger/engines"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// Mode identifies the path a work request is routed to.
type Mode string

// Set of routing modes.
const (
	ModeReal      Mode = "real"
	ModeSimulated Mode = "simulated"
)

// DefaultThreshold is the difficulty above which real computation is not
// attempted even for supported work types.
const DefaultThreshold = 50

// EventHandler defines a function that is called when routing events occur.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to construct a Router.
type Config struct {
	Catalog   *engines.Catalog
	Threshold int
	EvHandler EventHandler
}

// Router dispatches work requests to the engine catalog or the simulated
// fallback. Construct one per node; it holds no hidden package state.
type Router struct {
	catalog   *engines.Catalog
	threshold int
	evHandler EventHandler
}

// New constructs a Router from the configuration.
func New(cfg Config) *Router {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Router{
		catalog:   cfg.Catalog,
		threshold: threshold,
		evHandler: ev,
	}
}

// Route returns ModeReal iff the work type has a real engine and the
// difficulty is within the configured threshold.
func (r *Router) Route(t work.Type, difficulty int) Mode {
	if r.catalog.Supports(t) && difficulty <= r.threshold {
		return ModeReal
	}

	return ModeSimulated
}

// Compute produces a result envelope for the work request. Engine failures
// and panics never propagate: the request is redirected to the simulated
// path and the fallback is logged.
func (r *Router) Compute(ctx context.Context, t work.Type, difficulty int) work.Envelope {
	if r.Route(t, difficulty) == ModeSimulated {
		return r.simulate(t, difficulty)
	}

	env, err := r.computeReal(ctx, t, difficulty)
	if err != nil {
		r.evHandler("router: Compute: FALLBACK: type[%s] difficulty[%d]: %s", t, difficulty, err)
		return r.simulate(t, difficulty)
	}

	return env
}

// computeReal runs the engine, converting a panic into an error so the
// caller can fall back.
func (r *Router) computeReal(ctx context.Context, t work.Type, difficulty int) (env work.Envelope, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("engine panic: %v", rec)
		}
	}()

	start := time.Now()
	payload, partial, err := r.catalog.Run(ctx, t, difficulty)
	if err != nil {
		return work.Envelope{}, err
	}

	env = work.Envelope{
		Mode:           work.ModeReal,
		Tractable:      true,
		Confidence:     1.0,
		ComputeSeconds: time.Since(start).Seconds(),
		Partial:        partial,
		Payload:        payload,
	}

	return env, nil
}

// simulate fabricates a structurally valid but non-authoritative result.
// The envelope is tagged so downstream scoring can discount it.
func (r *Router) simulate(t work.Type, difficulty int) work.Envelope {
	if difficulty < 1 {
		difficulty = 1
	}

	// Confidence decays with difficulty; a simulation of a harder problem
	// carries less weight.
	confidence := 0.75 - 0.25*float64(difficulty)/float64(difficulty+100)

	env := work.Envelope{
		Mode:       work.ModeSimulation,
		Tractable:  false,
		Confidence: confidence,
		Payload:    simulatedPayload(t, difficulty),
	}

	return env
}

// simulatedPayload fabricates a payload of the right shape for the work
// type. Values are plausible but deterministic placeholders.
func simulatedPayload(t work.Type, difficulty int) work.Payload {
	switch t {
	case work.TypeGoldbach:
		limit := difficulty * 2_000
		return work.Payload{Goldbach: &work.GoldbachResult{
			RangeStart:         4,
			RangeEnd:           limit,
			TestedCount:        limit/2 - 1,
			SampleTarget:       10,
			SamplePair:         [2]int{3, 7},
			VerificationMethod: "simulated",
		}}

	case work.TypePrimeGap:
		return work.Payload{PrimeGap: &work.PrimeGapResult{
			Limit:      difficulty * 2_000,
			PrimeCount: difficulty * 150,
			MeanGap:    8.5,
			StdDevGap:  6.2,
			MinGap:     1,
			MaxGap:     34,
		}}

	case work.TypeFibonacci:
		return work.Payload{Fibonacci: &work.FibonacciResult{
			Length:           30 + difficulty,
			FinalRatio:       1.6180339887,
			ConvergenceError: 1e-10,
			WindowSize:       10,
		}}

	case work.TypeCollatz:
		return work.Payload{Collatz: &work.CollatzResult{
			RangeStart:      1,
			RangeEnd:        uint64(difficulty) * 1_000,
			TestedCount:     difficulty * 1_000,
			ConvergenceRate: 1.0,
			MaxIterations:   10_000,
		}}

	case work.TypeRiemann:
		return work.Payload{Riemann: &work.RiemannResult{
			ZeroReal: 0.5,
			ZeroImag: 14.134725 + float64(difficulty),
			Index:    difficulty,
		}}

	case work.TypeQuantumField:
		return work.Payload{QuantumField: &work.QuantumFieldResult{
			FieldStrength:    1.0 + float64(difficulty)/10,
			CouplingConstant: 0.0072973525693,
			LatticeSize:      16 + difficulty,
		}}

	case work.TypeParticlePhysics:
		return work.Payload{ParticlePhysics: &work.ParticlePhysicsResult{
			CollisionEnergy: 13.6 * float64(difficulty),
			CrossSection:    0.05,
			EventCount:      difficulty * 10_000,
		}}
	}

	return work.Payload{Generic: map[string]any{
		"work_type":  string(t),
		"difficulty": difficulty,
		"simulated":  true,
	}}
}
