// Package engines implements the deterministic computation engines for the
// fixed set of tractable work types. Every engine is pure over
// (type, difficulty) except for wall-clock budget truncation, which is
// reported as a partial result rather than an error.
package engines

import (
	"context"
	"fmt"
	"time"

	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// DefaultBudget bounds the wall-clock time of a single engine run. An engine
// that runs out of budget stops where it is and returns what it has covered.
const DefaultBudget = 25 * time.Second

// Engine is the behavior every computation engine implements. Run must
// respect ctx cancellation by truncating its search range, never by
// returning an error.
type Engine interface {
	Type() work.Type
	Run(ctx context.Context, difficulty int) (work.Payload, bool, error)
}

// =============================================================================

// Catalog holds the constructed engines keyed by work type. Construct one
// catalog per node; runs is a generation counter for diagnostics, held as a
// field instead of package state so independent catalogs don't interfere.
type Catalog struct {
	budget  time.Duration
	engines map[work.Type]Engine
	runs    map[work.Type]int
}

// New constructs a catalog with all supported engines registered.
func New(budget time.Duration) *Catalog {
	if budget <= 0 {
		budget = DefaultBudget
	}

	c := Catalog{
		budget:  budget,
		engines: make(map[work.Type]Engine),
		runs:    make(map[work.Type]int),
	}

	for _, e := range []Engine{Goldbach{}, PrimeGap{}, Fibonacci{}, Collatz{}} {
		c.engines[e.Type()] = e
	}

	return &c
}

// Supports reports whether a real engine exists for the work type.
func (c *Catalog) Supports(t work.Type) bool {
	_, exists := c.engines[t]
	return exists
}

// Run executes the engine for the work type under the configured budget.
// The bool result reports whether the run was truncated by the budget.
func (c *Catalog) Run(ctx context.Context, t work.Type, difficulty int) (work.Payload, bool, error) {
	engine, exists := c.engines[t]
	if !exists {
		return work.Payload{}, false, fmt.Errorf("no engine for work type %q", t)
	}

	ctx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()

	c.runs[t]++

	return engine.Run(ctx, difficulty)
}

// Runs returns how many times the engine for the work type has executed.
func (c *Catalog) Runs(t work.Type) int {
	return c.runs[t]
}

// =============================================================================

// sieve returns a prime flag table for [0, limit] using Eratosthenes.
func sieve(limit int) []bool {
	if limit < 2 {
		return make([]bool, limit+1)
	}

	prime := make([]bool, limit+1)
	for i := 2; i <= limit; i++ {
		prime[i] = true
	}

	for i := 2; i*i <= limit; i++ {
		if !prime[i] {
			continue
		}
		for j := i * i; j <= limit; j += i {
			prime[j] = false
		}
	}

	return prime
}

// cancelled polls the context without blocking.
func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
