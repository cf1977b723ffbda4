// Package valuation converts verified mathematical work into a scientific
// value score and aggregates values with diminishing returns.
package valuation

import (
	"math"

	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// Bounds every individual valuation is clamped to.
const (
	MinValue = 100
	MaxValue = 2_000_000
)

// Default economic rates used when the genesis file does not override them.
const (
	DefaultComputeRate = 0.10 // dollars per compute hour
	DefaultEnergyRate  = 0.12 // dollars per kWh
)

// baseValues is the fixed per-type base value lookup.
var baseValues = map[work.Type]float64{
	work.TypeGoldbach:        800,
	work.TypePrimeGap:        600,
	work.TypeFibonacci:       300,
	work.TypeCollatz:         500,
	work.TypeRiemann:         2_500,
	work.TypeQuantumField:    1_500,
	work.TypeParticlePhysics: 1_800,
}

// impactFactors is the fixed per-type research impact lookup.
var impactFactors = map[work.Type]float64{
	work.TypeGoldbach:        120,
	work.TypePrimeGap:        90,
	work.TypeFibonacci:       40,
	work.TypeCollatz:         75,
	work.TypeRiemann:         400,
	work.TypeQuantumField:    220,
	work.TypeParticlePhysics: 260,
}

const (
	defaultBaseValue    = 250
	defaultImpactFactor = 50
)

// =============================================================================

// Valuation is the breakdown of a single work item's scientific value.
type Valuation struct {
	BaseValue                float64 `json:"base_value"`
	ComputationalEffortValue float64 `json:"computational_effort_value"`
	ResearchImpactValue      float64 `json:"research_impact_value"`
	DifficultyMultiplier     float64 `json:"difficulty_multiplier"`
	TotalValue               float64 `json:"total_value"`
}

// Aggregate is the result of combining many valuations with diminishing
// returns applied.
type Aggregate struct {
	RawTotal          float64 `json:"raw_total"`
	Average           float64 `json:"average"`
	AdjustedTotal     float64 `json:"adjusted_total"`
	DiminishingFactor float64 `json:"diminishing_factor"`
}

// =============================================================================

// Engine computes scientific values. Construct one per node so rate
// overrides stay local.
type Engine struct {
	computeRate float64
	energyRate  float64
}

// New constructs a valuation engine. Zero rates fall back to the defaults.
func New(computeRate, energyRate float64) *Engine {
	if computeRate <= 0 {
		computeRate = DefaultComputeRate
	}
	if energyRate <= 0 {
		energyRate = DefaultEnergyRate
	}

	return &Engine{
		computeRate: computeRate,
		energyRate:  energyRate,
	}
}

// ScientificValue computes the value breakdown for one unit of work.
func (e *Engine) ScientificValue(t work.Type, difficulty int, computeSeconds float64, energyKWh float64) Valuation {
	base, exists := baseValues[t]
	if !exists {
		base = defaultBaseValue
	}

	impact, exists := impactFactors[t]
	if !exists {
		impact = defaultImpactFactor
	}

	logDiff := math.Log10(math.Max(float64(difficulty), 1))

	difficultyMultiplier := 1 + logDiff*0.3

	computeHours := computeSeconds / 3600
	effort := (computeHours*e.computeRate + energyKWh*e.energyRate) * (1 + logDiff*0.8)

	research := impact * math.Min(1+float64(difficulty)/200, 3.0)

	total := math.Round(base + effort + research + base*(difficultyMultiplier-1))

	return Valuation{
		BaseValue:                base,
		ComputationalEffortValue: effort,
		ResearchImpactValue:      research,
		DifficultyMultiplier:     difficultyMultiplier,
		TotalValue:               total,
	}
}

// ValidateBounds clamps a value to [MinValue, MaxValue] and reports whether
// clamping occurred.
func (e *Engine) ValidateBounds(value float64) (float64, bool) {
	switch {
	case value < MinValue:
		return MinValue, true
	case value > MaxValue:
		return MaxValue, true
	}

	return value, false
}

// AggregateValues combines a set of valuations, damping the total with a
// diminishing returns factor so aggregate value can't inflate linearly with
// discovery count. The factor stays strictly below one for any non-empty
// set, so the adjusted total never exceeds the raw total.
func (e *Engine) AggregateValues(values []float64) Aggregate {
	n := len(values)
	if n == 0 {
		return Aggregate{DiminishingFactor: 1}
	}

	var rawTotal float64
	for _, v := range values {
		rawTotal += v
	}

	factor := DiminishingFactor(n)

	return Aggregate{
		RawTotal:          rawTotal,
		Average:           rawTotal / float64(n),
		AdjustedTotal:     math.Round(rawTotal * factor),
		DiminishingFactor: factor,
	}
}

// DiminishingFactor returns log10(n+1)/log10(n+10) for n discoveries.
func DiminishingFactor(n int) float64 {
	if n <= 0 {
		return 1
	}

	return math.Log10(float64(n)+1) / math.Log10(float64(n)+10)
}
