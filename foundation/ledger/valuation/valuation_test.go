package valuation_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mathledger/mathledger/foundation/ledger/valuation"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

func Test_ScientificValue(t *testing.T) {
	engine := valuation.New(0, 0)

	val := engine.ScientificValue(work.TypeGoldbach, 10, 120, 0.5)

	assert.Equal(t, 800.0, val.BaseValue)
	assert.InDelta(t, 1.3, val.DifficultyMultiplier, 1e-9, "difficulty 10 is one decade")
	assert.Greater(t, val.ComputationalEffortValue, 0.0)
	assert.Greater(t, val.ResearchImpactValue, 0.0)
	assert.Greater(t, val.TotalValue, val.BaseValue)
}

func Test_ValueGrowsWithDifficulty(t *testing.T) {
	engine := valuation.New(0, 0)

	easy := engine.ScientificValue(work.TypeRiemann, 1, 60, 0.1)
	hard := engine.ScientificValue(work.TypeRiemann, 100, 60, 0.1)

	assert.Greater(t, hard.TotalValue, easy.TotalValue)
	assert.Greater(t, hard.DifficultyMultiplier, easy.DifficultyMultiplier)
}

func Test_UnknownTypeDefaults(t *testing.T) {
	engine := valuation.New(0, 0)

	val := engine.ScientificValue(work.Type("unknown_research"), 1, 0, 0)

	assert.Equal(t, 250.0, val.BaseValue)
	assert.Equal(t, 1.0, val.DifficultyMultiplier)
}

func Test_ValidateBounds(t *testing.T) {
	engine := valuation.New(0, 0)

	value, clamped := engine.ValidateBounds(50)
	assert.Equal(t, float64(valuation.MinValue), value)
	assert.True(t, clamped, "values below the floor clamp up")

	value, clamped = engine.ValidateBounds(5_000_000)
	assert.Equal(t, float64(valuation.MaxValue), value)
	assert.True(t, clamped, "values above the ceiling clamp down")

	value, clamped = engine.ValidateBounds(1_234)
	assert.Equal(t, 1_234.0, value)
	assert.False(t, clamped)
}

func Test_AggregateValues(t *testing.T) {
	engine := valuation.New(0, 0)

	agg := engine.AggregateValues(nil)
	assert.Equal(t, 1.0, agg.DiminishingFactor, "empty set has nothing to damp")
	assert.Equal(t, 0.0, agg.RawTotal)

	agg = engine.AggregateValues([]float64{1000, 2000, 3000})
	assert.Equal(t, 6000.0, agg.RawTotal)
	assert.Equal(t, 2000.0, agg.Average)
	assert.Less(t, agg.AdjustedTotal, agg.RawTotal, "diminishing returns damp the total")
	assert.Greater(t, agg.AdjustedTotal, 0.0)
}

func Test_DiminishingFactor(t *testing.T) {
	assert.Equal(t, 1.0, valuation.DiminishingFactor(0))

	for n := 1; n <= 100_000; n *= 10 {
		factor := valuation.DiminishingFactor(n)

		assert.Greater(t, factor, 0.0)
		assert.Less(t, factor, 1.0, "any non-empty set is damped")
	}

	assert.InDelta(t, math.Log10(2)/math.Log10(11), valuation.DiminishingFactor(1), 1e-12)
	assert.InDelta(t, math.Log10(11)/math.Log10(20), valuation.DiminishingFactor(10), 1e-12)
}
