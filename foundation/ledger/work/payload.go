package work

// Envelope wraps a result payload with the metadata describing how it was
// produced. Simulated results must carry Mode == ModeSimulation and
// Tractable == false so downstream scoring can discount them.
type Envelope struct {
	Mode           Mode    `json:"computation_mode"`
	Tractable      bool    `json:"tractable"`
	Confidence     float64 `json:"confidence"`
	ComputeSeconds float64 `json:"compute_seconds"`
	EnergyKWh      float64 `json:"energy_kwh"`
	Partial        bool    `json:"partial"`
	Payload        Payload `json:"payload"`
}

// Payload is the tagged union of result shapes, one case per work type.
// Exactly one case is set for a well-formed result; which case must match
// the item's work type is enforced by the formula validator.
type Payload struct {
	Goldbach        *GoldbachResult        `json:"goldbach,omitempty"`
	PrimeGap        *PrimeGapResult        `json:"prime_gap,omitempty"`
	Fibonacci       *FibonacciResult       `json:"fibonacci,omitempty"`
	Collatz         *CollatzResult         `json:"collatz,omitempty"`
	Riemann         *RiemannResult         `json:"riemann,omitempty"`
	QuantumField    *QuantumFieldResult    `json:"quantum_field,omitempty"`
	ParticlePhysics *ParticlePhysicsResult `json:"particle_physics,omitempty"`
	Generic         map[string]any         `json:"generic,omitempty"`
}

func (p Payload) isEmpty() bool {
	return p.Goldbach == nil && p.PrimeGap == nil && p.Fibonacci == nil &&
		p.Collatz == nil && p.Riemann == nil && p.QuantumField == nil &&
		p.ParticlePhysics == nil && p.Generic == nil
}

// =============================================================================

// GoldbachResult reports a scan confirming every even number in the tested
// range decomposes into two primes.
type GoldbachResult struct {
	RangeStart         int      `json:"range_start"`
	RangeEnd           int      `json:"range_end"`
	TestedCount        int      `json:"tested_count"`
	Counterexamples    []int    `json:"counterexamples"`
	SampleTarget       int      `json:"sample_target"`
	SamplePair         [2]int   `json:"sample_pair"`
	VerificationMethod string   `json:"verification_method"`
}

// PrimeGapResult reports the gap statistics over the primes below a bound.
type PrimeGapResult struct {
	Limit          int     `json:"limit"`
	PrimeCount     int     `json:"prime_count"`
	MeanGap        float64 `json:"mean_gap"`
	StdDevGap      float64 `json:"stddev_gap"`
	MinGap         int     `json:"min_gap"`
	MaxGap         int     `json:"max_gap"`
	TwinPrimeCount int     `json:"twin_prime_count"`
	Resonance      float64 `json:"resonance"`
}

// FibonacciResult reports golden ratio convergence over a generated sequence.
type FibonacciResult struct {
	Length           int     `json:"length"`
	FinalRatio       float64 `json:"final_ratio"`
	ConvergenceError float64 `json:"convergence_error"`
	WindowSize       int     `json:"window_size"`
}

// CollatzResult reports convergence behavior over a range of seeds.
type CollatzResult struct {
	RangeStart      uint64   `json:"range_start"`
	RangeEnd        uint64   `json:"range_end"`
	TestedCount     int      `json:"tested_count"`
	ConvergenceRate float64  `json:"convergence_rate"`
	Failures        []uint64 `json:"failures"`
	MaxIterations   int      `json:"max_iterations"`
	LongestChain    int      `json:"longest_chain"`
}

// RiemannResult reports a claimed non-trivial zero of the zeta function.
type RiemannResult struct {
	ZeroReal float64 `json:"zero_real"`
	ZeroImag float64 `json:"zero_imag"`
	Index    int     `json:"index"`
}

// QuantumFieldResult reports a field simulation outcome.
type QuantumFieldResult struct {
	FieldStrength    float64 `json:"field_strength"`
	CouplingConstant float64 `json:"coupling_constant"`
	LatticeSize      int     `json:"lattice_size"`
}

// ParticlePhysicsResult reports a collision analysis outcome.
type ParticlePhysicsResult struct {
	CollisionEnergy float64 `json:"collision_energy"`
	CrossSection    float64 `json:"cross_section"`
	EventCount      int     `json:"event_count"`
}
