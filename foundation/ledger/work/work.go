// Package work defines the unit of mathematical work accepted by the ledger
// and the signing support for proving who produced it.
package work

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/mathledger/mathledger/foundation/ledger/signature"
)

// Type identifies one of the fixed set of work types the ledger accepts.
type Type string

// Set of work types with real computation engines or validation rules.
const (
	TypeGoldbach        Type = "goldbach_verification"
	TypePrimeGap        Type = "prime_gap_analysis"
	TypeFibonacci       Type = "fibonacci_convergence"
	TypeCollatz         Type = "collatz_convergence"
	TypeRiemann         Type = "riemann_zero"
	TypeQuantumField    Type = "quantum_field_simulation"
	TypeParticlePhysics Type = "particle_physics_analysis"
)

// Mode identifies how a result was produced.
type Mode string

// Set of computation modes.
const (
	ModeReal       Mode = "real"
	ModeSimulation Mode = "simulation"
)

// =============================================================================

// UserWork represents a claim of completed mathematical work as submitted by
// a worker, before it has been signed.
type UserWork struct {
	Type         Type         `json:"type" validate:"required"`
	Difficulty   int          `json:"difficulty" validate:"required,gte=1"`
	Result       Envelope     `json:"result"`
	Verification Verification `json:"verification"`
	Cost         int          `json:"computational_cost" validate:"gte=0"`
	Efficiency   float64      `json:"energy_efficiency" validate:"gte=0"`
}

// Sign uses the specified private key to sign the work claim.
func (uw UserWork) Sign(privateKey *ecdsa.PrivateKey) (SignedWork, error) {
	v, r, s, err := signature.Sign(uw, privateKey)
	if err != nil {
		return SignedWork{}, err
	}

	return SignedWork{
		UserWork: uw,
		V:        v,
		R:        r,
		S:        s,
	}, nil
}

// SignedWork is a work claim with the worker's signature attached.
type SignedWork struct {
	UserWork
	V *big.Int `json:"v"`
	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
}

// Validate checks the signature conforms to the ledger's standards.
func (sw SignedWork) Validate() error {
	if err := signature.VerifySignature(sw.V, sw.R, sw.S); err != nil {
		return err
	}
	if sw.Result.Payload.isEmpty() {
		return errors.New("signed work carries no result payload")
	}

	return nil
}

// FromWorker extracts the address of the worker who signed the claim.
func (sw SignedWork) FromWorker() (string, error) {
	return signature.FromAddress(sw.UserWork, sw.V, sw.R, sw.S)
}

// SignatureString returns the signature as a hex string.
func (sw SignedWork) SignatureString() string {
	return signature.SignatureString(sw.V, sw.R, sw.S)
}

// =============================================================================

// Item represents a unit of work as persisted by the ledger. An Item is
// immutable once stored; ScientificValue is written exactly once by the
// valuation step before the item is persisted.
type Item struct {
	ID              string    `json:"id"`
	WorkerID        string    `json:"worker_id"`
	Signature       string    `json:"signature"`
	ScientificValue float64   `json:"scientific_value"`
	Timestamp       time.Time `json:"timestamp"`
	SignedWork
}

// NewItem constructs a persistable work item from a signed claim. The worker
// identity is recovered from the signature, never taken from the request.
func NewItem(sw SignedWork) (Item, error) {
	if err := sw.Validate(); err != nil {
		return Item{}, err
	}

	workerID, err := sw.FromWorker()
	if err != nil {
		return Item{}, fmt.Errorf("unable to recover worker: %w", err)
	}

	item := Item{
		ID:         uuid.NewString(),
		WorkerID:   workerID,
		Signature:  sw.SignatureString(),
		Timestamp:  time.Now().UTC(),
		SignedWork: sw,
	}

	return item, nil
}

// Verification carries the material needed to independently re-check a
// result: the method tag and a digest of the result payload.
type Verification struct {
	Method   string `json:"method"`
	Checksum string `json:"checksum"`
}

// NewVerification constructs the verification material for an envelope.
func NewVerification(method string, env Envelope) Verification {
	return Verification{
		Method:   method,
		Checksum: signature.Hash(env.Payload),
	}
}

// Recheck reports whether the verification checksum still matches the
// result payload.
func (v Verification) Recheck(env Envelope) bool {
	return v.Checksum != "" && v.Checksum == signature.Hash(env.Payload)
}
