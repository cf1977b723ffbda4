package work_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

const workerECDSA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

func signedWork(t *testing.T) work.SignedWork {
	key, err := crypto.HexToECDSA(workerECDSA)
	if err != nil {
		t.Fatalf("Should be able to load the key: %s", err)
	}

	env := work.Envelope{
		Mode:       work.ModeReal,
		Tractable:  true,
		Confidence: 1.0,
		Payload: work.Payload{Collatz: &work.CollatzResult{
			RangeStart:      1,
			RangeEnd:        1000,
			TestedCount:     1000,
			ConvergenceRate: 1.0,
		}},
	}

	uw := work.UserWork{
		Type:         work.TypeCollatz,
		Difficulty:   5,
		Result:       env,
		Verification: work.NewVerification("iterate", env),
	}

	sw, err := uw.Sign(key)
	if err != nil {
		t.Fatalf("Should be able to sign the work: %s", err)
	}

	return sw
}

// =============================================================================

func Test_NewItem(t *testing.T) {
	sw := signedWork(t)

	item, err := work.NewItem(sw)
	if err != nil {
		t.Fatalf("Should be able to construct an item: %s", err)
	}

	key, _ := crypto.HexToECDSA(workerECDSA)
	exp := crypto.PubkeyToAddress(key.PublicKey).String()
	if item.WorkerID != exp {
		t.Logf("got: %s", item.WorkerID)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should recover the worker from the signature.")
	}

	if item.ID == "" {
		t.Fatalf("Should assign an id.")
	}
	if item.Signature != sw.SignatureString() {
		t.Fatalf("Should carry the hex signature.")
	}
}

func Test_EmptyPayloadRejected(t *testing.T) {
	key, err := crypto.HexToECDSA(workerECDSA)
	if err != nil {
		t.Fatalf("Should be able to load the key: %s", err)
	}

	uw := work.UserWork{
		Type:       work.TypeCollatz,
		Difficulty: 5,
	}

	sw, err := uw.Sign(key)
	if err != nil {
		t.Fatalf("Should be able to sign the work: %s", err)
	}

	if _, err := work.NewItem(sw); err == nil {
		t.Fatalf("Should reject signed work with no result payload.")
	}
}

func Test_Recheck(t *testing.T) {
	sw := signedWork(t)

	if !sw.Verification.Recheck(sw.Result) {
		t.Fatalf("Should recheck an untouched payload.")
	}

	tampered := sw.Result
	altered := *sw.Result.Payload.Collatz
	altered.ConvergenceRate = 0.5
	tampered.Payload.Collatz = &altered

	if sw.Verification.Recheck(tampered) {
		t.Fatalf("Should fail the recheck after the payload changed.")
	}

	if (work.Verification{}).Recheck(sw.Result) {
		t.Fatalf("Should fail the recheck with no checksum.")
	}
}
