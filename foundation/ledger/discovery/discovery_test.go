package discovery_test

import (
	"testing"
	"time"

	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/discovery"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

func newStore(t *testing.T) *database.Store {
	db, err := database.New(database.NewMemory())
	if err != nil {
		t.Fatalf("Should be able to construct a store: %s", err)
	}
	return db
}

// storeStrongItem persists a fully verified, well voted work item.
func storeStrongItem(t *testing.T, db *database.Store) {
	env := work.Envelope{
		Mode:       work.ModeReal,
		Tractable:  true,
		Confidence: 1.0,
		Payload: work.Payload{Goldbach: &work.GoldbachResult{
			RangeStart:   4,
			RangeEnd:     2000,
			TestedCount:  999,
			SampleTarget: 2000,
			SamplePair:   [2]int{3, 1997},
		}},
	}

	item := work.Item{
		ID:              "strong",
		WorkerID:        "0xWorker",
		Signature:       "0xsig",
		ScientificValue: 1_000_000,
		Timestamp:       time.Now().UTC(),
		SignedWork: work.SignedWork{
			UserWork: work.UserWork{
				Type:         work.TypeGoldbach,
				Difficulty:   100,
				Result:       env,
				Verification: work.NewVerification("sieve_pair_scan", env),
			},
		},
	}
	if err := db.CreateWorkItem(item); err != nil {
		t.Fatalf("Should be able to store the work item: %s", err)
	}

	db.SetVerdict(database.Verdict{WorkID: "strong", Valid: true, Score: 100})

	for i, staker := range []string{"a", "b", "c", "d", "e"} {
		vote := database.ValidationVote{
			ID:          string(rune('1' + i)),
			WorkID:      "strong",
			StakerID:    staker,
			Status:      database.VoteApproved,
			StakeAmount: 20,
			Timestamp:   time.Now().UTC(),
		}
		if err := db.AppendVote(vote); err != nil {
			t.Fatalf("Should be able to append a vote: %s", err)
		}
	}
}

// storeWeakItem persists an unsigned, unvoted, invalid work item.
func storeWeakItem(t *testing.T, db *database.Store) {
	item := work.Item{
		ID:        "weak",
		WorkerID:  "0xWorker",
		Timestamp: time.Now().UTC(),
		SignedWork: work.SignedWork{
			UserWork: work.UserWork{
				Type:       work.TypeRiemann,
				Difficulty: 5,
				Result: work.Envelope{
					Mode:    work.ModeSimulation,
					Partial: true,
					Payload: work.Payload{Riemann: &work.RiemannResult{ZeroReal: 0.3, ZeroImag: 14.1}},
				},
			},
		},
	}
	if err := db.CreateWorkItem(item); err != nil {
		t.Fatalf("Should be able to store the work item: %s", err)
	}

	db.SetVerdict(database.Verdict{WorkID: "weak", Valid: false, Score: 10})
}

// =============================================================================

func Test_ScoreStrongItem(t *testing.T) {
	db := newStore(t)
	storeStrongItem(t, db)

	engine := discovery.New(db)

	report, err := engine.Score("strong")
	if err != nil {
		t.Fatalf("Should be able to score the work item: %s", err)
	}

	if report.IntegrityScore != 40 {
		t.Fatalf("Should award full integrity for a verified signed real result, got %v.", report.IntegrityScore)
	}
	if report.ConsensusScore != 30 {
		t.Fatalf("Should award full consensus for five unanimous approvals, got %v.", report.ConsensusScore)
	}
	if report.SecurityScore < 85 {
		t.Fatalf("Should score at least 85, got %v.", report.SecurityScore)
	}
	if report.RiskLevel != discovery.RiskLow {
		t.Fatalf("Should classify as LOW risk, got %s.", report.RiskLevel)
	}
}

func Test_ScoreWeakItem(t *testing.T) {
	db := newStore(t)
	storeWeakItem(t, db)

	engine := discovery.New(db)

	report, err := engine.Score("weak")
	if err != nil {
		t.Fatalf("Should be able to score the work item: %s", err)
	}

	if report.IntegrityScore != 0 {
		t.Fatalf("Should award no integrity to an unsigned invalid simulation, got %v.", report.IntegrityScore)
	}
	if report.ConsensusScore != 0 {
		t.Fatalf("Should award no consensus without votes, got %v.", report.ConsensusScore)
	}
	if report.RiskLevel != discovery.RiskCritical {
		t.Fatalf("Should classify as CRITICAL risk, got %s.", report.RiskLevel)
	}
}

func Test_DetectFraud(t *testing.T) {
	db := newStore(t)
	storeWeakItem(t, db)

	engine := discovery.New(db)

	report, err := engine.DetectFraud("weak")
	if err != nil {
		t.Fatalf("Should be able to run fraud detection: %s", err)
	}

	if !report.Fraudulent {
		t.Fatalf("Should flag the item with %d indicators as fraudulent.", len(report.Indicators))
	}
	if len(report.Indicators) != 4 {
		t.Fatalf("Should find all four indicators, got %v.", report.Indicators)
	}
	if report.Confidence != 95 {
		t.Fatalf("Should cap confidence at 95, got %v.", report.Confidence)
	}
}

func Test_NoFraudOnStrongItem(t *testing.T) {
	db := newStore(t)
	storeStrongItem(t, db)

	engine := discovery.New(db)

	report, err := engine.DetectFraud("strong")
	if err != nil {
		t.Fatalf("Should be able to run fraud detection: %s", err)
	}

	if report.Fraudulent {
		t.Fatalf("Should not flag a verified item, indicators: %v.", report.Indicators)
	}
	if len(report.Indicators) != 0 {
		t.Fatalf("Should find no indicators, got %v.", report.Indicators)
	}
}
