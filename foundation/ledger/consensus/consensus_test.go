package consensus_test

import (
	"testing"
	"time"

	"github.com/mathledger/mathledger/foundation/ledger/consensus"
	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

func setup(t *testing.T, stakes map[string]float64) (*database.Store, *consensus.Auditor) {
	db, err := database.New(database.NewMemory())
	if err != nil {
		t.Fatalf("Should be able to construct a store: %s", err)
	}

	for id, stake := range stakes {
		db.UpsertStaker(database.Staker{ID: id, StakeAmount: stake})
	}

	item := work.Item{
		ID:        "w1",
		WorkerID:  "0xWorker",
		Signature: "0xsig",
		Timestamp: time.Now().UTC(),
		SignedWork: work.SignedWork{
			UserWork: work.UserWork{Type: work.TypeGoldbach, Difficulty: 10},
		},
	}
	if err := db.CreateWorkItem(item); err != nil {
		t.Fatalf("Should be able to store the work item: %s", err)
	}

	auditor := consensus.New(consensus.Config{
		Storage:   db,
		Threshold: 51,
	})

	return db, auditor
}

func castVote(t *testing.T, db *database.Store, id, stakerID string, status database.VoteStatus, stake float64) {
	vote := database.ValidationVote{
		ID:          id,
		WorkID:      "w1",
		StakerID:    stakerID,
		Status:      status,
		StakeAmount: stake,
		Timestamp:   time.Now().UTC(),
	}
	if err := db.AppendVote(vote); err != nil {
		t.Fatalf("Should be able to append vote %s: %s", id, err)
	}
}

// =============================================================================

func Test_StakeWeightedApproval(t *testing.T) {
	db, auditor := setup(t, map[string]float64{"alice": 60, "bob": 30, "carol": 10})

	castVote(t, db, "v1", "alice", database.VoteApproved, 60)
	castVote(t, db, "v2", "bob", database.VoteRejected, 30)

	tally, err := auditor.TallyWork("w1")
	if err != nil {
		t.Fatalf("Should be able to tally the votes: %s", err)
	}

	if tally.TotalStake != 90 {
		t.Fatalf("Should weight by stake, got total %v.", tally.TotalStake)
	}
	if tally.Decision != consensus.DecisionApproved {
		t.Fatalf("Should approve with 66.7%% of stake, got %s.", tally.Decision)
	}
}

func Test_StakeWeightedRejection(t *testing.T) {
	db, auditor := setup(t, map[string]float64{"alice": 60, "bob": 30})

	castVote(t, db, "v1", "alice", database.VoteRejected, 60)

	tally, err := auditor.TallyWork("w1")
	if err != nil {
		t.Fatalf("Should be able to tally the votes: %s", err)
	}

	if tally.Decision != consensus.DecisionRejected {
		t.Fatalf("Should reject when rejection stake clears the threshold, got %s.", tally.Decision)
	}
}

func Test_SplitStaysPending(t *testing.T) {
	db, auditor := setup(t, map[string]float64{"alice": 50, "bob": 50})

	castVote(t, db, "v1", "alice", database.VoteApproved, 50)
	castVote(t, db, "v2", "bob", database.VoteRejected, 50)

	tally, err := auditor.TallyWork("w1")
	if err != nil {
		t.Fatalf("Should be able to tally the votes: %s", err)
	}

	if tally.Decision != consensus.DecisionPending {
		t.Fatalf("Should stay pending on an even split, got %s.", tally.Decision)
	}
}

func Test_MissingStakerSkipped(t *testing.T) {
	db, auditor := setup(t, map[string]float64{"alice": 60})

	castVote(t, db, "v1", "alice", database.VoteApproved, 60)
	castVote(t, db, "v2", "ghost", database.VoteRejected, 500)

	tally, err := auditor.TallyWork("w1")
	if err != nil {
		t.Fatalf("Should be able to tally the votes: %s", err)
	}

	if tally.SkippedVotes != 1 {
		t.Fatalf("Should skip the vote from the unknown staker, got %d skipped.", tally.SkippedVotes)
	}
	if tally.TotalStake != 60 {
		t.Fatalf("Should not count the skipped vote's stake, got %v.", tally.TotalStake)
	}
	if tally.Decision != consensus.DecisionApproved {
		t.Fatalf("Should approve on the remaining stake, got %s.", tally.Decision)
	}
}

func Test_ReputationAppliedOnce(t *testing.T) {
	db, auditor := setup(t, map[string]float64{"alice": 60, "bob": 30})

	castVote(t, db, "v1", "alice", database.VoteApproved, 60)
	castVote(t, db, "v2", "bob", database.VoteRejected, 30)

	if _, err := auditor.ResolveWork("w1"); err != nil {
		t.Fatalf("Should be able to resolve the work: %s", err)
	}
	if _, err := auditor.ResolveWork("w1"); err != nil {
		t.Fatalf("Should be able to resolve the work again: %s", err)
	}

	alice, _ := db.GetStaker("alice")
	if alice.TotalValidations != 1 {
		t.Fatalf("Should apply reputation exactly once, got %d validations.", alice.TotalValidations)
	}
	if alice.CorrectValidations != 1 || alice.ValidationReputation != 100 {
		t.Fatalf("Should credit alice for matching the outcome, got %v.", alice.ValidationReputation)
	}

	bob, _ := db.GetStaker("bob")
	if bob.CorrectValidations != 0 || bob.ValidationReputation != 0 {
		t.Fatalf("Should not credit bob for voting against the outcome.")
	}

	var decisions int
	for _, record := range db.AuditRecordsForWork("w1") {
		if record.RecordType == database.RecordDecision {
			decisions++
		}
	}
	if decisions != 1 {
		t.Fatalf("Should write exactly one decision record, got %d.", decisions)
	}
}

func Test_BackfillIdempotent(t *testing.T) {
	db, auditor := setup(t, map[string]float64{"alice": 60, "bob": 30})

	castVote(t, db, "v1", "alice", database.VoteApproved, 60)
	castVote(t, db, "v2", "bob", database.VoteApproved, 30)
	castVote(t, db, "v3", "ghost", database.VoteApproved, 10)

	summary, err := auditor.BackfillMissingRecords()
	if err != nil {
		t.Fatalf("Should be able to backfill: %s", err)
	}

	if summary.Scanned != 3 || summary.Created != 2 || summary.Skipped != 1 {
		t.Fatalf("Should create records for resolvable votes only, got scanned[%d] created[%d] skipped[%d].",
			summary.Scanned, summary.Created, summary.Skipped)
	}

	summary, err = auditor.BackfillMissingRecords()
	if err != nil {
		t.Fatalf("Should be able to run a second pass: %s", err)
	}

	if summary.Created != 0 {
		t.Fatalf("Should create zero records on the second pass, got %d.", summary.Created)
	}

	if err := auditor.VerifyChain("w1"); err != nil {
		t.Fatalf("Should produce a linked audit chain: %s", err)
	}
}

func Test_VoteChangeRecordedSeparately(t *testing.T) {
	db, auditor := setup(t, map[string]float64{"alice": 60})

	base := time.Now().UTC()
	votes := []database.ValidationVote{
		{ID: "v1", WorkID: "w1", StakerID: "alice", Status: database.VoteRejected, StakeAmount: 60, Timestamp: base},
		{ID: "v2", WorkID: "w1", StakerID: "alice", Status: database.VoteApproved, StakeAmount: 60, Timestamp: base.Add(time.Second)},
	}
	for _, vote := range votes {
		if err := db.AppendVote(vote); err != nil {
			t.Fatalf("Should be able to append vote %s: %s", vote.ID, err)
		}
	}

	summary, err := auditor.BackfillMissingRecords()
	if err != nil {
		t.Fatalf("Should be able to backfill: %s", err)
	}

	// Both votes keep their own record even though only the newer one is
	// active for tallying.
	if summary.Created != 2 {
		t.Fatalf("Should record every vote in the audit ledger, got %d.", summary.Created)
	}

	tally, err := auditor.TallyWork("w1")
	if err != nil {
		t.Fatalf("Should be able to tally: %s", err)
	}
	if tally.Decision != consensus.DecisionApproved {
		t.Fatalf("Should tally only the superseding vote, got %s.", tally.Decision)
	}
}
