package state_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/genesis"
	"github.com/mathledger/mathledger/foundation/ledger/signature"
	"github.com/mathledger/mathledger/foundation/ledger/state"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

const minerECDSA = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"

func newState(t *testing.T) (*state.State, *database.Store) {
	storage, err := database.New(database.NewMemory())
	if err != nil {
		t.Fatalf("Should be able to construct storage: %s", err)
	}

	gen := genesis.Genesis{
		ChainID:            1,
		WorksPerBlock:      1,
		Difficulty:         8,
		RealThreshold:      50,
		ConsensusThreshold: 51,
		Stakes: map[string]float64{
			"alice": 60,
			"bob":   30,
			"carol": 10,
		},
	}

	ev := func(v string, args ...any) {
		t.Logf(v, args...)
	}

	st, err := state.New(state.Config{
		MinerID:   "0xMiner",
		Genesis:   gen,
		Storage:   storage,
		EvHandler: ev,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	return st, storage
}

func produceWork(t *testing.T, st *state.State) work.Item {
	key, err := crypto.HexToECDSA(minerECDSA)
	if err != nil {
		t.Fatalf("Should be able to load the key: %s", err)
	}

	item, err := st.ProduceWork(context.Background(), work.TypeGoldbach, 2, key)
	if err != nil {
		t.Fatalf("Should be able to produce work: %s", err)
	}

	return item
}

// =============================================================================

func Test_ProduceAndSubmitWork(t *testing.T) {
	st, storage := newState(t)

	item := produceWork(t, st)

	if item.Result.Mode != work.ModeReal {
		t.Fatalf("Should compute goldbach at difficulty 2 for real, got %s.", item.Result.Mode)
	}
	if item.ScientificValue <= 0 {
		t.Fatalf("Should assign a positive scientific value, got %v.", item.ScientificValue)
	}
	if item.WorkerID != crypto.PubkeyToAddress(mustKey(t).PublicKey).String() {
		t.Fatalf("Should recover the worker from the signature, got %s.", item.WorkerID)
	}

	verdict, err := storage.GetVerdict(item.ID)
	if err != nil {
		t.Fatalf("Should store a verdict alongside the item: %s", err)
	}
	if !verdict.Valid {
		t.Fatalf("Should validate a real goldbach result.")
	}
}

func Test_InvalidWorkValuedZero(t *testing.T) {
	st, storage := newState(t)

	env := work.Envelope{
		Mode:       work.ModeReal,
		Tractable:  true,
		Confidence: 1.0,
		Payload:    work.Payload{Riemann: &work.RiemannResult{ZeroReal: 0.3, ZeroImag: 14.1}},
	}
	uw := work.UserWork{
		Type:         work.TypeRiemann,
		Difficulty:   10,
		Result:       env,
		Verification: work.NewVerification("claimed", env),
	}

	sw, err := uw.Sign(mustKey(t))
	if err != nil {
		t.Fatalf("Should be able to sign the work: %s", err)
	}

	item, err := st.SubmitWork(sw)
	if err != nil {
		t.Fatalf("Should accept the submission even though it fails validation: %s", err)
	}

	if item.ScientificValue != 0 {
		t.Fatalf("Should value an invalid result at zero, got %v.", item.ScientificValue)
	}

	verdict, err := storage.GetVerdict(item.ID)
	if err != nil {
		t.Fatalf("Should store the verdict: %s", err)
	}
	if verdict.Valid {
		t.Fatalf("Should mark the off-line zero invalid.")
	}
}

func Test_VoteToConsensus(t *testing.T) {
	st, _ := newState(t)

	item := produceWork(t, st)

	if err := st.SubmitVote(item.ID, "alice", database.VoteApproved); err != nil {
		t.Fatalf("Should be able to submit a vote: %s", err)
	}

	if st.AcceptedCount() != 1 {
		t.Fatalf("Should queue the approved work for the next block, got %d.", st.AcceptedCount())
	}
	if !st.AssemblyReady() {
		t.Fatalf("Should report assembly ready with a full block of work.")
	}

	tally, err := st.QueryTally(item.ID)
	if err != nil {
		t.Fatalf("Should be able to query the tally: %s", err)
	}
	if tally.ApprovalPercentage != 100 {
		t.Fatalf("Should report 100%% approval, got %v.", tally.ApprovalPercentage)
	}
}

func Test_UnknownStakerRejected(t *testing.T) {
	st, _ := newState(t)

	item := produceWork(t, st)

	err := st.SubmitVote(item.ID, "mallory", database.VoteApproved)
	if !errors.Is(err, state.ErrUnknownStaker) {
		t.Fatalf("Should reject a vote from an unknown staker, got %v.", err)
	}
}

func Test_AssembleBlock(t *testing.T) {
	st, storage := newState(t)

	item := produceWork(t, st)
	if err := st.SubmitVote(item.ID, "alice", database.VoteApproved); err != nil {
		t.Fatalf("Should be able to submit a vote: %s", err)
	}

	block, err := st.AssembleBlock(context.Background())
	if err != nil {
		t.Fatalf("Should be able to assemble a block: %s", err)
	}

	if block.Index != 1 {
		t.Fatalf("Should seal the first block at index 1, got %d.", block.Index)
	}
	if block.PreviousHash != signature.ZeroHash {
		t.Fatalf("Should link the first block to the zero hash.")
	}
	if len(block.WorkRefs) != 1 || block.WorkRefs[0] != item.ID {
		t.Fatalf("Should reference the sealed work item.")
	}

	items := []work.Item{}
	for _, id := range block.WorkRefs {
		it, err := storage.GetWorkItem(id)
		if err != nil {
			t.Fatalf("Should be able to read the sealed item: %s", err)
		}
		items = append(items, it)
	}
	if err := database.VerifyBlock(block, items); err != nil {
		t.Fatalf("Should verify the sealed block: %s", err)
	}

	if st.AcceptedCount() != 0 {
		t.Fatalf("Should drain the accepted queue, got %d.", st.AcceptedCount())
	}

	var sealRecords int
	for _, record := range storage.AuditRecordsForWork(item.ID) {
		if record.RecordType == database.RecordBlockSeal {
			sealRecords++
		}
	}
	if sealRecords != 1 {
		t.Fatalf("Should write one block seal audit record, got %d.", sealRecords)
	}

	if _, err := st.AssembleBlock(context.Background()); !errors.Is(err, state.ErrNoAcceptedWork) {
		t.Fatalf("Should refuse to seal an empty queue, got %v.", err)
	}
}

func Test_BlockChaining(t *testing.T) {
	st, _ := newState(t)

	item1 := produceWork(t, st)
	if err := st.SubmitVote(item1.ID, "alice", database.VoteApproved); err != nil {
		t.Fatalf("Should be able to submit a vote: %s", err)
	}
	block1, err := st.AssembleBlock(context.Background())
	if err != nil {
		t.Fatalf("Should be able to assemble the first block: %s", err)
	}

	item2 := produceWork(t, st)
	if err := st.SubmitVote(item2.ID, "alice", database.VoteApproved); err != nil {
		t.Fatalf("Should be able to submit a vote: %s", err)
	}
	block2, err := st.AssembleBlock(context.Background())
	if err != nil {
		t.Fatalf("Should be able to assemble the second block: %s", err)
	}

	if block2.Index != block1.Index+1 {
		t.Fatalf("Should increment the block index, got %d after %d.", block2.Index, block1.Index)
	}
	if block2.PreviousHash != block1.BlockHash {
		t.Fatalf("Should link the second block to the first.")
	}
}

func Test_AuditCycle(t *testing.T) {
	st, storage := newState(t)

	item := produceWork(t, st)
	if err := st.SubmitVote(item.ID, "alice", database.VoteApproved); err != nil {
		t.Fatalf("Should be able to submit a vote: %s", err)
	}
	if err := st.SubmitVote(item.ID, "bob", database.VoteApproved); err != nil {
		t.Fatalf("Should be able to submit a vote: %s", err)
	}

	if err := st.RunAuditCycle(); err != nil {
		t.Fatalf("Should be able to run an audit cycle: %s", err)
	}

	records := len(storage.AuditRecordsForWork(item.ID))

	var voteRecords int
	for _, record := range storage.AuditRecordsForWork(item.ID) {
		if record.RecordType == database.RecordVote {
			voteRecords++
		}
	}
	if voteRecords != 2 {
		t.Fatalf("Should backfill one record per vote, got %d.", voteRecords)
	}

	if err := st.RunAuditCycle(); err != nil {
		t.Fatalf("Should be able to run a second audit cycle: %s", err)
	}
	if got := len(storage.AuditRecordsForWork(item.ID)); got != records {
		t.Fatalf("Should create no records on the second cycle, got %d after %d.", got, records)
	}
}

// =============================================================================

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	key, err := crypto.HexToECDSA(minerECDSA)
	if err != nil {
		t.Fatalf("Should be able to load the key: %s", err)
	}
	return key
}
