// Package consensus resolves network agreement on work acceptance through
// stake-weighted voting and maintains the immutable audit ledger that makes
// every decision re-checkable after the fact.
package consensus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/merkle"
	"github.com/mathledger/mathledger/foundation/ledger/signature"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// DefaultThreshold is the approval (or rejection) percentage a side must
// clear for consensus.
const DefaultThreshold = 51.0

// Decision is the consensus state of a work item.
type Decision string

// Set of decisions. Pending is non-terminal; the other two are final.
const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// EventHandler defines a function that is called when audit events occur.
type EventHandler func(v string, args ...any)

// Storage is the behavior the auditor needs from the storage collaborator.
type Storage interface {
	GetWorkItem(id string) (work.Item, error)
	GetStaker(id string) (database.Staker, error)
	UpsertStaker(staker database.Staker)
	ValidationVotesForWork(workID string) []database.ValidationVote
	AllVotes() []database.ValidationVote
	AppendAuditRecord(record database.AuditRecord) error
	HasAuditRecordForVote(voteID string) bool
	ChainTip(workID string) string
	AuditRecordsForWork(workID string) []database.AuditRecord
}

// =============================================================================

// Tally is the stake-weighted outcome of the votes on one work item.
type Tally struct {
	WorkID             string   `json:"work_id"`
	TotalStake         float64  `json:"total_stake"`
	ApprovedStake      float64  `json:"approved_stake"`
	RejectedStake      float64  `json:"rejected_stake"`
	ApprovalPercentage float64  `json:"approval_percentage"`
	Decision           Decision `json:"decision"`
	Participants       []string `json:"participants"`
	SkippedVotes       int      `json:"skipped_votes"`
}

// BackfillSummary reports what one backfill pass did.
type BackfillSummary struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// =============================================================================

// Config represents the configuration required to construct an Auditor.
type Config struct {
	Storage   Storage
	Threshold float64
	EvHandler EventHandler
}

// Auditor tallies stake-weighted votes and backfills the audit ledger.
// Construct one per node.
type Auditor struct {
	storage   Storage
	threshold float64
	evHandler EventHandler

	// voteMu serializes concurrent backfills for the same vote so a race
	// can't create duplicate records.
	mu     sync.Mutex
	voteMu map[string]*sync.Mutex
}

// New constructs an Auditor from the configuration.
func New(cfg Config) *Auditor {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Auditor{
		storage:   cfg.Storage,
		threshold: threshold,
		evHandler: ev,
		voteMu:    make(map[string]*sync.Mutex),
	}
}

// TallyWork computes the stake-weighted tally for a work item. Votes whose
// staker is missing are skipped and counted, never fatal.
func (a *Auditor) TallyWork(workID string) (Tally, error) {
	if _, err := a.storage.GetWorkItem(workID); err != nil {
		return Tally{}, fmt.Errorf("tally work: %w", err)
	}

	tally := Tally{
		WorkID:   workID,
		Decision: DecisionPending,
	}

	for _, vote := range a.storage.ValidationVotesForWork(workID) {
		if _, err := a.storage.GetStaker(vote.StakerID); err != nil {
			tally.SkippedVotes++
			a.evHandler("consensus: TallyWork: SKIP: vote[%s] staker[%s] missing", vote.ID, vote.StakerID)
			continue
		}

		tally.TotalStake += vote.StakeAmount
		tally.Participants = append(tally.Participants, vote.StakerID)

		switch vote.Status {
		case database.VoteApproved:
			tally.ApprovedStake += vote.StakeAmount
		case database.VoteRejected:
			tally.RejectedStake += vote.StakeAmount
		}
	}

	if tally.TotalStake == 0 {
		return tally, nil
	}

	tally.ApprovalPercentage = tally.ApprovedStake / tally.TotalStake * 100

	switch {
	case tally.ApprovalPercentage >= a.threshold:
		tally.Decision = DecisionApproved
	case (100 - tally.ApprovalPercentage) >= a.threshold:
		tally.Decision = DecisionRejected
	}

	return tally, nil
}

// ResolveWork tallies a work item and, when consensus is reached, applies
// reputation updates to the participating stakers and writes the decision
// record. Calling it again after resolution is a no-op.
func (a *Auditor) ResolveWork(workID string) (Tally, error) {
	tally, err := a.TallyWork(workID)
	if err != nil {
		return Tally{}, err
	}

	if tally.Decision == DecisionPending {
		return tally, nil
	}

	if a.decisionRecorded(workID) {
		return tally, nil
	}

	a.applyReputation(workID, tally)

	if err := a.RecordConsensusDecision(workID, tally); err != nil {
		return Tally{}, err
	}

	a.evHandler("consensus: ResolveWork: work[%s] decision[%s] approval[%.1f%%]", workID, tally.Decision, tally.ApprovalPercentage)

	return tally, nil
}

// RecordConsensusDecision writes one audit record capturing the decision
// and the participating stakers. It is a no-op when consensus has not been
// reached, and idempotent when it has: the decision's activity hash is
// derived from the outcome, so a duplicate write is rejected by the ledger.
func (a *Auditor) RecordConsensusDecision(workID string, tally Tally) error {
	if tally.Decision == DecisionPending {
		return nil
	}

	activityHash := signature.Hash(struct {
		WorkID       string   `json:"work_id"`
		Decision     Decision `json:"decision"`
		Participants []string `json:"participants"`
	}{workID, tally.Decision, tally.Participants})

	record := database.AuditRecord{
		RecordType:         database.RecordDecision,
		ActivityHash:       activityHash,
		WorkID:             workID,
		PreviousRecordHash: a.storage.ChainTip(workID),
		Signature:          signature.HashString(activityHash + workID),
		IsVerified:         true,
		ImmutableSince:     time.Now().UTC(),
	}
	record.MerkleRoot = a.chainRoot(workID, activityHash)

	if err := a.storage.AppendAuditRecord(record); err != nil {
		if errors.Is(err, database.ErrImmutable) {
			return nil
		}
		return fmt.Errorf("record decision: %w", err)
	}

	return nil
}

// BackfillMissingRecords scans every vote and creates one audit record per
// vote that lacks one. The operation is idempotent: a second pass over the
// same votes creates zero records. Votes referencing missing work items or
// stakers are skipped and counted in the summary.
func (a *Auditor) BackfillMissingRecords() (BackfillSummary, error) {
	var summary BackfillSummary

	for _, vote := range a.storage.AllVotes() {
		summary.Scanned++

		if _, err := a.storage.GetWorkItem(vote.WorkID); err != nil {
			summary.Skipped++
			continue
		}
		if _, err := a.storage.GetStaker(vote.StakerID); err != nil {
			summary.Skipped++
			continue
		}

		created, err := a.backfillVote(vote)
		if err != nil {
			return summary, err
		}
		if created {
			summary.Created++
		}
	}

	a.evHandler("consensus: BackfillMissingRecords: scanned[%d] created[%d] skipped[%d]", summary.Scanned, summary.Created, summary.Skipped)

	return summary, nil
}

// backfillVote creates the audit record for one vote under the per-vote
// lock, re-checking existence after acquiring it.
func (a *Auditor) backfillVote(vote database.ValidationVote) (bool, error) {
	lock := a.lockFor(vote.ID)
	lock.Lock()
	defer lock.Unlock()

	if a.storage.HasAuditRecordForVote(vote.ID) {
		return false, nil
	}

	activityHash := signature.Hash(vote)

	var stakeImpact float64
	if vote.Status == database.VoteRejected {
		stakeImpact = -vote.StakeAmount
	}

	record := database.AuditRecord{
		RecordType:         database.RecordVote,
		ActivityHash:       activityHash,
		VoteID:             vote.ID,
		WorkID:             vote.WorkID,
		PreviousRecordHash: a.storage.ChainTip(vote.WorkID),
		Signature:          signature.HashString(activityHash + vote.StakerID),
		StakeImpact:        stakeImpact,
		IsVerified:         true,
		ImmutableSince:     time.Now().UTC(),
	}
	record.MerkleRoot = a.chainRoot(vote.WorkID, activityHash)

	if err := a.storage.AppendAuditRecord(record); err != nil {
		if errors.Is(err, database.ErrImmutable) {
			return false, nil
		}
		return false, fmt.Errorf("backfill vote %s: %w", vote.ID, err)
	}

	return true, nil
}

// VerifyChain walks the audit record chain for a work item and reports
// whether every record links to its predecessor.
func (a *Auditor) VerifyChain(workID string) error {
	var prev string
	for i, record := range a.storage.AuditRecordsForWork(workID) {
		if record.PreviousRecordHash != prev {
			return fmt.Errorf("record %d: previous hash mismatch, got %s, exp %s", i, record.PreviousRecordHash, prev)
		}
		prev = record.ActivityHash
	}

	return nil
}

// =============================================================================

// applyReputation updates the counters of every participating staker once a
// decision is final. A staker whose vote matched the outcome gains a
// correct validation.
func (a *Auditor) applyReputation(workID string, tally Tally) {
	winning := database.VoteApproved
	if tally.Decision == DecisionRejected {
		winning = database.VoteRejected
	}

	for _, vote := range a.storage.ValidationVotesForWork(workID) {
		staker, err := a.storage.GetStaker(vote.StakerID)
		if err != nil {
			continue
		}

		staker.TotalValidations++
		if vote.Status == winning {
			staker.CorrectValidations++
		}
		staker.ValidationReputation = float64(staker.CorrectValidations) / float64(staker.TotalValidations) * 100

		a.storage.UpsertStaker(staker)
	}
}

// decisionRecorded reports whether a decision record already exists for the
// work item.
func (a *Auditor) decisionRecorded(workID string) bool {
	for _, record := range a.storage.AuditRecordsForWork(workID) {
		if record.RecordType == database.RecordDecision {
			return true
		}
	}

	return false
}

// chainRoot computes the merkle root over the work item's audit chain with
// the new activity hash appended.
func (a *Auditor) chainRoot(workID string, activityHash string) string {
	records := a.storage.AuditRecordsForWork(workID)

	leaves := make([]string, 0, len(records)+1)
	for _, record := range records {
		leaves = append(leaves, record.ActivityHash)
	}
	leaves = append(leaves, activityHash)

	return merkle.Root(leaves)
}

// lockFor returns the mutex dedicated to a vote id.
func (a *Auditor) lockFor(voteID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, exists := a.voteMu[voteID]
	if !exists {
		lock = &sync.Mutex{}
		a.voteMu[voteID] = lock
	}

	return lock
}
