package state

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mathledger/mathledger/foundation/ledger/consensus"
	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/formula"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// ErrUnknownStaker is returned when a vote is cast by an account that is
// not in the staker set.
var ErrUnknownStaker = errors.New("staker is not registered")

// ProduceWork computes a result for the specified work type on this node,
// signs it with the provided key and runs it through acceptance. The router
// decides whether the computation is real or simulated.
func (s *State) ProduceWork(ctx context.Context, t work.Type, difficulty int, privateKey *ecdsa.PrivateKey) (work.Item, error) {
	s.evHandler("state: ProduceWork: started: type[%s] difficulty[%d]", t, difficulty)

	env := s.router.Compute(ctx, t, difficulty)

	uw := work.UserWork{
		Type:         t,
		Difficulty:   difficulty,
		Result:       env,
		Verification: work.NewVerification("node_recompute", env),
		Cost:         int(env.ComputeSeconds * 1000),
		Efficiency:   env.Confidence,
	}

	sw, err := uw.Sign(privateKey)
	if err != nil {
		return work.Item{}, fmt.Errorf("signing produced work: %w", err)
	}

	return s.SubmitWork(sw)
}

// SubmitWork accepts a signed work claim: the signature is verified, the
// result is formula-checked, the scientific value is computed and the item
// is persisted with its verdict. Failing the formula check does not reject
// the submission; it is stored with an invalid verdict so consensus and
// fraud detection can see it.
func (s *State) SubmitWork(sw work.SignedWork) (work.Item, error) {
	item, err := work.NewItem(sw)
	if err != nil {
		return work.Item{}, fmt.Errorf("invalid work submission: %w", err)
	}

	verdict := formula.Validate(item.Type, item.Result.Payload)

	// Value the work. Simulated and invalid results are discounted before
	// the bounds clamp so they can't mint full value.
	val := s.valuer.ScientificValue(item.Type, item.Difficulty, item.Result.ComputeSeconds, item.Result.EnergyKWh)
	value := val.TotalValue
	if !verdict.Valid {
		value = 0
	}
	if item.Result.Mode == work.ModeSimulation {
		value *= item.Result.Confidence
	}
	if value > 0 {
		value, _ = s.valuer.ValidateBounds(value)
	}
	item.ScientificValue = value

	if err := s.storage.CreateWorkItem(item); err != nil {
		return work.Item{}, err
	}

	s.storage.SetVerdict(database.Verdict{
		WorkID: item.ID,
		Valid:  verdict.Valid,
		Score:  verdict.Score,
	})

	s.evHandler("state: SubmitWork: work[%s] type[%s] valid[%t] score[%d] value[%.0f]",
		item.ID, item.Type, verdict.Valid, verdict.Score, item.ScientificValue)

	return item, nil
}

// SubmitVote records one staker's verdict on a work item and resolves
// consensus if a side has cleared the threshold. The vote's stake amount is
// always taken from the staker record, never from the request.
func (s *State) SubmitVote(workID string, stakerID string, status database.VoteStatus) error {
	if _, err := s.storage.GetWorkItem(workID); err != nil {
		return err
	}

	staker, err := s.storage.GetStaker(stakerID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownStaker, stakerID)
	}

	vote := database.ValidationVote{
		ID:          uuid.NewString(),
		WorkID:      workID,
		StakerID:    stakerID,
		Status:      status,
		StakeAmount: staker.StakeAmount,
		Timestamp:   time.Now().UTC(),
	}

	if err := s.storage.AppendVote(vote); err != nil {
		return err
	}

	tally, err := s.auditor.ResolveWork(workID)
	if err != nil {
		return err
	}

	s.evHandler("state: SubmitVote: work[%s] staker[%s] status[%s] approval[%.1f%%] decision[%s]",
		workID, stakerID, status, tally.ApprovalPercentage, tally.Decision)

	if tally.Decision == consensus.DecisionApproved {
		s.acceptWork(workID)
	}

	return nil
}

// acceptWork queues an approved work item for the next block and signals
// assembly once enough work has accumulated. The composite risk level is
// attached to the verdict here, after consensus signals exist.
func (s *State) acceptWork(workID string) {
	if report, err := s.discovery.Score(workID); err == nil {
		if verdict, err := s.storage.GetVerdict(workID); err == nil {
			verdict.RiskLevel = string(report.RiskLevel)
			s.storage.SetVerdict(verdict)
		}
	}

	s.mu.Lock()
	for _, id := range s.pending {
		if id == workID {
			s.mu.Unlock()
			return
		}
	}
	s.pending = append(s.pending, workID)
	ready := len(s.pending) >= int(s.genesis.WorksPerBlock)
	s.mu.Unlock()

	if ready && s.Worker != nil {
		s.Worker.SignalStartAssembly()
	}
}

// RunAuditCycle performs one backfill pass over the vote ledger.
func (s *State) RunAuditCycle() error {
	summary, err := s.auditor.BackfillMissingRecords()
	if err != nil {
		return err
	}

	s.evHandler("state: RunAuditCycle: created[%d] skipped[%d]", summary.Created, summary.Skipped)

	return nil
}
