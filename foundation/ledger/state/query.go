package state

import (
	"github.com/mathledger/mathledger/foundation/ledger/consensus"
	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/discovery"
	"github.com/mathledger/mathledger/foundation/ledger/valuation"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// QueryWorkItem returns the work item with its verdict.
func (s *State) QueryWorkItem(id string) (work.Item, database.Verdict, error) {
	item, err := s.storage.GetWorkItem(id)
	if err != nil {
		return work.Item{}, database.Verdict{}, err
	}

	verdict, err := s.storage.GetVerdict(id)
	if err != nil {
		verdict = database.Verdict{WorkID: id}
	}

	return item, verdict, nil
}

// QueryWorkItems returns all stored work items in submission order.
func (s *State) QueryWorkItems() []work.Item {
	return s.storage.WorkItems()
}

// QueryTally returns the current consensus tally for a work item.
func (s *State) QueryTally(workID string) (consensus.Tally, error) {
	return s.auditor.TallyWork(workID)
}

// QueryStakers returns the active staker set.
func (s *State) QueryStakers() []database.Staker {
	return s.storage.ActiveStakers()
}

// QueryRecentBlocks returns up to limit blocks, newest first.
func (s *State) QueryRecentBlocks(limit int) ([]database.Block, error) {
	return s.storage.RecentBlocks(limit)
}

// QueryLatestBlock returns the most recently sealed block.
func (s *State) QueryLatestBlock() database.Block {
	return s.storage.LatestBlock()
}

// QueryRecentAuditRecords returns up to limit audit records, newest first.
func (s *State) QueryRecentAuditRecords(limit int) []database.AuditRecord {
	return s.storage.RecentAuditRecords(limit)
}

// QuerySecurityReport computes the composite security report for a work item.
func (s *State) QuerySecurityReport(workID string) (discovery.Report, error) {
	return s.discovery.Score(workID)
}

// QueryFraudReport runs fraud detection on a work item.
func (s *State) QueryFraudReport(workID string) (discovery.FraudReport, error) {
	return s.discovery.DetectFraud(workID)
}

// QueryAggregateValue aggregates the scientific value of all stored work
// with diminishing returns applied.
func (s *State) QueryAggregateValue() valuation.Aggregate {
	items := s.storage.WorkItems()

	values := make([]float64, 0, len(items))
	for _, item := range items {
		values = append(values, item.ScientificValue)
	}

	return s.valuer.AggregateValues(values)
}
