// Package discovery scores how defensible an accepted work item is by
// combining its validation, consensus and integrity signals into one
// composite security score, and flags likely fraud.
package discovery

import (
	"fmt"
	"math"

	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/valuation"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// RiskLevel buckets a security score.
type RiskLevel string

// Set of risk levels.
const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Component weights of the composite score.
const (
	maxIntegrity = 40.0
	maxConsensus = 30.0
	maxValue     = 20.0
	maxEffort    = 10.0
)

// Storage is the behavior the engine needs from the storage collaborator.
type Storage interface {
	GetWorkItem(id string) (work.Item, error)
	GetVerdict(workID string) (database.Verdict, error)
	ValidationVotesForWork(workID string) []database.ValidationVote
}

// =============================================================================

// Report is the composite security assessment of one work item.
type Report struct {
	WorkID         string    `json:"work_id"`
	SecurityScore  float64   `json:"security_score"`
	RiskLevel      RiskLevel `json:"risk_level"`
	IntegrityScore float64   `json:"integrity_score"`
	ConsensusScore float64   `json:"consensus_score"`
	ValueScore     float64   `json:"value_score"`
	EffortScore    float64   `json:"effort_score"`
}

// FraudReport is the outcome of fraud detection on one work item.
type FraudReport struct {
	WorkID     string   `json:"work_id"`
	Fraudulent bool     `json:"fraudulent"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators"`
}

// =============================================================================

// Engine computes security scores. Construct one per node.
type Engine struct {
	storage Storage
}

// New constructs an Engine over the storage collaborator.
func New(storage Storage) *Engine {
	return &Engine{storage: storage}
}

// Score computes the 0-100 composite security score for a work item.
func (e *Engine) Score(workID string) (Report, error) {
	item, err := e.storage.GetWorkItem(workID)
	if err != nil {
		return Report{}, fmt.Errorf("score work: %w", err)
	}

	verdict, err := e.storage.GetVerdict(workID)
	if err != nil {
		verdict = database.Verdict{WorkID: workID}
	}

	votes := e.storage.ValidationVotesForWork(workID)

	report := Report{
		WorkID:         workID,
		IntegrityScore: integrityScore(item, verdict),
		ConsensusScore: consensusScore(votes),
		ValueScore:     valueScore(item.ScientificValue),
		EffortScore:    effortScore(item.Difficulty),
	}
	report.SecurityScore = report.IntegrityScore + report.ConsensusScore + report.ValueScore + report.EffortScore
	report.RiskLevel = riskLevel(report.SecurityScore)

	return report, nil
}

// DetectFraud flags a work item as fraudulent when at least two independent
// fraud indicators are present. Confidence grows with the indicator count
// and with softer risk factors, capped at 95.
func (e *Engine) DetectFraud(workID string) (FraudReport, error) {
	item, err := e.storage.GetWorkItem(workID)
	if err != nil {
		return FraudReport{}, fmt.Errorf("detect fraud: %w", err)
	}

	verdict, hasVerdict := database.Verdict{}, false
	if v, err := e.storage.GetVerdict(workID); err == nil {
		verdict, hasVerdict = v, true
	}

	votes := e.storage.ValidationVotesForWork(workID)

	report := FraudReport{WorkID: workID}

	if item.ScientificValue < 1 {
		report.Indicators = append(report.Indicators, "near_zero_value")
	}
	if len(votes) == 0 {
		report.Indicators = append(report.Indicators, "zero_votes")
	}
	if hasVerdict && !verdict.Valid {
		report.Indicators = append(report.Indicators, "failed_formula_check")
	}
	if item.Signature == "" {
		report.Indicators = append(report.Indicators, "missing_signature")
	}

	var riskFactors int
	if item.Result.Mode == work.ModeSimulation {
		riskFactors++
	}
	if item.Result.Partial {
		riskFactors++
	}
	if !item.Verification.Recheck(item.Result) {
		riskFactors++
	}

	report.Fraudulent = len(report.Indicators) >= 2
	report.Confidence = math.Min(95, float64(len(report.Indicators))*30+float64(riskFactors)*10)

	return report, nil
}

// =============================================================================

// integrityScore awards one quartile of the integrity weight per signal:
// formula valid, computation verified, signature present, and independently
// re-verified.
func integrityScore(item work.Item, verdict database.Verdict) float64 {
	quartile := maxIntegrity / 4

	var score float64
	if verdict.Valid {
		score += quartile
	}
	if item.Result.Mode == work.ModeReal && !item.Result.Partial {
		score += quartile
	}
	if item.Signature != "" {
		score += quartile
	}
	if item.Verification.Recheck(item.Result) {
		score += quartile
	}

	return score
}

// consensusScore grows with both participation and approval rate.
func consensusScore(votes []database.ValidationVote) float64 {
	if len(votes) == 0 {
		return 0
	}

	var approved int
	for _, vote := range votes {
		if vote.Status == database.VoteApproved {
			approved++
		}
	}
	approvalRate := float64(approved) / float64(len(votes))

	participation := math.Min(float64(len(votes))/5, 1)

	return participation*maxConsensus/2 + approvalRate*maxConsensus/2
}

// valueScore log-scales the scientific value against the valuation ceiling.
func valueScore(value float64) float64 {
	if value <= 0 {
		return 0
	}

	scaled := math.Log10(value+1) / math.Log10(valuation.MaxValue)

	return math.Min(scaled, 1) * maxValue
}

// effortScore reflects whether the claimed difficulty represents a
// plausible amount of computation.
func effortScore(difficulty int) float64 {
	if difficulty <= 0 {
		return 0
	}

	return math.Min(float64(difficulty)/100, 1) * maxEffort
}

// riskLevel buckets a composite score.
func riskLevel(score float64) RiskLevel {
	switch {
	case score >= 85:
		return RiskLow
	case score >= 70:
		return RiskMedium
	case score >= 50:
		return RiskHigh
	}

	return RiskCritical
}
