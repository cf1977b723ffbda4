package database

import "time"

// VoteStatus is the state of a validation vote.
type VoteStatus string

// Set of vote states.
const (
	VotePending  VoteStatus = "pending"
	VoteApproved VoteStatus = "approved"
	VoteRejected VoteStatus = "rejected"
)

// Staker represents an account allowed to vote on work acceptance. The
// reputation fields are mutated by consensus outcomes only.
type Staker struct {
	ID                   string  `json:"id"`
	StakeAmount          float64 `json:"stake_amount"`
	ValidationReputation float64 `json:"validation_reputation"`
	TotalValidations     int     `json:"total_validations"`
	CorrectValidations   int     `json:"correct_validations"`
}

// ValidationVote is one staker's verdict on one work item. Votes are append
// only: a changed vote is a new record superseding the old one by timestamp.
type ValidationVote struct {
	ID          string     `json:"id"`
	WorkID      string     `json:"work_id"`
	StakerID    string     `json:"staker_id"`
	Status      VoteStatus `json:"status"`
	StakeAmount float64    `json:"stake_amount"`
	Timestamp   time.Time  `json:"timestamp"`
}

// RecordType identifies what an audit record captures.
type RecordType string

// Set of audit record types.
const (
	RecordVote      RecordType = "validation_vote"
	RecordDecision  RecordType = "consensus_decision"
	RecordBlockSeal RecordType = "block_seal"
)

// AuditRecord is one entry of the immutable audit ledger. Records are never
// mutated or deleted; PreviousRecordHash links each record to the prior one
// in its per-work chain.
type AuditRecord struct {
	RecordType         RecordType `json:"record_type"`
	ActivityHash       string     `json:"activity_hash"`
	VoteID             string     `json:"vote_id,omitempty"`
	WorkID             string     `json:"work_id,omitempty"`
	BlockID            string     `json:"block_id,omitempty"`
	PreviousRecordHash string     `json:"previous_record_hash,omitempty"`
	MerkleRoot         string     `json:"merkle_root"`
	Signature          string     `json:"signature"`
	ReputationImpact   float64    `json:"reputation_impact"`
	StakeImpact        float64    `json:"stake_impact"`
	IsVerified         bool       `json:"is_verified"`
	ImmutableSince     time.Time  `json:"immutable_since"`
}

// Verdict is the emitted outcome of validating one work item.
type Verdict struct {
	WorkID    string `json:"work_id"`
	Valid     bool   `json:"valid"`
	Score     int    `json:"score"`
	RiskLevel string `json:"risk_level,omitempty"`
}
