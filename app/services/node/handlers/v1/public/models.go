package public

import (
	"fmt"
	"time"

	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/signature"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// submitWorkRequest is the JSON document a worker posts to submit a signed
// work claim. V, R, S carry the signature parts as hex strings.
type submitWorkRequest struct {
	Type         string            `json:"type" validate:"required"`
	Difficulty   int               `json:"difficulty" validate:"required,gte=1"`
	Result       work.Envelope     `json:"result"`
	Verification work.Verification `json:"verification"`
	Cost         int               `json:"computational_cost" validate:"gte=0"`
	Efficiency   float64           `json:"energy_efficiency" validate:"gte=0"`
	Signature    string            `json:"signature" validate:"required"`
}

// toSignedWork converts the request into the core signed work value.
func (req submitWorkRequest) toSignedWork() (work.SignedWork, error) {
	v, r, s, err := signature.ToVRSFromHexSignature(req.Signature)
	if err != nil {
		return work.SignedWork{}, fmt.Errorf("invalid signature: %w", err)
	}

	sw := work.SignedWork{
		UserWork: work.UserWork{
			Type:         work.Type(req.Type),
			Difficulty:   req.Difficulty,
			Result:       req.Result,
			Verification: req.Verification,
			Cost:         req.Cost,
			Efficiency:   req.Efficiency,
		},
		V: v,
		R: r,
		S: s,
	}

	return sw, nil
}

// submitVoteRequest is the JSON document a staker posts to vote on a work
// item.
type submitVoteRequest struct {
	WorkID   string `json:"work_id" validate:"required"`
	StakerID string `json:"staker_id" validate:"required"`
	Status   string `json:"status" validate:"required,oneof=approved rejected"`
}

// workResponse is the API representation of a work item and its verdict.
type workResponse struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Difficulty      int       `json:"difficulty"`
	WorkerID        string    `json:"worker_id"`
	Mode            string    `json:"computation_mode"`
	Tractable       bool      `json:"tractable"`
	ScientificValue float64   `json:"scientific_value"`
	Valid           bool      `json:"valid"`
	Score           int       `json:"score"`
	RiskLevel       string    `json:"risk_level,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

func toWorkResponse(item work.Item, verdict database.Verdict) workResponse {
	return workResponse{
		ID:              item.ID,
		Type:            string(item.Type),
		Difficulty:      item.Difficulty,
		WorkerID:        item.WorkerID,
		Mode:            string(item.Result.Mode),
		Tractable:       item.Result.Tractable,
		ScientificValue: item.ScientificValue,
		Valid:           verdict.Valid,
		Score:           verdict.Score,
		RiskLevel:       verdict.RiskLevel,
		Timestamp:       item.Timestamp,
	}
}
