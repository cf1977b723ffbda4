// Package genesis maintains access to the genesis file holding the chain
// parameters.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date               time.Time          `json:"date"`
	ChainID            uint16             `json:"chain_id"`            // Unique id for this running instance.
	WorksPerBlock      uint16             `json:"works_per_block"`     // Number of accepted work items that seal a block.
	Difficulty         int                `json:"difficulty"`          // Block difficulty; leading zeros required = difficulty/4.
	RealThreshold      int                `json:"real_threshold"`      // Max difficulty routed to real computation.
	ConsensusThreshold float64            `json:"consensus_threshold"` // Stake percentage a side must clear.
	ComputeRate        float64            `json:"compute_rate"`        // Dollars per compute hour for valuation.
	EnergyRate         float64            `json:"energy_rate"`         // Dollars per kWh for valuation.
	Stakes             map[string]float64 `json:"stakes"`              // Initial staker accounts and their stakes.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
