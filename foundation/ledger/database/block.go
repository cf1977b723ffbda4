package database

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mathledger/mathledger/foundation/ledger/merkle"
	"github.com/mathledger/mathledger/foundation/ledger/signature"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// NonceCeiling bounds the brute-force nonce search. When no qualifying
// nonce exists within the bound, the ceiling itself is returned and the
// caller decides whether to accept the block at lower difficulty.
const NonceCeiling = 1_000_000

// valueEpsilon bounds the allowed drift when recomputing a block's total
// scientific value from its work items.
const valueEpsilon = 0.01

// Block represents a group of accepted work items sealed together. All hash
// fields are pure functions of the referenced work items and the header
// fields; recomputing them must reproduce the stored values exactly.
type Block struct {
	Index                uint64   `json:"index"`
	PreviousHash         string   `json:"previous_hash"`
	MerkleRoot           string   `json:"merkle_root"`
	Difficulty           int      `json:"difficulty"`
	Nonce                uint64   `json:"nonce"`
	BlockHash            string   `json:"block_hash"`
	MinerID              string   `json:"miner_id"`
	TotalScientificValue float64  `json:"total_scientific_value"`
	WorkRefs             []string `json:"work_refs"`
}

// WorkLeafHash is the per-item leaf hash used for the block merkle root.
func WorkLeafHash(item work.Item) string {
	return signature.HashString(string(item.Type) + item.Signature + formatValue(item.ScientificValue))
}

// BuildBlock constructs a block over an ordered set of work items with the
// specified nonce. The order of items determines the merkle root; it must
// match the order the items were accepted.
func BuildBlock(index uint64, previousHash string, items []work.Item, difficulty int, nonce uint64, minerID string) Block {
	leaves := make([]string, len(items))
	refs := make([]string, len(items))
	var sigs strings.Builder
	var totalValue float64

	for i, item := range items {
		leaves[i] = WorkLeafHash(item)
		refs[i] = item.ID
		sigs.WriteString(item.Signature)
		totalValue += item.ScientificValue
	}

	root := merkle.Root(leaves)

	b := Block{
		Index:                index,
		PreviousHash:         previousHash,
		MerkleRoot:           root,
		Difficulty:           difficulty,
		Nonce:                nonce,
		MinerID:              minerID,
		TotalScientificValue: totalValue,
		WorkRefs:             refs,
	}
	b.BlockHash = blockHash(index, previousHash, root, nonce, sigs.String(), totalValue)

	return b
}

// FindNonce searches for the first nonce whose block hash carries the
// required number of leading zero characters. The search is bounded: if no
// nonce qualifies within NonceCeiling attempts, the ceiling is returned.
// The context cancels the search early with the same degraded result.
func FindNonce(ctx context.Context, index uint64, previousHash string, items []work.Item, difficulty int) uint64 {
	var sigs strings.Builder
	leaves := make([]string, len(items))
	var totalValue float64
	for i, item := range items {
		leaves[i] = WorkLeafHash(item)
		sigs.WriteString(item.Signature)
		totalValue += item.ScientificValue
	}
	root := merkle.Root(leaves)
	concatenated := sigs.String()

	target := TargetZeros(difficulty)

	for nonce := uint64(0); nonce < NonceCeiling; nonce++ {
		if nonce%4096 == 0 && ctx.Err() != nil {
			return NonceCeiling
		}

		hash := blockHash(index, previousHash, root, nonce, concatenated, totalValue)
		if isHashSolved(target, hash) {
			return nonce
		}
	}

	return NonceCeiling
}

// VerifyBlock recomputes the merkle root, block hash and total scientific
// value from the work items and compares them to the stored values. All
// three must match for the block to be accepted.
func VerifyBlock(b Block, items []work.Item) error {
	rebuilt := BuildBlock(b.Index, b.PreviousHash, items, b.Difficulty, b.Nonce, b.MinerID)

	if rebuilt.MerkleRoot != b.MerkleRoot {
		return fmt.Errorf("merkle root mismatch, got %s, exp %s", rebuilt.MerkleRoot, b.MerkleRoot)
	}
	if rebuilt.BlockHash != b.BlockHash {
		return fmt.Errorf("block hash mismatch, got %s, exp %s", rebuilt.BlockHash, b.BlockHash)
	}
	if math.Abs(rebuilt.TotalScientificValue-b.TotalScientificValue) > valueEpsilon {
		return fmt.Errorf("total scientific value mismatch, got %v, exp %v", rebuilt.TotalScientificValue, b.TotalScientificValue)
	}

	return nil
}

// TargetZeros converts block difficulty into the required count of leading
// zero hash characters.
func TargetZeros(difficulty int) int {
	if difficulty < 0 {
		return 0
	}

	return difficulty / 4
}

// =============================================================================

// blockHash hashes the header fields together with the concatenated work
// signatures, left-padded to the full hash length.
func blockHash(index uint64, previousHash string, merkleRoot string, nonce uint64, signatures string, totalValue float64) string {
	input := strconv.FormatUint(index, 10) +
		previousHash +
		merkleRoot +
		strconv.FormatUint(nonce, 10) +
		signatures +
		formatValue(totalValue)

	return signature.PadHash(signature.HashString(input))
}

// isHashSolved checks the hash complies with the difficulty target.
func isHashSolved(targetZeros int, hash string) bool {
	if targetZeros > len(hash) {
		return false
	}

	for _, c := range hash[:targetZeros] {
		if c != '0' {
			return false
		}
	}

	return true
}

// formatValue renders a scientific value deterministically for hashing.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
