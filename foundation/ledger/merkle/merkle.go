// Package merkle provides merkle root aggregation over ordered sets of leaf
// hashes for the work ledger.
package merkle

import (
	"errors"

	"github.com/mathledger/mathledger/foundation/ledger/signature"
)

// Root computes the merkle root for an ordered set of leaf hashes. An empty
// set yields the zero hash sentinel and a single leaf is returned left-padded
// to the full hash length. With an odd number of leaves the last leaf is
// paired with itself. Leaf order matters: the same leaves in a different
// order produce a different root.
func Root(leafHashes []string) string {
	switch len(leafHashes) {
	case 0:
		return signature.ZeroHash
	case 1:
		return signature.PadHash(leafHashes[0])
	}

	level := make([]string, len(leafHashes))
	copy(level, leafHashes)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, signature.HashString(level[i]+level[i+1]))
		}
		level = next
	}

	return signature.PadHash(level[0])
}

// =============================================================================

// ProofStep is one sibling hash on the path from a leaf to the root. Left
// reports whether the sibling is concatenated before the running hash.
type ProofStep struct {
	Hash string
	Left bool
}

// Proof returns the sibling hashes needed to prove the leaf at the specified
// index is part of the root. Verify the proof by folding the steps over the
// leaf hash and comparing against the stored root.
func Proof(leafHashes []string, index int) ([]ProofStep, error) {
	if index < 0 || index >= len(leafHashes) {
		return nil, errors.New("leaf index out of range")
	}
	if len(leafHashes) == 1 {
		return nil, nil
	}

	level := make([]string, len(leafHashes))
	copy(level, leafHashes)

	var steps []ProofStep
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		sibling := index ^ 1
		steps = append(steps, ProofStep{
			Hash: level[sibling],
			Left: sibling < index,
		})

		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, signature.HashString(level[i]+level[i+1]))
		}
		level = next
		index /= 2
	}

	return steps, nil
}

// VerifyProof folds a proof over the leaf hash and reports whether the
// result matches the expected root.
func VerifyProof(leafHash string, steps []ProofStep, root string) bool {
	h := leafHash
	for _, step := range steps {
		if step.Left {
			h = signature.HashString(step.Hash + h)
		} else {
			h = signature.HashString(h + step.Hash)
		}
	}

	return signature.PadHash(h) == root
}
