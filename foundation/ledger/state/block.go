package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/signature"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// ErrNoAcceptedWork is returned when a block is requested to be created and
// no accepted work is waiting.
var ErrNoAcceptedWork = errors.New("no accepted work waiting for a block")

// AssembleBlock seals the accepted work queue into the next block. The
// whole operation runs under the state mutex: the snapshot of accepted
// work, the index assignment and the write are one exclusive section, which
// guarantees monotonic, non-overlapping block indices.
func (s *State) AssembleBlock(ctx context.Context) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return database.Block{}, ErrNoAcceptedWork
	}

	count := len(s.pending)
	if max := int(s.genesis.WorksPerBlock); max > 0 && count > max {
		count = max
	}

	items := make([]work.Item, 0, count)
	for _, id := range s.pending[:count] {
		item, err := s.storage.GetWorkItem(id)
		if err != nil {
			return database.Block{}, fmt.Errorf("accepted work disappeared: %w", err)
		}
		items = append(items, item)
	}

	latest := s.storage.LatestBlock()
	index := uint64(1)
	previousHash := signature.ZeroHash
	if latest.BlockHash != "" {
		index = latest.Index + 1
		previousHash = latest.BlockHash
	}

	s.evHandler("state: AssembleBlock: SEALING: blk[%d] works[%d]", index, len(items))

	nonce := database.FindNonce(ctx, index, previousHash, items, s.genesis.Difficulty)
	if nonce == database.NonceCeiling {
		s.evHandler("state: AssembleBlock: SEALING: blk[%d] nonce search exhausted, sealing unsolved", index)
	}

	block := database.BuildBlock(index, previousHash, items, s.genesis.Difficulty, nonce, s.minerID)

	if err := database.VerifyBlock(block, items); err != nil {
		return database.Block{}, fmt.Errorf("block failed self verification: %w", err)
	}

	if err := s.storage.WriteBlock(block); err != nil {
		return database.Block{}, err
	}

	s.pending = s.pending[count:]

	s.sealAuditRecord(block)

	s.evHandler("state: AssembleBlock: SEALED: blk[%d] hash[%s] value[%.2f]", block.Index, block.BlockHash, block.TotalScientificValue)

	return block, nil
}

// AcceptedCount returns how many approved work items are waiting for the
// next block.
func (s *State) AcceptedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending)
}

// AssemblyReady reports whether enough accepted work is waiting to fill
// another block.
func (s *State) AssemblyReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending) >= int(s.genesis.WorksPerBlock) && s.genesis.WorksPerBlock > 0
}

// sealAuditRecord appends one ledger entry per sealed work item linking it
// to the block.
func (s *State) sealAuditRecord(block database.Block) {
	for _, workID := range block.WorkRefs {
		record := database.AuditRecord{
			RecordType:         database.RecordBlockSeal,
			ActivityHash:       signature.HashString(block.BlockHash + workID),
			WorkID:             workID,
			BlockID:            block.BlockHash,
			PreviousRecordHash: s.storage.ChainTip(workID),
			MerkleRoot:         block.MerkleRoot,
			Signature:          signature.HashString(block.BlockHash + s.minerID),
			IsVerified:         true,
			ImmutableSince:     time.Now().UTC(),
		}

		if err := s.storage.AppendAuditRecord(record); err != nil {
			s.evHandler("state: sealAuditRecord: ERROR: work[%s]: %s", workID, err)
		}
	}
}
