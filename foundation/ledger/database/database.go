// Package database provides the storage collaborator for the work ledger:
// in-memory entity access for work items, stakers, votes and the immutable
// audit ledger, plus persistent block storage behind a Serializer.
package database

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mathledger/mathledger/foundation/ledger/work"
)

// Set of errors the storage collaborator returns.
var (
	ErrNotFound       = errors.New("not found")
	ErrIndexCollision = errors.New("block index already exists")
	ErrImmutable      = errors.New("audit records cannot be modified")
)

// Serializer represents the behavior required to be implemented by any
// package providing support for persisting and reading blocks.
type Serializer interface {
	Write(block Block) error
	GetBlock(index uint64) (Block, error)
	Recent(limit int) ([]Block, error)
	Close() error
}

// Store is the in-process storage collaborator. All methods are safe for
// concurrent use.
type Store struct {
	mu sync.RWMutex

	workItems map[string]work.Item
	verdicts  map[string]Verdict
	stakers   map[string]Staker

	votes       []ValidationVote
	votesByWork map[string][]int

	auditRecords []AuditRecord
	auditByHash  map[string]int
	auditByVote  map[string]int
	chainTip     map[string]string // last record hash per work chain

	latestBlock Block
	serializer  Serializer
}

// New constructs a store over the specified block serializer. Existing
// blocks are read back so the latest index is known.
func New(serializer Serializer) (*Store, error) {
	db := Store{
		workItems:   make(map[string]work.Item),
		verdicts:    make(map[string]Verdict),
		stakers:     make(map[string]Staker),
		votesByWork: make(map[string][]int),
		auditByHash: make(map[string]int),
		auditByVote: make(map[string]int),
		chainTip:    make(map[string]string),
		serializer:  serializer,
	}

	blocks, err := serializer.Recent(1)
	if err != nil {
		return nil, fmt.Errorf("reading latest block: %w", err)
	}
	if len(blocks) > 0 {
		db.latestBlock = blocks[0]
	}

	return &db, nil
}

// Close closes the underlying block storage.
func (db *Store) Close() error {
	return db.serializer.Close()
}

// =============================================================================
// Work items

// CreateWorkItem stores a work item. Items are immutable: storing the same
// id twice is rejected.
func (db *Store) CreateWorkItem(item work.Item) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.workItems[item.ID]; exists {
		return fmt.Errorf("work item %s: already stored", item.ID)
	}
	db.workItems[item.ID] = item

	return nil
}

// GetWorkItem returns the work item with the specified id.
func (db *Store) GetWorkItem(id string) (work.Item, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	item, exists := db.workItems[id]
	if !exists {
		return work.Item{}, fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}

	return item, nil
}

// WorkItems returns a copy of all stored work items.
func (db *Store) WorkItems() []work.Item {
	db.mu.RLock()
	defer db.mu.RUnlock()

	items := make([]work.Item, 0, len(db.workItems))
	for _, item := range db.workItems {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Timestamp.Before(items[j].Timestamp) })

	return items
}

// SetVerdict records the validation verdict for a work item.
func (db *Store) SetVerdict(v Verdict) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.verdicts[v.WorkID] = v
}

// GetVerdict returns the verdict for a work item.
func (db *Store) GetVerdict(workID string) (Verdict, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	v, exists := db.verdicts[workID]
	if !exists {
		return Verdict{}, fmt.Errorf("verdict for work %s: %w", workID, ErrNotFound)
	}

	return v, nil
}

// =============================================================================
// Stakers

// UpsertStaker adds or replaces a staker.
func (db *Store) UpsertStaker(staker Staker) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.stakers[staker.ID] = staker
}

// GetStaker returns the staker with the specified id.
func (db *Store) GetStaker(id string) (Staker, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	staker, exists := db.stakers[id]
	if !exists {
		return Staker{}, fmt.Errorf("staker %s: %w", id, ErrNotFound)
	}

	return staker, nil
}

// ActiveStakers returns every staker with a positive stake.
func (db *Store) ActiveStakers() []Staker {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stakers := make([]Staker, 0, len(db.stakers))
	for _, staker := range db.stakers {
		if staker.StakeAmount > 0 {
			stakers = append(stakers, staker)
		}
	}
	sort.Slice(stakers, func(i, j int) bool { return stakers[i].ID < stakers[j].ID })

	return stakers
}

// =============================================================================
// Validation votes

// AppendVote adds a validation vote. Votes are append-only; a changed vote
// is a new record that supersedes the older one by timestamp.
func (db *Store) AppendVote(vote ValidationVote) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if vote.ID == "" {
		return errors.New("vote requires an id")
	}

	db.votes = append(db.votes, vote)
	db.votesByWork[vote.WorkID] = append(db.votesByWork[vote.WorkID], len(db.votes)-1)

	return nil
}

// ValidationVotesForWork returns the active vote per staker for the
// specified work item: the latest vote by timestamp wins.
func (db *Store) ValidationVotesForWork(workID string) []ValidationVote {
	db.mu.RLock()
	defer db.mu.RUnlock()

	latest := make(map[string]ValidationVote)
	for _, idx := range db.votesByWork[workID] {
		vote := db.votes[idx]
		if prev, exists := latest[vote.StakerID]; !exists || vote.Timestamp.After(prev.Timestamp) {
			latest[vote.StakerID] = vote
		}
	}

	votes := make([]ValidationVote, 0, len(latest))
	for _, vote := range latest {
		votes = append(votes, vote)
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].StakerID < votes[j].StakerID })

	return votes
}

// AllVotes returns a copy of every vote ever cast.
func (db *Store) AllVotes() []ValidationVote {
	db.mu.RLock()
	defer db.mu.RUnlock()

	votes := make([]ValidationVote, len(db.votes))
	copy(votes, db.votes)

	return votes
}

// =============================================================================
// Audit ledger

// AppendAuditRecord appends a record to the immutable audit ledger. A
// record whose activity hash already exists is rejected, which is what
// keeps backfill idempotent.
func (db *Store) AppendAuditRecord(record AuditRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if record.ActivityHash == "" {
		return errors.New("audit record requires an activity hash")
	}
	if _, exists := db.auditByHash[record.ActivityHash]; exists {
		return fmt.Errorf("audit record %s: %w", record.ActivityHash, ErrImmutable)
	}

	db.auditRecords = append(db.auditRecords, record)
	db.auditByHash[record.ActivityHash] = len(db.auditRecords) - 1
	if record.VoteID != "" {
		db.auditByVote[record.VoteID] = len(db.auditRecords) - 1
	}
	if record.WorkID != "" {
		db.chainTip[record.WorkID] = record.ActivityHash
	}

	return nil
}

// HasAuditRecordForVote reports whether the vote already has a record.
func (db *Store) HasAuditRecordForVote(voteID string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, exists := db.auditByVote[voteID]
	return exists
}

// ChainTip returns the activity hash of the last record in the chain for
// the specified work item, or empty when the chain has no records yet.
func (db *Store) ChainTip(workID string) string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.chainTip[workID]
}

// RecentAuditRecords returns up to limit records, newest first.
func (db *Store) RecentAuditRecords(limit int) []AuditRecord {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 || limit > len(db.auditRecords) {
		limit = len(db.auditRecords)
	}

	records := make([]AuditRecord, 0, limit)
	for i := len(db.auditRecords) - 1; i >= len(db.auditRecords)-limit; i-- {
		records = append(records, db.auditRecords[i])
	}

	return records
}

// AuditRecordsForWork returns the record chain for a work item in append
// order.
func (db *Store) AuditRecordsForWork(workID string) []AuditRecord {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var records []AuditRecord
	for _, record := range db.auditRecords {
		if record.WorkID == workID {
			records = append(records, record)
		}
	}

	return records
}

// =============================================================================
// Blocks

// WriteBlock persists a block. Reusing an existing index is a fatal
// condition and aborts the write.
func (db *Store) WriteBlock(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.latestBlock.BlockHash != "" && block.Index <= db.latestBlock.Index {
		return fmt.Errorf("index %d: %w", block.Index, ErrIndexCollision)
	}

	if err := db.serializer.Write(block); err != nil {
		return fmt.Errorf("persisting block %d: %w", block.Index, err)
	}

	db.latestBlock = block

	return nil
}

// LatestBlock returns the most recently written block.
func (db *Store) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// GetBlock returns the block at the specified index.
func (db *Store) GetBlock(index uint64) (Block, error) {
	return db.serializer.GetBlock(index)
}

// RecentBlocks returns up to limit blocks, newest first.
func (db *Store) RecentBlocks(limit int) ([]Block, error) {
	return db.serializer.Recent(limit)
}
