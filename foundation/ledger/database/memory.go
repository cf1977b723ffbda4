package database

import (
	"fmt"
	"sort"
	"sync"
)

// MemorySerializer keeps blocks in memory. It exists for tests and for
// running a node without persistence.
type MemorySerializer struct {
	mu     sync.RWMutex
	blocks map[uint64]Block
}

// NewMemory constructs an empty in-memory block store.
func NewMemory() *MemorySerializer {
	return &MemorySerializer{
		blocks: make(map[uint64]Block),
	}
}

// Close implements the Serializer interface; there is nothing to release.
func (m *MemorySerializer) Close() error {
	return nil
}

// Write stores one block.
func (m *MemorySerializer) Write(block Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.blocks[block.Index]; exists {
		return fmt.Errorf("index %d: %w", block.Index, ErrIndexCollision)
	}
	m.blocks[block.Index] = block

	return nil
}

// GetBlock reads the block at the specified index.
func (m *MemorySerializer) GetBlock(index uint64) (Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	block, exists := m.blocks[index]
	if !exists {
		return Block{}, fmt.Errorf("block %d: %w", index, ErrNotFound)
	}

	return block, nil
}

// Recent returns up to limit blocks, newest first.
func (m *MemorySerializer) Recent(limit int) ([]Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blocks := make([]Block, 0, len(m.blocks))
	for _, block := range m.blocks {
		blocks = append(blocks, block)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Index > blocks[j].Index })

	if limit > 0 && limit < len(blocks) {
		blocks = blocks[:limit]
	}

	return blocks, nil
}
