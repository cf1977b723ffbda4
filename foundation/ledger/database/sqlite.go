package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteSerializer persists blocks to a SQLite database file. The full
// block document is stored as JSON alongside the indexed header columns so
// the hash invariants survive schema drift.
type SQLiteSerializer struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the block database at path.
func NewSQLite(path string) (*SQLiteSerializer, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open block db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping block db: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS blocks (
		block_index INTEGER PRIMARY KEY,
		block_hash  TEXT NOT NULL UNIQUE,
		document    TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteSerializer{db: db}, nil
}

// Close closes the database handle.
func (s *SQLiteSerializer) Close() error {
	return s.db.Close()
}

// Write persists one block. The primary key on the index makes an index
// collision a storage-level failure as well.
func (s *SQLiteSerializer) Write(block Block) error {
	doc, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("encode block %d: %w", block.Index, err)
	}

	const insert = `INSERT INTO blocks (block_index, block_hash, document) VALUES (?, ?, ?)`
	if _, err := s.db.Exec(insert, block.Index, block.BlockHash, string(doc)); err != nil {
		return fmt.Errorf("insert block %d: %w", block.Index, err)
	}

	return nil
}

// GetBlock reads the block at the specified index.
func (s *SQLiteSerializer) GetBlock(index uint64) (Block, error) {
	const query = `SELECT document FROM blocks WHERE block_index = ?`

	var doc string
	if err := s.db.QueryRow(query, index).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Block{}, fmt.Errorf("block %d: %w", index, ErrNotFound)
		}
		return Block{}, fmt.Errorf("query block %d: %w", index, err)
	}

	var block Block
	if err := json.Unmarshal([]byte(doc), &block); err != nil {
		return Block{}, fmt.Errorf("decode block %d: %w", index, err)
	}

	return block, nil
}

// Recent returns up to limit blocks, newest first.
func (s *SQLiteSerializer) Recent(limit int) ([]Block, error) {
	const query = `SELECT document FROM blocks ORDER BY block_index DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent blocks: %w", err)
	}
	defer rows.Close()

	var blocks []Block
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}

		var block Block
		if err := json.Unmarshal([]byte(doc), &block); err != nil {
			return nil, fmt.Errorf("decode block: %w", err)
		}
		blocks = append(blocks, block)
	}

	return blocks, rows.Err()
}
