package database_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/signature"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

func Test_SQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")

	serializer, err := database.NewSQLite(path)
	if err != nil {
		t.Fatalf("Should be able to open the block db: %s", err)
	}
	defer serializer.Close()

	items := []work.Item{testItem("w1", 900)}
	b1 := database.BuildBlock(1, signature.ZeroHash, items, 8, 42, "0xMiner")
	b2 := database.BuildBlock(2, b1.BlockHash, items, 8, 7, "0xMiner")

	if err := serializer.Write(b1); err != nil {
		t.Fatalf("Should be able to write the first block: %s", err)
	}
	if err := serializer.Write(b2); err != nil {
		t.Fatalf("Should be able to write the second block: %s", err)
	}

	got, err := serializer.GetBlock(1)
	if err != nil {
		t.Fatalf("Should be able to read the block back: %s", err)
	}
	if got.BlockHash != b1.BlockHash {
		t.Fatalf("Should read back the same block hash.")
	}
	if err := database.VerifyBlock(got, items); err != nil {
		t.Fatalf("Should verify the persisted block: %s", err)
	}

	recent, err := serializer.Recent(10)
	if err != nil {
		t.Fatalf("Should be able to list recent blocks: %s", err)
	}
	if len(recent) != 2 || recent[0].Index != 2 {
		t.Fatalf("Should list blocks newest first.")
	}

	if _, err := serializer.GetBlock(99); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("Should get ErrNotFound for a missing block, got %v.", err)
	}

	if err := serializer.Write(b1); err == nil {
		t.Fatalf("Should reject writing the same index twice.")
	}
}

func Test_SQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")

	serializer, err := database.NewSQLite(path)
	if err != nil {
		t.Fatalf("Should be able to open the block db: %s", err)
	}

	items := []work.Item{testItem("w1", 900)}
	b1 := database.BuildBlock(1, signature.ZeroHash, items, 8, 42, "0xMiner")
	if err := serializer.Write(b1); err != nil {
		t.Fatalf("Should be able to write a block: %s", err)
	}
	if err := serializer.Close(); err != nil {
		t.Fatalf("Should be able to close the db: %s", err)
	}

	// A store constructed over the reopened file must pick up the latest
	// index so block numbering continues instead of colliding.
	serializer, err = database.NewSQLite(path)
	if err != nil {
		t.Fatalf("Should be able to reopen the block db: %s", err)
	}
	defer serializer.Close()

	db, err := database.New(serializer)
	if err != nil {
		t.Fatalf("Should be able to construct a store over existing blocks: %s", err)
	}

	if latest := db.LatestBlock(); latest.Index != 1 {
		t.Fatalf("Should recover the latest block on startup, got index %d.", latest.Index)
	}
}
