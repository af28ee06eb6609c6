package ledger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/credentia/degreechain/internal/ledger"
	"go.uber.org/zap"
)

func TestFileStore_roundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain.json")
	store := ledger.NewFileStore(path, zap.NewNop())

	c, err := ledger.New(ctx, store, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Submit(testRecord(t, "Alice"))
	if _, err := c.Seal(ctx); err != nil {
		t.Fatal(err)
	}

	blocks, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks on disk, got %d", len(blocks))
	}
	for i, b := range c.Blocks() {
		if blocks[i].Hash != b.Hash {
			t.Errorf("block %d hash differs on disk", i+1)
		}
	}
}

func TestFileStore_missingFileYieldsEmptyChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain.json")
	store := ledger.NewFileStore(path, zap.NewNop())

	blocks, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if blocks != nil {
		t.Errorf("expected empty chain for missing file, got %d blocks", len(blocks))
	}
}

func TestFileStore_corruptFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := ledger.NewFileStore(path, zap.NewNop())

	blocks, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("corrupt file must fail open, got error: %v", err)
	}
	if blocks != nil {
		t.Errorf("expected empty chain for corrupt file, got %d blocks", len(blocks))
	}

	// Booting a Chain over the corrupt file re-creates genesis.
	c, err := ledger.New(ctx, store, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Errorf("expected fresh genesis chain, got %d blocks", c.Len())
	}
}

func TestFileStore_persistIsHumanDiffableJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain.json")
	store := ledger.NewFileStore(path, zap.NewNop())

	if _, err := ledger.New(ctx, store, zap.NewNop()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "\n") || !strings.Contains(text, "\"previous_hash\"") {
		t.Errorf("ledger file should be indented JSON, got: %.80s", text)
	}
}

func TestFileStore_persistLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := ledger.NewFileStore(filepath.Join(dir, "blockchain.json"), zap.NewNop())

	if _, err := ledger.New(ctx, store, zap.NewNop()); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "blockchain.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("expected only blockchain.json, got %v", names)
	}
}
