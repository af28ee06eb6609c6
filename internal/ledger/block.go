package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// GenesisPrevHash is the sentinel PreviousHash carried only by the genesis
// block. It is the anchor of the chain, not a computed digest.
const GenesisPrevHash = "0"

// Block is a sealed, hash-linked batch of degree records.
type Block struct {
	Index        int            `json:"index"` // 1-based
	Timestamp    time.Time      `json:"timestamp"`
	Records      []DegreeRecord `json:"degrees"`
	PreviousHash string         `json:"previous_hash"`
	Hash         string         `json:"hash"`
}

// HashBlock computes the hex SHA-256 digest of a block's canonical
// encoding: JSON with the Hash field blanked and every object key sorted.
// The round-trip through a generic value sorts keys at all nesting levels,
// so the digest is reproducible regardless of struct field order.
func HashBlock(b *Block) (string, error) {
	shadow := *b
	shadow.Hash = ""

	raw, err := json.Marshal(&shadow)
	if err != nil {
		return "", fmt.Errorf("marshal block: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("canonicalise block: %w", err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("marshal canonical block: %w", err)
	}

	h := sha256.Sum256(canonical)
	return hex.EncodeToString(h[:]), nil
}
