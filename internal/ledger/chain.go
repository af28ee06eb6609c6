package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Chain owns the ordered sequence of sealed blocks plus the buffer of
// records submitted but not yet folded into a block. All mutating
// operations are serialised behind one exclusive lock; reads take a shared
// lock and return copies.
type Chain struct {
	mu      sync.RWMutex
	blocks  []*Block
	pending []DegreeRecord
	store   Store
	logger  *zap.Logger
}

// New constructs a Chain from the persisted ledger. A missing or corrupt
// ledger file yields an empty chain (the store logs the fail-open), in
// which case a genesis block is sealed immediately.
func New(ctx context.Context, store Store, logger *zap.Logger) (*Chain, error) {
	c := &Chain{store: store, logger: logger}

	blocks, err := store.Load(ctx)
	if err != nil {
		// Availability over durability: start empty rather than refuse to boot.
		logger.Warn("ledger load failed, starting with empty chain", zap.Error(err))
		blocks = nil
	}
	c.blocks = blocks

	if len(c.blocks) == 0 {
		genesis, err := c.seal(ctx, GenesisPrevHash)
		if err != nil {
			return nil, fmt.Errorf("seal genesis block: %w", err)
		}
		logger.Info("sealed genesis block", zap.String("hash", genesis.Hash))
	} else {
		logger.Info("ledger loaded",
			zap.Int("blocks", len(c.blocks)),
			zap.String("tip", c.blocks[len(c.blocks)-1].Hash),
		)
	}
	return c, nil
}

// Submit appends a record to the pending buffer. The sealed chain is not
// touched until the next Seal call.
func (c *Chain) Submit(rec *DegreeRecord) error {
	if rec == nil {
		return ErrValidation
	}
	if rec.ID == "" || rec.StudentName == "" || rec.DegreeTitle == "" ||
		rec.Institution == "" || rec.IssueDate == "" || rec.DocumentHash == "" {
		return ErrValidation
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, *rec)
	return nil
}

// Seal folds the pending buffer into a new block chained to the current
// tip, appends it, clears the buffer, and persists the whole chain.
// A persistence failure is logged and does not fail the seal: the chain
// stays correct in memory and is written out on the next successful persist.
func (c *Chain) Seal(ctx context.Context) (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevHash := GenesisPrevHash
	if len(c.blocks) > 0 {
		prevHash = c.blocks[len(c.blocks)-1].Hash
	}
	return c.seal(ctx, prevHash)
}

// seal does the actual block construction. Callers must hold the write lock
// (New calls it before the Chain escapes).
func (c *Chain) seal(ctx context.Context, prevHash string) (*Block, error) {
	records := make([]DegreeRecord, len(c.pending))
	copy(records, c.pending)

	block := &Block{
		Index:        len(c.blocks) + 1,
		Timestamp:    time.Now().UTC(),
		Records:      records,
		PreviousHash: prevHash,
	}
	hash, err := HashBlock(block)
	if err != nil {
		return nil, err
	}
	block.Hash = hash

	c.blocks = append(c.blocks, block)
	c.pending = nil
	c.persist(ctx)

	c.logger.Debug("sealed block",
		zap.Int("index", block.Index),
		zap.Int("records", len(block.Records)),
		zap.String("hash", block.Hash),
	)
	return copyBlock(block), nil
}

// Latest returns the most recently sealed block.
func (c *Chain) Latest() (*Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.blocks) == 0 {
		return nil, ErrEmptyChain
	}
	return copyBlock(c.blocks[len(c.blocks)-1]), nil
}

// Find scans blocks in ascending index order, then records in submission
// order, and returns a copy of the first record whose ID matches.
func (c *Chain) Find(id string) (*DegreeRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, b := range c.blocks {
		for i := range b.Records {
			if b.Records[i].ID == id {
				rec := b.Records[i]
				return &rec, nil
			}
		}
	}
	return nil, ErrNotFound
}

// ApplyVerification mutates the matching record's status fields in place
// and re-persists the chain. The containing block's hash is deliberately
// NOT recomputed: the stored hash goes stale, exactly as in the system
// this replaces. Audit reports the mismatch.
func (c *Chain) ApplyVerification(ctx context.Context, id string, status Status, verifiedBy string) (*DegreeRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range c.blocks {
		for i := range b.Records {
			if b.Records[i].ID != id {
				continue
			}
			now := time.Now().UTC()
			b.Records[i].Status = status
			b.Records[i].VerifiedBy = verifiedBy
			b.Records[i].VerificationDate = &now

			c.persist(ctx)
			rec := b.Records[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

// Blocks returns a deep-copied snapshot of the sealed chain.
func (c *Chain) Blocks() []*Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Block, len(c.blocks))
	for i, b := range c.blocks {
		out[i] = copyBlock(b)
	}
	return out
}

// Len returns the number of sealed blocks.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// PendingCount returns the number of records awaiting the next seal.
func (c *Chain) PendingCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pending)
}

// AuditIssue describes one integrity violation found by Audit.
type AuditIssue struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Audit walks the chain, recomputes every block hash, and checks the
// previous-hash linkage. Verified records make their block's stored hash
// stale, so a ledger with post-seal verifications reports issues here.
func (c *Chain) Audit() []AuditIssue {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var issues []AuditIssue
	for i, b := range c.blocks {
		if i == 0 {
			if b.PreviousHash != GenesisPrevHash {
				issues = append(issues, AuditIssue{Index: b.Index, Reason: "genesis previous_hash is not the sentinel"})
			}
		} else if b.PreviousHash != c.blocks[i-1].Hash {
			issues = append(issues, AuditIssue{Index: b.Index, Reason: "previous_hash does not match prior block hash"})
		}

		recomputed, err := HashBlock(b)
		if err != nil {
			issues = append(issues, AuditIssue{Index: b.Index, Reason: fmt.Sprintf("hash recomputation failed: %v", err)})
			continue
		}
		if recomputed != b.Hash {
			issues = append(issues, AuditIssue{Index: b.Index, Reason: "stored hash does not match recomputed hash"})
		}
	}
	return issues
}

// persist writes the whole chain through the store. Callers must hold the
// write lock. Failures are logged, never propagated: the user-visible
// operation already succeeded in memory.
func (c *Chain) persist(ctx context.Context) {
	if err := c.store.Persist(ctx, c.blocks); err != nil {
		c.logger.Warn("ledger persist failed, chain is in memory only until next successful persist",
			zap.Error(err),
		)
	}
}

func copyBlock(b *Block) *Block {
	out := *b
	out.Records = make([]DegreeRecord, len(b.Records))
	copy(out.Records, b.Records)
	return &out
}
