package ledger

import "context"

// Store is the durable serialisation boundary for the chain. Persist
// overwrites the whole ledger; Load returns the ordered block sequence,
// or an empty chain when nothing durable exists yet.
//
// Two implementations are provided:
//   - FileStore: a single human-diffable JSON file, for production.
//   - MemoryStore: in-process, for testing and ephemeral deployments.
type Store interface {
	Persist(ctx context.Context, blocks []*Block) error
	Load(ctx context.Context) ([]*Block, error)
}
