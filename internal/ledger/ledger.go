// Package ledger implements the append-only hash chain that records
// degree-issuance events.
//
// The chain begins with a genesis block whose PreviousHash is the sentinel
// GenesisPrevHash ("0"). Every subsequent block records the SHA-256 of its
// predecessor, computed over a canonical JSON encoding with sorted keys so
// that re-serialisation is reproducible across processes.
//
// One deliberate oddity is preserved from the system this replaces:
// verification mutates a record inside an already-sealed block without
// recomputing that block's hash. Audit reports the resulting mismatches
// instead of repairing them.
package ledger
