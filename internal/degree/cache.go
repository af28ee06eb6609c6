package degree

import (
	"context"
	"time"

	"github.com/credentia/degreechain/internal/ledger"
)

// CachedDegree is the row shape of the auxiliary record cache: the same
// fields as the ledger record plus the raw document bytes and extension.
// The cache exists so employer lookups can serve the original document;
// the ledger remains the system of record.
type CachedDegree struct {
	ID               string        `json:"degree_id"`
	StudentName      string        `json:"student_name"`
	DegreeTitle      string        `json:"degree_title"`
	Institution      string        `json:"institution"`
	IssueDate        string        `json:"issue_date"`
	DocumentHash     string        `json:"document_hash"`
	DocumentData     []byte        `json:"-"`
	FileExtension    string        `json:"file_extension"`
	Status           ledger.Status `json:"status"`
	VerifiedBy       string        `json:"verified_by,omitempty"`
	VerificationDate *time.Time    `json:"verification_date,omitempty"`
}

// Cache is the storage interface for the auxiliary record cache. The
// service calls it as a side effect of Submit and Verify; failures are
// logged and never fail the ledger operation.
type Cache interface {
	// Upsert inserts the degree row, replacing any prior row with the
	// same ID (resubmissions collide to the same identifier).
	Upsert(ctx context.Context, d *CachedDegree) error

	// UpdateStatus applies a verification outcome to the cached row.
	UpdateStatus(ctx context.Context, id string, status ledger.Status, verifiedBy string, verifiedAt time.Time) error

	// Get returns the cached row including document bytes, or ErrCacheMiss.
	Get(ctx context.Context, id string) (*CachedDegree, error)
}
