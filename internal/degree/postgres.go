package degree

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/credentia/degreechain/internal/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCacheMiss is returned when no cached row carries the requested ID.
var ErrCacheMiss = errors.New("degree not found in cache")

// PostgresCache stores degree rows and their document bytes in PostgreSQL.
// Schema lives in migrations/001_degree_cache.up.sql.
type PostgresCache struct {
	db *pgxpool.Pool
}

// NewPostgresCache creates a PostgresCache backed by the given pool.
func NewPostgresCache(db *pgxpool.Pool) *PostgresCache {
	return &PostgresCache{db: db}
}

// Upsert implements Cache.
func (c *PostgresCache) Upsert(ctx context.Context, d *CachedDegree) error {
	q := `
		INSERT INTO degrees (degree_id, student_name, degree_title, institution, issue_date,
		                     document_hash, document_data, file_extension, status, verified_by, verification_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (degree_id) DO UPDATE SET
			student_name      = EXCLUDED.student_name,
			degree_title      = EXCLUDED.degree_title,
			institution       = EXCLUDED.institution,
			issue_date        = EXCLUDED.issue_date,
			document_hash     = EXCLUDED.document_hash,
			document_data     = EXCLUDED.document_data,
			file_extension    = EXCLUDED.file_extension,
			status            = EXCLUDED.status,
			verified_by       = EXCLUDED.verified_by,
			verification_date = EXCLUDED.verification_date`
	_, err := c.db.Exec(ctx, q,
		d.ID, d.StudentName, d.DegreeTitle, d.Institution, d.IssueDate,
		d.DocumentHash, d.DocumentData, d.FileExtension, string(d.Status),
		nullable(d.VerifiedBy), d.VerificationDate,
	)
	if err != nil {
		return fmt.Errorf("upsert degree %s: %w", d.ID, err)
	}
	return nil
}

// UpdateStatus implements Cache.
func (c *PostgresCache) UpdateStatus(ctx context.Context, id string, status ledger.Status, verifiedBy string, verifiedAt time.Time) error {
	q := `UPDATE degrees SET status = $2, verified_by = $3, verification_date = $4 WHERE degree_id = $1`
	tag, err := c.db.Exec(ctx, q, id, string(status), verifiedBy, verifiedAt)
	if err != nil {
		return fmt.Errorf("update degree %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCacheMiss
	}
	return nil
}

// Get implements Cache.
func (c *PostgresCache) Get(ctx context.Context, id string) (*CachedDegree, error) {
	d := &CachedDegree{}
	var status string
	var verifiedBy *string
	q := `
		SELECT degree_id, student_name, degree_title, institution, issue_date,
		       document_hash, document_data, file_extension, status, verified_by, verification_date
		FROM degrees WHERE degree_id = $1`
	err := c.db.QueryRow(ctx, q, id).Scan(
		&d.ID, &d.StudentName, &d.DegreeTitle, &d.Institution, &d.IssueDate,
		&d.DocumentHash, &d.DocumentData, &d.FileExtension, &status, &verifiedBy, &d.VerificationDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get degree %s: %w", id, err)
	}
	d.Status = ledger.Status(status)
	if verifiedBy != nil {
		d.VerifiedBy = *verifiedBy
	}
	return d, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
