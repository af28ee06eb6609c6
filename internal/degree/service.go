// Package degree implements the submission, lookup, and verification
// workflow on top of the ledger chain, with an auxiliary relational cache
// for the uploaded documents.
package degree

import (
	"context"
	"errors"
	"fmt"

	"github.com/credentia/degreechain/internal/ledger"
	"github.com/credentia/degreechain/internal/verifier"
	"go.uber.org/zap"
)

// Decision is a verification outcome requested by an authority.
type Decision string

const (
	DecisionApprove Decision = "Approve"
	DecisionReject  Decision = "Reject"
)

// ErrInvalidDecision is returned when a verification request carries a
// decision other than Approve or Reject.
var ErrInvalidDecision = errors.New("decision must be Approve or Reject")

// SubmitRequest carries one degree issuance from the boundary.
type SubmitRequest struct {
	StudentName   string
	DegreeTitle   string
	Institution   string
	IssueDate     string // YYYY-MM-DD
	Document      []byte
	FileExtension string
}

// Service wires the chain, the verifier registry, and the record cache.
type Service struct {
	chain     *ledger.Chain
	verifiers *verifier.Registry
	cache     Cache
	logger    *zap.Logger
}

// NewService creates a Service.
func NewService(chain *ledger.Chain, verifiers *verifier.Registry, cache Cache, logger *zap.Logger) *Service {
	return &Service{chain: chain, verifiers: verifiers, cache: cache, logger: logger}
}

// Submit hashes the document, derives the record ID, buffers the record,
// and seals a new block. The cache upsert is a side effect: its failure is
// logged and does not undo the ledger append.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*ledger.DegreeRecord, error) {
	if len(req.Document) == 0 {
		return nil, fmt.Errorf("%w: degree document is required", ledger.ErrValidation)
	}

	docHash := ledger.HashDocument(req.Document)
	rec, err := ledger.NewDegreeRecord(req.StudentName, req.DegreeTitle, req.Institution, req.IssueDate, docHash)
	if err != nil {
		return nil, err
	}

	if err := s.chain.Submit(rec); err != nil {
		return nil, err
	}
	block, err := s.chain.Seal(ctx)
	if err != nil {
		return nil, fmt.Errorf("seal block: %w", err)
	}

	if err := s.cache.Upsert(ctx, &CachedDegree{
		ID:            rec.ID,
		StudentName:   rec.StudentName,
		DegreeTitle:   rec.DegreeTitle,
		Institution:   rec.Institution,
		IssueDate:     rec.IssueDate,
		DocumentHash:  rec.DocumentHash,
		DocumentData:  req.Document,
		FileExtension: req.FileExtension,
		Status:        rec.Status,
	}); err != nil {
		s.logger.Warn("degree cache upsert failed", zap.String("degree_id", rec.ID), zap.Error(err))
	}

	s.logger.Info("degree submitted",
		zap.String("degree_id", rec.ID),
		zap.String("institution", rec.Institution),
		zap.Int("block_index", block.Index),
	)
	return rec, nil
}

// Verify applies an authority's decision to the record with the given ID.
// Returns verifier.ErrUnknownVerifier for unregistered codes and
// ledger.ErrNotFound when no record matches; in both cases the chain is
// untouched. A repeat verification overwrites the previous outcome; there
// is no "already verified" lock.
func (s *Service) Verify(ctx context.Context, id string, decision Decision, authorityCode string) (*ledger.DegreeRecord, error) {
	displayName, err := s.verifiers.Resolve(authorityCode)
	if err != nil {
		return nil, err
	}

	var status ledger.Status
	switch decision {
	case DecisionApprove:
		status = ledger.StatusApproved
	case DecisionReject:
		status = ledger.StatusRejected
	default:
		return nil, ErrInvalidDecision
	}

	rec, err := s.chain.ApplyVerification(ctx, id, status, displayName)
	if err != nil {
		return nil, err
	}

	if err := s.cache.UpdateStatus(ctx, id, rec.Status, rec.VerifiedBy, *rec.VerificationDate); err != nil {
		s.logger.Warn("degree cache status update failed", zap.String("degree_id", id), zap.Error(err))
	}

	s.logger.Info("degree verified",
		zap.String("degree_id", id),
		zap.String("status", string(rec.Status)),
		zap.String("verified_by", rec.VerifiedBy),
	)
	return rec, nil
}

// Lookup returns the ledger record with the given ID.
func (s *Service) Lookup(_ context.Context, id string) (*ledger.DegreeRecord, error) {
	return s.chain.Find(id)
}

// Document returns the cached row including the raw document bytes.
func (s *Service) Document(ctx context.Context, id string) (*CachedDegree, error) {
	return s.cache.Get(ctx, id)
}

// MatchDocument reports whether a freshly computed digest of data equals
// the document hash stored in the ledger for the given record.
func (s *Service) MatchDocument(_ context.Context, id string, data []byte) (bool, error) {
	rec, err := s.chain.Find(id)
	if err != nil {
		return false, err
	}
	return ledger.HashDocument(data) == rec.DocumentHash, nil
}
