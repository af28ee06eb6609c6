package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Status is the verification state of a degree record.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// DegreeRecord is the payload carried inside blocks. ID is content-derived:
// two submissions with identical fields collide to the same record, so a
// resubmission overwrites rather than duplicates.
type DegreeRecord struct {
	ID               string     `json:"degree_id"`
	StudentName      string     `json:"student_name"`
	DegreeTitle      string     `json:"degree_title"`
	Institution      string     `json:"institution"`
	IssueDate        string     `json:"issue_date"` // YYYY-MM-DD
	DocumentHash     string     `json:"document_hash"`
	Status           Status     `json:"status"`
	VerifiedBy       string     `json:"verified_by,omitempty"`
	VerificationDate *time.Time `json:"verification_date,omitempty"`
}

// NewDegreeRecord builds a Pending record and derives its ID from the
// submitted fields. Returns ErrValidation if any required field is empty
// or the issue date is not a YYYY-MM-DD date.
func NewDegreeRecord(studentName, degreeTitle, institution, issueDate, documentHash string) (*DegreeRecord, error) {
	if studentName == "" || degreeTitle == "" || institution == "" || issueDate == "" || documentHash == "" {
		return nil, ErrValidation
	}
	if _, err := time.Parse("2006-01-02", issueDate); err != nil {
		return nil, fmt.Errorf("%w: issue_date must be YYYY-MM-DD", ErrValidation)
	}

	return &DegreeRecord{
		ID:           ComputeID(studentName, degreeTitle, institution, issueDate, documentHash),
		StudentName:  studentName,
		DegreeTitle:  degreeTitle,
		Institution:  institution,
		IssueDate:    issueDate,
		DocumentHash: documentHash,
		Status:       StatusPending,
	}, nil
}

// ComputeID derives the deterministic record identifier: the hex SHA-256 of
// the issuance fields concatenated in submission order.
func ComputeID(studentName, degreeTitle, institution, issueDate, documentHash string) string {
	h := sha256.Sum256([]byte(studentName + degreeTitle + institution + issueDate + documentHash))
	return hex.EncodeToString(h[:])
}

// HashDocument returns the hex SHA-256 digest of a document's raw bytes.
func HashDocument(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
