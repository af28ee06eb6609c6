// Package qr renders the verification QR code handed out with each degree.
package qr

import (
	"fmt"

	"github.com/credentia/degreechain/internal/ledger"
	qrcode "github.com/skip2/go-qrcode"
)

// defaultSize is the PNG edge length in pixels.
const defaultSize = 330

// ForRecord renders a PNG QR code whose payload identifies the record and
// its current verification state.
func ForRecord(rec *ledger.DegreeRecord) ([]byte, error) {
	verifiedBy := rec.VerifiedBy
	if verifiedBy == "" {
		verifiedBy = "Pending"
	}
	payload := fmt.Sprintf("Degree ID: %s\nStatus: %s\nVerified By: %s", rec.ID, rec.Status, verifiedBy)

	png, err := qrcode.Encode(payload, qrcode.Medium, defaultSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
