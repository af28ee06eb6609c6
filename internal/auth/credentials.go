package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned on any login failure. The cause
// (unknown code vs wrong password) is deliberately not distinguished.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialStore checks authority passwords against configured bcrypt
// hashes. The map is read-only after construction.
type CredentialStore struct {
	hashes map[string]string // authority code → bcrypt hash
}

// NewCredentialStore creates a CredentialStore from a code → bcrypt-hash map.
func NewCredentialStore(hashes map[string]string) *CredentialStore {
	copied := make(map[string]string, len(hashes))
	for code, h := range hashes {
		copied[code] = h
	}
	return &CredentialStore{hashes: copied}
}

// Check validates a password for an authority code.
func (s *CredentialStore) Check(code, password string) error {
	hash, ok := s.hashes[code]
	if !ok {
		// Burn a comparison anyway so unknown codes take as long as wrong
		// passwords.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000"), []byte(password)) //nolint:errcheck
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
