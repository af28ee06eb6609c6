// Package verifier holds the static registry of authorities allowed to
// approve or reject degree records.
package verifier

import "errors"

// ErrUnknownVerifier is returned when an authority code is not registered.
var ErrUnknownVerifier = errors.New("unknown verifier code")

// Registry maps short authority codes to display names. It is read-only
// after construction and safe for concurrent use.
type Registry struct {
	names map[string]string
}

// NewRegistry builds a registry from a code → display-name map. A nil or
// empty map falls back to the default authorities.
func NewRegistry(names map[string]string) *Registry {
	if len(names) == 0 {
		names = map[string]string{
			"HEC":  "Higher Education Commission",
			"IBCC": "Inter Board Committee of Chairmen",
		}
	}
	copied := make(map[string]string, len(names))
	for code, name := range names {
		copied[code] = name
	}
	return &Registry{names: copied}
}

// Resolve returns the display name for an authority code.
func (r *Registry) Resolve(code string) (string, error) {
	name, ok := r.names[code]
	if !ok {
		return "", ErrUnknownVerifier
	}
	return name, nil
}

// Codes returns the registered authority codes.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.names))
	for code := range r.names {
		codes = append(codes, code)
	}
	return codes
}
