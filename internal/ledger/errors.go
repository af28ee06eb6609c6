package ledger

import "errors"

// ErrValidation is returned when a submission is missing a required field.
var ErrValidation = errors.New("degree record is missing a required field")

// ErrNotFound is returned when no record carries the requested identifier.
var ErrNotFound = errors.New("degree record not found")

// ErrEmptyChain is returned when the chain is read before genesis was
// sealed. Should not occur once a Chain is constructed via New.
var ErrEmptyChain = errors.New("chain has no sealed blocks")
