// Copyright 2025 Certen Protocol
//
// Construction-time sentinel errors for the factors package.
package factors

import "errors"

// Construction errors (§7): fatal, surfaced to the caller before any
// signing begins, no partial state produced.
var (
	ErrEmptyTransactionSet     = errors.New("factors: transaction set must not be empty")
	ErrUnknownFactorSource     = errors.New("factors: entity policy references an unconfigured factor source")
	ErrFactorSourceInBothLists = errors.New("factors: a factor source may not appear in both the threshold and override lists of one entity")
	ErrInvalidQuorum           = errors.New("factors: threshold quorum must require at least one signature")
)
