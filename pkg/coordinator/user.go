// Copyright 2025 Certen Protocol
//
// The User contract: the coordinator's external sign-or-skip prompt.
package coordinator

import (
	"context"

	"github.com/certen/signum/pkg/factors"
)

// Decision is the human's answer to one signing prompt.
type Decision int

const (
	DecisionSign Decision = iota
	DecisionSkip
)

// InvalidIfSkipped names the transactions and entities that would
// become permanently unsatisfiable if the prompted factor source were
// skipped right now (§6).
type InvalidIfSkipped struct {
	IntentHash      factors.IntentHash
	FailingEntities []factors.EntityAddress
}

// User is the external collaborator that presents sign-or-skip
// prompts to a human and returns their decision. The UI surface that
// renders the prompt is out of scope for this package; User is only
// the contract the coordinator calls through (§6).
type User interface {
	// SignOrSkip is awaited once per prompted factor source.
	SignOrSkip(ctx context.Context, source factors.FactorSource, invalidIfSkipped []InvalidIfSkipped) (Decision, error)

	// SkipAllRemaining is consulted only when every transaction the
	// source participates in is already Success; answering true skips
	// the source without a full sign-or-skip prompt.
	SkipAllRemaining(ctx context.Context, source factors.FactorSource) (bool, error)
}
