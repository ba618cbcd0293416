// Copyright 2025 Certen Protocol
//
// Outcome is the final per-transaction projection of a Sign run.
package coordinator

import "github.com/certen/signum/pkg/factors"

// FailureReason explains why a transaction ended up in Outcome.Failed.
type FailureReason int

const (
	// ReasonUnsatisfiable means one or more entities never reached
	// Success and can no longer do so (skips made it unreachable).
	ReasonUnsatisfiable FailureReason = iota
	// ReasonUserAborted means the operation was terminated by the user
	// while this transaction was still InProgress (§7, open question 2:
	// already-collected signatures for other transactions remain visible).
	ReasonUserAborted
)

func (r FailureReason) String() string {
	if r == ReasonUserAborted {
		return "UserAborted"
	}
	return "Unsatisfiable"
}

// FailedTransaction reports one transaction that did not reach
// Success, and the entities responsible.
type FailedTransaction struct {
	IntentHash      factors.IntentHash
	Reason          FailureReason
	FailingEntities []factors.EntityAddress
}

// Outcome is the final projection of the whole batch (§4.6
// termination): every transaction partitioned into Successful (with
// its collected signatures) or Failed (with the offending entities).
type Outcome struct {
	Successful map[factors.IntentHash][]factors.SignedShare
	Failed     map[factors.IntentHash]FailedTransaction
}

func newOutcome() *Outcome {
	return &Outcome{
		Successful: make(map[factors.IntentHash][]factors.SignedShare),
		Failed:     make(map[factors.IntentHash]FailedTransaction),
	}
}
