// Copyright 2025 Certen Protocol
//
// Package driver defines the strategy abstraction that mediates
// between the coordinator and the physical or interactive mechanism
// that actually produces signatures for one factor-source kind
// (§4.5). The core never talks to hardware directly; it only ever
// calls through a SigningDriver.
package driver

import (
	"context"
	"errors"

	"github.com/certen/signum/pkg/factors"
)

// Mode distinguishes the two concurrency strategies a SigningDriver
// can offer. Modeled as a tagged union ("Driver is one of Serial or
// Parallel"), not an inheritance hierarchy (§9 design note).
type Mode int

const (
	ModeSerial Mode = iota
	ModeParallel
)

func (m Mode) String() string {
	if m == ModeParallel {
		return "Parallel"
	}
	return "Serial"
}

// TransactionContext is one transaction's stake in a signing prompt:
// the owned instances this source would sign for within it, and the
// entities that would become permanently unsatisfiable if this source
// is skipped right now.
type TransactionContext struct {
	IntentHash               factors.IntentHash
	OwnedInstances           []factors.OwnedFactorInstance
	EntitiesInvalidIfSkipped []factors.EntityAddress
}

// BatchInput is the immutable snapshot a driver receives for one
// factor source: every transaction that references it, in input
// order, plus what skipping it would cost. Drivers never see
// petition state directly (§5).
type BatchInput struct {
	FactorSource factors.FactorSource
	Transactions []TransactionContext
}

// InvalidIfSkipped reports whether any transaction in this input names
// at least one entity that would become unsatisfiable if the source
// behind it were skipped right now.
func (b BatchInput) InvalidIfSkipped() bool {
	for _, tx := range b.Transactions {
		if len(tx.EntitiesInvalidIfSkipped) > 0 {
			return true
		}
	}
	return false
}

// OutcomeKind is the closed sum type a driver call resolves to (§4.5).
type OutcomeKind int

const (
	Signed OutcomeKind = iota
	Skipped
	UserAborted
	DriverFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case Signed:
		return "Signed"
	case Skipped:
		return "Skipped"
	case UserAborted:
		return "UserAborted"
	case DriverFailed:
		return "DriverFailed"
	default:
		return "Unknown"
	}
}

// DriverOutcome is the result of one driver call. Only the fields
// relevant to Kind are populated: Shares for Signed, SkippedSources
// for Skipped, Err for DriverFailed. Partial outcomes are permitted —
// a Parallel driver may report Signed for some sources in the batch
// and leave the rest unmentioned; the coordinator treats unmentioned
// sources as Skipped (§4.5).
type DriverOutcome struct {
	Kind           OutcomeKind
	Shares         []factors.SignedShare
	SkippedSources []factors.FactorSourceID
	Err            error
}

// ErrDriverUnavailable is a convenience sentinel drivers may wrap into
// DriverOutcome.Err to report a transient failure.
var ErrDriverUnavailable = errors.New("driver: signing capability unavailable")

// SerialDriver signs one factor source at a time. Intended for kinds
// whose physical realization forbids parallelism: hardware cards,
// hardware wallets, interactive Q&A.
type SerialDriver interface {
	SignOne(ctx context.Context, input BatchInput) DriverOutcome
}

// ParallelDriver signs a whole kind's worth of factor sources in one
// call. Intended for kinds backed by on-device key material, where
// the driver privately fans out to multiple physical signers
// concurrently; that fan-out is the driver's own concern and never
// visible to the coordinator (§5).
type ParallelDriver interface {
	SignMany(ctx context.Context, inputs map[factors.FactorSourceID]BatchInput) DriverOutcome
}

// Retrier is an optional capability a driver may also implement.
// ShouldRetry is consulted on DriverFailed before the coordinator
// either repeats the same dispatch or gives up and treats the
// attempted sources as skipped.
type Retrier interface {
	ShouldRetry(ctx context.Context, failed DriverOutcome) bool
}

// SigningDriver is the capability set the coordinator dispatches to
// for one FactorSourceKind: exactly one of Serial or Parallel is set,
// matching Mode.
type SigningDriver struct {
	Kind     factors.FactorSourceKind
	Mode     Mode
	Serial   SerialDriver
	Parallel ParallelDriver
	Retry    Retrier // optional; nil means never retry
}

// NewSerial builds a Serial-mode driver entry.
func NewSerial(kind factors.FactorSourceKind, d SerialDriver, retry Retrier) SigningDriver {
	return SigningDriver{Kind: kind, Mode: ModeSerial, Serial: d, Retry: retry}
}

// NewParallel builds a Parallel-mode driver entry.
func NewParallel(kind factors.FactorSourceKind, d ParallelDriver, retry Retrier) SigningDriver {
	return SigningDriver{Kind: kind, Mode: ModeParallel, Parallel: d, Retry: retry}
}
