// Copyright 2025 Certen Protocol
//
// Package demo provides reference, non-production implementations of
// the coordinator's external collaborators (coordinator.User and the
// driver.SerialDriver/driver.ParallelDriver capabilities), wired up by
// cmd/signumd to show the coordinator running end to end without any
// real hardware or human attached. Nothing here is imported by the
// core packages.
package demo

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"

	"github.com/certen/signum/pkg/coordinator"
	"github.com/certen/signum/pkg/driver"
	"github.com/certen/signum/pkg/factors"
)

// AutoUser answers every prompt automatically: it signs unless
// skipping is free (the factor source's transactions are all already
// satisfied or skipping would not invalidate anything), in which case
// it skips. This mirrors the "lazy user" behavior described in the
// core spec's end-to-end scenarios (§8 S2/S3).
type AutoUser struct {
	Logger *log.Logger
}

// SignOrSkip implements coordinator.User.
func (u AutoUser) SignOrSkip(ctx context.Context, source factors.FactorSource, invalid []coordinator.InvalidIfSkipped) (coordinator.Decision, error) {
	if len(invalid) == 0 {
		u.log("skipping %s (%s): no transaction at risk", source.ID, source.Kind)
		return coordinator.DecisionSkip, nil
	}
	u.log("signing %s (%s): %d transaction(s) would fail if skipped", source.ID, source.Kind, len(invalid))
	return coordinator.DecisionSign, nil
}

// SkipAllRemaining implements coordinator.User.
func (u AutoUser) SkipAllRemaining(ctx context.Context, source factors.FactorSource) (bool, error) {
	u.log("skipping remaining prompts for %s (%s): already satisfied", source.ID, source.Kind)
	return true, nil
}

func (u AutoUser) log(format string, args ...interface{}) {
	if u.Logger != nil {
		u.Logger.Printf(format, args...)
	}
}

// DigestSigner is a deterministic stand-in for the real
// FactorSource.sign capability the core spec leaves external: it
// "signs" by hashing the intent hash together with the factor
// instance's factor source ID and derivation bytes. It exists purely so cmd/signumd has
// something to call; it has no cryptographic meaning.
type DigestSigner struct{}

// Sign produces a deterministic, non-cryptographic stand-in signature.
func (DigestSigner) Sign(intentHash factors.IntentHash, instance factors.FactorInstance) factors.Signature {
	h := sha256.New()
	h.Write(intentHash.Bytes())
	h.Write(instance.FactorSourceID.Bytes())
	h.Write(instance.Derivation)
	return factors.Signature(h.Sum(nil))
}

// SerialSigningDriver signs every owned instance it is handed, one
// factor source at a time, using signer. It models the kinds the core
// spec calls out as forbidding parallelism: hardware cards, hardware
// wallets, interactive Q&A.
type SerialSigningDriver struct {
	Signer DigestSigner
	Logger *log.Logger
}

// SignOne implements driver.SerialDriver.
func (d SerialSigningDriver) SignOne(ctx context.Context, input driver.BatchInput) driver.DriverOutcome {
	var shares []factors.SignedShare
	for _, tx := range input.Transactions {
		for _, owned := range tx.OwnedInstances {
			sig := d.Signer.Sign(tx.IntentHash, owned.Instance)
			shares = append(shares, factors.SignedShare{IntentHash: tx.IntentHash, OwnedFactorInstance: owned, Signature: sig})
		}
	}
	if d.Logger != nil {
		d.Logger.Printf("signed %d share(s) for factor source %s", len(shares), input.FactorSource.ID)
	}
	return driver.DriverOutcome{Kind: driver.Signed, Shares: shares}
}

// ParallelSigningDriver signs every factor source it is handed within
// one call. It models the kinds the core spec calls out as backed by
// on-device key material, where fanning out to multiple physical
// signers is the driver's own private concern (§5).
type ParallelSigningDriver struct {
	Signer DigestSigner
	Logger *log.Logger
}

// SignMany implements driver.ParallelDriver.
func (d ParallelSigningDriver) SignMany(ctx context.Context, inputs map[factors.FactorSourceID]driver.BatchInput) driver.DriverOutcome {
	var shares []factors.SignedShare
	for _, input := range inputs {
		for _, tx := range input.Transactions {
			for _, owned := range tx.OwnedInstances {
				sig := d.Signer.Sign(tx.IntentHash, owned.Instance)
				shares = append(shares, factors.SignedShare{IntentHash: tx.IntentHash, OwnedFactorInstance: owned, Signature: sig})
			}
		}
	}
	if d.Logger != nil {
		d.Logger.Printf("signed %d share(s) across %d factor source(s)", len(shares), len(inputs))
	}
	return driver.DriverOutcome{Kind: driver.Signed, Shares: shares}
}

// FormatOutcome renders an Outcome as a short human-readable summary,
// used by cmd/signumd to print the result of a demo run.
func FormatOutcome(outcome *coordinator.Outcome) string {
	s := fmt.Sprintf("%d transaction(s) successful, %d failed\n", len(outcome.Successful), len(outcome.Failed))
	for intentHash, shares := range outcome.Successful {
		s += fmt.Sprintf("  success %s: %d signature(s)\n", intentHash, len(shares))
	}
	for intentHash, failed := range outcome.Failed {
		s += fmt.Sprintf("  failed  %s: reason=%s entities=%v\n", intentHash, failed.Reason, failed.FailingEntities)
	}
	return s
}
