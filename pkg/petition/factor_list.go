// Copyright 2025 Certen Protocol
//
// FactorListPetition tracks one quorum's signing progress.
package petition

import (
	"sync"

	"github.com/certen/signum/pkg/factors"
)

type signedEntry struct {
	instance  factors.FactorInstance
	signature factors.Signature
}

// FactorListPetition tracks progress toward satisfying one quorum
// (threshold or override) of one entity in one transaction (§4.1).
//
// The single-threaded cooperative model (§5) means no lock is strictly
// required, but this type carries one anyway as a safety belt, the way
// the teacher's Collector and ConsensusCoordinator guard their maps
// even though each is, in practice, driven by one goroutine at a time
// (pkg/batch/collector.go, pkg/batch/consensus_coordinator.go).
type FactorListPetition struct {
	mu sync.Mutex

	order   []factors.FactorSourceID
	factors map[factors.FactorSourceID]factors.FactorInstance
	required int

	signed  map[factors.FactorSourceID]signedEntry
	skipped map[factors.FactorSourceID]struct{}
}

// NewFactorListPetition builds a petition from one factor list. An
// unused list (e.g. the override of an unsecured entity) has zero
// factors and zero required, and its Status is always Fail per §4.1 —
// the caller is expected to combine it with its companion list (§4.2).
func NewFactorListPetition(list factors.FactorList) *FactorListPetition {
	p := &FactorListPetition{
		order:    make([]factors.FactorSourceID, 0, len(list.Factors)),
		factors:  make(map[factors.FactorSourceID]factors.FactorInstance, len(list.Factors)),
		required: list.Required(),
		signed:   make(map[factors.FactorSourceID]signedEntry),
		skipped:  make(map[factors.FactorSourceID]struct{}),
	}
	for _, f := range list.Factors {
		if _, dup := p.factors[f.FactorSourceID]; dup {
			continue
		}
		p.order = append(p.order, f.FactorSourceID)
		p.factors[f.FactorSourceID] = f
	}
	return p
}

// Contains reports whether id belongs to this factor list.
func (p *FactorListPetition) Contains(id factors.FactorSourceID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.factors[id]
	return ok
}

// SignedCount returns the number of signatures collected so far.
func (p *FactorListPetition) SignedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.signed)
}

// SkippedCount returns the number of factor sources skipped so far.
func (p *FactorListPetition) SkippedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.skipped)
}

// RemainingToPrompt returns how many factor sources in this list have
// been neither signed nor skipped yet.
func (p *FactorListPetition) RemainingToPrompt() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remainingLocked()
}

func (p *FactorListPetition) remainingLocked() int {
	return len(p.factors) - len(p.signed) - len(p.skipped)
}

// Status computes the pure status function of §4.1.
func (p *FactorListPetition) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

func (p *FactorListPetition) statusLocked() Status {
	if p.required == 0 {
		// A not-used list can never be satisfied on its own (§4.1).
		return Fail
	}
	signedCount := len(p.signed)
	if signedCount >= p.required && p.required > 0 {
		return Success
	}
	if p.remainingLocked()+signedCount < p.required {
		return Fail
	}
	return InProgress
}

// RecordSignature records a signature for instance, which must belong
// to this list and not have been recorded as skipped already. A repeated
// signature for the same factor source is a no-op.
func (p *FactorListPetition) RecordSignature(instance factors.FactorInstance, sig factors.Signature) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.factors[instance.FactorSourceID]; !ok {
		return &InvariantViolationError{FactorSourceID: instance.FactorSourceID.String(), Err: ErrFactorSourceNotInList}
	}
	if _, already := p.signed[instance.FactorSourceID]; already {
		// Idempotent per (intent-hash, owned-factor-instance): re-delivery is a no-op (§3).
		return nil
	}
	if _, skippedAlready := p.skipped[instance.FactorSourceID]; skippedAlready {
		return &InvariantViolationError{FactorSourceID: instance.FactorSourceID.String(), Err: ErrFactorSourceAlreadyRecorded}
	}
	p.signed[instance.FactorSourceID] = signedEntry{instance: instance, signature: sig}
	return nil
}

// RecordSkip marks id as skipped. id must belong to this list and not
// have been recorded as signed already. A repeated skip is a no-op.
func (p *FactorListPetition) RecordSkip(id factors.FactorSourceID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.factors[id]; !ok {
		return &InvariantViolationError{FactorSourceID: id.String(), Err: ErrFactorSourceNotInList}
	}
	if _, already := p.skipped[id]; already {
		return nil
	}
	if _, signedAlready := p.signed[id]; signedAlready {
		return &InvariantViolationError{FactorSourceID: id.String(), Err: ErrFactorSourceAlreadyRecorded}
	}
	p.skipped[id] = struct{}{}
	return nil
}

// StatusIfSkipped simulates recording a skip for id, without
// mutating state, and returns the status that would result. Used to
// compute the "invalid if skipped" report (§4.2, §4.3).
func (p *FactorListPetition) StatusIfSkipped(id factors.FactorSourceID) Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.factors[id]; !ok {
		return p.statusLocked()
	}
	if _, already := p.skipped[id]; already {
		return p.statusLocked()
	}
	if _, signedAlready := p.signed[id]; signedAlready {
		return p.statusLocked()
	}

	signedCount := len(p.signed)
	remaining := p.remainingLocked() - 1
	if signedCount >= p.required && p.required > 0 {
		return Success
	}
	if remaining+signedCount < p.required {
		return Fail
	}
	return InProgress
}

// SignedShares returns the factor instances signed so far, paired
// with their signatures, in list order.
func (p *FactorListPetition) SignedShares() []struct {
	Instance  factors.FactorInstance
	Signature factors.Signature
} {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]struct {
		Instance  factors.FactorInstance
		Signature factors.Signature
	}, 0, len(p.signed))
	for _, id := range p.order {
		if entry, ok := p.signed[id]; ok {
			out = append(out, struct {
				Instance  factors.FactorInstance
				Signature factors.Signature
			}{Instance: entry.instance, Signature: entry.signature})
		}
	}
	return out
}
