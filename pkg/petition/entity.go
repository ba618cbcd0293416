// Copyright 2025 Certen Protocol
//
// EntityPetition combines a threshold and an override sub-petition.
package petition

import "github.com/certen/signum/pkg/factors"

// EntityPetition tracks one entity's progress toward authorizing one
// transaction: a threshold sub-petition, an override sub-petition, and
// the combination rule of §4.2.
type EntityPetition struct {
	Address   factors.EntityAddress
	Threshold *FactorListPetition
	Override  *FactorListPetition
}

// NewEntityPetition builds the two sub-petitions from a normalized
// auth policy (see factors.EntityAuthPolicy.Normalize).
func NewEntityPetition(entity factors.Entity) *EntityPetition {
	threshold, override := entity.Policy.Normalize()
	return &EntityPetition{
		Address:   entity.Address,
		Threshold: NewFactorListPetition(threshold),
		Override:  NewFactorListPetition(override),
	}
}

// Status combines the two sub-petition statuses per the §4.2 table.
func (e *EntityPetition) Status() Status {
	return combine(e.Threshold.Status(), e.Override.Status())
}

// listFor returns the sub-petition that owns id, or nil if neither
// does.
func (e *EntityPetition) listFor(id factors.FactorSourceID) *FactorListPetition {
	if e.Threshold.Contains(id) {
		return e.Threshold
	}
	if e.Override.Contains(id) {
		return e.Override
	}
	return nil
}

// Contains reports whether id belongs to either sub-petition.
func (e *EntityPetition) Contains(id factors.FactorSourceID) bool {
	return e.listFor(id) != nil
}

// RecordSignature dispatches a signature to whichever sub-petition
// owns instance's factor source.
func (e *EntityPetition) RecordSignature(instance factors.FactorInstance, sig factors.Signature) error {
	list := e.listFor(instance.FactorSourceID)
	if list == nil {
		return &InvariantViolationError{FactorSourceID: instance.FactorSourceID.String(), Err: ErrFactorSourceNotInList}
	}
	return list.RecordSignature(instance, sig)
}

// RecordSkip dispatches a skip to whichever sub-petition owns id.
func (e *EntityPetition) RecordSkip(id factors.FactorSourceID) error {
	list := e.listFor(id)
	if list == nil {
		return &InvariantViolationError{FactorSourceID: id.String(), Err: ErrFactorSourceNotInList}
	}
	return list.RecordSkip(id)
}

// StatusIfSkipped reports the entity-level status that would result
// from skipping id, without mutating any state. Used to decide
// whether prompting a given factor source is still worthwhile (§4.2).
func (e *EntityPetition) StatusIfSkipped(id factors.FactorSourceID) Status {
	if e.Threshold.Contains(id) {
		return combine(e.Threshold.StatusIfSkipped(id), e.Override.Status())
	}
	if e.Override.Contains(id) {
		return combine(e.Threshold.Status(), e.Override.StatusIfSkipped(id))
	}
	return e.Status()
}

// SignedShares returns every signature collected for this entity
// across both sub-petitions, threshold first then override.
func (e *EntityPetition) SignedShares() []struct {
	Instance  factors.FactorInstance
	Signature factors.Signature
} {
	out := e.Threshold.SignedShares()
	out = append(out, e.Override.SignedShares()...)
	return out
}
