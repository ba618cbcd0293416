// Copyright 2025 Certen Protocol
//
// TransactionPetition aggregates every entity petition for one transaction.
package petition

import "github.com/certen/signum/pkg/factors"

// TransactionPetition tracks every entity that must authorize one
// transaction (§4.3). The transaction as a whole is satisfied only
// when every one of its entities is satisfied.
type TransactionPetition struct {
	IntentHash factors.IntentHash
	order      []factors.EntityAddress
	entities   map[factors.EntityAddress]*EntityPetition
}

// NewTransactionPetition builds one sub-petition per entity named by
// tx, preserving the order entities were declared in.
func NewTransactionPetition(tx factors.Transaction) *TransactionPetition {
	p := &TransactionPetition{
		IntentHash: tx.IntentHash,
		order:      make([]factors.EntityAddress, 0, len(tx.Entities)),
		entities:   make(map[factors.EntityAddress]*EntityPetition, len(tx.Entities)),
	}
	for _, entity := range tx.Entities {
		if _, dup := p.entities[entity.Address]; dup {
			continue
		}
		p.order = append(p.order, entity.Address)
		p.entities[entity.Address] = NewEntityPetition(entity)
	}
	return p
}

// Entity returns the sub-petition for addr, or nil if addr is not
// party to this transaction.
func (t *TransactionPetition) Entity(addr factors.EntityAddress) *EntityPetition {
	return t.entities[addr]
}

// Entities returns every entity sub-petition, in declaration order.
func (t *TransactionPetition) Entities() []*EntityPetition {
	out := make([]*EntityPetition, 0, len(t.order))
	for _, addr := range t.order {
		out = append(out, t.entities[addr])
	}
	return out
}

// Status is Success only once every entity has reached Success, Fail
// as soon as any entity reaches Fail, and InProgress otherwise (§4.3).
func (t *TransactionPetition) Status() Status {
	anyInProgress := false
	for _, addr := range t.order {
		switch t.entities[addr].Status() {
		case Fail:
			return Fail
		case InProgress:
			anyInProgress = true
		}
	}
	if anyInProgress {
		return InProgress
	}
	return Success
}

// RecordSignature records the signature against the entity named by
// owner, which must be party to this transaction. The coordinator
// reaches this through the cross-index (index.go), which already
// knows the owner of every share.
func (t *TransactionPetition) RecordSignature(owner factors.EntityAddress, instance factors.FactorInstance, sig factors.Signature) error {
	entity, ok := t.entities[owner]
	if !ok {
		return &InvariantViolationError{FactorSourceID: instance.FactorSourceID.String(), Err: ErrEntityNotInTransaction}
	}
	return entity.RecordSignature(instance, sig)
}

// RecordSkip marks id as skipped for the named entity.
func (t *TransactionPetition) RecordSkip(owner factors.EntityAddress, id factors.FactorSourceID) error {
	entity, ok := t.entities[owner]
	if !ok {
		return &InvariantViolationError{FactorSourceID: id.String(), Err: ErrEntityNotInTransaction}
	}
	return entity.RecordSkip(id)
}

// SignedShares collects every signature recorded across every entity
// of this transaction, as full factors.SignedShare values carrying
// this transaction's intent hash and each entity's address.
func (t *TransactionPetition) SignedShares() []factors.SignedShare {
	var out []factors.SignedShare
	for _, addr := range t.order {
		entity := t.entities[addr]
		for _, s := range entity.SignedShares() {
			out = append(out, factors.SignedShare{
				IntentHash:          t.IntentHash,
				OwnedFactorInstance: factors.OwnedFactorInstance{Instance: s.Instance, Owner: addr},
				Signature:           s.Signature,
			})
		}
	}
	return out
}

// FailingEntities returns the address of every entity that has not
// reached Success, in declaration order.
func (t *TransactionPetition) FailingEntities() []factors.EntityAddress {
	var out []factors.EntityAddress
	for _, addr := range t.order {
		if t.entities[addr].Status() != Success {
			out = append(out, addr)
		}
	}
	return out
}
