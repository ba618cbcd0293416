// Copyright 2025 Certen Protocol
//
// Index cross-references every factor source against the
// transactions and entities that reference it.
package petition

import "github.com/certen/signum/pkg/factors"

// reference pinpoints one (transaction, entity, role) use of a factor
// source. A single factor source can be referenced many times across
// a batch — once per entity that lists it, possibly in both the
// threshold and override lists of different entities.
type reference struct {
	intentHash factors.IntentHash
	owner      factors.EntityAddress
	instance   factors.FactorInstance
}

// Index is the cross-product bookkeeping structure of §4.4: it lets
// the coordinator go from "I have a signature from factor source X"
// straight to every (transaction, entity) petition that needs it,
// without rescanning the whole batch per signature.
type Index struct {
	transactionOrder []factors.IntentHash
	transactions     map[factors.IntentHash]*TransactionPetition

	sourceOrder []factors.FactorSourceID
	references  map[factors.FactorSourceID][]reference
}

// Build constructs the full petition tree plus the factor-source
// cross-index for a validated batch. Callers are expected to have run
// factors.Validate first (§3); Build does not re-check those
// invariants.
func Build(transactions []factors.Transaction) *Index {
	idx := &Index{
		transactionOrder: make([]factors.IntentHash, 0, len(transactions)),
		transactions:     make(map[factors.IntentHash]*TransactionPetition, len(transactions)),
		references:       make(map[factors.FactorSourceID][]reference),
	}

	for _, tx := range transactions {
		if _, dup := idx.transactions[tx.IntentHash]; dup {
			continue
		}
		txPetition := NewTransactionPetition(tx)
		idx.transactionOrder = append(idx.transactionOrder, tx.IntentHash)
		idx.transactions[tx.IntentHash] = txPetition

		for _, entity := range tx.Entities {
			threshold, override := entity.Policy.Normalize()
			for _, f := range threshold.Factors {
				idx.addReference(f.FactorSourceID, reference{intentHash: tx.IntentHash, owner: entity.Address, instance: f})
			}
			for _, f := range override.Factors {
				idx.addReference(f.FactorSourceID, reference{intentHash: tx.IntentHash, owner: entity.Address, instance: f})
			}
		}
	}
	return idx
}

func (idx *Index) addReference(id factors.FactorSourceID, ref reference) {
	if _, seen := idx.references[id]; !seen {
		idx.sourceOrder = append(idx.sourceOrder, id)
	}
	idx.references[id] = append(idx.references[id], ref)
}

// Transaction returns the petition for intentHash, or nil if it is
// not part of this batch.
func (idx *Index) Transaction(intentHash factors.IntentHash) *TransactionPetition {
	return idx.transactions[intentHash]
}

// Transactions returns every transaction petition in the batch, in
// declaration order.
func (idx *Index) Transactions() []*TransactionPetition {
	out := make([]*TransactionPetition, 0, len(idx.transactionOrder))
	for _, h := range idx.transactionOrder {
		out = append(out, idx.transactions[h])
	}
	return out
}

// FactorSourceIDs returns every factor source referenced anywhere in
// the batch, in first-reference order.
func (idx *Index) FactorSourceIDs() []factors.FactorSourceID {
	out := make([]factors.FactorSourceID, len(idx.sourceOrder))
	copy(out, idx.sourceOrder)
	return out
}

// References returns every (transaction, entity, instance) use of id,
// in first-seen order.
func (idx *Index) References(id factors.FactorSourceID) []struct {
	IntentHash factors.IntentHash
	Owner      factors.EntityAddress
	Instance   factors.FactorInstance
} {
	refs := idx.references[id]
	out := make([]struct {
		IntentHash factors.IntentHash
		Owner      factors.EntityAddress
		Instance   factors.FactorInstance
	}, 0, len(refs))
	for _, r := range refs {
		out = append(out, struct {
			IntentHash factors.IntentHash
			Owner      factors.EntityAddress
			Instance   factors.FactorInstance
		}{IntentHash: r.intentHash, Owner: r.owner, Instance: r.instance})
	}
	return out
}

// RecordSignedShare applies one driver-produced share to the single
// (transaction, entity) petition it was produced for. Unlike
// RecordSkip, a signature never fans out across every transaction
// referencing a source — a driver may sign a source for one
// transaction and not another (§8 S4).
func (idx *Index) RecordSignedShare(share factors.SignedShare) error {
	tx, ok := idx.transactions[share.IntentHash]
	if !ok {
		return &InvariantViolationError{FactorSourceID: share.OwnedFactorInstance.Instance.FactorSourceID.String(), Err: ErrEntityNotInTransaction}
	}
	return tx.RecordSignature(share.OwnedFactorInstance.Owner, share.OwnedFactorInstance.Instance, share.Signature)
}

// RecordSkip applies a skip to every (transaction, entity) petition
// that references id.
func (idx *Index) RecordSkip(id factors.FactorSourceID) error {
	for _, ref := range idx.references[id] {
		tx := idx.transactions[ref.intentHash]
		if err := tx.RecordSkip(ref.owner, ref.instance.FactorSourceID); err != nil {
			return err
		}
	}
	return nil
}

// StatusIfSkipped reports, for every transaction that references id,
// what its status would become if id were skipped right now, without
// mutating any state. The coordinator itself does not call this; it
// works from InvalidIfSkippedEntities instead.
func (idx *Index) StatusIfSkipped(id factors.FactorSourceID) map[factors.IntentHash]Status {
	affected := make(map[factors.IntentHash]struct{})
	for _, ref := range idx.references[id] {
		affected[ref.intentHash] = struct{}{}
	}

	out := make(map[factors.IntentHash]Status, len(affected))
	for intentHash := range affected {
		tx := idx.transactions[intentHash]
		worst := Success
		for _, entity := range tx.Entities() {
			var s Status
			if entity.Contains(id) {
				s = entity.StatusIfSkipped(id)
			} else {
				s = entity.Status()
			}
			switch s {
			case Fail:
				worst = Fail
			case InProgress:
				if worst != Fail {
					worst = InProgress
				}
			}
		}
		out[intentHash] = worst
	}
	return out
}

// InvalidIfSkippedEntities reports, per transaction referencing id,
// which entities would become permanently unsatisfiable if id were
// skipped right now. A transaction with no at-risk entities is
// omitted from the result. Used to build the §4.6 `invalid_if_skipped`
// prompt payload.
func (idx *Index) InvalidIfSkippedEntities(id factors.FactorSourceID) map[factors.IntentHash][]factors.EntityAddress {
	out := make(map[factors.IntentHash][]factors.EntityAddress)
	seen := make(map[factors.IntentHash]struct{})
	for _, ref := range idx.references[id] {
		if _, done := seen[ref.intentHash]; done {
			continue
		}
		seen[ref.intentHash] = struct{}{}

		tx := idx.transactions[ref.intentHash]
		var atRisk []factors.EntityAddress
		for _, entity := range tx.Entities() {
			if entity.Contains(id) && entity.StatusIfSkipped(id) == Fail && entity.Status() != Fail {
				atRisk = append(atRisk, entity.Address)
			}
		}
		if len(atRisk) > 0 {
			out[ref.intentHash] = atRisk
		}
	}
	return out
}

// TransactionRef is one (transaction, owned instance) use of a factor
// source, assembled in input order — the raw material the coordinator
// projects into a driver.BatchInput without petition needing to know
// about the driver package.
type TransactionRef struct {
	IntentHash     factors.IntentHash
	OwnedInstances []factors.OwnedFactorInstance
}

// InputRefs assembles, in transaction order, every (transaction,
// owned instances) pair referencing id. Transactions referencing id
// through more than one entity contribute one OwnedFactorInstance per
// entity.
func (idx *Index) InputRefs(id factors.FactorSourceID) []TransactionRef {
	byTx := make(map[factors.IntentHash]*TransactionRef)
	var order []factors.IntentHash
	for _, ref := range idx.references[id] {
		entry, ok := byTx[ref.intentHash]
		if !ok {
			entry = &TransactionRef{IntentHash: ref.intentHash}
			byTx[ref.intentHash] = entry
			order = append(order, ref.intentHash)
		}
		entry.OwnedInstances = append(entry.OwnedInstances, factors.OwnedFactorInstance{Instance: ref.instance, Owner: ref.owner})
	}
	out := make([]TransactionRef, 0, len(order))
	for _, h := range order {
		out = append(out, *byTx[h])
	}
	return out
}

// AllTerminal reports whether every transaction in the batch has
// reached a terminal status (§4.4 should_continue == Stop).
func (idx *Index) AllTerminal() bool {
	for _, h := range idx.transactionOrder {
		if !idx.transactions[h].Status().Terminal() {
			return false
		}
	}
	return true
}
