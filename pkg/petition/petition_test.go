package petition

import (
	"testing"

	"github.com/certen/signum/pkg/factors"
)

func sourceID(b byte) factors.FactorSourceID {
	return factors.NewFactorSourceID([]byte{b})
}

func intentHash(b byte) factors.IntentHash {
	return factors.NewIntentHash([]byte{b})
}

func addr(v string) factors.EntityAddress {
	return factors.EntityAddress{Value: v}
}

func TestFactorListPetitionThresholdProgress(t *testing.T) {
	list := factors.FactorList{
		Factors: []factors.FactorInstance{{FactorSourceID: sourceID(1)}, {FactorSourceID: sourceID(2)}, {FactorSourceID: sourceID(3)}},
		Quorum:  factors.NewThresholdQuorum(2),
	}
	p := NewFactorListPetition(list)

	if p.Status() != InProgress {
		t.Fatalf("expected InProgress before any signature, got %v", p.Status())
	}
	if err := p.RecordSignature(factors.FactorInstance{FactorSourceID: sourceID(1)}, factors.Signature("sig1")); err != nil {
		t.Fatalf("unexpected error recording signature: %v", err)
	}
	if p.Status() != InProgress {
		t.Fatalf("expected InProgress after 1 of 2 required, got %v", p.Status())
	}
	if err := p.RecordSignature(factors.FactorInstance{FactorSourceID: sourceID(2)}, factors.Signature("sig2")); err != nil {
		t.Fatalf("unexpected error recording signature: %v", err)
	}
	if p.Status() != Success {
		t.Fatalf("expected Success once 2 of 2 required recorded, got %v", p.Status())
	}
}

func TestFactorListPetitionFailsWhenUnreachable(t *testing.T) {
	list := factors.FactorList{
		Factors: []factors.FactorInstance{{FactorSourceID: sourceID(1)}, {FactorSourceID: sourceID(2)}},
		Quorum:  factors.NewThresholdQuorum(2),
	}
	p := NewFactorListPetition(list)
	if err := p.RecordSkip(sourceID(1)); err != nil {
		t.Fatalf("unexpected error recording skip: %v", err)
	}
	if p.Status() != Fail {
		t.Fatalf("expected Fail once required count is unreachable, got %v", p.Status())
	}
}

func TestFactorListPetitionRejectsUnknownSource(t *testing.T) {
	p := NewFactorListPetition(factors.FactorList{Factors: []factors.FactorInstance{{FactorSourceID: sourceID(1)}}, Quorum: factors.NewThresholdQuorum(1)})
	err := p.RecordSignature(factors.FactorInstance{FactorSourceID: sourceID(99)}, nil)
	if err == nil {
		t.Fatal("expected error recording signature for a source not in this list")
	}
}

func TestFactorListPetitionStatusIfSkippedIsPure(t *testing.T) {
	list := factors.FactorList{
		Factors: []factors.FactorInstance{{FactorSourceID: sourceID(1)}, {FactorSourceID: sourceID(2)}},
		Quorum:  factors.NewThresholdQuorum(2),
	}
	p := NewFactorListPetition(list)
	if got := p.StatusIfSkipped(sourceID(1)); got != Fail {
		t.Fatalf("expected Fail if either factor of a 2-of-2 list were skipped, got %v", got)
	}
	if p.Status() != InProgress {
		t.Fatal("StatusIfSkipped must not mutate state")
	}
}

func TestEntityPetitionCombinesThresholdAndOverride(t *testing.T) {
	threshold := factors.FactorList{Factors: []factors.FactorInstance{{FactorSourceID: sourceID(1)}, {FactorSourceID: sourceID(2)}}, Quorum: factors.NewThresholdQuorum(2)}
	override := factors.FactorList{Factors: []factors.FactorInstance{{FactorSourceID: sourceID(3)}}, Quorum: factors.OverrideQuorum}
	entity := factors.Entity{Address: addr("e1"), Policy: factors.NewSecurifiedPolicy(threshold, override)}
	ep := NewEntityPetition(entity)

	if ep.Status() != InProgress {
		t.Fatalf("expected InProgress, got %v", ep.Status())
	}
	if err := ep.RecordSignature(factors.FactorInstance{FactorSourceID: sourceID(3)}, factors.Signature("s")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ep.Status() != Success {
		t.Fatalf("expected override alone to satisfy entity, got %v", ep.Status())
	}
}

func TestEntityPetitionFailsOnlyWhenBothListsFail(t *testing.T) {
	threshold := factors.FactorList{Factors: []factors.FactorInstance{{FactorSourceID: sourceID(1)}}, Quorum: factors.NewThresholdQuorum(1)}
	override := factors.FactorList{Factors: []factors.FactorInstance{{FactorSourceID: sourceID(2)}}, Quorum: factors.OverrideQuorum}
	entity := factors.Entity{Address: addr("e1"), Policy: factors.NewSecurifiedPolicy(threshold, override)}
	ep := NewEntityPetition(entity)

	if err := ep.RecordSkip(sourceID(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ep.Status() != InProgress {
		t.Fatalf("expected InProgress while threshold list still reachable, got %v", ep.Status())
	}
	if err := ep.RecordSkip(sourceID(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ep.Status() != Fail {
		t.Fatalf("expected Fail once both lists are unreachable, got %v", ep.Status())
	}
}

func TestTransactionPetitionStatus(t *testing.T) {
	e1 := factors.Entity{Address: addr("e1"), Policy: factors.NewUnsecuredPolicy(factors.FactorInstance{FactorSourceID: sourceID(1)})}
	e2 := factors.Entity{Address: addr("e2"), Policy: factors.NewUnsecuredPolicy(factors.FactorInstance{FactorSourceID: sourceID(2)})}
	tx := factors.Transaction{IntentHash: intentHash(1), Entities: []factors.Entity{e1, e2}}
	tp := NewTransactionPetition(tx)

	if tp.Status() != InProgress {
		t.Fatalf("expected InProgress, got %v", tp.Status())
	}
	if err := tp.RecordSignature(addr("e1"), factors.FactorInstance{FactorSourceID: sourceID(1)}, factors.Signature("s")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.Status() != InProgress {
		t.Fatalf("expected InProgress until every entity satisfied, got %v", tp.Status())
	}
	if err := tp.RecordSkip(addr("e2"), sourceID(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.Status() != Fail {
		t.Fatalf("expected Fail once any entity is unreachable, got %v", tp.Status())
	}
}

func TestIndexBuildsCrossReferencesAndDispatchesBySource(t *testing.T) {
	shared := sourceID(1)
	e1 := factors.Entity{Address: addr("e1"), Policy: factors.NewUnsecuredPolicy(factors.FactorInstance{FactorSourceID: shared})}
	e2 := factors.Entity{Address: addr("e2"), Policy: factors.NewUnsecuredPolicy(factors.FactorInstance{FactorSourceID: shared})}
	tx1 := factors.Transaction{IntentHash: intentHash(1), Entities: []factors.Entity{e1}}
	tx2 := factors.Transaction{IntentHash: intentHash(2), Entities: []factors.Entity{e2}}

	idx := Build([]factors.Transaction{tx1, tx2})

	ids := idx.FactorSourceIDs()
	if len(ids) != 1 || ids[0] != shared {
		t.Fatalf("expected single shared factor source id, got %v", ids)
	}
	refs := idx.References(shared)
	if len(refs) != 2 {
		t.Fatalf("expected the shared source to be referenced by both transactions, got %d", len(refs))
	}

	for _, tx := range idx.Transactions() {
		share := factors.SignedShare{
			IntentHash:          tx.IntentHash,
			OwnedFactorInstance: factors.OwnedFactorInstance{Instance: factors.FactorInstance{FactorSourceID: shared}, Owner: tx.Entities()[0].Address},
			Signature:           factors.Signature("s"),
		}
		if err := idx.RecordSignedShare(share); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if idx.Transaction(intentHash(1)).Status() != Success {
		t.Fatal("expected tx1 satisfied once the shared source signs")
	}
	if idx.Transaction(intentHash(2)).Status() != Success {
		t.Fatal("expected tx2 also satisfied once its own share from the shared source is recorded")
	}
}

func TestIndexStatusIfSkippedDoesNotMutate(t *testing.T) {
	e1 := factors.Entity{Address: addr("e1"), Policy: factors.NewUnsecuredPolicy(factors.FactorInstance{FactorSourceID: sourceID(1)})}
	tx := factors.Transaction{IntentHash: intentHash(1), Entities: []factors.Entity{e1}}
	idx := Build([]factors.Transaction{tx})

	statuses := idx.StatusIfSkipped(sourceID(1))
	if statuses[intentHash(1)] != Fail {
		t.Fatalf("expected Fail projection, got %v", statuses[intentHash(1)])
	}
	if idx.Transaction(intentHash(1)).Status() != InProgress {
		t.Fatal("StatusIfSkipped must not mutate index state")
	}
}
