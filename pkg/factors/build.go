// Copyright 2025 Certen Protocol
//
// Batch-wide construction-time validation for the factors package.
package factors

import "fmt"

// KnownSources indexes the factor sources a coordinator was configured
// with, by ID.
type KnownSources map[FactorSourceID]FactorSource

// NewKnownSources indexes a flat slice of factor sources by ID.
func NewKnownSources(sources []FactorSource) KnownSources {
	known := make(KnownSources, len(sources))
	for _, s := range sources {
		known[s.ID] = s
	}
	return known
}

// Validate checks the §3 invariants that must hold before any
// petition bookkeeping is built: transactions is non-empty, every
// factor instance referenced by an entity policy maps to a known
// factor source, and no factor source appears in both the threshold
// and override lists of the same entity.
func Validate(transactions []Transaction, known KnownSources) error {
	if len(transactions) == 0 {
		return ErrEmptyTransactionSet
	}
	for _, tx := range transactions {
		for _, entity := range tx.Entities {
			if err := validateEntityPolicy(entity, known); err != nil {
				return fmt.Errorf("transaction %s, entity %s: %w", tx.IntentHash, entity.Address, err)
			}
		}
	}
	return nil
}

func validateEntityPolicy(entity Entity, known KnownSources) error {
	threshold, override := entity.Policy.Normalize()

	if threshold.Quorum.Kind == QuorumThreshold && threshold.Quorum.Threshold < 1 {
		return fmt.Errorf("%w: threshold %d", ErrInvalidQuorum, threshold.Quorum.Threshold)
	}

	thresholdIDs := make(map[FactorSourceID]struct{}, len(threshold.Factors))
	for _, f := range threshold.Factors {
		if _, ok := known[f.FactorSourceID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFactorSource, f.FactorSourceID)
		}
		thresholdIDs[f.FactorSourceID] = struct{}{}
	}
	for _, f := range override.Factors {
		if _, ok := known[f.FactorSourceID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFactorSource, f.FactorSourceID)
		}
		if _, inThreshold := thresholdIDs[f.FactorSourceID]; inThreshold {
			return fmt.Errorf("%w: %s", ErrFactorSourceInBothLists, f.FactorSourceID)
		}
	}
	return nil
}

// UsedFactorSourceIDs returns the set of factor source IDs actually
// referenced by any entity across transactions, used by the
// coordinator to restrict driver dispatch to sources that matter
// (§4.6 step 1).
func UsedFactorSourceIDs(transactions []Transaction) []FactorSourceID {
	seen := make(map[FactorSourceID]struct{})
	var ordered []FactorSourceID
	for _, tx := range transactions {
		for _, entity := range tx.Entities {
			for _, id := range entity.Policy.referencedFactorSourceIDs() {
				if id.IsZero() {
					continue
				}
				if _, ok := seen[id]; !ok {
					seen[id] = struct{}{}
					ordered = append(ordered, id)
				}
			}
		}
	}
	return ordered
}
