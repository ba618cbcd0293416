// Copyright 2025 Certen Protocol
//
// Core data model: factor sources and instances, entity auth
// policies, transactions, and signed shares.
package factors

import "time"

// FactorSource is a distinct origin of signing authority known to the
// profile/store the coordinator was constructed against.
type FactorSource struct {
	ID       FactorSourceID
	Kind     FactorSourceKind
	LastUsed time.Time
}

// Less orders factor sources by kind (per KindOrder) then by LastUsed
// ascending, stable on ties. Used to build the coordinator's prompting
// order within one kind (§4.6).
func (a FactorSource) Less(b FactorSource) bool {
	if a.Kind != b.Kind {
		return kindRank(a.Kind) < kindRank(b.Kind)
	}
	return a.LastUsed.Before(b.LastUsed)
}

func kindRank(k FactorSourceKind) int {
	for i, kind := range KindOrder {
		if kind == k {
			return i
		}
	}
	return len(KindOrder)
}

// FactorInstance is a specific signing key derived from a factor
// source. Derivation detail is opaque to the core.
type FactorInstance struct {
	FactorSourceID FactorSourceID
	Derivation     []byte
}

// EntityAddressKind distinguishes the two address-bearing entity
// flavors an auth policy can belong to.
type EntityAddressKind int

const (
	EntityAddressKindAccount EntityAddressKind = iota
	EntityAddressKindIdentity
)

func (k EntityAddressKind) String() string {
	if k == EntityAddressKindIdentity {
		return "Identity"
	}
	return "Account"
}

// EntityAddress identifies an account or persona authorized to sign.
// It is comparable and safe to use as a map key.
type EntityAddress struct {
	Kind  EntityAddressKind
	Value string
}

func (a EntityAddress) String() string {
	return a.Kind.String() + ":" + a.Value
}

// OwnedFactorInstance binds a factor instance to the entity that uses
// it, which is how the coordinator correlates a signature back to the
// entity it satisfies.
type OwnedFactorInstance struct {
	Instance FactorInstance
	Owner    EntityAddress
}

// Signature is the opaque output of a signing driver.
type Signature []byte

// QuorumKind distinguishes a k-of-n threshold rule from an any-one-of
// override rule.
type QuorumKind int

const (
	QuorumThreshold QuorumKind = iota
	QuorumOverride
)

// Quorum is the rule by which a FactorList is satisfied.
type Quorum struct {
	Kind      QuorumKind
	Threshold int // meaningful only when Kind == QuorumThreshold; must be >= 1
}

// NewThresholdQuorum builds a k-of-n quorum. k must be >= 1.
func NewThresholdQuorum(k int) Quorum {
	return Quorum{Kind: QuorumThreshold, Threshold: k}
}

// OverrideQuorum is the any-one-of quorum rule.
var OverrideQuorum = Quorum{Kind: QuorumOverride, Threshold: 1}

// requiredCount returns how many signatures this quorum needs, given
// the number of factors actually present in the list it governs. An
// empty factor list paired with Override is never satisfiable (§3).
func (q Quorum) requiredCount(factorCount int) int {
	if factorCount == 0 {
		return 0
	}
	if q.Kind == QuorumOverride {
		return 1
	}
	return q.Threshold
}

// FactorList is an ordered list of factor instances governed by one
// quorum rule.
type FactorList struct {
	Factors []FactorInstance
	Quorum  Quorum
}

// Required returns how many signatures this list needs to be
// satisfied, given its own length.
func (l FactorList) Required() int {
	return l.Quorum.requiredCount(len(l.Factors))
}

// EntityAuthPolicy is either an Unsecured single factor or a
// Securified threshold+override matrix. Exactly one of Unsecured or
// Securified is set.
type EntityAuthPolicy struct {
	Unsecured  *FactorInstance
	Securified *SecurifiedPolicy
}

// SecurifiedPolicy is a quorum matrix: a threshold list (k-of-n) and
// an override list (any-one-of).
type SecurifiedPolicy struct {
	Threshold FactorList
	Override  FactorList
}

// NewUnsecuredPolicy builds the degenerate single-factor policy.
func NewUnsecuredPolicy(instance FactorInstance) EntityAuthPolicy {
	return EntityAuthPolicy{Unsecured: &instance}
}

// NewSecurifiedPolicy builds a threshold+override policy.
func NewSecurifiedPolicy(threshold, override FactorList) EntityAuthPolicy {
	return EntityAuthPolicy{Securified: &SecurifiedPolicy{Threshold: threshold, Override: override}}
}

// Normalize returns the policy as a uniform threshold+override pair,
// modeling an Unsecured entity as Threshold(1) over its single factor
// with a not-used (empty) override list, per §9's design note: there is
// no separate code path for unsecured entities anywhere downstream of
// this call.
func (p EntityAuthPolicy) Normalize() (threshold, override FactorList) {
	if p.Unsecured != nil {
		return FactorList{
				Factors: []FactorInstance{*p.Unsecured},
				Quorum:  NewThresholdQuorum(1),
			}, FactorList{
				Factors: nil,
				Quorum:  OverrideQuorum,
			}
	}
	return p.Securified.Threshold, p.Securified.Override
}

// referencedFactorSourceIDs returns every FactorSourceId the policy's
// normalized factor lists mention.
func (p EntityAuthPolicy) referencedFactorSourceIDs() []FactorSourceID {
	threshold, override := p.Normalize()
	ids := make([]FactorSourceID, 0, len(threshold.Factors)+len(override.Factors))
	for _, f := range threshold.Factors {
		ids = append(ids, f.FactorSourceID)
	}
	for _, f := range override.Factors {
		ids = append(ids, f.FactorSourceID)
	}
	return ids
}

// Entity is an account or persona authorized to sign, carrying its
// auth policy.
type Entity struct {
	Address EntityAddress
	Policy  EntityAuthPolicy
}

// Transaction names the entities that must authorize it, in the order
// their authorization should be reported.
type Transaction struct {
	IntentHash IntentHash
	Entities   []Entity
}

// SignedShare is one contribution toward a transaction's
// satisfaction: a signature over one transaction by one owned factor
// instance.
type SignedShare struct {
	IntentHash          IntentHash
	OwnedFactorInstance OwnedFactorInstance
	Signature           Signature
}
