// Copyright 2025 Certen Protocol
//
// Construction-time sentinel errors for the coordinator package.
package coordinator

import "errors"

// ErrUnknownFactorSource is a construction error specific to
// reconciling New's `known` argument against the factor sources
// actually used by the batch; factors.Validate owns the entity-policy
// invariants (unknown factor sources referenced by a policy, both-
// lists membership, invalid quorum) under its own sentinel of the
// same name.
var ErrUnknownFactorSource = errors.New("coordinator: factor instance references a factor source outside the configured set")

// ErrNoDriverForKind is returned when the batch needs to prompt a
// FactorSourceKind the coordinator was not given a driver for. The
// original this core was distilled from panics in this situation
// (expect()); this surface returns a typed error instead, so an
// embedding application can decide how to degrade (supplement #4).
var ErrNoDriverForKind = errors.New("coordinator: no signing driver registered for this factor source kind")
