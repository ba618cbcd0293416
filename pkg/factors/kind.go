// Copyright 2025 Certen Protocol
//
// Package factors holds the core data model consumed by the signature
// collection coordinator: factor sources and instances, entity auth
// policies, transactions, and the signed shares they collect.
package factors

import "fmt"

// FactorSourceKind identifies the physical or interactive origin of a
// signing capability. The ordering below is a domain constant, not a
// runtime setting: the coordinator always prompts kinds in this order
// so that hardware likely to "fail fast" (not present) is asked for
// before expensive interactive prompts such as security questions.
type FactorSourceKind int

const (
	FactorSourceKindLedger FactorSourceKind = iota
	FactorSourceKindArculus
	FactorSourceKindSecurityQuestions
	FactorSourceKindOffDeviceMnemonic
	FactorSourceKindDevice

	numFactorSourceKinds
)

// KindOrder is the fixed prompting order for factor source kinds.
var KindOrder = []FactorSourceKind{
	FactorSourceKindLedger,
	FactorSourceKindArculus,
	FactorSourceKindSecurityQuestions,
	FactorSourceKindOffDeviceMnemonic,
	FactorSourceKindDevice,
}

func (k FactorSourceKind) String() string {
	switch k {
	case FactorSourceKindLedger:
		return "Ledger"
	case FactorSourceKindArculus:
		return "Arculus"
	case FactorSourceKindSecurityQuestions:
		return "SecurityQuestions"
	case FactorSourceKindOffDeviceMnemonic:
		return "OffDeviceMnemonic"
	case FactorSourceKindDevice:
		return "Device"
	default:
		return fmt.Sprintf("FactorSourceKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the closed set of known kinds.
func (k FactorSourceKind) Valid() bool {
	return k >= FactorSourceKindLedger && k < numFactorSourceKinds
}
