package types

import (
	"fmt"
	"strings"
)

// Asset identifies a fungible asset by its platform-level identity
// (a token contract address, a ticker, or the native sentinel).
type Asset string

// NativeSentinel is the default reserved identity meaning "the platform's
// base currency" rather than a tracked asset. Banks may override it at
// construction time.
const NativeSentinel Asset = "native"

// String returns the raw asset identity.
func (a Asset) String() string { return string(a) }

// Validate checks that the identity is usable as an asset reference.
func (a Asset) Validate() error {
	s := string(a)
	if s == "" {
		return fmt.Errorf("types: empty asset identity")
	}
	if strings.ContainsAny(s, " \t\n") {
		return fmt.Errorf("types: asset identity %q contains whitespace", s)
	}
	return nil
}

// Class is the routing classification of an asset, resolved once at the
// entry of a deposit so the pipeline never re-compares identities.
type Class int

const (
	// ClassNative is the platform's base currency.
	ClassNative Class = iota
	// ClassReference is the accounting unit itself; deposits of it
	// bypass conversion entirely.
	ClassReference
	// ClassOther is any tracked asset that must be converted.
	ClassOther
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case ClassNative:
		return "native"
	case ClassReference:
		return "reference"
	default:
		return "other"
	}
}

// Classify resolves the routing class of an asset against the bank's
// fixed native sentinel and reference asset identities.
func Classify(a, native, reference Asset) Class {
	switch a {
	case native:
		return ClassNative
	case reference:
		return ClassReference
	default:
		return ClassOther
	}
}
