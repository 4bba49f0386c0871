package vaultbank

import "github.com/xraph/vaultbank/types"

// Re-export common types for convenience so users don't have to import types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Asset is re-exported from types package.
type Asset = types.Asset

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Amount constructors
var (
	Units       = types.Units
	Micro       = types.Micro
	ParseAmount = types.ParseAmount
	FromDecimal = types.FromDecimal
	SumAmounts  = types.SumAmounts
)

// NativeSentinelAsset is the default identity meaning "the platform's
// base currency".
const NativeSentinelAsset = types.NativeSentinel

// Re-export Entity constructor
var NewEntity = types.NewEntity
