// Package vaultbank provides a single-asset custodial vault engine for Go
// applications.
//
// VaultBank is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Deposits in arbitrary assets, converted into one reference asset
//   - A global capacity ceiling enforced atomically per deposit
//   - Per-transaction withdrawal thresholds
//   - Refund-then-fail conversion semantics (no stranded depositor funds)
//   - An append-only journal with batched persistence
//   - Crash recovery from validated ledger snapshots
//   - Pluggable hooks for deposits, withdrawals, rescues and rejections
//
// # Quick Start
//
// Create a bank instance over your preferred store and custody layer:
//
//	import (
//	    "github.com/xraph/vaultbank"
//	    "github.com/xraph/vaultbank/store/postgres"
//	)
//
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	bank, err := vaultbank.New(store, custodian, gateway, vaultbank.Config{
//	    Account:        "vault-treasury",
//	    ReferenceAsset: "USDS",
//	    Capacity:       vaultbank.Units(1_000_000),
//	    Threshold:      vaultbank.Units(10_000),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start the bank (migrates the store, begins background workers)
//	if err := bank.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer bank.Stop()
//
// # Core Concepts
//
// Every balance is denominated in the reference asset, a 6-decimal
// fixed-point unit backed by int64 micro-units. Deposits in other assets
// are swapped through the exchange gateway, and the credited amount is the
// bank's measured reference balance delta across the swap, never the
// gateway's own claim:
//
//	rec, err := bank.DepositNative(ctx, "alice", decimal.NewFromInt(1))
//	// rec.OutputAmount is whatever the conversion actually yielded
//
// Withdrawals debit first, transfer second, so a reentrant observer always
// sees the decremented balance:
//
//	rec, err := bank.Withdraw(ctx, "alice", vaultbank.Units(1000))
//
// # Accounting
//
// All reference-asset arithmetic uses integer micro-units to avoid
// floating-point drift. The Amount type represents micro-units directly;
// Units(1) is one whole reference token. Arbitrary-precision amounts of
// other assets flow through shopspring/decimal at the custody boundary.
//
// # TypeID
//
// Journal records use TypeID for globally unique, type-safe identifiers:
//
//	dep_01h2xcejqtf2nbrexx3vqjhp41  // Deposit record
//	wd_01h2xcejqtf2nbrexx3vqjhp41   // Withdrawal record
//	rsc_01h455vb4pex5vsknk084sn02q  // Rescue record
//
// TypeIDs are K-sortable, giving journal listings natural time-ordering.
package vaultbank
