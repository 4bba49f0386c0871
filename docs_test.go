package vaultbank_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/vaultbank"
	custodymem "github.com/xraph/vaultbank/custody/memory"
	gwmock "github.com/xraph/vaultbank/gateway/mock"
	"github.com/xraph/vaultbank/store/memory"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from the package docs
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Custody and conversion backends (mocks for demo)
		custodian := custodymem.New()
		gw := gwmock.New(custodian, "USDS")
		gw.SetRate("native", decimal.NewFromInt(1800))

		custodian.Mint("native", "alice", decimal.NewFromInt(10))
		custodian.Mint("USDS", gwmock.Escrow, decimal.NewFromInt(100_000))

		// Initialize the bank
		bank, err := vaultbank.New(store, custodian, gw, vaultbank.Config{
			Account:        "vault-treasury",
			ReferenceAsset: "USDS",
			Capacity:       vaultbank.Units(1_000_000),
			Threshold:      vaultbank.Units(10_000),
		},
			vaultbank.WithLogger(slog.Default()),
			vaultbank.WithJournalConfig(100, 5*time.Second),
			vaultbank.WithSnapshotInterval(time.Minute),
		)
		if err != nil {
			t.Fatal(err)
		}

		// Start the engine
		ctx := context.Background()
		if err := bank.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer bank.Stop() //nolint:errcheck

		// Deposit base currency; the proceeds are whatever the
		// conversion actually yielded
		rec, err := bank.DepositNative(ctx, "alice", decimal.NewFromInt(1))
		if err != nil {
			t.Fatal(err)
		}
		if rec.OutputAmount != vaultbank.Units(1800) {
			t.Fatalf("output: got %s", rec.OutputAmount)
		}

		// Withdraw part of the balance
		if _, err := bank.Withdraw(ctx, "alice", vaultbank.Units(500)); err != nil {
			t.Fatal(err)
		}

		// Query state
		if got := bank.Balance("alice"); got != vaultbank.Units(1300) {
			t.Fatalf("balance: got %s", got)
		}
		if got := bank.RemainingCapacity(); got != vaultbank.Units(1_000_000)-vaultbank.Units(1300) {
			t.Fatalf("remaining: got %s", got)
		}
	})

	// Amount construction examples
	t.Run("AmountExamples", func(t *testing.T) {
		a, err := vaultbank.ParseAmount("1800.000000")
		if err != nil {
			t.Fatal(err)
		}
		if a != vaultbank.Units(1800) {
			t.Fatalf("parse: got %s", a)
		}
		if vaultbank.Micro(1).String() != "0.000001" {
			t.Fatalf("micro display: got %s", vaultbank.Micro(1))
		}
	})
}
