// Package plugin provides an extensible plugin system for Vaultbank.
// Plugins can hook into lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, bank interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Pipeline hooks
// ──────────────────────────────────────────────────

// OnDeposit is called after a deposit credits an account.
type OnDeposit interface {
	Plugin
	OnDeposit(ctx context.Context, record interface{}) error
}

// OnWithdrawal is called after a withdrawal debits an account.
type OnWithdrawal interface {
	Plugin
	OnWithdrawal(ctx context.Context, record interface{}) error
}

// OnRescue is called after a privileged rescue moves assets out.
type OnRescue interface {
	Plugin
	OnRescue(ctx context.Context, record interface{}) error
}

// OnSwapFailed is called when an exchange conversion fails and the
// depositor was refunded.
type OnSwapFailed interface {
	Plugin
	OnSwapFailed(ctx context.Context, account, asset string) error
}

// OnCapacityRejected is called when a deposit passes conversion but the
// capacity check rejects the credit.
type OnCapacityRejected interface {
	Plugin
	OnCapacityRejected(ctx context.Context, account string, attemptedMicro int64) error
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed is called when journal records are flushed to the store.
type OnJournalFlushed interface {
	Plugin
	OnJournalFlushed(ctx context.Context, count int, elapsed time.Duration) error
}

// OnSnapshotSaved is called when a ledger snapshot is persisted.
type OnSnapshotSaved interface {
	Plugin
	OnSnapshotSaved(ctx context.Context, snapshot interface{}) error
}
