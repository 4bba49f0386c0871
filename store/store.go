// Package store defines the persistence interface for vault bank state.
package store

import (
	"context"

	"github.com/xraph/vaultbank/journal"
	"github.com/xraph/vaultbank/ledger"
)

// Store is the unified storage interface for the journal and the ledger
// snapshot. Journal appends happen in batches from the bank's flush
// worker; snapshot writes happen on Stop and on the snapshot interval.
type Store interface {
	// Journal methods
	AppendDeposits(ctx context.Context, records []*journal.DepositRecord) error
	AppendWithdrawals(ctx context.Context, records []*journal.WithdrawalRecord) error
	AppendRescues(ctx context.Context, records []*journal.RescueRecord) error
	ListDeposits(ctx context.Context, account string, opts journal.ListOpts) ([]*journal.DepositRecord, error)
	ListWithdrawals(ctx context.Context, account string, opts journal.ListOpts) ([]*journal.WithdrawalRecord, error)
	ListRescues(ctx context.Context, opts journal.ListOpts) ([]*journal.RescueRecord, error)

	// Snapshot methods
	SaveSnapshot(ctx context.Context, snap *ledger.Snapshot) error
	LoadSnapshot(ctx context.Context) (*ledger.Snapshot, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
