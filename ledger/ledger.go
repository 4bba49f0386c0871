// Package ledger holds the pure accounting state of a vault bank:
// per-account balances, the aggregate deposited value, and the operation
// counters. It performs no I/O and takes no locks; the engine serializes
// access and invokes Credit/Debit only from within the deposit and
// withdrawal pipelines.
package ledger

import (
	"errors"

	"github.com/xraph/vaultbank/types"
)

// Accounting sentinel errors. The root package re-exports these.
var (
	ErrZeroAmount          = errors.New("vaultbank: zero amount")
	ErrCapacityExceeded    = errors.New("vaultbank: bank capacity exceeded")
	ErrInsufficientBalance = errors.New("vaultbank: insufficient balance")
	ErrThresholdExceeded   = errors.New("vaultbank: withdrawal threshold exceeded")
	ErrSnapshotInvalid     = errors.New("vaultbank: ledger snapshot violates invariants")
)

// Ledger tracks reference-asset balances for all accounts.
//
// Invariant: the sum of all balances equals Aggregate at every observable
// point, and 0 <= Aggregate <= capacity.
type Ledger struct {
	balances  map[string]types.Amount
	aggregate types.Amount

	capacity  types.Amount
	threshold types.Amount

	depositCount    uint64
	withdrawalCount uint64
}

// New creates an empty Ledger with the given fixed capacity and
// per-withdrawal threshold. Both must be strictly positive; the engine
// validates that at construction.
func New(capacity, threshold types.Amount) *Ledger {
	return &Ledger{
		balances:  make(map[string]types.Amount),
		capacity:  capacity,
		threshold: threshold,
	}
}

// Credit increases the account's balance and the aggregate by amount.
// It fails with ErrZeroAmount for non-positive amounts and with
// ErrCapacityExceeded when the aggregate would overrun the bank capacity.
func (l *Ledger) Credit(account string, amount types.Amount) error {
	if !amount.IsPositive() {
		return ErrZeroAmount
	}
	if l.aggregate.Add(amount).GreaterThan(l.capacity) {
		return ErrCapacityExceeded
	}

	l.balances[account] = l.balances[account].Add(amount)
	l.aggregate = l.aggregate.Add(amount)
	l.depositCount++
	return nil
}

// Debit decreases the account's balance and the aggregate by amount.
// It fails with ErrZeroAmount for non-positive amounts, with
// ErrThresholdExceeded when amount exceeds the per-withdrawal threshold,
// and with ErrInsufficientBalance when the account cannot cover it.
func (l *Ledger) Debit(account string, amount types.Amount) error {
	if !amount.IsPositive() {
		return ErrZeroAmount
	}
	if amount.GreaterThan(l.threshold) {
		return ErrThresholdExceeded
	}
	if l.balances[account].LessThan(amount) {
		return ErrInsufficientBalance
	}

	l.balances[account] = l.balances[account].Sub(amount)
	l.aggregate = l.aggregate.Sub(amount)
	l.withdrawalCount++
	return nil
}

// Restore reverses a debit whose outbound transfer failed. It re-credits
// the account without touching the operation counters. The amount was
// part of the aggregate a moment ago, so the capacity bound cannot be
// violated.
func (l *Ledger) Restore(account string, amount types.Amount) {
	if !amount.IsPositive() {
		return
	}
	l.balances[account] = l.balances[account].Add(amount)
	l.aggregate = l.aggregate.Add(amount)
	l.withdrawalCount--
}

// Balance returns the account's current balance. Unknown accounts have a
// zero balance; entries are never deleted, only zeroed.
func (l *Ledger) Balance(account string) types.Amount {
	return l.balances[account]
}

// Aggregate returns the reference-asset total held for all accounts.
func (l *Ledger) Aggregate() types.Amount { return l.aggregate }

// Capacity returns the fixed bank capacity.
func (l *Ledger) Capacity() types.Amount { return l.capacity }

// Threshold returns the fixed per-withdrawal threshold.
func (l *Ledger) Threshold() types.Amount { return l.threshold }

// Remaining returns the unused bank capacity.
func (l *Ledger) Remaining() types.Amount { return l.capacity.Sub(l.aggregate) }

// DepositCount returns the number of successful credits.
func (l *Ledger) DepositCount() uint64 { return l.depositCount }

// WithdrawalCount returns the number of successful debits.
func (l *Ledger) WithdrawalCount() uint64 { return l.withdrawalCount }

// Snapshot is a point-in-time copy of the ledger state, used for
// persistence and restart recovery.
type Snapshot struct {
	Balances        map[string]types.Amount `json:"balances"`
	Aggregate       types.Amount            `json:"aggregate"`
	DepositCount    uint64                  `json:"deposit_count"`
	WithdrawalCount uint64                  `json:"withdrawal_count"`
	Entity          types.Entity            `json:"entity"`
}

// Snapshot copies the current state.
func (l *Ledger) Snapshot() *Snapshot {
	balances := make(map[string]types.Amount, len(l.balances))
	for account, balance := range l.balances {
		balances[account] = balance
	}
	return &Snapshot{
		Balances:        balances,
		Aggregate:       l.aggregate,
		DepositCount:    l.depositCount,
		WithdrawalCount: l.withdrawalCount,
		Entity:          types.NewEntity(),
	}
}

// RestoreSnapshot replaces the ledger state with the snapshot's. The
// snapshot aggregate must not exceed the configured capacity.
func (l *Ledger) RestoreSnapshot(s *Snapshot) error {
	if s.Aggregate.GreaterThan(l.capacity) || s.Aggregate.IsNegative() {
		return ErrSnapshotInvalid
	}

	balances := make(map[string]types.Amount, len(s.Balances))
	var sum types.Amount
	for account, balance := range s.Balances {
		if balance.IsNegative() {
			return ErrSnapshotInvalid
		}
		balances[account] = balance
		sum = sum.Add(balance)
	}
	if sum != s.Aggregate {
		return ErrSnapshotInvalid
	}

	l.balances = balances
	l.aggregate = s.Aggregate
	l.depositCount = s.DepositCount
	l.withdrawalCount = s.WithdrawalCount
	return nil
}
