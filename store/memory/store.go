// Package memory provides an in-memory Store for tests and demos.
package memory

import (
	"context"
	"sync"

	vaultbank "github.com/xraph/vaultbank"
	"github.com/xraph/vaultbank/journal"
	"github.com/xraph/vaultbank/ledger"
	vaultstore "github.com/xraph/vaultbank/store"
)

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	deposits    []*journal.DepositRecord
	withdrawals []*journal.WithdrawalRecord
	rescues     []*journal.RescueRecord

	snapshot *ledger.Snapshot

	closed bool
}

func New() *Store {
	return &Store{}
}

// Journal Store implementation

func (s *Store) AppendDeposits(_ context.Context, records []*journal.DepositRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return vaultbank.ErrStoreClosed
	}
	s.deposits = append(s.deposits, records...)
	return nil
}

func (s *Store) AppendWithdrawals(_ context.Context, records []*journal.WithdrawalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return vaultbank.ErrStoreClosed
	}
	s.withdrawals = append(s.withdrawals, records...)
	return nil
}

func (s *Store) AppendRescues(_ context.Context, records []*journal.RescueRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return vaultbank.ErrStoreClosed
	}
	s.rescues = append(s.rescues, records...)
	return nil
}

func (s *Store) ListDeposits(_ context.Context, account string, opts journal.ListOpts) ([]*journal.DepositRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*journal.DepositRecord, 0)
	for _, r := range s.deposits {
		if account == "" || r.Account == account {
			result = append(result, r)
		}
	}
	return pageOf(result, opts), nil
}

func (s *Store) ListWithdrawals(_ context.Context, account string, opts journal.ListOpts) ([]*journal.WithdrawalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*journal.WithdrawalRecord, 0)
	for _, r := range s.withdrawals {
		if account == "" || r.Account == account {
			result = append(result, r)
		}
	}
	return pageOf(result, opts), nil
}

func (s *Store) ListRescues(_ context.Context, opts journal.ListOpts) ([]*journal.RescueRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*journal.RescueRecord, 0, len(s.rescues))
	result = append(result, s.rescues...)
	return pageOf(result, opts), nil
}

// Snapshot Store implementation

func (s *Store) SaveSnapshot(_ context.Context, snap *ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return vaultbank.ErrStoreClosed
	}
	s.snapshot = snap
	return nil
}

func (s *Store) LoadSnapshot(_ context.Context) (*ledger.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, vaultbank.ErrNotFound
	}
	return s.snapshot, nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return vaultbank.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// pageOf applies limit/offset pagination.
func pageOf[T any](result []T, opts journal.ListOpts) []T {
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end]
}
