package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	vaultbank "github.com/xraph/vaultbank"
	"github.com/xraph/vaultbank/id"
	"github.com/xraph/vaultbank/journal"
	"github.com/xraph/vaultbank/ledger"
	"github.com/xraph/vaultbank/types"
)

func depositFor(account string) *journal.DepositRecord {
	return &journal.DepositRecord{
		ID:           id.NewDepositID(),
		Account:      account,
		InputAsset:   types.NativeSentinel,
		InputAmount:  decimal.NewFromInt(1),
		OutputAmount: types.Units(100),
		NewBalance:   types.Units(100),
		Entity:       types.NewEntity(),
	}
}

func TestAppendAndListDeposits(t *testing.T) {
	s := New()
	ctx := context.Background()

	records := []*journal.DepositRecord{
		depositFor("alice"),
		depositFor("bob"),
		depositFor("alice"),
	}
	if err := s.AppendDeposits(ctx, records); err != nil {
		t.Fatalf("AppendDeposits: %v", err)
	}

	all, err := s.ListDeposits(ctx, "", journal.ListOpts{Limit: 10})
	if err != nil {
		t.Fatalf("ListDeposits: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 deposits, got %d", len(all))
	}

	alice, err := s.ListDeposits(ctx, "alice", journal.ListOpts{Limit: 10})
	if err != nil {
		t.Fatalf("ListDeposits(alice): %v", err)
	}
	if len(alice) != 2 {
		t.Fatalf("expected 2 deposits for alice, got %d", len(alice))
	}
	for _, r := range alice {
		if r.Account != "alice" {
			t.Fatalf("account filter leaked record for %q", r.Account)
		}
	}
}

func TestListPagination(t *testing.T) {
	s := New()
	ctx := context.Background()

	var records []*journal.DepositRecord
	for i := 0; i < 5; i++ {
		records = append(records, depositFor("alice"))
	}
	if err := s.AppendDeposits(ctx, records); err != nil {
		t.Fatalf("AppendDeposits: %v", err)
	}

	tests := []struct {
		name  string
		opts  journal.ListOpts
		want  int
		first id.DepositID
	}{
		{"limit within range", journal.ListOpts{Limit: 2}, 2, records[0].ID},
		{"offset shifts window", journal.ListOpts{Limit: 2, Offset: 3}, 2, records[3].ID},
		{"offset past end", journal.ListOpts{Limit: 2, Offset: 10}, 0, id.Nil},
		{"zero limit returns rest", journal.ListOpts{Offset: 1}, 4, records[1].ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.ListDeposits(ctx, "alice", tt.opts)
			if err != nil {
				t.Fatalf("ListDeposits: %v", err)
			}
			if len(page) != tt.want {
				t.Fatalf("expected %d records, got %d", tt.want, len(page))
			}
			if tt.want > 0 && page[0].ID.String() != tt.first.String() {
				t.Fatalf("expected first record %s, got %s", tt.first, page[0].ID)
			}
		})
	}
}

func TestListWithdrawalsFiltersByAccount(t *testing.T) {
	s := New()
	ctx := context.Background()

	records := []*journal.WithdrawalRecord{
		{ID: id.NewWithdrawalID(), Account: "alice", Amount: types.Units(10), Entity: types.NewEntity()},
		{ID: id.NewWithdrawalID(), Account: "bob", Amount: types.Units(20), Entity: types.NewEntity()},
	}
	if err := s.AppendWithdrawals(ctx, records); err != nil {
		t.Fatalf("AppendWithdrawals: %v", err)
	}

	bob, err := s.ListWithdrawals(ctx, "bob", journal.ListOpts{Limit: 10})
	if err != nil {
		t.Fatalf("ListWithdrawals: %v", err)
	}
	if len(bob) != 1 || bob[0].Account != "bob" {
		t.Fatalf("expected bob's single withdrawal, got %+v", bob)
	}
}

func TestListRescues(t *testing.T) {
	s := New()
	ctx := context.Background()

	records := []*journal.RescueRecord{
		{ID: id.NewRescueID(), Caller: "operator", Asset: "GEM", Amount: decimal.NewFromInt(5), Recipient: "vault", Entity: types.NewEntity()},
	}
	if err := s.AppendRescues(ctx, records); err != nil {
		t.Fatalf("AppendRescues: %v", err)
	}

	got, err := s.ListRescues(ctx, journal.ListOpts{Limit: 10})
	if err != nil {
		t.Fatalf("ListRescues: %v", err)
	}
	if len(got) != 1 || got[0].Caller != "operator" {
		t.Fatalf("expected operator's rescue, got %+v", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.LoadSnapshot(ctx); !errors.Is(err, vaultbank.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	snap := &ledger.Snapshot{
		Balances:        map[string]types.Amount{"alice": types.Units(42)},
		Aggregate:       types.Units(42),
		DepositCount:    3,
		WithdrawalCount: 1,
		Entity:          types.NewEntity(),
	}
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got.Aggregate != types.Units(42) {
		t.Fatalf("expected aggregate 42, got %s", got.Aggregate)
	}
	if got.DepositCount != 3 || got.WithdrawalCount != 1 {
		t.Fatalf("counters not preserved: %+v", got)
	}
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := s.AppendDeposits(ctx, []*journal.DepositRecord{depositFor("alice")}); !errors.Is(err, vaultbank.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed from AppendDeposits, got %v", err)
	}
	if err := s.SaveSnapshot(ctx, &ledger.Snapshot{}); !errors.Is(err, vaultbank.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed from SaveSnapshot, got %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, vaultbank.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed from Ping, got %v", err)
	}
}
