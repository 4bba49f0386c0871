package vaultbank_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	vaultbank "github.com/xraph/vaultbank"
	"github.com/xraph/vaultbank/access"
	custodymem "github.com/xraph/vaultbank/custody/memory"
	gwmock "github.com/xraph/vaultbank/gateway/mock"
	"github.com/xraph/vaultbank/journal"
	"github.com/xraph/vaultbank/ledger"
	storemem "github.com/xraph/vaultbank/store/memory"
	"github.com/xraph/vaultbank/types"
)

const (
	testAccount   = "vault-treasury"
	testReference = types.Asset("USDS")
	testDepositor = "alice"
)

type testFixture struct {
	bank      *vaultbank.Bank
	custodian *custodymem.Custodian
	gateway   *gwmock.Gateway
	store     *storemem.Store
}

// newTestFixture builds a bank with 1800 USDS per native unit, a
// 10,000 USDS capacity and a 1,500 USDS withdrawal threshold, funds the
// depositor with plenty of native currency, and stocks the gateway
// escrow with reference liquidity.
func newTestFixture(t *testing.T, opts ...vaultbank.Option) *testFixture {
	t.Helper()

	custodian := custodymem.New()
	gw := gwmock.New(custodian, testReference)
	gw.SetRate(types.NativeSentinel, decimal.NewFromInt(1800))

	st := storemem.New()

	bank, err := vaultbank.New(st, custodian, gw, vaultbank.Config{
		Account:        testAccount,
		ReferenceAsset: testReference,
		Capacity:       vaultbank.Units(10_000),
		Threshold:      vaultbank.Units(1_500),
	}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	custodian.Mint(types.NativeSentinel, testDepositor, decimal.NewFromInt(100))
	custodian.Mint(testReference, testDepositor, decimal.NewFromInt(100_000))
	custodian.Mint(testReference, gwmock.Escrow, decimal.NewFromInt(1_000_000))

	return &testFixture{bank: bank, custodian: custodian, gateway: gw, store: st}
}

func (f *testFixture) holding(t *testing.T, asset types.Asset, holder string) decimal.Decimal {
	t.Helper()
	bal, err := f.custodian.Balance(context.Background(), asset, holder)
	if err != nil {
		t.Fatalf("Balance(%s, %s): %v", asset, holder, err)
	}
	return bal
}

func TestDepositNative(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	rec, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("DepositNative: %v", err)
	}

	if got, want := rec.OutputAmount, vaultbank.Units(1800); got != want {
		t.Errorf("OutputAmount: got %s, want %s", got, want)
	}
	if got, want := f.bank.Balance(testDepositor), vaultbank.Units(1800); got != want {
		t.Errorf("Balance: got %s, want %s", got, want)
	}
	if got, want := f.bank.TotalDeposited(), vaultbank.Units(1800); got != want {
		t.Errorf("TotalDeposited: got %s, want %s", got, want)
	}
	if got := f.bank.DepositCount(); got != 1 {
		t.Errorf("DepositCount: got %d, want 1", got)
	}
	if rec.ID.IsNil() {
		t.Error("expected a deposit ID")
	}
	if rec.InputAsset != types.NativeSentinel {
		t.Errorf("InputAsset: got %s", rec.InputAsset)
	}

	// Conversion proceeds land in the bank's custody account.
	if got := f.holding(t, testReference, testAccount); !got.Equal(decimal.NewFromInt(1800)) {
		t.Errorf("bank reference holding: got %s, want 1800", got)
	}
}

func TestDepositReferenceBypassesGateway(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	rec, err := f.bank.DepositAsset(ctx, testDepositor, testReference, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("DepositAsset: %v", err)
	}

	if got, want := rec.OutputAmount, vaultbank.Units(500); got != want {
		t.Errorf("OutputAmount: got %s, want %s", got, want)
	}
	if got := f.gateway.Calls(); got != 0 {
		t.Errorf("gateway calls: got %d, want 0", got)
	}
	if got, want := f.bank.Balance(testDepositor), vaultbank.Units(500); got != want {
		t.Errorf("Balance: got %s, want %s", got, want)
	}
}

func TestDepositTrackedAssetThroughBridge(t *testing.T) {
	f := newTestFixture(t, vaultbank.WithBridgeAsset("WNAT"))
	ctx := context.Background()

	// 10 GEM -> 5 WNAT -> 900 USDS.
	f.custodian.Mint("GEM", testDepositor, decimal.NewFromInt(10))
	f.gateway.SetRate("GEM", decimal.RequireFromString("0.5"))
	f.gateway.SetRate("WNAT", decimal.NewFromInt(180))

	rec, err := f.bank.DepositAsset(ctx, testDepositor, "GEM", decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("DepositAsset: %v", err)
	}
	if got, want := rec.OutputAmount, vaultbank.Units(900); got != want {
		t.Errorf("OutputAmount: got %s, want %s", got, want)
	}
	if got := f.gateway.Calls(); got != 1 {
		t.Errorf("gateway calls: got %d, want 1", got)
	}
}

func TestDepositRejectsNativeViaDepositAsset(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.bank.DepositAsset(context.Background(), testDepositor, types.NativeSentinel, decimal.NewFromInt(1))
	if !errors.Is(err, vaultbank.ErrInvalidAsset) {
		t.Errorf("expected ErrInvalidAsset, got %v", err)
	}
}

func TestDepositValidation(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"zero amount", func() error {
			_, err := f.bank.DepositNative(ctx, testDepositor, decimal.Zero)
			return err
		}, vaultbank.ErrZeroAmount},
		{"negative amount", func() error {
			_, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(-1))
			return err
		}, vaultbank.ErrZeroAmount},
		{"empty depositor", func() error {
			_, err := f.bank.DepositNative(ctx, "", decimal.NewFromInt(1))
			return err
		}, vaultbank.ErrInvalidAddress},
		{"blank asset", func() error {
			_, err := f.bank.DepositAsset(ctx, testDepositor, "", decimal.NewFromInt(1))
			return err
		}, vaultbank.ErrInvalidAddress},
		{"sub-micro reference amount", func() error {
			_, err := f.bank.DepositAsset(ctx, testDepositor, testReference, decimal.RequireFromString("0.0000001"))
			return err
		}, vaultbank.ErrInvalidAsset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if got := f.bank.TotalDeposited(); !got.IsZero() {
		t.Errorf("TotalDeposited after rejected deposits: got %s, want 0", got)
	}
}

func TestDepositSwapFailureRefunds(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	f.gateway.Fail(true)

	before := f.holding(t, types.NativeSentinel, testDepositor)

	_, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(2))
	if !errors.Is(err, vaultbank.ErrSwapFailed) {
		t.Fatalf("expected ErrSwapFailed, got %v", err)
	}

	// Refund-then-fail: the depositor's input came back in full.
	after := f.holding(t, types.NativeSentinel, testDepositor)
	if !after.Equal(before) {
		t.Errorf("depositor native holding: got %s, want %s", after, before)
	}
	if got := f.bank.Balance(testDepositor); !got.IsZero() {
		t.Errorf("balance after failed swap: got %s, want 0", got)
	}
	if got := f.bank.DepositCount(); got != 0 {
		t.Errorf("DepositCount after failed swap: got %d, want 0", got)
	}
}

func TestDepositZeroOutputRejected(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	f.gateway.ZeroOutput(true)

	_, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(1))
	if !errors.Is(err, vaultbank.ErrZeroOutputReceived) {
		t.Fatalf("expected ErrZeroOutputReceived, got %v", err)
	}
	if got := f.bank.Balance(testDepositor); !got.IsZero() {
		t.Errorf("balance after zero-output swap: got %s, want 0", got)
	}

	// The gateway consumed the input; the bank keeps no residue of it
	// and its reference holding is unchanged.
	if got := f.holding(t, types.NativeSentinel, testAccount); !got.IsZero() {
		t.Errorf("bank native residue: got %s, want 0", got)
	}
	if got := f.holding(t, testReference, testAccount); !got.IsZero() {
		t.Errorf("bank reference holding: got %s, want 0", got)
	}
}

// flakyCustodian fails Balance after a set number of successful calls,
// simulating a custody backend outage mid-deposit. Transfers keep
// working so refunds can settle.
type flakyCustodian struct {
	*custodymem.Custodian
	allow int // Balance calls that still succeed; -1 never fails
}

func (c *flakyCustodian) Balance(ctx context.Context, asset types.Asset, holder string) (decimal.Decimal, error) {
	if c.allow == 0 {
		return decimal.Zero, errors.New("backend unavailable")
	}
	if c.allow > 0 {
		c.allow--
	}
	return c.Custodian.Balance(ctx, asset, holder)
}

func newFlakyFixture(t *testing.T) (*vaultbank.Bank, *flakyCustodian, *custodymem.Custodian) {
	t.Helper()

	inner := custodymem.New()
	flaky := &flakyCustodian{Custodian: inner, allow: -1}
	gw := gwmock.New(inner, testReference)
	gw.SetRate(types.NativeSentinel, decimal.NewFromInt(1800))

	bank, err := vaultbank.New(storemem.New(), flaky, gw, vaultbank.Config{
		Account:        testAccount,
		ReferenceAsset: testReference,
		Capacity:       vaultbank.Units(10_000),
		Threshold:      vaultbank.Units(1_500),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	inner.Mint(types.NativeSentinel, testDepositor, decimal.NewFromInt(5))
	inner.Mint(testReference, gwmock.Escrow, decimal.NewFromInt(1_000_000))
	return bank, flaky, inner
}

func TestDepositBalanceQueryFailureRefunds(t *testing.T) {
	bank, flaky, inner := newFlakyFixture(t)
	ctx := context.Background()

	// The pre-swap balance query fails; the input never left the bank's
	// custody, so it must come straight back.
	flaky.allow = 0
	_, err := bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(5))
	if !errors.Is(err, vaultbank.ErrSwapFailed) {
		t.Fatalf("expected ErrSwapFailed, got %v", err)
	}
	flaky.allow = -1

	got, err := inner.Balance(ctx, types.NativeSentinel, testDepositor)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("depositor native holding: got %s, want 5", got)
	}
	held, err := inner.Balance(ctx, types.NativeSentinel, testAccount)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !held.IsZero() {
		t.Errorf("bank native residue: got %s, want 0", held)
	}
	if got := bank.Balance(testDepositor); !got.IsZero() {
		t.Errorf("ledger balance: got %s, want 0", got)
	}
}

func TestDepositPostSwapBalanceFailureIsSwapFailed(t *testing.T) {
	bank, flaky, inner := newFlakyFixture(t)
	ctx := context.Background()

	// Pre-swap query succeeds, post-swap query fails. The gateway has
	// already consumed the input, so the proceeds stay custodied and
	// the ledger stays untouched.
	flaky.allow = 1
	_, err := bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(1))
	if !errors.Is(err, vaultbank.ErrSwapFailed) {
		t.Fatalf("expected ErrSwapFailed, got %v", err)
	}
	flaky.allow = -1

	if got := bank.Balance(testDepositor); !got.IsZero() {
		t.Errorf("ledger balance: got %s, want 0", got)
	}
	if got := bank.TotalDeposited(); !got.IsZero() {
		t.Errorf("TotalDeposited: got %s, want 0", got)
	}
	proceeds, err := inner.Balance(ctx, testReference, testAccount)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !proceeds.Equal(decimal.NewFromInt(1800)) {
		t.Errorf("custodied proceeds: got %s, want 1800", proceeds)
	}
}

func TestDepositCapacityRejectionRefundsProceeds(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	// Fill to 9,000 of the 10,000 capacity.
	if _, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("fill deposit: %v", err)
	}

	before := f.holding(t, testReference, testDepositor)

	// Another full native unit converts to 1,800 and would overflow.
	_, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(1))
	if !errors.Is(err, vaultbank.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	var depErr *vaultbank.DepositError
	if !errors.As(err, &depErr) {
		t.Fatal("expected a *DepositError")
	}
	if depErr.Account != testDepositor {
		t.Errorf("DepositError.Account: got %s", depErr.Account)
	}

	// Converted proceeds come back to the depositor in the reference asset.
	after := f.holding(t, testReference, testDepositor)
	if !after.Sub(before).Equal(decimal.NewFromInt(1800)) {
		t.Errorf("refunded proceeds: got %s, want 1800", after.Sub(before))
	}
	if got, want := f.bank.TotalDeposited(), vaultbank.Units(9_000); got != want {
		t.Errorf("TotalDeposited: got %s, want %s", got, want)
	}
}

func TestDepositCapacityBoundaryIsExact(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	// Exactly fill the 10,000 capacity with reference-asset deposits.
	if _, err := f.bank.DepositAsset(ctx, testDepositor, testReference, decimal.NewFromInt(10_000)); err != nil {
		t.Fatalf("exact fill: %v", err)
	}
	if got := f.bank.RemainingCapacity(); !got.IsZero() {
		t.Errorf("RemainingCapacity: got %s, want 0", got)
	}

	// One micro-unit more must be rejected.
	_, err := f.bank.DepositAsset(ctx, testDepositor, testReference, decimal.RequireFromString("0.000001"))
	if !errors.Is(err, vaultbank.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestWithdraw(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	if _, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	rec, err := f.bank.Withdraw(ctx, testDepositor, vaultbank.Units(1000))
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if got, want := rec.RemainingBalance, vaultbank.Units(800); got != want {
		t.Errorf("RemainingBalance: got %s, want %s", got, want)
	}
	if got, want := f.bank.Balance(testDepositor), vaultbank.Units(800); got != want {
		t.Errorf("Balance: got %s, want %s", got, want)
	}
	if got := f.bank.WithdrawalCount(); got != 1 {
		t.Errorf("WithdrawalCount: got %d, want 1", got)
	}

	// A second 1,000 exceeds the remaining 800.
	if _, err := f.bank.Withdraw(ctx, testDepositor, vaultbank.Units(1000)); !errors.Is(err, vaultbank.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	if got, want := f.bank.Balance(testDepositor), vaultbank.Units(800); got != want {
		t.Errorf("balance after failed withdrawal: got %s, want %s", got, want)
	}
}

func TestWithdrawThreshold(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	if _, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// Exactly the threshold passes.
	if _, err := f.bank.Withdraw(ctx, testDepositor, vaultbank.Units(1500)); err != nil {
		t.Fatalf("Withdraw at threshold: %v", err)
	}

	// One micro-unit over the threshold is rejected before the balance
	// is even consulted.
	_, err := f.bank.Withdraw(ctx, testDepositor, vaultbank.Units(1500).Add(vaultbank.Micro(1)))
	if !errors.Is(err, vaultbank.ErrThresholdExceeded) {
		t.Errorf("expected ErrThresholdExceeded, got %v", err)
	}

	if _, err := f.bank.Withdraw(ctx, testDepositor, 0); !errors.Is(err, vaultbank.ErrZeroAmount) {
		t.Errorf("expected ErrZeroAmount, got %v", err)
	}
}

func TestWithdrawTransferFailureRestoresBalance(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	if _, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// Drain the bank's reference holding so the outbound transfer fails.
	if err := f.custodian.Transfer(ctx, testReference, testAccount, "elsewhere", decimal.NewFromInt(1800)); err != nil {
		t.Fatalf("drain: %v", err)
	}

	_, err := f.bank.Withdraw(ctx, testDepositor, vaultbank.Units(1000))
	if !errors.Is(err, vaultbank.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	// The debit was rolled back.
	if got, want := f.bank.Balance(testDepositor), vaultbank.Units(1800); got != want {
		t.Errorf("balance after failed transfer: got %s, want %s", got, want)
	}
	if got := f.bank.WithdrawalCount(); got != 0 {
		t.Errorf("WithdrawalCount after failed transfer: got %d, want 0", got)
	}
}

func TestRescueAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("denied without guard", func(t *testing.T) {
		f := newTestFixture(t)
		_, err := f.bank.Rescue(ctx, "mallory", "GEM", decimal.NewFromInt(1), "mallory")
		if !errors.Is(err, vaultbank.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("granted caller moves stuck assets", func(t *testing.T) {
		guard := access.NewStatic().Grant("operator", access.PermissionRescue)
		f := newTestFixture(t, vaultbank.WithAccessGuard(guard))

		// Strand some GEM in the bank's custody account.
		f.custodian.Mint("GEM", testAccount, decimal.NewFromInt(7))

		rec, err := f.bank.Rescue(ctx, "operator", "GEM", decimal.NewFromInt(7), "recovery")
		if err != nil {
			t.Fatalf("Rescue: %v", err)
		}
		if rec.Caller != "operator" || rec.Recipient != "recovery" {
			t.Errorf("record: %+v", rec)
		}
		if got := f.holding(t, "GEM", "recovery"); !got.Equal(decimal.NewFromInt(7)) {
			t.Errorf("recovered holding: got %s, want 7", got)
		}

		// Rescue never touches ledger accounting.
		if got := f.bank.TotalDeposited(); !got.IsZero() {
			t.Errorf("TotalDeposited after rescue: got %s, want 0", got)
		}
	})

	t.Run("granted caller still needs funds present", func(t *testing.T) {
		guard := access.NewStatic().Grant("operator", access.PermissionRescue)
		f := newTestFixture(t, vaultbank.WithAccessGuard(guard))

		_, err := f.bank.Rescue(ctx, "operator", "GEM", decimal.NewFromInt(1), "recovery")
		if !errors.Is(err, vaultbank.ErrTransferFailed) {
			t.Errorf("expected ErrTransferFailed, got %v", err)
		}
	})
}

func TestBankConfigValidation(t *testing.T) {
	custodian := custodymem.New()
	gw := gwmock.New(custodian, testReference)
	st := storemem.New()

	valid := vaultbank.Config{
		Account:        testAccount,
		ReferenceAsset: testReference,
		Capacity:       vaultbank.Units(10_000),
		Threshold:      vaultbank.Units(1_500),
	}

	tests := []struct {
		name   string
		mutate func(*vaultbank.Config)
		opts   []vaultbank.Option
		want   error
	}{
		{"zero capacity", func(c *vaultbank.Config) { c.Capacity = 0 }, nil, vaultbank.ErrInvalidConfig},
		{"negative threshold", func(c *vaultbank.Config) { c.Threshold = vaultbank.Units(-1) }, nil, vaultbank.ErrInvalidConfig},
		{"empty account", func(c *vaultbank.Config) { c.Account = "" }, nil, vaultbank.ErrInvalidAddress},
		{"blank reference", func(c *vaultbank.Config) { c.ReferenceAsset = "" }, nil, vaultbank.ErrInvalidAddress},
		{"native equals reference", func(c *vaultbank.Config) {},
			[]vaultbank.Option{vaultbank.WithNativeSentinel(testReference)}, vaultbank.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := vaultbank.New(st, custodian, gw, cfg, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("nil dependencies", func(t *testing.T) {
		if _, err := vaultbank.New(nil, custodian, gw, valid); !errors.Is(err, vaultbank.ErrInvalidConfig) {
			t.Errorf("got %v, want ErrInvalidConfig", err)
		}
	})
}

func TestJournalPersistence(t *testing.T) {
	f := newTestFixture(t, vaultbank.WithJournalConfig(1, 10*time.Millisecond))
	ctx := context.Background()

	if err := f.bank.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(1)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.bank.Withdraw(ctx, testDepositor, vaultbank.Units(300)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	// The flush worker runs asynchronously; poll until both records land.
	deadline := time.Now().Add(5 * time.Second)
	for {
		deposits, err := f.bank.ListDeposits(ctx, testDepositor, journal.ListOpts{Limit: 10})
		if err != nil {
			t.Fatalf("ListDeposits: %v", err)
		}
		withdrawals, err := f.bank.ListWithdrawals(ctx, testDepositor, journal.ListOpts{Limit: 10})
		if err != nil {
			t.Fatalf("ListWithdrawals: %v", err)
		}
		if len(deposits) == 1 && len(withdrawals) == 1 {
			if got, want := deposits[0].OutputAmount, vaultbank.Units(1800); got != want {
				t.Errorf("journal OutputAmount: got %s, want %s", got, want)
			}
			if got, want := withdrawals[0].RemainingBalance, vaultbank.Units(1500); got != want {
				t.Errorf("journal RemainingBalance: got %s, want %s", got, want)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("journal never flushed: %d deposits, %d withdrawals", len(deposits), len(withdrawals))
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := f.bank.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestSnapshotRecovery(t *testing.T) {
	ctx := context.Background()

	custodian := custodymem.New()
	gw := gwmock.New(custodian, testReference)
	st := storemem.New()

	// Persist a snapshot as a previous process would have left it.
	prior := ledger.New(vaultbank.Units(10_000), vaultbank.Units(1_500))
	if err := prior.Credit(testDepositor, vaultbank.Units(4_200)); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := st.SaveSnapshot(ctx, prior.Snapshot()); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	bank, err := vaultbank.New(st, custodian, gw, vaultbank.Config{
		Account:        testAccount,
		ReferenceAsset: testReference,
		Capacity:       vaultbank.Units(10_000),
		Threshold:      vaultbank.Units(1_500),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := bank.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer bank.Stop() //nolint:errcheck

	if got, want := bank.Balance(testDepositor), vaultbank.Units(4_200); got != want {
		t.Errorf("recovered balance: got %s, want %s", got, want)
	}
	if got, want := bank.TotalDeposited(), vaultbank.Units(4_200); got != want {
		t.Errorf("recovered aggregate: got %s, want %s", got, want)
	}
}

type countingHooks struct {
	deposits          int
	withdrawals       int
	swapFailures      int
	capacityRejects   int
	lastRejectedMicro int64
}

func (h *countingHooks) Name() string { return "counting-hooks" }

func (h *countingHooks) OnDeposit(context.Context, interface{}) error {
	h.deposits++
	return nil
}

func (h *countingHooks) OnWithdrawal(context.Context, interface{}) error {
	h.withdrawals++
	return nil
}

func (h *countingHooks) OnSwapFailed(context.Context, string, string) error {
	h.swapFailures++
	return nil
}

func (h *countingHooks) OnCapacityRejected(_ context.Context, _ string, attemptedMicro int64) error {
	h.capacityRejects++
	h.lastRejectedMicro = attemptedMicro
	return nil
}

func TestPluginHooks(t *testing.T) {
	hooks := &countingHooks{}
	f := newTestFixture(t, vaultbank.WithPlugin(hooks))
	ctx := context.Background()

	if _, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.bank.Withdraw(ctx, testDepositor, vaultbank.Units(100)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	f.gateway.Fail(true)
	if _, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(1)); err == nil {
		t.Fatal("expected swap failure")
	}
	f.gateway.Fail(false)

	// 9,000 already custodied; another 1,800 overflows the 10,000 cap.
	if _, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(1)); !errors.Is(err, vaultbank.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	if hooks.deposits != 1 {
		t.Errorf("deposit hooks: got %d, want 1", hooks.deposits)
	}
	if hooks.withdrawals != 1 {
		t.Errorf("withdrawal hooks: got %d, want 1", hooks.withdrawals)
	}
	if hooks.swapFailures != 1 {
		t.Errorf("swap failure hooks: got %d, want 1", hooks.swapFailures)
	}
	if hooks.capacityRejects != 1 {
		t.Errorf("capacity rejection hooks: got %d, want 1", hooks.capacityRejects)
	}
	if want := vaultbank.Units(1800).Micro(); hooks.lastRejectedMicro != want {
		t.Errorf("rejected micro: got %d, want %d", hooks.lastRejectedMicro, want)
	}
}

func TestBalancesAreIsolatedPerAccount(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	f.custodian.Mint(types.NativeSentinel, "bob", decimal.NewFromInt(10))

	if _, err := f.bank.DepositNative(ctx, testDepositor, decimal.NewFromInt(1)); err != nil {
		t.Fatalf("alice deposit: %v", err)
	}
	if _, err := f.bank.DepositNative(ctx, "bob", decimal.NewFromInt(2)); err != nil {
		t.Fatalf("bob deposit: %v", err)
	}

	if got, want := f.bank.Balance(testDepositor), vaultbank.Units(1800); got != want {
		t.Errorf("alice balance: got %s, want %s", got, want)
	}
	if got, want := f.bank.Balance("bob"), vaultbank.Units(3600); got != want {
		t.Errorf("bob balance: got %s, want %s", got, want)
	}
	if got, want := f.bank.TotalDeposited(), vaultbank.Units(5400); got != want {
		t.Errorf("aggregate: got %s, want %s", got, want)
	}

	// Bob cannot spend Alice's funds.
	if _, err := f.bank.Withdraw(ctx, "bob", vaultbank.Units(1500).Add(vaultbank.Units(2000))); !errors.Is(err, vaultbank.ErrThresholdExceeded) {
		t.Errorf("expected ErrThresholdExceeded, got %v", err)
	}
}
