package vaultbank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/vaultbank/access"
	"github.com/xraph/vaultbank/custody"
	"github.com/xraph/vaultbank/gateway"
	"github.com/xraph/vaultbank/id"
	"github.com/xraph/vaultbank/journal"
	"github.com/xraph/vaultbank/ledger"
	"github.com/xraph/vaultbank/plugin"
	"github.com/xraph/vaultbank/store"
	"github.com/xraph/vaultbank/types"
)

// Config holds the fixed identities and limits of a Bank. All fields are
// immutable after construction.
type Config struct {
	// Account is the bank's own custody account, the recipient of
	// transfers-in and conversion proceeds.
	Account string

	// ReferenceAsset is the single accounting unit all balances are
	// denominated in.
	ReferenceAsset types.Asset

	// Capacity is the global ceiling on aggregate custodied value.
	Capacity types.Amount

	// Threshold is the maximum amount removable in one withdrawal.
	Threshold types.Amount
}

// Bank is the custodial vault engine. It accepts deposits in arbitrary
// assets, converts them into the reference asset through the exchange
// gateway, and pays withdrawals back out, keeping the ledger invariants
// intact at every observable point.
type Bank struct {
	store     store.Store
	custodian custody.Custodian
	gateway   gateway.Gateway
	guard     access.Guard
	plugins   *plugin.Registry
	logger    *slog.Logger

	// mu is the reentrancy guard: every state-mutating entry point holds
	// it across its external calls, so no nested invocation can observe
	// or mutate in-flight state.
	mu     sync.Mutex
	ledger *ledger.Ledger

	account   string
	reference types.Asset
	native    types.Asset
	bridge    types.Asset

	// Background workers
	journalBuffer chan any
	stopChan      chan struct{}
	wg            sync.WaitGroup

	// Configuration
	journalBatchSize     int
	journalFlushInterval time.Duration
	snapshotInterval     time.Duration
	swapDeadline         time.Duration
	skipMigrate          bool
}

// New creates a Bank over the given store and capability implementations.
// Capacity and threshold must be strictly positive, and the reference
// asset must be a valid identity distinct from the native sentinel.
func New(s store.Store, custodian custody.Custodian, gw gateway.Gateway, cfg Config, opts ...Option) (*Bank, error) {
	if s == nil || custodian == nil || gw == nil {
		return nil, fmt.Errorf("%w: store, custodian and gateway are required", ErrInvalidConfig)
	}
	if !cfg.Capacity.IsPositive() {
		return nil, fmt.Errorf("%w: capacity must be strictly positive", ErrInvalidConfig)
	}
	if !cfg.Threshold.IsPositive() {
		return nil, fmt.Errorf("%w: withdrawal threshold must be strictly positive", ErrInvalidConfig)
	}
	if cfg.Account == "" {
		return nil, fmt.Errorf("%w: bank custody account is required", ErrInvalidAddress)
	}
	if err := cfg.ReferenceAsset.Validate(); err != nil {
		return nil, fmt.Errorf("%w: reference asset: %v", ErrInvalidAddress, err)
	}

	b := &Bank{
		store:     s,
		custodian: custodian,
		gateway:   gw,
		guard:     access.DenyAll(),
		plugins:   plugin.NewRegistry(),
		logger:    slog.Default(),

		ledger: ledger.New(cfg.Capacity, cfg.Threshold),

		account:   cfg.Account,
		reference: cfg.ReferenceAsset,
		native:    types.NativeSentinel,

		journalBuffer: make(chan any, 10000),
		stopChan:      make(chan struct{}),

		journalBatchSize:     100,
		journalFlushInterval: 5 * time.Second,
		snapshotInterval:     time.Minute,
		swapDeadline:         30 * time.Second,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.native == b.reference {
		return nil, fmt.Errorf("%w: native sentinel equals reference asset", ErrInvalidConfig)
	}

	return b, nil
}

// Option configures a Bank instance.
type Option func(*Bank)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bank) {
		b.logger = logger
		b.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(b *Bank) {
		_ = b.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithAccessGuard sets the guard consulted for privileged operations.
// Without one, every rescue is denied.
func WithAccessGuard(g access.Guard) Option {
	return func(b *Bank) {
		b.guard = g
	}
}

// WithNativeSentinel overrides the identity meaning "the platform's base
// currency".
func WithNativeSentinel(asset types.Asset) Option {
	return func(b *Bank) {
		b.native = asset
	}
}

// WithBridgeAsset sets the intermediate hop for conversions of tracked
// assets. Without one, tracked assets convert directly to the reference
// asset.
func WithBridgeAsset(asset types.Asset) Option {
	return func(b *Bank) {
		b.bridge = asset
	}
}

// WithJournalConfig configures journal flushing parameters.
func WithJournalConfig(batchSize int, flushInterval time.Duration) Option {
	return func(b *Bank) {
		b.journalBatchSize = batchSize
		b.journalFlushInterval = flushInterval
	}
}

// WithSnapshotInterval sets how often the ledger snapshot is persisted.
func WithSnapshotInterval(interval time.Duration) Option {
	return func(b *Bank) {
		b.snapshotInterval = interval
	}
}

// WithSwapDeadline sets the deadline handed to the exchange gateway for
// each conversion.
func WithSwapDeadline(d time.Duration) Option {
	return func(b *Bank) {
		b.swapDeadline = d
	}
}

// WithoutMigration makes Start skip store migration. Use when migrations
// run out of band.
func WithoutMigration() Option {
	return func(b *Bank) {
		b.skipMigrate = true
	}
}

// Start migrates the store, recovers the ledger from the latest snapshot
// if one exists, and begins background workers.
func (b *Bank) Start(ctx context.Context) error {
	if !b.skipMigrate {
		if err := b.store.Migrate(ctx); err != nil {
			return err
		}
	}

	if snap, err := b.store.LoadSnapshot(ctx); err == nil {
		if err := b.ledger.RestoreSnapshot(snap); err != nil {
			return err
		}
		b.logger.Info("ledger recovered from snapshot",
			"aggregate", b.ledger.Aggregate(),
			"accounts", len(snap.Balances),
		)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	b.plugins.EmitInit(ctx, b)

	b.wg.Add(2)
	go b.journalFlushWorker(ctx)
	go b.snapshotWorker(ctx)

	b.logger.Info("bank started",
		"reference_asset", b.reference,
		"capacity", b.ledger.Capacity(),
		"threshold", b.ledger.Threshold(),
	)

	return nil
}

// Stop drains the journal, persists a final snapshot, and shuts down.
func (b *Bank) Stop() error {
	close(b.stopChan)
	b.wg.Wait()

	ctx := context.Background()

	b.mu.Lock()
	snap := b.ledger.Snapshot()
	b.mu.Unlock()

	if err := b.store.SaveSnapshot(ctx, snap); err != nil {
		b.logger.Error("failed to save final snapshot", "error", err)
	}

	b.plugins.EmitShutdown(ctx)

	return b.store.Close()
}

// ──────────────────────────────────────────────────
// Deposit Pipeline
// ──────────────────────────────────────────────────

// DepositNative deposits amount of the platform's base currency for the
// depositor. The amount is converted into the reference asset through
// the gateway and the depositor's balance is credited with the proceeds.
func (b *Bank) DepositNative(ctx context.Context, depositor string, amount decimal.Decimal) (*journal.DepositRecord, error) {
	return b.deposit(ctx, depositor, b.native, amount)
}

// DepositAsset deposits amount of a tracked asset the depositor has
// pre-authorized the bank to move. The native sentinel is rejected;
// callers deposit base currency through DepositNative.
func (b *Bank) DepositAsset(ctx context.Context, depositor string, asset types.Asset, amount decimal.Decimal) (*journal.DepositRecord, error) {
	if asset == b.native {
		return nil, fmt.Errorf("%w: use DepositNative for the native asset", ErrInvalidAsset)
	}
	return b.deposit(ctx, depositor, asset, amount)
}

func (b *Bank) deposit(ctx context.Context, depositor string, asset types.Asset, amount decimal.Decimal) (*journal.DepositRecord, error) {
	if depositor == "" {
		return nil, ErrInvalidAddress
	}
	if err := asset.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if !amount.IsPositive() {
		return nil, ErrZeroAmount
	}

	// Resolve the routing class once; the pipeline never re-compares
	// identities after this point.
	class := types.Classify(asset, b.native, b.reference)

	// A reference-asset deposit bypasses conversion, so its amount must
	// already be representable at the reference precision. Checked before
	// any transfer so nothing needs unwinding.
	var direct types.Amount
	if class == types.ClassReference {
		var err error
		direct, err = types.FromDecimal(amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Transfer-in: take custody of the deposit.
	if err := b.custodian.Transfer(ctx, asset, depositor, b.account, amount); err != nil {
		return nil, fmt.Errorf("%w: transfer-in: %v", ErrTransferFailed, err)
	}

	var output types.Amount
	switch class {
	case types.ClassReference:
		output = direct

	default:
		converted, err := b.convert(ctx, depositor, asset, amount)
		if err != nil {
			return nil, err
		}
		output = converted
	}

	if err := b.ledger.Credit(depositor, output); err != nil {
		// The conversion already completed, so the bank custodies the
		// proceeds. Refund them rather than stranding depositor value
		// behind a capacity rejection.
		b.refundProceeds(ctx, depositor, class, asset, amount, output)
		b.plugins.EmitCapacityRejected(ctx, depositor, output.Micro())
		return nil, &DepositError{Account: depositor, Asset: asset.String(), Err: err}
	}

	record := &journal.DepositRecord{
		ID:           id.NewDepositID(),
		Account:      depositor,
		InputAsset:   asset,
		InputAmount:  amount,
		OutputAmount: output,
		NewBalance:   b.ledger.Balance(depositor),
		Entity:       types.NewEntity(),
	}
	if err := b.appendJournal(record); err != nil {
		b.logger.Error("journal record dropped", "record_id", record.ID, "error", err)
	}
	b.plugins.EmitDeposit(ctx, record)

	b.logger.Info("deposit credited",
		"account", depositor,
		"input_asset", asset,
		"input_amount", amount,
		"output_amount", output,
		"new_balance", record.NewBalance,
	)

	return record, nil
}

// convert swaps a custodied deposit into the reference asset and returns
// the proceeds, measured empirically as the bank's reference balance
// delta across the gateway call. The gateway's own accounting is never
// trusted.
func (b *Bank) convert(ctx context.Context, depositor string, asset types.Asset, amount decimal.Decimal) (types.Amount, error) {
	pre, err := b.custodian.Balance(ctx, b.reference, b.account)
	if err != nil {
		// The swap never started, so the input is still custodied here
		// and goes straight back.
		b.refundInput(ctx, depositor, asset, amount)
		b.plugins.EmitSwapFailed(ctx, depositor, asset.String())
		return 0, fmt.Errorf("%w: balance query: %v", ErrSwapFailed, err)
	}

	swap := gateway.Swap{
		Route:     b.route(asset),
		Amount:    amount,
		Recipient: b.account,
		Deadline:  time.Now().Add(b.swapDeadline),
	}
	if err := b.gateway.Convert(ctx, swap); err != nil {
		b.refundInput(ctx, depositor, asset, amount)
		b.plugins.EmitSwapFailed(ctx, depositor, asset.String())
		return 0, fmt.Errorf("%w: %v", ErrSwapFailed, err)
	}

	post, err := b.custodian.Balance(ctx, b.reference, b.account)
	if err != nil {
		// The gateway consumed the input and the proceeds are now
		// unmeasurable; nothing can be refunded safely.
		b.logger.Error("swap proceeds stranded: balance query failed after swap",
			"account", depositor,
			"asset", asset,
			"amount", amount,
			"error", err,
		)
		b.plugins.EmitSwapFailed(ctx, depositor, asset.String())
		return 0, fmt.Errorf("%w: balance query: %v", ErrSwapFailed, err)
	}

	delta := post.Sub(pre)
	output, err := types.FromDecimal(delta.Truncate(types.AmountDecimals))
	if err != nil {
		// Proceeds landed but the ledger cannot represent them; return
		// them instead of keeping uncreditable value.
		if delta.IsPositive() {
			if rerr := b.custodian.Transfer(ctx, b.reference, b.account, depositor, delta); rerr != nil {
				b.logger.Error("swap proceeds stranded: refund did not complete",
					"account", depositor,
					"proceeds", delta,
					"error", rerr,
				)
			}
		}
		b.plugins.EmitSwapFailed(ctx, depositor, asset.String())
		return 0, fmt.Errorf("%w: %v", ErrSwapFailed, err)
	}
	if output.IsZero() {
		// A swap that "succeeds" without yielding proceeds signals a
		// pathological market state, not a legitimate zero deposit. The
		// gateway already took the input, so there is nothing to refund.
		b.logger.Warn("zero-output swap consumed deposit",
			"account", depositor,
			"asset", asset,
			"amount", amount,
		)
		return 0, ErrZeroOutputReceived
	}
	return output, nil
}

// refundInput returns a custodied input asset to its depositor after a
// conversion could not proceed. Refund-then-fail: input funds must
// never be stranded in the bank.
func (b *Bank) refundInput(ctx context.Context, depositor string, asset types.Asset, amount decimal.Decimal) {
	if err := b.custodian.Transfer(ctx, asset, b.account, depositor, amount); err != nil {
		b.logger.Error("refund after failed swap did not complete",
			"account", depositor,
			"asset", asset,
			"amount", amount,
			"error", err,
		)
	}
}

// route builds the conversion path for an asset: base currency converts
// directly, tracked assets hop through the bridge asset when one is
// configured.
func (b *Bank) route(asset types.Asset) []types.Asset {
	if asset == b.native || b.bridge == "" || asset == b.bridge {
		return []types.Asset{asset, b.reference}
	}
	return []types.Asset{asset, b.bridge, b.reference}
}

// refundProceeds returns what the bank custodies for a rejected deposit:
// the original input for a reference-asset deposit, the converted
// proceeds otherwise.
func (b *Bank) refundProceeds(ctx context.Context, depositor string, class types.Class, asset types.Asset, input decimal.Decimal, output types.Amount) {
	refundAsset, refundAmount := b.reference, output.Decimal()
	if class == types.ClassReference {
		refundAsset, refundAmount = asset, input
	}
	if err := b.custodian.Transfer(ctx, refundAsset, b.account, depositor, refundAmount); err != nil {
		b.logger.Error("refund after capacity rejection did not complete",
			"account", depositor,
			"asset", refundAsset,
			"amount", refundAmount,
			"error", err,
		)
	}
}

// ──────────────────────────────────────────────────
// Withdrawal Pipeline
// ──────────────────────────────────────────────────

// Withdraw debits the account and transfers the reference asset out.
// The debit happens strictly before the outbound transfer, so any
// reentrant call during the transfer observes the decremented balance.
func (b *Bank) Withdraw(ctx context.Context, account string, amount types.Amount) (*journal.WithdrawalRecord, error) {
	if account == "" {
		return nil, ErrInvalidAddress
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ledger.Debit(account, amount); err != nil {
		return nil, err
	}

	if err := b.custodian.Transfer(ctx, b.reference, b.account, account, amount.Decimal()); err != nil {
		b.ledger.Restore(account, amount)
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	record := &journal.WithdrawalRecord{
		ID:               id.NewWithdrawalID(),
		Account:          account,
		Amount:           amount,
		RemainingBalance: b.ledger.Balance(account),
		Entity:           types.NewEntity(),
	}
	if err := b.appendJournal(record); err != nil {
		b.logger.Error("journal record dropped", "record_id", record.ID, "error", err)
	}
	b.plugins.EmitWithdrawal(ctx, record)

	b.logger.Info("withdrawal completed",
		"account", account,
		"amount", amount,
		"remaining_balance", record.RemainingBalance,
	)

	return record, nil
}

// ──────────────────────────────────────────────────
// Rescue
// ──────────────────────────────────────────────────

// Rescue moves a stuck asset out of the bank's custody, bypassing ledger
// accounting entirely. It requires the rescue permission and exists as
// an administrative escape hatch, not a core operation.
func (b *Bank) Rescue(ctx context.Context, caller string, asset types.Asset, amount decimal.Decimal, recipient string) (*journal.RescueRecord, error) {
	if caller == "" || recipient == "" {
		return nil, ErrInvalidAddress
	}
	if err := asset.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if !b.guard.Allowed(ctx, caller, access.PermissionRescue) {
		return nil, ErrUnauthorized
	}
	if !amount.IsPositive() {
		return nil, ErrZeroAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.custodian.Transfer(ctx, asset, b.account, recipient, amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	record := &journal.RescueRecord{
		ID:        id.NewRescueID(),
		Caller:    caller,
		Asset:     asset,
		Amount:    amount,
		Recipient: recipient,
		Entity:    types.NewEntity(),
	}
	if err := b.appendJournal(record); err != nil {
		b.logger.Error("journal record dropped", "record_id", record.ID, "error", err)
	}
	b.plugins.EmitRescue(ctx, record)

	b.logger.Warn("assets rescued from custody",
		"caller", caller,
		"asset", asset,
		"amount", amount,
		"recipient", recipient,
	)

	return record, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// Balance returns the account's reference-asset balance.
func (b *Bank) Balance(account string) types.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.Balance(account)
}

// TotalDeposited returns the aggregate deposited value.
func (b *Bank) TotalDeposited() types.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.Aggregate()
}

// RemainingCapacity returns the unused bank capacity.
func (b *Bank) RemainingCapacity() types.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.Remaining()
}

// DepositCount returns the number of successful deposits.
func (b *Bank) DepositCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.DepositCount()
}

// WithdrawalCount returns the number of successful withdrawals.
func (b *Bank) WithdrawalCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.WithdrawalCount()
}

// Capacity returns the fixed bank capacity.
func (b *Bank) Capacity() types.Amount { return b.ledger.Capacity() }

// Threshold returns the fixed per-withdrawal threshold.
func (b *Bank) Threshold() types.Amount { return b.ledger.Threshold() }

// ReferenceAsset returns the fixed accounting unit.
func (b *Bank) ReferenceAsset() types.Asset { return b.reference }

// NativeSentinel returns the identity meaning "the platform's base
// currency".
func (b *Bank) NativeSentinel() types.Asset { return b.native }

// GatewayAddress returns the exchange gateway's platform identity.
func (b *Bank) GatewayAddress() string { return b.gateway.Address() }

// ListDeposits returns persisted deposit records, newest last. An empty
// account matches all accounts.
func (b *Bank) ListDeposits(ctx context.Context, account string, opts journal.ListOpts) ([]*journal.DepositRecord, error) {
	return b.store.ListDeposits(ctx, account, opts)
}

// ListWithdrawals returns persisted withdrawal records, newest last.
func (b *Bank) ListWithdrawals(ctx context.Context, account string, opts journal.ListOpts) ([]*journal.WithdrawalRecord, error) {
	return b.store.ListWithdrawals(ctx, account, opts)
}

// ListRescues returns persisted rescue records.
func (b *Bank) ListRescues(ctx context.Context, opts journal.ListOpts) ([]*journal.RescueRecord, error) {
	return b.store.ListRescues(ctx, opts)
}

// ──────────────────────────────────────────────────
// Background workers
// ──────────────────────────────────────────────────

// appendJournal enqueues a record for asynchronous persistence. The
// journal is observational; a full buffer drops the record rather than
// failing an operation whose state mutation already committed.
func (b *Bank) appendJournal(record any) error {
	select {
	case b.journalBuffer <- record:
		return nil
	default:
		return ErrJournalBufferFull
	}
}

// journalFlushWorker flushes journal records to the store in batches.
func (b *Bank) journalFlushWorker(ctx context.Context) {
	defer b.wg.Done()

	batch := make([]any, 0, b.journalBatchSize)
	ticker := time.NewTicker(b.journalFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			// Drain whatever is still buffered, then final flush.
			for {
				select {
				case record := <-b.journalBuffer:
					batch = append(batch, record)
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				b.flushJournalBatch(ctx, batch)
			}
			return

		case record := <-b.journalBuffer:
			batch = append(batch, record)
			if len(batch) >= b.journalBatchSize {
				b.flushJournalBatch(ctx, batch)
				batch = make([]any, 0, b.journalBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				b.flushJournalBatch(ctx, batch)
				batch = make([]any, 0, b.journalBatchSize)
			}
		}
	}
}

func (b *Bank) flushJournalBatch(ctx context.Context, batch []any) {
	start := time.Now()

	var (
		deposits    []*journal.DepositRecord
		withdrawals []*journal.WithdrawalRecord
		rescues     []*journal.RescueRecord
	)
	for _, record := range batch {
		switch r := record.(type) {
		case *journal.DepositRecord:
			deposits = append(deposits, r)
		case *journal.WithdrawalRecord:
			withdrawals = append(withdrawals, r)
		case *journal.RescueRecord:
			rescues = append(rescues, r)
		}
	}

	if err := b.appendBatches(ctx, deposits, withdrawals, rescues); err != nil {
		b.logger.Error("failed to flush journal batch",
			"error", err,
			"batch_size", len(batch),
		)
		return
	}

	elapsed := time.Since(start)
	b.plugins.EmitJournalFlushed(ctx, len(batch), elapsed)

	b.logger.Debug("flushed journal batch",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

func (b *Bank) appendBatches(ctx context.Context, deposits []*journal.DepositRecord, withdrawals []*journal.WithdrawalRecord, rescues []*journal.RescueRecord) error {
	if len(deposits) > 0 {
		if err := b.store.AppendDeposits(ctx, deposits); err != nil {
			return err
		}
	}
	if len(withdrawals) > 0 {
		if err := b.store.AppendWithdrawals(ctx, withdrawals); err != nil {
			return err
		}
	}
	if len(rescues) > 0 {
		if err := b.store.AppendRescues(ctx, rescues); err != nil {
			return err
		}
	}
	return nil
}

// snapshotWorker periodically persists the ledger snapshot.
func (b *Bank) snapshotWorker(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.mu.Lock()
			snap := b.ledger.Snapshot()
			b.mu.Unlock()

			if err := b.store.SaveSnapshot(ctx, snap); err != nil {
				b.logger.Error("failed to save snapshot", "error", err)
				continue
			}
			b.plugins.EmitSnapshotSaved(ctx, snap)
		}
	}
}
