package mongo

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xraph/grove"

	"github.com/xraph/vaultbank/id"
	"github.com/xraph/vaultbank/journal"
	"github.com/xraph/vaultbank/ledger"
	"github.com/xraph/vaultbank/types"
)

// ==================== Deposit models ====================

type depositModel struct {
	grove.BaseModel `grove:"table:vaultbank_deposits"`

	ID                string    `grove:"id,pk"               bson:"_id"`
	Account           string    `grove:"account"             bson:"account"`
	InputAsset        string    `grove:"input_asset"         bson:"input_asset"`
	InputAmount       string    `grove:"input_amount"        bson:"input_amount"`
	OutputAmountMicro int64     `grove:"output_amount_micro" bson:"output_amount_micro"`
	NewBalanceMicro   int64     `grove:"new_balance_micro"   bson:"new_balance_micro"`
	CreatedAt         time.Time `grove:"created_at"          bson:"created_at"`
	UpdatedAt         time.Time `grove:"updated_at"          bson:"updated_at"`
}

func toDepositModel(r *journal.DepositRecord) *depositModel {
	return &depositModel{
		ID:                r.ID.String(),
		Account:           r.Account,
		InputAsset:        r.InputAsset.String(),
		InputAmount:       r.InputAmount.String(),
		OutputAmountMicro: r.OutputAmount.Micro(),
		NewBalanceMicro:   r.NewBalance.Micro(),
		CreatedAt:         r.Entity.CreatedAt,
		UpdatedAt:         r.Entity.UpdatedAt,
	}
}

func fromDepositModel(m *depositModel) (*journal.DepositRecord, error) {
	recordID, err := id.ParseDepositID(m.ID)
	if err != nil {
		return nil, err
	}
	inputAmount, err := decimal.NewFromString(m.InputAmount)
	if err != nil {
		return nil, err
	}

	return &journal.DepositRecord{
		ID:           recordID,
		Account:      m.Account,
		InputAsset:   types.Asset(m.InputAsset),
		InputAmount:  inputAmount,
		OutputAmount: types.Micro(m.OutputAmountMicro),
		NewBalance:   types.Micro(m.NewBalanceMicro),
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}, nil
}

// ==================== Withdrawal models ====================

type withdrawalModel struct {
	grove.BaseModel `grove:"table:vaultbank_withdrawals"`

	ID                    string    `grove:"id,pk"                   bson:"_id"`
	Account               string    `grove:"account"                 bson:"account"`
	AmountMicro           int64     `grove:"amount_micro"            bson:"amount_micro"`
	RemainingBalanceMicro int64     `grove:"remaining_balance_micro" bson:"remaining_balance_micro"`
	CreatedAt             time.Time `grove:"created_at"              bson:"created_at"`
	UpdatedAt             time.Time `grove:"updated_at"              bson:"updated_at"`
}

func toWithdrawalModel(r *journal.WithdrawalRecord) *withdrawalModel {
	return &withdrawalModel{
		ID:                    r.ID.String(),
		Account:               r.Account,
		AmountMicro:           r.Amount.Micro(),
		RemainingBalanceMicro: r.RemainingBalance.Micro(),
		CreatedAt:             r.Entity.CreatedAt,
		UpdatedAt:             r.Entity.UpdatedAt,
	}
}

func fromWithdrawalModel(m *withdrawalModel) (*journal.WithdrawalRecord, error) {
	recordID, err := id.ParseWithdrawalID(m.ID)
	if err != nil {
		return nil, err
	}

	return &journal.WithdrawalRecord{
		ID:               recordID,
		Account:          m.Account,
		Amount:           types.Micro(m.AmountMicro),
		RemainingBalance: types.Micro(m.RemainingBalanceMicro),
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}, nil
}

// ==================== Rescue models ====================

type rescueModel struct {
	grove.BaseModel `grove:"table:vaultbank_rescues"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	Caller    string    `grove:"caller"     bson:"caller"`
	Asset     string    `grove:"asset"      bson:"asset"`
	Amount    string    `grove:"amount"     bson:"amount"`
	Recipient string    `grove:"recipient"  bson:"recipient"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toRescueModel(r *journal.RescueRecord) *rescueModel {
	return &rescueModel{
		ID:        r.ID.String(),
		Caller:    r.Caller,
		Asset:     r.Asset.String(),
		Amount:    r.Amount.String(),
		Recipient: r.Recipient,
		CreatedAt: r.Entity.CreatedAt,
		UpdatedAt: r.Entity.UpdatedAt,
	}
}

func fromRescueModel(m *rescueModel) (*journal.RescueRecord, error) {
	recordID, err := id.ParseRescueID(m.ID)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return nil, err
	}

	return &journal.RescueRecord{
		ID:        recordID,
		Caller:    m.Caller,
		Asset:     types.Asset(m.Asset),
		Amount:    amount,
		Recipient: m.Recipient,
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}, nil
}

// ==================== Snapshot models ====================

// snapshotKey is the _id of the single current-snapshot document.
const snapshotKey = "current"

type snapshotModel struct {
	grove.BaseModel `grove:"table:vaultbank_snapshot"`

	Key             string           `grove:"key,pk"           bson:"_id"`
	Balances        map[string]int64 `grove:"balances"         bson:"balances"`
	AggregateMicro  int64            `grove:"aggregate_micro"  bson:"aggregate_micro"`
	DepositCount    int64            `grove:"deposit_count"    bson:"deposit_count"`
	WithdrawalCount int64            `grove:"withdrawal_count" bson:"withdrawal_count"`
	CreatedAt       time.Time        `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time        `grove:"updated_at"       bson:"updated_at"`
}

func toSnapshotModel(s *ledger.Snapshot) *snapshotModel {
	balances := make(map[string]int64, len(s.Balances))
	for account, balance := range s.Balances {
		balances[account] = balance.Micro()
	}

	return &snapshotModel{
		Key:             snapshotKey,
		Balances:        balances,
		AggregateMicro:  s.Aggregate.Micro(),
		DepositCount:    int64(s.DepositCount),    //nolint:gosec // counters never approach int64 max
		WithdrawalCount: int64(s.WithdrawalCount), //nolint:gosec // counters never approach int64 max
		CreatedAt:       s.Entity.CreatedAt,
		UpdatedAt:       s.Entity.UpdatedAt,
	}
}

func fromSnapshotModel(m *snapshotModel) *ledger.Snapshot {
	balances := make(map[string]types.Amount, len(m.Balances))
	for account, balance := range m.Balances {
		balances[account] = types.Micro(balance)
	}

	return &ledger.Snapshot{
		Balances:        balances,
		Aggregate:       types.Micro(m.AggregateMicro),
		DepositCount:    uint64(m.DepositCount),    //nolint:gosec // stored from uint64
		WithdrawalCount: uint64(m.WithdrawalCount), //nolint:gosec // stored from uint64
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}
}
