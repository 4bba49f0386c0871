// Package journal defines the observable-event records a vault bank
// persists for every successful deposit, withdrawal, and rescue.
package journal

import (
	"github.com/shopspring/decimal"

	"github.com/xraph/vaultbank/id"
	"github.com/xraph/vaultbank/types"
)

// DepositRecord is emitted after a deposit credits an account.
type DepositRecord struct {
	ID           id.DepositID    `json:"id"`
	Account      string          `json:"account"`
	InputAsset   types.Asset     `json:"input_asset"`
	InputAmount  decimal.Decimal `json:"input_amount"`
	OutputAmount types.Amount    `json:"output_amount"`
	NewBalance   types.Amount    `json:"new_balance"`
	Entity       types.Entity    `json:"entity"`
}

// WithdrawalRecord is emitted after a withdrawal debits an account.
type WithdrawalRecord struct {
	ID               id.WithdrawalID `json:"id"`
	Account          string          `json:"account"`
	Amount           types.Amount    `json:"amount"`
	RemainingBalance types.Amount    `json:"remaining_balance"`
	Entity           types.Entity    `json:"entity"`
}

// RescueRecord is emitted when the privileged rescue path moves a stuck
// asset out of custody. Rescues bypass ledger accounting entirely.
type RescueRecord struct {
	ID        id.RescueID     `json:"id"`
	Caller    string          `json:"caller"`
	Asset     types.Asset     `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	Recipient string          `json:"recipient"`
	Entity    types.Entity    `json:"entity"`
}

// ListOpts controls pagination for journal queries.
type ListOpts struct {
	Limit  int
	Offset int
}
