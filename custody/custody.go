// Package custody abstracts asset movement between platform accounts.
// The bank invokes it to pull deposits in, pay withdrawals out, and
// measure its own reference-asset holdings.
package custody

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/xraph/vaultbank/types"
)

// ErrInsufficientFunds is returned when the source account cannot cover
// the transfer.
var ErrInsufficientFunds = errors.New("custody: insufficient funds")

// Custodian moves assets between platform accounts. A transfer either
// completes in full or fails with no asset movement.
//
// Amounts are arbitrary-precision decimals because tracked assets carry
// arbitrary decimal precision; only the reference asset is fixed point.
type Custodian interface {
	// Transfer moves amount of asset from one account to another.
	Transfer(ctx context.Context, asset types.Asset, from, to string, amount decimal.Decimal) error

	// Balance reports the holder's current balance of asset.
	Balance(ctx context.Context, asset types.Asset, holder string) (decimal.Decimal, error)
}
