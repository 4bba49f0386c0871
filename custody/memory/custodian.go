// Package memory provides an in-memory Custodian for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xraph/vaultbank/custody"
	"github.com/xraph/vaultbank/types"
)

// Custodian is a thread-safe in-memory asset ledger keyed by asset and
// holder.
type Custodian struct {
	mu       sync.RWMutex
	holdings map[types.Asset]map[string]decimal.Decimal
}

var _ custody.Custodian = (*Custodian)(nil)

// New creates an empty Custodian.
func New() *Custodian {
	return &Custodian{
		holdings: make(map[types.Asset]map[string]decimal.Decimal),
	}
}

// Mint funds a holder with amount of asset out of thin air. Test setup
// helper; real custody has no equivalent.
func (c *Custodian) Mint(asset types.Asset, holder string, amount decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(asset, holder, amount)
}

// Transfer implements custody.Custodian.
func (c *Custodian) Transfer(_ context.Context, asset types.Asset, from, to string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("custody/memory: negative transfer of %s %s", amount, asset)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.balance(asset, from).LessThan(amount) {
		return fmt.Errorf("custody/memory: transfer %s %s from %s: %w", amount, asset, from, custody.ErrInsufficientFunds)
	}

	c.add(asset, from, amount.Neg())
	c.add(asset, to, amount)
	return nil
}

// Balance implements custody.Custodian.
func (c *Custodian) Balance(_ context.Context, asset types.Asset, holder string) (decimal.Decimal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.balance(asset, holder), nil
}

func (c *Custodian) balance(asset types.Asset, holder string) decimal.Decimal {
	if holders, ok := c.holdings[asset]; ok {
		return holders[holder]
	}
	return decimal.Zero
}

func (c *Custodian) add(asset types.Asset, holder string, amount decimal.Decimal) {
	holders, ok := c.holdings[asset]
	if !ok {
		holders = make(map[string]decimal.Decimal)
		c.holdings[asset] = holders
	}
	holders[holder] = holders[holder].Add(amount)
}
