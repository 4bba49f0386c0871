// Package mock provides a scripted Gateway for tests and demos. It
// executes swaps against an in-memory custodian at fixed rates and can
// inject failures and pathological zero-output fills.
package mock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/vaultbank/custody"
	"github.com/xraph/vaultbank/gateway"
	"github.com/xraph/vaultbank/types"
)

// ErrScriptedFailure is returned while the gateway is in failing mode.
var ErrScriptedFailure = errors.New("gateway/mock: scripted failure")

// ErrExpiredDeadline is returned when a swap deadline has already passed.
var ErrExpiredDeadline = errors.New("gateway/mock: deadline expired")

// Escrow is the internal account swaps settle through. Tests mint
// reference-asset liquidity into it before converting.
const Escrow = "gateway-escrow"

// Gateway is a deterministic mock exchange. Rates map each asset to the
// reference-asset units received per input unit; routes settle at the
// product of their hop rates.
type Gateway struct {
	mu        sync.Mutex
	custodian custody.Custodian
	reference types.Asset
	rates     map[types.Asset]decimal.Decimal

	failing    bool
	zeroOutput bool
	calls      int
}

var _ gateway.Gateway = (*Gateway)(nil)

// New creates a mock gateway settling swaps through the custodian.
func New(custodian custody.Custodian, reference types.Asset) *Gateway {
	return &Gateway{
		custodian: custodian,
		reference: reference,
		rates:     make(map[types.Asset]decimal.Decimal),
	}
}

// SetRate fixes the reference-asset units received per unit of asset.
func (g *Gateway) SetRate(asset types.Asset, rate decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rates[asset] = rate
}

// Fail makes every subsequent Convert fail atomically.
func (g *Gateway) Fail(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failing = fail
}

// ZeroOutput makes every subsequent Convert take the input but deliver
// zero reference-asset proceeds, simulating a pathological market state.
func (g *Gateway) ZeroOutput(zero bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.zeroOutput = zero
}

// Calls reports how many Convert invocations were attempted.
func (g *Gateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Address implements gateway.Gateway.
func (g *Gateway) Address() string { return "mock-gateway" }

// Convert implements gateway.Gateway.
func (g *Gateway) Convert(ctx context.Context, swap gateway.Swap) error {
	g.mu.Lock()
	g.calls++
	failing, zeroOutput := g.failing, g.zeroOutput
	rate := g.routeRate(swap.Route)
	g.mu.Unlock()

	if failing {
		return ErrScriptedFailure
	}
	if !swap.Deadline.IsZero() && time.Now().After(swap.Deadline) {
		return ErrExpiredDeadline
	}

	// Take custody of the input first; a failure here means the
	// recipient never authorized or held the amount, and nothing moved.
	if err := g.custodian.Transfer(ctx, swap.Input(), swap.Recipient, Escrow, swap.Amount); err != nil {
		return err
	}

	if zeroOutput {
		return nil
	}

	proceeds := swap.Amount.Mul(rate).Truncate(types.AmountDecimals)
	return g.custodian.Transfer(ctx, g.reference, Escrow, swap.Recipient, proceeds)
}

// routeRate multiplies the per-hop rates; hops without a configured rate
// settle 1:1.
func (g *Gateway) routeRate(route []types.Asset) decimal.Decimal {
	rate := decimal.NewFromInt(1)
	for _, hop := range route[:len(route)-1] {
		if r, ok := g.rates[hop]; ok {
			rate = rate.Mul(r)
		}
	}
	return rate
}
