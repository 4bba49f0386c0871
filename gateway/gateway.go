// Package gateway defines the exchange capability the bank uses to
// convert deposited assets into the reference asset.
package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/vaultbank/types"
)

// Swap describes one conversion request. The route lists the hop assets
// in order: the input asset first, the reference asset last, with an
// optional bridging asset between them.
type Swap struct {
	Route     []types.Asset
	Amount    decimal.Decimal
	Recipient string
	Deadline  time.Time
}

// Input returns the first hop of the route.
func (s Swap) Input() types.Asset { return s.Route[0] }

// Output returns the last hop of the route.
func (s Swap) Output() types.Asset { return s.Route[len(s.Route)-1] }

// Gateway converts assets at a market-determined rate. Convert either
// succeeds and delivers reference-asset proceeds to the recipient's
// custody account, or fails as a unit with no asset movement.
//
// The gateway is untrusted: it reports no proceeds figure, and callers
// must measure the output empirically as the recipient's reference-asset
// balance delta across the call.
type Gateway interface {
	Convert(ctx context.Context, swap Swap) error

	// Address returns the gateway's fixed platform identity.
	Address() string
}
