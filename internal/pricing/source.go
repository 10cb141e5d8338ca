package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vortex-trading/vortex/internal/trading"
)

// Source provides the next price for an open position. The lifecycle
// manager never knows which implementation is active: the simulated
// random walk and the feed-backed source are selected by configuration.
type Source interface {
	// Price returns the next price for the position. Implementations fall
	// back to the position's current price when no fresh data exists, so
	// the result is always usable.
	Price(ctx context.Context, pos *trading.Position) decimal.Decimal
	Name() string
}

// FeedSource reads prices from the latest market snapshots via the
// injected lookup. Missing data falls back to the position's last-known
// price.
type FeedSource struct {
	lookup func(address string) (decimal.Decimal, bool)
}

// NewFeedSource creates a FeedSource over a snapshot lookup.
func NewFeedSource(lookup func(address string) (decimal.Decimal, bool)) *FeedSource {
	return &FeedSource{lookup: lookup}
}

// Price returns the latest feed price for the position's token, or the
// position's current price when the feed has no fresh value.
func (f *FeedSource) Price(_ context.Context, pos *trading.Position) decimal.Decimal {
	if price, ok := f.lookup(pos.Address); ok && price.IsPositive() {
		return price
	}
	return pos.CurrentPrice
}

// Name returns the source identifier.
func (f *FeedSource) Name() string { return "feed" }
