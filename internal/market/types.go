package market

import (
	"github.com/shopspring/decimal"
)

// TokenSnapshot is one token's market state as of a single scan. Snapshots
// are immutable: each scan replaces the previous set wholesale.
type TokenSnapshot struct {
	Address        string          `json:"address"`
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	PriceUSD       decimal.Decimal `json:"price_usd"`
	PriceChange24h float64         `json:"price_change_24h"` // percent, e.g. 55.0 = +55%
	Volume24h      float64         `json:"volume_24h"`
	Liquidity      float64         `json:"liquidity"`
	MarketCap      float64         `json:"market_cap"` // fully diluted valuation
}

// VolumeMCRatio returns 24h volume divided by market cap, the wash-trading
// intensity proxy. Zero when market cap is not positive.
func (t TokenSnapshot) VolumeMCRatio() float64 {
	if t.MarketCap <= 0 {
		return 0
	}
	return t.Volume24h / t.MarketCap
}

// PriceSwing returns the 24h price change as a fraction (0.5 = 50%).
func (t TokenSnapshot) PriceSwing() float64 {
	return t.PriceChange24h / 100.0
}
