package pricing

import (
	"context"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vortex-trading/vortex/internal/narrative"
	"github.com/vortex-trading/vortex/internal/trading"
)

// Volatility per tick by strategy, as a fraction of price.
type Volatility struct {
	Scalp float64 `yaml:"scalp"`
	Swing float64 `yaml:"swing"`
	Hold  float64 `yaml:"hold"`
}

// DefaultVolatility returns the demo volatilities.
func DefaultVolatility() Volatility {
	return Volatility{Scalp: 0.05, Swing: 0.03, Hold: 0.015}
}

// SimulatedSource evolves prices with a random walk scaled by the
// position's strategy volatility plus a small directional bias from the
// token's narrative strength. Test and demo only; swapped for FeedSource
// by configuration.
type SimulatedSource struct {
	mu       sync.Mutex
	rng      *rand.Rand
	vol      Volatility
	strength func(address string) narrative.Strength
}

// NewSimulatedSource creates a SimulatedSource. strength looks up the
// narrative strength for a token address; nil means no bias.
func NewSimulatedSource(seed int64, vol Volatility, strength func(address string) narrative.Strength) *SimulatedSource {
	return &SimulatedSource{
		rng:      rand.New(rand.NewSource(seed)),
		vol:      vol,
		strength: strength,
	}
}

// Price perturbs the position's current price by a uniform draw in
// [-vol, +vol] plus the narrative bias.
func (s *SimulatedSource) Price(_ context.Context, pos *trading.Position) decimal.Decimal {
	base := pos.CurrentPrice
	if !base.IsPositive() {
		base = pos.EntryPrice
	}
	if !base.IsPositive() {
		return base
	}

	s.mu.Lock()
	draw := s.rng.Float64()*2 - 1
	s.mu.Unlock()

	vol := s.volatilityFor(pos.Strategy)
	bias := s.biasFor(pos.Address)

	factor := 1 + draw*vol + bias
	if factor <= 0 {
		factor = 0.01
	}
	return base.Mul(decimal.NewFromFloat(factor))
}

// Name returns the source identifier.
func (s *SimulatedSource) Name() string { return "simulated" }

func (s *SimulatedSource) volatilityFor(st trading.Strategy) float64 {
	switch st {
	case trading.StrategyScalp:
		return s.vol.Scalp
	case trading.StrategyHold:
		return s.vol.Hold
	default:
		return s.vol.Swing
	}
}

func (s *SimulatedSource) biasFor(address string) float64 {
	if s.strength == nil {
		return 0
	}
	switch s.strength(address) {
	case narrative.StrengthViral:
		return 0.01
	case narrative.StrengthStrong:
		return 0.005
	default:
		return 0.001
	}
}
