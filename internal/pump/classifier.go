package pump

import (
	"github.com/vortex-trading/vortex/internal/market"
)

// ---------------------------------------------------------------------------
// Pump phase classifier — volume plus price action into a phase enum.
// Stateless: every cycle re-evaluates from scratch; no memory of the
// previous phase. Rule order is part of the contract, since several rules
// can match the same snapshot; the first match wins.
// ---------------------------------------------------------------------------

// Phase is the lifecycle stage of a token's trading activity.
type Phase string

const (
	PhaseAccumulation Phase = "accumulation"
	PhaseInitialPump  Phase = "initial_pump"
	PhasePeakFOMO     Phase = "peak_fomo"
	PhaseDistribution Phase = "distribution"
	PhaseDump         Phase = "dump"
	PhaseDead         Phase = "dead"
)

// Trend is the coarse 24h price direction.
type Trend string

const (
	TrendPumping  Trend = "PUMPING"
	TrendDumping  Trend = "DUMPING"
	TrendVolatile Trend = "VOLATILE"
	TrendStable   Trend = "STABLE"
)

// Trend thresholds, in 24h percent change.
const (
	pumpingThresholdPct  = 50.0
	dumpingThresholdPct  = -30.0
	volatileThresholdPct = 20.0
)

// ClassifyTrend derives the price trend from the 24h change.
func ClassifyTrend(priceChange24h float64) Trend {
	switch {
	case priceChange24h > pumpingThresholdPct:
		return TrendPumping
	case priceChange24h < dumpingThresholdPct:
		return TrendDumping
	case priceChange24h > volatileThresholdPct || priceChange24h < -volatileThresholdPct:
		return TrendVolatile
	default:
		return TrendStable
	}
}

// ClassifyPhase assigns a phase to a snapshot. Total: every input maps to
// a phase, with accumulation as the fallback.
func ClassifyPhase(snap market.TokenSnapshot) Phase {
	ratio := snap.VolumeMCRatio()
	trend := ClassifyTrend(snap.PriceChange24h)
	swing := snap.PriceSwing()

	switch {
	case ratio > 2.0 && trend == TrendVolatile:
		return PhaseDistribution
	case ratio > 1.5 && (swing > 0.5 || swing < -0.5):
		return PhasePeakFOMO
	case trend == TrendPumping && ratio > 0.5:
		return PhaseInitialPump
	case trend == TrendDumping && swing < -0.3:
		return PhaseDump
	case snap.Volume24h < 10_000 && snap.Liquidity < 10_000:
		return PhaseDead
	default:
		return PhaseAccumulation
	}
}
