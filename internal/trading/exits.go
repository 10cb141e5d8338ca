package trading

import (
	"time"
)

// ---------------------------------------------------------------------------
// Strategy exit rules — stop-loss, take-profit, max-hold per strategy.
// Evaluated every tick; first true rule wins, otherwise the position holds.
// ---------------------------------------------------------------------------

// Exit reasons attached to the closing trade.
const (
	ReasonStopLoss   = "STOP_LOSS"
	ReasonTakeProfit = "TAKE_PROFIT"
	ReasonMaxHold    = "MAX_HOLD_TIME"
)

// StrategyRules holds the exit thresholds for one strategy.
type StrategyRules struct {
	StopLossPct    float64 `yaml:"stop_loss_pct"`    // close at or below, e.g. -10
	TakeProfitPct  float64 `yaml:"take_profit_pct"`  // close at or above, e.g. 15
	MinHoldHours   float64 `yaml:"min_hold_hours"`   // gate for both SL and TP (hold strategy)
	TPMinHoldHours float64 `yaml:"tp_min_hold_hours"` // extra gate for TP only (swing strategy)
}

// ExitConfig maps each strategy to its rules.
type ExitConfig struct {
	Scalp StrategyRules `yaml:"scalp"`
	Swing StrategyRules `yaml:"swing"`
	Hold  StrategyRules `yaml:"hold"`
}

// DefaultExitConfig returns the production thresholds.
func DefaultExitConfig() ExitConfig {
	return ExitConfig{
		Scalp: StrategyRules{StopLossPct: -10, TakeProfitPct: 15},
		Swing: StrategyRules{StopLossPct: -20, TakeProfitPct: 30, TPMinHoldHours: 12},
		Hold:  StrategyRules{StopLossPct: -30, TakeProfitPct: 50, MinHoldHours: 48},
	}
}

// ExitDecision is the result of evaluating a position against its rules.
type ExitDecision struct {
	ShouldClose bool
	Reason      string
}

// ExitEngine evaluates strategy-based exit conditions. It is stateless:
// each call works from the position's current pnl and hold time only.
type ExitEngine struct {
	config ExitConfig
}

// NewExitEngine creates an ExitEngine with the given thresholds.
func NewExitEngine(config ExitConfig) *ExitEngine {
	return &ExitEngine{config: config}
}

// Evaluate checks exit rules for an open position. Closed positions never
// trigger.
func (ee *ExitEngine) Evaluate(pos *Position, now time.Time) ExitDecision {
	if pos == nil || pos.Status != StatusOpen {
		return ExitDecision{}
	}

	rules := ee.rulesFor(pos.Strategy)
	holdHours := pos.HoldHours(now)
	target := pos.TargetHoldHours
	if target <= 0 {
		target = DefaultTargetHoldHours(pos.Strategy)
	}

	// Stop loss, gated by the strategy's min-hold floor.
	if pos.PnLPercent <= rules.StopLossPct && holdHours > rules.MinHoldHours {
		return ExitDecision{ShouldClose: true, Reason: ReasonStopLoss}
	}

	// Take profit, gated by both min-hold floors.
	minTPHold := rules.MinHoldHours
	if rules.TPMinHoldHours > minTPHold {
		minTPHold = rules.TPMinHoldHours
	}
	if pos.PnLPercent >= rules.TakeProfitPct && holdHours > minTPHold {
		return ExitDecision{ShouldClose: true, Reason: ReasonTakeProfit}
	}

	// Max hold time.
	if holdHours > target {
		return ExitDecision{ShouldClose: true, Reason: ReasonMaxHold}
	}

	return ExitDecision{}
}

func (ee *ExitEngine) rulesFor(s Strategy) StrategyRules {
	switch s {
	case StrategyScalp:
		return ee.config.Scalp
	case StrategyHold:
		return ee.config.Hold
	default:
		return ee.config.Swing
	}
}
