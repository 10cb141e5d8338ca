package trading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var exitBase = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func openPos(strategy Strategy, pnlPct float64) *Position {
	return &Position{
		Address:    "addr",
		Symbol:     "TST",
		Status:     StatusOpen,
		Strategy:   strategy,
		PnLPercent: pnlPct,
		EntryTime:  exitBase,
	}
}

func evalAfter(ee *ExitEngine, pos *Position, heldHours float64) ExitDecision {
	return ee.Evaluate(pos, exitBase.Add(time.Duration(heldHours*float64(time.Hour))))
}

func TestEvaluate_StopLoss(t *testing.T) {
	ee := NewExitEngine(DefaultExitConfig())

	tests := []struct {
		name     string
		strategy Strategy
		pnlPct   float64
		held     float64
		want     ExitDecision
	}{
		{"scalp below stop", StrategyScalp, -10.5, 1, ExitDecision{true, ReasonStopLoss}},
		{"scalp above stop", StrategyScalp, -9.9, 1, ExitDecision{}},
		{"swing below stop", StrategySwing, -21, 1, ExitDecision{true, ReasonStopLoss}},
		// hold positions ride out drawdowns inside the 48h min-hold window
		{"hold early drawdown rides", StrategyHold, -35, 10, ExitDecision{}},
		{"hold late drawdown closes", StrategyHold, -35, 49, ExitDecision{true, ReasonStopLoss}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := evalAfter(ee, openPos(tc.strategy, tc.pnlPct), tc.held)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluate_TakeProfit(t *testing.T) {
	ee := NewExitEngine(DefaultExitConfig())

	tests := []struct {
		name     string
		strategy Strategy
		pnlPct   float64
		held     float64
		want     ExitDecision
	}{
		{"scalp above target", StrategyScalp, 16, 1, ExitDecision{true, ReasonTakeProfit}},
		{"scalp below target", StrategyScalp, 14, 1, ExitDecision{}},
		// swing take-profit gated until 12h held
		{"swing early spike rides", StrategySwing, 35, 10, ExitDecision{}},
		{"swing late spike closes", StrategySwing, 35, 13, ExitDecision{true, ReasonTakeProfit}},
		{"hold early spike rides", StrategyHold, 60, 10, ExitDecision{}},
		{"hold late spike closes", StrategyHold, 60, 49, ExitDecision{true, ReasonTakeProfit}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := evalAfter(ee, openPos(tc.strategy, tc.pnlPct), tc.held)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluate_MaxHold(t *testing.T) {
	ee := NewExitEngine(DefaultExitConfig())

	// Flat pnl, past the strategy's default target hold time.
	got := evalAfter(ee, openPos(StrategyScalp, 0), 9)
	assert.Equal(t, ExitDecision{true, ReasonMaxHold}, got)

	got = evalAfter(ee, openPos(StrategyScalp, 0), 7)
	assert.Equal(t, ExitDecision{}, got)

	// Explicit target overrides the default.
	pos := openPos(StrategySwing, 0)
	pos.TargetHoldHours = 4
	got = evalAfter(ee, pos, 5)
	assert.Equal(t, ExitDecision{true, ReasonMaxHold}, got)
}

func TestEvaluate_StopLossWinsOverMaxHold(t *testing.T) {
	ee := NewExitEngine(DefaultExitConfig())

	// Both the stop-loss and max-hold conditions are true; the stop-loss
	// reason is reported.
	got := evalAfter(ee, openPos(StrategyScalp, -15), 10)
	assert.Equal(t, ExitDecision{true, ReasonStopLoss}, got)
}

func TestEvaluate_ClosedOrNilNeverTriggers(t *testing.T) {
	ee := NewExitEngine(DefaultExitConfig())

	pos := openPos(StrategyScalp, -50)
	pos.Status = StatusClosed
	assert.Equal(t, ExitDecision{}, evalAfter(ee, pos, 100))
	assert.Equal(t, ExitDecision{}, ee.Evaluate(nil, exitBase))
}
