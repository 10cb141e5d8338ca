package trading

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPortfolio() *Portfolio {
	// $1000 balance, 0.3% fee
	return NewPortfolio(decimal.NewFromInt(1000), decimal.NewFromFloat(0.003))
}

func TestExecuteBuy_FeeAwareSizing(t *testing.T) {
	p := newTestPortfolio()

	// $100 at $0.01 with 0.3% fee:
	// net = 100 * 0.997 = 99.7, qty = 99.7 / 0.01 = 9970
	pos, trade, err := p.ExecuteBuy("addr1", "TST", decimal.NewFromFloat(0.01), decimal.NewFromInt(100), StrategySwing, "test")
	require.NoError(t, err)

	assert.True(t, pos.Quantity.Equal(decimal.NewFromInt(9970)), "qty %s", pos.Quantity)
	assert.True(t, pos.USDValue.Equal(decimal.NewFromFloat(99.7)), "cost basis %s", pos.USDValue)
	assert.True(t, p.Balance().Equal(decimal.NewFromInt(900)), "balance %s", p.Balance())
	assert.Equal(t, StatusOpen, pos.Status)
	assert.Equal(t, 48.0, pos.TargetHoldHours)
	assert.NotEmpty(t, pos.ID)

	assert.Equal(t, TradeBuy, trade.Type)
	assert.True(t, trade.Quantity.Equal(pos.Quantity))
}

func TestExecuteBuy_InsufficientBalanceIsNoOp(t *testing.T) {
	p := newTestPortfolio()

	_, _, err := p.ExecuteBuy("addr1", "TST", decimal.NewFromFloat(0.01), decimal.NewFromInt(2000), StrategySwing, "test")
	require.ErrorIs(t, err, ErrInsufficientBalance)

	assert.True(t, p.Balance().Equal(decimal.NewFromInt(1000)))
	assert.Empty(t, p.Open())
	assert.Empty(t, p.Trades())
}

func TestExecuteBuy_DuplicateAddressRejected(t *testing.T) {
	p := newTestPortfolio()

	_, _, err := p.ExecuteBuy("addr1", "TST", decimal.NewFromFloat(0.01), decimal.NewFromInt(100), StrategySwing, "test")
	require.NoError(t, err)

	_, _, err = p.ExecuteBuy("addr1", "TST", decimal.NewFromFloat(0.01), decimal.NewFromInt(100), StrategySwing, "test")
	assert.ErrorIs(t, err, ErrPositionExists)
	assert.Len(t, p.Open(), 1)
}

func TestExecuteSell_PnLAndBalance(t *testing.T) {
	p := newTestPortfolio()

	_, _, err := p.ExecuteBuy("addr1", "TST", decimal.NewFromFloat(0.01), decimal.NewFromInt(100), StrategyScalp, "test")
	require.NoError(t, err)

	// Sell 9970 at $0.02:
	// gross = 199.4, net = 199.4 * 0.997 = 198.8018
	// pnl = 198.8018 - 99.7 = 99.1018 (99.4%)
	// balance = 900 + 198.8018 = 1098.8018
	pos, trade, err := p.ExecuteSell("addr1", decimal.NewFromFloat(0.02), ReasonTakeProfit)
	require.NoError(t, err)

	assert.True(t, pos.PnL.Equal(decimal.NewFromFloat(99.1018)), "pnl %s", pos.PnL)
	assert.InDelta(t, 99.4, pos.PnLPercent, 1e-9)
	assert.True(t, p.Balance().Equal(decimal.NewFromFloat(1098.8018)), "balance %s", p.Balance())
	assert.Equal(t, StatusClosed, pos.Status)
	assert.Equal(t, ReasonTakeProfit, pos.CloseReason)
	require.NotNil(t, pos.ExitTime)

	assert.Equal(t, TradeSell, trade.Type)
	assert.True(t, trade.PnL.Equal(pos.PnL))

	assert.Empty(t, p.Open())
	assert.Len(t, p.Closed(), 1)
}

func TestExecuteSell_UnknownAddressIsNoOp(t *testing.T) {
	p := newTestPortfolio()

	_, _, err := p.ExecuteSell("nope", decimal.NewFromFloat(0.02), ReasonStopLoss)
	require.ErrorIs(t, err, ErrPositionNotFound)

	// Double sell of a closed position is equally a no-op.
	_, _, err = p.ExecuteBuy("addr1", "TST", decimal.NewFromFloat(0.01), decimal.NewFromInt(100), StrategySwing, "test")
	require.NoError(t, err)
	_, _, err = p.ExecuteSell("addr1", decimal.NewFromFloat(0.02), ReasonStopLoss)
	require.NoError(t, err)

	before := p.Balance()
	_, _, err = p.ExecuteSell("addr1", decimal.NewFromFloat(0.02), ReasonStopLoss)
	assert.ErrorIs(t, err, ErrPositionNotFound)
	assert.True(t, p.Balance().Equal(before))
	assert.Len(t, p.Closed(), 1)
}

func TestUpdatePrice_UnrealizedPnL(t *testing.T) {
	p := newTestPortfolio()

	_, _, err := p.ExecuteBuy("addr1", "TST", decimal.NewFromFloat(0.01), decimal.NewFromInt(100), StrategySwing, "test")
	require.NoError(t, err)

	// 9970 * 0.012 = 119.64, pnl = 119.64 - 99.7 = 19.94 = 20%
	p.UpdatePrice("addr1", decimal.NewFromFloat(0.012))

	pos := p.Get("addr1")
	require.NotNil(t, pos)
	assert.True(t, pos.PnL.Equal(decimal.NewFromFloat(19.94)), "pnl %s", pos.PnL)
	assert.InDelta(t, 20.0, pos.PnLPercent, 1e-9)

	// Unknown address and non-positive price are ignored.
	p.UpdatePrice("nope", decimal.NewFromFloat(0.012))
	p.UpdatePrice("addr1", decimal.Zero)
	assert.True(t, p.Get("addr1").CurrentPrice.Equal(decimal.NewFromFloat(0.012)))
}

func TestStats_RoundTrip(t *testing.T) {
	p := newTestPortfolio()
	p.SetClock(func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) })

	_, _, err := p.ExecuteBuy("win", "WIN", decimal.NewFromFloat(0.01), decimal.NewFromInt(100), StrategyScalp, "test")
	require.NoError(t, err)
	_, _, err = p.ExecuteBuy("lose", "LOSE", decimal.NewFromFloat(0.01), decimal.NewFromInt(100), StrategyScalp, "test")
	require.NoError(t, err)

	_, _, err = p.ExecuteSell("win", decimal.NewFromFloat(0.02), ReasonTakeProfit)
	require.NoError(t, err)
	_, _, err = p.ExecuteSell("lose", decimal.NewFromFloat(0.005), ReasonStopLoss)
	require.NoError(t, err)

	stats := p.Stats()
	assert.Equal(t, 0, stats.OpenPositions)
	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 50.0, stats.WinRate, 1e-9)

	// With no open positions, total value equals the cash balance.
	assert.True(t, stats.TotalValue.Equal(stats.Balance))
	assert.True(t, stats.UnrealizedPnL.IsZero())
}

func TestHoldHours_UsesExitTimeWhenClosed(t *testing.T) {
	entry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	exit := entry.Add(5 * time.Hour)
	pos := &Position{EntryTime: entry, Status: StatusClosed, ExitTime: &exit}

	// hold time is frozen at close even as "now" advances
	assert.InDelta(t, 5.0, pos.HoldHours(entry.Add(100*time.Hour)), 1e-9)

	open := &Position{EntryTime: entry, Status: StatusOpen}
	assert.InDelta(t, 3.0, open.HoldHours(entry.Add(3*time.Hour)), 1e-9)
}
