package trading

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Strategy is the target holding behavior for a position.
type Strategy string

const (
	StrategyScalp Strategy = "scalp" // hours
	StrategySwing Strategy = "swing" // ~1-2 days
	StrategyHold  Strategy = "hold"  // multi-day
)

// DefaultTargetHoldHours returns the default maximum hold time per strategy.
func DefaultTargetHoldHours(s Strategy) float64 {
	switch s {
	case StrategyScalp:
		return 8
	case StrategySwing:
		return 48
	case StrategyHold:
		return 120
	default:
		return 48
	}
}

// PositionStatus is the lifecycle state of a position. The transition is
// one-way: open -> closed.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// TradeType distinguishes the two trade records a position can emit.
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

var (
	// ErrPositionNotFound is returned when selling a nonexistent or
	// already-closed position. No state is mutated.
	ErrPositionNotFound = errors.New("position not found")

	// ErrInsufficientBalance is returned when a buy exceeds the available
	// balance. No trade is emitted.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrPositionExists is returned when a buy targets an address that
	// already has an open position.
	ErrPositionExists = errors.New("open position already exists for address")
)

// Position tracks one simulated holding. Created exclusively by a buy,
// mutated only by price updates while open and by exactly one close
// transition; never reopened.
type Position struct {
	ID              string          `json:"id"`
	Address         string          `json:"address"`
	Symbol          string          `json:"symbol"`
	EntryPrice      decimal.Decimal `json:"entry_price"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	Quantity        decimal.Decimal `json:"quantity"`
	USDValue        decimal.Decimal `json:"usd_value"` // cost basis net of fee
	PnL             decimal.Decimal `json:"pnl"`
	PnLPercent      float64         `json:"pnl_percent"`
	EntryTime       time.Time       `json:"entry_time"`
	Status          PositionStatus  `json:"status"`
	Strategy        Strategy        `json:"strategy"`
	TargetHoldHours float64         `json:"target_hold_hours"`
	ExitPrice       decimal.Decimal `json:"exit_price,omitempty"`
	ExitTime        *time.Time      `json:"exit_time,omitempty"`
	CloseReason     string          `json:"close_reason,omitempty"`
}

// HoldHours returns how long the position has been (or was) held.
func (p *Position) HoldHours(now time.Time) float64 {
	end := now
	if p.Status == StatusClosed && p.ExitTime != nil {
		end = *p.ExitTime
	}
	return end.Sub(p.EntryTime).Hours()
}

// Trade is an immutable append-only record of one position transition.
type Trade struct {
	ID        string          `json:"id"`
	Type      TradeType       `json:"type"`
	Address   string          `json:"address"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	USDValue  decimal.Decimal `json:"usd_value"`
	PnL       decimal.Decimal `json:"pnl,omitempty"` // sell only
	Reason    string          `json:"reason"`
	Timestamp time.Time       `json:"timestamp"`
}

// Stats summarizes portfolio performance for status reporting.
type Stats struct {
	Balance       decimal.Decimal `json:"balance"`
	TotalValue    decimal.Decimal `json:"total_value"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	ROIPercent    float64         `json:"roi_percent"`
	OpenPositions int             `json:"open_positions"`
	TotalTrades   int             `json:"total_trades"`
	Wins          int             `json:"wins"`
	Losses        int             `json:"losses"`
	WinRate       float64         `json:"win_rate"`
}
