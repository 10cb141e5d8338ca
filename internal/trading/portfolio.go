package trading

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Portfolio is the paper-trading ledger: a cash balance, the open
// positions keyed by token address, and the append-only trade history.
//
// Thread-safe: all shared state is guarded by mu. The engine's scan and
// tick loops both mutate positions, so every entry point takes the lock
// for the full read-modify-write.
type Portfolio struct {
	mu              sync.Mutex
	startingBalance decimal.Decimal
	balance         decimal.Decimal
	feeRate         decimal.Decimal // e.g. 0.003 = 0.3%
	positions       map[string]*Position
	closed          []*Position
	trades          []Trade
	realizedPnL     decimal.Decimal
	wins            int
	losses          int

	now func() time.Time
}

// NewPortfolio creates a Portfolio with the given starting balance and
// fee rate (fraction, e.g. 0.003 for 0.3%).
func NewPortfolio(startingBalance, feeRate decimal.Decimal) *Portfolio {
	p := &Portfolio{
		startingBalance: startingBalance,
		balance:         startingBalance,
		feeRate:         feeRate,
		positions:       make(map[string]*Position),
		now:             time.Now,
	}
	log.Info().
		Str("starting_balance", startingBalance.String()).
		Str("fee_rate", feeRate.String()).
		Msg("portfolio initialized")
	return p
}

// ExecuteBuy opens a position. The full usdAmount is deducted from the
// balance; the fee is taken before computing quantity, so the position's
// cost basis is usdAmount*(1-feeRate).
func (p *Portfolio) ExecuteBuy(address, symbol string, price, usdAmount decimal.Decimal, strategy Strategy, reason string) (*Position, *Trade, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if usdAmount.GreaterThan(p.balance) {
		log.Warn().
			Str("symbol", symbol).
			Str("requested", usdAmount.String()).
			Str("balance", p.balance.String()).
			Msg("buy rejected: insufficient balance")
		return nil, nil, ErrInsufficientBalance
	}
	if _, open := p.positions[address]; open {
		return nil, nil, ErrPositionExists
	}
	if !price.IsPositive() || !usdAmount.IsPositive() {
		return nil, nil, ErrInsufficientBalance
	}

	net := usdAmount.Mul(decimal.NewFromInt(1).Sub(p.feeRate))
	qty := net.Div(price)
	ts := p.now()

	pos := &Position{
		ID:              uuid.New().String(),
		Address:         address,
		Symbol:          symbol,
		EntryPrice:      price,
		CurrentPrice:    price,
		Quantity:        qty,
		USDValue:        net,
		PnL:             decimal.Zero,
		PnLPercent:      0,
		EntryTime:       ts,
		Status:          StatusOpen,
		Strategy:        strategy,
		TargetHoldHours: DefaultTargetHoldHours(strategy),
	}
	p.positions[address] = pos
	p.balance = p.balance.Sub(usdAmount)

	trade := Trade{
		ID:        uuid.New().String(),
		Type:      TradeBuy,
		Address:   address,
		Symbol:    symbol,
		Price:     price,
		Quantity:  qty,
		USDValue:  net,
		Reason:    reason,
		Timestamp: ts,
	}
	p.trades = append(p.trades, trade)

	log.Info().
		Str("symbol", symbol).
		Str("strategy", string(strategy)).
		Str("price", price.String()).
		Str("qty", qty.String()).
		Str("cost", usdAmount.String()).
		Str("reason", reason).
		Msg("BUY executed")

	cp := *pos
	return &cp, &trade, nil
}

// ExecuteSell closes an open position at sellPrice. The position's pnl is
// frozen at netValue - costBasis and the balance increases by netValue.
// Selling a closed or unknown position is a no-op returning
// ErrPositionNotFound.
func (p *Portfolio) ExecuteSell(address string, sellPrice decimal.Decimal, reason string) (*Position, *Trade, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[address]
	if !ok {
		return nil, nil, ErrPositionNotFound
	}

	netValue := pos.Quantity.Mul(sellPrice).Mul(decimal.NewFromInt(1).Sub(p.feeRate))
	pnl := netValue.Sub(pos.USDValue)
	ts := p.now()

	pos.CurrentPrice = sellPrice
	pos.PnL = pnl
	if pos.USDValue.IsPositive() {
		pos.PnLPercent = pnl.Div(pos.USDValue).InexactFloat64() * 100
	}
	pos.Status = StatusClosed
	pos.ExitPrice = sellPrice
	pos.ExitTime = &ts
	pos.CloseReason = reason

	p.balance = p.balance.Add(netValue)
	p.realizedPnL = p.realizedPnL.Add(pnl)
	if pnl.IsPositive() {
		p.wins++
	} else {
		p.losses++
	}

	delete(p.positions, address)
	p.closed = append(p.closed, pos)

	trade := Trade{
		ID:        uuid.New().String(),
		Type:      TradeSell,
		Address:   address,
		Symbol:    pos.Symbol,
		Price:     sellPrice,
		Quantity:  pos.Quantity,
		USDValue:  netValue,
		PnL:       pnl,
		Reason:    reason,
		Timestamp: ts,
	}
	p.trades = append(p.trades, trade)

	log.Info().
		Str("symbol", pos.Symbol).
		Str("price", sellPrice.String()).
		Str("pnl", pnl.String()).
		Float64("pnl_pct", pos.PnLPercent).
		Str("reason", reason).
		Msg("SELL executed")

	cp := *pos
	return &cp, &trade, nil
}

// UpdatePrice applies a fresh price to an open position and recomputes its
// unrealized pnl. Unknown or closed addresses are ignored.
func (p *Portfolio) UpdatePrice(address string, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[address]
	if !ok || !price.IsPositive() {
		return
	}
	pos.CurrentPrice = price
	pos.PnL = pos.Quantity.Mul(price).Sub(pos.USDValue)
	if pos.USDValue.IsPositive() {
		pos.PnLPercent = pos.PnL.Div(pos.USDValue).InexactFloat64() * 100
	}
}

// Open returns a snapshot of all open positions.
func (p *Portfolio) Open() []*Position {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Position, 0, len(p.positions))
	for _, pos := range p.positions {
		cp := *pos
		out = append(out, &cp)
	}
	return out
}

// Get returns a copy of the open position for an address, or nil.
func (p *Portfolio) Get(address string) *Position {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[address]
	if !ok {
		return nil
	}
	cp := *pos
	return &cp
}

// HasOpen reports whether an address has an open position.
func (p *Portfolio) HasOpen(address string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.positions[address]
	return ok
}

// Closed returns a snapshot of all closed positions.
func (p *Portfolio) Closed() []*Position {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Position, 0, len(p.closed))
	for _, pos := range p.closed {
		cp := *pos
		out = append(out, &cp)
	}
	return out
}

// Trades returns a snapshot of the trade history.
func (p *Portfolio) Trades() []Trade {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Trade, len(p.trades))
	copy(out, p.trades)
	return out
}

// Balance returns the current cash balance.
func (p *Portfolio) Balance() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance
}

// Stats computes the portfolio summary.
func (p *Portfolio) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	unrealized := decimal.Zero
	positionsValue := decimal.Zero
	for _, pos := range p.positions {
		unrealized = unrealized.Add(pos.PnL)
		positionsValue = positionsValue.Add(pos.Quantity.Mul(pos.CurrentPrice))
	}
	total := p.balance.Add(positionsValue)

	roi := 0.0
	if p.startingBalance.IsPositive() {
		roi = total.Sub(p.startingBalance).Div(p.startingBalance).InexactFloat64() * 100
	}
	winRate := 0.0
	if p.wins+p.losses > 0 {
		winRate = float64(p.wins) / float64(p.wins+p.losses) * 100
	}

	return Stats{
		Balance:       p.balance,
		TotalValue:    total,
		RealizedPnL:   p.realizedPnL,
		UnrealizedPnL: unrealized,
		ROIPercent:    roi,
		OpenPositions: len(p.positions),
		TotalTrades:   len(p.trades),
		Wins:          p.wins,
		Losses:        p.losses,
		WinRate:       winRate,
	}
}

// SetClock overrides the time source. Tests only.
func (p *Portfolio) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}
