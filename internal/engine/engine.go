package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vortex-trading/vortex/internal/advisory"
	"github.com/vortex-trading/vortex/internal/bus"
	"github.com/vortex-trading/vortex/internal/config"
	"github.com/vortex-trading/vortex/internal/market"
	"github.com/vortex-trading/vortex/internal/narrative"
	"github.com/vortex-trading/vortex/internal/pricing"
	"github.com/vortex-trading/vortex/internal/pump"
	"github.com/vortex-trading/vortex/internal/selector"
	"github.com/vortex-trading/vortex/internal/store"
	"github.com/vortex-trading/vortex/internal/trading"
)

// ErrTokenNotFound is returned by AnalyzeToken for unknown addresses.
var ErrTokenNotFound = errors.New("token not found")

// Engine drives the scan-score-select-trade cycle, the fast price tick,
// and the hourly research sweep. The portfolio and the analysis store are
// the only shared mutable state; the engine serializes its own decision
// cycles with mu so buy/sell ordering per address follows arrival order.
type Engine struct {
	cfg        *config.Config
	provider   market.Provider
	store      *store.AnalysisStore
	portfolio  *trading.Portfolio
	analyzer   *pump.Analyzer
	narratives *narrative.Scorer
	advisor    *advisory.Client // nil when advisory disabled
	selector   *selector.Selector
	exits      *trading.ExitEngine
	prices     pricing.Source
	publisher  bus.Publisher

	mu        sync.Mutex // serializes scan cycles and ticks
	runMu     sync.Mutex // guards start/stop
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   atomic.Bool
	startedAt time.Time
	cycles    atomic.Int64

	now func() time.Time
}

// New wires an Engine from its collaborators. advisor may be nil.
func New(
	cfg *config.Config,
	provider market.Provider,
	st *store.AnalysisStore,
	portfolio *trading.Portfolio,
	analyzer *pump.Analyzer,
	narratives *narrative.Scorer,
	advisor *advisory.Client,
	sel *selector.Selector,
	exits *trading.ExitEngine,
	prices pricing.Source,
	publisher bus.Publisher,
) *Engine {
	return &Engine{
		cfg:        cfg,
		provider:   provider,
		store:      st,
		portfolio:  portfolio,
		analyzer:   analyzer,
		narratives: narratives,
		advisor:    advisor,
		selector:   sel,
		exits:      exits,
		prices:     prices,
		publisher:  publisher,
		now:        time.Now,
	}
}

// Start launches the periodic loops. Calling Start on a running engine is
// a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.running.Load() {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running.Store(true)
	e.startedAt = e.now()

	e.wg.Add(3)
	go e.scanLoop(ctx)
	go e.tickLoop(ctx)
	go e.researchLoop(ctx)

	log.Info().
		Dur("scan_interval", e.cfg.Engine.ScanInterval).
		Dur("tick_interval", e.cfg.Engine.TickInterval).
		Dur("research_interval", e.cfg.Engine.ResearchInterval).
		Str("price_source", e.prices.Name()).
		Msg("engine started")
}

// Stop cancels the loops and waits for in-flight cycles to finish. A
// cycle past its buy/sell commit point completes; no successor cycle is
// scheduled.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if !e.running.Load() {
		return
	}
	e.cancel()
	e.wg.Wait()
	e.running.Store(false)
	log.Info().Int64("cycles", e.cycles.Load()).Msg("engine stopped")
}

// Running reports whether the engine loops are active.
func (e *Engine) Running() bool { return e.running.Load() }

func (e *Engine) scanLoop(ctx context.Context) {
	defer e.wg.Done()

	// First cycle immediately, then on the interval.
	e.runScanCycle(ctx)

	ticker := time.NewTicker(e.cfg.Engine.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runScanCycle(ctx)
		}
	}
}

func (e *Engine) tickLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.Engine.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runTick(ctx)
		}
	}
}

func (e *Engine) researchLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.Engine.ResearchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runResearch(ctx)
		}
	}
}

// runScanCycle is one full scan-score-select-trade pass.
func (e *Engine) runScanCycle(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cycle := e.cycles.Add(1)

	snaps := e.fetchUniverse(ctx)
	if len(snaps) == 0 {
		log.Debug().Int64("cycle", cycle).Msg("scan: empty universe")
		return
	}

	// Score every token fresh; analyses are replaced, never mutated.
	for _, snap := range snaps {
		e.store.SetPump(e.analyzer.Analyze(snap))
		e.store.SetNarrative(e.narratives.Score(snap))
	}
	e.publish(ctx, bus.TopicPumpAnalyses, e.store.Pumps())
	e.publish(ctx, bus.TopicNarratives, e.store.Narratives())

	e.consultAdvisoryForEntries(ctx, snaps)
	e.evaluateAdvisoryExits(ctx)
	e.selectAndBuy(ctx, snaps)

	e.publish(ctx, bus.TopicStatus, e.statusPayload())
}

// fetchUniverse refreshes snapshots from the provider, falling back to
// the last-known universe when the provider fails.
func (e *Engine) fetchUniverse(ctx context.Context) []market.TokenSnapshot {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.Engine.ProviderTimeout)
	defer cancel()

	snaps, err := e.provider.Snapshots(fetchCtx)
	if err != nil {
		log.Warn().Err(err).
			Str("provider", e.provider.Name()).
			Msg("scan: provider failed, using last-known universe")
		return e.store.Snapshots()
	}
	e.store.ReplaceSnapshots(snaps)
	return e.store.Snapshots()
}

// consultAdvisoryForEntries queries the advisory for tokens that look
// enterable. Only genuine verdicts are cached; a degraded verdict is
// treated as absent so unavailability never blocks trades.
func (e *Engine) consultAdvisoryForEntries(ctx context.Context, snaps []market.TokenSnapshot) {
	if e.advisor == nil {
		return
	}
	for _, snap := range snaps {
		analysis, ok := e.store.Pump(snap.Address)
		if !ok || !analysis.Entry.ShouldEnter || e.portfolio.HasOpen(snap.Address) {
			continue
		}
		verdict, genuine := e.advisor.Consult(ctx, snap)
		if !genuine {
			continue
		}
		e.store.SetAdvisory(verdict)
		e.publish(ctx, bus.TopicClaudeAnalysis, verdict)
	}
}

// evaluateAdvisoryExits applies exit fusion to open positions held past
// the consult threshold.
func (e *Engine) evaluateAdvisoryExits(ctx context.Context) {
	if e.advisor == nil {
		return
	}
	now := e.now()

	for _, pos := range e.portfolio.Open() {
		heldFor := now.Sub(pos.EntryTime)
		if heldFor <= advisory.MinConsultHold {
			continue
		}
		snap, ok := e.store.Snapshot(pos.Address)
		if !ok {
			continue
		}
		verdict, genuine := e.advisor.Consult(ctx, snap)
		if !genuine {
			continue
		}
		e.store.SetAdvisory(verdict)

		signal := advisory.EvaluateExit(&verdict, heldFor)
		if !signal.Triggered {
			continue
		}

		e.publish(ctx, bus.TopicActivity, bus.Activity{
			Priority: "high",
			Title:    "advisory exit signal",
			Message:  fmt.Sprintf("%s: %s (confidence %.0f)", pos.Symbol, signal.Reason, signal.Confidence),
		})

		if !signal.AutoExecute {
			continue
		}
		closed, trade, err := e.portfolio.ExecuteSell(pos.Address, pos.CurrentPrice, signal.Reason)
		if err != nil {
			continue
		}
		e.publishClose(ctx, closed, trade)
	}
}

// selectAndBuy runs the opportunity selector and opens at most one
// position.
func (e *Engine) selectAndBuy(ctx context.Context, snaps []market.TokenSnapshot) {
	open := e.portfolio.Open()
	if len(open) >= e.cfg.Trading.MaxPositions {
		return
	}

	candidates := make([]selector.Candidate, 0, len(snaps))
	for _, snap := range snaps {
		c := selector.Candidate{Snapshot: snap}
		if p, ok := e.store.Pump(snap.Address); ok {
			cp := p
			c.Pump = &cp
		}
		if n, ok := e.store.Narrative(snap.Address); ok {
			cn := n
			c.Narrative = &cn
		}
		if v, ok := e.store.Advisory(snap.Address); ok {
			cv := v
			c.Advisory = &cv
		}
		candidates = append(candidates, c)
	}

	sel := e.selector.Select(candidates, e.portfolio.HasOpen, e.preferredStrategy(open))
	if sel == nil {
		return
	}

	snap := sel.Candidate.Snapshot
	usdAmount := e.positionSize(sel.Composite)
	if !usdAmount.IsPositive() {
		return
	}

	reason := fmt.Sprintf("%s phase, composite %.1f", sel.Candidate.Pump.Phase, sel.Composite)
	pos, trade, err := e.portfolio.ExecuteBuy(
		snap.Address, snap.Symbol, snap.PriceUSD, usdAmount,
		sel.Candidate.Pump.Entry.Strategy, reason,
	)
	if err != nil {
		log.Warn().Err(err).Str("symbol", snap.Symbol).Msg("buy rejected")
		return
	}

	e.publish(ctx, bus.TopicTrades, *trade)
	e.publish(ctx, bus.TopicPositions, e.portfolio.Open())
	e.publish(ctx, bus.TopicActivity, bus.Activity{
		Priority: "medium",
		Title:    "position opened",
		Message:  fmt.Sprintf("%s %s @ $%s (%s)", pos.Strategy, pos.Symbol, pos.EntryPrice.String(), reason),
	})
}

// preferredStrategy balances the open-position mix by asking for the
// least represented strategy. With no open positions there is no
// preference.
func (e *Engine) preferredStrategy(open []*trading.Position) trading.Strategy {
	if len(open) == 0 {
		return ""
	}
	counts := map[trading.Strategy]int{
		trading.StrategyScalp: 0,
		trading.StrategySwing: 0,
		trading.StrategyHold:  0,
	}
	for _, pos := range open {
		counts[pos.Strategy]++
	}

	best := trading.StrategyScalp
	for _, s := range []trading.Strategy{trading.StrategyScalp, trading.StrategySwing, trading.StrategyHold} {
		if counts[s] < counts[best] {
			best = s
		}
	}
	return best
}

// positionSize scales the buy between 10% and max_position_pct of the
// balance by the composite score, clamped to the minimum position size
// and available balance.
func (e *Engine) positionSize(composite float64) decimal.Decimal {
	balance := e.portfolio.Balance()
	if !balance.IsPositive() {
		return decimal.Zero
	}

	confFactor := composite / 100
	if confFactor > 1 {
		confFactor = 1
	}
	if confFactor < 0 {
		confFactor = 0
	}
	maxPct := e.cfg.Trading.MaxPositionPct / 100
	pct := 0.10 + (maxPct-0.10)*confFactor
	if pct > maxPct {
		pct = maxPct
	}

	size := balance.Mul(decimal.NewFromFloat(pct))
	minSize := decimal.NewFromFloat(e.cfg.Trading.MinPositionUSD)
	if size.LessThan(minSize) {
		size = minSize
	}
	if size.GreaterThan(balance) {
		return decimal.Zero
	}
	return size.Round(2)
}

// runTick updates open-position prices and applies strategy exits.
func (e *Engine) runTick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	open := e.portfolio.Open()
	if len(open) == 0 {
		return
	}
	now := e.now()

	for _, pos := range open {
		price := e.prices.Price(ctx, pos)
		e.portfolio.UpdatePrice(pos.Address, price)

		fresh := e.portfolio.Get(pos.Address)
		if fresh == nil {
			continue
		}
		decision := e.exits.Evaluate(fresh, now)
		if !decision.ShouldClose {
			continue
		}

		closed, trade, err := e.portfolio.ExecuteSell(fresh.Address, fresh.CurrentPrice, decision.Reason)
		if err != nil {
			continue
		}
		e.publishClose(ctx, closed, trade)
	}

	e.publish(ctx, bus.TopicPositions, e.portfolio.Open())
	e.publish(ctx, bus.TopicStatus, e.statusPayload())
}

func (e *Engine) publishClose(ctx context.Context, pos *trading.Position, trade *trading.Trade) {
	e.publish(ctx, bus.TopicTrades, *trade)
	e.publish(ctx, bus.TopicPositions, e.portfolio.Open())

	priority := "medium"
	if trade.Reason == trading.ReasonStopLoss {
		priority = "high"
	}
	e.publish(ctx, bus.TopicActivity, bus.Activity{
		Priority: priority,
		Title:    "position closed",
		Message: fmt.Sprintf("%s closed at $%s, pnl $%s (%.1f%%) [%s]",
			pos.Symbol, pos.ExitPrice.String(), pos.PnL.StringFixed(2), pos.PnLPercent, trade.Reason),
	})
}

func (e *Engine) publish(ctx context.Context, topic bus.Topic, payload any) {
	if err := e.publisher.Publish(ctx, bus.NewEvent(e.cfg.General.InstanceID, topic, payload)); err != nil {
		log.Warn().Err(err).Str("topic", string(topic)).Msg("event publish failed")
	}
}

// StatusPayload is the TopicStatus event body.
type StatusPayload struct {
	Running       bool          `json:"running"`
	Cycle         int64         `json:"cycle"`
	UptimeSeconds float64       `json:"uptime_seconds"`
	Stats         trading.Stats `json:"stats"`
}

func (e *Engine) statusPayload() StatusPayload {
	return StatusPayload{
		Running:       e.running.Load(),
		Cycle:         e.cycles.Load(),
		UptimeSeconds: e.now().Sub(e.startedAt).Seconds(),
		Stats:         e.portfolio.Stats(),
	}
}

// Health returns a snapshot for the telemetry health endpoint.
func (e *Engine) Health() any {
	return e.statusPayload()
}

// SetClock overrides the time source. Tests only.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }
