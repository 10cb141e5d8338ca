package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

type testRig struct {
	engine    *Engine
	provider  *market.StubProvider
	portfolio *trading.Portfolio
	store     *store.AnalysisStore
	bus       *bus.InMemoryBus
	events    <-chan bus.Event
	prices    pricing.Source
}

func newRig(t *testing.T, advisor *advisory.Client, prices pricing.Source) *testRig {
	t.Helper()

	cfg := config.Default()
	cfg.Engine.ScanInterval = 10 * time.Millisecond
	cfg.Engine.TickInterval = 5 * time.Millisecond
	cfg.Engine.ResearchInterval = 50 * time.Millisecond
	cfg.Engine.ProviderTimeout = time.Second

	provider := market.NewStubProvider(market.DemoUniverse())
	analysisStore := store.NewAnalysisStore()
	portfolio := trading.NewPortfolio(decimal.NewFromInt(1000), decimal.NewFromFloat(0.003))
	classifier := narrative.NewClassifier(narrative.DefaultLexicon())

	if prices == nil {
		prices = pricing.NewSimulatedSource(42, pricing.DefaultVolatility(), nil)
	}

	inmem := bus.NewInMemoryBus()
	t.Cleanup(inmem.Close)
	events := inmem.Subscribe(256)

	eng := New(
		cfg,
		provider,
		analysisStore,
		portfolio,
		pump.NewAnalyzer(classifier),
		narrative.NewScorer(classifier),
		advisor,
		selector.New(cfg.Selector),
		trading.NewExitEngine(cfg.Exits),
		prices,
		inmem,
	)

	return &testRig{
		engine:    eng,
		provider:  provider,
		portfolio: portfolio,
		store:     analysisStore,
		bus:       inmem,
		events:    events,
		prices:    prices,
	}
}

// drainTopics collects topics from buffered events without blocking.
func (r *testRig) drainTopics() map[bus.Topic][]bus.Event {
	out := make(map[bus.Topic][]bus.Event)
	for {
		select {
		case event := <-r.events:
			out[event.Topic] = append(out[event.Topic], event)
		default:
			return out
		}
	}
}

func TestScanCycle_OpensBestPosition(t *testing.T) {
	rig := newRig(t, nil, nil)

	rig.engine.runScanCycle(context.Background())

	// The demo universe yields two eligible tokens; MOON's composite
	// (0.4*90 + 0.4*85 + 0.2*62 = 82.4) beats ROCKET's (51.7).
	open := rig.portfolio.Open()
	require.Len(t, open, 1)
	assert.Equal(t, "MOON", open[0].Symbol)
	assert.Equal(t, trading.StrategySwing, open[0].Strategy)

	// composite 82.4 sizes the buy at ~18.24% of the 1000 balance
	assert.InDelta(t, 817.6, rig.portfolio.Balance().InexactFloat64(), 0.01)

	topics := rig.drainTopics()
	assert.NotEmpty(t, topics[bus.TopicPumpAnalyses])
	assert.NotEmpty(t, topics[bus.TopicNarratives])
	assert.NotEmpty(t, topics[bus.TopicTrades])
	assert.NotEmpty(t, topics[bus.TopicPositions])
	assert.NotEmpty(t, topics[bus.TopicActivity])
	assert.NotEmpty(t, topics[bus.TopicStatus])

	// All three demo tokens were analyzed even though only one was bought.
	assert.Len(t, rig.store.Pumps(), 3)
	assert.Len(t, rig.store.Narratives(), 3)
}

func TestScanCycle_SecondCycleRespectsOpenPosition(t *testing.T) {
	rig := newRig(t, nil, nil)

	rig.engine.runScanCycle(context.Background())
	require.Len(t, rig.portfolio.Open(), 1)

	// MOON is held, so the next cycle falls through to ROCKET.
	rig.engine.runScanCycle(context.Background())
	open := rig.portfolio.Open()
	require.Len(t, open, 2)

	symbols := map[string]bool{}
	for _, pos := range open {
		symbols[pos.Symbol] = true
	}
	assert.True(t, symbols["MOON"])
	assert.True(t, symbols["ROCKET"])
}

func TestScanCycle_ProviderFailureKeepsLastUniverse(t *testing.T) {
	rig := newRig(t, nil, nil)

	rig.engine.runScanCycle(context.Background())
	require.Len(t, rig.store.Snapshots(), 3)

	rig.provider.SetHealthy(false)
	rig.engine.runScanCycle(context.Background())

	assert.Len(t, rig.store.Snapshots(), 3, "last-known universe survives provider failure")
}

func TestScanCycle_AdvisoryVetoBlocksBuys(t *testing.T) {
	stub := advisory.NewStubProvider(advisory.Verdict{
		ShouldInvest: false,
		Confidence:   90,
		RiskLevel:    pump.RiskVeryHigh,
		Action:       advisory.ActionHold,
	})
	advisor := advisory.NewClient(stub, time.Second)
	rig := newRig(t, advisor, nil)

	rig.engine.runScanCycle(context.Background())

	assert.Empty(t, rig.portfolio.Open(), "every candidate vetoed")
	assert.Greater(t, stub.Calls(), 0, "enterable candidates were consulted")

	topics := rig.drainTopics()
	assert.NotEmpty(t, topics[bus.TopicClaudeAnalysis])
}

func TestScanCycle_AdvisoryUnavailableDoesNotBlock(t *testing.T) {
	stub := advisory.NewStubProvider()
	stub.SetHealthy(false)
	rig := newRig(t, advisory.NewClient(stub, time.Second), nil)

	rig.engine.runScanCycle(context.Background())

	// Degraded verdicts are treated as absent, so the organic path buys.
	assert.Len(t, rig.portfolio.Open(), 1)
}

func TestScanCycle_MaxPositionsCap(t *testing.T) {
	rig := newRig(t, nil, nil)
	rig.engine.cfg.Trading.MaxPositions = 1

	rig.engine.runScanCycle(context.Background())
	rig.engine.runScanCycle(context.Background())

	assert.Len(t, rig.portfolio.Open(), 1)
}

func TestTick_AppliesStrategyExits(t *testing.T) {
	entry := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Feed halves the price: -50% pnl trips the scalp stop loss once the
	// position has any hold time.
	feed := pricing.NewFeedSource(func(string) (decimal.Decimal, bool) {
		return decimal.NewFromFloat(0.005), true
	})
	rig := newRig(t, nil, feed)

	rig.portfolio.SetClock(func() time.Time { return entry })
	_, _, err := rig.portfolio.ExecuteBuy("addr1", "TST", decimal.NewFromFloat(0.01), decimal.NewFromInt(100), trading.StrategyScalp, "test")
	require.NoError(t, err)

	rig.engine.SetClock(func() time.Time { return entry.Add(time.Hour) })
	rig.engine.runTick(context.Background())

	assert.Empty(t, rig.portfolio.Open())
	closed := rig.portfolio.Closed()
	require.Len(t, closed, 1)
	assert.Equal(t, trading.ReasonStopLoss, closed[0].CloseReason)
	assert.InDelta(t, -50.1, closed[0].PnLPercent, 0.2)

	topics := rig.drainTopics()
	require.NotEmpty(t, topics[bus.TopicTrades])
	assert.NotEmpty(t, topics[bus.TopicPositions])
}

func TestTick_NoPositionsIsQuiet(t *testing.T) {
	rig := newRig(t, nil, nil)
	rig.engine.runTick(context.Background())
	assert.Empty(t, rig.drainTopics())
}

func TestResearch_PublishesMarketReport(t *testing.T) {
	rig := newRig(t, nil, nil)
	rig.engine.runScanCycle(context.Background())
	rig.drainTopics()

	rig.engine.runResearch(context.Background())

	topics := rig.drainTopics()
	require.Len(t, topics[bus.TopicTrending], 1)

	report, ok := topics[bus.TopicTrending][0].Payload.(MarketReport)
	require.True(t, ok)
	assert.Equal(t, 3, report.Universe)
	require.NotEmpty(t, report.TopGainers)
	assert.Equal(t, "MOON", report.TopGainers[0].Symbol, "biggest 24h gain leads")
	assert.Equal(t, "WAGMI", report.TopVolume[0].Symbol, "highest volume leads")
	assert.NotEmpty(t, report.PhaseCounts)
}

func TestAnalyzeToken_KnownAndUnknown(t *testing.T) {
	rig := newRig(t, nil, nil)

	// Not yet scanned: resolved through the provider lookup.
	report, err := rig.engine.AnalyzeToken(context.Background(), market.DemoUniverse()[0].Address)
	require.NoError(t, err)
	assert.Equal(t, "MOON", report.Snapshot.Symbol)
	assert.Equal(t, pump.PhaseInitialPump, report.Pump.Phase)
	assert.InDelta(t, 90.0, report.Narrative.Score, 1e-9)
	assert.Nil(t, report.Advisory)

	_, err = rig.engine.AnalyzeToken(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAnalyzeToken_IncludesAdvisoryWhenEnabled(t *testing.T) {
	stub := advisory.NewStubProvider(advisory.Verdict{
		ShouldInvest: true,
		Confidence:   75,
		Action:       advisory.ActionBuy,
	})
	rig := newRig(t, advisory.NewClient(stub, time.Second), nil)

	report, err := rig.engine.AnalyzeToken(context.Background(), market.DemoUniverse()[1].Address)
	require.NoError(t, err)
	require.NotNil(t, report.Advisory)
	assert.True(t, report.Advisory.ShouldInvest)
	assert.Equal(t, 75.0, report.Advisory.Confidence)
}

func TestStartStop_Lifecycle(t *testing.T) {
	rig := newRig(t, nil, nil)

	rig.engine.Start(context.Background())
	assert.True(t, rig.engine.Running())

	// Double start is a no-op.
	rig.engine.Start(context.Background())

	time.Sleep(60 * time.Millisecond)

	rig.engine.Stop()
	assert.False(t, rig.engine.Running())
	assert.Greater(t, rig.engine.cycles.Load(), int64(0))

	// Double stop is a no-op.
	rig.engine.Stop()

	// No cycles run after Stop returns.
	after := rig.engine.cycles.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, after, rig.engine.cycles.Load())
}

func TestAdvisoryExit_AutoExecutesHighConfidenceSell(t *testing.T) {
	entry := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	stub := advisory.NewStubProvider(advisory.Verdict{
		ShouldInvest: false,
		Confidence:   85,
		Action:       advisory.ActionSell,
	})
	rig := newRig(t, advisory.NewClient(stub, time.Second), nil)

	rig.portfolio.SetClock(func() time.Time { return entry })
	_, _, err := rig.portfolio.ExecuteBuy(
		market.DemoUniverse()[0].Address, "MOON",
		decimal.NewFromFloat(0.000156), decimal.NewFromInt(100),
		trading.StrategySwing, "test",
	)
	require.NoError(t, err)

	// Held for an hour, well past the 30 minute consult threshold.
	rig.engine.SetClock(func() time.Time { return entry.Add(time.Hour) })
	rig.engine.runScanCycle(context.Background())

	closed := rig.portfolio.Closed()
	require.Len(t, closed, 1)
	assert.Equal(t, "ADVISORY_SELL", closed[0].CloseReason)
}

func TestAdvisoryExit_FreshPositionNotConsulted(t *testing.T) {
	entry := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	stub := advisory.NewStubProvider(advisory.Verdict{
		ShouldInvest: false,
		Confidence:   95,
		Action:       advisory.ActionSell,
	})
	rig := newRig(t, advisory.NewClient(stub, time.Second), nil)

	rig.portfolio.SetClock(func() time.Time { return entry })
	_, _, err := rig.portfolio.ExecuteBuy(
		market.DemoUniverse()[0].Address, "MOON",
		decimal.NewFromFloat(0.000156), decimal.NewFromInt(100),
		trading.StrategySwing, "test",
	)
	require.NoError(t, err)

	// Only 10 minutes held: the advisory must not be asked about exits.
	rig.engine.SetClock(func() time.Time { return entry.Add(10 * time.Minute) })
	rig.engine.runScanCycle(context.Background())

	assert.NotEmpty(t, rig.portfolio.Open(), "position survives the cycle")
	for _, pos := range rig.portfolio.Open() {
		assert.NotEqual(t, "ADVISORY_SELL", pos.CloseReason)
	}
}
