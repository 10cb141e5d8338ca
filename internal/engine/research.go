package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vortex-trading/vortex/internal/bus"
	"github.com/vortex-trading/vortex/internal/market"
	"github.com/vortex-trading/vortex/internal/pump"
)

// MarketReport is the hourly research summary published on the trending
// topic. It is a read-only sweep over the current universe; it never
// trades.
type MarketReport struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Universe    int                    `json:"universe"`
	TopGainers  []market.TokenSnapshot `json:"top_gainers"`
	TopVolume   []market.TokenSnapshot `json:"top_volume"`
	PhaseCounts map[pump.Phase]int     `json:"phase_counts"`
}

const reportTopN = 5

func (e *Engine) runResearch(ctx context.Context) {
	snaps := e.store.Snapshots()
	if len(snaps) == 0 {
		return
	}

	report := MarketReport{
		GeneratedAt: e.now(),
		Universe:    len(snaps),
		TopGainers:  topBy(snaps, func(a, b market.TokenSnapshot) bool { return a.PriceChange24h > b.PriceChange24h }),
		TopVolume:   topBy(snaps, func(a, b market.TokenSnapshot) bool { return a.Volume24h > b.Volume24h }),
		PhaseCounts: make(map[pump.Phase]int),
	}
	for _, a := range e.store.Pumps() {
		report.PhaseCounts[a.Phase]++
	}

	e.publish(ctx, bus.TopicTrending, report)
	e.publish(ctx, bus.TopicActivity, bus.Activity{
		Priority: "low",
		Title:    "hourly market research",
		Message:  fmt.Sprintf("%d tokens scanned, %d pumping", report.Universe, report.PhaseCounts[pump.PhaseInitialPump]+report.PhaseCounts[pump.PhasePeakFOMO]),
	})

	log.Info().
		Int("universe", report.Universe).
		Interface("phases", report.PhaseCounts).
		Msg("research sweep completed")
}

func topBy(snaps []market.TokenSnapshot, less func(a, b market.TokenSnapshot) bool) []market.TokenSnapshot {
	sorted := make([]market.TokenSnapshot, len(snaps))
	copy(sorted, snaps)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	if len(sorted) > reportTopN {
		sorted = sorted[:reportTopN]
	}
	return sorted
}
