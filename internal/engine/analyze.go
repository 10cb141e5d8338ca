package engine

import (
	"context"
	"fmt"

	"github.com/vortex-trading/vortex/internal/advisory"
	"github.com/vortex-trading/vortex/internal/bus"
	"github.com/vortex-trading/vortex/internal/market"
	"github.com/vortex-trading/vortex/internal/narrative"
	"github.com/vortex-trading/vortex/internal/pump"
)

// TokenReport is the result of an on-demand single-token analysis.
type TokenReport struct {
	Snapshot  market.TokenSnapshot `json:"snapshot"`
	Narrative narrative.Score      `json:"narrative"`
	Pump      pump.Analysis        `json:"pump"`
	Advisory  *advisory.Verdict    `json:"advisory,omitempty"`
}

// AnalyzeToken runs the full analysis chain for one address on demand.
// The address is resolved from the current universe first, then through
// a provider lookup. Unknown addresses return ErrTokenNotFound; the
// engine state is otherwise unchanged except for the cached analyses.
func (e *Engine) AnalyzeToken(ctx context.Context, address string) (*TokenReport, error) {
	snap, ok := e.store.Snapshot(address)
	if !ok {
		lookupCtx, cancel := context.WithTimeout(ctx, e.cfg.Engine.ProviderTimeout)
		defer cancel()

		found, err := e.provider.Lookup(lookupCtx, address)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", address, err)
		}
		if found == nil {
			return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, address)
		}
		snap = *found
	}

	report := &TokenReport{
		Snapshot:  snap,
		Narrative: e.narratives.Score(snap),
		Pump:      e.analyzer.Analyze(snap),
	}
	e.store.SetPump(report.Pump)
	e.store.SetNarrative(report.Narrative)

	if e.advisor != nil {
		verdict, genuine := e.advisor.Consult(ctx, snap)
		report.Advisory = &verdict
		if genuine {
			e.store.SetAdvisory(verdict)
			e.publish(ctx, bus.TopicClaudeAnalysis, verdict)
		}
	}
	return report, nil
}
