package selector

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/vortex-trading/vortex/internal/advisory"
	"github.com/vortex-trading/vortex/internal/market"
	"github.com/vortex-trading/vortex/internal/narrative"
	"github.com/vortex-trading/vortex/internal/pump"
	"github.com/vortex-trading/vortex/internal/trading"
)

// ---------------------------------------------------------------------------
// Opportunity selector — filters and ranks candidate tokens into at most
// one buy per cycle. Runs once per scan against the current snapshots
// and their latest analyses.
// ---------------------------------------------------------------------------

// Candidate bundles one token's snapshot with its latest analyses.
// Pump and Narrative are required for eligibility; Advisory is optional.
type Candidate struct {
	Snapshot  market.TokenSnapshot
	Pump      *pump.Analysis
	Narrative *narrative.Score
	Advisory  *advisory.Verdict
}

// Selection is the chosen opportunity with its composite score.
type Selection struct {
	Candidate Candidate
	Composite float64
}

// Config holds the selector's filter thresholds.
type Config struct {
	MinVolume24h        float64 `yaml:"min_volume_24h"`
	MediumViralMinScore float64 `yaml:"medium_viral_min_score"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MinVolume24h:        1_000,
		MediumViralMinScore: 50,
	}
}

// Selector picks at most one opportunity per cycle.
type Selector struct {
	config Config
}

// New creates a Selector.
func New(config Config) *Selector {
	return &Selector{config: config}
}

// Select runs the filter pipeline and ranking. hasOpen reports whether an
// address already has an open position. preferred, when non-empty, first
// restricts survivors to that strategy; if that pass yields nothing the
// selection reruns unconstrained, so callers see a nil result only when
// there is no opportunity at all.
func (s *Selector) Select(candidates []Candidate, hasOpen func(address string) bool, preferred trading.Strategy) *Selection {
	if preferred != "" {
		if sel := s.selectPass(candidates, hasOpen, preferred); sel != nil {
			return sel
		}
		log.Debug().
			Str("preferred", string(preferred)).
			Msg("selector: no match for preferred strategy, retrying unconstrained")
	}
	return s.selectPass(candidates, hasOpen, "")
}

func (s *Selector) selectPass(candidates []Candidate, hasOpen func(address string) bool, preferred trading.Strategy) *Selection {
	survivors := make([]Selection, 0, len(candidates))

	for _, c := range candidates {
		if !s.eligible(c, hasOpen) {
			continue
		}
		if preferred != "" && c.Pump.Entry.Strategy != preferred {
			continue
		}
		survivors = append(survivors, Selection{
			Candidate: c,
			Composite: composite(c),
		})
	}
	if len(survivors) == 0 {
		return nil
	}

	// Highest composite wins; ties keep original snapshot order.
	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Composite > survivors[j].Composite
	})

	best := survivors[0]
	return &best
}

// eligible applies the filter pipeline. All rules must pass.
func (s *Selector) eligible(c Candidate, hasOpen func(address string) bool) bool {
	addr := c.Snapshot.Address

	if hasOpen != nil && hasOpen(addr) {
		return false
	}
	if c.Snapshot.Volume24h < s.config.MinVolume24h {
		return false
	}
	if c.Narrative == nil {
		return false
	}
	if c.Pump == nil || !c.Pump.Entry.ShouldEnter || c.Pump.Risk == pump.RiskExtreme {
		return false
	}
	if advisory.VetoesEntry(c.Advisory) {
		return false
	}
	switch c.Narrative.ViralPotential {
	case narrative.ViralExplosive, narrative.ViralHigh:
	case narrative.ViralMedium:
		if c.Narrative.Score < s.config.MediumViralMinScore {
			return false
		}
	default:
		return false
	}
	if c.Pump.Phase != pump.PhaseAccumulation && c.Pump.Phase != pump.PhaseInitialPump {
		return false
	}
	return true
}

// composite computes the ranking score. Advisory-approved candidates
// weight the advisory confidence most heavily; the rest rank on their
// narrative and pump scores plus 24h momentum.
func composite(c Candidate) float64 {
	if c.Advisory != nil && c.Advisory.ShouldInvest {
		return 0.5*c.Advisory.Confidence + 0.3*c.Narrative.Score + 0.2*c.Pump.Score
	}
	return 0.4*c.Narrative.Score + 0.4*c.Pump.Score + 0.2*c.Snapshot.PriceChange24h
}
