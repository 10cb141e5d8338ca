package pump

import (
	"github.com/shopspring/decimal"

	"github.com/vortex-trading/vortex/internal/market"
	"github.com/vortex-trading/vortex/internal/narrative"
	"github.com/vortex-trading/vortex/internal/trading"
)

// RiskLevel is an ordered risk grade. Severity() gives the ordering
// LOW < MEDIUM < HIGH < VERY_HIGH < EXTREME.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
	RiskExtreme  RiskLevel = "EXTREME"
)

// Severity returns the rank of a risk level for comparisons.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskVeryHigh:
		return 3
	case RiskExtreme:
		return 4
	default:
		return 2
	}
}

// ManipulationLevel buckets the volume/MC ratio.
type ManipulationLevel string

const (
	ManipulationNone     ManipulationLevel = "NONE"
	ManipulationLow      ManipulationLevel = "LOW"
	ManipulationModerate ManipulationLevel = "MODERATE"
	ManipulationHigh     ManipulationLevel = "HIGH"
	ManipulationSevere   ManipulationLevel = "SEVERE"
)

// VolumeAnalysis is the wash-trading view of a snapshot.
type VolumeAnalysis struct {
	VolumeMCRatio float64           `json:"volume_mc_ratio"`
	Manipulation  ManipulationLevel `json:"manipulation_level"`
	WashTrading   bool              `json:"is_wash_trading"`
}

// PriceAction carries the trend plus rough support/resistance bands.
type PriceAction struct {
	Trend      Trend           `json:"trend"`
	Support    decimal.Decimal `json:"support"`
	Resistance decimal.Decimal `json:"resistance"`
}

// NarrativeView is the narrative slice embedded in a pump analysis.
type NarrativeView struct {
	Type       string               `json:"type"`
	Strength   narrative.Strength   `json:"strength"`
	Timeliness narrative.Timeliness `json:"timeliness"`
}

// EntryPlan is the entry recommendation derived from the analysis.
type EntryPlan struct {
	ShouldEnter bool              `json:"should_enter"`
	ZoneLow     decimal.Decimal   `json:"zone_low"`
	ZoneHigh    decimal.Decimal   `json:"zone_high"`
	StopLoss    decimal.Decimal   `json:"stop_loss"`
	Targets     []decimal.Decimal `json:"targets"`
	Strategy    trading.Strategy  `json:"strategy"`
}

// Analysis is the full pump view of one snapshot. Derived fresh each
// cycle; never mutated, only replaced.
type Analysis struct {
	Address   string         `json:"address"`
	Symbol    string         `json:"symbol"`
	Phase     Phase          `json:"phase"`
	Risk      RiskLevel      `json:"risk_level"`
	Score     float64        `json:"pump_score"` // [0,100]
	Volume    VolumeAnalysis `json:"volume_analysis"`
	Price     PriceAction    `json:"price_action"`
	Narrative NarrativeView  `json:"narrative"`
	Entry     EntryPlan      `json:"entry_analysis"`
}

// Analyzer derives pump analyses from snapshots. The narrative classifier
// is injected so both the analyzer and the narrative scorer share one
// lexicon.
type Analyzer struct {
	classifier *narrative.Classifier
}

// NewAnalyzer creates an Analyzer over the given narrative classifier.
func NewAnalyzer(classifier *narrative.Classifier) *Analyzer {
	return &Analyzer{classifier: classifier}
}

// Analyze computes the full pump analysis for a snapshot. Total: every
// input maps to a defined output.
func (a *Analyzer) Analyze(snap market.TokenSnapshot) Analysis {
	phase := ClassifyPhase(snap)
	trend := ClassifyTrend(snap.PriceChange24h)
	vol := analyzeVolume(snap)
	match := a.classifier.Classify(snap.Name, snap.Symbol)
	timeliness := narrative.TimelinessFor(match, snap.Liquidity)

	score := pumpScore(vol.Manipulation, trend, match.Strength, timeliness, snap.Volume24h)
	risk := assessRisk(phase, vol.Manipulation, score)
	entry := planEntry(snap, phase, vol, risk)

	return Analysis{
		Address: snap.Address,
		Symbol:  snap.Symbol,
		Phase:   phase,
		Risk:    risk,
		Score:   score,
		Volume:  vol,
		Price: PriceAction{
			Trend:      trend,
			Support:    snap.PriceUSD.Mul(decimal.NewFromFloat(0.8)),
			Resistance: snap.PriceUSD.Mul(decimal.NewFromFloat(1.5)),
		},
		Narrative: NarrativeView{
			Type:       match.Type,
			Strength:   match.Strength,
			Timeliness: timeliness,
		},
		Entry: entry,
	}
}

func analyzeVolume(snap market.TokenSnapshot) VolumeAnalysis {
	ratio := snap.VolumeMCRatio()

	var level ManipulationLevel
	switch {
	case ratio < 0.5:
		level = ManipulationNone
	case ratio < 1.0:
		level = ManipulationLow
	case ratio < 1.5:
		level = ManipulationModerate
	case ratio < 2.0:
		level = ManipulationHigh
	default:
		level = ManipulationSevere
	}

	return VolumeAnalysis{
		VolumeMCRatio: ratio,
		Manipulation:  level,
		WashTrading:   level == ManipulationModerate || level == ManipulationHigh || level == ManipulationSevere,
	}
}

// pumpScore sums independently capped components, clamped to [0,100].
func pumpScore(level ManipulationLevel, trend Trend, strength narrative.Strength, timeliness narrative.Timeliness, volume24h float64) float64 {
	score := 0.0

	switch level {
	case ManipulationNone:
		score += 20
	case ManipulationLow:
		score += 15
	case ManipulationModerate:
		score += 10
	case ManipulationHigh:
		score += 5
	}

	switch trend {
	case TrendPumping:
		score += 25
	case TrendStable:
		score += 10
	}

	switch strength {
	case narrative.StrengthViral:
		score += 30
	case narrative.StrengthStrong:
		score += 20
	case narrative.StrengthModerate:
		score += 10
	}

	switch timeliness {
	case narrative.TimelinessPerfect:
		score += 15
	case narrative.TimelinessGood:
		score += 10
	}

	// Very high absolute volume stands in for influencer involvement.
	if volume24h > 1_000_000 {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// assessRisk applies the precedence-ordered risk rules. Note the HIGH
// tier is reachable two ways: a genuine low-score grade (rule 4) and the
// non-exhaustive fallback. That overlap is intentional behavior carried
// from the original rule table; downstream filters treat HIGH as
// tradeable while VERY_HIGH and EXTREME are not.
func assessRisk(phase Phase, level ManipulationLevel, score float64) RiskLevel {
	switch {
	case phase == PhaseDistribution || phase == PhaseDump:
		return RiskExtreme
	case level == ManipulationSevere:
		return RiskExtreme
	case level == ManipulationHigh || phase == PhasePeakFOMO:
		return RiskVeryHigh
	case score < 30:
		return RiskHigh
	case score > 70 && phase == PhaseAccumulation:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func planEntry(snap market.TokenSnapshot, phase Phase, vol VolumeAnalysis, _ RiskLevel) EntryPlan {
	enter := entryAllowed(phase, vol.Manipulation)
	plan := EntryPlan{ShouldEnter: enter}
	if !enter {
		return plan
	}

	price := snap.PriceUSD
	plan.ZoneLow = price.Mul(decimal.NewFromFloat(0.95))
	plan.ZoneHigh = price.Mul(decimal.NewFromFloat(1.05))
	plan.StopLoss = price.Mul(decimal.NewFromFloat(0.8))
	plan.Targets = []decimal.Decimal{
		price.Mul(decimal.NewFromFloat(1.5)),
		price.Mul(decimal.NewFromInt(2)),
		price.Mul(decimal.NewFromInt(5)),
	}
	plan.Strategy = pickStrategy(phase, vol, snap.Volume24h)
	return plan
}

func entryAllowed(phase Phase, level ManipulationLevel) bool {
	if level == ManipulationSevere {
		return false
	}
	switch phase {
	case PhaseDistribution, PhaseDump, PhaseDead:
		return false
	case PhaseAccumulation, PhaseInitialPump:
		return true
	default:
		return false
	}
}

func pickStrategy(phase Phase, vol VolumeAnalysis, volume24h float64) trading.Strategy {
	if phase == PhaseAccumulation && volume24h < 1_000_000 {
		return trading.StrategyHold
	}
	if phase == PhaseInitialPump && vol.VolumeMCRatio > 1 {
		return trading.StrategyScalp
	}
	return trading.StrategySwing
}
