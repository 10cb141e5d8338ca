package narrative

import (
	"github.com/vortex-trading/vortex/internal/market"
)

// ViralPotential buckets the narrative score for the selector.
type ViralPotential string

const (
	ViralLow       ViralPotential = "low"
	ViralMedium    ViralPotential = "medium"
	ViralHigh      ViralPotential = "high"
	ViralExplosive ViralPotential = "explosive"
)

// Score is the narrative-only view of a token, derived independently of
// pump analysis but consumed jointly by the selector.
type Score struct {
	Address        string         `json:"address"`
	Symbol         string         `json:"symbol"`
	Score          float64        `json:"score"` // [0,100]
	ViralPotential ViralPotential `json:"viral_potential"`
	NarrativeType  string         `json:"narrative_type"`
}

// Scorer derives narrative scores from snapshots.
type Scorer struct {
	classifier *Classifier
}

// NewScorer creates a Scorer over the given classifier.
func NewScorer(classifier *Classifier) *Scorer {
	return &Scorer{classifier: classifier}
}

// Classifier exposes the underlying classifier for shared use.
func (s *Scorer) Classifier() *Classifier { return s.classifier }

// Score computes the narrative score for one snapshot. Total for all
// inputs: strength base plus volume and timeliness bonuses, clamped to
// [0,100].
func (s *Scorer) Score(snap market.TokenSnapshot) Score {
	m := s.classifier.Classify(snap.Name, snap.Symbol)

	score := strengthBase(m.Strength)
	if snap.Volume24h > 1_000_000 {
		score += 10
	}
	switch TimelinessFor(m, snap.Liquidity) {
	case TimelinessPerfect:
		score += 10
	case TimelinessGood:
		score += 5
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return Score{
		Address:        snap.Address,
		Symbol:         snap.Symbol,
		Score:          score,
		ViralPotential: potentialFor(score),
		NarrativeType:  m.Type,
	}
}

func strengthBase(st Strength) float64 {
	switch st {
	case StrengthViral:
		return 80
	case StrengthStrong:
		return 60
	case StrengthModerate:
		return 35
	default:
		return 10
	}
}

func potentialFor(score float64) ViralPotential {
	switch {
	case score >= 85:
		return ViralExplosive
	case score >= 65:
		return ViralHigh
	case score >= 40:
		return ViralMedium
	default:
		return ViralLow
	}
}
