package narrative

import (
	"strings"
)

// ---------------------------------------------------------------------------
// Narrative lexicon — keyword table mapping token names to a narrative
// category and strength. The table is data, not control flow, so it can be
// replaced from configuration without touching the classifier.
// ---------------------------------------------------------------------------

// Strength grades how strongly a narrative is expected to spread.
type Strength string

const (
	StrengthViral    Strength = "VIRAL"
	StrengthStrong   Strength = "STRONG"
	StrengthModerate Strength = "MODERATE"
	StrengthWeak     Strength = "WEAK"
)

// Timeliness grades how early the entry window is for a narrative.
type Timeliness string

const (
	TimelinessPerfect Timeliness = "PERFECT"
	TimelinessGood    Timeliness = "GOOD"
	TimelinessLate    Timeliness = "LATE"
)

// Category is one narrative bucket: a name, the strength it carries, and
// the keywords that match a token into it.
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Strength Strength `yaml:"strength" json:"strength"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Lexicon is an ordered list of categories. Earlier categories win when a
// token matches keywords from more than one.
type Lexicon []Category

// DefaultLexicon returns the built-in narrative keyword database.
func DefaultLexicon() Lexicon {
	return Lexicon{
		{Name: "AI_AGENTS", Strength: StrengthViral, Keywords: []string{"ai", "agent", "gpt", "neural", "llm", "openai", "claude"}},
		{Name: "ECOSYSTEM_BRAND", Strength: StrengthViral, Keywords: []string{"sol", "solana", "base", "jup", "bonk"}},
		{Name: "ANIMAL_MEME", Strength: StrengthStrong, Keywords: []string{"dog", "cat", "pepe", "frog", "shib", "doge", "inu", "penguin"}},
		{Name: "POLITICAL", Strength: StrengthStrong, Keywords: []string{"trump", "maga", "vote", "election", "president"}},
		{Name: "CELEBRITY", Strength: StrengthModerate, Keywords: []string{"elon", "drake", "kanye", "celebrity", "influencer"}},
		{Name: "DEFI_META", Strength: StrengthModerate, Keywords: []string{"yield", "farm", "stake", "restake", "liquid"}},
		{Name: "GAMING", Strength: StrengthModerate, Keywords: []string{"game", "play", "metaverse", "pixel"}},
	}
}

// StrengthFor returns the strength of a named category, or WEAK when the
// name is unknown.
func (l Lexicon) StrengthFor(name string) Strength {
	for _, cat := range l {
		if cat.Name == name {
			return cat.Strength
		}
	}
	return StrengthWeak
}

// Match is the classification result for one token.
type Match struct {
	Type     string   `json:"type"`
	Strength Strength `json:"strength"`
}

// Classifier matches token names and symbols against a Lexicon.
type Classifier struct {
	lexicon Lexicon
}

// NewClassifier builds a Classifier over the given lexicon. An empty
// lexicon classifies everything as WEAK.
func NewClassifier(lexicon Lexicon) *Classifier {
	return &Classifier{lexicon: lexicon}
}

// Classify returns the narrative match for a token. Every input maps to a
// defined output: tokens with no keyword hit come back as GENERIC/WEAK.
func (c *Classifier) Classify(name, symbol string) Match {
	combined := strings.ToLower(name + " " + symbol)
	for _, cat := range c.lexicon {
		for _, kw := range cat.Keywords {
			if strings.Contains(combined, kw) {
				return Match{Type: cat.Name, Strength: cat.Strength}
			}
		}
	}
	return Match{Type: "GENERIC", Strength: StrengthWeak}
}

// TimelinessFor grades the entry window given the match and current
// liquidity. Low liquidity plus a live narrative means the move has not
// been crowded out yet.
func TimelinessFor(m Match, liquidity float64) Timeliness {
	if m.Strength == StrengthWeak {
		return TimelinessLate
	}
	if liquidity < 100_000 {
		return TimelinessPerfect
	}
	if liquidity < 1_000_000 {
		return TimelinessGood
	}
	return TimelinessLate
}
