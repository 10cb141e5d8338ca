package advisory

import (
	"fmt"
	"time"

	"github.com/vortex-trading/vortex/internal/pump"
)

// Action is the advisory's recommended move for a held token.
type Action string

const (
	ActionHold   Action = "HOLD"
	ActionBuy    Action = "BUY"
	ActionSell   Action = "SELL"
	ActionReduce Action = "REDUCE"
)

// Verdict is an external confidence-scored recommendation. It is an
// untrusted overlay: absence never blocks the engine, and a malformed
// verdict is treated as absent.
type Verdict struct {
	Address      string         `json:"address"`
	ShouldInvest bool           `json:"should_invest"`
	Confidence   float64        `json:"confidence"` // [0,100]
	RiskLevel    pump.RiskLevel `json:"risk_level"`
	Action       Action         `json:"action"`
	Reasoning    string         `json:"reasoning"`
	ReceivedAt   time.Time      `json:"received_at"`
}

// Conservative returns the fixed fallback verdict used when the advisory
// collaborator is unavailable: never invest, extreme risk, no confidence.
func Conservative(address string) Verdict {
	return Verdict{
		Address:      address,
		ShouldInvest: false,
		Confidence:   0,
		RiskLevel:    pump.RiskExtreme,
		Action:       ActionHold,
		Reasoning:    "advisory unavailable",
		ReceivedAt:   time.Now(),
	}
}

// Validate checks that a verdict is well-formed enough to act on.
func (v *Verdict) Validate() error {
	if v.Address == "" {
		return fmt.Errorf("address is required")
	}
	if v.Confidence < 0 || v.Confidence > 100 {
		return fmt.Errorf("confidence must be in [0, 100], got %f", v.Confidence)
	}
	switch v.Action {
	case ActionHold, ActionBuy, ActionSell, ActionReduce, "":
	default:
		return fmt.Errorf("invalid action: %q", v.Action)
	}
	return nil
}
