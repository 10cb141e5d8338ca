package advisory

import (
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Advisory fusion — how verdicts overlay engine decisions. At entry the
// advisory can only veto; at exit it can surface a signal or force a sell.
// ---------------------------------------------------------------------------

// Exit fusion thresholds.
const (
	// MinConsultHold is the minimum hold time before the advisory is
	// consulted for an open position.
	MinConsultHold = 30 * time.Minute

	signalConfidence = 70.0
	executeConfidence = 80.0
)

// VetoesEntry reports whether a verdict blocks a buy. Only an explicit
// should_invest=false from a genuine verdict vetoes; absence never does.
func VetoesEntry(v *Verdict) bool {
	return v != nil && !v.ShouldInvest
}

// ExitSignal is the fusion result for one open position.
type ExitSignal struct {
	Triggered   bool    `json:"triggered"`
	AutoExecute bool    `json:"auto_execute"`
	Action      Action  `json:"action"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
}

// EvaluateExit applies the exit fusion rules: positions held less than
// MinConsultHold are never touched; an action other than HOLD with
// confidence >= 70 surfaces a signal; confidence >= 80 additionally
// auto-executes the sell.
func EvaluateExit(v *Verdict, heldFor time.Duration) ExitSignal {
	if v == nil || heldFor <= MinConsultHold {
		return ExitSignal{}
	}
	if v.Action == ActionHold || v.Action == "" || v.Confidence < signalConfidence {
		return ExitSignal{}
	}

	return ExitSignal{
		Triggered:   true,
		AutoExecute: v.Confidence >= executeConfidence,
		Action:      v.Action,
		Confidence:  v.Confidence,
		Reason:      fmt.Sprintf("ADVISORY_%s", v.Action),
	}
}
