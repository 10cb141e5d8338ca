package advisory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-trading/vortex/internal/market"
	"github.com/vortex-trading/vortex/internal/pump"
)

func testSnap() market.TokenSnapshot {
	return market.TokenSnapshot{Address: "addr1", Symbol: "TST", Name: "Test"}
}

func TestConsult_GenuineVerdict(t *testing.T) {
	stub := NewStubProvider(Verdict{
		ShouldInvest: true,
		Confidence:   82,
		RiskLevel:    pump.RiskMedium,
		Action:       ActionBuy,
	})
	c := NewClient(stub, time.Second)

	v, genuine := c.Consult(context.Background(), testSnap())
	require.True(t, genuine)
	assert.True(t, v.ShouldInvest)
	assert.Equal(t, "addr1", v.Address)
	assert.False(t, v.ReceivedAt.IsZero())
	assert.Equal(t, 1, stub.Calls())
}

func TestConsult_ProviderFailureDegradesConservative(t *testing.T) {
	stub := NewStubProvider(Verdict{ShouldInvest: true, Confidence: 90, Action: ActionBuy})
	stub.SetHealthy(false)
	c := NewClient(stub, time.Second)

	v, genuine := c.Consult(context.Background(), testSnap())
	assert.False(t, genuine)
	assert.False(t, v.ShouldInvest)
	assert.Equal(t, 0.0, v.Confidence)
	assert.Equal(t, pump.RiskExtreme, v.RiskLevel)
	assert.Equal(t, ActionHold, v.Action)
}

func TestConsult_MalformedVerdictTreatedAsAbsent(t *testing.T) {
	stub := NewStubProvider(Verdict{ShouldInvest: true, Confidence: 150, Action: ActionBuy})
	c := NewClient(stub, time.Second)

	v, genuine := c.Consult(context.Background(), testSnap())
	assert.False(t, genuine)
	assert.False(t, v.ShouldInvest)
}

func TestStubProvider_CyclesVerdicts(t *testing.T) {
	stub := NewStubProvider(
		Verdict{Action: ActionBuy, Confidence: 10},
		Verdict{Action: ActionSell, Confidence: 20},
	)

	first, err := stub.Analyze(context.Background(), testSnap())
	require.NoError(t, err)
	second, err := stub.Analyze(context.Background(), testSnap())
	require.NoError(t, err)
	third, err := stub.Analyze(context.Background(), testSnap())
	require.NoError(t, err)

	assert.Equal(t, ActionBuy, first.Action)
	assert.Equal(t, ActionSell, second.Action)
	assert.Equal(t, ActionBuy, third.Action, "wraps back to the first verdict")
	assert.Equal(t, 3, stub.Calls())
}

func TestVerdictValidate(t *testing.T) {
	valid := Verdict{Address: "a", Confidence: 50, Action: ActionBuy}
	assert.NoError(t, valid.Validate())

	missing := Verdict{Confidence: 50}
	assert.Error(t, missing.Validate())

	badConf := Verdict{Address: "a", Confidence: -1}
	assert.Error(t, badConf.Validate())

	badAction := Verdict{Address: "a", Confidence: 50, Action: "PANIC"}
	assert.Error(t, badAction.Validate())
}
