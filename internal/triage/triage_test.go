package triage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImmediatePhraseShortCircuits(t *testing.T) {
	g := DefaultGate()
	v := g.Evaluate("severe chest pain, sweating", nil)
	assert.Equal(t, TierImmediate, v.Tier)
	assert.True(t, v.IsEmergency)
	assert.Contains(t, v.TriggeredRules, "severe chest pain")
}

func TestEveryImmediatePhraseTriggers(t *testing.T) {
	g := DefaultGate()
	for _, phrase := range immediateFlags {
		v := g.Evaluate("patient reports "+phrase+" since this morning", nil)
		assert.Equal(t, TierImmediate, v.Tier, "phrase %q", phrase)
		assert.Contains(t, v.TriggeredRules, phrase)
	}
}

func TestMatchingIsCaseInsensitive(t *testing.T) {
	g := DefaultGate()
	v := g.Evaluate("  SEVERE Chest PAIN  ", nil)
	assert.Equal(t, TierImmediate, v.Tier)
}

func TestCombinationRuleFires(t *testing.T) {
	g := DefaultGate()
	// chest pain alone is urgent; with sweating the cardiac_risk combo
	// reaches its threshold of 2 and escalates to immediate.
	v := g.Evaluate("chest pain and sweating for an hour", nil)
	assert.Equal(t, TierImmediate, v.Tier)
	assert.Contains(t, v.TriggeredRules, "cardiac_risk")
}

func TestCombinationBelowThresholdDoesNotFire(t *testing.T) {
	g := DefaultGate()
	v := g.Evaluate("sweating a lot", nil)
	assert.Equal(t, TierRoutine, v.Tier)
	assert.NotContains(t, v.TriggeredRules, "cardiac_risk")
}

func TestVitalOutOfBandEscalatesToDeclaredTier(t *testing.T) {
	g := DefaultGate()
	cases := []struct {
		name  string
		value float64
		tier  Tier
	}{
		{"heart_rate", 130, TierUrgent},
		{"heart_rate", 39, TierUrgent},
		{"systolic_bp", 185, TierUrgent},
		{"respiratory_rate", 9, TierUrgent},
		{"temperature_c", 40.0, TierUrgent},
		{"oxygen_saturation", 88, TierImmediate},
		{"spo2", 91, TierImmediate},
	}
	for _, tc := range cases {
		v := g.Evaluate("mild fatigue", map[string]float64{tc.name: tc.value})
		assert.Equal(t, tc.tier, v.Tier, "%s=%g", tc.name, tc.value)
	}
}

func TestLowOxygenRationaleNamesTheVital(t *testing.T) {
	g := DefaultGate()
	v := g.Evaluate("fever, cough", map[string]float64{"oxygen_saturation": 88})
	assert.Equal(t, TierImmediate, v.Tier)
	assert.True(t, strings.Contains(v.Rationale, "oxygen_saturation=88"), "rationale: %s", v.Rationale)
}

func TestVitalExactlyAtBoundIsSafe(t *testing.T) {
	g := DefaultGate()
	v := g.Evaluate("feeling tired", map[string]float64{
		"oxygen_saturation": 92,
		"heart_rate":        120,
		"systolic_bp":       90,
	})
	assert.Equal(t, TierRoutine, v.Tier)
	assert.Empty(t, v.TriggeredRules)
}

func TestUnknownVitalIgnored(t *testing.T) {
	g := DefaultGate()
	v := g.Evaluate("feeling fine", map[string]float64{"blood_glucose": 900})
	assert.Equal(t, TierRoutine, v.Tier)
}

func TestUrgentKeywordEscalates(t *testing.T) {
	g := DefaultGate()
	v := g.Evaluate("persistent fever for three days", nil)
	assert.Equal(t, TierUrgent, v.Tier)
	assert.False(t, v.IsEmergency)
	assert.Contains(t, v.TriggeredRules, "persistent fever")
}

func TestEmptyInputIsRoutine(t *testing.T) {
	g := DefaultGate()
	v := g.Evaluate("", nil)
	assert.Equal(t, TierRoutine, v.Tier)
	assert.False(t, v.IsEmergency)
	assert.Empty(t, v.TriggeredRules)
}

func TestRoutineSymptoms(t *testing.T) {
	g := DefaultGate()
	v := g.Evaluate("mild headache, runny nose", nil)
	assert.Equal(t, TierRoutine, v.Tier)
}

func TestEvaluatePhrases(t *testing.T) {
	g := DefaultGate()
	v := g.EvaluatePhrases([]string{"chest pain", "shortness of breath"}, nil)
	assert.Equal(t, TierImmediate, v.Tier)
	assert.Contains(t, v.TriggeredRules, "cardiac_risk")
}
