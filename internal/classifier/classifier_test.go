package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var model = New()

func TestProbabilitiesSumToOne(t *testing.T) {
	inputs := []string{
		"crushing chest pain with sweating",
		"mild headache and runny nose",
		"",
		"xqzt unknown tokens only",
	}
	for _, in := range inputs {
		c := model.Predict(in)
		var sum float64
		for _, p := range c.Probabilities {
			sum += p.Probability
		}
		assert.InDelta(t, 1.0, sum, 1e-6, "input %q", in)
	}
}

func TestPredictKnownCategories(t *testing.T) {
	cases := []struct {
		text     string
		category string
	}{
		{"crushing chest pain radiating to left arm with cold sweat", "cardiac_emergency"},
		{"heart palpitations with irregular heartbeat and racing heart", "cardiac_arrhythmia"},
		{"stable exertional angina with known coronary artery disease", "cardiac_chronic"},
		{"high blood pressure and elevated cholesterol with family history", "cardiac_risk"},
		{"acid reflux heartburn relieved by antacids", "non_cardiac"},
	}
	for _, tc := range cases {
		c := model.Predict(tc.text)
		assert.Equal(t, tc.category, c.Category, "text %q", tc.text)
	}
}

func TestPredictNeverFails(t *testing.T) {
	for _, in := range []string{"", "     ", "!!!", "日本語のテキスト"} {
		c := model.Predict(in)
		require.NotEmpty(t, c.Category)
		assert.GreaterOrEqual(t, c.Confidence, 0.0)
		assert.LessOrEqual(t, c.Confidence, 1.0)
	}
}

func TestConfidenceIsTopProbability(t *testing.T) {
	c := model.Predict("crushing chest pain with diaphoresis")
	require.NotEmpty(t, c.Probabilities)
	assert.InDelta(t, c.Probabilities[0].Probability, c.Confidence, 1e-9)
}

func TestProbabilitiesDescending(t *testing.T) {
	c := model.Predict("shortness of breath with ankle swelling")
	for i := 1; i < len(c.Probabilities); i++ {
		assert.LessOrEqual(t, c.Probabilities[i].Probability, c.Probabilities[i-1].Probability)
	}
}

func TestClassesAreClosedSet(t *testing.T) {
	assert.Equal(t, []string{
		"cardiac_arrhythmia",
		"cardiac_chronic",
		"cardiac_emergency",
		"cardiac_risk",
		"non_cardiac",
	}, model.Classes())
}

func TestSeverityAndActionPopulated(t *testing.T) {
	c := model.Predict("crushing chest pain radiating to jaw")
	assert.NotEmpty(t, c.Severity)
	assert.NotEmpty(t, c.Action)
	assert.NotEmpty(t, c.Label)
}
