package council

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medcouncil/internal/llm"
)

func TestParseMemberCleanJSON(t *testing.T) {
	rec := parseMember(`{"differentials":["flu","cold"],"next_steps":["rest"],"confidence":0.75,"red_flag":false}`)
	require.NotNil(t, rec.Parsed)
	assert.Equal(t, []string{"flu", "cold"}, rec.Parsed.Differentials)
	assert.InDelta(t, 0.75, rec.Parsed.Confidence, 1e-9)
}

func TestParseMemberJSONWrappedInProse(t *testing.T) {
	rec := parseMember("Sure! Here is my assessment:\n```json\n" +
		`{"differentials":["migraine"],"next_steps":[],"confidence":0.6,"red_flag":false}` +
		"\n```\nHope that helps.")
	require.NotNil(t, rec.Parsed)
	assert.Equal(t, []string{"migraine"}, rec.Parsed.Differentials)
}

func TestParseMemberGarbageFallsBackToRaw(t *testing.T) {
	long := strings.Repeat("the patient likely has a viral syndrome ", 20)
	rec := parseMember(long)
	assert.Nil(t, rec.Parsed)
	assert.Equal(t, 300, len(rec.Raw))
}

func TestParseMemberBrokenJSONFallsBackToRaw(t *testing.T) {
	rec := parseMember(`{"differentials":["flu", "confidence": broken`)
	assert.Nil(t, rec.Parsed)
	assert.NotEmpty(t, rec.Raw)
}

func TestParseMemberSentinelIsEmptyRecord(t *testing.T) {
	rec := parseMember(llm.SentinelResponse)
	require.NotNil(t, rec.Parsed)
	assert.Empty(t, rec.Parsed.Differentials)
	assert.Empty(t, rec.Parsed.NextSteps)
	assert.Zero(t, rec.Parsed.Confidence)
	assert.False(t, rec.Parsed.RedFlag)
}

func TestParseReviewValid(t *testing.T) {
	pr := parseReview(`{"ranking":["B","A","C"],"reasoning":"B was thorough"}`, []string{"A", "B", "C"})
	assert.Equal(t, []string{"B", "A", "C"}, pr.Ranking)
	assert.Equal(t, "B was thorough", pr.Reasoning)
}

func TestParseReviewMissingRankingFallsBack(t *testing.T) {
	for _, text := range []string{
		"no json here",
		`{"reasoning":"forgot the ranking"}`,
		`{"ranking":[],"reasoning":"empty"}`,
		"",
	} {
		pr := parseReview(text, []string{"A", "B", "C"})
		assert.Equal(t, []string{"A", "B", "C"}, pr.Ranking, "input %q", text)
		assert.Equal(t, "default order", pr.Reasoning)
	}
}

func TestParseSynthesis(t *testing.T) {
	rec := parseSynthesis(`{"final_differentials":["GERD"],"recommended_next_steps":["antacids"],"confidence":0.82,"red_flag":false,"summary":"Likely reflux."}`)
	require.NotNil(t, rec.Parsed)
	assert.Equal(t, "Likely reflux.", rec.Parsed.Summary)
}

func TestMemberRecordJSONShapes(t *testing.T) {
	parsed := MemberRecord{Parsed: &MemberResponse{Differentials: []string{"flu"}}}
	raw, err := json.Marshal(parsed)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"differentials":["flu"]`)

	fallback := MemberRecord{Raw: "gibberish"}
	raw, err = json.Marshal(fallback)
	require.NoError(t, err)
	assert.JSONEq(t, `{"raw":"gibberish"}`, string(raw))
}

func TestExtractObjectEdgeCases(t *testing.T) {
	assert.Equal(t, "", extractObject("no braces"))
	assert.Equal(t, "", extractObject("}{"))
	assert.Equal(t, `{"a":1}`, extractObject(`prefix {"a":1} suffix`))
}
