package council

import (
	"encoding/json"
	"strings"
)

const rawCap = 300

// MemberResponse is the structured answer expected from a council member.
type MemberResponse struct {
	Differentials []string `json:"differentials"`
	NextSteps     []string `json:"next_steps"`
	Confidence    float64  `json:"confidence"`
	RedFlag       bool     `json:"red_flag"`
}

// MemberRecord is the tagged result of parsing one member's output: either
// the structured response, or the raw head of whatever came back.
type MemberRecord struct {
	Parsed *MemberResponse
	Raw    string
}

// MarshalJSON renders the parsed response directly, or a {"raw": ...}
// object on parse failure, so event payloads mirror the member output.
func (r MemberRecord) MarshalJSON() ([]byte, error) {
	if r.Parsed != nil {
		return json.Marshal(r.Parsed)
	}
	return json.Marshal(map[string]string{"raw": r.Raw})
}

// PeerReview is the convergence outcome.
type PeerReview struct {
	Ranking   []string `json:"ranking"`
	Reasoning string   `json:"reasoning"`
}

// Synthesis is the chairman's final merged answer.
type Synthesis struct {
	FinalDifferentials   []string `json:"final_differentials"`
	RecommendedNextSteps []string `json:"recommended_next_steps"`
	Confidence           float64  `json:"confidence"`
	RedFlag              bool     `json:"red_flag"`
	Summary              string   `json:"summary"`
}

// SynthesisRecord is the tagged parse result for the synthesis stage.
type SynthesisRecord struct {
	Parsed *Synthesis
	Raw    string
}

// MarshalJSON mirrors MemberRecord.
func (r SynthesisRecord) MarshalJSON() ([]byte, error) {
	if r.Parsed != nil {
		return json.Marshal(r.Parsed)
	}
	return json.Marshal(map[string]string{"raw": r.Raw})
}

// extractObject returns the substring from the first '{' to the last '}',
// or "" when no balanced region exists. Model "JSON mode" is advisory, so
// responses routinely carry prose or fences around the object.
func extractObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// parseMember extracts and decodes a member response. It never fails: any
// decode problem yields a raw record capped at 300 bytes.
func parseMember(text string) MemberRecord {
	if obj := extractObject(text); obj != "" {
		var resp MemberResponse
		if err := json.Unmarshal([]byte(obj), &resp); err == nil {
			return MemberRecord{Parsed: &resp}
		}
	}
	return MemberRecord{Raw: head(text, rawCap)}
}

// parseSynthesis mirrors parseMember for the chairman output.
func parseSynthesis(text string) SynthesisRecord {
	if obj := extractObject(text); obj != "" {
		var syn Synthesis
		if err := json.Unmarshal([]byte(obj), &syn); err == nil {
			return SynthesisRecord{Parsed: &syn}
		}
	}
	return SynthesisRecord{Raw: head(text, rawCap)}
}

// parseReview decodes the reviewer output, falling back to the given
// default ranking when the ranking is absent or malformed.
func parseReview(text string, defaultRanking []string) PeerReview {
	if obj := extractObject(text); obj != "" {
		var pr PeerReview
		if err := json.Unmarshal([]byte(obj), &pr); err == nil && len(pr.Ranking) > 0 {
			return pr
		}
	}
	return PeerReview{Ranking: defaultRanking, Reasoning: "default order"}
}

func head(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
