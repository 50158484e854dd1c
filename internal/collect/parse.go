package collect

import (
	"encoding/json"
	"fmt"

	"github.com/mikey/sms-sentinel/internal/core"
)

// agentResponse is the structured shape every reasoning agent is asked to
// produce. The text is untrusted: fields are pointers or defaulted so a
// partially well-formed response still parses, and a response with no
// score at all is rejected.
type agentResponse struct {
	Score      *float64 `json:"score"`
	Judgment   string   `json:"judgment"`
	Signals    []string `json:"signals"`
	Features   []string `json:"features"`
	Rationale  string   `json:"rationale"`
	Language   string   `json:"language"`
	Confidence *float64 `json:"confidence"`
}

// extractJSON pulls the outermost JSON object out of free-form model
// output. Models wrap their JSON in prose often enough that the strict
// parse is tried first and this salvage second.
func extractJSON(text string) (string, error) {
	jsonStart := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			jsonStart = i
			break
		}
	}

	jsonEnd := -1
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '}' {
			jsonEnd = i + 1
			break
		}
	}

	if jsonStart < 0 || jsonEnd <= jsonStart {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return text[jsonStart:jsonEnd], nil
}

// parseEvidence turns raw model output into an EvidenceItem. Any failure
// means the source is unavailable for this request; it is never fatal.
func parseEvidence(source core.SourceID, text string) (*core.EvidenceItem, error) {
	var resp agentResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		salvaged, serr := extractJSON(text)
		if serr != nil {
			return nil, fmt.Errorf("failed to extract JSON from response: %w", err)
		}
		if err := json.Unmarshal([]byte(salvaged), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse response as JSON: %w", err)
		}
	}

	if resp.Score == nil {
		return nil, fmt.Errorf("response carries no suspicion score")
	}

	item := &core.EvidenceItem{
		Source:    source,
		Score:     core.Clamp01(*resp.Score),
		Judgment:  normalizeJudgment(resp.Judgment),
		Signals:   resp.Signals,
		Features:  resp.Features,
		Rationale: resp.Rationale,
		Language:  resp.Language,
	}
	if resp.Confidence != nil {
		c := core.Clamp01(*resp.Confidence)
		item.Confidence = &c
	}
	return item, nil
}

// normalizeJudgment maps a model-supplied judgment onto the known set; an
// unrecognized value counts as not reported.
func normalizeJudgment(s string) core.Judgment {
	switch core.Judgment(s) {
	case core.JudgmentBenign, core.JudgmentSuspicious, core.JudgmentUnknown:
		return core.Judgment(s)
	}
	return ""
}
