package core

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Fusion weights and bounds. The classifier's share of the fused score
// drops when the message language is not the canonical one, because the
// statistical model was calibrated on canonical-language text only.
const (
	classifierWeight           = 0.5
	discountedClassifierWeight = 0.25

	// dominantOverride is the score a side must reach to win a hard
	// disagreement outright instead of settling on medium.
	dominantOverride = 0.85

	// defaultAgentConfidence weights agents that reported no confidence.
	defaultAgentConfidence = 0.5
)

var agentSources = []SourceID{
	SourceContentAgent,
	SourceLinkAgent,
	SourceSenderAgent,
	SourceContextAgent,
}

// Fuser combines all available reconciled evidence into a single verdict.
// Fuse is total: it degrades under missing evidence, it never fails.
type Fuser struct {
	canonicalLanguage string
	logger            *zap.Logger
}

// NewFuser creates a new fuser. canonicalLanguage is the language the
// classifier was calibrated on, e.g. "en".
func NewFuser(canonicalLanguage string, logger *zap.Logger) *Fuser {
	return &Fuser{
		canonicalLanguage: canonicalLanguage,
		logger:            logger,
	}
}

// riskTier maps a fused score to a risk level using the same bands the
// reconciler uses for judgments.
func riskTier(score float64) RiskLevel {
	switch {
	case score >= SuspicionThreshold:
		return RiskHigh
	case score <= BenignThreshold:
		return RiskLow
	default:
		return RiskMedium
	}
}

// confidenceTier describes a confidence value in words.
func confidenceTier(c float64) string {
	switch {
	case c >= 0.9:
		return "very high"
	case c >= 0.7:
		return "high"
	case c >= 0.5:
		return "moderate"
	default:
		return "low"
	}
}

// Fuse combines the reconciled evidence into one verdict. It must produce
// a verdict for every subset of source availability, including none.
func (f *Fuser) Fuse(
	msg *Message,
	evidence map[SourceID]*ReconciledEvidence,
	availability map[SourceID]bool,
	input NormalizedText,
) Verdict {
	clf := evidence[SourceClassifier]

	agents := make([]*ReconciledEvidence, 0, len(agentSources))
	for _, id := range agentSources {
		if ev, ok := evidence[id]; ok {
			agents = append(agents, ev)
		}
	}

	if clf == nil && len(agents) == 0 {
		return Verdict{
			Risk:        RiskMedium,
			Explanation: "insufficient structured output from evidence sources; defaulting to medium risk",
		}
	}

	var parts []string
	var fused float64

	agentScore, agentOK := aggregateAgents(agents)
	if agentOK {
		parts = append(parts, describeAgents(agents, agentScore))
	}

	switch {
	case clf != nil && !agentOK:
		fused = clf.Score
		parts = append(parts, describeClassifier(clf))
		if msg.Mode != ModeClassifierOnly {
			parts = append(parts, "no reasoning agent produced usable output; risk derives from the classifier alone")
		}

	case clf == nil && agentOK:
		fused = agentScore
		if msg.Mode != ModeAgentsOnly {
			parts = append(parts, "classifier unavailable; risk derives from the reasoning agents alone")
		}

	default:
		wc := classifierWeight
		if f.discountClassifier(input.Language) {
			wc = discountedClassifierWeight
			parts = append(parts, fmt.Sprintf(
				"classifier weight reduced because the message language %q is not %s, the language the classifier was calibrated on",
				input.Language, f.canonicalLanguage))
		}
		fused = wc*clf.Score + (1-wc)*agentScore
		parts = append(parts, describeClassifier(clf))
	}

	risk := riskTier(fused)

	// A classifier and agent aggregate on opposite sides of the bands is
	// a hard disagreement and must be resolved out loud.
	if clf != nil && agentOK {
		clfBand := ImpliedJudgment(clf.Score)
		agentBand := ImpliedJudgment(agentScore)
		if bandsConflict(clfBand, agentBand) {
			risk = f.resolveDisagreement(clf.Score, agentScore, &parts)
		}
	}

	if mismatched := mismatchedSources(evidence); len(mismatched) > 0 {
		parts = append(parts, fmt.Sprintf("%d source(s) contradicted their own score (%s); see per-source mismatch explanations",
			len(mismatched), strings.Join(mismatched, ", ")))
	}

	conf := f.overallConfidence(msg.Mode, evidence, availability)

	f.logger.Debug("Fused verdict",
		zap.Float64("fused_score", fused),
		zap.String("risk", string(risk)),
		zap.Int("agents", len(agents)),
		zap.Bool("classifier", clf != nil))

	return Verdict{
		Risk:        risk,
		Confidence:  conf,
		Explanation: strings.Join(parts, "; "),
	}
}

// discountClassifier reports whether the classifier's contribution should
// be reduced for this input language. An unknown language gives no basis
// to discount.
func (f *Fuser) discountClassifier(language string) bool {
	if language == "" || language == "unknown" {
		return false
	}
	return language != f.canonicalLanguage
}

// aggregateAgents computes the confidence-weighted mean of the agents'
// suspicion scores.
func aggregateAgents(agents []*ReconciledEvidence) (float64, bool) {
	if len(agents) == 0 {
		return 0, false
	}
	var sum, weight float64
	for _, a := range agents {
		w := defaultAgentConfidence
		if a.Confidence != nil {
			w = *a.Confidence
		}
		if w <= 0 {
			w = defaultAgentConfidence
		}
		sum += w * a.Score
		weight += w
	}
	return sum / weight, true
}

func describeAgents(agents []*ReconciledEvidence, score float64) string {
	var suspicious, benign int
	for _, a := range agents {
		switch a.ResolvedJudgment {
		case JudgmentSuspicious:
			suspicious++
		case JudgmentBenign:
			benign++
		}
	}
	return fmt.Sprintf("%d reasoning agent(s) reported (suspicious=%d benign=%d, weighted score %.2f)",
		len(agents), suspicious, benign, score)
}

func describeClassifier(clf *ReconciledEvidence) string {
	desc := fmt.Sprintf("classifier assigned fraud probability %.2f", clf.Score)
	if clf.Confidence != nil {
		desc += fmt.Sprintf(" with %s confidence", confidenceTier(*clf.Confidence))
	}
	if clf.Rationale != "" {
		desc += " (" + clf.Rationale + ")"
	}
	return desc
}

func bandsConflict(a, b Judgment) bool {
	return (a == JudgmentSuspicious && b == JudgmentBenign) ||
		(a == JudgmentBenign && b == JudgmentSuspicious)
}

// resolveDisagreement settles a hard classifier/agent conflict. The agents
// dominate: they reason over both the original and normalized text. Their
// side wins outright only when decisive; otherwise the verdict settles on
// medium. The resolution is always spelled out in the explanation.
func (f *Fuser) resolveDisagreement(clfScore, agentScore float64, parts *[]string) RiskLevel {
	*parts = append(*parts, fmt.Sprintf(
		"classifier (%.2f) and reasoning agents (%.2f) disagree about this message", clfScore, agentScore))

	if agentScore >= dominantOverride || agentScore <= 1-dominantOverride {
		*parts = append(*parts, fmt.Sprintf(
			"resolution: following the agent consensus, which is decisive at %.2f", agentScore))
		return riskTier(agentScore)
	}

	*parts = append(*parts, "resolution: neither side is decisive, settling on medium risk")
	return RiskMedium
}

// mismatchedSources lists, in stable order, the sources whose stated
// judgment contradicted their own score.
func mismatchedSources(evidence map[SourceID]*ReconciledEvidence) []string {
	var ids []string
	for id, ev := range evidence {
		if ev.Mismatch != "" {
			ids = append(ids, string(id))
		}
	}
	sort.Strings(ids)
	return ids
}

// overallConfidence averages the available sources' confidences and scales
// by coverage of the requested sources. Nil when nothing answered.
func (f *Fuser) overallConfidence(
	mode DetectionMode,
	evidence map[SourceID]*ReconciledEvidence,
	availability map[SourceID]bool,
) *float64 {
	if len(evidence) == 0 {
		return nil
	}

	var sum float64
	for _, ev := range evidence {
		if ev.Confidence != nil {
			sum += *ev.Confidence
		} else {
			sum += defaultAgentConfidence
		}
	}
	mean := sum / float64(len(evidence))

	requested := 0
	answered := 0
	for id, ok := range availability {
		if !modeRequests(mode, id) {
			continue
		}
		requested++
		if ok {
			answered++
		}
	}
	if requested == 0 {
		return nil
	}

	conf := Clamp01(mean * float64(answered) / float64(requested))
	return &conf
}

// modeRequests reports whether the detection mode asks for this source.
func modeRequests(mode DetectionMode, id SourceID) bool {
	switch mode {
	case ModeClassifierOnly:
		return id == SourceClassifier
	case ModeAgentsOnly:
		return id != SourceClassifier
	default:
		return true
	}
}
