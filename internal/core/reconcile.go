package core

import (
	"fmt"
)

// Threshold policy for mapping a numeric suspicion score to a judgment.
const (
	// SuspicionThreshold is the score at or above which a message is
	// considered suspicious.
	SuspicionThreshold = 0.7

	// BenignThreshold is the score at or below which a message is
	// considered benign.
	BenignThreshold = 0.4
)

// Clamp01 clamps v into [0,1]. The reconciler is the single place scores
// and confidences are made numerically legal; downstream components rely
// on that and never re-clamp.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ImpliedJudgment maps a suspicion score to its threshold-implied judgment.
func ImpliedJudgment(score float64) Judgment {
	switch {
	case score >= SuspicionThreshold:
		return JudgmentSuspicious
	case score <= BenignThreshold:
		return JudgmentBenign
	default:
		return JudgmentUnknown
	}
}

// Reconcile resolves a collector's numeric score against its self-reported
// categorical judgment. A self-reported judgment that contradicts the
// threshold-implied one is kept (it may encode context the threshold
// cannot), but the disagreement is surfaced as a mismatch explanation,
// synthesized when the collector gave none. A collector that reported no
// judgment receives the implied one with no mismatch.
func Reconcile(item *EvidenceItem) *ReconciledEvidence {
	derived := *item
	derived.Score = Clamp01(item.Score)
	if item.Confidence != nil {
		c := Clamp01(*item.Confidence)
		derived.Confidence = &c
	}

	implied := ImpliedJudgment(derived.Score)

	rec := &ReconciledEvidence{EvidenceItem: derived}
	if item.Judgment == "" {
		rec.ResolvedJudgment = implied
		return rec
	}

	rec.ResolvedJudgment = item.Judgment
	if item.Judgment != implied {
		if item.Rationale != "" {
			rec.Mismatch = fmt.Sprintf(
				"%s reported %q but its score %.2f implies %q: %s",
				item.Source, item.Judgment, derived.Score, implied, item.Rationale)
		} else {
			rec.Mismatch = fmt.Sprintf(
				"%s reported %q but its score %.2f implies %q; no rationale was given for the disagreement",
				item.Source, item.Judgment, derived.Score, implied)
		}
	}
	return rec
}
