package core

import (
	"fmt"
	"time"
)

// MaxTextLength is the hard upper bound on inbound message size.
const MaxTextLength = 8000

// DetectionMode selects which evidence sources participate in an analysis.
type DetectionMode string

const (
	ModeClassifierOnly DetectionMode = "classifier-only"
	ModeAgentsOnly     DetectionMode = "agents-only"
	ModeBoth           DetectionMode = "both"
)

// Valid reports whether the mode is one of the supported values.
func (m DetectionMode) Valid() bool {
	switch m {
	case ModeClassifierOnly, ModeAgentsOnly, ModeBoth:
		return true
	}
	return false
}

// SourceID identifies one evidence source.
type SourceID string

const (
	SourceClassifier   SourceID = "classifier"
	SourceContentAgent SourceID = "content-agent"
	SourceLinkAgent    SourceID = "link-agent"
	SourceSenderAgent  SourceID = "sender-agent"
	SourceContextAgent SourceID = "context-agent"
)

// AllSources lists every known evidence source.
var AllSources = []SourceID{
	SourceClassifier,
	SourceContentAgent,
	SourceLinkAgent,
	SourceSenderAgent,
	SourceContextAgent,
}

// Judgment is a categorical verdict from a single evidence source.
type Judgment string

const (
	JudgmentBenign     Judgment = "benign"
	JudgmentSuspicious Judgment = "suspicious"
	JudgmentUnknown    Judgment = "unknown"
)

// RiskLevel is the fused verdict tier.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Message is the unit of work: one inbound SMS plus optional metadata.
// Immutable once created.
type Message struct {
	Text string `json:"text"`

	// ReceivedAt is when the message arrived; zero means unknown.
	ReceivedAt time.Time `json:"received_at,omitempty"`

	// PriorFromSender counts earlier messages from the same sender in a
	// trailing window; negative means unknown.
	PriorFromSender int `json:"prior_from_sender"`

	// Expected is whether the recipient was expecting a message of this
	// kind; nil means unknown.
	Expected *bool `json:"expected,omitempty"`

	Mode DetectionMode `json:"detection_mode"`
}

// NormalizedText is the canonical-language rendering of a message.
type NormalizedText struct {
	// Language is the detected source language tag, or "unknown".
	Language string `json:"language"`
	Text     string `json:"text"`
}

// EvidenceItem is one collector's raw output. It is never mutated after
// creation; reconciliation derives a new structure instead.
type EvidenceItem struct {
	Source SourceID `json:"source"`

	// Score is the suspicion score in [0,1], 1 = most suspicious.
	Score float64 `json:"score"`

	// Judgment is the source's own categorical verdict; empty when the
	// source reported none.
	Judgment Judgment `json:"judgment,omitempty"`

	Signals   []string `json:"signals,omitempty"`
	Features  []string `json:"features,omitempty"`
	Rationale string   `json:"rationale,omitempty"`
	Language  string   `json:"language,omitempty"`

	// Confidence is the source's self-reported confidence; nil when absent.
	Confidence *float64 `json:"confidence,omitempty"`
}

// ReconciledEvidence is an EvidenceItem plus the reconciler's resolved
// judgment and, when the source contradicted its own score, a mismatch
// explanation.
type ReconciledEvidence struct {
	EvidenceItem

	ResolvedJudgment Judgment `json:"resolved_judgment"`

	// Mismatch explains a disagreement between the self-reported judgment
	// and the threshold-implied one; empty when there was none.
	Mismatch string `json:"mismatch,omitempty"`
}

// Verdict is the pipeline's terminal artifact.
type Verdict struct {
	Risk RiskLevel `json:"risk"`

	// Confidence is the overall confidence in [0,1]; nil means the verdict
	// is undetermined.
	Confidence *float64 `json:"confidence,omitempty"`

	Explanation string `json:"explanation"`
}

// AnalysisResult is the full audit record for one analyzed message.
// Assembled once and returned; never updated in place.
type AnalysisResult struct {
	ID           string                           `json:"id"`
	Message      *Message                         `json:"message"`
	Input        NormalizedText                   `json:"input"`
	Evidence     map[SourceID]*ReconciledEvidence `json:"evidence"`
	Availability map[SourceID]bool                `json:"availability"`
	URLs         []string                         `json:"urls,omitempty"`
	Verdict      Verdict                          `json:"verdict"`
	AnalyzedAt   time.Time                        `json:"analyzed_at"`
	Elapsed      time.Duration                    `json:"elapsed_ns"`
	FromCache    bool                             `json:"from_cache,omitempty"`
}

// ValidationError rejects malformed input before the pipeline runs. It is
// the only error that crosses the pipeline boundary.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// CacheEntry is a stored verdict for a previously analyzed message.
type CacheEntry struct {
	Key         string
	Risk        RiskLevel
	Confidence  *float64
	Explanation string
	AnalyzedAt  time.Time
	ExpiresAt   time.Time
}

// Feedback is a caller's judgement on a completed analysis, kept for
// offline evaluation.
type Feedback struct {
	ID         string          `json:"id"`
	Correct    bool            `json:"correct"`
	Note       string          `json:"note,omitempty"`
	Analysis   *AnalysisResult `json:"analysis"`
	ReceivedAt time.Time       `json:"received_at"`
}
