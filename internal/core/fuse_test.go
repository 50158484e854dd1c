package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testEvidence(source SourceID, score float64, confidence float64) *ReconciledEvidence {
	item := &EvidenceItem{Source: source, Score: score}
	if confidence >= 0 {
		item.Confidence = &confidence
	}
	return Reconcile(item)
}

func englishInput(text string) NormalizedText {
	return NormalizedText{Language: "en", Text: text}
}

func TestFuseTotalFailureDefaultsToMedium(t *testing.T) {
	fuser := NewFuser("en", zap.NewNop())
	msg := &Message{Text: "hello", Mode: ModeBoth}

	verdict := fuser.Fuse(msg,
		map[SourceID]*ReconciledEvidence{},
		map[SourceID]bool{
			SourceClassifier:   false,
			SourceContentAgent: false,
			SourceLinkAgent:    false,
			SourceSenderAgent:  false,
			SourceContextAgent: false,
		},
		englishInput("hello"))

	assert.Equal(t, RiskMedium, verdict.Risk)
	assert.Nil(t, verdict.Confidence)
	assert.Contains(t, verdict.Explanation, "insufficient")
}

func TestFuseClassifierAloneInBothMode(t *testing.T) {
	fuser := NewFuser("en", zap.NewNop())
	msg := &Message{Text: "hello", Mode: ModeBoth}

	evidence := map[SourceID]*ReconciledEvidence{
		SourceClassifier: testEvidence(SourceClassifier, 0.89, 0.89),
	}
	availability := map[SourceID]bool{
		SourceClassifier:   true,
		SourceContentAgent: false,
		SourceLinkAgent:    false,
		SourceSenderAgent:  false,
		SourceContextAgent: false,
	}

	verdict := fuser.Fuse(msg, evidence, availability, englishInput("hello"))

	assert.Equal(t, RiskHigh, verdict.Risk)
	assert.Contains(t, verdict.Explanation, "classifier alone")
}

func TestFuseClassifierOnlyMode(t *testing.T) {
	fuser := NewFuser("en", zap.NewNop())
	msg := &Message{Text: "hello", Mode: ModeClassifierOnly}

	evidence := map[SourceID]*ReconciledEvidence{
		SourceClassifier: testEvidence(SourceClassifier, 0.89, 0.9),
	}
	availability := map[SourceID]bool{SourceClassifier: true}

	verdict := fuser.Fuse(msg, evidence, availability, englishInput("hello"))

	assert.Equal(t, RiskHigh, verdict.Risk)
	// The mode asked for the classifier alone, so no degradation note.
	assert.NotContains(t, verdict.Explanation, "classifier alone")
	require.NotNil(t, verdict.Confidence)
	assert.InDelta(t, 0.9, *verdict.Confidence, 1e-9)
}

func TestFuseAgentsAloneWhenClassifierDown(t *testing.T) {
	fuser := NewFuser("en", zap.NewNop())
	msg := &Message{Text: "hello", Mode: ModeBoth}

	evidence := map[SourceID]*ReconciledEvidence{
		SourceContentAgent: testEvidence(SourceContentAgent, 0.8, 0.9),
		SourceLinkAgent:    testEvidence(SourceLinkAgent, 0.9, 0.9),
	}
	availability := map[SourceID]bool{
		SourceClassifier:   false,
		SourceContentAgent: true,
		SourceLinkAgent:    true,
		SourceSenderAgent:  false,
		SourceContextAgent: false,
	}

	verdict := fuser.Fuse(msg, evidence, availability, englishInput("hello"))

	assert.Equal(t, RiskHigh, verdict.Risk)
	assert.Contains(t, verdict.Explanation, "classifier unavailable")
}

func TestFuseWeightedCombination(t *testing.T) {
	fuser := NewFuser("en", zap.NewNop())
	msg := &Message{Text: "hello", Mode: ModeBoth}

	// clf 0.9, agents 0.6 with equal confidence: 0.5*0.9 + 0.5*0.6 = 0.75.
	evidence := map[SourceID]*ReconciledEvidence{
		SourceClassifier:   testEvidence(SourceClassifier, 0.9, 0.9),
		SourceContentAgent: testEvidence(SourceContentAgent, 0.6, 0.8),
		SourceLinkAgent:    testEvidence(SourceLinkAgent, 0.6, 0.8),
	}
	availability := map[SourceID]bool{
		SourceClassifier:   true,
		SourceContentAgent: true,
		SourceLinkAgent:    true,
		SourceSenderAgent:  false,
		SourceContextAgent: false,
	}

	verdict := fuser.Fuse(msg, evidence, availability, englishInput("hello"))

	assert.Equal(t, RiskHigh, verdict.Risk)
}

func TestFuseLanguageDiscountReducesClassifierWeight(t *testing.T) {
	fuser := NewFuser("en", zap.NewNop())
	msg := &Message{Text: "hola", Mode: ModeBoth}

	// Same evidence as the weighted-combination case, but in Spanish:
	// 0.25*0.9 + 0.75*0.6 = 0.675, which lands in the medium band.
	evidence := map[SourceID]*ReconciledEvidence{
		SourceClassifier:   testEvidence(SourceClassifier, 0.9, 0.9),
		SourceContentAgent: testEvidence(SourceContentAgent, 0.6, 0.8),
		SourceLinkAgent:    testEvidence(SourceLinkAgent, 0.6, 0.8),
	}
	availability := map[SourceID]bool{
		SourceClassifier:   true,
		SourceContentAgent: true,
		SourceLinkAgent:    true,
		SourceSenderAgent:  false,
		SourceContextAgent: false,
	}

	verdict := fuser.Fuse(msg, evidence, availability, NormalizedText{Language: "es", Text: "hello"})

	assert.Equal(t, RiskMedium, verdict.Risk)
	assert.Contains(t, verdict.Explanation, "calibrated")
	assert.Contains(t, verdict.Explanation, `"es"`)
}

func TestFuseNoDiscountForUnknownLanguage(t *testing.T) {
	fuser := NewFuser("en", zap.NewNop())
	msg := &Message{Text: "hello", Mode: ModeBoth}

	evidence := map[SourceID]*ReconciledEvidence{
		SourceClassifier:   testEvidence(SourceClassifier, 0.9, 0.9),
		SourceContentAgent: testEvidence(SourceContentAgent, 0.6, 0.8),
	}
	availability := map[SourceID]bool{
		SourceClassifier:   true,
		SourceContentAgent: true,
		SourceLinkAgent:    false,
		SourceSenderAgent:  false,
		SourceContextAgent: false,
	}

	verdict := fuser.Fuse(msg, evidence, availability, NormalizedText{Language: "unknown", Text: "hello"})

	assert.NotContains(t, verdict.Explanation, "calibrated")
	assert.Equal(t, RiskHigh, verdict.Risk)
}

func TestFuseDisagreementAgentsDecisive(t *testing.T) {
	fuser := NewFuser("en", zap.NewNop())
	msg := &Message{Text: "hello", Mode: ModeBoth}

	// Classifier says fraud, all agents are near-certain it is benign.
	evidence := map[SourceID]*ReconciledEvidence{
		SourceClassifier:   testEvidence(SourceClassifier, 0.9, 0.9),
		SourceContentAgent: testEvidence(SourceContentAgent, 0.1, 0.9),
		SourceLinkAgent:    testEvidence(SourceLinkAgent, 0.1, 0.9),
	}
	availability := map[SourceID]bool{
		SourceClassifier:   true,
		SourceContentAgent: true,
		SourceLinkAgent:    true,
		SourceSenderAgent:  false,
		SourceContextAgent: false,
	}

	verdict := fuser.Fuse(msg, evidence, availability, englishInput("hello"))

	assert.Equal(t, RiskLow, verdict.Risk)
	assert.Contains(t, verdict.Explanation, "disagree")
	assert.Contains(t, verdict.Explanation, "agent consensus")
}

func TestFuseDisagreementWithoutDecisiveSideSettlesOnMedium(t *testing.T) {
	fuser := NewFuser("en", zap.NewNop())
	msg := &Message{Text: "hello", Mode: ModeBoth}

	evidence := map[SourceID]*ReconciledEvidence{
		SourceClassifier:   testEvidence(SourceClassifier, 0.95, 0.9),
		SourceContentAgent: testEvidence(SourceContentAgent, 0.3, 0.9),
		SourceLinkAgent:    testEvidence(SourceLinkAgent, 0.3, 0.9),
	}
	availability := map[SourceID]bool{
		SourceClassifier:   true,
		SourceContentAgent: true,
		SourceLinkAgent:    true,
		SourceSenderAgent:  false,
		SourceContextAgent: false,
	}

	verdict := fuser.Fuse(msg, evidence, availability, englishInput("hello"))

	assert.Equal(t, RiskMedium, verdict.Risk)
	assert.Contains(t, verdict.Explanation, "settling on medium")
}

func TestFuseMentionsMismatches(t *testing.T) {
	fuser := NewFuser("en", zap.NewNop())
	msg := &Message{Text: "hello", Mode: ModeBoth}

	contentMismatch := Reconcile(&EvidenceItem{
		Source:   SourceContentAgent,
		Score:    0.5,
		Judgment: JudgmentSuspicious,
	})
	require.NotEmpty(t, contentMismatch.Mismatch)

	linkMismatch := Reconcile(&EvidenceItem{
		Source:   SourceLinkAgent,
		Score:    0.9,
		Judgment: JudgmentBenign,
	})
	require.NotEmpty(t, linkMismatch.Mismatch)

	evidence := map[SourceID]*ReconciledEvidence{
		SourceContentAgent: contentMismatch,
		SourceLinkAgent:    linkMismatch,
	}
	availability := map[SourceID]bool{
		SourceClassifier:   false,
		SourceContentAgent: true,
		SourceLinkAgent:    true,
		SourceSenderAgent:  false,
		SourceContextAgent: false,
	}

	verdict := fuser.Fuse(msg, evidence, availability, englishInput("hello"))

	// The summary names the contradicting sources in stable order.
	assert.Contains(t, verdict.Explanation,
		"2 source(s) contradicted their own score (content-agent, link-agent)")
}

func TestFuseConfidenceScalesWithCoverage(t *testing.T) {
	fuser := NewFuser("en", zap.NewNop())
	msg := &Message{Text: "hello", Mode: ModeBoth}

	// One of five requested sources answered with confidence 1.0, so the
	// overall confidence is 1.0 * 1/5.
	evidence := map[SourceID]*ReconciledEvidence{
		SourceContentAgent: testEvidence(SourceContentAgent, 0.5, 1.0),
	}
	availability := map[SourceID]bool{
		SourceClassifier:   false,
		SourceContentAgent: true,
		SourceLinkAgent:    false,
		SourceSenderAgent:  false,
		SourceContextAgent: false,
	}

	verdict := fuser.Fuse(msg, evidence, availability, englishInput("hello"))

	require.NotNil(t, verdict.Confidence)
	assert.InDelta(t, 0.2, *verdict.Confidence, 1e-9)
}

func TestModeRequests(t *testing.T) {
	assert.True(t, modeRequests(ModeClassifierOnly, SourceClassifier))
	assert.False(t, modeRequests(ModeClassifierOnly, SourceContentAgent))
	assert.False(t, modeRequests(ModeAgentsOnly, SourceClassifier))
	assert.True(t, modeRequests(ModeAgentsOnly, SourceLinkAgent))
	for _, id := range AllSources {
		assert.True(t, modeRequests(ModeBoth, id))
	}
}
