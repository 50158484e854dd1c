package collect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/core"
)

// stubLLM returns a canned response and records the last prompt.
type stubLLM struct {
	response string
	err      error
	prompt   string
	system   string
}

func (s *stubLLM) Complete(_ context.Context, system, prompt string) (string, error) {
	s.system = system
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func englishInput(text string) core.CollectInput {
	return core.CollectInput{
		Normalized:      core.NormalizedText{Language: "en", Text: text},
		Original:        text,
		PriorFromSender: -1,
	}
}

func TestAgentIDMapping(t *testing.T) {
	tests := []struct {
		dimension Dimension
		expected  core.SourceID
	}{
		{DimensionContent, core.SourceContentAgent},
		{DimensionLink, core.SourceLinkAgent},
		{DimensionSender, core.SourceSenderAgent},
		{DimensionContext, core.SourceContextAgent},
	}

	for _, tt := range tests {
		agent := NewAgent(tt.dimension, &stubLLM{}, zap.NewNop())
		assert.Equal(t, tt.expected, agent.ID())
	}
}

func TestAgentCollectParsesResponse(t *testing.T) {
	llm := &stubLLM{response: `{"score": 0.8, "judgment": "suspicious", "confidence": 0.7}`}
	agent := NewAgent(DimensionContent, llm, zap.NewNop())

	item, err := agent.Collect(context.Background(), englishInput("you won a prize, claim here"))
	require.NoError(t, err)

	assert.Equal(t, core.SourceContentAgent, item.Source)
	assert.Equal(t, 0.8, item.Score)
	assert.Equal(t, core.JudgmentSuspicious, item.Judgment)
	assert.Contains(t, llm.prompt, "you won a prize")
	assert.Contains(t, llm.system, "fraud analysis agent")
}

func TestAgentCollectPropagatesModelError(t *testing.T) {
	llm := &stubLLM{err: errors.New("throttled")}
	agent := NewAgent(DimensionContent, llm, zap.NewNop())

	_, err := agent.Collect(context.Background(), englishInput("hello"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "content agent")
}

func TestAgentCollectRejectsUnparsableOutput(t *testing.T) {
	llm := &stubLLM{response: "I refuse to answer in JSON."}
	agent := NewAgent(DimensionLink, llm, zap.NewNop())

	_, err := agent.Collect(context.Background(), englishInput("hello"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "output unusable")
}

func TestLinkAgentPromptCarriesURLsAndTrust(t *testing.T) {
	llm := &stubLLM{response: `{"score": 0.9}`}
	agent := NewAgent(DimensionLink, llm, zap.NewNop())

	in := englishInput("verify at http://paypa1-secure.com/login")
	in.URLs = []string{"http://paypa1-secure.com/login"}
	in.TrustedDomains = []string{"mybank.com"}

	_, err := agent.Collect(context.Background(), in)
	require.NoError(t, err)

	assert.Contains(t, llm.prompt, "http://paypa1-secure.com/login")
	assert.Contains(t, llm.prompt, "trusted allowlist")
	assert.Contains(t, llm.prompt, "mybank.com")
}

func TestLinkAgentPromptNotesAbsentURLs(t *testing.T) {
	llm := &stubLLM{response: `{"score": 0.1}`}
	agent := NewAgent(DimensionLink, llm, zap.NewNop())

	_, err := agent.Collect(context.Background(), englishInput("see you at lunch"))
	require.NoError(t, err)

	assert.Contains(t, llm.prompt, "No URLs were extracted")
}

func TestContextAgentPromptCarriesMetadata(t *testing.T) {
	llm := &stubLLM{response: `{"score": 0.6}`}
	agent := NewAgent(DimensionContext, llm, zap.NewNop())

	expected := false
	in := englishInput("your package is waiting")
	in.ReceivedAt = time.Date(2026, 3, 14, 3, 12, 0, 0, time.UTC)
	in.PriorFromSender = 7
	in.Expected = &expected

	_, err := agent.Collect(context.Background(), in)
	require.NoError(t, err)

	assert.Contains(t, llm.prompt, "Received at: 2026-03-14")
	assert.Contains(t, llm.prompt, "trailing window: 7")
	assert.Contains(t, llm.prompt, "expecting a message of this kind: false")
}

func TestContextAgentPromptOmitsUnknownMetadata(t *testing.T) {
	llm := &stubLLM{response: `{"score": 0.5}`}
	agent := NewAgent(DimensionContext, llm, zap.NewNop())

	_, err := agent.Collect(context.Background(), englishInput("hello"))
	require.NoError(t, err)

	assert.NotContains(t, llm.prompt, "trailing window")
	assert.NotContains(t, llm.prompt, "Received at")
}

func TestAgentPromptIncludesOriginalWhenDifferent(t *testing.T) {
	llm := &stubLLM{response: `{"score": 0.5}`}
	agent := NewAgent(DimensionContent, llm, zap.NewNop())

	in := core.CollectInput{
		Normalized:      core.NormalizedText{Language: "es", Text: "you have won a prize"},
		Original:        "has ganado un premio",
		PriorFromSender: -1,
	}

	_, err := agent.Collect(context.Background(), in)
	require.NoError(t, err)

	assert.Contains(t, llm.prompt, "you have won a prize")
	assert.Contains(t, llm.prompt, "has ganado un premio")
	assert.Contains(t, llm.prompt, `detected language es`)
}
