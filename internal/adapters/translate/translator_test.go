package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Complete(_ context.Context, _, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestNormalizeTranslatesForeignText(t *testing.T) {
	llm := &stubLLM{response: `{"language": "es", "translation": "you have won a prize"}`}
	tr := NewLLMTranslator(llm, "en", zap.NewNop())

	norm := tr.Normalize(context.Background(), "has ganado un premio")

	assert.Equal(t, "es", norm.Language)
	assert.Equal(t, "you have won a prize", norm.Text)
}

func TestNormalizeKeepsCanonicalTextUnchanged(t *testing.T) {
	// Models rephrase when asked not to; the original text stands when the
	// detected language is already canonical.
	llm := &stubLLM{response: `{"language": "en-US", "translation": "hello there friend"}`}
	tr := NewLLMTranslator(llm, "en", zap.NewNop())

	norm := tr.Normalize(context.Background(), "hello there")

	assert.Equal(t, "en", norm.Language)
	assert.Equal(t, "hello there", norm.Text)
}

func TestNormalizeFallsBackOnModelError(t *testing.T) {
	llm := &stubLLM{err: errors.New("throttled")}
	tr := NewLLMTranslator(llm, "en", zap.NewNop())

	norm := tr.Normalize(context.Background(), "has ganado un premio")

	assert.Equal(t, "unknown", norm.Language)
	assert.Equal(t, "has ganado un premio", norm.Text)
}

func TestNormalizeFallsBackOnGarbageOutput(t *testing.T) {
	llm := &stubLLM{response: "I detect Spanish!"}
	tr := NewLLMTranslator(llm, "en", zap.NewNop())

	norm := tr.Normalize(context.Background(), "has ganado un premio")

	assert.Equal(t, "unknown", norm.Language)
	assert.Equal(t, "has ganado un premio", norm.Text)
}

func TestNormalizeFallsBackOnInvalidLanguageTag(t *testing.T) {
	llm := &stubLLM{response: `{"language": "definitely spanish", "translation": "you won"}`}
	tr := NewLLMTranslator(llm, "en", zap.NewNop())

	norm := tr.Normalize(context.Background(), "has ganado")

	assert.Equal(t, "unknown", norm.Language)
	assert.Equal(t, "has ganado", norm.Text)
}

func TestNormalizeSalvagesWrappedJSON(t *testing.T) {
	llm := &stubLLM{response: "Sure: {\"language\": \"fr\", \"translation\": \"urgent: your bank account\"} hope that helps"}
	tr := NewLLMTranslator(llm, "en", zap.NewNop())

	norm := tr.Normalize(context.Background(), "urgent: votre compte bancaire")

	assert.Equal(t, "fr", norm.Language)
	assert.Equal(t, "urgent: your bank account", norm.Text)
}

func TestNormalizeEmptyTranslationKeepsOriginal(t *testing.T) {
	llm := &stubLLM{response: `{"language": "de", "translation": ""}`}
	tr := NewLLMTranslator(llm, "en", zap.NewNop())

	norm := tr.Normalize(context.Background(), "Sie haben gewonnen")

	assert.Equal(t, "de", norm.Language)
	assert.Equal(t, "Sie haben gewonnen", norm.Text)
}

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"en", "en"},
		{"en-US", "en"},
		{"es-419", "es"},
		{"", "unknown"},
		{"not a tag at all", "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeTag(tt.in), "tag %q", tt.in)
	}
}
