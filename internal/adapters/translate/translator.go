package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/mikey/sms-sentinel/internal/core"
)

const translateSystemPrompt = "You are a language detection and translation service. Respond only with JSON."

const translatePromptFormat = `Detect the language of the following text and translate it to %s.
Respond with a JSON object containing:
- language: the BCP-47 tag of the detected source language
- translation: the %s rendering of the text (return the text unchanged if it is already %s)

Text:
%s

Respond only with the JSON object and nothing else.`

// translateResponse is the structured shape the model is asked to produce.
type translateResponse struct {
	Language    string `json:"language"`
	Translation string `json:"translation"`
}

// LLMTranslator detects a message's language and renders it in the
// canonical language using the configured LLM provider. It never fails:
// the original text is always a valid fallback.
type LLMTranslator struct {
	llm       core.LLMClient
	canonical string
	logger    *zap.Logger
}

// NewLLMTranslator creates a new translator. canonical is the canonical
// language name used in prompts and tags, e.g. "en".
func NewLLMTranslator(llm core.LLMClient, canonical string, logger *zap.Logger) *LLMTranslator {
	return &LLMTranslator{
		llm:       llm,
		canonical: canonical,
		logger:    logger,
	}
}

// Normalize detects the text's language and produces its canonical
// rendering. Every internal failure degrades to the original text with
// language "unknown"; nothing propagates.
func (t *LLMTranslator) Normalize(ctx context.Context, text string) core.NormalizedText {
	fallback := core.NormalizedText{Language: "unknown", Text: text}

	prompt := fmt.Sprintf(translatePromptFormat, t.canonical, t.canonical, t.canonical, text)
	raw, err := t.llm.Complete(ctx, translateSystemPrompt, prompt)
	if err != nil {
		t.logger.Warn("Language detection call failed, using original text", zap.Error(err))
		return fallback
	}

	resp, err := parseTranslation(raw)
	if err != nil {
		t.logger.Warn("Language detection output unparsable, using original text", zap.Error(err))
		return fallback
	}

	tag := normalizeTag(resp.Language)
	if tag == "unknown" {
		return fallback
	}

	normalized := strings.TrimSpace(resp.Translation)
	if normalized == "" || tag == t.canonicalTag() {
		// Already canonical, or the model returned nothing useful;
		// the original text stands.
		normalized = text
	}

	return core.NormalizedText{Language: tag, Text: normalized}
}

func parseTranslation(raw string) (*translateResponse, error) {
	var resp translateResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		start := strings.IndexByte(raw, '{')
		end := strings.LastIndexByte(raw, '}')
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON object in translation response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse translation response: %w", err)
		}
	}
	return &resp, nil
}

// normalizeTag validates a model-supplied language tag and reduces it to
// its base language, so "en-US" and "en" compare equal.
func normalizeTag(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "unknown"
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "unknown"
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "unknown"
	}
	return base.String()
}

func (t *LLMTranslator) canonicalTag() string {
	return normalizeTag(t.canonical)
}
