package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "bedrock", cfg.GetLLM().Provider)

	pipeline := cfg.GetPipeline()
	assert.Equal(t, "en", pipeline.CanonicalLanguage)
	assert.Equal(t, "both", pipeline.DetectionMode)
	assert.Empty(t, pipeline.TrustedDomains)

	assert.Equal(t, "0.0.0.0:8080", cfg.GetString("server.listen_address"))
	assert.Equal(t, "http://localhost:8000", cfg.GetMLService().BaseURL)
	assert.False(t, cfg.GetBool("cache.enabled"))
	assert.Equal(t, "log", cfg.GetString("feedback.store"))

	gw := cfg.GetGateway()
	assert.False(t, gw.Enabled)
	assert.Equal(t, "X-SMS-Risk", gw.RiskHeader)
	assert.Equal(t, "X-SMS-Score", gw.ScoreHeader)
	assert.Equal(t, "X-SMS-Reason", gw.ReasonHeader)
}

func TestDurations(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	budget, err := cfg.GetDuration("pipeline.total_budget")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, budget)

	timeout, err := cfg.GetDuration("pipeline.collector_timeout")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)

	_, err = cfg.GetDuration("server.listen_address")
	assert.Error(t, err)
}

func TestProviderSections(t *testing.T) {
	v := NewEmptyViper()
	v.Set("openai.api_key", "sk-test")
	v.Set("openai.model_name", "gpt-4o")
	cfg := NewFromViper(v)

	openai := cfg.GetOpenAI()
	assert.Equal(t, "sk-test", openai.APIKey)
	assert.Equal(t, "gpt-4o", openai.ModelName)
	assert.Equal(t, 1000, openai.MaxTokens)

	bedrock := cfg.GetBedrock()
	assert.Equal(t, "us-east-1", bedrock.Region)
	assert.Equal(t, "anthropic.claude-v2", bedrock.ModelID)
	assert.InDelta(t, 0.1, float64(bedrock.Temperature), 1e-6)
}
