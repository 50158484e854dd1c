package config

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// PipelineConfig represents the configuration for the analysis pipeline
type PipelineConfig struct {
	CanonicalLanguage string
	DetectionMode     string
	TrustedDomains    []string
}

// GatewayConfig represents the configuration for the SMTP gateway
type GatewayConfig struct {
	Enabled       bool
	ListenAddress string
	RelayHost     string
	RelayPort     int
	BlockHighRisk bool
	RiskHeader    string
	ScoreHeader   string
	ReasonHeader  string
}

// MLServiceConfig represents the configuration for the statistical classifier service
type MLServiceConfig struct {
	BaseURL string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetPipeline returns the pipeline configuration
func (c *Config) GetPipeline() PipelineConfig {
	return PipelineConfig{
		CanonicalLanguage: c.GetString("pipeline.canonical_language"),
		DetectionMode:     c.GetString("pipeline.detection_mode"),
		TrustedDomains:    c.GetStringSlice("pipeline.trusted_domains"),
	}
}

// GetGateway returns the SMTP gateway configuration
func (c *Config) GetGateway() GatewayConfig {
	return GatewayConfig{
		Enabled:       c.GetBool("gateway.enabled"),
		ListenAddress: c.GetString("gateway.listen_address"),
		RelayHost:     c.GetString("gateway.relay_host"),
		RelayPort:     c.GetInt("gateway.relay_port"),
		BlockHighRisk: c.GetBool("gateway.block_high_risk"),
		RiskHeader:    c.GetString("gateway.headers.risk"),
		ScoreHeader:   c.GetString("gateway.headers.score"),
		ReasonHeader:  c.GetString("gateway.headers.reason"),
	}
}

// GetMLService returns the classifier service configuration
func (c *Config) GetMLService() MLServiceConfig {
	return MLServiceConfig{
		BaseURL: c.GetString("mlservice.base_url"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}
