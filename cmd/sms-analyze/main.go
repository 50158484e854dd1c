package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/adapters/translate"
	"github.com/mikey/sms-sentinel/internal/allowlist"
	"github.com/mikey/sms-sentinel/internal/config"
	"github.com/mikey/sms-sentinel/internal/core"
	"github.com/mikey/sms-sentinel/internal/factory"
	"github.com/mikey/sms-sentinel/internal/logging"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "bedrock", "LLM provider (bedrock, gemini, openai)")
	maxTokens   = flag.Int("max-tokens", 1000, "Maximum tokens for LLM response")
	temperature = flag.Float64("temperature", 0.1, "Temperature for LLM generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for LLM generation")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4", "OpenAI model name")

	// Pipeline flags
	detectionMode  = flag.String("mode", "both", "Detection mode (classifier-only, agents-only, both)")
	language       = flag.String("language", "en", "Canonical analysis language")
	trustedDomains = flag.String("trusted", "", "Comma-separated list of trusted link domains")
	mlServiceURL   = flag.String("classifier-url", "http://localhost:8000", "Base URL of the statistical classifier service")
	totalBudget    = flag.Duration("budget", 30*time.Second, "Total analysis time budget")
	sourceTimeout  = flag.Duration("source-timeout", 10*time.Second, "Per-source collection timeout")

	// Input flags
	text       = flag.String("text", "", "Message text (use -file or stdin if not specified)")
	inputFile  = flag.String("file", "", "Input message file (use stdin if not specified)")
	jsonOutput = flag.Bool("json", false, "Print the full analysis result as JSON")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	messageText := *text
	if messageText == "" {
		messageText = readMessageText(logger)
	}

	mode := core.DetectionMode(cfg.GetPipeline().DetectionMode)
	if !mode.Valid() {
		logger.Fatal("Unsupported detection mode", zap.String("mode", string(mode)))
	}

	// Initialize LLM client
	llmFactory := factory.NewLLMFactory(cfg, logger)
	llmClient, err := llmFactory.CreateLLMClient()
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	// Assemble the pipeline with no cache
	pipelineCfg := cfg.GetPipeline()
	sourceFactory := factory.NewSourceFactory(cfg, logger)
	classifierClient, err := sourceFactory.CreateClassifierClient()
	if err != nil {
		logger.Fatal("Failed to create classifier client", zap.Error(err))
	}
	sources := sourceFactory.CreateSources(llmClient, classifierClient)
	translator := translate.NewLLMTranslator(llmClient, pipelineCfg.CanonicalLanguage, logger)
	fuser := core.NewFuser(pipelineCfg.CanonicalLanguage, logger)
	trusted := allowlist.NewChecker(pipelineCfg.TrustedDomains, logger)

	collectorTimeout, err := cfg.GetDuration("pipeline.collector_timeout")
	if err != nil {
		logger.Fatal("Invalid collector timeout", zap.Error(err))
	}
	budget, err := cfg.GetDuration("pipeline.total_budget")
	if err != nil {
		logger.Fatal("Invalid analysis budget", zap.Error(err))
	}

	service := core.NewAnalysisService(
		translator,
		sources,
		fuser,
		nil, // No cache for CLI
		trusted,
		logger,
		false,            // Cache disabled
		time.Duration(0), // No TTL
		collectorTimeout,
		budget,
	)

	msg := &core.Message{
		Text:            messageText,
		ReceivedAt:      time.Now(),
		PriorFromSender: -1,
		Mode:            mode,
	}

	result, err := service.Analyze(context.Background(), msg)
	if err != nil {
		logger.Fatal("Failed to analyze message", zap.Error(err))
	}

	if *jsonOutput {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			logger.Fatal("Failed to encode result", zap.Error(err))
		}
		fmt.Println(string(encoded))
	} else {
		printResult(result)
	}

	// Close any resources that need closing
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
}

// readMessageText reads the message text from -file or stdin
func readMessageText(logger *zap.Logger) string {
	var reader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		reader = file
		logger.Info("Reading message from file", zap.String("file", *inputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading message from stdin")
	}

	data, err := io.ReadAll(bufio.NewReader(reader))
	if err != nil {
		logger.Fatal("Failed to read message text", zap.Error(err))
	}
	return strings.TrimSpace(string(data))
}

// printResult prints a human-readable analysis summary
func printResult(result *core.AnalysisResult) {
	fmt.Printf("\n=== Message ===\n")
	fmt.Printf("Detected language: %s\n", result.Input.Language)
	if len(result.URLs) > 0 {
		fmt.Printf("URLs: %s\n", strings.Join(result.URLs, ", "))
	}

	fmt.Printf("\n=== Evidence ===\n")
	ids := make([]string, 0, len(result.Evidence))
	for id := range result.Evidence {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		ev := result.Evidence[core.SourceID(id)]
		fmt.Printf("%-14s score=%.2f judgment=%s\n", id, ev.Score, ev.ResolvedJudgment)
		if ev.Mismatch != "" {
			fmt.Printf("               %s\n", ev.Mismatch)
		}
		if ev.Rationale != "" {
			fmt.Printf("               %s\n", ev.Rationale)
		}
	}
	for id, ok := range result.Availability {
		if !ok {
			fmt.Printf("%-14s unavailable\n", id)
		}
	}

	fmt.Printf("\n=== Verdict ===\n")
	fmt.Printf("Risk: %s\n", result.Verdict.Risk)
	if result.Verdict.Confidence != nil {
		fmt.Printf("Confidence: %.4f\n", *result.Verdict.Confidence)
	}
	fmt.Printf("Explanation: %s\n", result.Verdict.Explanation)
	fmt.Printf("Processing time: %v\n", result.Elapsed)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	// Set LLM provider
	v.Set("llm.provider", *provider)

	// Set provider-specific configuration
	switch *provider {
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
	}

	// Set pipeline configuration
	v.Set("pipeline.detection_mode", *detectionMode)
	v.Set("pipeline.canonical_language", *language)
	v.Set("pipeline.total_budget", totalBudget.String())
	v.Set("pipeline.collector_timeout", sourceTimeout.String())
	v.Set("mlservice.base_url", *mlServiceURL)

	// Set trusted domains
	if *trustedDomains != "" {
		domains := strings.Split(*trustedDomains, ",")
		for i, domain := range domains {
			domains[i] = strings.TrimSpace(domain)
		}
		v.Set("pipeline.trusted_domains", domains)
	} else {
		v.Set("pipeline.trusted_domains", []string{})
	}

	return config.NewFromViper(v)
}
