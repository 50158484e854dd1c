package di

import (
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/adapters/gateway"
	"github.com/mikey/sms-sentinel/internal/adapters/httpserver"
	"github.com/mikey/sms-sentinel/internal/adapters/mlservice"
	"github.com/mikey/sms-sentinel/internal/adapters/translate"
	"github.com/mikey/sms-sentinel/internal/allowlist"
	"github.com/mikey/sms-sentinel/internal/config"
	"github.com/mikey/sms-sentinel/internal/core"
	"github.com/mikey/sms-sentinel/internal/factory"
	"github.com/mikey/sms-sentinel/internal/logging"
	"github.com/mikey/sms-sentinel/internal/ports"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewSourceFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFeedbackFactory); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register verdict cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.VerdictCache, error) {
		return f.CreateVerdictCache()
	}); err != nil {
		return nil, err
	}

	// Register classifier client
	if err := container.Provide(func(f *factory.SourceFactory) (*mlservice.Client, error) {
		return f.CreateClassifierClient()
	}); err != nil {
		return nil, err
	}

	// Register evidence sources
	if err := container.Provide(func(
		f *factory.SourceFactory,
		llm core.LLMClient,
		client *mlservice.Client,
	) []core.EvidenceSource {
		return f.CreateSources(llm, client)
	}); err != nil {
		return nil, err
	}

	// Register trusted-domain checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *allowlist.Checker {
		return allowlist.NewChecker(cfg.GetPipeline().TrustedDomains, logger)
	}); err != nil {
		return nil, err
	}

	// Register translator
	if err := container.Provide(func(cfg *config.Config, llm core.LLMClient, logger *zap.Logger) core.Translator {
		return translate.NewLLMTranslator(llm, cfg.GetPipeline().CanonicalLanguage, logger)
	}); err != nil {
		return nil, err
	}

	// Register fuser
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *core.Fuser {
		return core.NewFuser(cfg.GetPipeline().CanonicalLanguage, logger)
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(func(
		cfg *config.Config,
		translator core.Translator,
		sources []core.EvidenceSource,
		fuser *core.Fuser,
		verdictCache core.VerdictCache,
		trusted *allowlist.Checker,
		cacheFactory *factory.CacheFactory,
		logger *zap.Logger,
	) (*core.AnalysisService, error) {
		cacheTTL, err := cacheFactory.GetCacheTTL()
		if err != nil {
			return nil, fmt.Errorf("invalid cache TTL: %w", err)
		}
		collectorTimeout, err := cfg.GetDuration("pipeline.collector_timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid collector timeout: %w", err)
		}
		totalBudget, err := cfg.GetDuration("pipeline.total_budget")
		if err != nil {
			return nil, fmt.Errorf("invalid pipeline total budget: %w", err)
		}
		return core.NewAnalysisService(
			translator,
			sources,
			fuser,
			verdictCache,
			trusted,
			logger,
			cacheFactory.IsCacheEnabled(),
			cacheTTL,
			collectorTimeout,
			totalBudget,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register feedback sink
	if err := container.Provide(func(f *factory.FeedbackFactory) (core.FeedbackSink, error) {
		return f.CreateFeedbackSink()
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(
		cfg *config.Config,
		service *core.AnalysisService,
		feedbackSink core.FeedbackSink,
		client *mlservice.Client,
		logger *zap.Logger,
	) *httpserver.Server {
		return httpserver.NewServer(service, feedbackSink, client, logger, cfg.GetString("server.listen_address"))
	}); err != nil {
		return nil, err
	}

	// Register SMTP gateway
	if err := container.Provide(func(
		cfg *config.Config,
		service *core.AnalysisService,
		logger *zap.Logger,
	) (ports.MessageGateway, error) {
		gwCfg := cfg.GetGateway()
		mode := core.DetectionMode(cfg.GetPipeline().DetectionMode)
		if !mode.Valid() {
			return nil, fmt.Errorf("unsupported detection mode: %s", mode)
		}
		return gateway.NewSMTPGateway(
			service,
			logger,
			gwCfg.ListenAddress,
			gwCfg.RelayHost,
			gwCfg.RelayPort,
			gwCfg.BlockHighRisk,
			mode,
			gwCfg.RiskHeader,
			gwCfg.ScoreHeader,
			gwCfg.ReasonHeader,
		), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
