package factory

import (
	"fmt"

	"github.com/mikey/sms-sentinel/internal/adapters/mlservice"
	"github.com/mikey/sms-sentinel/internal/collect"
	"github.com/mikey/sms-sentinel/internal/config"
	"github.com/mikey/sms-sentinel/internal/core"
	"go.uber.org/zap"
)

// SourceFactory creates the evidence sources the pipeline fans out to
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSourceFactory creates a new evidence source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSources creates the full set of evidence sources: one reasoning
// agent per analysis dimension plus the statistical classifier client.
func (f *SourceFactory) CreateSources(llm core.LLMClient, client *mlservice.Client) []core.EvidenceSource {
	return []core.EvidenceSource{
		collect.NewAgent(collect.DimensionContent, llm, f.logger),
		collect.NewAgent(collect.DimensionLink, llm, f.logger),
		collect.NewAgent(collect.DimensionSender, llm, f.logger),
		collect.NewAgent(collect.DimensionContext, llm, f.logger),
		collect.NewClassifier(client, f.logger),
	}
}

// CreateClassifierClient creates a standalone classifier client, used by
// surfaces that probe the classifier's health directly.
func (f *SourceFactory) CreateClassifierClient() (*mlservice.Client, error) {
	mlCfg := f.cfg.GetMLService()
	mlTimeout, err := f.cfg.GetDuration("mlservice.timeout")
	if err != nil {
		return nil, fmt.Errorf("invalid mlservice timeout: %w", err)
	}
	return mlservice.NewClient(mlCfg.BaseURL, mlTimeout, f.logger), nil
}
