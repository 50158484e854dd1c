package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/sms-sentinel/internal/adapters/feedback"
	"github.com/mikey/sms-sentinel/internal/config"
	"github.com/mikey/sms-sentinel/internal/core"
	"go.uber.org/zap"
)

// FeedbackFactory creates feedback sinks based on configuration
type FeedbackFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFeedbackFactory creates a new feedback factory
func NewFeedbackFactory(cfg *config.Config, logger *zap.Logger) *FeedbackFactory {
	return &FeedbackFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateFeedbackSink creates a feedback sink based on the configuration
func (f *FeedbackFactory) CreateFeedbackSink() (core.FeedbackSink, error) {
	store := f.cfg.GetString("feedback.store")

	switch store {
	case "log":
		return feedback.NewLogSink(f.logger), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("feedback.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return feedback.NewSQLiteSink(sqlitePath, f.logger)
	default:
		return nil, fmt.Errorf("unsupported feedback store: %s", store)
	}
}
