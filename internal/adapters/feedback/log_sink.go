package feedback

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/core"
)

// LogSink records feedback to the structured log only, for deployments
// that run without local persistence.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new log-only feedback sink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Record logs one feedback entry
func (s *LogSink) Record(ctx context.Context, fb *core.Feedback) error {
	fields := []zap.Field{
		zap.String("id", fb.ID),
		zap.Bool("correct", fb.Correct),
	}
	if fb.Note != "" {
		fields = append(fields, zap.String("note", fb.Note))
	}
	if fb.Analysis != nil {
		fields = append(fields,
			zap.String("analysis_id", fb.Analysis.ID),
			zap.String("risk", string(fb.Analysis.Verdict.Risk)))
	}

	s.logger.Info("Feedback received", fields...)
	return nil
}
