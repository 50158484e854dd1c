package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/mikey/sms-sentinel/internal/config"
)

func configWith(t *testing.T, level, format string) *config.Config {
	t.Helper()
	v := config.NewEmptyViper()
	v.Set("logging.level", level)
	v.Set("logging.format", format)
	return config.NewFromViper(v)
}

func TestInitLoggerLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"nonsense", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := InitLogger(configWith(t, tt.level, "json"))
			require.NoError(t, err)
			defer logger.Sync()

			assert.True(t, logger.Core().Enabled(tt.expected))
			if tt.expected != zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.expected-1))
			}
		})
	}
}

func TestInitLoggerConsoleFormat(t *testing.T) {
	logger, err := InitLogger(configWith(t, "info", "console"))
	require.NoError(t, err)
	defer logger.Sync()

	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestInitConsoleLoggerVerbose(t *testing.T) {
	quiet, err := InitConsoleLogger(false, false)
	require.NoError(t, err)
	defer quiet.Sync()
	assert.False(t, quiet.Core().Enabled(zapcore.DebugLevel))

	verbose, err := InitConsoleLogger(true, true)
	require.NoError(t, err)
	defer verbose.Sync()
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}
