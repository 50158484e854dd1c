package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/adapters/httpserver"
	"github.com/mikey/sms-sentinel/internal/config"
	"github.com/mikey/sms-sentinel/internal/core"
	"github.com/mikey/sms-sentinel/internal/di"
	"github.com/mikey/sms-sentinel/internal/ports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	server *httpserver.Server,
	messageGateway ports.MessageGateway,
	llmClient core.LLMClient,
	verdictCache core.VerdictCache,
	feedbackSink core.FeedbackSink,
) error {
	defer logger.Sync()

	// Start the HTTP API
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start HTTP server", zap.Error(err))
		return err
	}

	// Start the SMTP gateway if enabled
	gatewayEnabled := cfg.GetGateway().Enabled
	if gatewayEnabled {
		if err := messageGateway.Start(); err != nil {
			logger.Fatal("Failed to start SMTP gateway", zap.Error(err))
			return err
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if gatewayEnabled {
		if err := messageGateway.Stop(); err != nil {
			logger.Error("Failed to stop SMTP gateway", zap.Error(err))
		}
	}
	if err := server.Stop(); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
	if closer, ok := feedbackSink.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close feedback sink", zap.Error(err))
		}
	}

	// Stop the cache if needed
	if stopper, ok := verdictCache.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
