package httpserver

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/core"
)

// healthChecker probes an external collaborator's readiness.
type healthChecker interface {
	Health(ctx context.Context) error
}

// Server exposes the analysis pipeline over HTTP.
type Server struct {
	app        *fiber.App
	service    *core.AnalysisService
	feedback   core.FeedbackSink
	classifier healthChecker
	logger     *zap.Logger
	listenAddr string
}

// NewServer creates a new HTTP server
func NewServer(
	service *core.AnalysisService,
	feedback core.FeedbackSink,
	classifier healthChecker,
	logger *zap.Logger,
	listenAddr string,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
	})

	s := &Server{
		app:        app,
		service:    service,
		feedback:   feedback,
		classifier: classifier,
		logger:     logger,
		listenAddr: listenAddr,
	}

	app.Post("/api/v1/analyze", s.handleAnalyze)
	app.Post("/api/v1/feedback", s.handleFeedback)
	app.Get("/health", s.handleHealth)

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.app.Listen(s.listenAddr); err != nil {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
