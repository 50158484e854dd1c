package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/core"
)

// analyzeRequest is the pipeline entry-point request body.
type analyzeRequest struct {
	Text            string     `json:"text"`
	ReceivedAt      *time.Time `json:"received_at"`
	PriorFromSender *int       `json:"prior_from_sender"`
	Expected        *bool      `json:"expected"`
	DetectionMode   string     `json:"detection_mode"`
}

// feedbackRequest is the fire-and-forget feedback body.
type feedbackRequest struct {
	Correct  bool                 `json:"correct"`
	Note     string               `json:"note"`
	Analysis *core.AnalysisResult `json:"analysis"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid JSON body"})
	}

	msg := &core.Message{
		Text:            req.Text,
		PriorFromSender: -1,
		Mode:            core.ModeBoth,
	}
	if req.ReceivedAt != nil {
		msg.ReceivedAt = *req.ReceivedAt
	}
	if req.PriorFromSender != nil {
		msg.PriorFromSender = *req.PriorFromSender
	}
	msg.Expected = req.Expected
	if req.DetectionMode != "" {
		msg.Mode = core.DetectionMode(req.DetectionMode)
	}

	result, err := s.service.Analyze(c.Context(), msg)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: verr.Reason})
		}
		s.logger.Error("Analysis failed unexpectedly", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal error"})
	}

	return c.JSON(result)
}

func (s *Server) handleFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid JSON body"})
	}
	if req.Analysis == nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "analysis is required"})
	}

	fb := &core.Feedback{
		ID:         uuid.NewString(),
		Correct:    req.Correct,
		Note:       req.Note,
		Analysis:   req.Analysis,
		ReceivedAt: time.Now(),
	}

	// Fire and forget: the caller never waits on sink outcome.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.feedback.Record(ctx, fb); err != nil {
			s.logger.Error("Failed to record feedback", zap.Error(err), zap.String("id", fb.ID))
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": fb.ID})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	classifierUp := false
	if s.classifier != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()
		classifierUp = s.classifier.Health(ctx) == nil
	}

	return c.JSON(fiber.Map{
		"status":     "ok",
		"classifier": classifierUp,
	})
}
