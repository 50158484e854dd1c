package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/core"
)

// SQLiteSink persists feedback for later offline evaluation. The full
// analysis record is stored as JSON next to the flattened verdict fields
// so simple queries stay simple.
type SQLiteSink struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteSink creates a new SQLite feedback sink
func NewSQLiteSink(dbPath string, logger *zap.Logger) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			correct BOOLEAN,
			note TEXT,
			risk TEXT,
			confidence REAL,
			message_text TEXT,
			analysis_json TEXT,
			received_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create feedback table: %w", err)
	}

	return &SQLiteSink{db: db, logger: logger}, nil
}

// Record stores one feedback entry
func (s *SQLiteSink) Record(ctx context.Context, fb *core.Feedback) error {
	var risk string
	var confidence sql.NullFloat64
	var messageText string
	var analysisJSON []byte

	if fb.Analysis != nil {
		risk = string(fb.Analysis.Verdict.Risk)
		if fb.Analysis.Verdict.Confidence != nil {
			confidence = sql.NullFloat64{Float64: *fb.Analysis.Verdict.Confidence, Valid: true}
		}
		if fb.Analysis.Message != nil {
			messageText = fb.Analysis.Message.Text
		}

		var err error
		analysisJSON, err = json.Marshal(fb.Analysis)
		if err != nil {
			return fmt.Errorf("failed to marshal analysis: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, correct, note, risk, confidence, message_text, analysis_json, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, fb.ID, fb.Correct, fb.Note, risk, confidence, messageText, string(analysisJSON), fb.ReceivedAt)

	if err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	s.logger.Info("Feedback recorded",
		zap.String("id", fb.ID),
		zap.Bool("correct", fb.Correct),
		zap.String("risk", risk))
	return nil
}

// Close closes the underlying database
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
