package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/core"
)

// MySQLCache is a MySQL implementation of the VerdictCache interface
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn+"?parseTime=true")
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdict_cache (
			message_key VARCHAR(64) PRIMARY KEY,
			risk VARCHAR(16),
			confidence DOUBLE NULL,
			explanation TEXT,
			analyzed_at TIMESTAMP,
			expires_at TIMESTAMP,
			INDEX idx_verdict_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached entry for a message digest
func (c *MySQLCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var risk, explanation string
	var confidence sql.NullFloat64
	var analyzedAt, expiresAt time.Time

	err := c.db.QueryRowContext(ctx, `
		SELECT risk, confidence, explanation, analyzed_at, expires_at
		FROM verdict_cache
		WHERE message_key = ? AND expires_at > NOW()
	`, key).Scan(&risk, &confidence, &explanation, &analyzedAt, &expiresAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	entry := &core.CacheEntry{
		Key:         key,
		Risk:        core.RiskLevel(risk),
		Explanation: explanation,
		AnalyzedAt:  analyzedAt,
		ExpiresAt:   expiresAt,
	}
	if confidence.Valid {
		entry.Confidence = &confidence.Float64
	}

	return entry, nil
}

// Set stores a cache entry
func (c *MySQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	var confidence sql.NullFloat64
	if entry.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *entry.Confidence, Valid: true}
	}

	_, err := c.db.ExecContext(ctx, `
		REPLACE INTO verdict_cache
			(message_key, risk, confidence, explanation, analyzed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.Key, string(entry.Risk), confidence, entry.Explanation, entry.AnalyzedAt, entry.ExpiresAt)

	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM verdict_cache WHERE message_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM verdict_cache WHERE expires_at <= NOW()`)
	if err != nil {
		return fmt.Errorf("failed to clean up cache: %w", err)
	}

	if count, err := res.RowsAffected(); err == nil {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", count))
	}
	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MySQLCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database
func (c *MySQLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close MySQL connection", zap.Error(err))
		}
	})
}
