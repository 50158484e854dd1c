package core

import (
	"context"
	"time"
)

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete sends a prompt and returns the raw model output
	Complete(ctx context.Context, system string, prompt string) (string, error)
}

// CollectInput is the immutable bag of signals handed to every evidence
// source for one request. Only the link and context agents read beyond the
// text fields.
type CollectInput struct {
	Normalized NormalizedText
	Original   string

	// Optional request metadata, copied from the Message.
	ReceivedAt      time.Time
	PriorFromSender int
	Expected        *bool

	// URLs extracted from the original text, plus the configured
	// trusted-domain allowlist matches.
	URLs           []string
	TrustedDomains []string
}

// EvidenceSource is any component that independently scores a message for
// suspicion: the statistical classifier or one of the reasoning agents.
type EvidenceSource interface {
	// ID identifies the source in results and availability flags
	ID() SourceID

	// Collect scores the message; an error means the source is
	// unavailable for this request, never that the pipeline failed
	Collect(ctx context.Context, in CollectInput) (*EvidenceItem, error)
}

// Translator detects a message's language and renders it in the canonical
// language. It never fails: on any internal error it falls back to the
// original text with language "unknown".
type Translator interface {
	Normalize(ctx context.Context, text string) NormalizedText
}

// VerdictCache defines the interface for caching fused verdicts
type VerdictCache interface {
	// Get retrieves a cached entry for a message digest
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// FeedbackSink accepts fire-and-forget feedback on completed analyses.
type FeedbackSink interface {
	Record(ctx context.Context, fb *Feedback) error
}
