package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/allowlist"
	"github.com/mikey/sms-sentinel/internal/utils"
)

// AnalysisService is the pipeline orchestrator. It sequences
// normalization, parallel evidence collection, reconciliation and fusion,
// and is the only component that knows the full pipeline shape.
type AnalysisService struct {
	translator       Translator
	sources          []EvidenceSource
	fuser            *Fuser
	cache            VerdictCache
	trusted          *allowlist.Checker
	logger           *zap.Logger
	cacheEnabled     bool
	cacheTTL         time.Duration
	collectorTimeout time.Duration
	totalBudget      time.Duration
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	translator Translator,
	sources []EvidenceSource,
	fuser *Fuser,
	cache VerdictCache,
	trusted *allowlist.Checker,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
	collectorTimeout time.Duration,
	totalBudget time.Duration,
) *AnalysisService {
	return &AnalysisService{
		translator:       translator,
		sources:          sources,
		fuser:            fuser,
		cache:            cache,
		trusted:          trusted,
		logger:           logger,
		cacheEnabled:     cacheEnabled,
		cacheTTL:         cacheTTL,
		collectorTimeout: collectorTimeout,
		totalBudget:      totalBudget,
	}
}

// settledCollection is one collector's outcome: evidence or an error,
// never both. Failure is data here, not a pipeline error.
type settledCollection struct {
	id   SourceID
	item *EvidenceItem
	err  error
}

// Analyze runs the full pipeline for one message. Only a ValidationError
// is ever returned; every evidence-source failure is absorbed into the
// result's availability flags and explanation.
func (s *AnalysisService) Analyze(ctx context.Context, msg *Message) (*AnalysisResult, error) {
	if err := validate(msg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.totalBudget)
	defer cancel()

	start := time.Now()
	key := cacheKey(msg)

	if s.cacheEnabled {
		if entry, err := s.cache.Get(ctx, key); err == nil {
			s.logger.Debug("Verdict cache hit", zap.String("key", key))
			return &AnalysisResult{
				ID:      uuid.NewString(),
				Message: msg,
				Input:   NormalizedText{Language: "unknown", Text: msg.Text},
				Verdict: Verdict{
					Risk:        entry.Risk,
					Confidence:  entry.Confidence,
					Explanation: entry.Explanation,
				},
				AnalyzedAt: time.Now(),
				Elapsed:    time.Since(start),
				FromCache:  true,
			}, nil
		}
	}

	norm := s.translator.Normalize(ctx, msg.Text)

	urls := utils.ExtractURLs(msg.Text)
	in := CollectInput{
		Normalized:      norm,
		Original:        msg.Text,
		ReceivedAt:      msg.ReceivedAt,
		PriorFromSender: msg.PriorFromSender,
		Expected:        msg.Expected,
		URLs:            urls,
		TrustedDomains:  s.trusted.Match(urls),
	}

	requested := s.sourcesFor(msg.Mode)
	settled := s.collect(ctx, requested, in)

	evidence := make(map[SourceID]*ReconciledEvidence, len(settled))
	availability := make(map[SourceID]bool, len(settled))
	for _, sc := range settled {
		if sc.err != nil || sc.item == nil {
			availability[sc.id] = false
			s.logger.Warn("Evidence source unavailable",
				zap.String("source", string(sc.id)),
				zap.Error(sc.err))
			continue
		}
		availability[sc.id] = true
		evidence[sc.id] = Reconcile(sc.item)
	}

	verdict := s.fuser.Fuse(msg, evidence, availability, norm)

	result := &AnalysisResult{
		ID:           uuid.NewString(),
		Message:      msg,
		Input:        norm,
		Evidence:     evidence,
		Availability: availability,
		URLs:         urls,
		Verdict:      verdict,
		AnalyzedAt:   time.Now(),
		Elapsed:      time.Since(start),
	}

	if s.cacheEnabled {
		entry := &CacheEntry{
			Key:         key,
			Risk:        verdict.Risk,
			Confidence:  verdict.Confidence,
			Explanation: verdict.Explanation,
			AnalyzedAt:  result.AnalyzedAt,
			ExpiresAt:   time.Now().Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update verdict cache", zap.Error(err))
		}
	}

	s.logger.Info("Analysis completed",
		zap.String("id", result.ID),
		zap.String("risk", string(verdict.Risk)),
		zap.String("mode", string(msg.Mode)),
		zap.Int("sources_available", len(evidence)),
		zap.Duration("elapsed", result.Elapsed))

	return result, nil
}

// collect fans out to every requested source at once and waits for all of
// them to settle. Each call carries its own timeout and its failure is
// captured in isolation; nothing is cancelled on first error.
func (s *AnalysisService) collect(ctx context.Context, sources []EvidenceSource, in CollectInput) []settledCollection {
	settled := make([]settledCollection, len(sources))
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, src EvidenceSource) {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, s.collectorTimeout)
			defer cancel()

			item, err := src.Collect(cctx, in)
			settled[idx] = settledCollection{id: src.ID(), item: item, err: err}
		}(i, src)
	}

	wg.Wait()
	return settled
}

// sourcesFor filters the registered sources by detection mode.
func (s *AnalysisService) sourcesFor(mode DetectionMode) []EvidenceSource {
	filtered := make([]EvidenceSource, 0, len(s.sources))
	for _, src := range s.sources {
		if modeRequests(mode, src.ID()) {
			filtered = append(filtered, src)
		}
	}
	return filtered
}

func validate(msg *Message) error {
	if strings.TrimSpace(msg.Text) == "" {
		return NewValidationError("provide a non-empty message text")
	}
	if len(msg.Text) > MaxTextLength {
		return NewValidationError("provide text under %d characters", MaxTextLength)
	}
	if !msg.Mode.Valid() {
		return NewValidationError("detection_mode must be one of %q, %q or %q",
			ModeClassifierOnly, ModeAgentsOnly, ModeBoth)
	}
	return nil
}

// cacheKey digests the detection mode and raw text. Identical requests
// map to the same verdict within the cache TTL.
func cacheKey(msg *Message) string {
	h := sha256.New()
	h.Write([]byte(msg.Mode))
	h.Write([]byte{0})
	h.Write([]byte(msg.Text))
	return hex.EncodeToString(h.Sum(nil))
}
