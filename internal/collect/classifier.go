package collect

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/adapters/mlservice"
	"github.com/mikey/sms-sentinel/internal/core"
)

// hamClass is the classifier's only non-fraud class label.
const hamClass = "ham"

// Classifier adapts the statistical classifier service into the common
// evidence-source shape. It is deterministic and low-latency compared to
// the agents, but its failures are treated exactly the same way.
type Classifier struct {
	client *mlservice.Client
	logger *zap.Logger
}

// NewClassifier wraps a classifier service client as an evidence source.
func NewClassifier(client *mlservice.Client, logger *zap.Logger) *Classifier {
	return &Classifier{
		client: client,
		logger: logger,
	}
}

// ID identifies the classifier in results and availability flags
func (c *Classifier) ID() core.SourceID {
	return core.SourceClassifier
}

// Collect scores the normalized text with the statistical classifier and
// maps its categorical output onto the evidence shape: the suspicion
// score is the probability mass assigned to the fraud-indicating classes.
func (c *Classifier) Collect(ctx context.Context, in core.CollectInput) (*core.EvidenceItem, error) {
	resp, err := c.client.Predict(ctx, in.Normalized.Text)
	if err != nil {
		return nil, fmt.Errorf("classifier unavailable: %w", err)
	}

	score := fraudMass(resp)
	judgment := core.JudgmentBenign
	if resp.IsFraud {
		judgment = core.JudgmentSuspicious
	}

	confidence := core.Clamp01(resp.Confidence)

	item := &core.EvidenceItem{
		Source:     core.SourceClassifier,
		Score:      core.Clamp01(score),
		Judgment:   judgment,
		Signals:    []string{"prediction:" + resp.Prediction},
		Features:   probabilityFeatures(resp.Probabilities),
		Rationale:  fmt.Sprintf("statistical model predicted %q", resp.Prediction),
		Confidence: &confidence,
	}

	c.logger.Debug("Classifier evidence collected",
		zap.String("prediction", resp.Prediction),
		zap.Float64("score", item.Score))

	return item, nil
}

// fraudMass sums the probabilities of every non-ham class. When the model
// exposed no per-class probabilities, the prediction's own confidence is
// the best available stand-in.
func fraudMass(resp *mlservice.PredictResponse) float64 {
	if len(resp.Probabilities) > 0 {
		var mass float64
		for class, p := range resp.Probabilities {
			if !strings.EqualFold(class, hamClass) {
				mass += p
			}
		}
		return mass
	}

	if resp.IsFraud {
		return resp.Confidence
	}
	return 1 - resp.Confidence
}

func probabilityFeatures(probs map[string]float64) []string {
	if len(probs) == 0 {
		return nil
	}
	classes := make([]string, 0, len(probs))
	for class := range probs {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	features := make([]string, 0, len(classes))
	for _, class := range classes {
		features = append(features, fmt.Sprintf("p(%s)=%.3f", class, probs[class]))
	}
	return features
}
