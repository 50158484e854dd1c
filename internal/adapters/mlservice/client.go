package mlservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client talks to the statistical SMS classifier service. The service is
// a stateless, idempotent evaluator; any transport or decode failure is
// reported to the caller, who treats the source as unavailable.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new classifier service client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// PredictRequest is the classifier's request body.
type PredictRequest struct {
	Text string `json:"text"`
}

// PredictResponse is the classifier's scoring of one message. Prediction
// is one of the model's class labels (ham, spam, smishing); IsFraud is
// true for the fraud-indicating classes.
type PredictResponse struct {
	Prediction    string             `json:"prediction"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	IsFraud       bool               `json:"is_fraud"`
}

// healthResponse is the classifier's health probe body.
type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Predict scores a message with the statistical classifier
func (c *Client) Predict(ctx context.Context, text string) (*PredictResponse, error) {
	body, err := json.Marshal(PredictRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("classifier HTTP error %d: %s", resp.StatusCode, string(respBody))
	}

	var prediction PredictResponse
	if err := json.Unmarshal(respBody, &prediction); err != nil {
		return nil, fmt.Errorf("failed to decode classifier response: %w", err)
	}

	c.logger.Debug("Classifier prediction finished",
		zap.String("prediction", prediction.Prediction),
		zap.Float64("confidence", prediction.Confidence),
		zap.Duration("latency", time.Since(start)))

	return &prediction, nil
}

// Health probes the classifier's readiness endpoint
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier health request failed: %w", err)
	}
	defer resp.Body.Close()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode health response: %w", err)
	}

	if !health.ModelLoaded {
		return fmt.Errorf("classifier reports model not loaded (status %q)", health.Status)
	}
	return nil
}
