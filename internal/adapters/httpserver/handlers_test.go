package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/allowlist"
	"github.com/mikey/sms-sentinel/internal/core"
)

type identityTranslator struct{}

func (identityTranslator) Normalize(_ context.Context, text string) core.NormalizedText {
	return core.NormalizedText{Language: "en", Text: text}
}

type fixedSource struct {
	id   core.SourceID
	item *core.EvidenceItem
}

func (s *fixedSource) ID() core.SourceID { return s.id }

func (s *fixedSource) Collect(_ context.Context, _ core.CollectInput) (*core.EvidenceItem, error) {
	return s.item, nil
}

type recordingSink struct {
	recorded chan *core.Feedback
}

func (s *recordingSink) Record(_ context.Context, fb *core.Feedback) error {
	s.recorded <- fb
	return nil
}

type stubHealth struct{ err error }

func (s *stubHealth) Health(_ context.Context) error { return s.err }

func newTestServer(t *testing.T, sink core.FeedbackSink, health healthChecker) *Server {
	t.Helper()

	conf := 0.9
	source := &fixedSource{
		id: core.SourceClassifier,
		item: &core.EvidenceItem{
			Source:     core.SourceClassifier,
			Score:      0.89,
			Judgment:   core.JudgmentSuspicious,
			Confidence: &conf,
		},
	}

	service := core.NewAnalysisService(
		identityTranslator{},
		[]core.EvidenceSource{source},
		core.NewFuser("en", zap.NewNop()),
		nil,
		allowlist.NewChecker(nil, nil),
		zap.NewNop(),
		false,
		0,
		time.Second,
		5*time.Second,
	)

	return NewServer(service, sink, health, zap.NewNop(), "127.0.0.1:0")
}

func postJSON(t *testing.T, srv *Server, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp := postJSON(t, srv, "/api/v1/analyze", `{"text": "verify your account now", "detection_mode": "classifier-only"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result core.AnalysisResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	assert.Equal(t, core.RiskHigh, result.Verdict.Risk)
	assert.NotEmpty(t, result.ID)
	assert.True(t, result.Availability[core.SourceClassifier])
}

func TestAnalyzeEndpointDefaultsMode(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp := postJSON(t, srv, "/api/v1/analyze", `{"text": "hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result core.AnalysisResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, core.ModeBoth, result.Message.Mode)
}

func TestAnalyzeEndpointRejectsEmptyText(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp := postJSON(t, srv, "/api/v1/analyze", `{"text": "  "}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "non-empty")
}

func TestAnalyzeEndpointRejectsBadJSON(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp := postJSON(t, srv, "/api/v1/analyze", `{"text": `)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeEndpointRejectsUnknownMode(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp := postJSON(t, srv, "/api/v1/analyze", `{"text": "hello", "detection_mode": "everything"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFeedbackEndpoint(t *testing.T) {
	sink := &recordingSink{recorded: make(chan *core.Feedback, 1)}
	srv := newTestServer(t, sink, nil)

	resp := postJSON(t, srv, "/api/v1/feedback", `{"correct": false, "note": "was actually fine", "analysis": {"id": "a-1", "verdict": {"risk": "high", "explanation": "x"}}}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["id"])

	select {
	case fb := <-sink.recorded:
		assert.False(t, fb.Correct)
		assert.Equal(t, "was actually fine", fb.Note)
		assert.Equal(t, "a-1", fb.Analysis.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("feedback was never recorded")
	}
}

func TestFeedbackEndpointRequiresAnalysis(t *testing.T) {
	srv := newTestServer(t, &recordingSink{recorded: make(chan *core.Feedback, 1)}, nil)

	resp := postJSON(t, srv, "/api/v1/feedback", `{"correct": true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		health     healthChecker
		classifier bool
	}{
		{"classifier up", &stubHealth{}, true},
		{"classifier down", &stubHealth{err: context.DeadlineExceeded}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, nil, tt.health)

			req, err := http.NewRequest(http.MethodGet, "/health", nil)
			require.NoError(t, err)
			resp, err := srv.App().Test(req, -1)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body struct {
				Status     string `json:"status"`
				Classifier bool   `json:"classifier"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "ok", body.Status)
			assert.Equal(t, tt.classifier, body.Classifier)
		})
	}
}
