package handlers

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/giygas/hireshawk-api/data"
	"github.com/giygas/hireshawk-api/entities"
	"github.com/giygas/hireshawk-api/interfaces"
	"github.com/giygas/hireshawk-api/llm"
	"github.com/giygas/hireshawk-api/validation"
)

type mockAnalyzer struct {
	result   *entities.Analysis
	err      error
	lastReq  entities.AnalysisRequest
	resolved entities.Resolution
	fallback bool
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req entities.AnalysisRequest) (*entities.Analysis, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockAnalyzer) ResolveDisease(ctx context.Context, name string, useFallback bool) entities.Resolution {
	m.fallback = useFallback
	return m.resolved
}

type mockRouter struct{}

func (mockRouter) Call(ctx context.Context, prompt, provider string) (string, error) { return "", nil }
func (mockRouter) Providers() []string                                              { return []string{"local", "openai"} }
func (mockRouter) Default() string                                                  { return "openai" }
func (mockRouter) Fallback() interfaces.CompletionFunc                              { return nil }

type mockHealthChecker struct {
	status string
	code   int
}

func (m mockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, map[string]any{"history_entries": 0}, m.code
}

func newTestHandler(analyzer *mockAnalyzer) (*HTTPHandlerImpl, *data.DataContainer) {
	store := data.NewDataContainer()
	h := NewHTTPHandler(
		analyzer,
		mockRouter{},
		store,
		validation.NewInputValidator(1000),
		mockHealthChecker{status: "healthy", code: http.StatusOK},
	).(*HTTPHandlerImpl)
	return h, store
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Error body is not JSON: %v (%s)", err, rr.Body.String())
	}
	return body
}

func TestAnalyzeJSON(t *testing.T) {
	analyzer := &mockAnalyzer{result: &entities.Analysis{HistoryID: "abc", Mode: entities.ModeSingle}}
	h, _ := newTestHandler(analyzer)

	body := `{"report":"Findings: pneumonia.","provider":"local","compare":true}`
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Analyze(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if analyzer.lastReq.Report != "Findings: pneumonia." || analyzer.lastReq.Provider != "local" || !analyzer.lastReq.Compare {
		t.Errorf("Unexpected request passed to analyzer: %+v", analyzer.lastReq)
	}

	var got entities.Analysis
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil || got.HistoryID != "abc" {
		t.Errorf("Unexpected body %s (%v)", rr.Body.String(), err)
	}
}

func TestAnalyzePlainText(t *testing.T) {
	analyzer := &mockAnalyzer{result: &entities.Analysis{}}
	h, _ := newTestHandler(analyzer)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze?provider=openai&compare=1",
		bytes.NewReader([]byte("Impression: caf\xe9 lesion")))
	req.Header.Set("Content-Type", "text/plain; charset=windows-1252")
	rr := httptest.NewRecorder()

	h.Analyze(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if analyzer.lastReq.Report != "Impression: café lesion" {
		t.Errorf("Expected decoded report, got %q", analyzer.lastReq.Report)
	}
	if analyzer.lastReq.Provider != "openai" || !analyzer.lastReq.Compare {
		t.Errorf("Query options not applied: %+v", analyzer.lastReq)
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", `{"report":`, http.StatusBadRequest},
		{"unknown field", `{"report":"x","temperature":1}`, http.StatusBadRequest},
		{"empty report", `{"report":"   "}`, http.StatusBadRequest},
		{"unknown provider", `{"report":"x","provider":"gemini"}`, http.StatusBadRequest},
		{"unknown compare provider", `{"report":"x","compare":true,"compare_provider":"gemini"}`, http.StatusBadRequest},
		{"report too long", fmt.Sprintf(`{"report":%q}`, strings.Repeat("a", 1001)), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &mockAnalyzer{result: &entities.Analysis{}}
			h, _ := newTestHandler(analyzer)

			req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.Analyze(rr, req)

			if rr.Code != tt.code {
				t.Fatalf("Expected %d, got %d: %s", tt.code, rr.Code, rr.Body.String())
			}
			if body := decodeError(t, rr); body.Code != tt.code || body.Message == "" {
				t.Errorf("Unexpected error body %+v", body)
			}
			if analyzer.lastReq.Report != "" {
				t.Error("Analyzer must not run on invalid input")
			}
		})
	}
}

func TestAnalyzeBodyTooLarge(t *testing.T) {
	h, _ := newTestHandler(&mockAnalyzer{result: &entities.Analysis{}})

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(`{"report":"`+strings.Repeat("a", 100)+`"}`))
	rr := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rr, req.Body, 16)

	h.Analyze(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", rr.Code)
	}
}

func TestAnalyzeModelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"config error", fmt.Errorf("Primary model (local) failed: %w", &llm.ConfigError{Provider: "local", Reason: "LOCAL_LLM_URL is not set"}), http.StatusServiceUnavailable},
		{"unknown provider", fmt.Errorf("x: %w", llm.ErrUnknownProvider), http.StatusBadRequest},
		{"upstream status", &llm.HTTPStatusError{Provider: "openai", StatusCode: 500}, http.StatusBadGateway},
		{"transport", errors.New("connection reset"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(&mockAnalyzer{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(`{"report":"x"}`))
			rr := httptest.NewRecorder()
			h.Analyze(rr, req)

			if rr.Code != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, rr.Code)
			}
			if body := decodeError(t, rr); body.Error != http.StatusText(tt.code) {
				t.Errorf("Unexpected error body %+v", body)
			}
		})
	}
}

func TestDefaultPrompt(t *testing.T) {
	h, _ := newTestHandler(&mockAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/v1/prompt?report=Pneumonia.", nil)
	rr := httptest.NewRecorder()
	h.DefaultPrompt(rr, req)

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !strings.HasPrefix(body["prompt"], "Extract all positive diseases") || !strings.HasSuffix(body["prompt"], "\n\nPneumonia.") {
		t.Errorf("Unexpected prompt %q", body["prompt"])
	}
}

func TestParseOutput(t *testing.T) {
	h, _ := newTestHandler(&mockAnalyzer{})

	req := httptest.NewRequest(http.MethodPost, "/v1/parse", strings.NewReader(`{"raw":"['pneumonia', 'pleural effusion']"}`))
	rr := httptest.NewRecorder()
	h.ParseOutput(rr, req)

	var body parseResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.Count != 2 || body.Diseases[0] != "pneumonia" || body.Diseases[1] != "pleural effusion" {
		t.Errorf("Unexpected parse result %+v", body)
	}
}

func TestResolveDisease(t *testing.T) {
	analyzer := &mockAnalyzer{resolved: entities.Resolution{
		Result: entities.CodeResult{Code: "J90", Description: "Pleural effusion"},
		Source: entities.SourceFullName,
	}}
	h, _ := newTestHandler(analyzer)

	req := httptest.NewRequest(http.MethodPost, "/v1/resolve", strings.NewReader(`{"disease":" pleural effusion ","fallback":true}`))
	rr := httptest.NewRecorder()
	h.ResolveDisease(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var body resolveResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.Disease != "pleural effusion" || body.Row.Code != "J90" || body.Resolution.Source != entities.SourceFullName {
		t.Errorf("Unexpected body %+v", body)
	}
	if !analyzer.fallback {
		t.Error("fallback flag not forwarded")
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/resolve", strings.NewReader(`{"disease":"<script>x</script>"}`))
	rr = httptest.NewRecorder()
	h.ResolveDisease(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for dangerous name, got %d", rr.Code)
	}
}

func TestHistory(t *testing.T) {
	h, store := newTestHandler(&mockAnalyzer{})
	for _, p := range []string{"one", "two", "three"} {
		store.Append(entities.HistoryEntry{Mode: entities.ModeSingle, Prompt: p, Outputs: []string{"[]"}})
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/history?limit=2", nil)
	rr := httptest.NewRecorder()
	h.History(rr, req)

	var body historyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.Count != 2 || body.Total != 3 || body.Entries[0].Prompt != "three" || body.Entries[1].Prompt != "two" {
		t.Errorf("Unexpected history %+v", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/history?limit=abc", nil)
	rr = httptest.NewRecorder()
	h.History(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad limit, got %d", rr.Code)
	}
}

func TestProviders(t *testing.T) {
	h, _ := newTestHandler(&mockAnalyzer{})

	rr := httptest.NewRecorder()
	h.Providers(rr, httptest.NewRequest(http.MethodGet, "/v1/providers", nil))

	var body providersResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.Default != "openai" || len(body.Providers) != 2 {
		t.Errorf("Unexpected providers %+v", body)
	}
}

func TestHealthCheckHandler(t *testing.T) {
	h, _ := newTestHandler(&mockAnalyzer{})
	h.healthChecker = mockHealthChecker{status: "unhealthy", code: http.StatusServiceUnavailable}

	rr := httptest.NewRecorder()
	h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["status"] != "unhealthy" || body["history_entries"] != float64(0) {
		t.Errorf("Unexpected body %v", body)
	}
}

func TestRespondWithJSONCompression(t *testing.T) {
	payload := map[string]string{"report": strings.Repeat("pneumonia ", 200)}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rr := httptest.NewRecorder()
	RespondWithJSON(rr, req, http.StatusOK, payload)

	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Fatal("Expected gzip encoding for large payload")
	}
	gz, err := gzip.NewReader(rr.Body)
	if err != nil {
		t.Fatalf("Invalid gzip body: %v", err)
	}
	raw, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("Failed to read gzip body: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(raw, &got); err != nil || got["report"] != payload["report"] {
		t.Errorf("Decompressed body mismatch: %v", err)
	}

	small := httptest.NewRecorder()
	RespondWithJSON(small, req, http.StatusOK, map[string]int{"n": 1})
	if small.Header().Get("Content-Encoding") != "" || small.Body.String() != `{"n":1}` {
		t.Errorf("Small payloads must not be compressed, got %q", small.Body.String())
	}

	plain := httptest.NewRecorder()
	RespondWithJSON(plain, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, payload)
	if plain.Header().Get("Content-Encoding") != "" {
		t.Error("Clients without gzip support must get plain JSON")
	}
}
