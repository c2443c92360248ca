// Package handlers provides HTTP request handlers for the report analysis API.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/giygas/hireshawk-api/analysis"
	"github.com/giygas/hireshawk-api/diseaseparser"
	"github.com/giygas/hireshawk-api/entities"
	"github.com/giygas/hireshawk-api/interfaces"
	"github.com/giygas/hireshawk-api/llm"
	"github.com/giygas/hireshawk-api/logging"
	"github.com/giygas/hireshawk-api/reporttext"
)

// Compile-time check
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	analyzer      interfaces.Analyzer
	router        interfaces.LLMRouter
	history       interfaces.HistoryStore
	validator     interfaces.InputValidator
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	analyzer interfaces.Analyzer,
	router interfaces.LLMRouter,
	history interfaces.HistoryStore,
	validator interfaces.InputValidator,
	healthChecker interfaces.HealthChecker,
) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		analyzer:      analyzer,
		router:        router,
		history:       history,
		validator:     validator,
		healthChecker: healthChecker,
	}
}

type parseRequest struct {
	Raw string `json:"raw"`
}

type parseResponse struct {
	Diseases []string `json:"diseases"`
	Count    int      `json:"count"`
}

type resolveRequest struct {
	Disease  string `json:"disease"`
	Fallback bool   `json:"fallback"`
}

type resolveResponse struct {
	Disease    string              `json:"disease"`
	Row        entities.ResultRow  `json:"row"`
	Resolution entities.Resolution `json:"resolution"`
}

type historyResponse struct {
	Entries []entities.HistoryEntry `json:"entries"`
	Count   int                     `json:"count"`
	Total   int                     `json:"total"`
}

type providersResponse struct {
	Providers []string `json:"providers"`
	Default   string   `json:"default"`
}

// Analyze runs the full pipeline. It accepts a JSON request or a plain text
// report, in which case provider and compare come from the query string.
func (h *HTTPHandlerImpl) Analyze(w http.ResponseWriter, r *http.Request) {
	req, err := h.readAnalysisRequest(r)
	if err != nil {
		RespondWithError(w, r, statusForBodyError(err), err.Error())
		return
	}

	if err := h.validateAnalysisRequest(req); err != nil {
		logging.Warn("Rejected analysis request", "error", err)
		RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		code, message := statusForModelError(err)
		RespondWithError(w, r, code, message)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

// DefaultPrompt returns the extraction prompt the UI pre-fills for editing
func (h *HTTPHandlerImpl) DefaultPrompt(w http.ResponseWriter, r *http.Request) {
	report := r.URL.Query().Get("report")
	if report != "" {
		if err := h.validator.ValidateReport(report); err != nil {
			RespondWithError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"prompt": analysis.BuildPrompt(reporttext.Normalize(report)),
	})
}

// ParseOutput runs the output parser alone on a raw model answer
func (h *HTTPHandlerImpl) ParseOutput(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, r, statusForBodyError(err), err.Error())
		return
	}
	if err := h.validator.ValidatePrompt(req.Raw); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	diseases := diseaseparser.Parse(req.Raw)
	RespondWithJSON(w, r, http.StatusOK, parseResponse{Diseases: diseases, Count: len(diseases)})
}

// ResolveDisease resolves one disease name to an ICD-10 code
func (h *HTTPHandlerImpl) ResolveDisease(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, r, statusForBodyError(err), err.Error())
		return
	}
	if err := h.validator.ValidateDiseaseName(req.Disease); err != nil {
		logging.Warn("Unusual user input", "disease", req.Disease)
		RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(req.Disease)
	res := h.analyzer.ResolveDisease(r.Context(), name, req.Fallback)
	finding := entities.ResolvedFinding{Position: 1, Name: name, Code: res.Result, Source: res.Source}

	RespondWithJSON(w, r, http.StatusOK, resolveResponse{
		Disease:    name,
		Row:        finding.Row(),
		Resolution: res,
	})
}

// History returns the prompt history, newest first
func (h *HTTPHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	limit, err := h.validator.ValidateHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	entries := h.history.Recent(limit)
	RespondWithJSON(w, r, http.StatusOK, historyResponse{
		Entries: entries,
		Count:   len(entries),
		Total:   h.history.Count(),
	})
}

// Providers lists the language model providers a request may name
func (h *HTTPHandlerImpl) Providers(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, r, http.StatusOK, providersResponse{
		Providers: h.router.Providers(),
		Default:   h.router.Default(),
	})
}

// HealthCheck returns service health from the last dependency probes
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()

	response := map[string]any{"status": status}
	for k, v := range data {
		response[k] = v
	}
	RespondWithJSON(w, r, httpStatus, response)
}

func (h *HTTPHandlerImpl) readAnalysisRequest(r *http.Request) (entities.AnalysisRequest, error) {
	if !isPlainText(r) {
		var req entities.AnalysisRequest
		err := decodeJSON(r, &req)
		return req, err
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return entities.AnalysisRequest{}, bodyError(err)
	}
	report, err := reporttext.Decode(body)
	if err != nil {
		return entities.AnalysisRequest{}, fmt.Errorf("%w: %v", errBadBody, err)
	}

	query := r.URL.Query()
	compare, _ := strconv.ParseBool(query.Get("compare"))
	return entities.AnalysisRequest{
		Report:          report,
		Provider:        query.Get("provider"),
		Compare:         compare,
		CompareProvider: query.Get("compare_provider"),
	}, nil
}

func (h *HTTPHandlerImpl) validateAnalysisRequest(req entities.AnalysisRequest) error {
	if err := h.validator.ValidateReport(req.Report); err != nil {
		return err
	}
	if err := h.validator.ValidatePrompt(req.Prompt); err != nil {
		return err
	}
	known := h.router.Providers()
	if err := h.validator.ValidateProvider(req.Provider, known); err != nil {
		return err
	}
	return h.validator.ValidateProvider(req.CompareProvider, known)
}

var (
	errBadBody      = errors.New("invalid request body")
	errBodyTooLarge = errors.New("request body too large")
)

func isPlainText(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "text/plain"
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return bodyError(err)
	}
	return nil
}

// bodyError separates oversized bodies from malformed ones
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: %v", errBodyTooLarge, err)
	}
	return fmt.Errorf("%w: %v", errBadBody, err)
}

func statusForBodyError(err error) int {
	if errors.Is(err, errBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// statusForModelError maps a failed model call to the answer the client gets
func statusForModelError(err error) (int, string) {
	var cfgErr *llm.ConfigError
	switch {
	case errors.Is(err, llm.ErrUnknownProvider):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &cfgErr):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusBadGateway, err.Error()
	}
}
