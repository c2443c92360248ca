// Package interfaces defines core abstractions for the report analysis API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/hireshawk-api/entities"
)

// CompletionFunc sends one prompt to a language model and returns its text
type CompletionFunc func(ctx context.Context, prompt string) (string, error)

// LLMClient is one language model backend.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMRouter selects a backend by provider name.
// An empty provider selects the configured default.
type LLMRouter interface {
	Call(ctx context.Context, prompt, provider string) (string, error)
	Providers() []string
	Default() string
	// Fallback returns a completion bound to the default provider
	Fallback() CompletionFunc
}

// CodeLookup queries the ICD-10 coding API for one search term.
// A term without a match returns icd10.ErrNoMatch.
type CodeLookup interface {
	Lookup(ctx context.Context, term string) (entities.CodeResult, error)
}

// DiseaseResolver maps one disease name to an ICD-10 code.
// A nil fallback skips the language model step.
type DiseaseResolver interface {
	Resolve(ctx context.Context, name string, fallback CompletionFunc) entities.Resolution
}

// Analyzer runs the extraction, resolution and annotation pipeline
type Analyzer interface {
	Analyze(ctx context.Context, req entities.AnalysisRequest) (*entities.Analysis, error)
	ResolveDisease(ctx context.Context, name string, useFallback bool) entities.Resolution
}

// Prober checks that an external collaborator is reachable
type Prober interface {
	Name() string
	Probe(ctx context.Context) error
}

// HistoryStore is the append-only, process-lifetime prompt history.
// It also carries the dependency probe results and server start time.
type HistoryStore interface {
	Append(entry entities.HistoryEntry) entities.HistoryEntry
	Entries() []entities.HistoryEntry
	Recent(limit int) []entities.HistoryEntry
	Count() int

	SetDependencyStatus(status entities.DependencyStatus)
	DependencyStatuses() map[string]entities.DependencyStatus
	GetServerStartTime() time.Time
}

// Scheduler defines the contract for background probe scheduling.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the status label, details and the HTTP status to answer with
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// InputValidator validates user supplied request fields.
type InputValidator interface {
	ValidateReport(report string) error
	ValidatePrompt(prompt string) error
	ValidateProvider(provider string, known []string) error
	ValidateDiseaseName(name string) error
	ValidateHistoryLimit(raw string) (int, error)
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	Analyze(w http.ResponseWriter, r *http.Request)
	DefaultPrompt(w http.ResponseWriter, r *http.Request)
	ParseOutput(w http.ResponseWriter, r *http.Request)
	ResolveDisease(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	Providers(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}
