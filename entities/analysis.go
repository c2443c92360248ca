package entities

import "time"

// Mode tags a run as a single-model analysis or a two-model comparison
type Mode string

const (
	ModeSingle  Mode = "single"
	ModeCompare Mode = "compare"
)

// HistoryEntry records the prompt and raw model outputs of one run.
// Entries are immutable once appended to the history.
type HistoryEntry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Mode      Mode      `json:"mode"`
	Prompt    string    `json:"prompt"`
	Outputs   []string  `json:"outputs"`
}

// Panel is the result of one model within a run
type Panel struct {
	Label     string            `json:"label"`
	Provider  string            `json:"provider"`
	RawOutput string            `json:"raw_output"`
	Findings  []ResolvedFinding `json:"findings"`
	Rows      []ResultRow       `json:"rows"`
	Annotated string            `json:"annotated_report"`
	Warning   string            `json:"warning,omitempty"`
}

// Analysis is the complete result of one run
type Analysis struct {
	HistoryID string  `json:"history_id"`
	Mode      Mode    `json:"mode"`
	Prompt    string  `json:"prompt"`
	Report    string  `json:"report"`
	Panels    []Panel `json:"panels"`
}

// DependencyStatus is the last probe result for an external collaborator
type DependencyStatus struct {
	Name      string        `json:"name"`
	Healthy   bool          `json:"healthy"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
	Latency   time.Duration `json:"latency_ns"`
}

// AnalysisRequest is one run as submitted by the user.
// An empty Prompt is replaced by the default extraction prompt and an empty
// Provider by the configured default.
type AnalysisRequest struct {
	Report          string `json:"report"`
	Prompt          string `json:"prompt,omitempty"`
	Provider        string `json:"provider,omitempty"`
	Compare         bool   `json:"compare,omitempty"`
	CompareProvider string `json:"compare_provider,omitempty"`
}
