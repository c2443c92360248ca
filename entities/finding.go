package entities

// NotAvailable is displayed in place of a missing code or description
const NotAvailable = "N/A"

// ResolutionSource names the resolver step that produced a code
type ResolutionSource string

const (
	SourceFullName ResolutionSource = "full_name"
	SourceKeyword  ResolutionSource = "keyword"
	SourceLLM      ResolutionSource = "llm"
	SourceNone     ResolutionSource = "none"
)

// CodeResult is an ICD-10 code with its description.
// Both fields empty means the disease could not be resolved.
type CodeResult struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

// Resolved reports whether a code was found
func (c CodeResult) Resolved() bool {
	return c.Code != ""
}

// ResolvedFinding is one extracted disease with its code, in extraction order
type ResolvedFinding struct {
	Position int              `json:"position"` // 1-based
	Name     string           `json:"name"`
	Code     CodeResult       `json:"code"`
	Source   ResolutionSource `json:"source"`
}

// ResultRow is the display tuple handed to the UI
type ResultRow struct {
	Position    int    `json:"position"`
	Disease     string `json:"disease"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Row converts the finding into its display tuple
func (f ResolvedFinding) Row() ResultRow {
	row := ResultRow{
		Position:    f.Position,
		Disease:     f.Name,
		Code:        f.Code.Code,
		Description: f.Code.Description,
	}
	if row.Code == "" {
		row.Code = NotAvailable
	}
	if row.Description == "" {
		row.Description = NotAvailable
	}
	return row
}

// ResolutionAttempt records one resolver step and why it did not produce a code
type ResolutionAttempt struct {
	Step  ResolutionSource `json:"step"`
	Term  string           `json:"term"`
	Error string           `json:"error,omitempty"`
}

// Resolution is the outcome of resolving one disease name.
// Failures of individual steps are kept in Attempts, never returned.
type Resolution struct {
	Result   CodeResult          `json:"result"`
	Source   ResolutionSource    `json:"source"`
	Keyword  string              `json:"keyword,omitempty"`
	Attempts []ResolutionAttempt `json:"attempts"`
}
