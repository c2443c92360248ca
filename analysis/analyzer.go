// Package analysis runs one report through the pipeline: language model
// extraction, output parsing, ICD-10 resolution and report annotation.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/giygas/hireshawk-api/diseaseparser"
	"github.com/giygas/hireshawk-api/entities"
	"github.com/giygas/hireshawk-api/interfaces"
	"github.com/giygas/hireshawk-api/logging"
	"github.com/giygas/hireshawk-api/reporttext"
)

var _ interfaces.Analyzer = (*Analyzer)(nil)

const (
	LabelPrimary    = "Primary"
	LabelComparison = "Comparison"

	// NoDiseasesWarning is set on a panel whose model output yielded no disease
	NoDiseasesWarning = "No positive diseases could be parsed from the model output."
)

// Analyzer wires the model router, the code resolver and the history
type Analyzer struct {
	router   interfaces.LLMRouter
	resolver interfaces.DiseaseResolver
	history  interfaces.HistoryStore
}

func NewAnalyzer(router interfaces.LLMRouter, resolver interfaces.DiseaseResolver, history interfaces.HistoryStore) *Analyzer {
	return &Analyzer{
		router:   router,
		resolver: resolver,
		history:  history,
	}
}

// Analyze runs one analysis. Model calls are made first, in order, and any
// failure aborts the run before anything is recorded. The history entry is
// appended once every call succeeded.
func (a *Analyzer) Analyze(ctx context.Context, req entities.AnalysisRequest) (*entities.Analysis, error) {
	start := time.Now()

	report := reporttext.Normalize(req.Report)
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = BuildPrompt(report)
	}

	mode := entities.ModeSingle
	providers := []string{a.providerName(req.Provider)}
	if req.Compare {
		mode = entities.ModeCompare
		providers = append(providers, a.comparisonProvider(providers[0], req.CompareProvider))
	}

	outputs := make([]string, 0, len(providers))
	for i, provider := range providers {
		out, err := a.router.Call(ctx, prompt, provider)
		if err != nil {
			return nil, fmt.Errorf("%s model (%s) failed: %w", panelLabel(i), provider, err)
		}
		outputs = append(outputs, out)
	}

	entry := a.history.Append(entities.HistoryEntry{
		Mode:    mode,
		Prompt:  prompt,
		Outputs: outputs,
	})

	result := &entities.Analysis{
		HistoryID: entry.ID,
		Mode:      mode,
		Prompt:    prompt,
		Report:    report,
		Panels:    make([]entities.Panel, 0, len(outputs)),
	}

	fallback := a.router.Fallback()
	for i, out := range outputs {
		result.Panels = append(result.Panels, a.buildPanel(ctx, panelLabel(i), providers[i], out, report, fallback))
	}

	logging.Info("Analysis completed",
		"history_id", entry.ID,
		"mode", mode,
		"report_chars", len(report),
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

// ResolveDisease resolves a single name, optionally with the model fallback
func (a *Analyzer) ResolveDisease(ctx context.Context, name string, useFallback bool) entities.Resolution {
	var fallback interfaces.CompletionFunc
	if useFallback {
		fallback = a.router.Fallback()
	}
	return a.resolver.Resolve(ctx, name, fallback)
}

func (a *Analyzer) buildPanel(ctx context.Context, label, provider, raw, report string, fallback interfaces.CompletionFunc) entities.Panel {
	names := diseaseparser.Parse(raw)

	findings := make([]entities.ResolvedFinding, 0, len(names))
	for i, name := range names {
		res := a.resolver.Resolve(ctx, name, fallback)
		findings = append(findings, entities.ResolvedFinding{
			Position: i + 1,
			Name:     name,
			Code:     res.Result,
			Source:   res.Source,
		})
	}

	panel := entities.Panel{
		Label:     label,
		Provider:  provider,
		RawOutput: raw,
		Findings:  findings,
		Rows:      Rows(findings),
		Annotated: Annotate(report, findings),
	}
	if len(findings) == 0 {
		panel.Warning = NoDiseasesWarning
		logging.Warn("No diseases parsed from model output", "panel", label, "provider", provider)
	}
	return panel
}

func (a *Analyzer) providerName(requested string) string {
	name := strings.ToLower(strings.TrimSpace(requested))
	if name == "" {
		return a.router.Default()
	}
	return name
}

// comparisonProvider uses the requested provider, or else the first configured
// provider other than primary
func (a *Analyzer) comparisonProvider(primary, requested string) string {
	if name := strings.ToLower(strings.TrimSpace(requested)); name != "" {
		return name
	}
	for _, name := range a.router.Providers() {
		if name != primary {
			return name
		}
	}
	return primary
}

func panelLabel(i int) string {
	if i == 0 {
		return LabelPrimary
	}
	return LabelComparison
}
