package icd10

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/giygas/hireshawk-api/entities"
	"github.com/giygas/hireshawk-api/interfaces"
	"github.com/giygas/hireshawk-api/logging"
	"github.com/giygas/hireshawk-api/metrics"
)

const fallbackPromptTemplate = "What is the ICD-10 code and description for the disease: '%s'? " +
	"Respond in the format: CODE | Description. If not found, reply: N/A | N/A."

var _ interfaces.DiseaseResolver = (*Resolver)(nil)

// Resolver runs the full-name, keyword and language model steps in order
type Resolver struct {
	lookup interfaces.CodeLookup
}

// NewResolver creates a resolver on top of a coding API lookup
func NewResolver(lookup interfaces.CodeLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve returns the ICD-10 code for name. fallback may be nil, in which
// case the language model step is skipped.
func (r *Resolver) Resolve(ctx context.Context, name string, fallback interfaces.CompletionFunc) entities.Resolution {
	res := r.resolve(ctx, strings.TrimSpace(name), fallback)
	metrics.ICD10ResolutionTotal.WithLabelValues(string(res.Source)).Inc()
	return res
}

func (r *Resolver) resolve(ctx context.Context, name string, fallback interfaces.CompletionFunc) entities.Resolution {
	res := entities.Resolution{Source: entities.SourceNone, Attempts: []entities.ResolutionAttempt{}}
	if name == "" {
		return res
	}

	if result, ok := r.try(ctx, &res, entities.SourceFullName, name); ok {
		res.Result = result
		res.Source = entities.SourceFullName
		return res
	}

	tried := map[string]bool{name: true}
	for _, keyword := range strings.Fields(name) {
		if tried[keyword] {
			continue
		}
		tried[keyword] = true

		if result, ok := r.try(ctx, &res, entities.SourceKeyword, keyword); ok {
			res.Result = result
			res.Source = entities.SourceKeyword
			res.Keyword = keyword
			return res
		}
	}

	if fallback != nil {
		result, err := askModel(ctx, name, fallback)
		if err == nil {
			res.Result = result
			res.Source = entities.SourceLLM
			return res
		}
		res.Attempts = append(res.Attempts, entities.ResolutionAttempt{Step: entities.SourceLLM, Term: name, Error: err.Error()})
		if !errors.Is(err, ErrNoMatch) {
			logging.Warn("ICD-10 language model fallback failed", "disease", name, "error", err)
		}
	}

	return res
}

// try runs one lookup and records it. Only a non-match error kind is logged.
func (r *Resolver) try(ctx context.Context, res *entities.Resolution, step entities.ResolutionSource, term string) (entities.CodeResult, bool) {
	result, err := r.lookup.Lookup(ctx, term)
	if err == nil && result.Resolved() {
		res.Attempts = append(res.Attempts, entities.ResolutionAttempt{Step: step, Term: term})
		return result, true
	}
	if err == nil {
		err = ErrNoMatch
	}

	res.Attempts = append(res.Attempts, entities.ResolutionAttempt{Step: step, Term: term, Error: err.Error()})
	if !errors.Is(err, ErrNoMatch) {
		logging.Warn("ICD-10 API lookup failed", "step", step, "term", term, "error", err)
	}
	return entities.CodeResult{}, false
}

// askModel asks for "CODE | Description" and treats "N/A" as no match
func askModel(ctx context.Context, name string, complete interfaces.CompletionFunc) (entities.CodeResult, error) {
	answer, err := complete(ctx, fmt.Sprintf(fallbackPromptTemplate, name))
	if err != nil {
		return entities.CodeResult{}, fmt.Errorf("language model call failed: %w", err)
	}

	return parseModelAnswer(answer)
}

func parseModelAnswer(answer string) (entities.CodeResult, error) {
	code, desc, found := strings.Cut(answer, "|")
	if !found {
		return entities.CodeResult{}, fmt.Errorf("%w: answer has no '|' delimiter", ErrNoMatch)
	}

	code = strings.TrimSpace(code)
	desc = strings.TrimSpace(desc)
	if code == "" || desc == "" || strings.EqualFold(code, entities.NotAvailable) {
		return entities.CodeResult{}, ErrNoMatch
	}

	return entities.CodeResult{Code: code, Description: desc}, nil
}
