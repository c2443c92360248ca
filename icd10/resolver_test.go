package icd10

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/giygas/hireshawk-api/entities"
)

// fakeLookup answers from a fixed table and records every queried term
type fakeLookup struct {
	codes   map[string]entities.CodeResult
	errs    map[string]error
	queried []string
}

func (f *fakeLookup) Lookup(ctx context.Context, term string) (entities.CodeResult, error) {
	f.queried = append(f.queried, term)
	if err, ok := f.errs[term]; ok {
		return entities.CodeResult{}, err
	}
	if result, ok := f.codes[term]; ok {
		return result, nil
	}
	return entities.CodeResult{}, ErrNoMatch
}

func staticModel(answer string, err error) (func(context.Context, string) (string, error), *[]string) {
	var prompts []string
	return func(ctx context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return answer, err
	}, &prompts
}

func TestResolveFullName(t *testing.T) {
	lookup := &fakeLookup{codes: map[string]entities.CodeResult{
		"pneumonia": {Code: "J18.9", Description: "Pneumonia, unspecified"},
	}}
	model, prompts := staticModel("X | Y", nil)

	res := NewResolver(lookup).Resolve(context.Background(), "pneumonia", model)

	if res.Source != entities.SourceFullName || res.Result.Code != "J18.9" {
		t.Fatalf("Unexpected resolution %+v", res)
	}
	if len(lookup.queried) != 1 {
		t.Errorf("Expected a single query, got %v", lookup.queried)
	}
	if len(*prompts) != 0 {
		t.Error("Language model must not be called when the API matches")
	}
}

func TestResolveKeywordFallback(t *testing.T) {
	lookup := &fakeLookup{codes: map[string]entities.CodeResult{
		"kidney": {Code: "N28.9", Description: "Disorder of kidney and ureter, unspecified"},
	}}

	res := NewResolver(lookup).Resolve(context.Background(), "acute kidney injury", nil)

	if res.Source != entities.SourceKeyword || res.Keyword != "kidney" {
		t.Fatalf("Expected keyword resolution via 'kidney', got %+v", res)
	}
	if res.Result.Code != "N28.9" {
		t.Errorf("Unexpected code %s", res.Result.Code)
	}

	want := []string{"acute kidney injury", "acute", "kidney"}
	if strings.Join(lookup.queried, ",") != strings.Join(want, ",") {
		t.Errorf("Queried %v, want %v", lookup.queried, want)
	}
}

func TestResolveSingleWordNotQueriedTwice(t *testing.T) {
	lookup := &fakeLookup{}

	res := NewResolver(lookup).Resolve(context.Background(), "atelectasis", nil)

	if res.Source != entities.SourceNone {
		t.Fatalf("Expected no resolution, got %+v", res)
	}
	if len(lookup.queried) != 1 {
		t.Errorf("Single word name should be queried once, got %v", lookup.queried)
	}
}

func TestResolveModelFallback(t *testing.T) {
	lookup := &fakeLookup{}
	model, prompts := staticModel("  I26.99 | Other pulmonary embolism without acute cor pulmonale ", nil)

	res := NewResolver(lookup).Resolve(context.Background(), "pulmonary embolism", model)

	if res.Source != entities.SourceLLM {
		t.Fatalf("Expected llm source, got %+v", res)
	}
	if res.Result.Code != "I26.99" || res.Result.Description != "Other pulmonary embolism without acute cor pulmonale" {
		t.Errorf("Unexpected result %+v", res.Result)
	}

	if len(*prompts) != 1 {
		t.Fatalf("Expected one prompt, got %d", len(*prompts))
	}
	wantPrompt := "What is the ICD-10 code and description for the disease: 'pulmonary embolism'? " +
		"Respond in the format: CODE | Description. If not found, reply: N/A | N/A."
	if (*prompts)[0] != wantPrompt {
		t.Errorf("Unexpected prompt %q", (*prompts)[0])
	}
}

func TestResolveNoMatchAnywhere(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
	}{
		{"model says N/A", "N/A | N/A", nil},
		{"no delimiter", "I do not know", nil},
		{"empty description", "J18.9 |", nil},
		{"model failure", "", errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, _ := staticModel(tt.answer, tt.err)

			res := NewResolver(&fakeLookup{}).Resolve(context.Background(), "strange shadow", model)

			if res.Source != entities.SourceNone || res.Result.Resolved() {
				t.Fatalf("Expected (none, none), got %+v", res)
			}
			row := entities.ResolvedFinding{Position: 1, Name: "strange shadow", Code: res.Result}.Row()
			if row.Code != entities.NotAvailable || row.Description != entities.NotAvailable {
				t.Errorf("Expected N/A row, got %+v", row)
			}

			last := res.Attempts[len(res.Attempts)-1]
			if last.Step != entities.SourceLLM || last.Error == "" {
				t.Errorf("Expected recorded llm attempt, got %+v", last)
			}
		})
	}
}

func TestResolveSwallowsLookupErrors(t *testing.T) {
	lookup := &fakeLookup{
		errs: map[string]error{
			"pleural effusion": &HTTPStatusError{StatusCode: 502},
			"pleural":          errors.New("timeout"),
		},
		codes: map[string]entities.CodeResult{
			"effusion": {Code: "J90", Description: "Pleural effusion"},
		},
	}

	res := NewResolver(lookup).Resolve(context.Background(), "pleural effusion", nil)

	if res.Source != entities.SourceKeyword || res.Result.Code != "J90" {
		t.Fatalf("Expected keyword match after errors, got %+v", res)
	}
	if len(res.Attempts) != 3 || res.Attempts[0].Error == "" || res.Attempts[1].Error == "" {
		t.Errorf("Expected failed attempts to be recorded, got %+v", res.Attempts)
	}
}

func TestResolveEmptyName(t *testing.T) {
	lookup := &fakeLookup{}
	res := NewResolver(lookup).Resolve(context.Background(), "   ", nil)

	if res.Source != entities.SourceNone || len(lookup.queried) != 0 {
		t.Errorf("Blank names must not be looked up, got %+v queried=%v", res, lookup.queried)
	}
}

func TestParseModelAnswer(t *testing.T) {
	tests := []struct {
		answer string
		code   string
		desc   string
		ok     bool
	}{
		{"J18.9 | Pneumonia, unspecified", "J18.9", "Pneumonia, unspecified", true},
		{"J18.9|Pneumonia | extra", "J18.9", "Pneumonia | extra", true},
		{"n/a | n/a", "", "", false},
		{"| Pneumonia", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		result, err := parseModelAnswer(tt.answer)
		if tt.ok != (err == nil) {
			t.Errorf("parseModelAnswer(%q) error = %v, want ok=%v", tt.answer, err, tt.ok)
			continue
		}
		if result.Code != tt.code || result.Description != tt.desc {
			t.Errorf("parseModelAnswer(%q) = %+v", tt.answer, result)
		}
	}
}
