package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/giygas/hireshawk-api/entities"
)

const extractionPromptTemplate = "Extract all positive diseases mentioned in the following radiology report. " +
	"List them as a Python list of disease names, no explanations.\n\n"

// BuildPrompt returns the default extraction prompt for report
func BuildPrompt(report string) string {
	return extractionPromptTemplate + report
}

type span struct {
	start, end int
	position   int
}

func (s span) overlaps(start, end int) bool {
	return start < s.end && s.start < end
}

// Annotate marks the first occurrence of each finding in report as
// **[n] text**. All spans are located in the input text before anything is
// rendered, so a marker never matches inside another one. An exact match is
// preferred, a case-insensitive one is used otherwise. Findings that cannot be
// placed are left out of the text.
func Annotate(report string, findings []entities.ResolvedFinding) string {
	spans := make([]span, 0, len(findings))

	for _, f := range findings {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}

		start, end, ok := findExact(report, name, spans)
		if !ok {
			start, end, ok = findFold(report, name, spans)
		}
		if ok {
			spans = append(spans, span{start: start, end: end, position: f.Position})
		}
	}

	if len(spans) == 0 {
		return report
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	b.Grow(len(report) + len(spans)*10)
	prev := 0
	for _, s := range spans {
		b.WriteString(report[prev:s.start])
		fmt.Fprintf(&b, "**[%d] %s**", s.position, report[s.start:s.end])
		prev = s.end
	}
	b.WriteString(report[prev:])
	return b.String()
}

func findExact(report, name string, taken []span) (int, int, bool) {
	offset := 0
	for offset <= len(report)-len(name) {
		idx := strings.Index(report[offset:], name)
		if idx < 0 {
			return 0, 0, false
		}
		start := offset + idx
		end := start + len(name)
		if free(taken, start, end) {
			return start, end, true
		}
		offset = start + 1
	}
	return 0, 0, false
}

func findFold(report, name string, taken []span) (int, int, bool) {
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(name))
	if err != nil {
		return 0, 0, false
	}
	for _, loc := range re.FindAllStringIndex(report, -1) {
		if free(taken, loc[0], loc[1]) {
			return loc[0], loc[1], true
		}
	}
	return 0, 0, false
}

func free(taken []span, start, end int) bool {
	for _, s := range taken {
		if s.overlaps(start, end) {
			return false
		}
	}
	return true
}

// Rows converts findings to display rows in position order
func Rows(findings []entities.ResolvedFinding) []entities.ResultRow {
	rows := make([]entities.ResultRow, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, f.Row())
	}
	return rows
}
