// Package validation checks user supplied fields of the report analysis API.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/giygas/hireshawk-api/interfaces"
)

const (
	MaxPromptLength      = 60000
	MaxDiseaseNameLength = 200
	DefaultHistoryLimit  = 20
	MaxHistoryLimit      = 200
)

// ErrInvalidInput is wrapped by every validation failure
var ErrInvalidInput = errors.New("invalid input")

var (
	// Disease names: letters of any script, digits, spaces and the punctuation
	// found in clinical terms ("non-ST elevation", "C5/C6", "Crohn's", "type 2")
	diseaseNameRegex = regexp.MustCompile(`^[\p{L}\p{M}0-9\s\-.,'()/+:]+$`)

	// Checked as lower-case substrings; names end up in outbound queries and prompts
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"eval(", "expression(", "${", "$(", "../", "..\\", "%2e%2e", "file://",
	}
)

// InputValidatorImpl implements the interfaces.InputValidator interface
type InputValidatorImpl struct {
	maxReportLength int
}

// NewInputValidator creates a validator accepting reports up to maxReportLength characters
func NewInputValidator(maxReportLength int) interfaces.InputValidator {
	return &InputValidatorImpl{maxReportLength: maxReportLength}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ValidateReport checks that the report holds text within the length limit
func (v *InputValidatorImpl) ValidateReport(report string) error {
	if strings.TrimSpace(report) == "" {
		return invalid("report cannot be empty")
	}
	if !utf8.ValidString(report) {
		return invalid("report is not valid UTF-8 text")
	}
	if n := utf8.RuneCountInString(report); v.maxReportLength > 0 && n > v.maxReportLength {
		return invalid("report too long: %d characters, maximum %d", n, v.maxReportLength)
	}
	if hasControlCharacters(report) {
		return invalid("report contains control characters")
	}
	return nil
}

// ValidatePrompt accepts an empty prompt, which selects the default one
func (v *InputValidatorImpl) ValidatePrompt(prompt string) error {
	if prompt == "" {
		return nil
	}
	if !utf8.ValidString(prompt) {
		return invalid("prompt is not valid UTF-8 text")
	}
	if n := utf8.RuneCountInString(prompt); n > MaxPromptLength {
		return invalid("prompt too long: %d characters, maximum %d", n, MaxPromptLength)
	}
	if hasControlCharacters(prompt) {
		return invalid("prompt contains control characters")
	}
	return nil
}

// ValidateProvider accepts an empty provider, which selects the default one
func (v *InputValidatorImpl) ValidateProvider(provider string, known []string) error {
	name := strings.ToLower(strings.TrimSpace(provider))
	if name == "" {
		return nil
	}
	for _, k := range known {
		if name == k {
			return nil
		}
	}
	return invalid("unknown provider %q, expected one of: %s", provider, strings.Join(known, ", "))
}

// ValidateDiseaseName checks a single name before it is sent to the coding API
func (v *InputValidatorImpl) ValidateDiseaseName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return invalid("disease name cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxDiseaseNameLength {
		return invalid("disease name too long: maximum %d characters", MaxDiseaseNameLength)
	}

	lower := strings.ToLower(trimmed)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return invalid("disease name contains potentially dangerous content")
		}
	}

	if !diseaseNameRegex.MatchString(trimmed) {
		return invalid("disease name contains invalid characters")
	}
	if hasExcessiveRepetition(trimmed) {
		return invalid("disease name contains excessive character repetition")
	}
	return nil
}

// ValidateHistoryLimit parses the limit query parameter.
// An empty value returns DefaultHistoryLimit.
func (v *InputValidatorImpl) ValidateHistoryLimit(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultHistoryLimit, nil
	}

	limit, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, invalid("limit must be a number")
	}
	if limit < 1 || limit > MaxHistoryLimit {
		return 0, invalid("limit must be between 1 and %d", MaxHistoryLimit)
	}
	return limit, nil
}

// hasControlCharacters reports control characters other than tab and line breaks
func hasControlCharacters(s string) bool {
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// hasExcessiveRepetition checks for the same character repeated more than 10 times
func hasExcessiveRepetition(input string) bool {
	run := 1
	var prev rune
	for i, r := range input {
		if i > 0 && r == prev {
			run++
			if run > 10 {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}
