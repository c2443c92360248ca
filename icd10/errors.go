package icd10

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch means the coding API answered but found nothing for the term
	ErrNoMatch = errors.New("no ICD-10 match")

	// ErrMalformedResponse means the payload was not the expected 4-element array
	ErrMalformedResponse = errors.New("malformed ICD-10 API response")
)

// HTTPStatusError is returned when the coding API answers with a non-2xx status
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("ICD-10 API returned HTTP %d", e.StatusCode)
}
