// Package icd10 resolves disease names to ICD-10 codes through a clinical
// tables style search API, with keyword and language model fallbacks.
package icd10

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/hireshawk-api/entities"
	"github.com/giygas/hireshawk-api/interfaces"
	"github.com/giygas/hireshawk-api/metrics"
	"golang.org/x/text/encoding/charmap"
)

// Compile-time checks
var (
	_ interfaces.CodeLookup = (*Client)(nil)
	_ interfaces.Prober     = (*Client)(nil)
)

const (
	// maxResponseBytes bounds how much of a search answer is read
	maxResponseBytes = 1 << 20
	probeTerm        = "pneumonia"
	searchFields     = "code,name"
)

// Client queries the coding API
type Client struct {
	baseURL    string
	maxList    int
	httpClient *http.Client
}

// NewClient creates a client with a fixed per-request timeout
func NewClient(baseURL string, maxList int, timeout time.Duration) *Client {
	if maxList < 1 {
		maxList = 1
	}
	return &Client{
		baseURL: baseURL,
		maxList: maxList,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Lookup searches the API for term and returns the first code.
// ErrNoMatch is returned when the API has no result for the term.
func (c *Client) Lookup(ctx context.Context, term string) (entities.CodeResult, error) {
	result, err := c.lookup(ctx, term)
	metrics.ICD10LookupTotal.WithLabelValues(lookupOutcome(err)).Inc()
	return result, err
}

func (c *Client) lookup(ctx context.Context, term string) (entities.CodeResult, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return entities.CodeResult{}, fmt.Errorf("invalid ICD-10 API URL: %w", err)
	}
	query := endpoint.Query()
	// Disease names must match the name field, not only the code
	if query.Get("sf") == "" {
		query.Set("sf", searchFields)
	}
	query.Set("terms", term)
	query.Set("maxList", strconv.Itoa(c.maxList))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return entities.CodeResult{}, fmt.Errorf("failed to build ICD-10 request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entities.CodeResult{}, fmt.Errorf("ICD-10 API request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return entities.CodeResult{}, &HTTPStatusError{URL: endpoint.String(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return entities.CodeResult{}, fmt.Errorf("failed to read ICD-10 response: %w", err)
	}

	return decodeSearchResponse(body)
}

// Probe checks that the API answers a known search
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.lookup(ctx, probeTerm)
	if errors.Is(err, ErrNoMatch) {
		return nil
	}
	return err
}

// Name identifies the client in dependency status reports
func (c *Client) Name() string {
	return "icd10_api"
}

// decodeSearchResponse reads [total, [codes...], extra, [display...]].
// The display entry for a code is either a string or a [code, name] list.
func decodeSearchResponse(body []byte) (entities.CodeResult, error) {
	// Some mirrors serve Latin-1 descriptions
	if !utf8.Valid(body) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
		if err != nil {
			return entities.CodeResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		body = decoded
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &parts); err != nil {
		return entities.CodeResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(parts) < 2 {
		return entities.CodeResult{}, fmt.Errorf("%w: expected at least 2 elements, got %d", ErrMalformedResponse, len(parts))
	}

	var total float64
	if err := json.Unmarshal(parts[0], &total); err != nil {
		return entities.CodeResult{}, fmt.Errorf("%w: total count: %v", ErrMalformedResponse, err)
	}

	var codes []string
	if !isNull(parts[1]) {
		if err := json.Unmarshal(parts[1], &codes); err != nil {
			return entities.CodeResult{}, fmt.Errorf("%w: code list: %v", ErrMalformedResponse, err)
		}
	}

	if total == 0 || len(codes) == 0 || strings.TrimSpace(codes[0]) == "" {
		return entities.CodeResult{}, ErrNoMatch
	}

	result := entities.CodeResult{Code: strings.TrimSpace(codes[0])}
	if len(parts) > 3 {
		result.Description = firstDescription(parts[3], result.Code)
	}

	return result, nil
}

// firstDescription extracts the description of the first display entry.
// A malformed display section is not fatal: the code alone is still a match.
func firstDescription(raw json.RawMessage, code string) string {
	var display []json.RawMessage
	if err := json.Unmarshal(raw, &display); err != nil || len(display) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(display[0], &text); err == nil {
		return strings.TrimSpace(text)
	}

	var fields []string
	if err := json.Unmarshal(display[0], &fields); err != nil || len(fields) == 0 {
		return ""
	}

	// [code, name]: prefer the name when the first field only repeats the code
	if len(fields) > 1 && strings.TrimSpace(fields[0]) == code {
		return strings.TrimSpace(fields[1])
	}
	return strings.TrimSpace(fields[0])
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func lookupOutcome(err error) string {
	var statusErr *HTTPStatusError
	switch {
	case err == nil:
		return metrics.OutcomeMatch
	case errors.Is(err, ErrNoMatch):
		return metrics.OutcomeNoMatch
	case errors.Is(err, ErrMalformedResponse):
		return metrics.OutcomeMalformed
	case errors.As(err, &statusErr):
		return metrics.OutcomeHTTPError
	default:
		return metrics.OutcomeTransport
	}
}
