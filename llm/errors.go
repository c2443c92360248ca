package llm

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider is returned when a request names a provider the router does not know
var ErrUnknownProvider = errors.New("unknown LLM provider")

// ErrEmptyResponse is returned when the endpoint answered without any choice
var ErrEmptyResponse = errors.New("LLM response has no choices")

// ConfigError means a provider cannot be used as configured:
// a missing API key, an unset endpoint or an endpoint nobody listens on.
type ConfigError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider misconfigured: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s provider misconfigured: %s", e.Provider, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is returned when a chat endpoint answers with a non-2xx status
type HTTPStatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s returned HTTP %d", e.Provider, e.StatusCode)
}
