// Package llm talks to OpenAI-compatible chat-completion endpoints, hosted
// or local, and routes prompts to them by provider name.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 4 << 20

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// chatEndpoint is the part shared by every OpenAI-compatible backend
type chatEndpoint struct {
	provider    string
	url         string
	model       string
	temperature float64
	apiKey      string
	httpClient  *http.Client
}

func newChatEndpoint(provider, url, model, apiKey string, temperature float64, timeout time.Duration) chatEndpoint {
	return chatEndpoint{
		provider:    provider,
		url:         url,
		model:       model,
		temperature: temperature,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// complete sends a single user message and returns the first choice
func (c chatEndpoint) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling %s request: %w", c.provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", &ConfigError{Provider: c.provider, Reason: "invalid endpoint URL", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isConnectionRefused(err) {
			return "", &ConfigError{Provider: c.provider, Reason: "endpoint unreachable", Err: err}
		}
		return "", fmt.Errorf("%s request failed: %w", c.provider, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s response: %w", c.provider, err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &HTTPStatusError{Provider: c.provider, StatusCode: resp.StatusCode}
		if decodeErr == nil && parsed.Error != nil {
			statusErr.Message = parsed.Error.Message
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return "", &ConfigError{Provider: c.provider, Reason: "API key rejected", Err: statusErr}
		}
		return "", statusErr
	}

	if decodeErr != nil {
		return "", fmt.Errorf("parsing %s response: %w", c.provider, decodeErr)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s API error: %s", c.provider, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", c.provider, ErrEmptyResponse)
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// isConnectionRefused reports a dial failure, which means nothing serves the endpoint
func isConnectionRefused(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
