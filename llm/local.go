package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/giygas/hireshawk-api/config"
	"github.com/giygas/hireshawk-api/interfaces"
)

var (
	_ interfaces.LLMClient = (*LocalClient)(nil)
	_ interfaces.Prober    = (*LocalClient)(nil)
)

// LocalClient calls a self-hosted OpenAI-compatible endpoint.
// The URL is the full chat-completions address.
type LocalClient struct {
	endpoint chatEndpoint
}

func NewLocalClient(url, model string, temperature float64, timeout time.Duration) *LocalClient {
	return &LocalClient{
		endpoint: newChatEndpoint(config.ProviderLocal, url, model, "", temperature, timeout),
	}
}

// Complete sends prompt as a single user message
func (c *LocalClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.endpoint.url == "" {
		return "", &ConfigError{Provider: config.ProviderLocal, Reason: "LOCAL_LLM_URL is not set"}
	}
	return c.endpoint.complete(ctx, prompt)
}

func (c *LocalClient) Name() string {
	return "local_llm"
}

// Probe checks that something answers on the endpoint. Any HTTP status counts,
// since chat endpoints usually reject a bare GET.
func (c *LocalClient) Probe(ctx context.Context) error {
	if c.endpoint.url == "" {
		return &ConfigError{Provider: config.ProviderLocal, Reason: "LOCAL_LLM_URL is not set"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.url, nil)
	if err != nil {
		return &ConfigError{Provider: config.ProviderLocal, Reason: "invalid endpoint URL", Err: err}
	}

	resp, err := c.endpoint.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("local LLM endpoint unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &HTTPStatusError{Provider: config.ProviderLocal, StatusCode: resp.StatusCode}
	}
	return nil
}
