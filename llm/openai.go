package llm

import (
	"context"
	"strings"
	"time"

	"github.com/giygas/hireshawk-api/config"
	"github.com/giygas/hireshawk-api/interfaces"
)

var _ interfaces.LLMClient = (*OpenAIClient)(nil)

// OpenAIClient calls the hosted chat-completions API
type OpenAIClient struct {
	endpoint chatEndpoint
}

// NewOpenAIClient builds a client for baseURL + /chat/completions.
// A missing key is only reported when the client is used.
func NewOpenAIClient(baseURL, apiKey, model string, temperature float64, timeout time.Duration) *OpenAIClient {
	url := strings.TrimRight(baseURL, "/") + "/chat/completions"
	return &OpenAIClient{
		endpoint: newChatEndpoint(config.ProviderOpenAI, url, model, apiKey, temperature, timeout),
	}
}

// Complete sends prompt as a single user message
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.endpoint.apiKey == "" {
		return "", &ConfigError{Provider: config.ProviderOpenAI, Reason: "OPENAI_API_KEY is not set"}
	}
	return c.endpoint.complete(ctx, prompt)
}
