package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/giygas/hireshawk-api/config"
	"github.com/giygas/hireshawk-api/interfaces"
	"github.com/giygas/hireshawk-api/logging"
	"github.com/giygas/hireshawk-api/metrics"
)

var _ interfaces.LLMRouter = (*Router)(nil)

// Metric status labels
const (
	statusOK          = "ok"
	statusError       = "error"
	statusConfigError = "config_error"
)

// Router dispatches prompts to a backend by provider name
type Router struct {
	clients         map[string]interfaces.LLMClient
	defaultProvider string
}

// NewRouter checks that the default provider is one of clients
func NewRouter(defaultProvider string, clients map[string]interfaces.LLMClient) (*Router, error) {
	if len(clients) == 0 {
		return nil, errors.New("at least one LLM client is required")
	}
	defaultProvider = strings.ToLower(strings.TrimSpace(defaultProvider))
	if _, ok := clients[defaultProvider]; !ok {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownProvider, defaultProvider)
	}

	normalized := make(map[string]interfaces.LLMClient, len(clients))
	for name, client := range clients {
		normalized[strings.ToLower(name)] = client
	}

	return &Router{clients: normalized, defaultProvider: defaultProvider}, nil
}

// NewRouterFromConfig wires the hosted and local backends
func NewRouterFromConfig(cfg *config.Config) (*Router, error) {
	return NewRouter(cfg.LLMProvider, map[string]interfaces.LLMClient{
		config.ProviderOpenAI: NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.LLMTemperature, cfg.LLMTimeout),
		config.ProviderLocal:  NewLocalClient(cfg.LocalLLMURL, cfg.LocalLLMModel, cfg.LLMTemperature, cfg.LLMTimeout),
	})
}

// Call sends prompt to provider, or to the default provider when it is empty
func (r *Router) Call(ctx context.Context, prompt, provider string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(provider))
	if name == "" {
		name = r.defaultProvider
	}
	client, ok := r.clients[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	start := time.Now()
	out, err := client.Complete(ctx, prompt)
	elapsed := time.Since(start)

	metrics.LLMRequestDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	metrics.LLMRequestTotal.WithLabelValues(name, callStatus(err)).Inc()

	if err != nil {
		logging.Error("LLM call failed",
			"provider", name,
			"duration_ms", elapsed.Milliseconds(),
			"error", err)
		return "", err
	}

	logging.Debug("LLM call completed",
		"provider", name,
		"prompt_chars", len(prompt),
		"output_chars", len(out),
		"duration_ms", elapsed.Milliseconds())
	return out, nil
}

// Providers lists the configured provider names in sorted order
func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Probers returns the backends that can report their own reachability
func (r *Router) Probers() []interfaces.Prober {
	var probers []interfaces.Prober
	for _, name := range r.Providers() {
		if p, ok := r.clients[name].(interfaces.Prober); ok {
			probers = append(probers, p)
		}
	}
	return probers
}

func (r *Router) Default() string {
	return r.defaultProvider
}

// Fallback is the completion used by the code resolver's last step
func (r *Router) Fallback() interfaces.CompletionFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return r.Call(ctx, prompt, "")
	}
}

func callStatus(err error) string {
	var cfgErr *ConfigError
	switch {
	case err == nil:
		return statusOK
	case errors.As(err, &cfgErr):
		return statusConfigError
	default:
		return statusError
	}
}
