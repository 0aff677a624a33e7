package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/soyeahso/frontdesk/internal/config"
	"github.com/soyeahso/frontdesk/internal/logging"
)

// Registry manages LLM provider clients and resolves model references to clients.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]Client // provider name → client
	aliases  map[string]string // model alias → provider name
	fallback string            // default provider name
	log      *logging.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		clients: make(map[string]Client),
		aliases: make(map[string]string),
		log:     log.Sub("llm.registry"),
	}
}

// Register adds a client under the given provider name.
func (r *Registry) Register(name string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	r.log.Info().Str("provider", name).Msg("registered LLM provider")
}

// Alias maps a model name/alias to a provider.
// e.g., Alias("haiku", "claude") means "haiku" resolves to the "claude" provider.
func (r *Registry) Alias(model, provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[model] = provider
}

// SetFallback sets the default provider used when no model/provider match is found.
func (r *Registry) SetFallback(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = provider
}

// Resolve returns the Client for the given model reference.
// Resolution order: exact provider name → alias → fallback.
func (r *Registry) Resolve(model string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.clients[model]; ok {
		return c, nil
	}

	if provider, ok := r.aliases[model]; ok {
		if c, ok := r.clients[provider]; ok {
			return c, nil
		}
	}

	if r.fallback != "" {
		if c, ok := r.clients[r.fallback]; ok {
			return c, nil
		}
	}

	return nil, fmt.Errorf("no LLM provider for model %q", model)
}

// Default returns the fallback client, or nil when none is registered.
func (r *Registry) Default() Client {
	c, err := r.Resolve("")
	if err != nil {
		return nil
	}
	return c
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for n := range r.clients {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewRegistryFromConfig registers the provider selected by cfg.Kind.
// Kind "none" (or a provider missing its credentials) yields an empty
// registry, and the receptionist runs on rules alone.
func NewRegistryFromConfig(cfg config.ProviderConfig, log *logging.Logger) *Registry {
	reg := NewRegistry(log)
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))

	switch kind {
	case "claude":
		if cfg.APIKey == "" {
			reg.log.Warn().Msg("claude provider configured without an API key; LLM disabled")
			return reg
		}
		model := cfg.Model
		if model == "" {
			model = "claude-3-5-haiku-latest"
		}
		reg.Register("claude", NewClaudeAPIClient(cfg.APIKey, model, cfg.Endpoint, cfg.Timeout()))
		for _, alias := range []string{"haiku", "sonnet", "claude-haiku", "claude-sonnet"} {
			reg.Alias(alias, "claude")
		}

	case "openai":
		if cfg.APIKey == "" {
			reg.log.Warn().Msg("openai provider configured without an API key; LLM disabled")
			return reg
		}
		reg.Register("openai", NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.Endpoint, cfg.Timeout()))
		for _, alias := range []string{"gpt-4o", "gpt-4o-mini"} {
			reg.Alias(alias, "openai")
		}

	case "ollama":
		model := cfg.Model
		if model == "" {
			model = "llama3"
		}
		reg.Register("ollama", NewOllamaAPIClient(cfg.Endpoint, model, cfg.Timeout()))
		for _, alias := range []string{"llama", "llama3", "mistral"} {
			reg.Alias(alias, "ollama")
		}

	default:
		return reg
	}

	reg.SetFallback(kind)
	return reg
}
