package ai

import (
	"context"
	"log/slog"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
)

// Provider abstracts calls to a language model.
// To add a new provider:
//  1. Create a file in internal/ai/ (e.g. mymodel.go)
//  2. Implement Provider
//  3. Register in newSingle()
type Provider interface {
	// Name returns the provider identifier (e.g. "anthropic", "ollama").
	Name() string

	// IsAvailable verifies the provider is reachable and configured.
	IsAvailable(ctx context.Context) bool

	// Review sends an assembled review prompt and returns the model's raw
	// response. The response is expected to be a JSON review verdict but is
	// returned as-is; parsing and recovery live in the verdict package.
	Review(ctx context.Context, prompt string) (string, error)
}

// reviewSystemPrompt frames every provider call; the assembled prompt itself
// carries the per-category instructions and response format.
const reviewSystemPrompt = "You are an expert code reviewer performing a thorough pull request review."

// New returns the configured Provider.
// If no provider or API key is set, it returns a NoopProvider — callers should
// check IsAvailable() before reviewing.
// If fallback providers are configured, returns a ChainProvider that tries
// them in order on failure with circuit breaker protection.
func New(cfg config.AIConfig) (Provider, error) {
	primary, err := newSingle(cfg.Provider, cfg)
	if err != nil {
		return nil, err
	}

	if len(cfg.Fallback) == 0 {
		return primary, nil
	}

	chain := []Provider{primary}
	for _, fallbackProvider := range cfg.Fallback {
		p, err := newSingle(fallbackProvider, cfg)
		if err != nil {
			slog.Warn("ai: failed to create fallback provider, skipping", "provider", fallbackProvider, "error", err)
			continue
		}
		chain = append(chain, p)
	}

	if len(chain) == 1 {
		return primary, nil
	}

	return NewChain(chain), nil
}
