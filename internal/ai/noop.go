package ai

import (
	"context"
	"errors"
)

// errNoAI is returned by NoopProvider for all AI operations.
var errNoAI = errors.New("AI provider not configured — set ai.provider and an API key in ~/.prreview/config.json")

// NoopProvider is used when no AI provider is configured.
// IsAvailable always returns false; Review returns errNoAI.
// This allows callers to check IsAvailable() and degrade gracefully to
// scanner-only previews instead of crashing.
type NoopProvider struct{}

func (n *NoopProvider) Name() string                       { return "none" }
func (n *NoopProvider) IsAvailable(_ context.Context) bool { return false }

func (n *NoopProvider) Review(_ context.Context, _ string) (string, error) {
	return "", errNoAI
}
