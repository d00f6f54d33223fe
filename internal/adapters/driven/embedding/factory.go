// Package embedding provides factory functions for creating embedding
// service adapters from settings.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/samtett/IEP-Goal-Generator/internal/adapters/driven/embedding/ollama"
	"github.com/samtett/IEP-Goal-Generator/internal/adapters/driven/embedding/openai"
	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for provider connectivity validation.
const pingTimeout = 5 * time.Second

// New creates the appropriate embedding service based on settings.
func New(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding settings missing", domain.ErrEmbedding)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrEmbedding, settings.Provider)
	}

	switch settings.Provider {
	case domain.EmbeddingProviderOllama:
		return newOllama(settings), nil

	case domain.EmbeddingProviderOpenAI:
		return newOpenAI(settings), nil

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q",
			domain.ErrEmbedding, settings.Provider)
	}
}

// NewValidated creates an embedding service and verifies connectivity.
// The service is closed again if the provider is unreachable.
func NewValidated(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := New(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close() //nolint:errcheck
		return nil, fmt.Errorf("%w: provider unreachable: %w", domain.ErrEmbedding, err)
	}

	return svc, nil
}

// ValidateConfig checks an embedding configuration by creating a service
// and pinging it. Intended for configuration commands that verify
// credentials before an index rebuild.
func ValidateConfig(settings *domain.EmbeddingSettings) error {
	svc, err := NewValidated(settings)
	if err != nil {
		return err
	}
	svc.Close() //nolint:errcheck
	return nil
}

// newOllama creates an Ollama embedding service.
func newOllama(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ollama.New(ollama.Config{
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Dimensions:        settings.Dimensions,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
}

// newOpenAI creates an OpenAI embedding service.
func newOpenAI(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return openai.New(openai.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Dimensions:        settings.Dimensions,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
}
