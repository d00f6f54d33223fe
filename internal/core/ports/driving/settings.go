package driving

import "github.com/samtett/IEP-Goal-Generator/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.EmbeddingProvider, model, apiKey string) error

	// Validate checks that current settings can drive a rebuild.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
