package services

import (
	"fmt"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driven"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStorageDataDir  = "storage.data_dir"
	keyCorpusDir       = "corpus.dir"
	keyChunkSize       = "chunker.chunk_size"
	keyChunkOverlap    = "chunker.overlap"
	keyBoundaryWindow  = "chunker.boundary_window"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"
	keyEmbedRPS        = "embedding.requests_per_second"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			DataDir: s.configStore.GetString(keyStorageDataDir), // No default - empty means the per-user data dir
		},
		Corpus: domain.CorpusSettings{
			Dir: s.getString(keyCorpusDir, defaults.Corpus.Dir),
		},
		Chunker: domain.ChunkerSettings{
			ChunkSize:      s.getInt(keyChunkSize, defaults.Chunker.ChunkSize),
			Overlap:        s.getInt(keyChunkOverlap, defaults.Chunker.Overlap),
			BoundaryWindow: s.getInt(keyBoundaryWindow, defaults.Chunker.BoundaryWindow),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - adapters carry their own
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.getInt(keyEmbedDimensions, defaults.Embedding.Dimensions),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save storage settings
	if err := s.configStore.Set(keyStorageDataDir, settings.Storage.DataDir); err != nil {
		return fmt.Errorf("save storage data_dir: %w", err)
	}

	// Save corpus settings
	if err := s.configStore.Set(keyCorpusDir, settings.Corpus.Dir); err != nil {
		return fmt.Errorf("save corpus dir: %w", err)
	}

	// Save chunker settings
	if err := s.configStore.Set(keyChunkSize, settings.Chunker.ChunkSize); err != nil {
		return fmt.Errorf("save chunk size: %w", err)
	}
	if err := s.configStore.Set(keyChunkOverlap, settings.Chunker.Overlap); err != nil {
		return fmt.Errorf("save chunk overlap: %w", err)
	}
	if err := s.configStore.Set(keyBoundaryWindow, settings.Chunker.BoundaryWindow); err != nil {
		return fmt.Errorf("save boundary window: %w", err)
	}

	// Save embedding settings
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if err := s.configStore.Set(keyEmbedDimensions, settings.Embedding.Dimensions); err != nil {
		return fmt.Errorf("save embedding dimensions: %w", err)
	}
	if err := s.configStore.Set(keyEmbedRPS, settings.Embedding.RequestsPerSecond); err != nil {
		return fmt.Errorf("save embedding requests_per_second: %w", err)
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.EmbeddingProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		defaults := domain.DefaultEmbeddingModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.Embedding.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.Embedding.BaseURL = ""
	}

	// Set API key
	settings.Embedding.APIKey = apiKey

	// Local models emit their native vector size, so track it. The
	// OpenAI v3 models shorten server-side to whatever dimensions are
	// configured, so switching to a cloud provider keeps the current
	// value and index blobs stay interchangeable.
	if provider.IsLocal() {
		dims := domain.EmbeddingDimensions()
		if d, ok := dims[settings.Embedding.Model]; ok {
			settings.Embedding.Dimensions = d
		}
	}

	return s.Save(settings)
}

// Validate checks that current settings can drive an index rebuild.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.Provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", settings.Embedding.Provider)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %s requires an API key", settings.Embedding.Provider)
	}
	if settings.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", settings.Embedding.Dimensions)
	}
	if settings.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", settings.Chunker.ChunkSize)
	}
	if settings.Chunker.Overlap < 0 || settings.Chunker.Overlap >= settings.Chunker.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be non-negative and smaller than chunk size %d",
			settings.Chunker.Overlap, settings.Chunker.ChunkSize)
	}
	if settings.Corpus.Dir == "" {
		return fmt.Errorf("corpus dir is not set")
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt reads an int by presence so an explicit zero (for example a
// zero chunk overlap) is not mistaken for an unset key.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.EmbeddingProvider) domain.EmbeddingProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.EmbeddingProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
