// Package openai provides an embedding service backed by the OpenAI
// embeddings API. Vectors are scaled to unit L2 length before they are
// returned, matching the contract of the Ollama adapter.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the default OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the default embedding model.
	DefaultModel = "text-embedding-3-small"

	// DefaultDimensions is the dimension requested from the API. The v3
	// embedding models support shortening, so this matches the local
	// default and keeps index blobs interchangeable between providers.
	DefaultDimensions = 384

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
)

// Config holds the configuration for the OpenAI embedding service.
type Config struct {
	// APIKey authenticates requests. Required.
	APIKey string

	// BaseURL of the API. Defaults to DefaultBaseURL. Override for
	// API-compatible providers.
	BaseURL string

	// Model is the embedding model name. Defaults to DefaultModel.
	Model string

	// Timeout for HTTP requests. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Dimensions is the embedding dimension requested from the API.
	// Defaults to DefaultDimensions.
	Dimensions int

	// RequestsPerSecond throttles calls to the backend. Zero or negative
	// means unthrottled.
	RequestsPerSecond float64
}

// Service implements driven.EmbeddingService using the OpenAI API.
type Service struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
	limiter    *rate.Limiter
}

var _ driven.EmbeddingService = (*Service)(nil)

// New creates a new OpenAI embedding service.
func New(cfg Config) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Service{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
	}
}

type embedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Embed generates a unit-length embedding vector for the given text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrEmbedding)
	}

	embeddings, err := s.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in a single API call.
// Empty texts leave a nil entry in the result slice so callers can skip
// them. The returned error is non-nil only when no item succeeded.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	inputs := make([]string, 0, len(texts))
	positions := make([]int, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		inputs = append(inputs, text)
		positions = append(positions, i)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: all texts empty", domain.ErrEmbedding)
	}

	fetched, err := s.request(ctx, inputs)
	if err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(texts))
	for i, emb := range fetched {
		embeddings[positions[i]] = emb
	}
	return embeddings, nil
}

// request submits inputs to the embeddings endpoint and returns vectors in
// input order, each scaled to unit length.
func (s *Service) request(ctx context.Context, inputs []string) ([][]float32, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: API key is not configured", domain.ErrEmbedding)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %w", domain.ErrEmbedding, err)
		}
	}

	reqBody, err := json.Marshal(embedRequest{
		Input:      inputs,
		Model:      s.model,
		Dimensions: s.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", domain.ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %w", domain.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("%w: openai returned status %d: %s", domain.ErrEmbedding, resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("%w: openai returned status %d", domain.ErrEmbedding, resp.StatusCode)
	}

	var embResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrEmbedding, err)
	}
	if len(embResp.Data) != len(inputs) {
		return nil, fmt.Errorf("%w: openai returned %d embeddings for %d inputs", domain.ErrEmbedding, len(embResp.Data), len(inputs))
	}

	// The API documents no ordering guarantee, so place by index.
	embeddings := make([][]float32, len(inputs))
	for _, item := range embResp.Data {
		if item.Index < 0 || item.Index >= len(inputs) {
			return nil, fmt.Errorf("%w: openai returned out-of-range index %d", domain.ErrEmbedding, item.Index)
		}
		if len(item.Embedding) != s.dimensions {
			return nil, fmt.Errorf("%w: model %q returned %d dimensions, expected %d",
				domain.ErrDimensionMismatch, s.model, len(item.Embedding), s.dimensions)
		}
		embedding := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			embedding[i] = float32(v)
		}
		if !normalise(embedding) {
			return nil, fmt.Errorf("%w: model %q returned a zero vector", domain.ErrEmbedding, s.model)
		}
		embeddings[item.Index] = embedding
	}
	for i, emb := range embeddings {
		if emb == nil {
			return nil, fmt.Errorf("%w: openai returned no embedding for input %d", domain.ErrEmbedding, i)
		}
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension this service is configured for.
func (s *Service) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model.
func (s *Service) ModelName() string {
	return s.model
}

// Ping verifies the API key by requesting a minimal embedding.
func (s *Service) Ping(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("API key is not configured")
	}
	if _, err := s.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("openai is not reachable: %w", err)
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// normalise scales v to unit L2 length in place. It reports false when v is
// a zero vector, which cannot be scaled.
func normalise(v []float32) bool {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return false
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return true
}
