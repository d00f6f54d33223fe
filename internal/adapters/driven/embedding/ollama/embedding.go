// Package ollama provides an embedding service backed by a local Ollama
// instance. Vectors are scaled to unit L2 length before they are returned,
// so inner product scores computed against them behave as cosine
// similarity.
package ollama

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
	// DefaultBaseURL is the default Ollama API endpoint.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is the default embedding model.
	DefaultModel = "all-minilm"

	// DefaultDimensions is the embedding dimension of the default model.
	DefaultDimensions = 384

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
)

// Config holds the configuration for the Ollama embedding service.
type Config struct {
	// BaseURL of the Ollama API. Defaults to DefaultBaseURL.
	BaseURL string

	// Model is the embedding model name. Defaults to DefaultModel.
	Model string

	// Timeout for HTTP requests. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Dimensions is the expected embedding dimension. Defaults to
	// DefaultDimensions. Responses with a different length are rejected.
	Dimensions int

	// RequestsPerSecond throttles calls to the backend. Zero or negative
	// means unthrottled.
	RequestsPerSecond float64
}

// Service implements driven.EmbeddingService using the Ollama API.
type Service struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
	limiter    *rate.Limiter
}

var _ driven.EmbeddingService = (*Service)(nil)

// New creates a new Ollama embedding service.
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
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed generates a unit-length embedding vector for the given text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrEmbedding)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %w", domain.ErrEmbedding, err)
		}
	}

	reqBody, err := json.Marshal(embedRequest{Model: s.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", domain.ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %w", domain.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", domain.ErrEmbedding, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var embResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrEmbedding, err)
	}

	if len(embResp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: ollama returned empty embedding", domain.ErrEmbedding)
	}
	if len(embResp.Embedding) != s.dimensions {
		return nil, fmt.Errorf("%w: model %q returned %d dimensions, expected %d",
			domain.ErrDimensionMismatch, s.model, len(embResp.Embedding), s.dimensions)
	}

	embedding := make([]float32, len(embResp.Embedding))
	for i, v := range embResp.Embedding {
		embedding[i] = float32(v)
	}
	if !normalise(embedding) {
		return nil, fmt.Errorf("%w: model %q returned a zero vector", domain.ErrEmbedding, s.model)
	}

	return embedding, nil
}

// EmbedBatch generates embeddings for multiple texts. Each text is embedded
// independently: a failed item leaves a nil entry in the result slice so
// callers can skip it. The returned error is non-nil only when no item
// succeeded.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, len(texts))
	var succeeded int
	var firstErr error

	for i, text := range texts {
		emb, err := s.Embed(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("embed text %d: %w", i, err)
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("embed text %d: %w", i, err)
			}
			continue
		}
		embeddings[i] = emb
		succeeded++
	}

	if succeeded == 0 {
		return nil, firstErr
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

// Ping checks whether the Ollama instance is reachable.
func (s *Service) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama is not reachable at %s: %w", s.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
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
