package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
	"github.com/custodia-labs/localmind-core/internal/telemetry"
)

// Ensure LocalEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*LocalEmbedding)(nil)

// Defaults for the local embedding process
const (
	DefaultBaseURL    = "http://127.0.0.1:8000"
	DefaultModel      = "google/embeddinggemma-300M"
	DefaultDimensions = 768
)

// LocalEmbeddingConfig configures the local embedding client
type LocalEmbeddingConfig struct {
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
	Backoff    BackoffPolicy
	Logger     *slog.Logger

	// Sleep waits between retries; replaced in tests
	Sleep func(ctx context.Context, d time.Duration) error
}

// LocalEmbedding implements EmbeddingService against the local embedding
// process (POST /embed, GET /health). Requests that find the model still
// loading are retried with exponential backoff.
type LocalEmbedding struct {
	baseURL    string
	dimensions int
	backoff    BackoffPolicy
	client     *http.Client
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error

	mu    sync.RWMutex
	model string
}

// NewLocalEmbedding creates a new local embedding client
func NewLocalEmbedding(cfg LocalEmbeddingConfig) (*LocalEmbedding, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Dimensions < 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive", domain.ErrConfiguration)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Backoff.Base == 0 {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.Backoff.MaxRetries <= 0 {
		cfg.Backoff.MaxRetries = DefaultMaxRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}

	return &LocalEmbedding{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		backoff:    cfg.Backoff,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
		sleep:      cfg.Sleep,
	}, nil
}

// embedRequest is the request body of POST /embed
type embedRequest struct {
	Text string `json:"text"`
}

// embedResponse is the response of POST /embed
type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
}

// errorResponse is the error body of the embedding process
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// healthResponse is the response of GET /health
type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// errRetry marks an attempt that may be retried
type errRetry struct {
	loading bool
	err     error
}

func (e *errRetry) Error() string { return e.err.Error() }
func (e *errRetry) Unwrap() error { return e.err }

// Embed generates the L2-normalized embedding of text.
// A loading backend is retried with backoff; when the retry budget is spent
// the error wraps domain.ErrBackendUnavailable. A vector of the wrong size
// wraps domain.ErrConfiguration and is never retried.
func (e *LocalEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrValidation)
	}

	ctx, span := telemetry.StartSpan(ctx, "embedding.embed")
	start := time.Now()
	vec, err := e.embedWithRetry(ctx, text)
	telemetry.EmbedDuration.Observe(time.Since(start).Seconds())
	telemetry.EndSpan(span, err)
	return vec, err
}

func (e *LocalEmbedding) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	for attempt := 0; ; attempt++ {
		vec, err := e.embedOnce(ctx, text)
		if err == nil {
			return vec, nil
		}

		var retry *errRetry
		if !errors.As(err, &retry) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, ctx.Err())
		}
		if attempt+1 >= e.backoff.MaxRetries {
			if retry.loading {
				return nil, fmt.Errorf("%w: model still loading after %d attempts", domain.ErrBackendUnavailable, attempt+1)
			}
			return nil, fmt.Errorf("%w: %s unreachable after %d attempts: %v", domain.ErrBackendUnavailable, e.baseURL, attempt+1, retry.err)
		}

		delay := e.backoff.Delay(attempt)
		e.logger.Debug("embedding backend not ready, retrying",
			"attempt", attempt+1, "delay", delay, "loading", retry.loading)
		telemetry.EmbedRetries.Inc()

		if err := e.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
		}
	}
}

func (e *LocalEmbedding) embedOnce(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &errRetry{err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errRetry{err: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, &errRetry{loading: true, err: fmt.Errorf("model loading: %s", errorDetail(respBody))}
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: embedding backend rejected input: %s", domain.ErrValidation, errorDetail(respBody))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: embedding backend returned status %d: %s",
			domain.ErrBackendUnavailable, resp.StatusCode, errorDetail(respBody))
	}

	var embResp embedResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", domain.ErrBackendUnavailable, err)
	}

	if len(embResp.Embedding) != e.dimensions {
		e.logger.Error("embedding dimension mismatch",
			"expected", e.dimensions, "got", len(embResp.Embedding), "model", embResp.Model)
		return nil, fmt.Errorf("%w: expected %d dimensions, backend returned %d",
			domain.ErrConfiguration, e.dimensions, len(embResp.Embedding))
	}

	if embResp.Model != "" {
		e.mu.Lock()
		e.model = embResp.Model
		e.mu.Unlock()
	}

	if !Normalize(embResp.Embedding) {
		return nil, fmt.Errorf("%w: backend returned a zero vector", domain.ErrConfiguration)
	}
	return embResp.Embedding, nil
}

// Dimensions returns the embedding dimension size
func (e *LocalEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *LocalEmbedding) Model() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// HealthCheck verifies the embedding process is reachable and its model is loaded
func (e *LocalEmbedding) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("%w: failed to parse health response: %v", domain.ErrBackendUnavailable, err)
	}
	if !health.ModelLoaded {
		return fmt.Errorf("%w: model not loaded (status %q)", domain.ErrBackendUnavailable, health.Status)
	}
	return nil
}

// Close releases resources held by the embedding service
func (e *LocalEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// Normalize scales v to unit length in place. Returns false for a zero vector.
func Normalize(v []float32) bool {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return false
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return true
}

func errorDetail(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		if er.Detail != "" {
			return er.Detail
		}
		if er.Error != "" {
			return er.Error
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
