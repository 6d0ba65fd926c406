package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// RetryPolicy lists how long to wait before each retry. Attempts = len(waits)+1 for each error class,
// bounded by MaxAttempts.
type RetryPolicy struct {
	MaxAttempts      int
	RateLimitWaits   []time.Duration
	ServerErrorWaits []time.Duration
}

// DefaultRetryPolicy waits out a full rate-limit window before retrying.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:      3,
	RateLimitWaits:   []time.Duration{65 * time.Second, 100 * time.Second, 135 * time.Second},
	ServerErrorWaits: []time.Duration{5 * time.Second, 30 * time.Second, 60 * time.Second},
}

// CallWithRetry runs call until it succeeds, fails with a non-retryable error, or attempts run out.
// Waits are cut short by ctx.
func CallWithRetry[T any](ctx context.Context, policy RetryPolicy, call func(context.Context) (T, error)) (T, error) {
	var zero T
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		resp, err := call(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var waits []time.Duration
		switch {
		case isRateLimitError(err):
			waits = policy.RateLimitWaits
		case isServerError(err):
			waits = policy.ServerErrorWaits
		default:
			return zero, err
		}
		if attempt >= policy.MaxAttempts-1 || attempt >= len(waits) {
			break
		}

		t := time.NewTimer(waits[attempt])
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
	}
	return zero, fmt.Errorf("failed after %d attempts due to OpenAI API issues: %w", policy.MaxAttempts, lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusInternalServerError {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

const (
	DefaultEmbeddingModel      = string(openai.EmbeddingModelTextEmbedding3Small)
	DefaultEmbeddingDimensions = 768
)

// EmbedderConfig configures NewOpenAIEmbedder.
type EmbedderConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint (OpenAI-compatible servers).
	BaseURL    string
	Model      string
	Dimensions int
	Retry      RetryPolicy
}

// OpenAIEmbedder calls the embeddings endpoint. It implements chathistory.Embedder.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
	retry      RetryPolicy
}

func NewOpenAIEmbedder(cfg EmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("NewOpenAIEmbedder: API key is empty")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if cfg.Dimensions < 0 {
		return nil, fmt.Errorf("NewOpenAIEmbedder: dimensions must be >= 0 (got %d)", cfg.Dimensions)
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultEmbeddingDimensions
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIEmbedder{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		retry:      cfg.Retry,
	}, nil
}

// Embed returns one vector per text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	params := openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: openai.Int(int64(e.dimensions)),
	}
	resp, err := CallWithRetry(ctx, e.retry, func(ctx context.Context) (*openai.CreateEmbeddingResponse, error) {
		return e.client.Embeddings.New(ctx, params)
	})
	if err != nil {
		return nil, fmt.Errorf("Embed: %w", err)
	}
	return Vectors(resp.Data, len(texts))
}

// Vectors orders embedding data by index and narrows it to float32.
func Vectors(data []openai.Embedding, n int) ([][]float32, error) {
	out := make([][]float32, n)
	for _, d := range data {
		if d.Index < 0 || int(d.Index) >= n {
			return nil, fmt.Errorf("embedding index %d out of range [0,%d)", d.Index, n)
		}
		v := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			v[i] = float32(f)
		}
		out[d.Index] = v
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return out, nil
}
