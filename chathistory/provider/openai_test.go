package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openai/openai-go"
)

var fastPolicy = RetryPolicy{
	MaxAttempts:      3,
	RateLimitWaits:   []time.Duration{time.Millisecond, time.Millisecond},
	ServerErrorWaits: []time.Duration{time.Millisecond, time.Millisecond},
}

func TestCallWithRetry_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := CallWithRetry(context.Background(), fastPolicy, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("POST /embeddings: 429 Too Many Requests")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("CallWithRetry: %v", err)
	}
	if got != 42 || calls != 3 {
		t.Fatalf("got=%d calls=%d, want 42 and 3", got, calls)
	}
}

func TestCallWithRetry_GivesUp(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := CallWithRetry(context.Background(), fastPolicy, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("500 internal server error")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 3 {
		t.Fatalf("calls=%d, want 3", calls)
	}
}

func TestCallWithRetry_NoRetryOnClientError(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := CallWithRetry(context.Background(), fastPolicy, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("400 bad request: invalid model")
	})
	if err == nil || calls != 1 {
		t.Fatalf("err=%v calls=%d, want error after 1 call", err, calls)
	}
}

func TestCallWithRetry_ContextCancelledDuringWait(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 3, RateLimitWaits: []time.Duration{time.Hour}}
	_, err := CallWithRetry(ctx, policy, func(context.Context) (int, error) {
		cancel()
		return 0, errors.New("rate limit exceeded")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

func TestVectors_OrdersByIndex(t *testing.T) {
	t.Parallel()

	data := []openai.Embedding{
		{Index: 1, Embedding: []float64{0.5, -1}},
		{Index: 0, Embedding: []float64{0.25}},
	}
	got, err := Vectors(data, 2)
	if err != nil {
		t.Fatalf("Vectors: %v", err)
	}
	if len(got[0]) != 1 || got[0][0] != 0.25 {
		t.Fatalf("got[0]=%v, want [0.25]", got[0])
	}
	if len(got[1]) != 2 || got[1][1] != -1 {
		t.Fatalf("got[1]=%v, want [0.5 -1]", got[1])
	}

	if _, err := Vectors(data[:1], 2); err == nil {
		t.Fatalf("expected error for missing embedding")
	}
	if _, err := Vectors([]openai.Embedding{{Index: 5}}, 2); err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
}

func TestNewOpenAIEmbedder_Validates(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAIEmbedder(EmbedderConfig{}); err == nil {
		t.Fatalf("expected error for empty API key")
	}
	e, err := NewOpenAIEmbedder(EmbedderConfig{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder: %v", err)
	}
	if e.model != DefaultEmbeddingModel || e.dimensions != DefaultEmbeddingDimensions {
		t.Fatalf("model=%q dims=%d, want defaults", e.model, e.dimensions)
	}
}
