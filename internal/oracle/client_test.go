package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skataria/specfuse/internal/cache"
	"github.com/skataria/specfuse/internal/model"
	"github.com/skataria/specfuse/internal/worker"
)

// fakeProvider scripts a sequence of responses for one call site
type fakeProvider struct {
	calls     int
	failUntil int
	result    []Candidate
	err       error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeProvider) Extract(ctx context.Context, req Request) ([]Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.calls <= f.failUntil {
		return nil, errors.New("transient upstream error")
	}
	return f.result, nil
}

func testRequest() Request {
	return Request{
		Product:    "Diesel Generator",
		Source:     model.SourceSearchKeywords,
		RunID:      1,
		ChunkIndex: 0,
		Text:       "30 kva diesel generator",
	}
}

func TestClient_ExtractSuccess(t *testing.T) {
	provider := &fakeProvider{result: []Candidate{{Attribute: "Capacity", Value: "30 KVA"}}}
	client := NewClient(provider, worker.NewLimiter(0, 1))

	candidates, err := client.Extract(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Attribute != "Capacity" {
		t.Errorf("candidates = %v", candidates)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	provider := &fakeProvider{
		failUntil: 2,
		result:    []Candidate{{Attribute: "Fuel", Value: "Diesel"}},
	}
	client := NewClient(provider, worker.NewLimiter(0, 1),
		WithRetries(2, time.Millisecond))

	candidates, err := client.Extract(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Extract() should succeed on third attempt: %v", err)
	}
	if len(candidates) != 1 {
		t.Errorf("candidates = %v", candidates)
	}
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want 3", provider.calls)
	}
}

func TestClient_ExhaustsRetries(t *testing.T) {
	provider := &fakeProvider{err: errors.New("permanent failure")}
	client := NewClient(provider, worker.NewLimiter(0, 1),
		WithRetries(2, time.Millisecond))

	_, err := client.Extract(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want 3 (1 + 2 retries)", provider.calls)
	}
	if !errors.Is(err, provider.err) {
		t.Errorf("error should wrap the last provider error: %v", err)
	}
}

func TestClient_CancelledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	cancelling := providerFunc(func(c context.Context, req Request) ([]Candidate, error) {
		calls++
		cancel()
		return nil, errors.New("upstream error")
	})

	client := NewClient(cancelling, worker.NewLimiter(0, 1),
		WithRetries(5, time.Millisecond))

	_, err := client.Extract(ctx, testRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("provider called %d times after cancel, want 1", calls)
	}
}

// providerFunc adapts a function to the Provider interface
type providerFunc func(ctx context.Context, req Request) ([]Candidate, error)

func (f providerFunc) Name() string                         { return "func" }
func (f providerFunc) IsAvailable(ctx context.Context) bool { return true }
func (f providerFunc) Extract(ctx context.Context, req Request) ([]Candidate, error) {
	return f(ctx, req)
}

func TestClient_CacheHitSkipsProvider(t *testing.T) {
	provider := &fakeProvider{result: []Candidate{{Attribute: "Phase", Value: "Three Phase"}}}
	client := NewClient(provider, worker.NewLimiter(0, 1),
		WithCache(cache.NewMemoryCache(time.Minute, time.Minute), time.Minute))

	req := testRequest()
	if _, err := client.Extract(context.Background(), req); err != nil {
		t.Fatalf("first Extract() error: %v", err)
	}
	candidates, err := client.Extract(context.Background(), req)
	if err != nil {
		t.Fatalf("second Extract() error: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1 (second call cached)", provider.calls)
	}
	if len(candidates) != 1 || candidates[0].Value != "Three Phase" {
		t.Errorf("cached candidates = %v", candidates)
	}
}

func TestClient_CacheKeyIgnoresRunID(t *testing.T) {
	provider := &fakeProvider{result: []Candidate{{Attribute: "Capacity", Value: "30kva"}}}
	client := NewClient(provider, worker.NewLimiter(0, 1),
		WithCache(cache.NewMemoryCache(time.Minute, time.Minute), time.Minute))

	req := testRequest()
	if _, err := client.Extract(context.Background(), req); err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	req.RunID = 2
	if _, err := client.Extract(context.Background(), req); err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1 (same chunk across runs shares the key)", provider.calls)
	}
}

func TestKey_Deterministic(t *testing.T) {
	a := cache.Key("openai", "Diesel Generator", "search_keywords", "0", "text")
	b := cache.Key("openai", "Diesel Generator", "search_keywords", "0", "text")
	if a != b {
		t.Errorf("same parts produced different keys: %q vs %q", a, b)
	}

	c := cache.Key("openai", "Diesel Generator", "search_keywords", "1", "text")
	if a == c {
		t.Error("different chunk index should change the key")
	}
}
