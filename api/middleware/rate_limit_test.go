package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/neointegra/neointegra-backend/pkg/config"
)

type fakeWindowStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeWindowStore() *fakeWindowStore {
	return &fakeWindowStore{counts: map[string]int64{}}
}

func (f *fakeWindowStore) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	count := f.counts[scope]
	return count <= limit, count, nil
}

func rateLimitConfig(limit int) config.RateLimitConfig {
	return config.RateLimitConfig{Window: time.Minute, UserLimit: limit}
}

func TestRateLimit_BlocksWritesOverLimit(t *testing.T) {
	store := newFakeWindowStore()
	handler := RateLimit(rateLimitConfig(2), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
		req = req.WithContext(WithUserID(req.Context(), "3f0c6d3e-5f4a-4f0b-9a59-0a2a42a9c001"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i < 2 && rec.Code != http.StatusCreated {
			t.Fatalf("expected success before limit, got %d", rec.Code)
		}
		if i >= 2 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 over limit, got %d", rec.Code)
		}
	}
}

func TestRateLimit_IgnoresReads(t *testing.T) {
	store := newFakeWindowStore()
	handler := RateLimit(rateLimitConfig(1), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req = req.WithContext(WithUserID(req.Context(), "3f0c6d3e-5f4a-4f0b-9a59-0a2a42a9c001"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected reads untouched, got %d", rec.Code)
		}
	}
	if len(store.counts) != 0 {
		t.Fatalf("expected no counters for reads, got %v", store.counts)
	}
}

func TestRateLimit_SkipsAnonymousRequests(t *testing.T) {
	store := newFakeWindowStore()
	handler := RateLimit(rateLimitConfig(1), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected passthrough without identity, got %d", rec.Code)
	}
	if len(store.counts) != 0 {
		t.Fatalf("expected no counters without identity, got %v", store.counts)
	}
}
