package site_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"medharvest/internal/adapters/site"
	"medharvest/internal/domain"
)

func TestClient_Fetch_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_, _ = w.Write([]byte("<html><body>ok</body></html>"))
		}
	}))
	defer ts.Close()

	cl := site.NewClient(100, "test-agent") // high RPS for tests
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	body, err := cl.Fetch(ctx, ts.URL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if body == "" {
		t.Fatal("expected body")
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Fetch_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl := site.NewClient(100, "test-agent")
	_, err := cl.Fetch(context.Background(), ts.URL)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_Fetch_403Blocked(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	cl := site.NewClient(100, "test-agent")
	_, err := cl.Fetch(context.Background(), ts.URL)
	if !errors.Is(err, domain.ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestClient_Fetch_HonorsRetryAfter(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	cl := site.NewClient(100, "test-agent")
	start := time.Now()
	if _, err := cl.Fetch(context.Background(), ts.URL); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Fatalf("expected Retry-After wait, finished in %v", elapsed)
	}
}

func TestClient_Fetch_SendsUserAgent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("user-agent = %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	cl := site.NewClient(100, "test-agent")
	if _, err := cl.Fetch(context.Background(), ts.URL); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}
