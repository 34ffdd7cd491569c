package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newLimitedRouter(t *testing.T, mr *miniredis.Miniredis, limit int) http.Handler {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := RateLimitMiddleware(client, RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		KeyPrefix:         "test_rate_limit",
	}, zap.NewNop())

	r := chi.NewRouter()
	r.With(limiter).Post("/api/product-forms/{id}/submit", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	return r
}

func TestProperty_RateLimitingBlocksExcessiveSubmits(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("submits beyond the limit get 429", prop.ForAll(
		func(limit int, excess int) bool {
			mr := miniredis.RunT(t)
			router := newLimitedRouter(t, mr, limit)

			passed, blocked := 0, 0
			for i := 0; i < limit+excess; i++ {
				// different form ids share one route pattern
				req := httptest.NewRequest("POST", "/api/product-forms/"+string(rune('a'+i%26))+"/submit", nil)
				req.RemoteAddr = "192.168.1.100"
				w := httptest.NewRecorder()
				router.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusCreated:
					passed++
				case http.StatusTooManyRequests:
					blocked++
					if w.Header().Get("Retry-After") == "" {
						return false
					}
				}
			}
			return passed == limit && blocked == excess
		},
		gen.IntRange(1, 15),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimitWindowResets(t *testing.T) {
	mr := miniredis.RunT(t)
	router := newLimitedRouter(t, mr, 1)

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/product-forms/x/submit", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	if w := send("10.0.0.1"); w.Code != http.StatusCreated || w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("first request: status %d remaining %q", w.Code, w.Header().Get("X-RateLimit-Remaining"))
	}
	if w := send("10.0.0.1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status %d, want 429", w.Code)
	}
	if w := send("10.0.0.2"); w.Code != http.StatusCreated {
		t.Fatalf("other client: status %d, want 201", w.Code)
	}

	mr.FastForward(time.Minute + time.Second)

	if w := send("10.0.0.1"); w.Code != http.StatusCreated {
		t.Fatalf("after window: status %d, want 201", w.Code)
	}
}

func TestRateLimitCounterAlwaysHasWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	router := newLimitedRouter(t, mr, 5)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/product-forms/x/submit", nil)
		req.RemoteAddr = "10.0.0.9"
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("keys = %v, want one counter", keys)
	}
	if got, _ := mr.Get(keys[0]); got != "3" {
		t.Fatalf("counter = %q, want 3", got)
	}
	if ttl := mr.TTL(keys[0]); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("counter ttl = %v, want within the window", ttl)
	}
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	router := newLimitedRouter(t, mr, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/product-forms/x/submit", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("request %d: status %d, want 201", i, w.Code)
		}
	}
}
