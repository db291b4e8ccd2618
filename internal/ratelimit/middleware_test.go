package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func send(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/statements", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := Handler{
		Limiter: RedisLimiter{Client: client, Prefix: "ratelimit:"},
		Rate:    Rate{Window: time.Minute, Limit: 1},
		Key:     func(*http.Request) string { return "static" },
	}.Middleware(okHandler)

	first := send(h, "10.0.0.1:1")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := send(h, "10.0.0.1:1")
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "1", second.Header().Get("X-RateLimit-Limit"))
	require.NotEmpty(t, second.Header().Get("Retry-After"))

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	require.Equal(t, "RATE_LIMITED", body.Error.Code)
}

func TestMiddlewareFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	var seen error
	h := Handler{
		Limiter: RedisLimiter{Client: client},
		Rate:    Rate{Window: time.Second, Limit: 1},
		Key:     func(*http.Request) string { return "err" },
		OnError: func(err error) { seen = err },
	}.Middleware(okHandler)

	rr := send(h, "10.0.0.1:1")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Error(t, seen)
	require.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestMemoryLimiterPerClientIP(t *testing.T) {
	h := Handler{
		Limiter: NewMemoryLimiter(),
		Rate:    Rate{Window: time.Minute, Limit: 2},
		Key:     ByClientIP,
	}.Middleware(okHandler)

	require.Equal(t, http.StatusOK, send(h, "10.0.0.1:5000").Code)
	require.Equal(t, http.StatusOK, send(h, "10.0.0.1:5001").Code)
	require.Equal(t, http.StatusTooManyRequests, send(h, "10.0.0.1:5002").Code)
	require.Equal(t, http.StatusOK, send(h, "10.0.0.2:5000").Code)
}

func TestMiddlewareDisabled(t *testing.T) {
	cases := map[string]Handler{
		"zero limit":  {Limiter: NewMemoryLimiter(), Rate: Rate{Window: time.Minute}, Key: ByClientIP},
		"zero window": {Limiter: NewMemoryLimiter(), Rate: Rate{Limit: 1}, Key: ByClientIP},
		"no limiter":  {Rate: Rate{Window: time.Minute, Limit: 1}, Key: ByClientIP},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			h := handler.Middleware(okHandler)
			for i := 0; i < 3; i++ {
				rr := send(h, "10.0.0.1:1")
				require.Equal(t, http.StatusOK, rr.Code)
				require.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
			}
		})
	}
}
