package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-theater/internal/common"
)

const defaultProbeTimeout = 300 * time.Millisecond

// Probe reports whether one dependency is usable.
type Probe func(ctx context.Context) error

// RedisProbe pings client.
func RedisProbe(client redis.UniversalClient) Probe {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// Handler serves liveness and readiness endpoints.
type Handler struct {
	// Probes are keyed by dependency name. Optional dependencies that are
	// not configured are simply absent.
	Probes  map[string]Probe
	Timeout time.Duration
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Live reports that the process is serving requests.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe and answers 503 when any of them fails.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	names := make([]string, 0, len(h.Probes))
	for name := range h.Probes {
		names = append(names, name)
	}
	sort.Strings(names)

	body := readiness{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		err := h.Probes[name](ctx)
		cancel()
		if err != nil {
			body.Status = "unavailable"
			body.Checks[name] = err.Error()
			continue
		}
		body.Checks[name] = "ok"
	}

	status := http.StatusOK
	if body.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	common.JSON(w, status, body)
}
