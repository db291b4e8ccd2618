package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/backend-theater/internal/common"
)

// Rate is a budget of Limit events per Window.
type Rate struct {
	Window time.Duration
	Limit  int
}

// Disabled reports whether r places no bound on traffic.
func (r Rate) Disabled() bool { return r.Limit <= 0 || r.Window <= 0 }

// Decision is the outcome of counting one event.
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Allower counts one event for key and decides whether it fits rate.
type Allower interface {
	Allow(ctx context.Context, key string, rate Rate) (Decision, error)
}

func unlimited(rate Rate, now time.Time) Decision {
	return Decision{Allowed: true, Remaining: rate.Limit, Reset: now.Add(rate.Window)}
}

// ByClientIP keys requests by the caller's address.
func ByClientIP(r *http.Request) string {
	return "ip:" + common.ClientIP(r)
}

// Handler rejects requests over Rate with 429 RATE_LIMITED.
type Handler struct {
	Limiter Allower
	Rate    Rate
	Key     func(*http.Request) string
	// OnError observes limiter failures. Requests are let through when the
	// limiter cannot answer.
	OnError func(error)
}

// Middleware wraps next with the limit. It is a pass-through when the
// handler has no limiter, no key function or a disabled rate.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil || h.Key == nil || h.Rate.Disabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := h.Limiter.Allow(r.Context(), h.Key(r), h.Rate)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		hdr := w.Header()
		hdr.Set("X-RateLimit-Limit", strconv.Itoa(h.Rate.Limit))
		hdr.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		hdr.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
		if d.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		wait := max(int(time.Until(d.Reset).Round(time.Second)/time.Second), 0)
		hdr.Set("Retry-After", strconv.Itoa(wait))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", map[string]any{
			"retryAfterSeconds": wait,
		})
	})
}
