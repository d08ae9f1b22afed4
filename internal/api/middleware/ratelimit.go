// SPDX-License-Identifier: MIT

package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ManuGH/dronesim/internal/log"
)

// RateLimitConfig configures per-client request budgets.
type RateLimitConfig struct {
	RequestLimit int
	WindowSize   time.Duration
	// KeyFunc identifies the client; nil limits by remote IP.
	KeyFunc httprate.KeyFunc
}

type limitedBody struct {
	Error     string `json:"error"`
	Detail    string `json:"detail"`
	RequestID string `json:"requestId,omitempty"`
}

// RateLimit returns a sliding-window limiter. Rejected requests get a JSON
// 429 in the API error shape and a Retry-After of one window.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	retryAfter := strconv.Itoa(max(1, int(cfg.WindowSize.Seconds())))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(limitedBody{
				Error:     "rate_limited",
				Detail:    "request budget exhausted, retry later",
				RequestID: log.RequestIDFromContext(r.Context()),
			})
		}),
	)
}

// DynamicRateLimit is RateLimit with a budget that can be replaced while
// serving. Changing the budget starts a fresh window for every client.
type DynamicRateLimit struct {
	cfg     RateLimitConfig
	current atomic.Pointer[limiter]
}

type limiter struct {
	limit int
	wrap  func(http.Handler) http.Handler
}

// NewDynamicRateLimit starts with cfg.RequestLimit; a budget <= 0 lets every
// request through.
func NewDynamicRateLimit(cfg RateLimitConfig) *DynamicRateLimit {
	d := &DynamicRateLimit{cfg: cfg}
	d.SetLimit(cfg.RequestLimit)
	return d
}

// SetLimit replaces the request budget. It reports whether the budget changed.
func (d *DynamicRateLimit) SetLimit(n int) bool {
	n = max(n, 0)
	if cur := d.current.Load(); cur != nil && cur.limit == n {
		return false
	}
	l := &limiter{limit: n}
	if n > 0 {
		cfg := d.cfg
		cfg.RequestLimit = n
		l.wrap = RateLimit(cfg)
	}
	d.current.Store(l)
	return true
}

// Limit returns the active budget, 0 when unlimited.
func (d *DynamicRateLimit) Limit() int {
	return d.current.Load().limit
}

// Handler is the middleware form.
func (d *DynamicRateLimit) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := d.current.Load()
		if l.wrap == nil {
			next.ServeHTTP(w, r)
			return
		}
		l.wrap(next).ServeHTTP(w, r)
	})
}
