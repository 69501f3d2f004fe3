// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/canonical/workspace-service/internal/logging"
)

const limiterCleanupInterval = 5 * time.Minute

type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
	TrustProxyHeaders bool
}

// RateLimiter throttles requests per client IP with a token bucket per key.
type RateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	cfg      RateLimitConfig

	mu          sync.Mutex
	lastCleanup time.Time
	now         func() time.Time

	logger logging.LoggerInterface
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.clientIP(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			limiter := rl.limiter(key)
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			reservation := limiter.Reserve()
			delay := reservation.Delay()
			reservation.Cancel()

			retryAfter := max(int(delay.Seconds()), 1)

			rl.logger.Warnf("rate limit exceeded for %s on %s", key, r.URL.Path)

			w.Header().Set("Retry-After", fmt.Sprint(retryAfter))
			w.Header().Set("X-RateLimit-Limit", fmt.Sprint(rl.cfg.RequestsPerMinute))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  http.StatusTooManyRequests,
				"message": "Too many requests. Please try again later.",
			})
		})
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}

	l, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	rl.cleanup()

	return l.(*rate.Limiter)
}

// cleanup drops limiters whose bucket has refilled, at most once per interval.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) < limiterCleanupInterval {
		return
	}
	rl.lastCleanup = now

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).TokensAt(now) >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) clientIP(r *http.Request) string {
	if rl.cfg.TrustProxyHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

func NewRateLimiter(cfg RateLimitConfig, logger logging.LoggerInterface) *RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	rl := new(RateLimiter)

	rl.cfg = cfg
	rl.rate = rate.Limit(float64(cfg.RequestsPerMinute) / time.Minute.Seconds())
	rl.burst = cfg.Burst
	rl.now = time.Now
	rl.lastCleanup = rl.now()
	rl.logger = logger

	return rl
}
