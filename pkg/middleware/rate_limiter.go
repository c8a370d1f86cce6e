package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"rateshop/internal/metrics"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter gives every client IP a token bucket holding limit requests
// that refills over window.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	idleTTL  time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := &RateLimiter{
		visitors: make(map[string]*visitor),
		every:    rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
		idleTTL:  window,
		logger:   logger,
		stop:     make(chan struct{}),
	}

	go limiter.cleanup(5 * time.Minute)

	return limiter
}

// Stop ends the cleanup goroutine.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *RateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.evictIdle(now)
		}
	}
}

// evictIdle drops buckets not used for a full window; they would be full again anyway.
func (r *RateLimiter) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ip, v := range r.visitors {
		if now.Sub(v.lastSeen) > r.idleTTL {
			delete(r.visitors, ip)
		}
	}
}

func (r *RateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	v, ok := r.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.every, r.burst)}
		r.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	r.mu.Unlock()

	return v.limiter.Allow()
}

func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip := clientIP(req)
		if !r.Allow(ip) {
			metrics.HTTPRateLimited.Inc()
			r.logger.Warn("rate limit exceeded", zap.String("ip", ip))
			WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later", nil)
			return
		}

		next.ServeHTTP(w, req)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
