package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/mortgage-calculator/internal/config"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Idle clients are forgotten after limiterTTL.
const (
	limiterTTL     = 10 * time.Minute
	limiterCleanup = time.Minute
)

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			h.logger.Info("handled request",
				zap.String("op", "server.logRequests"),
				zap.String("requestId", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// clientLimiter hands out one token bucket per client address.
type clientLimiter struct {
	mu         sync.Mutex
	limiters   *gocache.Cache
	limit      rate.Limit
	burst      int
	retryAfter int
}

func newClientLimiter(cfg config.RateLimitConfig) *clientLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(cfg.RequestsPerSecond)))
	}
	retryAfter := int(math.Ceil(1 / cfg.RequestsPerSecond))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return &clientLimiter{
		limiters:   gocache.New(limiterTTL, limiterCleanup),
		limit:      rate.Limit(cfg.RequestsPerSecond),
		burst:      burst,
		retryAfter: retryAfter,
	}
}

func (l *clientLimiter) get(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.limiters.Get(client); ok {
		limiter := v.(*rate.Limiter)
		l.limiters.SetDefault(client, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters.SetDefault(client, limiter)
	return limiter
}

func (l *clientLimiter) allow(client string) bool {
	return l.get(client).Allow()
}

func (h *handler) rateLimit(l *clientLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientKey(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter))
				h.respondErrorWithOp(w, http.StatusTooManyRequests, "rate limit exceeded", "server.rateLimit")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey is the client host. RealIP has already replaced RemoteAddr
// when a forwarding header is present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
