package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/nversa/docchat/internal/api"
	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/pkg/logging"
)

// IPRateLimiter keeps one token bucket per caller IP.
type IPRateLimiter struct {
	mu        sync.Mutex
	ips       map[string]*rate.Limiter
	rateLimit rate.Limit
	burstRate int
	logger    *logging.Logger
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:       make(map[string]*rate.Limiter),
		rateLimit: r,
		burstRate: b,
		logger:    logging.NewLogger("rate_limiter"),
	}
}

func DefaultIPRateLimiter() *IPRateLimiter {
	return NewIPRateLimiter(rate.Limit(config.RateLimitPerSecond), config.BurstRateLimitPerSecond)
}

func (l *IPRateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.ips[ip]
	if !ok {
		lim = rate.NewLimiter(l.rateLimit, l.burstRate)
		l.ips[ip] = lim
	}
	return lim
}

// Middleware rejects callers over their per-IP budget with 429.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.limiter(ip).Allow() {
			l.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(api.ErrorResponse{
				Code:    http.StatusTooManyRequests,
				Message: "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
