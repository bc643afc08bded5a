package xroute

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the RateLimit middleware and the Throttle
// endpoint option.
type RateLimitConfig struct {
	Rate            float64                                      // requests per second
	Burst           int                                          // max burst
	KeyFunc         func(r *http.Request) string                 // default: remote IP
	OnLimit         func(w http.ResponseWriter, r *http.Request) // default: 429 response (RateLimit only)
	CleanupInterval time.Duration                                // how often to prune idle limiters (default: 1m)
	MaxIdle         time.Duration                                // remove limiters idle longer than this (default: 5m)
}

// RateLimit returns host middleware that applies per-key rate limiting to
// every request.
func RateLimit(cfg RateLimitConfig) HTTPMiddleware {
	if cfg.OnLimit == nil {
		cfg.OnLimit = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}
	set := newLimiterSet(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !set.allow(r) {
				w.Header().Set("Retry-After", set.retryAfter())
				cfg.OnLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Throttle applies per-key rate limiting to one endpoint. Limited requests
// fail with a 429 HTTPError through the endpoint's error handler, and the
// 429 response is documented.
func Throttle(cfg RateLimitConfig) Option {
	set := newLimiterSet(cfg)
	mw := func(r *Request) error {
		if set.allow(r.Request) {
			return nil
		}
		return Error(http.StatusTooManyRequests, "rate limit exceeded, retry after "+set.retryAfter()+"s")
	}
	return WithMiddleware(mw, WithErrors(http.StatusTooManyRequests))
}

// limiterSet holds one token bucket per key and prunes idle ones lazily.
type limiterSet struct {
	cfg RateLimitConfig

	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = remoteIP
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.MaxIdle <= 0 {
		cfg.MaxIdle = 5 * time.Minute
	}
	return &limiterSet{
		cfg:      cfg,
		limiters: make(map[string]*limiterEntry),
	}
}

func (s *limiterSet) allow(r *http.Request) bool {
	key := s.cfg.KeyFunc(r)

	s.mu.Lock()
	now := time.Now()

	if now.Sub(s.lastCleanup) >= s.cfg.CleanupInterval {
		for k, e := range s.limiters {
			if now.Sub(e.lastSeen) > s.cfg.MaxIdle {
				delete(s.limiters, k)
			}
		}
		s.lastCleanup = now
	}

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(s.cfg.Rate), s.cfg.Burst),
		}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	s.mu.Unlock()

	return entry.limiter.Allow()
}

func (s *limiterSet) retryAfter() string {
	if s.cfg.Rate <= 0 {
		return "1"
	}
	secs := 1 / s.cfg.Rate
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatFloat(secs, 'f', 0, 64)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
