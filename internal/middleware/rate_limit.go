package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/BradenHooton/examhub/internal/auth"
	"github.com/BradenHooton/examhub/internal/config"
	pkghttp "github.com/BradenHooton/examhub/pkg/http"
	"github.com/go-chi/httprate"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitByIP creates a middleware that rate limits requests by client IP
func RateLimitByIP(requestsPerMinute int, ipCfg *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, ipCfg), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Rate limit exceeded")
		}),
	)
}

// UserRateLimiter limits an authenticated caller across all API instances through redis.
// Without redis, or when redis errors, an in-process token bucket per key is used instead.
type UserRateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	limit    redis_rate.Limit
	failOpen bool
	prefix   string
	logger   *slog.Logger
}

// NewSubmitRateLimiter limits profile update submissions per user. rdb may be nil.
func NewSubmitRateLimiter(rdb *redis.Client, cfg config.RateLimitConfig, logger *slog.Logger) *UserRateLimiter {
	rl := &UserRateLimiter{
		fallback: newLocalLimiter(),
		limit: redis_rate.Limit{
			Rate:   cfg.SubmitRate,
			Burst:  cfg.SubmitBurst,
			Period: cfg.SubmitPeriod,
		},
		failOpen: cfg.FailOpen,
		prefix:   "ratelimit:submit:user:",
		logger:   logger,
	}
	if rl.limit.Burst < 1 {
		rl.limit.Burst = 1
	}
	if rdb != nil {
		rl.limiter = redis_rate.NewLimiter(rdb)
	}
	return rl
}

func (rl *UserRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := auth.GetUserFromContext(r)
		if claims == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.prefix + claims.UserID
		res, err := rl.allow(r.Context(), key)
		if err != nil {
			if rl.failOpen {
				rl.logger.Warn("rate limiter error, failing open",
					slog.String("error", err.Error()),
					slog.String("key", key),
				)
				next.ServeHTTP(w, r)
				return
			}
			pkghttp.WriteError(w, http.StatusServiceUnavailable, "unavailable", "Service unavailable")
			return
		}

		setRateLimitHeaders(w, res, rl.limit)

		if res.Allowed == 0 {
			retryAfter := int(res.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			pkghttp.WriteTooManyRequests(w, fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *UserRateLimiter) allow(ctx context.Context, key string) (*redis_rate.Result, error) {
	if rl.limiter == nil {
		return rl.fallback.allow(key, rl.limit)
	}
	res, err := rl.limiter.Allow(ctx, key, rl.limit)
	if err != nil {
		rl.logger.Warn("redis rate limiter unavailable, using local limiter", slog.String("error", err.Error()))
		return rl.fallback.allow(key, rl.limit)
	}
	return res, nil
}

func setRateLimitHeaders(w http.ResponseWriter, res *redis_rate.Result, limit redis_rate.Limit) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, int(limit.Period.Seconds())))
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// localLimiter keeps one token bucket per key. Idle entries are pruned on access.
type localLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastPrune time.Time
	now       func() time.Time
}

const (
	pruneInterval = 5 * time.Minute
	entryTTL      = 2 * time.Hour
)

func newLocalLimiter() *localLimiter {
	return &localLimiter{
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return nil, fmt.Errorf("invalid rate limit %d per %s", limit.Rate, limit.Period)
	}
	ratePerSec := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / ratePerSec)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > pruneInterval {
		for k, e := range l.entries {
			if now.Sub(e.lastAccess) > entryTTL {
				delete(l.entries, k)
			}
		}
		l.lastPrune = now
	}

	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(ratePerSec), limit.Burst)}
		l.entries[key] = entry
	}
	entry.lastAccess = now

	res := &redis_rate.Result{Limit: limit, ResetAfter: interval, RetryAfter: -1}
	if entry.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	if remaining := int(entry.limiter.TokensAt(now)); remaining > 0 {
		res.Remaining = remaining
	}

	return res, nil
}
