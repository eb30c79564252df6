package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/auth"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
)

// RateLimit defines limits for an endpoint prefix.
type RateLimit struct {
	Prefix   string // "METHOD /path" prefix
	Requests int
	Window   time.Duration
	KeyFunc  func(r *http.Request) string
}

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	Whitelist        []string // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled bool     // Enable auto-blocking after repeated violations
}

const (
	violationThreshold = 10
	autoBlockDuration  = 24 * time.Hour
)

// RateLimiter implements Redis-backed windowed rate limiting. A limiter
// without a Redis client lets every request through.
type RateLimiter struct {
	client           *redis.Client
	tokens           *auth.TokenService
	limits           []RateLimit
	blocker          *IPBlocker
	logger           zerolog.Logger
	whitelist        []netip.Prefix
	autoBlockEnabled bool
}

// NewRateLimiter creates a new rate limiter. tokens lets authenticated
// endpoints be limited per user instead of per IP.
func NewRateLimiter(client *redis.Client, tokens *auth.TokenService, logger zerolog.Logger, cfg RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		client:           client,
		tokens:           tokens,
		blocker:          NewIPBlocker(client),
		logger:           logger.With().Str("component", "ratelimit").Logger(),
		whitelist:        parseWhitelist(cfg.Whitelist, logger),
		autoBlockEnabled: cfg.AutoBlockEnabled,
	}
	rl.limits = []RateLimit{
		{"POST /register", 10, time.Hour, ipKey},
		{"POST /login", 20, time.Minute, ipKey},
		{"POST /auth/google", 20, time.Minute, ipKey},
		{"POST /forgot-password", 5, time.Hour, ipKey},
		{"POST /reset-password/", 10, time.Hour, ipKey},
		{"POST /resend-verification", 5, time.Hour, ipKey},
		{"POST /verify-email", 20, time.Hour, ipKey},
		{"POST /api/messages/send", 60, time.Minute, rl.userKey},
		{"POST /apply-job", 30, time.Hour, rl.userKey},
		{"POST /users/", 20, time.Hour, rl.userKey},
		{"POST /resume/parse", 20, time.Hour, rl.userKey},
		{"GET /recommendations", 30, time.Minute, rl.userKey},
		{"POST /generate-application", 20, time.Hour, rl.userKey},
		{"GET /jobs", 120, time.Minute, ipKey},
	}

	return rl
}

// parseWhitelist turns IPs and CIDRs into prefixes, skipping invalid entries.
func parseWhitelist(entries []string, logger zerolog.Logger) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		var (
			prefix netip.Prefix
			err    error
		)
		if strings.Contains(entry, "/") {
			prefix, err = netip.ParsePrefix(entry)
		} else {
			var addr netip.Addr
			addr, err = netip.ParseAddr(entry)
			prefix = netip.PrefixFrom(addr, addr.BitLen())
		}
		if err != nil {
			logger.Warn().Str("entry", entry).Err(err).Msg("invalid rate limit whitelist entry")
			continue
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	if len(prefixes) > 0 {
		logger.Info().Int("entries", len(prefixes)).Msg("rate limit whitelist configured")
	}
	return prefixes
}

func (rl *RateLimiter) isWhitelisted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range rl.whitelist {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func ipKey(r *http.Request) string {
	return "ratelimit:ip:" + RealIP(r)
}

// userKey keys on the token's user when it validates, otherwise on the IP.
func (rl *RateLimiter) userKey(r *http.Request) string {
	if rl.tokens != nil {
		if raw := tokenFromRequest(r); raw != "" {
			if claims, err := rl.tokens.Validate(raw); err == nil {
				return "ratelimit:user:" + claims.UserID.String()
			}
		}
	}
	return ipKey(r)
}

// RealIP extracts the client IP from proxy headers or the connection.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// CheckAndIncrement records a hit against key and reports whether it is
// within limit, with the remaining allowance and the window reset time.
func (rl *RateLimiter) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Time) {
	now := time.Now()
	windowStart := now.Add(-window)
	bucket := now.Unix() / int64(window.Seconds())
	windowKey := fmt.Sprintf("%s:%d", key, bucket)

	pipe := rl.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, windowKey, "-inf", strconv.FormatInt(windowStart.UnixMilli(), 10))
	countCmd := pipe.ZCard(ctx, windowKey)
	pipe.ZAdd(ctx, windowKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, windowKey, window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open when Redis is unavailable.
		rl.logger.Warn().Err(err).Str("key", key).Msg("rate limit check failed")
		return true, limit, now.Add(window)
	}

	count := int(countCmd.Val())
	remaining := max(limit-count-1, 0)
	resetAt := time.Unix((bucket+1)*int64(window.Seconds()), 0)

	return count < limit, remaining, resetAt
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl.client == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := RealIP(r)

		if rl.isWhitelisted(ip) {
			next.ServeHTTP(w, r)
			return
		}

		if rl.blocker.IsBlocked(r.Context(), ip) {
			metrics.BlockedRequests.WithLabelValues("ip_blocked").Inc()
			rl.logger.Warn().
				Str("event", "blocked_request").
				Str("ip", ip).
				Str("endpoint", r.URL.Path).
				Msg("blocked IP attempted request")
			jsonError(w, http.StatusForbidden, "Temporarily blocked")
			return
		}

		limit := rl.findLimit(r)
		if limit == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := limit.KeyFunc(r)
		allowed, remaining, resetAt := rl.CheckAndIncrement(r.Context(), key, limit.Requests, limit.Window)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(max(int(time.Until(resetAt).Seconds()), 1)))
			metrics.RateLimitHits.WithLabelValues(limit.Prefix).Inc()
			rl.trackViolation(r.Context(), ip)

			rl.logger.Warn().
				Str("event", "rate_limit_exceeded").
				Str("ip", ip).
				Str("endpoint", r.URL.Path).
				Str("key", key).
				Msg("rate limit exceeded")

			jsonError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// findLimit returns the first limit whose prefix matches the request.
func (rl *RateLimiter) findLimit(r *http.Request) *RateLimit {
	key := r.Method + " " + r.URL.Path
	for i := range rl.limits {
		if strings.HasPrefix(key, rl.limits[i].Prefix) {
			return &rl.limits[i]
		}
	}
	return nil
}

// trackViolation counts limit violations per IP and blocks repeat offenders.
func (rl *RateLimiter) trackViolation(ctx context.Context, ip string) {
	if !rl.autoBlockEnabled {
		return
	}

	key := "violations:ip:" + ip
	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return
	}
	rl.client.Expire(ctx, key, time.Hour)

	if count >= violationThreshold {
		rl.blocker.Block(ctx, ip, autoBlockDuration, "repeated rate limit violations")
		rl.logger.Warn().
			Str("event", "ip_auto_blocked").
			Str("ip", ip).
			Int64("violations", count).
			Msg("IP auto-blocked for repeated violations")
	}
}

// IPBlocker manages temporary IP blocks.
type IPBlocker struct {
	client *redis.Client
}

// NewIPBlocker creates a new IP blocker.
func NewIPBlocker(client *redis.Client) *IPBlocker {
	return &IPBlocker{client: client}
}

func blockKey(ip string) string {
	return "blocked:ip:" + ip
}

// IsBlocked checks if an IP is blocked.
func (b *IPBlocker) IsBlocked(ctx context.Context, ip string) bool {
	exists, _ := b.client.Exists(ctx, blockKey(ip)).Result()
	return exists > 0
}

// Block blocks an IP for the specified duration.
func (b *IPBlocker) Block(ctx context.Context, ip string, duration time.Duration, reason string) {
	b.client.Set(ctx, blockKey(ip), reason, duration)
}

// Unblock removes an IP block.
func (b *IPBlocker) Unblock(ctx context.Context, ip string) {
	b.client.Del(ctx, blockKey(ip))
}
