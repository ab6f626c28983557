package api

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// rateLimitAuth is a huma operation middleware that limits the public auth
// endpoints per client IP. RealIP has already rewritten RemoteAddr.
func (s *Server) rateLimitAuth(ctx huma.Context, next func(huma.Context)) {
	key := clientIP(ctx.RemoteAddr())

	if !s.authRateLimiter.Allow(key) {
		retryAfter := s.authRateLimiter.RetryAfter(key)
		s.logger.Warn("rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
			"retry_after", retryAfter,
		)

		ctx.SetHeader("Retry-After", strconv.Itoa(max(1, int(math.Ceil(retryAfter.Seconds())))))
		//nolint:errcheck // the response is already committed
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many requests, try again later")
		return
	}

	next(ctx)
}

// clientIP strips the port from a RemoteAddr.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
