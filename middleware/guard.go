package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/cartsmith/authkit"
)

type sessionContextKey struct{}

// SessionFromContext returns the session a guard injected for the current
// request. ok is false on handlers that no guard wraps.
func SessionFromContext(ctx context.Context) (*authkit.SessionInfo, bool) {
	info, ok := ctx.Value(sessionContextKey{}).(*authkit.SessionInfo)
	return info, ok
}

// guard resolves the shopper's session once and either injects it into the
// request context or hands the request to the anonymous handler.
func guard(client *authkit.Client, anonymous http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil {
				anonymous.ServeHTTP(w, r)
				return
			}

			ctx := requestContext(r)

			info, ok := client.GetCurrentSession(ctx)
			if !ok {
				anonymous.ServeHTTP(w, r)
				return
			}

			ctx = context.WithValue(ctx, sessionContextKey{}, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestContext decorates the request context with the shopper's IP and
// user agent so audit events emitted downstream carry them.
func requestContext(r *http.Request) context.Context {
	ctx := r.Context()

	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if ip != "" {
		ctx = authkit.WithClientIP(ctx, ip)
	}
	if ua := r.UserAgent(); ua != "" {
		ctx = authkit.WithUserAgent(ctx, ua)
	}
	return ctx
}
