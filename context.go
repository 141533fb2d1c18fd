package authkit

import "context"

type clientIPContextKey struct{}
type userAgentContextKey struct{}
type returnURLContextKey struct{}

// WithClientIP attaches the shopper's IP address to ctx. The client copies
// it into audit events so sign-in activity can be traced per device.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx. Audit events
// carry it alongside the IP.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithReturnURL attaches the page the shopper should land on after an OAuth
// round trip. SignInWithOAuth persists it so HandleOAuthCallback can hand it
// back.
func WithReturnURL(ctx context.Context, returnURL string) context.Context {
	return context.WithValue(ctx, returnURLContextKey{}, returnURL)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}

func returnURLFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	returnURL, _ := ctx.Value(returnURLContextKey{}).(string)
	return returnURL
}
