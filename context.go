package authgate

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's origin address to ctx. The Engine uses
// it as the rate-limit client key and records it as last-login metadata on
// successful login. Requests without a client IP are not rate limited.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
