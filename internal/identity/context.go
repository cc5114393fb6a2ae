package identity

import "context"

type resolutionContextKey struct{}

// ContextWithResolution stores the request resolution in context.
func ContextWithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, resolutionContextKey{}, res)
}

// ResolutionFromContext extracts the resolution. Requests that never went
// through the middleware are Unresolved.
func ResolutionFromContext(ctx context.Context) Resolution {
	res, ok := ctx.Value(resolutionContextKey{}).(Resolution)
	if !ok {
		return Unresolved()
	}
	return res
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	return ResolutionFromContext(ctx).Current()
}
