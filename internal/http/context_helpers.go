package httpx

import (
	"context"

	domainauth "github.com/target/secretshare/internal/domain/auth"
)

// identityKey is an unexported context key type to avoid collisions across packages.
type identityKey struct{}

// SetIdentityInContext returns a child context that carries the authenticated identity.
// If ident is nil, the original ctx is returned unchanged.
func SetIdentityInContext(ctx context.Context, ident *domainauth.Identity) context.Context {
	if ident == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, ident)
}

// GetIdentityFromContext returns the authenticated identity and a boolean indicating presence.
func GetIdentityFromContext(ctx context.Context) (*domainauth.Identity, bool) {
	if ident, ok := ctx.Value(identityKey{}).(*domainauth.Identity); ok && ident != nil {
		return ident, true
	}
	return nil, false
}
