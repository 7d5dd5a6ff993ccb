package security

import "context"

// Cookie names shared by the edge middleware and the auth boundary.
const (
	AuthTokenCookie = "auth-token"
	SessionIDCookie = "session-id"
)

// Identity is the authenticated principal attached to a request after the
// auth gate accepts its bearer token.
type Identity struct {
	UserID string
	Role   string
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
