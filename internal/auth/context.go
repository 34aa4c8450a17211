package auth

import "context"

// Identity is the authenticated caller of a report request.
type Identity struct {
	Subject string
	Name    string
	Role    Role
}

// DisplayName is the name printed on reports: the name claim, else the subject.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Subject
}

type identityKey struct{}

// WithIdentity stores the caller in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by the middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// RoleFromContext returns the caller's role, or "" when unauthenticated.
func RoleFromContext(ctx context.Context) Role {
	id, _ := IdentityFromContext(ctx)
	return id.Role
}

// DisplayNameFromContext returns the caller's display name, or "" when unauthenticated.
func DisplayNameFromContext(ctx context.Context) string {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return ""
	}
	return id.DisplayName()
}
