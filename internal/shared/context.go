package shared

import (
	"context"

	"github.com/google/uuid"
)

// Principal identifies the authenticated subject of a request. Authentication
// happens upstream (the gateway); this service only consumes the identity.
type Principal struct {
	UserID uuid.UUID
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, nil when absent.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
