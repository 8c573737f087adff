package middleware

import (
	"context"

	"github.com/dealboard/dealboard-backend/internal/identity"
)

type contextKey string

const ctxUser contextKey = "authenticated_user"

// WithAuthenticatedUser stores the resolved caller for downstream handlers.
func WithAuthenticatedUser(ctx context.Context, user *identity.AuthenticatedUser) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}

// AuthenticatedUserFromContext returns the caller, or nil for anonymous requests.
func AuthenticatedUserFromContext(ctx context.Context) *identity.AuthenticatedUser {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUser).(*identity.AuthenticatedUser); ok {
		return v
	}
	return nil
}

func UserIDFromContext(ctx context.Context) string {
	if user := AuthenticatedUserFromContext(ctx); user != nil {
		return user.ID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if user := AuthenticatedUserFromContext(ctx); user != nil {
		return user.Role.String()
	}
	return ""
}
