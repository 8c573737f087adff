package identity

import (
	"context"
	"fmt"

	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
)

// Resolver runs strategies in priority order; the first that applies decides.
type Resolver struct {
	strategies []Strategy
}

// NewResolver builds a resolver. Order matters: token first, legacy last.
func NewResolver(strategies ...Strategy) (*Resolver, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("at least one identity strategy is required")
	}
	for _, s := range strategies {
		if s == nil {
			return nil, fmt.Errorf("nil identity strategy")
		}
	}
	return &Resolver{strategies: strategies}, nil
}

// Resolve returns the caller, or nil and no error when no strategy applies.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (*AuthenticatedUser, error) {
	for _, s := range r.strategies {
		if s.Applies(creds) {
			return s.Resolve(ctx, creds)
		}
	}
	return nil, nil
}

// VerifyAuthentication requires some identity, token or legacy.
func (r *Resolver) VerifyAuthentication(ctx context.Context, creds Credentials) (*AuthenticatedUser, error) {
	user, err := r.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: missing credentials")
	}
	return user, nil
}

// VerifyToken requires a verified bearer token.
func (r *Resolver) VerifyToken(ctx context.Context, creds Credentials) (*AuthenticatedUser, error) {
	if creds.BearerToken() == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: bearer token required")
	}
	user, err := r.VerifyAuthentication(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !user.Verified {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: bearer token required")
	}
	return user, nil
}

// VerifyModerator requires a verified moderator or admin.
func (r *Resolver) VerifyModerator(ctx context.Context, creds Credentials) (*AuthenticatedUser, error) {
	user, err := r.VerifyToken(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !user.CanModerate() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: moderator permissions required")
	}
	return user, nil
}

// VerifyAdmin requires a verified admin.
func (r *Resolver) VerifyAdmin(ctx context.Context, creds Credentials) (*AuthenticatedUser, error) {
	user, err := r.VerifyToken(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: admin permissions required")
	}
	return user, nil
}

// Optional resolves a bearer token when one is present and usable; any failure
// leaves the caller anonymous.
func (r *Resolver) Optional(ctx context.Context, creds Credentials) *AuthenticatedUser {
	if creds.BearerToken() == "" {
		return nil
	}
	user, err := r.Resolve(ctx, Credentials{Authorization: creds.Authorization})
	if err != nil {
		return nil
	}
	return user
}
