package controllers

import (
	"context"

	"github.com/dealboard/dealboard-backend/api/middleware"
	"github.com/dealboard/dealboard-backend/internal/identity"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
)

// requireUser returns the caller resolved by the identity middleware.
func requireUser(ctx context.Context) (*identity.AuthenticatedUser, error) {
	user := middleware.AuthenticatedUserFromContext(ctx)
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: missing credentials")
	}
	return user, nil
}

// moderationRequest is the body shared by the moderation endpoints. Only reject-deal reads Reason.
type moderationRequest struct {
	DealID string `json:"dealId" validate:"required"`
	Reason string `json:"reason"`
}
