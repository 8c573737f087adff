package identity

import (
	"github.com/google/uuid"

	"github.com/dealboard/dealboard-backend/pkg/db/models"
	"github.com/dealboard/dealboard-backend/pkg/enums"
)

// Method names the strategy that established an identity.
type Method string

const (
	MethodToken  Method = "token"
	MethodLegacy Method = "legacy"
)

// AuthenticatedUser is the caller as resolved for one request. Verified is true only
// for a signed token backed by a live session; Persisted is false when the legacy
// strategy had to synthesize the user from a bare id.
type AuthenticatedUser struct {
	ID          uuid.UUID
	Email       string
	Role        enums.Role
	Username    *string
	AutoApprove bool
	Method      Method
	Verified    bool
	Persisted   bool
}

// CanModerate reports whether the user may act on the moderation queue.
func (u *AuthenticatedUser) CanModerate() bool {
	return u != nil && u.Verified && u.Role.CanModerate()
}

// IsAdmin reports whether the user holds a verified admin role.
func (u *AuthenticatedUser) IsAdmin() bool {
	return u != nil && u.Verified && u.Role == enums.RoleAdmin
}

func fromModel(m *models.User, method Method, verified bool) *AuthenticatedUser {
	role := m.Role
	if !role.IsValid() {
		role = enums.RoleUser
	}
	return &AuthenticatedUser{
		ID:          m.ID,
		Email:       m.Email,
		Role:        role,
		Username:    m.Username,
		AutoApprove: m.AutoApprove,
		Method:      method,
		Verified:    verified,
		Persisted:   true,
	}
}
