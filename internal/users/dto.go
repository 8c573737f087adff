package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealboard/dealboard-backend/pkg/db/models"
	"github.com/dealboard/dealboard-backend/pkg/enums"
)

// UserDTO is the transport shape returned to clients.
type UserDTO struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Username      *string    `json:"username"`
	Role          enums.Role `json:"role"`
	AutoApprove   bool       `json:"autoApprove"`
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email    string
	DeviceID *string
	At       time.Time
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		Role:          u.Role,
		AutoApprove:   u.AutoApprove,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

// ToModel builds a freshly verified account with the default role.
func (c CreateUserDTO) ToModel() *models.User {
	at := c.At.UTC()
	return &models.User{
		Email:         c.Email,
		Role:          enums.RoleUser,
		AutoApprove:   false,
		EmailVerified: true,
		DeviceID:      c.DeviceID,
		LastLoginAt:   &at,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

// DisplayName is the public attribution for deals the user submits:
// the username when set, otherwise the local part of the email.
func DisplayName(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	email := u.Email
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}
