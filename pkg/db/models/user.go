package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealboard/dealboard-backend/pkg/enums"
)

// User represents an account created on first successful code verification.
type User struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	Username      *string    `gorm:"column:username;uniqueIndex"`
	Role          enums.Role `gorm:"column:role;type:user_role;not null;default:user"`
	AutoApprove   bool       `gorm:"column:auto_approve;not null;default:false"`
	EmailVerified bool       `gorm:"column:email_verified;not null;default:false"`
	DeviceID      *string    `gorm:"column:device_id"`
	LastLoginAt   *time.Time `gorm:"column:last_login_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = enums.RoleUser
	}
	return nil
}
