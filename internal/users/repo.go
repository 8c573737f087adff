package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealboard/dealboard-backend/pkg/db/models"
)

// Repository is the gorm-backed user store. Lookups return gorm.ErrRecordNotFound
// for unknown users; callers map that to their own domain errors.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) users(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.User{})
}

func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail expects email already lowercased.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	user := new(models.User)
	if err := r.users(ctx).Where(query, arg).Take(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// RecordLogin marks the email verified and remembers the most recent device.
// A nil deviceID leaves the stored device untouched.
func (r *Repository) RecordLogin(ctx context.Context, id uuid.UUID, deviceID *string, at time.Time) error {
	at = at.UTC()
	cols := map[string]any{"last_login_at": at, "email_verified": true, "updated_at": at}
	if deviceID != nil {
		cols["device_id"] = *deviceID
	}
	return r.users(ctx).Where("id = ?", id).UpdateColumns(cols).Error
}

func (r *Repository) UpdateUsername(ctx context.Context, id uuid.UUID, username string, at time.Time) error {
	res := r.users(ctx).Where("id = ?", id).UpdateColumns(map[string]any{
		"username":   username,
		"updated_at": at.UTC(),
	})
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UsernameTaken compares case-insensitively and ignores exceptID's own row.
func (r *Repository) UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error) {
	var n int64
	err := r.users(ctx).
		Where("LOWER(username) = ? AND id <> ?", strings.ToLower(username), exceptID).
		Count(&n).Error
	return n > 0, err
}
