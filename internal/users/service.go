package users

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealboard/dealboard-backend/pkg/db"
	"github.com/dealboard/dealboard-backend/pkg/db/models"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// Service manages the public username of the authenticated user.
type Service interface {
	SetUsername(ctx context.Context, userID uuid.UUID, username string) (*UserDTO, error)
	UsernameAvailable(ctx context.Context, userID uuid.UUID, username string) (bool, error)
}

type usernameRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUsername(ctx context.Context, id uuid.UUID, username string, at time.Time) error
	UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error)
}

type service struct {
	repo usernameRepository
	now  func() time.Time
}

// NewService builds the username service.
func NewService(repo usernameRepository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) SetUsername(ctx context.Context, userID uuid.UUID, username string) (*UserDTO, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Username != nil && *user.Username == username {
		return FromModel(user), nil
	}

	taken, err := s.repo.UsernameTaken(ctx, username, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check username")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "Username already taken")
	}

	now := s.now().UTC()
	if err := s.repo.UpdateUsername(ctx, userID, username, now); err != nil {
		if db.IsUniqueViolation(err, "users_username_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Username already taken")
		}
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update username")
	}
	user.Username = &username
	user.UpdatedAt = now
	return FromModel(user), nil
}

func (s *service) UsernameAvailable(ctx context.Context, userID uuid.UUID, username string) (bool, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return false, err
	}
	taken, err := s.repo.UsernameTaken(ctx, username, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check username")
	}
	return !taken, nil
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func normalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Username is required")
	}
	if !usernamePattern.MatchString(username) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Invalid username: use 3-20 letters, digits or underscores")
	}
	return username, nil
}
