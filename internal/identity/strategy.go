package identity

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	pkgAuth "github.com/dealboard/dealboard-backend/pkg/auth"
	"github.com/dealboard/dealboard-backend/pkg/auth/session"
	"github.com/dealboard/dealboard-backend/pkg/config"
	"github.com/dealboard/dealboard-backend/pkg/db"
	"github.com/dealboard/dealboard-backend/pkg/db/models"
	"github.com/dealboard/dealboard-backend/pkg/enums"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
)

// legacyIDFields are read from the request body in priority order.
var legacyIDFields = []string{"userId", "user_id", "submittedBy", "reportedBy", "deviceId", "device_id"}

// Credentials is the transport-neutral input to identity resolution.
type Credentials struct {
	Authorization string
	Body          []byte
}

// BearerToken returns the token from an "Authorization: Bearer" header, if any.
func (c Credentials) BearerToken() string {
	raw := strings.TrimSpace(c.Authorization)
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(raw[7:])
}

// Strategy turns credentials into an AuthenticatedUser. Applies reports whether the
// strategy should handle the credentials at all.
type Strategy interface {
	Method() Method
	Applies(creds Credentials) bool
	Resolve(ctx context.Context, creds Credentials) (*AuthenticatedUser, error)
}

type userLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenStrategy verifies a signed access token and its Redis session, then loads the
// account by the token's email.
type TokenStrategy struct {
	cfg      config.JWTConfig
	sessions session.AccessSessionChecker
	users    userLookup
}

func NewTokenStrategy(cfg config.JWTConfig, sessions session.AccessSessionChecker, users userLookup) *TokenStrategy {
	return &TokenStrategy{cfg: cfg, sessions: sessions, users: users}
}

func (s *TokenStrategy) Method() Method { return MethodToken }

func (s *TokenStrategy) Applies(creds Credentials) bool {
	return creds.BearerToken() != ""
}

func (s *TokenStrategy) Resolve(ctx context.Context, creds Credentials) (*AuthenticatedUser, error) {
	token := creds.BearerToken()
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: missing bearer token")
	}
	claims, err := pkgAuth.ParseAccessToken(s.cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Invalid or expired token")
	}
	if claims.ID == "" || claims.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid or expired token")
	}
	if s.sessions != nil {
		ok, err := s.sessions.HasSession(ctx, claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: session expired")
		}
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(claims.Email))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return fromModel(user, MethodToken, true), nil
}

// LegacyStrategy accepts a client-supplied user id from the JSON body. It only runs
// when no bearer header was sent and never grants moderation rights.
type LegacyStrategy struct {
	users userLookup
}

func NewLegacyStrategy(users userLookup) *LegacyStrategy {
	return &LegacyStrategy{users: users}
}

func (s *LegacyStrategy) Method() Method { return MethodLegacy }

func (s *LegacyStrategy) Applies(creds Credentials) bool {
	return strings.TrimSpace(creds.Authorization) == "" && legacyID(creds.Body) != ""
}

func (s *LegacyStrategy) Resolve(ctx context.Context, creds Credentials) (*AuthenticatedUser, error) {
	raw := legacyID(creds.Body)
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Invalid user id")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return &AuthenticatedUser{ID: id, Role: enums.RoleUser, Method: MethodLegacy}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return fromModel(user, MethodLegacy, false), nil
}

func legacyID(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	for _, name := range legacyIDFields {
		value, ok := fields[name].(string)
		if !ok {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
