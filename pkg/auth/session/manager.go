// Package session stores refresh tokens in Redis, keyed by the jti of the access
// token they were issued with.
package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dealboard/dealboard-backend/pkg/config"
	pkgredis "github.com/dealboard/dealboard-backend/pkg/redis"
)

// ErrInvalidRefreshToken covers every way a refresh can fail on the client's
// side: unknown or already-rotated jti, wrong token, or wrong user.
var ErrInvalidRefreshToken = errors.New("session: invalid refresh token")

var errMissingAccessID = errors.New("session: access id is required")

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	DeleteIfEqual(ctx context.Context, key, expected string) (bool, error)
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker lets the identity resolver reject access tokens whose
// session was revoked by logout or rotation.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type entry struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"user_id"`
}

type Manager struct {
	store store
	ttl   time.Duration
}

// NewManager requires the refresh lifetime to outlast the access token, or a
// client could never refresh.
func NewManager(client *pkgredis.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("session: redis client is required")
	}
	return newManager(client, cfg)
}

func newManager(s store, cfg config.JWTConfig) (*Manager, error) {
	refreshTTL := cfg.RefreshTokenTTL()
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if refreshTTL <= accessTTL {
		return nil, fmt.Errorf("session: refresh ttl %s must exceed access ttl %s", refreshTTL, accessTTL)
	}
	return &Manager{store: s, ttl: refreshTTL}, nil
}

// NewAccessID returns the jti for a new access token.
func NewAccessID() string {
	return uuid.NewString()
}

// Generate opens a session for accessID and returns its refresh token.
func (m *Manager) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	if blank(accessID) {
		return "", errMissingAccessID
	}
	if userID == uuid.Nil {
		return "", errors.New("session: user id is required")
	}
	return m.open(ctx, accessID, userID)
}

// Rotate consumes the session under oldAccessID and opens a new one. The old
// entry is removed with compare-and-delete, so of two concurrent refreshes with
// the same token only one succeeds.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string, userID uuid.UUID) (string, string, error) {
	if blank(oldAccessID) || blank(provided) {
		return "", "", ErrInvalidRefreshToken
	}

	key := m.store.AccessSessionKey(oldAccessID)
	raw, err := m.store.Get(ctx, key)
	if errors.Is(err, goredis.Nil) {
		return "", "", ErrInvalidRefreshToken
	}
	if err != nil {
		return "", "", err
	}

	var current entry
	if json.Unmarshal([]byte(raw), &current) != nil ||
		current.UserID != userID ||
		subtle.ConstantTimeCompare([]byte(current.Token), []byte(provided)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	consumed, err := m.store.DeleteIfEqual(ctx, key, raw)
	if err != nil {
		return "", "", err
	}
	if !consumed {
		return "", "", ErrInvalidRefreshToken
	}

	nextID := NewAccessID()
	token, err := m.open(ctx, nextID, userID)
	if err != nil {
		return "", "", err
	}
	return nextID, token, nil
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if blank(accessID) {
		return errMissingAccessID
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if blank(accessID) {
		return false, errMissingAccessID
	}
	_, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case errors.Is(err, goredis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (m *Manager) open(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: read random: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	payload, err := json.Marshal(entry{Token: token, UserID: userID})
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), string(payload), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
