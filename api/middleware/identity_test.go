package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealboard/dealboard-backend/internal/identity"
	"github.com/dealboard/dealboard-backend/pkg/enums"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
)

type recordingResolver struct {
	user  *identity.AuthenticatedUser
	err   error
	calls []string
	creds identity.Credentials
}

func (r *recordingResolver) record(name string, creds identity.Credentials) (*identity.AuthenticatedUser, error) {
	r.calls = append(r.calls, name)
	r.creds = creds
	return r.user, r.err
}

func (r *recordingResolver) VerifyAuthentication(_ context.Context, creds identity.Credentials) (*identity.AuthenticatedUser, error) {
	return r.record("authenticated", creds)
}

func (r *recordingResolver) VerifyToken(_ context.Context, creds identity.Credentials) (*identity.AuthenticatedUser, error) {
	return r.record("token", creds)
}

func (r *recordingResolver) VerifyModerator(_ context.Context, creds identity.Credentials) (*identity.AuthenticatedUser, error) {
	return r.record("moderator", creds)
}

func (r *recordingResolver) VerifyAdmin(_ context.Context, creds identity.Credentials) (*identity.AuthenticatedUser, error) {
	return r.record("admin", creds)
}

func (r *recordingResolver) Optional(_ context.Context, creds identity.Credentials) *identity.AuthenticatedUser {
	user, _ := r.record("optional", creds)
	return user
}

func TestIdentityDispatchesByMode(t *testing.T) {
	modes := map[IdentityMode]string{
		IdentityOptional:      "optional",
		IdentityAuthenticated: "authenticated",
		IdentityToken:         "token",
		IdentityModerator:     "moderator",
		IdentityAdmin:         "admin",
	}
	for mode, want := range modes {
		resolver := &recordingResolver{}
		handler := Identity(resolver, mode, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/get-deals", nil))
		assert.Equal(t, []string{want}, resolver.calls, mode.String())
	}
}

func TestIdentityBuffersLegacyBodyForHandler(t *testing.T) {
	user := &identity.AuthenticatedUser{ID: uuid.New(), Role: enums.RoleUser, Method: identity.MethodLegacy}
	resolver := &recordingResolver{user: user}
	payload := `{"userId":"` + user.ID.String() + `","dealId":"abc"}`

	var seen *identity.AuthenticatedUser
	var handlerBody string
	handler := Identity(resolver, IdentityAuthenticated, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = AuthenticatedUserFromContext(r.Context())
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		handlerBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/vote", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, string(resolver.creds.Body))
	assert.Equal(t, payload, handlerBody)
	assert.Same(t, user, seen)
}

func TestIdentitySkipsBodyWhenBearerPresent(t *testing.T) {
	resolver := &recordingResolver{user: &identity.AuthenticatedUser{ID: uuid.New(), Verified: true}}
	handler := Identity(resolver, IdentityAuthenticated, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/vote", strings.NewReader(`{"userId":"x"}`))
	req.Header.Set("Authorization", "Bearer abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "Bearer abc", resolver.creds.Authorization)
	assert.Empty(t, resolver.creds.Body)
}

func TestIdentitySkipsMultipartBodies(t *testing.T) {
	resolver := &recordingResolver{user: &identity.AuthenticatedUser{ID: uuid.New()}}
	handler := Identity(resolver, IdentityAuthenticated, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/upload-image", strings.NewReader("--x--"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Empty(t, resolver.creds.Body)
}

func TestIdentityWritesResolverErrors(t *testing.T) {
	resolver := &recordingResolver{err: pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: moderator permissions required")}
	called := false
	handler := Identity(resolver, IdentityModerator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/approve-deal", nil))

	assert.False(t, called)
	require.Equal(t, http.StatusForbidden, rec.Code)
	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.False(t, payload.Success)
	assert.Equal(t, "Forbidden: moderator permissions required", payload.Message)
}

func TestIdentityOptionalLeavesAnonymousCallers(t *testing.T) {
	resolver := &recordingResolver{}
	var seen *identity.AuthenticatedUser
	handler := Identity(resolver, IdentityOptional, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = AuthenticatedUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/get-deals", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, seen)
	assert.Empty(t, UserIDFromContext(context.Background()))
	assert.Empty(t, RoleFromContext(context.Background()))
}
