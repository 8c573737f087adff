package middleware

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"

	"github.com/dealboard/dealboard-backend/api/responses"
	"github.com/dealboard/dealboard-backend/internal/identity"
	"github.com/dealboard/dealboard-backend/pkg/logger"
)

// maxIdentityBodyBytes bounds how much of a JSON body is buffered to look for a
// legacy user id.
const maxIdentityBodyBytes = 1 << 20

// IdentityMode selects which gate a route applies.
type IdentityMode int

const (
	// IdentityOptional attaches a token identity when one verifies and never rejects.
	IdentityOptional IdentityMode = iota
	// IdentityAuthenticated accepts a bearer token or a legacy body id.
	IdentityAuthenticated
	// IdentityToken requires a verified bearer token.
	IdentityToken
	// IdentityModerator requires a verified moderator or admin token.
	IdentityModerator
	// IdentityAdmin requires a verified admin token.
	IdentityAdmin
)

func (m IdentityMode) String() string {
	switch m {
	case IdentityOptional:
		return "optional"
	case IdentityAuthenticated:
		return "authenticated"
	case IdentityToken:
		return "token"
	case IdentityModerator:
		return "moderator"
	case IdentityAdmin:
		return "admin"
	}
	return "unknown"
}

type identityResolver interface {
	VerifyAuthentication(ctx context.Context, creds identity.Credentials) (*identity.AuthenticatedUser, error)
	VerifyToken(ctx context.Context, creds identity.Credentials) (*identity.AuthenticatedUser, error)
	VerifyModerator(ctx context.Context, creds identity.Credentials) (*identity.AuthenticatedUser, error)
	VerifyAdmin(ctx context.Context, creds identity.Credentials) (*identity.AuthenticatedUser, error)
	Optional(ctx context.Context, creds identity.Credentials) *identity.AuthenticatedUser
}

// Identity resolves the caller according to mode and stores it in the request
// context. Only the authenticated mode reads the body, which is restored for the
// handler.
func Identity(resolver identityResolver, mode IdentityMode, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			creds := identity.Credentials{Authorization: r.Header.Get("Authorization")}

			if mode == IdentityAuthenticated && creds.BearerToken() == "" && isJSON(r) {
				body, err := bufferBody(r, maxIdentityBodyBytes)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				creds.Body = body
			}

			var (
				user *identity.AuthenticatedUser
				err  error
			)
			switch mode {
			case IdentityOptional:
				user = resolver.Optional(ctx, creds)
			case IdentityAuthenticated:
				user, err = resolver.VerifyAuthentication(ctx, creds)
			case IdentityToken:
				user, err = resolver.VerifyToken(ctx, creds)
			case IdentityModerator:
				user, err = resolver.VerifyModerator(ctx, creds)
			case IdentityAdmin:
				user, err = resolver.VerifyAdmin(ctx, creds)
			}
			if err != nil {
				if logg != nil {
					ctx = logg.WithField(ctx, "identity_mode", mode.String())
				}
				responses.WriteError(ctx, logg, w, err)
				return
			}

			if user != nil {
				ctx = WithAuthenticatedUser(ctx, user)
				if logg != nil {
					ctx = logg.WithUserID(ctx, user.ID.String())
					ctx = logg.WithAuthMethod(ctx, string(user.Method))
					ctx = logg.WithActorRole(ctx, user.Role.String())
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isJSON(r *http.Request) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	return err == nil && mediaType == "application/json"
}

// bufferBody reads up to limit bytes and puts them back in front of whatever remains,
// so downstream size checks still see the full body.
func bufferBody(r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		return nil, err
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}
	return body, nil
}
