package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealboard/dealboard-backend/internal/users"
	pkgAuth "github.com/dealboard/dealboard-backend/pkg/auth"
	"github.com/dealboard/dealboard-backend/pkg/auth/session"
	"github.com/dealboard/dealboard-backend/pkg/config"
	"github.com/dealboard/dealboard-backend/pkg/db"
	"github.com/dealboard/dealboard-backend/pkg/db/models"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/mailer"
	"github.com/dealboard/dealboard-backend/pkg/metrics"
	"github.com/dealboard/dealboard-backend/pkg/security"
)

const codeDigits = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Service issues login codes and exchanges them for sessions.
type Service interface {
	SendCode(ctx context.Context, req SendCodeRequest) (*SendCodeResult, error)
	VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyCodeResult, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	RecordLogin(ctx context.Context, id uuid.UUID, deviceID *string, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	CodeStore      CodeStore
	Verifier       CodeVerifier
	Mailer         mailer.Sender
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	AuthConfig     config.AuthConfig
	Metrics        *metrics.DomainMetrics
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	users    userRepository
	codes    CodeStore
	verifier CodeVerifier
	mail     mailer.Sender
	session  sessionManager
	jwtCfg   config.JWTConfig
	hashCfg  config.PasswordConfig
	codeTTL  time.Duration
	echo     bool
	metrics  *metrics.DomainMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the verification-code service.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.CodeStore == nil {
		return nil, fmt.Errorf("code store is required")
	}
	if params.Verifier == nil {
		return nil, fmt.Errorf("code verifier is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	ttl := params.AuthConfig.CodeTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:    params.UserRepo,
		codes:    params.CodeStore,
		verifier: params.Verifier,
		mail:     params.Mailer,
		session:  params.SessionManager,
		jwtCfg:   params.JWTConfig,
		hashCfg:  params.PasswordConfig,
		codeTTL:  ttl,
		echo:     params.AuthConfig.EchoCodes,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) SendCode(ctx context.Context, req SendCodeRequest) (*SendCodeResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid email address")
	}

	code, err := security.GenerateNumericCode(codeDigits)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}
	hash, err := security.HashSecret(code, s.hashCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash code")
	}

	now := s.now().UTC()
	if err := s.codes.Put(ctx, email, CodeEntry{Hash: hash, ExpiresAt: now.Add(s.codeTTL)}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store verification code")
	}
	if err := s.codes.SweepExpired(ctx, now); err != nil {
		s.warn(ctx, "auth.code_sweep_failed", err)
	}

	if s.mail != nil {
		if err := s.mail.Send(ctx, mailer.VerificationCodeMessage(email, code, s.codeTTL)); err != nil {
			s.warn(ctx, "auth.code_email_failed", err)
		}
	}
	s.metrics.IncVerificationCode(metrics.CodeOutcomeSent)

	result := &SendCodeResult{}
	if s.echo {
		result.DevCode = code
	}
	return result, nil
}

func (s *service) VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyCodeResult, error) {
	email := normalizeEmail(req.Email)
	code := strings.TrimSpace(req.Code)
	deviceID := strings.TrimSpace(req.DeviceID)
	if email == "" || code == "" || deviceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields")
	}

	if err := s.verifier.Verify(ctx, email, code); err != nil {
		s.metrics.IncVerificationCode(metrics.CodeOutcomeRejected)
		return nil, err
	}
	s.metrics.IncVerificationCode(metrics.CodeOutcomeVerified)

	now := s.now().UTC()
	user, isNew, err := s.resolveUser(ctx, email, deviceID, now)
	if err != nil {
		return nil, err
	}

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	return &VerifyCodeResult{
		User:         users.FromModel(user),
		IsNewUser:    isNew,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// resolveUser finds the account for email or creates it. A concurrent first login that
// loses the insert race falls back to the winner's row.
func (s *service) resolveUser(ctx context.Context, email, deviceID string, now time.Time) (*models.User, bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.recordLogin(ctx, user, deviceID, now); err != nil {
			return nil, false, err
		}
		return user, false, nil
	case !db.IsNotFound(err):
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	created, err := s.users.Create(ctx, users.CreateUserDTO{Email: email, DeviceID: &deviceID, At: now})
	if err == nil {
		return created, true, nil
	}
	if !db.IsUniqueViolation(err, "users_email_key") {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	user, err = s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if err := s.recordLogin(ctx, user, deviceID, now); err != nil {
		return nil, false, err
	}
	return user, false, nil
}

func (s *service) recordLogin(ctx context.Context, user *models.User, deviceID string, now time.Time) error {
	if err := s.users.RecordLogin(ctx, user.ID, &deviceID, now); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	user.LastLoginAt = &now
	user.DeviceID = &deviceID
	user.EmailVerified = true
	return nil
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
