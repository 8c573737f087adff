package auth

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/dealboard/dealboard-backend/pkg/config"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/security"
)

const (
	msgCodeNotFound = "Verification code not found or expired"
	msgCodeExpired  = "Verification code expired"
	msgCodeInvalid  = "Invalid verification code"
)

var sixDigitCode = regexp.MustCompile(`^\d{6}$`)

// CodeVerifier decides whether a submitted code authenticates the email. A successful
// verification consumes the stored code.
type CodeVerifier interface {
	Verify(ctx context.Context, email, code string) error
	Name() string
}

// NewVerifier selects the verification strategy named in config.
func NewVerifier(name string, store CodeStore, now func() time.Time) (CodeVerifier, error) {
	if store == nil {
		return nil, fmt.Errorf("code store is required")
	}
	switch name {
	case config.CodeVerifierStrict, "":
		return NewStrictVerifier(store, now), nil
	case config.CodeVerifierAcceptAny:
		return NewAcceptAnyVerifier(store), nil
	}
	return nil, fmt.Errorf("unknown code verifier %q", name)
}

type strictVerifier struct {
	store CodeStore
	now   func() time.Time
}

// NewStrictVerifier checks the code against the stored hash and its expiry.
func NewStrictVerifier(store CodeStore, now func() time.Time) CodeVerifier {
	if now == nil {
		now = time.Now
	}
	return &strictVerifier{store: store, now: now}
}

func (v *strictVerifier) Name() string { return config.CodeVerifierStrict }

func (v *strictVerifier) Verify(ctx context.Context, email, code string) error {
	entry, err := v.store.Get(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load verification code")
	}
	if entry == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, msgCodeNotFound)
	}
	if entry.Expired(v.now()) {
		if err := v.store.Delete(ctx, email); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete verification code")
		}
		return pkgerrors.New(pkgerrors.CodeValidation, msgCodeExpired)
	}
	ok, err := security.VerifySecret(code, entry.Hash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify code hash")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, msgCodeInvalid)
	}
	if err := v.store.Delete(ctx, email); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete verification code")
	}
	return nil
}

type acceptAnyVerifier struct {
	store CodeStore
}

// NewAcceptAnyVerifier accepts any six digit code. Config refuses it in production.
func NewAcceptAnyVerifier(store CodeStore) CodeVerifier {
	return &acceptAnyVerifier{store: store}
}

func (v *acceptAnyVerifier) Name() string { return config.CodeVerifierAcceptAny }

func (v *acceptAnyVerifier) Verify(ctx context.Context, email, code string) error {
	if !sixDigitCode.MatchString(code) {
		return pkgerrors.New(pkgerrors.CodeValidation, msgCodeInvalid)
	}
	if err := v.store.Delete(ctx, email); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete verification code")
	}
	return nil
}
