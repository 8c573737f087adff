package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealboard/dealboard-backend/api/middleware"
	"github.com/dealboard/dealboard-backend/internal/auth"
	"github.com/dealboard/dealboard-backend/internal/users"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
)

type stubAuthService struct {
	sendReq    auth.SendCodeRequest
	sendResult *auth.SendCodeResult
	verifyReq  auth.VerifyCodeRequest
	verifyRes  *auth.VerifyCodeResult
	err        error
}

func (s *stubAuthService) SendCode(_ context.Context, req auth.SendCodeRequest) (*auth.SendCodeResult, error) {
	s.sendReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.sendResult, nil
}

func (s *stubAuthService) VerifyCode(_ context.Context, req auth.VerifyCodeRequest) (*auth.VerifyCodeResult, error) {
	s.verifyReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.verifyRes, nil
}

func TestSendVerificationCode(t *testing.T) {
	svc := &stubAuthService{sendResult: &auth.SendCodeResult{}}

	rec := serve(SendVerificationCode(svc, nil), jsonRequest(http.MethodPost, "/api/send-verification-code", `{"email":"a@b.co"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.co", svc.sendReq.Email)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Verification code sent", body["message"])
	assert.NotContains(t, body, "devCode")
}

func TestSendVerificationCodeEchoesDevCode(t *testing.T) {
	svc := &stubAuthService{sendResult: &auth.SendCodeResult{DevCode: "123456"}}

	rec := serve(SendVerificationCode(svc, nil), jsonRequest(http.MethodPost, "/api/send-verification-code", `{"email":"a@b.co"}`))

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "123456", body["devCode"])
}

func TestSendVerificationCodeRelaysValidation(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeValidation, "Invalid email address")}

	rec := serve(SendVerificationCode(svc, nil), jsonRequest(http.MethodPost, "/api/send-verification-code", `{"email":"nope"}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Invalid email address", body.Message)
}

func TestVerifyCodeAndGetUser(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Email: "a@b.co"}
	svc := &stubAuthService{verifyRes: &auth.VerifyCodeResult{
		User:         user,
		IsNewUser:    true,
		AccessToken:  "access",
		RefreshToken: "refresh",
	}}

	rec := serve(VerifyCodeAndGetUser(svc, nil), jsonRequest(http.MethodPost, "/api/verify-code-and-get-user",
		`{"email":"a@b.co","code":"123456","deviceId":"device-1"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.VerifyCodeRequest{Email: "a@b.co", Code: "123456", DeviceID: "device-1"}, svc.verifyReq)
	assert.Equal(t, "access", rec.Header().Get(middleware.AccessTokenHeader))

	body := decodeBody[struct {
		Success      bool          `json:"success"`
		User         users.UserDTO `json:"user"`
		IsNewUser    bool          `json:"isNewUser"`
		AccessToken  string        `json:"accessToken"`
		RefreshToken string        `json:"refreshToken"`
	}](t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, user.ID, body.User.ID)
	assert.True(t, body.IsNewUser)
	assert.Equal(t, "refresh", body.RefreshToken)
}

func TestVerifyCodeAndGetUserRejectsMalformedBody(t *testing.T) {
	svc := &stubAuthService{}

	rec := serve(VerifyCodeAndGetUser(svc, nil), jsonRequest(http.MethodPost, "/api/verify-code-and-get-user", `{"email":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.verifyReq.Email)
}
