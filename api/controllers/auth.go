package controllers

import (
	"net/http"

	"github.com/dealboard/dealboard-backend/api/middleware"
	"github.com/dealboard/dealboard-backend/api/responses"
	"github.com/dealboard/dealboard-backend/api/validators"
	"github.com/dealboard/dealboard-backend/internal/auth"
	"github.com/dealboard/dealboard-backend/internal/users"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/types"
)

type sendCodeResponse struct {
	types.Envelope
	DevCode string `json:"devCode,omitempty"`
}

type verifyCodeResponse struct {
	types.Envelope
	User         *users.UserDTO `json:"user"`
	IsNewUser    bool           `json:"isNewUser"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
}

// SendVerificationCode emails a one-time login code.
func SendVerificationCode(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.SendCodeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SendCode(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sendCodeResponse{
			Envelope: responses.OK("Verification code sent"),
			DevCode:  result.DevCode,
		})
	}
}

// VerifyCodeAndGetUser exchanges a login code for the user and a fresh session.
func VerifyCodeAndGetUser(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.VerifyCodeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyCode(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(middleware.AccessTokenHeader, result.AccessToken)
		responses.WriteSuccess(w, verifyCodeResponse{
			Envelope:     responses.OK(""),
			User:         result.User,
			IsNewUser:    result.IsNewUser,
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
		})
	}
}
