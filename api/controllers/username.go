package controllers

import (
	"net/http"

	"github.com/dealboard/dealboard-backend/api/responses"
	"github.com/dealboard/dealboard-backend/api/validators"
	"github.com/dealboard/dealboard-backend/internal/users"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/types"
)

type usernameRequest struct {
	Username string `json:"username"`
}

type usernameResponse struct {
	types.Envelope
	Username *string        `json:"username"`
	User     *users.UserDTO `json:"user,omitempty"`
}

type usernameAvailabilityResponse struct {
	types.Envelope
	Available bool `json:"available"`
}

// SetUsername claims a public username for the caller.
func SetUsername(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req usernameRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.SetUsername(r.Context(), user.ID, req.Username)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, usernameResponse{
			Envelope: responses.OK("Username updated"),
			Username: updated.Username,
			User:     updated,
		})
	}
}

// CheckUsername reports whether a username is free for the caller to claim.
func CheckUsername(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		available, err := svc.UsernameAvailable(r.Context(), user.ID, r.URL.Query().Get("username"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, usernameAvailabilityResponse{
			Envelope:  responses.OK(""),
			Available: available,
		})
	}
}
