package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dealboard/dealboard-backend/api/responses"
	"github.com/dealboard/dealboard-backend/api/validators"
	"github.com/dealboard/dealboard-backend/internal/votes"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/types"
)

type castVoteRequest struct {
	DealID   string `json:"dealId"`
	DeviceID string `json:"deviceId"`
	VoteType string `json:"voteType"`
}

type castVoteResponse struct {
	types.Envelope
	votes.CastVoteResult
}

// optionalUUID treats an empty value as absent so the service reports missing fields.
func optionalUUID(raw, field string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, nil
	}
	return validators.ParseUUID(raw, field)
}

// CastVote records one hot or cold vote per device and deal.
func CastVote(svc votes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req castVoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dealID, err := optionalUUID(req.DealID, "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Cast(r.Context(), votes.CastVoteInput{
			DealID:   dealID,
			DeviceID: req.DeviceID,
			VoteType: req.VoteType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, castVoteResponse{
			Envelope:       responses.OK("Vote recorded"),
			CastVoteResult: *result,
		})
	}
}
