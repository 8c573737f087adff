package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dealboard/dealboard-backend/api/responses"
	"github.com/dealboard/dealboard-backend/api/validators"
	"github.com/dealboard/dealboard-backend/internal/deals"
	"github.com/dealboard/dealboard-backend/internal/identity"
	"github.com/dealboard/dealboard-backend/pkg/logger"
)

// transition applies one moderation action. A nil deal means the deal no longer exists.
type transition func(ctx context.Context, actor *identity.AuthenticatedUser, id uuid.UUID, reason string) (*deals.DealDTO, error)

func moderate(apply transition, message string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		deal, err := func() (*deals.DealDTO, error) {
			actor, err := requireUser(ctx)
			if err != nil {
				return nil, err
			}
			var req moderationRequest
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				return nil, err
			}
			id, err := validators.ParseUUID(req.DealID, "dealId")
			if err != nil {
				return nil, err
			}
			return apply(ctx, actor, id, req.Reason)
		}()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dealResponse{Envelope: responses.OK(message), Deal: deal})
	}
}

type simpleTransition func(ctx context.Context, actor *identity.AuthenticatedUser, id uuid.UUID) (*deals.DealDTO, error)

func withoutReason(fn simpleTransition) transition {
	return func(ctx context.Context, actor *identity.AuthenticatedUser, id uuid.UUID, _ string) (*deals.DealDTO, error) {
		return fn(ctx, actor, id)
	}
}

// ApproveDeal publishes a pending deal.
func ApproveDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return moderate(withoutReason(svc.Approve), "Deal approved", logg)
}

// RejectDeal rejects a deal with a moderator supplied reason.
func RejectDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return moderate(svc.Reject, "Deal rejected", logg)
}

// ArchiveDeal removes a live deal from the public feed.
func ArchiveDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return moderate(withoutReason(svc.Archive), "Deal archived", logg)
}

// RestoreDeal returns an archived or rejected deal to the feed.
func RestoreDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return moderate(withoutReason(svc.Restore), "Deal restored", logg)
}

// DeleteDeal permanently removes a rejected or archived deal.
func DeleteDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return moderate(func(ctx context.Context, actor *identity.AuthenticatedUser, id uuid.UUID, _ string) (*deals.DealDTO, error) {
		return nil, svc.Delete(ctx, actor, id)
	}, "Deal deleted", logg)
}
