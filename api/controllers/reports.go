package controllers

import (
	"net/http"

	"github.com/dealboard/dealboard-backend/api/responses"
	"github.com/dealboard/dealboard-backend/api/validators"
	"github.com/dealboard/dealboard-backend/internal/reports"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/types"
)

type reportDealRequest struct {
	DealID  string `json:"dealId"`
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

type reportDealResponse struct {
	types.Envelope
	reports.ReportResult
}

// ReportDeal files an abuse report from the resolved caller.
func ReportDeal(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reporter, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req reportDealRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dealID, err := optionalUUID(req.DealID, "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Report(r.Context(), reports.ReportInput{
			DealID:   dealID,
			Reporter: reporter.ID,
			Reason:   req.Reason,
			Details:  req.Details,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reportDealResponse{
			Envelope:     responses.OK("Report submitted"),
			ReportResult: *result,
		})
	}
}
