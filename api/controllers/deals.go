package controllers

import (
	"math"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dealboard/dealboard-backend/api/middleware"
	"github.com/dealboard/dealboard-backend/api/responses"
	"github.com/dealboard/dealboard-backend/api/validators"
	"github.com/dealboard/dealboard-backend/internal/deals"
	"github.com/dealboard/dealboard-backend/pkg/enums"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/pagination"
	"github.com/dealboard/dealboard-backend/pkg/types"
)

const maxSearchLen = 100

type dealsListResponse struct {
	types.Envelope
	Deals   []deals.DealDTO `json:"deals"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
	HasMore bool            `json:"hasMore"`
}

type dealResponse struct {
	types.Envelope
	Deal *deals.DealDTO `json:"deal,omitempty"`
}

type submitDealRequest struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	ImageURL        string           `json:"imageUrl"`
	Link            string           `json:"link"`
	Location        string           `json:"location"`
	Category        string           `json:"category"`
	PromoCode       string           `json:"promoCode"`
	OriginalPrice   *decimal.Decimal `json:"originalPrice"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
	ExpiryDays      int              `json:"expiryDays"`
}

type submitDealResponse struct {
	types.Envelope
	Deal         *deals.DealDTO `json:"deal"`
	AutoApproved bool           `json:"autoApproved"`
}

// newListResponse always renders deals as an array, never null.
func newListResponse(result *deals.ListResult) dealsListResponse {
	items := result.Deals
	if items == nil {
		items = []deals.DealDTO{}
	}
	return dealsListResponse{
		Envelope: responses.OK(""),
		Deals:    items,
		Total:    result.Total,
		Page:     result.Page,
		Limit:    result.Limit,
		HasMore:  result.HasMore,
	}
}

func parsePage(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", pagination.DefaultPage, 1, math.MaxInt32)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}

func parseListParams(r *http.Request) (deals.ListParams, error) {
	page, err := parsePage(r)
	if err != nil {
		return deals.ListParams{}, err
	}
	archived, err := validators.ParseQueryBool(r, "isArchived", false)
	if err != nil {
		return deals.ListParams{}, err
	}
	params := deals.ListParams{
		Page:     page,
		Search:   validators.SanitizeString(r.URL.Query().Get("search"), maxSearchLen),
		Archived: archived,
	}

	if raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category"))); raw != "" {
		category, err := enums.ParseDealCategory(raw)
		if err != nil {
			return deals.ListParams{}, pkgerrors.New(pkgerrors.CodeValidation, "Invalid category")
		}
		params.Category = &category
	}
	if raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))); raw != "" {
		status, err := enums.ParseDealStatus(raw)
		if err != nil {
			return deals.ListParams{}, pkgerrors.New(pkgerrors.CodeValidation, "Invalid status")
		}
		params.Status = &status
	}
	return params, nil
}

// GetDeals lists the public feed, or the moderation views for moderators.
func GetDeals(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.AuthenticatedUserFromContext(r.Context())
		result, err := svc.List(r.Context(), viewer, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newListResponse(result))
	}
}

// GetDeal returns one deal when the caller may see it.
func GetDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseQueryUUID(r, "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.AuthenticatedUserFromContext(r.Context())
		deal, err := svc.Get(r.Context(), viewer, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dealResponse{Envelope: responses.OK(""), Deal: deal})
	}
}

// SubmitDeal stores a new deal, queued for moderation unless the submitter is trusted.
func SubmitDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req submitDealRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), user, deals.SubmitInput{
			Title:           req.Title,
			Description:     req.Description,
			ImageURL:        req.ImageURL,
			Link:            req.Link,
			Location:        req.Location,
			Category:        req.Category,
			PromoCode:       req.PromoCode,
			OriginalPrice:   req.OriginalPrice,
			DiscountedPrice: req.DiscountedPrice,
			ExpiryDays:      req.ExpiryDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message := "Deal submitted for review"
		if result.AutoApproved {
			message = "Deal published"
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, submitDealResponse{
			Envelope:     responses.OK(message),
			Deal:         result.Deal,
			AutoApproved: result.AutoApproved,
		})
	}
}

// GetMyDeals lists the caller's own submissions in every state.
func GetMyDeals(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListMine(r.Context(), user, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newListResponse(result))
	}
}
