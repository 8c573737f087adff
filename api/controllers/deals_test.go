package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealboard/dealboard-backend/internal/deals"
	"github.com/dealboard/dealboard-backend/internal/identity"
	"github.com/dealboard/dealboard-backend/pkg/enums"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
	"github.com/dealboard/dealboard-backend/pkg/pagination"
)

type stubDealService struct {
	viewer      *identity.AuthenticatedUser
	listParams  deals.ListParams
	minePage    pagination.Params
	id          uuid.UUID
	reason      string
	submitInput deals.SubmitInput
	called      string
	listResult  *deals.ListResult
	deal        *deals.DealDTO
	submit      *deals.SubmitResult
	err         error
}

func (s *stubDealService) List(_ context.Context, viewer *identity.AuthenticatedUser, params deals.ListParams) (*deals.ListResult, error) {
	s.called, s.viewer, s.listParams = "list", viewer, params
	return s.listResult, s.err
}

func (s *stubDealService) ListMine(_ context.Context, viewer *identity.AuthenticatedUser, page pagination.Params) (*deals.ListResult, error) {
	s.called, s.viewer, s.minePage = "mine", viewer, page
	return s.listResult, s.err
}

func (s *stubDealService) Get(_ context.Context, viewer *identity.AuthenticatedUser, id uuid.UUID) (*deals.DealDTO, error) {
	s.called, s.viewer, s.id = "get", viewer, id
	return s.deal, s.err
}

func (s *stubDealService) Submit(_ context.Context, submitter *identity.AuthenticatedUser, input deals.SubmitInput) (*deals.SubmitResult, error) {
	s.called, s.viewer, s.submitInput = "submit", submitter, input
	return s.submit, s.err
}

func (s *stubDealService) Approve(_ context.Context, actor *identity.AuthenticatedUser, id uuid.UUID) (*deals.DealDTO, error) {
	s.called, s.viewer, s.id = "approve", actor, id
	return s.deal, s.err
}

func (s *stubDealService) Reject(_ context.Context, actor *identity.AuthenticatedUser, id uuid.UUID, reason string) (*deals.DealDTO, error) {
	s.called, s.viewer, s.id, s.reason = "reject", actor, id, reason
	return s.deal, s.err
}

func (s *stubDealService) Archive(_ context.Context, actor *identity.AuthenticatedUser, id uuid.UUID) (*deals.DealDTO, error) {
	s.called, s.viewer, s.id = "archive", actor, id
	return s.deal, s.err
}

func (s *stubDealService) Restore(_ context.Context, actor *identity.AuthenticatedUser, id uuid.UUID) (*deals.DealDTO, error) {
	s.called, s.viewer, s.id = "restore", actor, id
	return s.deal, s.err
}

func (s *stubDealService) Delete(_ context.Context, actor *identity.AuthenticatedUser, id uuid.UUID) error {
	s.called, s.viewer, s.id = "delete", actor, id
	return s.err
}

func TestGetDealsParsesFilters(t *testing.T) {
	svc := &stubDealService{listResult: &deals.ListResult{
		Deals:   []deals.DealDTO{{ID: uuid.New(), Title: "Pizza"}},
		Total:   41,
		Page:    2,
		Limit:   20,
		HasMore: true,
	}}
	moderator := tokenUser(enums.RoleModerator)

	req := asUser(jsonRequest(http.MethodGet, "/api/get-deals?page=2&search=%20pizza%20&category=Food&status=pending&isArchived=false", ""), moderator)
	rec := serve(GetDeals(svc, nil), req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Same(t, moderator, svc.viewer)
	assert.Equal(t, pagination.Params{Page: 2, Limit: pagination.DefaultLimit}, svc.listParams.Page)
	assert.Equal(t, "pizza", svc.listParams.Search)
	require.NotNil(t, svc.listParams.Category)
	assert.Equal(t, enums.DealCategoryFood, *svc.listParams.Category)
	require.NotNil(t, svc.listParams.Status)
	assert.Equal(t, enums.DealStatusPending, *svc.listParams.Status)
	assert.False(t, svc.listParams.Archived)

	body := decodeBody[dealsListResponse](t, rec)
	assert.True(t, body.Success)
	assert.Len(t, body.Deals, 1)
	assert.Equal(t, int64(41), body.Total)
	assert.True(t, body.HasMore)
}

func TestGetDealsRejectsBadQuery(t *testing.T) {
	cases := map[string]string{
		"unknown category": "/api/get-deals?category=cars",
		"unknown status":   "/api/get-deals?status=deleted",
		"limit too large":  "/api/get-deals?limit=101",
		"page zero":        "/api/get-deals?page=0",
		"bad archived":     "/api/get-deals?isArchived=maybe",
	}
	for name, target := range cases {
		svc := &stubDealService{}
		rec := serve(GetDeals(svc, nil), jsonRequest(http.MethodGet, target, ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Empty(t, svc.called, name)
	}
}

func TestGetDealRequiresValidID(t *testing.T) {
	svc := &stubDealService{}

	rec := serve(GetDeal(svc, nil), jsonRequest(http.MethodGet, "/api/get-deal?dealId=not-a-uuid", ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid dealId", decodeBody[errorBody](t, rec).Message)

	rec = serve(GetDeal(svc, nil), jsonRequest(http.MethodGet, "/api/get-deal", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDealRelaysForbidden(t *testing.T) {
	id := uuid.New()
	svc := &stubDealService{err: pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: deal is not public")}

	rec := serve(GetDeal(svc, nil), jsonRequest(http.MethodGet, "/api/get-deal?dealId="+id.String(), ""))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, id, svc.id)
	assert.Nil(t, svc.viewer)
}

func TestSubmitDeal(t *testing.T) {
	dealID := uuid.New()
	svc := &stubDealService{submit: &deals.SubmitResult{Deal: &deals.DealDTO{ID: dealID}, AutoApproved: false}}
	user := tokenUser(enums.RoleUser)

	req := asUser(jsonRequest(http.MethodPost, "/api/submit-deal", `{
		"title": "Two for one pizza",
		"imageUrl": "https://cdn.example.com/images/a.png",
		"category": "food",
		"originalPrice": 20,
		"discountedPrice": "9.99",
		"expiryDays": 7,
		"userId": "ignored"
	}`), user)
	rec := serve(SubmitDeal(svc, nil), req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Same(t, user, svc.viewer)
	assert.Equal(t, "Two for one pizza", svc.submitInput.Title)
	assert.Equal(t, 7, svc.submitInput.ExpiryDays)
	require.NotNil(t, svc.submitInput.OriginalPrice)
	assert.True(t, decimal.NewFromInt(20).Equal(*svc.submitInput.OriginalPrice))
	require.NotNil(t, svc.submitInput.DiscountedPrice)
	assert.True(t, decimal.RequireFromString("9.99").Equal(*svc.submitInput.DiscountedPrice))

	body := decodeBody[submitDealResponse](t, rec)
	assert.Equal(t, "Deal submitted for review", body.Message)
	assert.Equal(t, dealID, body.Deal.ID)
	assert.False(t, body.AutoApproved)
}

func TestSubmitDealWithoutIdentity(t *testing.T) {
	svc := &stubDealService{}

	rec := serve(SubmitDeal(svc, nil), jsonRequest(http.MethodPost, "/api/submit-deal", `{}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.called)
}

func TestGetMyDeals(t *testing.T) {
	svc := &stubDealService{listResult: &deals.ListResult{Page: 1, Limit: 5}}
	user := tokenUser(enums.RoleUser)

	rec := serve(GetMyDeals(svc, nil), asUser(jsonRequest(http.MethodGet, "/api/get-my-deals?limit=5", ""), user))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mine", svc.called)
	assert.Equal(t, pagination.Params{Page: 1, Limit: 5}, svc.minePage)
	assert.Equal(t, []any{}, decodeBody[map[string]any](t, rec)["deals"])
}
