package controllers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealboard/dealboard-backend/internal/deals"
	"github.com/dealboard/dealboard-backend/pkg/enums"
	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
)

func TestModerationHandlersDispatch(t *testing.T) {
	handlers := map[string]func(deals.Service) http.HandlerFunc{
		"approve": func(s deals.Service) http.HandlerFunc { return ApproveDeal(s, nil) },
		"archive": func(s deals.Service) http.HandlerFunc { return ArchiveDeal(s, nil) },
		"restore": func(s deals.Service) http.HandlerFunc { return RestoreDeal(s, nil) },
	}
	for name, build := range handlers {
		id := uuid.New()
		svc := &stubDealService{deal: &deals.DealDTO{ID: id, Status: enums.DealStatusApproved}}
		admin := tokenUser(enums.RoleAdmin)

		rec := serve(build(svc), asUser(jsonRequest(http.MethodPost, "/api/"+name+"-deal", `{"dealId":"`+id.String()+`"}`), admin))

		require.Equal(t, http.StatusOK, rec.Code, name)
		assert.Equal(t, name, svc.called)
		assert.Equal(t, id, svc.id, name)
		assert.Same(t, admin, svc.viewer, name)
		body := decodeBody[dealResponse](t, rec)
		assert.True(t, body.Success, name)
		assert.Equal(t, id, body.Deal.ID, name)
	}
}

func TestModerationRequiresDealID(t *testing.T) {
	svc := &stubDealService{}
	mod := tokenUser(enums.RoleModerator)

	rec := serve(ApproveDeal(svc, nil), asUser(jsonRequest(http.MethodPost, "/api/approve-deal", `{}`), mod))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", decodeBody[errorBody](t, rec).Message)

	rec = serve(ApproveDeal(svc, nil), asUser(jsonRequest(http.MethodPost, "/api/approve-deal", `{"dealId":"42"}`), mod))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid dealId", decodeBody[errorBody](t, rec).Message)
	assert.Empty(t, svc.called)
}

func TestApproveDealRelaysStateConflict(t *testing.T) {
	svc := &stubDealService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "Only pending deals can be approved").
		WithDetails(map[string]any{"status": "rejected", "isArchived": true})}

	rec := serve(ApproveDeal(svc, nil), asUser(jsonRequest(http.MethodPost, "/api/approve-deal", `{"dealId":"`+uuid.NewString()+`"}`), tokenUser(enums.RoleModerator)))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), body.Code)
	assert.Equal(t, "rejected", body.Details["status"])
}

func TestRejectDealPassesReason(t *testing.T) {
	id := uuid.New()
	svc := &stubDealService{deal: &deals.DealDTO{ID: id, Status: enums.DealStatusRejected}}

	rec := serve(RejectDeal(svc, nil), asUser(jsonRequest(http.MethodPost, "/api/reject-deal",
		`{"dealId":"`+id.String()+`","reason":"Expired link"}`), tokenUser(enums.RoleModerator)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Expired link", svc.reason)
	assert.Equal(t, "Deal rejected", decodeBody[dealResponse](t, rec).Message)
}

func TestDeleteDeal(t *testing.T) {
	id := uuid.New()
	svc := &stubDealService{}

	rec := serve(DeleteDeal(svc, nil), asUser(jsonRequest(http.MethodPost, "/api/delete-deal", `{"dealId":"`+id.String()+`"}`), tokenUser(enums.RoleAdmin)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "delete", svc.called)
	assert.Equal(t, id, svc.id)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "Deal deleted", body["message"])
	assert.NotContains(t, body, "deal")
}
