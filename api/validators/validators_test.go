package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/dealboard/dealboard-backend/pkg/errors"
)

type sampleBody struct {
	Email string `json:"email" validate:"required,email"`
	Link  string `json:"link" validate:"omitempty,url"`
}

func TestDecodeJSONBodyIgnoresUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","userId":"legacy"}`))
	var body sampleBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "a@b.co", body.Email)
}

func TestDecodeJSONBodyValidation(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"link":"not a url"}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "Missing required fields", typed.Message())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["email"])
	assert.Equal(t, "must be a valid URL", details["link"])
}

func TestDecodeJSONBodyRejectsMalformedAndOversized(t *testing.T) {
	var body sampleBody
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`)), &body)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	err = DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &body)
	require.Error(t, err)
	assert.Equal(t, "Missing request body", pkgerrors.As(err).Message())

	big := `{"email":"` + strings.Repeat("a", 64) + `@b.co"}`
	err = DecodeJSONBodyLimit(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big)), &body, 16)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500&isArchived=TRUE&dealId=bogus&flag=maybe", nil)

	page, err := ParseQueryInt(req, "page", 1, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	_, err = ParseQueryInt(req, "limit", 20, 1, 100)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	def, err := ParseQueryInt(req, "missing", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, def)

	archived, err := ParseQueryBool(req, "isArchived", false)
	require.NoError(t, err)
	assert.True(t, archived)

	_, err = ParseQueryBool(req, "flag", false)
	assert.Error(t, err)

	_, err = ParseQueryUUID(req, "dealId")
	require.Error(t, err)
	assert.Equal(t, "Invalid dealId", pkgerrors.As(err).Message())

	_, err = ParseQueryUUID(req, "other")
	require.Error(t, err)
	assert.Equal(t, "Missing other", pkgerrors.As(err).Message())
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello\nworld", SanitizeString("  hel\x00lo\nworld\t ", 0))
	assert.Equal(t, "ééé", SanitizeString("éééé", 3))
}
