package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized},
		{code: CodeForbidden, status: http.StatusForbidden},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeConflict, status: http.StatusConflict},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeIdempotency, status: http.StatusConflict, detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests},
		{code: CodeInternal, status: http.StatusInternalServerError},
		{code: CodeDependency, status: http.StatusServiceUnavailable, detailsOK: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.detailsOK, meta.DetailsAllowed)
			assert.NotEmpty(t, meta.PublicMessage)
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
	assert.Equal(t, GenericMessage, meta.PublicMessage)
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "Missing required fields")
	assert.Equal(t, CodeValidation, base.Code())
	assert.Equal(t, "Missing required fields", base.Message())
	assert.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "title"})
	assert.Equal(t, map[string]any{"field": "title"}, base.Details())

	cause := stdErrors.New("duplicate key value")
	wrapped := Wrap(CodeConflict, cause, "Username already taken")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeConflict, wrapped.Code())
	assert.Contains(t, wrapped.Error(), "duplicate key value")
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "Forbidden: admin permissions required")
	outer := stdErrors.Join(stdErrors.New("context"), err)

	got := As(outer)
	require.NotNil(t, got)
	assert.Equal(t, CodeForbidden, got.Code())
	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("plain")))
}

func TestNilErrorIsSafe(t *testing.T) {
	var e *Error
	assert.Equal(t, CodeInternal, e.Code())
	assert.Empty(t, e.Message())
	assert.Nil(t, e.WithDetails("x"))
	assert.NoError(t, e.Unwrap())
}

func TestDumpCollectsPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "votes_deal_device_key", TableName: "votes"}
	err := Wrap(CodeConflict, pgErr, "insert vote")

	d := Dump(err)
	assert.Equal(t, CodeConflict, d.Code)
	require.NotNil(t, d.PG)
	assert.Equal(t, "23505", d.PG.Code)
	assert.Len(t, d.Chain, 2)

	fields := d.Fields()
	assert.Equal(t, "votes_deal_device_key", fields["pg_constraint"])
	assert.Equal(t, CodeConflict, fields["error_code"])
}

func TestDumpWithoutDriverError(t *testing.T) {
	d := Dump(stdErrors.New("plain"))
	assert.Nil(t, d.PG)
	assert.NotContains(t, d.Fields(), "pg_code")
	assert.Equal(t, ErrorDump{}, Dump(nil))
}
