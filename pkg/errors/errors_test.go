package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRendering(t *testing.T) {
	cases := map[Code]Metadata{
		CodeValidation:   {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true},
		CodeUnauthorized: {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
		CodeForbidden:    {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
		CodeNotFound:     {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
		CodeConflict:     {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected", DetailsAllowed: true},
		CodeBidTooLow:    {HTTPStatus: http.StatusBadRequest, PublicMessage: "bid below minimum acceptable amount", DetailsAllowed: true},
		CodeIdempotency:  {HTTPStatus: http.StatusConflict, PublicMessage: "idempotency key reused", DetailsAllowed: true},
		CodeRateLimit:    {HTTPStatus: http.StatusTooManyRequests, PublicMessage: "rate limit exceeded"},
		CodeInternal:     {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error", Retryable: true},
		CodeDependency:   {HTTPStatus: http.StatusServiceUnavailable, PublicMessage: "dependency unavailable", Retryable: true, DetailsAllowed: true},
	}
	for code, want := range cases {
		assert.Equal(t, want, MetadataFor(code), string(code))
	}
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "load listing")

	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeDependency, wrapped.Code())
	assert.Equal(t, "DEPENDENCY_ERROR: load listing", wrapped.Error())
	assert.Nil(t, New(CodeValidation, "x").Details())
}

func TestWithDetailsDoesNotMutateReceiver(t *testing.T) {
	shared := New(CodeValidation, "bad input")
	detailed := shared.WithDetails(map[string]string{"amount": "is required"})

	assert.Nil(t, shared.Details())
	assert.NotNil(t, detailed.Details())
	assert.Equal(t, shared.Message(), detailed.Message())
	var nilErr *Error
	assert.Nil(t, nilErr.WithDetails("x"))
}

func TestConflictReasonSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("listing_not_active", "listing is not accepting bids"))

	assert.Equal(t, "listing_not_active", ReasonOf(err))
	assert.True(t, HasCode(err, CodeConflict))
	assert.Empty(t, ReasonOf(New(CodeConflict, "plain")))
	assert.Empty(t, ReasonOf(stdErrors.New("untyped")))
	assert.False(t, HasCode(stdErrors.New("untyped"), CodeConflict))
}

func TestAs(t *testing.T) {
	got := As(fmt.Errorf("ctx: %w", New(CodeForbidden, "no entry")))
	require.NotNil(t, got)
	assert.Equal(t, CodeForbidden, got.Code())
	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("plain")))
}

func TestLogFieldsWalksChain(t *testing.T) {
	fields := LogFields(Wrap(CodeDependency, stdErrors.New("connection refused"), "load listing"))

	assert.Equal(t, string(CodeDependency), fields["error_code"])
	assert.Len(t, fields["error_chain"], 2)
	assert.Equal(t, true, fields["retryable"])
	assert.NotContains(t, fields, "pg_code")
}

func TestLogFieldsIncludesPostgresDiagnostics(t *testing.T) {
	fields := LogFields(fmt.Errorf("insert bid: %w", &pgconn.PgError{
		Code: "23505", ConstraintName: "ux_bids_one_active_per_listing", TableName: "bids",
	}))
	assert.Equal(t, "23505", fields["pg_code"])
	assert.Equal(t, "ux_bids_one_active_per_listing", fields["pg_constraint"])

	fields = LogFields(&pq.Error{Code: "40001", Table: "offers"})
	assert.Equal(t, "40001", fields["pg_code"])
	assert.Equal(t, "offers", fields["pg_table"])
}

func TestLogFieldsCarriesConflictReason(t *testing.T) {
	assert.Equal(t, "listing_not_active", LogFields(Conflict("listing_not_active", "listing closed"))["reason"])
	assert.Empty(t, LogFields(nil))
}
