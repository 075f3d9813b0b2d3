package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bidBody struct {
	ListingID string `json:"listingId" validate:"required,uuid"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"listingId":"nope","amount":0}`))
	var body bidBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid uuid", details["listingId"])
	assert.Equal(t, "is required", details["amount"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"listingId":"`+uuid.NewString()+`","amount":5,"extra":true}`))
	var body bidBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyRejectsTrailingData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"listingId":"`+uuid.NewString()+`","amount":5}{"amount":6}`))
	var body bidBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyReportsBadTypesAndEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"listingId":"x","amount":"lots"}`))
	var body bidBody
	err := DecodeJSONBody(req, &body)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be int64", details["amount"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err = DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, "request body is required", pkgerrors.As(err).Message())
}

func TestDecodeJSONBodyEnforcesSizeLimit(t *testing.T) {
	huge := `{"listingId":"` + strings.Repeat("a", MaxBodyBytes) + `","amount":1}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	var body bidBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Contains(t, pkgerrors.As(err).Message(), "exceeds")
}

type counterBody struct {
	Title         string `json:"title" validate:"required,notblank"`
	Action        string `json:"action" validate:"required,oneof=accept reject counter"`
	CounterAmount *int64 `json:"counterAmount,omitempty" validate:"required_if=Action counter,omitempty,gt=0"`
}

func TestDecodeJSONBodyConditionalAndBlankRules(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"   ","action":"counter"}`))
	var body counterBody
	err := DecodeJSONBody(req, &body)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must not be blank", details["title"])
	assert.Equal(t, "is required", details["counterAmount"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Lot 7","action":"reject"}`))
	body = counterBody{}
	require.NoError(t, DecodeJSONBody(req, &body))
}

func TestDecodeJSONBodyAccepts(t *testing.T) {
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"listingId":"`+id+`","amount":510000}`))
	var body bidBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, id, body.ListingID)
	assert.Equal(t, int64(510000), body.Amount)
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&minPrice=100&unread=true&listingId=bad", nil)

	limit, err := ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, limit)

	minPrice, err := ParseQueryInt64(req, "minPrice")
	require.NoError(t, err)
	require.NotNil(t, minPrice)
	assert.Equal(t, int64(100), *minPrice)

	maxPrice, err := ParseQueryInt64(req, "maxPrice")
	require.NoError(t, err)
	assert.Nil(t, maxPrice)

	unread, err := ParseQueryBool(req, "unread")
	require.NoError(t, err)
	assert.True(t, unread)

	_, err = ParseQueryUUID(req, "listingId")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/bids/"+id.String(), nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("bidId", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseUUIDParam(req, "bidId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(req, "offerId")
	assert.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	assert.Equal(t, "hello", SanitizeString(" hello ", 0))
	assert.Equal(t, "Plot near Pune", SanitizeString("Plot near\x00 Pune", 0))
	assert.Equal(t, "Bhūmi", SanitizeString("Bhūmi Estate", 5), "truncation counts runes")
	assert.Equal(t, "line one\nline two", SanitizeString("line one\nline two", 0))
}
