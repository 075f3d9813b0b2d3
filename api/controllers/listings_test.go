package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/landhub-backend/internal/listings"
	"github.com/angelmondragon/landhub-backend/pkg/config"
	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
)

// stubListingsService embeds the interface so tests only implement what they call.
type stubListingsService struct {
	listings.Service
	listFn    func(ctx context.Context, filters listings.ListFilters, params pagination.Params) (*listings.ListResult, error)
	createFn  func(ctx context.Context, sellerID uuid.UUID, input listings.CreateListingInput) (*models.Listing, error)
	publishFn func(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

func (s *stubListingsService) ListListings(ctx context.Context, filters listings.ListFilters, params pagination.Params) (*listings.ListResult, error) {
	return s.listFn(ctx, filters, params)
}

func (s *stubListingsService) CreateListing(ctx context.Context, sellerID uuid.UUID, input listings.CreateListingInput) (*models.Listing, error) {
	return s.createFn(ctx, sellerID, input)
}

func (s *stubListingsService) PublishListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return s.publishFn(ctx, id)
}

func TestListListingsParsesFilters(t *testing.T) {
	var gotFilters listings.ListFilters
	var gotParams pagination.Params
	svc := &stubListingsService{listFn: func(ctx context.Context, filters listings.ListFilters, params pagination.Params) (*listings.ListResult, error) {
		gotFilters = filters
		gotParams = params
		return &listings.ListResult{Listings: []listings.ListingDTO{}}, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?search=river&category=agricultural&minPrice=100000&maxPrice=900000&limit=10", nil)
	resp := httptest.NewRecorder()
	ListListings(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "river", gotFilters.Search)
	require.NotNil(t, gotFilters.Category)
	assert.Equal(t, enums.ListingCategoryAgricultural, *gotFilters.Category)
	require.NotNil(t, gotFilters.MinPrice)
	assert.Equal(t, int64(100000), *gotFilters.MinPrice)
	assert.Equal(t, 10, gotParams.Limit)
}

func TestListListingsRejectsInvertedRange(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?minPrice=10&maxPrice=5", nil)
	resp := httptest.NewRecorder()
	ListListings(&stubListingsService{}, testLogger())(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListListingsRejectsUnknownCategory(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?category=lunar", nil)
	resp := httptest.NewRecorder()
	ListListings(&stubListingsService{}, testLogger())(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateListingCreated(t *testing.T) {
	seller := uuid.New()
	svc := &stubListingsService{createFn: func(ctx context.Context, sellerID uuid.UUID, input listings.CreateListingInput) (*models.Listing, error) {
		assert.Equal(t, seller, sellerID)
		assert.Nil(t, input.MinIncrement)
		return &models.Listing{ID: uuid.New(), SellerID: sellerID, Title: input.Title, BasePrice: input.BasePrice, MinIncrement: 10000, Status: enums.ListingStatusDraft}, nil
	}}
	body := `{"title":"North Ridge","description":"Flat parcel","category":"residential","location":"Austin, TX","areaSqm":1200.5,"basePrice":500000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(body))
	req = withUser(req, seller, "Maria")
	resp := httptest.NewRecorder()
	CreateListing(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"draft"`)
}

func TestAdminPublishListing(t *testing.T) {
	listingID := uuid.New()
	svc := &stubListingsService{publishFn: func(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
		return &models.Listing{ID: id, Status: enums.ListingStatusActive}, nil
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/listings/"+listingID.String()+"/publish", nil)
	req = addRouteParam(req, "listingId", listingID.String())
	resp := httptest.NewRecorder()
	AdminPublishListing(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"active"`)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"database": stubPinger{}, "redis": stubPinger{}})(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"redis": stubPinger{err: errors.New("down")}})(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), `"dependency":"redis"`)
}
