package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/landhub-backend/api/middleware"
	"github.com/angelmondragon/landhub-backend/internal/bids"
	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
)

type stubBidsService struct {
	placeFn    func(ctx context.Context, input bids.PlaceBidInput) (*models.Bid, error)
	withdrawFn func(ctx context.Context, bidID, requesterID uuid.UUID) (*models.Bid, error)
	acceptFn   func(ctx context.Context, bidID, sellerID uuid.UUID) (*models.Bid, error)
	listFn     func(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error)
}

func (s *stubBidsService) PlaceBid(ctx context.Context, input bids.PlaceBidInput) (*models.Bid, error) {
	return s.placeFn(ctx, input)
}

func (s *stubBidsService) WithdrawBid(ctx context.Context, bidID, requesterID uuid.UUID) (*models.Bid, error) {
	return s.withdrawFn(ctx, bidID, requesterID)
}

func (s *stubBidsService) AcceptBid(ctx context.Context, bidID, sellerID uuid.UUID) (*models.Bid, error) {
	return s.acceptFn(ctx, bidID, sellerID)
}

func (s *stubBidsService) ListBidsForListing(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error) {
	return s.listFn(ctx, listingID)
}

func (s *stubBidsService) ListBidsForBidder(ctx context.Context, bidderID uuid.UUID, params pagination.Params) (*bids.ListResult, error) {
	return &bids.ListResult{Bids: []bids.BidDTO{}}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

func withUser(req *http.Request, userID uuid.UUID, name string) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), userID.String(), string(enums.UserRoleBuyer), name))
}

func TestPlaceBidCreated(t *testing.T) {
	bidder := uuid.New()
	listingID := uuid.New()
	var got bids.PlaceBidInput
	svc := &stubBidsService{placeFn: func(ctx context.Context, input bids.PlaceBidInput) (*models.Bid, error) {
		got = input
		return &models.Bid{ID: uuid.New(), ListingID: input.ListingID, BidderID: input.BidderID, Amount: input.Amount, Status: enums.BidStatusActive, Sequence: 1, CreatedAt: time.Now()}, nil
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bids", strings.NewReader(`{"listingId":"`+listingID.String()+`","amount":510000}`))
	req = withUser(req, bidder, "Dana")
	resp := httptest.NewRecorder()
	PlaceBid(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, listingID, got.ListingID)
	assert.Equal(t, bidder, got.BidderID)
	assert.Equal(t, "Dana", got.BidderName)
	assert.Equal(t, int64(510000), got.Amount)

	var envelope struct {
		Data bids.BidDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, enums.BidStatusActive, envelope.Data.Status)
}

func TestPlaceBidRejectsNonPositiveAmount(t *testing.T) {
	svc := &stubBidsService{placeFn: func(ctx context.Context, input bids.PlaceBidInput) (*models.Bid, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bids", strings.NewReader(`{"listingId":"`+uuid.NewString()+`","amount":-5}`))
	req = withUser(req, uuid.New(), "")
	resp := httptest.NewRecorder()
	PlaceBid(svc, testLogger())(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPlaceBidTooLowReturnsMinimum(t *testing.T) {
	svc := &stubBidsService{placeFn: func(ctx context.Context, input bids.PlaceBidInput) (*models.Bid, error) {
		return nil, pkgerrors.New(pkgerrors.CodeBidTooLow, "bid is below the minimum acceptable amount").
			WithDetails(bids.MinimumDetails{MinimumAcceptable: 520000})
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bids", strings.NewReader(`{"listingId":"`+uuid.NewString()+`","amount":515000}`))
	req = withUser(req, uuid.New(), "")
	resp := httptest.NewRecorder()
	PlaceBid(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var envelope struct {
		Error struct {
			Code    string              `json:"code"`
			Details bids.MinimumDetails `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeBidTooLow), envelope.Error.Code)
	assert.Equal(t, int64(520000), envelope.Error.Details.MinimumAcceptable)
}

func TestPlaceBidRequiresUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bids", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	PlaceBid(&stubBidsService{}, testLogger())(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestListBidsRequiresListingID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bids", nil)
	resp := httptest.NewRecorder()
	ListBids(&stubBidsService{}, testLogger())(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListBidsWrapsHistory(t *testing.T) {
	listingID := uuid.New()
	svc := &stubBidsService{listFn: func(ctx context.Context, id uuid.UUID) ([]models.Bid, error) {
		require.Equal(t, listingID, id)
		return []models.Bid{
			{ID: uuid.New(), ListingID: id, Amount: 520000, Sequence: 2, Status: enums.BidStatusActive},
			{ID: uuid.New(), ListingID: id, Amount: 510000, Sequence: 1, Status: enums.BidStatusOutbid},
		}, nil
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bids?listingId="+listingID.String(), nil)
	resp := httptest.NewRecorder()
	ListBids(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data bids.ListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Bids, 2)
	assert.Equal(t, int64(2), envelope.Data.Bids[0].Sequence)
}

func TestWithdrawBidForbidden(t *testing.T) {
	bidID := uuid.New()
	svc := &stubBidsService{withdrawFn: func(ctx context.Context, id, requester uuid.UUID) (*models.Bid, error) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the bidder can withdraw this bid")
	}}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bids/"+bidID.String(), nil)
	req = withUser(req, uuid.New(), "")
	req = addRouteParam(req, "bidId", bidID.String())
	resp := httptest.NewRecorder()
	WithdrawBid(svc, testLogger())(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAcceptBidConflict(t *testing.T) {
	bidID := uuid.New()
	svc := &stubBidsService{acceptFn: func(ctx context.Context, id, seller uuid.UUID) (*models.Bid, error) {
		return nil, pkgerrors.Conflict("already_sold", "listing already sold")
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bids/"+bidID.String()+"/accept", nil)
	req = withUser(req, uuid.New(), "")
	req = addRouteParam(req, "bidId", bidID.String())
	resp := httptest.NewRecorder()
	AcceptBid(svc, testLogger())(resp, req)
	assert.Equal(t, http.StatusConflict, resp.Code)
}
