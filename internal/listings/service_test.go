package listings

import (
	"context"
	"testing"

	"github.com/angelmondragon/landhub-backend/internal/ledgertest"
	"github.com/angelmondragon/landhub-backend/pkg/db"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/locks"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := ledgertest.Open(t)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), locks.NewKeyedMutex(), 10000)
	require.NoError(t, err)
	return svc, conn
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	conn := ledgertest.Open(t)
	repo := NewRepository(conn)
	runner := db.NewFromConn(conn)

	_, err := NewService(nil, runner, locks.NewKeyedMutex(), 1)
	require.Error(t, err)
	_, err = NewService(repo, nil, locks.NewKeyedMutex(), 1)
	require.Error(t, err)
	_, err = NewService(repo, runner, nil, 1)
	require.Error(t, err)
	_, err = NewService(repo, runner, locks.NewKeyedMutex(), 0)
	require.Error(t, err)
}

func TestCreateListingDefaultsIncrementAndDraft(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seller := uuid.New()

	listing, err := svc.CreateListing(ctx, seller, CreateListingInput{
		Title:     "  Orchard  ",
		Category:  enums.ListingCategoryAgricultural,
		BasePrice: 250000,
	})
	require.NoError(t, err)
	require.Equal(t, "Orchard", listing.Title)
	require.Equal(t, enums.ListingStatusDraft, listing.Status)
	require.Equal(t, int64(10000), listing.MinIncrement)

	custom := int64(500)
	listing, err = svc.CreateListing(ctx, seller, CreateListingInput{
		Title:        "Lot",
		Category:     enums.ListingCategoryResidential,
		BasePrice:    1000,
		MinIncrement: &custom,
	})
	require.NoError(t, err)
	require.Equal(t, custom, listing.MinIncrement)
}

func TestCreateListingValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]CreateListingInput{
		"missing title":  {Category: enums.ListingCategoryAgricultural, BasePrice: 1},
		"bad category":   {Title: "x", Category: "swamp", BasePrice: 1},
		"zero price":     {Title: "x", Category: enums.ListingCategoryAgricultural},
		"negative area":  {Title: "x", Category: enums.ListingCategoryAgricultural, BasePrice: 1, AreaSqm: -1},
		"zero increment": {Title: "x", Category: enums.ListingCategoryAgricultural, BasePrice: 1, MinIncrement: new(int64)},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateListing(ctx, uuid.New(), input)
			require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestGetListingNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetListing(context.Background(), uuid.New())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestSetStatusTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	listing, err := svc.CreateListing(ctx, uuid.New(), CreateListingInput{
		Title:     "Parcel",
		Category:  enums.ListingCategoryIndustrial,
		BasePrice: 1000,
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, listing.ID, enums.ListingStatusSold)
	require.Equal(t, ReasonInvalidTransition, pkgerrors.ReasonOf(err))

	published, err := svc.PublishListing(ctx, listing.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusActive, published.Status)

	_, err = svc.SetStatus(ctx, listing.ID, enums.ListingStatusDraft)
	require.Equal(t, ReasonInvalidTransition, pkgerrors.ReasonOf(err))

	_, err = svc.SetStatus(ctx, listing.ID, enums.ListingStatusSold)
	require.Equal(t, ReasonInvalidTransition, pkgerrors.ReasonOf(err), "sold requires MarkSold")

	inactive, err := svc.SetStatus(ctx, listing.ID, enums.ListingStatusInactive)
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusInactive, inactive.Status)

	_, err = svc.SetStatus(ctx, listing.ID, "archived")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestWithdrawListingSellerOnly(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seller := uuid.New()
	listing := ledgertest.SeedListing(t, conn, seller, 1000, 100)

	_, err := svc.WithdrawListing(ctx, listing.ID, uuid.New())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	withdrawn, err := svc.WithdrawListing(ctx, listing.ID, seller)
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusInactive, withdrawn.Status)

	_, err = svc.WithdrawListing(ctx, listing.ID, seller)
	require.Equal(t, ReasonInvalidTransition, pkgerrors.ReasonOf(err))
}

func TestMarkSold(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	listing := ledgertest.SeedListing(t, conn, uuid.New(), 1000, 100)
	winner := uuid.New()

	sold, err := svc.MarkSold(ctx, listing.ID, winner)
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusSold, sold.Status)
	require.Equal(t, winner, *sold.CurrentHighestBidID)

	_, err = svc.MarkSold(ctx, listing.ID, uuid.New())
	require.Equal(t, ReasonAlreadySold, pkgerrors.ReasonOf(err))

	draft, err := svc.CreateListing(ctx, uuid.New(), CreateListingInput{
		Title:     "Draft",
		Category:  enums.ListingCategoryAgricultural,
		BasePrice: 1000,
	})
	require.NoError(t, err)
	_, err = svc.MarkSold(ctx, draft.ID, winner)
	require.Equal(t, ReasonNotActive, pkgerrors.ReasonOf(err))

	stored, err := svc.GetListing(ctx, listing.ID)
	require.NoError(t, err)
	require.Equal(t, winner, *stored.CurrentHighestBidID)
}

func TestListListingsPaginates(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seller := uuid.New()
	for i := 0; i < 3; i++ {
		ledgertest.SeedListing(t, conn, seller, int64(1000*(i+1)), 100)
	}

	page, err := svc.ListListings(ctx, ListFilters{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Listings, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.ListListings(ctx, ListFilters{}, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Listings, 1)
	require.Empty(t, rest.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, l := range append(page.Listings, rest.Listings...) {
		require.False(t, seen[l.ID])
		seen[l.ID] = true
	}

	minPrice, maxPrice := int64(5), int64(1)
	_, err = svc.ListListings(ctx, ListFilters{MinPrice: &minPrice, MaxPrice: &maxPrice}, pagination.Params{})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.ListListings(ctx, ListFilters{}, pagination.Params{Cursor: "%%%"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
