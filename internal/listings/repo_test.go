package listings

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/landhub-backend/internal/ledgertest"
	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRepositoryReserveBidSequenceIsMonotonic(t *testing.T) {
	db := ledgertest.Open(t)
	listing := ledgertest.SeedListing(t, db, uuid.New(), 500000, 10000)
	repo := NewRepository(db)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.ReserveBidSequence(ctx, listing.ID)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := repo.ReserveBidSequence(ctx, uuid.New())
	require.Error(t, err)
}

func TestRepositorySwapHighestBidChecksVersion(t *testing.T) {
	db := ledgertest.Open(t)
	listing := ledgertest.SeedListing(t, db, uuid.New(), 500000, 10000)
	repo := NewRepository(db)
	ctx := context.Background()
	bidID := uuid.New()

	ok, err := repo.SwapHighestBid(ctx, listing.ID, listing.Version+1, &bidID)
	require.NoError(t, err)
	require.False(t, ok, "stale version must not win")

	ok, err = repo.SwapHighestBid(ctx, listing.ID, listing.Version, &bidID)
	require.NoError(t, err)
	require.True(t, ok)

	stored, err := repo.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	require.Equal(t, listing.Version+1, stored.Version)
	require.NotNil(t, stored.CurrentHighestBidID)
	require.Equal(t, bidID, *stored.CurrentHighestBidID)
}

func TestRepositoryMarkSoldFreezesPointer(t *testing.T) {
	db := ledgertest.Open(t)
	listing := ledgertest.SeedListing(t, db, uuid.New(), 500000, 10000)
	repo := NewRepository(db)
	ctx := context.Background()
	winner := uuid.New()

	ok, err := repo.MarkSold(ctx, listing.ID, listing.Version, winner)
	require.NoError(t, err)
	require.True(t, ok)

	stored, err := repo.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ListingStatusSold, stored.Status)

	other := uuid.New()
	ok, err = repo.SwapHighestBid(ctx, listing.ID, stored.Version, &other)
	require.NoError(t, err)
	require.False(t, ok, "sold listings keep their winning pointer")

	ok, err = repo.MarkSold(ctx, listing.ID, stored.Version, other)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRepositoryListFiltersAndPaginates(t *testing.T) {
	db := ledgertest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	seller := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := func(title string, category enums.ListingCategory, price int64, status enums.ListingStatus, offset time.Duration) *models.Listing {
		l := &models.Listing{
			ID:           uuid.New(),
			SellerID:     seller,
			Title:        title,
			Description:  "parcel",
			Category:     category,
			BasePrice:    price,
			MinIncrement: 1000,
			Status:       status,
			CreatedAt:    base.Add(offset),
			UpdatedAt:    base.Add(offset),
		}
		require.NoError(t, repo.Create(ctx, l))
		return l
	}

	oldest := seed("Hillside Farm", enums.ListingCategoryAgricultural, 100000, enums.ListingStatusActive, 0)
	middle := seed("Downtown Lot", enums.ListingCategoryCommercial, 300000, enums.ListingStatusActive, time.Minute)
	newest := seed("Lakeside Farm", enums.ListingCategoryAgricultural, 500000, enums.ListingStatusActive, 2*time.Minute)
	seed("Draft Farm", enums.ListingCategoryAgricultural, 200000, enums.ListingStatusDraft, 3*time.Minute)

	rows, err := repo.List(ctx, listListingsParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, newest.ID, rows[0].ID)
	require.Equal(t, oldest.ID, rows[2].ID)

	rows, err = repo.List(ctx, listListingsParams{ListFilters: ListFilters{Search: "FARM"}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	category := enums.ListingCategoryCommercial
	rows, err = repo.List(ctx, listListingsParams{ListFilters: ListFilters{Category: &category}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, middle.ID, rows[0].ID)

	minPrice, maxPrice := int64(200000), int64(400000)
	rows, err = repo.List(ctx, listListingsParams{ListFilters: ListFilters{MinPrice: &minPrice, MaxPrice: &maxPrice}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, middle.ID, rows[0].ID)

	rows, err = repo.List(ctx, listListingsParams{
		Limit:  10,
		Cursor: &pagination.Cursor{CreatedAt: newest.CreatedAt, ID: newest.ID},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, middle.ID, rows[0].ID)
}

func TestRepositoryUpdateStatusGuardsFrom(t *testing.T) {
	db := ledgertest.Open(t)
	listing := ledgertest.SeedListing(t, db, uuid.New(), 500000, 10000)
	repo := NewRepository(db)
	ctx := context.Background()

	ok, err := repo.UpdateStatus(ctx, listing.ID, enums.ListingStatusDraft, enums.ListingStatusActive)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.UpdateStatus(ctx, listing.ID, enums.ListingStatusActive, enums.ListingStatusInactive)
	require.NoError(t, err)
	require.True(t, ok)
}
