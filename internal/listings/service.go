package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/locks"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the listing registry. The *Tx methods join a transaction
// opened by the bid ledger or the offer tracker, which already hold the
// listing lock.
type Service interface {
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListListings(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error)
	CreateListing(ctx context.Context, sellerID uuid.UUID, input CreateListingInput) (*models.Listing, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.ListingStatus) (*models.Listing, error)
	PublishListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	WithdrawListing(ctx context.Context, id, sellerID uuid.UUID) (*models.Listing, error)
	MarkSold(ctx context.Context, id, winningBidID uuid.UUID) (*models.Listing, error)

	LockForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error)
	ReserveBidSequence(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	SwapHighestBid(ctx context.Context, tx *gorm.DB, listing *models.Listing, bidID *uuid.UUID) error
	MarkSoldTx(ctx context.Context, tx *gorm.DB, listing *models.Listing, winningBidID uuid.UUID) error
}

type service struct {
	repo         Repository
	tx           txRunner
	locks        *locks.KeyedMutex
	minIncrement int64
}

// NewService builds the listing registry. defaultMinIncrement is applied to
// listings created without their own increment.
func NewService(repo Repository, tx txRunner, keyed *locks.KeyedMutex, defaultMinIncrement int64) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if keyed == nil {
		return nil, fmt.Errorf("listing lock required")
	}
	if defaultMinIncrement <= 0 {
		return nil, fmt.Errorf("default minimum increment must be positive")
	}
	return &service{
		repo:         repo,
		tx:           tx,
		locks:        keyed,
		minIncrement: defaultMinIncrement,
	}, nil
}

func (s *service) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return listing, nil
}

func (s *service) ListListings(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error) {
	if filters.MinPrice != nil && filters.MaxPrice != nil && *filters.MinPrice > *filters.MaxPrice {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minPrice must not exceed maxPrice")
	}
	if filters.Category != nil && !filters.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, listListingsParams{
		ListFilters: filters,
		Limit:       pagination.LimitWithBuffer(params.Limit),
		Cursor:      cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
	}

	page, next := pagination.Split(rows, params.Limit, func(l models.Listing) pagination.Cursor {
		return pagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
	})
	result := &ListResult{Listings: make([]ListingDTO, 0, len(page)), NextCursor: next}
	for i := range page {
		result.Listings = append(result.Listings, FromModel(&page[i]))
	}
	return result, nil
}

func (s *service) CreateListing(ctx context.Context, sellerID uuid.UUID, input CreateListingInput) (*models.Listing, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if input.BasePrice <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "basePrice must be positive")
	}
	if input.AreaSqm < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "areaSqm must not be negative")
	}
	increment := s.minIncrement
	if input.MinIncrement != nil {
		if *input.MinIncrement <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "minIncrement must be positive")
		}
		increment = *input.MinIncrement
	}

	now := time.Now().UTC()
	listing := &models.Listing{
		ID:           uuid.New(),
		SellerID:     sellerID,
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Category:     input.Category,
		Location:     strings.TrimSpace(input.Location),
		AreaSqm:      input.AreaSqm,
		BasePrice:    input.BasePrice,
		MinIncrement: increment,
		Status:       enums.ListingStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}
	return listing, nil
}

// SetStatus applies a manual status change. Sold is only reachable through
// MarkSold because it needs a winning bid.
func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.ListingStatus) (*models.Listing, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid listing status")
	}
	unlock := s.locks.Lock(id.String())
	defer unlock()

	var updated *models.Listing
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		listing, err := s.LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.transition(ctx, tx, listing, status); err != nil {
			return err
		}
		updated = listing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) PublishListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return s.SetStatus(ctx, id, enums.ListingStatusActive)
}

// WithdrawListing takes the listing off the market. Its live bids and
// pending offers are rejected in the same transaction.
func (s *service) WithdrawListing(ctx context.Context, id, sellerID uuid.UUID) (*models.Listing, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	var updated *models.Listing
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		listing, err := s.LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if listing.SellerID != sellerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can withdraw this listing")
		}
		if err := s.transition(ctx, tx, listing, enums.ListingStatusInactive); err != nil {
			return err
		}
		if _, err := s.repo.WithTx(tx).CloseOpenPositions(ctx, listing.ID, time.Now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close open bids and offers")
		}
		listing.CurrentHighestBidID = nil
		updated = listing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) transition(ctx context.Context, tx *gorm.DB, listing *models.Listing, to enums.ListingStatus) error {
	from := listing.Status
	if to == enums.ListingStatusSold || !from.CanTransitionTo(to) {
		return errInvalidTransition(string(from), string(to))
	}
	ok, err := s.repo.WithTx(tx).UpdateStatus(ctx, listing.ID, from, to)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing status")
	}
	if !ok {
		return errInvalidTransition(string(from), string(to))
	}
	listing.Status = to
	listing.Version++
	return nil
}

func (s *service) MarkSold(ctx context.Context, id, winningBidID uuid.UUID) (*models.Listing, error) {
	if winningBidID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "winning bid id required")
	}
	unlock := s.locks.Lock(id.String())
	defer unlock()

	var updated *models.Listing
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		listing, err := s.LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.MarkSoldTx(ctx, tx, listing, winningBidID); err != nil {
			return err
		}
		updated = listing
		return nil
	})
	if errors.Is(err, ErrVersionConflict) {
		return nil, ConcurrentUpdate()
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) LockForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return listing, nil
}

func (s *service) ReserveBidSequence(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	seq, err := s.repo.WithTx(tx).ReserveBidSequence(ctx, id)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve bid sequence")
	}
	return seq, nil
}

// SwapHighestBid returns ErrVersionConflict when the row moved since it was
// read; the caller rolls back and retries.
func (s *service) SwapHighestBid(ctx context.Context, tx *gorm.DB, listing *models.Listing, bidID *uuid.UUID) error {
	if listing.Status == enums.ListingStatusSold {
		return AlreadySold()
	}
	ok, err := s.repo.WithTx(tx).SwapHighestBid(ctx, listing.ID, listing.Version, bidID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update highest bid")
	}
	if !ok {
		return ErrVersionConflict
	}
	listing.CurrentHighestBidID = bidID
	listing.Version++
	return nil
}

func (s *service) MarkSoldTx(ctx context.Context, tx *gorm.DB, listing *models.Listing, winningBidID uuid.UUID) error {
	switch listing.Status {
	case enums.ListingStatusSold:
		return AlreadySold()
	case enums.ListingStatusActive:
	default:
		return NotActive()
	}
	ok, err := s.repo.WithTx(tx).MarkSold(ctx, listing.ID, listing.Version, winningBidID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark listing sold")
	}
	if !ok {
		return ErrVersionConflict
	}
	listing.Status = enums.ListingStatusSold
	listing.CurrentHighestBidID = &winningBidID
	listing.Version++
	return nil
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errListingNotFound()
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
}
