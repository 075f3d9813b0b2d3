package bids

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/landhub-backend/internal/fanout"
	"github.com/angelmondragon/landhub-backend/internal/listings"
	"github.com/angelmondragon/landhub-backend/pkg/db"
	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/locks"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
	"github.com/angelmondragon/landhub-backend/pkg/metrics"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ListingLedger is the part of the listing registry the bid ledger writes
// through while holding the listing lock.
type ListingLedger interface {
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	LockForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error)
	ReserveBidSequence(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	SwapHighestBid(ctx context.Context, tx *gorm.DB, listing *models.Listing, bidID *uuid.UUID) error
	MarkSoldTx(ctx context.Context, tx *gorm.DB, listing *models.Listing, winningBidID uuid.UUID) error
}

// OfferCloser rejects the pending offers of a listing that was just sold.
type OfferCloser interface {
	RejectPendingForListing(ctx context.Context, tx *gorm.DB, listingID uuid.UUID) ([]models.Offer, error)
}

// Service defines bid ledger operations.
type Service interface {
	PlaceBid(ctx context.Context, input PlaceBidInput) (*models.Bid, error)
	WithdrawBid(ctx context.Context, bidID, requesterID uuid.UUID) (*models.Bid, error)
	AcceptBid(ctx context.Context, bidID, sellerID uuid.UUID) (*models.Bid, error)
	ListBidsForListing(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error)
	ListBidsForBidder(ctx context.Context, bidderID uuid.UUID, params pagination.Params) (*ListResult, error)
}

// Options tunes retries and carries optional collaborators.
type Options struct {
	MaxCASRetries int
	Metrics       *metrics.LedgerMetrics
	Logger        *logger.Logger
}

type service struct {
	repo       Repository
	tx         txRunner
	listings   ListingLedger
	offers     OfferCloser
	locks      *locks.KeyedMutex
	publisher  fanout.Publisher
	metrics    *metrics.LedgerMetrics
	logg       *logger.Logger
	maxRetries int
}

// NewService builds the bid ledger service.
func NewService(repo Repository, tx txRunner, ledger ListingLedger, offers OfferCloser, keyed *locks.KeyedMutex, publisher fanout.Publisher, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bids repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("listing ledger required")
	}
	if offers == nil {
		return nil, fmt.Errorf("offer closer required")
	}
	if keyed == nil {
		return nil, fmt.Errorf("listing lock required")
	}
	if publisher == nil {
		publisher = fanout.Nop{}
	}
	if opts.MaxCASRetries < 0 {
		return nil, fmt.Errorf("max CAS retries must not be negative")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:       repo,
		tx:         tx,
		listings:   ledger,
		offers:     offers,
		locks:      keyed,
		publisher:  publisher,
		metrics:    opts.Metrics,
		logg:       logg,
		maxRetries: opts.MaxCASRetries,
	}, nil
}

// MinimumAcceptable is the lowest amount that may become the active bid.
func MinimumAcceptable(listing *models.Listing, active *models.Bid) int64 {
	if active == nil {
		return listing.BasePrice
	}
	return active.Amount + listing.MinIncrement
}

type placeOutcome struct {
	listing   *models.Listing
	bid       *models.Bid
	displaced *models.Bid
	minimum   int64
	rejected  bool
}

func (s *service) PlaceBid(ctx context.Context, input PlaceBidInput) (*models.Bid, error) {
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if input.BidderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	unlock := s.locks.Lock(input.ListingID.String())
	defer unlock()

	var out placeOutcome
	err := s.retry(ctx, func() error {
		out = placeOutcome{}
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.placeBidTx(ctx, tx, input, &out)
		})
	})
	if err != nil {
		if reason := pkgerrors.ReasonOf(err); reason != "" {
			s.metrics.IncBidRejected(reason)
		}
		return nil, err
	}
	if out.rejected {
		s.metrics.IncBidRejected("too_low")
		return nil, errBidTooLow(out.minimum)
	}

	s.metrics.IncBidPlaced()
	s.notifyPlaced(ctx, input, out)
	return out.bid, nil
}

func (s *service) placeBidTx(ctx context.Context, tx *gorm.DB, input PlaceBidInput, out *placeOutcome) error {
	listing, err := s.listings.LockForUpdate(ctx, tx, input.ListingID)
	if err != nil {
		return err
	}
	if listing.Status != enums.ListingStatusActive {
		return listings.ListingNotActive()
	}
	if listing.SellerID == input.BidderID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "sellers cannot bid on their own listing")
	}

	repo := s.repo.WithTx(tx)
	var current *models.Bid
	if listing.CurrentHighestBidID != nil {
		current, err = repo.FindByID(ctx, *listing.CurrentHighestBidID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active bid")
		}
	}
	minimum := MinimumAcceptable(listing, current)

	seq, err := s.listings.ReserveBidSequence(ctx, tx, listing.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	bid := &models.Bid{
		ID:        uuid.New(),
		ListingID: listing.ID,
		BidderID:  input.BidderID,
		Amount:    input.Amount,
		Sequence:  seq,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if input.Amount < minimum {
		bid.Status = enums.BidStatusRejected
		if err := repo.Create(ctx, bid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record rejected bid")
		}
		out.rejected = true
		out.minimum = minimum
		return nil
	}

	if current != nil {
		ok, err := repo.UpdateStatus(ctx, current.ID, enums.BidStatusActive, enums.BidStatusOutbid)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "demote active bid")
		}
		if !ok {
			return listings.ErrVersionConflict
		}
		current.Status = enums.BidStatusOutbid
		bid.PreviousBidID = &current.ID
	}

	bid.Status = enums.BidStatusActive
	if err := repo.Create(ctx, bid); err != nil {
		if db.IsUniqueViolation(err, "ux_bids_one_active_per_listing") {
			return listings.ErrVersionConflict
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bid")
	}
	if err := s.listings.SwapHighestBid(ctx, tx, listing, &bid.ID); err != nil {
		return err
	}

	out.listing = listing
	out.bid = bid
	out.displaced = current
	return nil
}

func (s *service) notifyPlaced(ctx context.Context, input PlaceBidInput, out placeOutcome) {
	bidID := out.bid.ID
	s.publisher.Publish(ctx, fanout.Event{
		Type:         enums.NotificationTypeBidPlaced,
		TargetUserID: out.listing.SellerID,
		ListingID:    out.listing.ID,
		ListingTitle: out.listing.Title,
		Payload: fanout.Payload{
			Amount:    out.bid.Amount,
			ActorName: input.BidderName,
			BidID:     &bidID,
		},
	})
	if out.displaced == nil || out.displaced.BidderID == input.BidderID {
		return
	}
	s.publisher.Publish(ctx, fanout.Event{
		Type:         enums.NotificationTypeBidOutbid,
		TargetUserID: out.displaced.BidderID,
		ListingID:    out.listing.ID,
		ListingTitle: out.listing.Title,
		Payload: fanout.Payload{
			Amount:    out.bid.Amount,
			ActorName: input.BidderName,
			BidID:     &bidID,
		},
	})
}

func (s *service) WithdrawBid(ctx context.Context, bidID, requesterID uuid.UUID) (*models.Bid, error) {
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.BidderID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "bids can only be withdrawn by their bidder")
	}

	unlock := s.locks.Lock(bid.ListingID.String())
	defer unlock()

	var withdrawn *models.Bid
	err = s.retry(ctx, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			listing, err := s.listings.LockForUpdate(ctx, tx, bid.ListingID)
			if err != nil {
				return err
			}
			repo := s.repo.WithTx(tx)
			fresh, err := repo.FindByID(ctx, bidID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload bid")
			}
			if listing.Status == enums.ListingStatusSold || !isCurrent(listing, fresh) {
				return errBidNotActive()
			}

			ok, err := repo.UpdateStatus(ctx, fresh.ID, enums.BidStatusActive, enums.BidStatusWithdrawn)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "withdraw bid")
			}
			if !ok {
				return listings.ErrVersionConflict
			}
			fresh.Status = enums.BidStatusWithdrawn

			restored, err := s.restorePrevious(ctx, repo, fresh)
			if err != nil {
				return err
			}
			var pointer *uuid.UUID
			if restored != nil {
				pointer = &restored.ID
			}
			if err := s.listings.SwapHighestBid(ctx, tx, listing, pointer); err != nil {
				return err
			}
			withdrawn = fresh
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return withdrawn, nil
}

// restorePrevious reactivates the nearest outbid bid in the displacement
// chain of withdrawn, if any.
func (s *service) restorePrevious(ctx context.Context, repo Repository, withdrawn *models.Bid) (*models.Bid, error) {
	next := withdrawn.PreviousBidID
	for next != nil {
		prev, err := repo.FindByID(ctx, *next)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load previous bid")
		}
		if prev.Status == enums.BidStatusOutbid {
			ok, err := repo.UpdateStatus(ctx, prev.ID, enums.BidStatusOutbid, enums.BidStatusActive)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore previous bid")
			}
			if !ok {
				return nil, listings.ErrVersionConflict
			}
			prev.Status = enums.BidStatusActive
			return prev, nil
		}
		next = prev.PreviousBidID
	}
	return nil, nil
}

func (s *service) AcceptBid(ctx context.Context, bidID, sellerID uuid.UUID) (*models.Bid, error) {
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(bid.ListingID.String())
	defer unlock()

	var (
		won      *models.Bid
		listing  *models.Listing
		rejected []models.Offer
	)
	err = s.retry(ctx, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			locked, err := s.listings.LockForUpdate(ctx, tx, bid.ListingID)
			if err != nil {
				return err
			}
			if locked.SellerID != sellerID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can accept bids")
			}
			switch locked.Status {
			case enums.ListingStatusSold:
				return listings.AlreadySold()
			case enums.ListingStatusActive:
			default:
				return listings.NotActive()
			}

			repo := s.repo.WithTx(tx)
			fresh, err := repo.FindByID(ctx, bidID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload bid")
			}
			if !isCurrent(locked, fresh) {
				return errBidNotActive()
			}

			if err := s.listings.MarkSoldTx(ctx, tx, locked, fresh.ID); err != nil {
				return err
			}
			ok, err := repo.UpdateStatus(ctx, fresh.ID, enums.BidStatusActive, enums.BidStatusWon)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark bid won")
			}
			if !ok {
				return listings.ErrVersionConflict
			}
			fresh.Status = enums.BidStatusWon

			closed, err := s.offers.RejectPendingForListing(ctx, tx, locked.ID)
			if err != nil {
				return err
			}
			won, listing, rejected = fresh, locked, closed
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifyResolved(ctx, listing, won, rejected)
	return won, nil
}

func (s *service) notifyResolved(ctx context.Context, listing *models.Listing, won *models.Bid, rejected []models.Offer) {
	bidID := won.ID
	s.publisher.Publish(ctx, fanout.Event{
		Type:         enums.NotificationTypeOfferResolved,
		TargetUserID: won.BidderID,
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		Payload: fanout.Payload{
			Amount: won.Amount,
			BidID:  &bidID,
			Status: string(enums.BidStatusWon),
		},
	})
	for i := range rejected {
		offerID := rejected[i].ID
		s.publisher.Publish(ctx, fanout.Event{
			Type:         enums.NotificationTypeOfferResolved,
			TargetUserID: rejected[i].BuyerID,
			ListingID:    listing.ID,
			ListingTitle: listing.Title,
			Payload: fanout.Payload{
				Amount:  rejected[i].Amount,
				OfferID: &offerID,
				Status:  string(enums.OfferStatusRejected),
			},
		})
	}
}

func (s *service) ListBidsForListing(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error) {
	if _, err := s.listings.GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByListing(ctx, listingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bids")
	}
	return rows, nil
}

func (s *service) ListBidsForBidder(ctx context.Context, bidderID uuid.UUID, params pagination.Params) (*ListResult, error) {
	if bidderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByBidder(ctx, listBidderParams{
		BidderID: bidderID,
		Limit:    pagination.LimitWithBuffer(params.Limit),
		Cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bids")
	}
	page, next := pagination.Split(rows, params.Limit, func(b models.Bid) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	})
	return &ListResult{Bids: FromModels(page), NextCursor: next}, nil
}

func (s *service) loadBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	bid, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBidNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bid")
	}
	return bid, nil
}

func (s *service) retry(ctx context.Context, fn func() error) error {
	err := listings.RetryOnConflict(ctx, s.maxRetries, s.metrics.IncCASRetry, fn)
	if pkgerrors.ReasonOf(err) == listings.ReasonConcurrentUpdate {
		s.logg.Warn(s.logg.WithField(ctx, "max_retries", s.maxRetries), "listing update retries exhausted")
	}
	return err
}

func isCurrent(listing *models.Listing, bid *models.Bid) bool {
	return bid.Status == enums.BidStatusActive &&
		listing.CurrentHighestBidID != nil &&
		*listing.CurrentHighestBidID == bid.ID
}
