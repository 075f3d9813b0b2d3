package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/landhub-backend/internal/bids"
	"github.com/angelmondragon/landhub-backend/internal/fanout"
	"github.com/angelmondragon/landhub-backend/internal/listings"
	"github.com/angelmondragon/landhub-backend/pkg/db"
	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/locks"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
	"github.com/angelmondragon/landhub-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxMessageLength = 2000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines offer negotiation operations.
type Service interface {
	MakeOffer(ctx context.Context, input MakeOfferInput) (*models.Offer, error)
	Respond(ctx context.Context, input RespondInput) (*models.Offer, error)
	Withdraw(ctx context.Context, offerID, buyerID uuid.UUID) (*models.Offer, error)
	GetOffer(ctx context.Context, offerID, actorID uuid.UUID) (*models.Offer, error)
	ListOffersForListing(ctx context.Context, listingID, actorID uuid.UUID) ([]models.Offer, error)
	RejectPendingForListing(ctx context.Context, tx *gorm.DB, listingID uuid.UUID) ([]models.Offer, error)
}

// Options tunes retries and carries optional collaborators.
type Options struct {
	MaxCASRetries int
	Metrics       *metrics.LedgerMetrics
	Logger        *logger.Logger
}

type service struct {
	repo       Repository
	bids       bids.Repository
	tx         txRunner
	listings   bids.ListingLedger
	locks      *locks.KeyedMutex
	publisher  fanout.Publisher
	metrics    *metrics.LedgerMetrics
	logg       *logger.Logger
	maxRetries int
}

// NewService builds the offer tracker. It writes synthetic winning bids
// through the bid repository when an offer is accepted.
func NewService(repo Repository, bidRepo bids.Repository, tx txRunner, ledger bids.ListingLedger, keyed *locks.KeyedMutex, publisher fanout.Publisher, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if bidRepo == nil {
		return nil, fmt.Errorf("bids repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("listing ledger required")
	}
	if keyed == nil {
		return nil, fmt.Errorf("listing lock required")
	}
	if publisher == nil {
		publisher = fanout.Nop{}
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:       repo,
		bids:       bidRepo,
		tx:         tx,
		listings:   ledger,
		locks:      keyed,
		publisher:  publisher,
		metrics:    opts.Metrics,
		logg:       logg,
		maxRetries: opts.MaxCASRetries,
	}, nil
}

func (s *service) MakeOffer(ctx context.Context, input MakeOfferInput) (*models.Offer, error) {
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	message := strings.TrimSpace(input.Message)
	if len(message) > maxMessageLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is too long")
	}

	unlock := s.locks.Lock(input.ListingID.String())
	defer unlock()

	var (
		offer   *models.Offer
		listing *models.Listing
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.listings.LockForUpdate(ctx, tx, input.ListingID)
		if err != nil {
			return err
		}
		if locked.Status != enums.ListingStatusActive {
			return listings.ListingNotActive()
		}
		if locked.SellerID == input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "sellers cannot make offers on their own listing")
		}

		repo := s.repo.WithTx(tx)
		if _, err := repo.FindPending(ctx, input.ListingID, input.BuyerID); err == nil {
			return errDuplicatePending()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending offers")
		}

		now := time.Now().UTC()
		created := &models.Offer{
			ID:        uuid.New(),
			ListingID: input.ListingID,
			BuyerID:   input.BuyerID,
			Amount:    input.Amount,
			Message:   message,
			Status:    enums.OfferStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.Create(ctx, created); err != nil {
			if db.IsUniqueViolation(err, "") {
				return errDuplicatePending()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
		}
		offer, listing = created, locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOffer("made")
	s.notify(ctx, enums.NotificationTypeOfferReceived, listing.SellerID, listing, offer, input.BuyerName)
	return offer, nil
}

type respondOutcome struct {
	listing   *models.Listing
	original  *models.Offer
	result    *models.Offer
	displaced *models.Bid
	rejected  []models.Offer
}

// Respond applies accept, reject or counter to a pending offer. The returned
// offer is the original for accept and reject, and the new counter offer for
// counter.
func (s *service) Respond(ctx context.Context, input RespondInput) (*models.Offer, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "action must be accept, reject or counter")
	}
	if input.Action == enums.OfferActionCounter {
		if input.CounterAmount == nil || *input.CounterAmount <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "counterAmount must be positive")
		}
	}
	if len(strings.TrimSpace(input.Message)) > maxMessageLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is too long")
	}

	offer, err := s.loadOffer(ctx, input.OfferID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(offer.ListingID.String())
	defer unlock()

	var out respondOutcome
	err = listings.RetryOnConflict(ctx, s.maxRetries, s.metrics.IncCASRetry, func() error {
		out = respondOutcome{}
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.respondTx(ctx, tx, input, &out)
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOffer(string(input.Action))
	s.notifyResponse(ctx, input, out)
	return out.result, nil
}

func (s *service) respondTx(ctx context.Context, tx *gorm.DB, input RespondInput, out *respondOutcome) error {
	repo := s.repo.WithTx(tx)
	offer, err := repo.FindByID(ctx, input.OfferID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload offer")
	}
	listing, err := s.listings.LockForUpdate(ctx, tx, offer.ListingID)
	if err != nil {
		return err
	}

	if input.ActorID != responder(listing, offer) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the counterparty can respond to this offer")
	}
	if offer.Status != enums.OfferStatusPending {
		return errInvalidState("offer is no longer pending")
	}
	out.listing = listing
	out.original = offer

	switch input.Action {
	case enums.OfferActionAccept:
		return s.acceptTx(ctx, tx, listing, offer, out)
	case enums.OfferActionReject:
		if err := s.transition(ctx, repo, offer, enums.OfferStatusRejected); err != nil {
			return err
		}
		out.result = offer
		return nil
	default:
		return s.counterTx(ctx, repo, listing, offer, input, out)
	}
}

// acceptTx sells the listing to the offer's buyer. A won bid is recorded for
// the buyer so the sold listing points at a winning bid, and any active bid is
// demoted.
func (s *service) acceptTx(ctx context.Context, tx *gorm.DB, listing *models.Listing, offer *models.Offer, out *respondOutcome) error {
	switch listing.Status {
	case enums.ListingStatusSold:
		return listings.AlreadySold()
	case enums.ListingStatusActive:
	default:
		return listings.NotActive()
	}

	bidRepo := s.bids.WithTx(tx)
	if listing.CurrentHighestBidID != nil {
		active, err := bidRepo.FindByID(ctx, *listing.CurrentHighestBidID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active bid")
		}
		ok, err := bidRepo.UpdateStatus(ctx, active.ID, enums.BidStatusActive, enums.BidStatusOutbid)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "demote active bid")
		}
		if !ok {
			return listings.ErrVersionConflict
		}
		active.Status = enums.BidStatusOutbid
		out.displaced = active
	}

	seq, err := s.listings.ReserveBidSequence(ctx, tx, listing.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	won := &models.Bid{
		ID:            uuid.New(),
		ListingID:     listing.ID,
		BidderID:      offer.BuyerID,
		Amount:        offer.Amount,
		Status:        enums.BidStatusWon,
		Sequence:      seq,
		PreviousBidID: listing.CurrentHighestBidID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := bidRepo.Create(ctx, won); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record winning bid")
	}
	if err := s.listings.MarkSoldTx(ctx, tx, listing, won.ID); err != nil {
		return err
	}

	repo := s.repo.WithTx(tx)
	if err := s.transition(ctx, repo, offer, enums.OfferStatusAccepted); err != nil {
		return err
	}
	rejected, err := s.rejectPending(ctx, repo, listing.ID)
	if err != nil {
		return err
	}
	out.result = offer
	out.rejected = rejected
	return nil
}

func (s *service) counterTx(ctx context.Context, repo Repository, listing *models.Listing, offer *models.Offer, input RespondInput, out *respondOutcome) error {
	if listing.Status != enums.ListingStatusActive {
		return listings.ListingNotActive()
	}
	if err := s.transition(ctx, repo, offer, enums.OfferStatusCountered); err != nil {
		return err
	}
	now := time.Now().UTC()
	counterOf := offer.ID
	counter := &models.Offer{
		ID:               uuid.New(),
		ListingID:        offer.ListingID,
		BuyerID:          offer.BuyerID,
		Amount:           *input.CounterAmount,
		Message:          strings.TrimSpace(input.Message),
		Status:           enums.OfferStatusPending,
		SellerOriginated: !offer.SellerOriginated,
		CounterOfID:      &counterOf,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := repo.Create(ctx, counter); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create counter offer")
	}
	out.result = counter
	return nil
}

func (s *service) transition(ctx context.Context, repo Repository, offer *models.Offer, to enums.OfferStatus) error {
	ok, err := repo.UpdateStatus(ctx, offer.ID, offer.Status, to)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer status")
	}
	if !ok {
		return errInvalidState("offer changed concurrently")
	}
	offer.Status = to
	return nil
}

func (s *service) notifyResponse(ctx context.Context, input RespondInput, out respondOutcome) {
	target := counterparty(out.listing, out.original, input.ActorID)
	switch input.Action {
	case enums.OfferActionCounter:
		s.notify(ctx, enums.NotificationTypeOfferReceived, target, out.listing, out.result, input.ActorName)
	default:
		s.notify(ctx, enums.NotificationTypeOfferResolved, target, out.listing, out.original, input.ActorName)
	}

	if out.displaced != nil && out.displaced.BidderID != out.original.BuyerID {
		bidID := out.displaced.ID
		s.publisher.Publish(ctx, fanout.Event{
			Type:         enums.NotificationTypeBidOutbid,
			TargetUserID: out.displaced.BidderID,
			ListingID:    out.listing.ID,
			ListingTitle: out.listing.Title,
			Payload: fanout.Payload{
				Amount: out.original.Amount,
				BidID:  &bidID,
				Status: string(enums.ListingStatusSold),
			},
		})
	}
	for i := range out.rejected {
		s.notify(ctx, enums.NotificationTypeOfferResolved, out.rejected[i].BuyerID, out.listing, &out.rejected[i], "")
	}
}

func (s *service) Withdraw(ctx context.Context, offerID, buyerID uuid.UUID) (*models.Offer, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "offers can only be withdrawn by their buyer")
	}

	unlock := s.locks.Lock(offer.ListingID.String())
	defer unlock()

	var listing *models.Listing
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.listings.LockForUpdate(ctx, tx, offer.ListingID)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		fresh, err := repo.FindByID(ctx, offerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload offer")
		}
		if fresh.Status != enums.OfferStatusPending {
			return errInvalidState("offer is no longer pending")
		}
		if fresh.SellerOriginated {
			return errInvalidState("seller counters are answered, not withdrawn")
		}
		if err := s.transition(ctx, repo, fresh, enums.OfferStatusWithdrawn); err != nil {
			return err
		}
		offer, listing = fresh, locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOffer("withdraw")
	s.notify(ctx, enums.NotificationTypeOfferResolved, listing.SellerID, listing, offer, "")
	return offer, nil
}

func (s *service) GetOffer(ctx context.Context, offerID, actorID uuid.UUID) (*models.Offer, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.BuyerID == actorID {
		return offer, nil
	}
	listing, err := s.listings.GetListing(ctx, offer.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "offer belongs to another buyer")
	}
	return offer, nil
}

// ListOffersForListing shows the seller every offer and a buyer only their own.
func (s *service) ListOffersForListing(ctx context.Context, listingID, actorID uuid.UUID) ([]models.Offer, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	var buyer *uuid.UUID
	if listing.SellerID != actorID {
		buyer = &actorID
	}
	rows, err := s.repo.ListByListing(ctx, listingID, buyer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return rows, nil
}

// RejectPendingForListing closes every pending offer inside the caller's
// transaction. The bid ledger calls it after a bid wins.
func (s *service) RejectPendingForListing(ctx context.Context, tx *gorm.DB, listingID uuid.UUID) ([]models.Offer, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	rejected, err := s.rejectPending(ctx, s.repo.WithTx(tx), listingID)
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		s.metrics.IncOffer("auto_reject")
	}
	return rejected, nil
}

func (s *service) rejectPending(ctx context.Context, repo Repository, listingID uuid.UUID) ([]models.Offer, error) {
	pending, err := repo.ListPendingByListing(ctx, listingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending offers")
	}
	rejected := make([]models.Offer, 0, len(pending))
	for i := range pending {
		ok, err := repo.UpdateStatus(ctx, pending[i].ID, enums.OfferStatusPending, enums.OfferStatusRejected)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject pending offer")
		}
		if !ok {
			continue
		}
		pending[i].Status = enums.OfferStatusRejected
		rejected = append(rejected, pending[i])
	}
	return rejected, nil
}

func (s *service) notify(ctx context.Context, kind enums.NotificationType, target uuid.UUID, listing *models.Listing, offer *models.Offer, actorName string) {
	offerID := offer.ID
	s.publisher.Publish(ctx, fanout.Event{
		Type:         kind,
		TargetUserID: target,
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		Payload: fanout.Payload{
			Amount:    offer.Amount,
			ActorName: actorName,
			OfferID:   &offerID,
			Status:    string(offer.Status),
		},
	})
}

func (s *service) loadOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errOfferNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	return offer, nil
}

// responder is the party allowed to answer offer: the seller for buyer
// offers, the buyer for seller counters.
func responder(listing *models.Listing, offer *models.Offer) uuid.UUID {
	if offer.SellerOriginated {
		return offer.BuyerID
	}
	return listing.SellerID
}

func counterparty(listing *models.Listing, offer *models.Offer, actorID uuid.UUID) uuid.UUID {
	if actorID == listing.SellerID {
		return offer.BuyerID
	}
	return listing.SellerID
}
