package messages

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
)

// MaxBodyRunes caps a single message.
const MaxBodyRunes = 2000

var conversationNamespace = uuid.MustParse("6f1c3a52-3b8e-4d7a-9a61-2c0f5d8e4b17")

// ConversationID names the thread between two users, optionally about one
// listing. Argument order does not matter.
func ConversationID(a, b uuid.UUID, listingID *uuid.UUID) uuid.UUID {
	lo, hi := a.String(), b.String()
	if hi < lo {
		lo, hi = hi, lo
	}
	scope := "direct"
	if listingID != nil {
		scope = listingID.String()
	}
	return uuid.NewSHA1(conversationNamespace, []byte(lo+"|"+hi+"|"+scope))
}

// Service is the messaging surface behind /api/v1/messages.
type Service interface {
	Send(ctx context.Context, input SendInput) (*MessageDTO, error)
	Thread(ctx context.Context, params ThreadParams) (*ThreadResult, error)
	MarkRead(ctx context.Context, userID, messageID uuid.UUID) error
	MarkThreadRead(ctx context.Context, userID, conversationID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type store interface {
	Create(ctx context.Context, m *models.Message) error
	ListThread(ctx context.Context, q ThreadQuery) ([]models.Message, error)
	MarkRead(ctx context.Context, recipientID, id uuid.UUID, now time.Time) (bool, error)
	MarkThreadRead(ctx context.Context, recipientID, conversationID uuid.UUID, now time.Time) (int64, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

// listingReader resolves the listing a message is about.
type listingReader interface {
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type SendInput struct {
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	ListingID   *uuid.UUID
	Body        string
}

type ThreadParams struct {
	UserID         uuid.UUID
	ConversationID uuid.UUID
	Limit          int
	Cursor         string
}

// MessageDTO is the API shape of a message.
type MessageDTO struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversationId"`
	ListingID      *uuid.UUID `json:"listingId,omitempty"`
	SenderID       uuid.UUID  `json:"senderId"`
	RecipientID    uuid.UUID  `json:"recipientId"`
	Message        string     `json:"message"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func toDTO(m models.Message) MessageDTO {
	return MessageDTO{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		ListingID:      m.ListingID,
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		Message:        m.Body,
		Read:           m.IsRead(),
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}

// ThreadResult is one page of a conversation, oldest first. Cursor is empty
// on the last page.
type ThreadResult struct {
	Items  []MessageDTO `json:"items"`
	Cursor string       `json:"cursor"`
}

type service struct {
	store    store
	listings listingReader
	now      func() time.Time
}

func NewService(s store, listings listingReader) (Service, error) {
	if s == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "messages repository required")
	}
	if listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "listing reader required")
	}
	return &service{store: s, listings: listings, now: time.Now}, nil
}

var errNoIdentity = pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")

func (s *service) Send(ctx context.Context, input SendInput) (*MessageDTO, error) {
	body := strings.TrimSpace(input.Body)
	switch {
	case input.SenderID == uuid.Nil:
		return nil, errNoIdentity
	case input.RecipientID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	case input.RecipientID == input.SenderID:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot message yourself")
	case body == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message cannot be empty")
	case utf8.RuneCountInString(body) > MaxBodyRunes:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("message must be at most %d characters", MaxBodyRunes))
	}

	if input.ListingID != nil {
		listing, err := s.listings.GetListing(ctx, *input.ListingID)
		if err != nil {
			return nil, err
		}
		if listing.SellerID != input.SenderID && listing.SellerID != input.RecipientID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing conversations must include the seller")
		}
	}

	msg := &models.Message{
		ID:             uuid.New(),
		ConversationID: ConversationID(input.SenderID, input.RecipientID, input.ListingID),
		ListingID:      input.ListingID,
		SenderID:       input.SenderID,
		RecipientID:    input.RecipientID,
		Body:           body,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.Create(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send message")
	}
	dto := toDTO(*msg)
	return &dto, nil
}

// Thread pages through a conversation. Users outside the conversation get an
// empty page.
func (s *service) Thread(ctx context.Context, params ThreadParams) (*ThreadResult, error) {
	switch {
	case params.UserID == uuid.Nil:
		return nil, errNoIdentity
	case params.ConversationID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.store.ListThread(ctx, ThreadQuery{
		ConversationID: params.ConversationID,
		ParticipantID:  params.UserID,
		Limit:          pagination.LimitWithBuffer(params.Limit),
		Cursor:         cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list messages")
	}

	page, next := pagination.Split(rows, params.Limit, func(m models.Message) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	result := &ThreadResult{Items: make([]MessageDTO, 0, len(page)), Cursor: next}
	for _, m := range page {
		result.Items = append(result.Items, toDTO(m))
	}
	return result, nil
}

// MarkRead is idempotent. Only the recipient can mark a message read.
func (s *service) MarkRead(ctx context.Context, userID, messageID uuid.UUID) error {
	switch {
	case userID == uuid.Nil:
		return errNoIdentity
	case messageID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "message id required")
	}
	found, err := s.store.MarkRead(ctx, userID, messageID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark message read")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
	}
	return nil
}

func (s *service) MarkThreadRead(ctx context.Context, userID, conversationID uuid.UUID) (int64, error) {
	switch {
	case userID == uuid.Nil:
		return 0, errNoIdentity
	case conversationID == uuid.Nil:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "conversation id required")
	}
	n, err := s.store.MarkThreadRead(ctx, userID, conversationID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark conversation read")
	}
	return n, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, errNoIdentity
	}
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread messages")
	}
	return n, nil
}
