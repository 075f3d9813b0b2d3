package documents

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
)

// MaxDocumentBytes is the largest file a seller may attach.
const MaxDocumentBytes = 10 * 1024 * 1024

var allowedContentTypes = []string{"application/pdf", "image/png", "image/jpeg"}

// Conflict reasons reported in error details.
const (
	ReasonAlreadyReviewed = "already_reviewed"
	ReasonVerified        = "document_verified"
)

// Service is the document registry behind the listing document routes.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*DocumentDTO, error)
	ListForListing(ctx context.Context, listingID uuid.UUID, viewer Viewer) ([]DocumentDTO, error)
	Delete(ctx context.Context, documentID, requesterID uuid.UUID) error
	Review(ctx context.Context, input ReviewInput) (*DocumentDTO, error)
}

type store interface {
	Create(ctx context.Context, d *models.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByListing(ctx context.Context, listingID uuid.UUID, statuses []enums.DocumentStatus) ([]models.Document, error)
	Review(ctx context.Context, id uuid.UUID, from, to enums.DocumentStatus, reviewerID uuid.UUID, reason string, now time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type listingReader interface {
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type RegisterInput struct {
	ListingID   uuid.UUID
	UploaderID  uuid.UUID
	Type        enums.DocumentType
	FileName    string
	ContentType string
	SizeBytes   int64
}

// Viewer is the caller listing documents. Buyers only see verified files.
type Viewer struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

type ReviewInput struct {
	DocumentID uuid.UUID
	ReviewerID uuid.UUID
	Decision   enums.DocumentStatus
	Reason     string
}

// DocumentDTO is the API shape of a document.
type DocumentDTO struct {
	ID              uuid.UUID            `json:"id"`
	ListingID       uuid.UUID            `json:"listingId"`
	UploaderID      uuid.UUID            `json:"uploaderId"`
	Type            enums.DocumentType   `json:"documentType"`
	FileName        string               `json:"fileName"`
	ContentType     string               `json:"contentType"`
	SizeBytes       int64                `json:"sizeBytes"`
	StorageKey      string               `json:"storageKey"`
	Status          enums.DocumentStatus `json:"status"`
	ReviewedAt      *time.Time           `json:"reviewedAt,omitempty"`
	RejectionReason string               `json:"rejectionReason,omitempty"`
	UploadedAt      time.Time            `json:"uploadedAt"`
}

func toDTO(d models.Document) DocumentDTO {
	return DocumentDTO{
		ID:              d.ID,
		ListingID:       d.ListingID,
		UploaderID:      d.UploaderID,
		Type:            d.Type,
		FileName:        d.FileName,
		ContentType:     d.ContentType,
		SizeBytes:       d.SizeBytes,
		StorageKey:      d.StorageKey,
		Status:          d.Status,
		ReviewedAt:      d.ReviewedAt,
		RejectionReason: d.RejectionReason,
		UploadedAt:      d.CreatedAt,
	}
}

type service struct {
	store    store
	listings listingReader
	now      func() time.Time
}

func NewService(s store, listings listingReader) (Service, error) {
	if s == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "documents repository required")
	}
	if listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "listing reader required")
	}
	return &service{store: s, listings: listings, now: time.Now}, nil
}

var (
	errNoIdentity  = pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	errDocNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
)

// Register records an upload against a listing the caller sells. The file
// is expected at the returned storage key.
func (s *service) Register(ctx context.Context, input RegisterInput) (*DocumentDTO, error) {
	fileName := strings.TrimSpace(input.FileName)
	contentType := strings.ToLower(strings.TrimSpace(input.ContentType))
	switch {
	case input.UploaderID == uuid.Nil:
		return nil, errNoIdentity
	case input.ListingID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	case !input.Type.IsValid():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid document type")
	case fileName == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name required")
	case input.SizeBytes <= 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file size must be positive")
	case input.SizeBytes > MaxDocumentBytes:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file size exceeds 10MB limit").
			WithDetails(map[string]any{"field": "sizeBytes", "max": MaxDocumentBytes})
	case !slices.Contains(allowedContentTypes, contentType):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content type not allowed").
			WithDetails(map[string]any{"field": "contentType", "allowed": allowedContentTypes})
	}

	listing, err := s.listings.GetListing(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != input.UploaderID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can attach documents")
	}

	now := s.now().UTC()
	doc := &models.Document{
		ID:          uuid.New(),
		ListingID:   listing.ID,
		UploaderID:  input.UploaderID,
		Type:        input.Type,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   input.SizeBytes,
		Status:      enums.DocumentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	doc.StorageKey = storageKey(doc)
	if err := s.store.Create(ctx, doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record document")
	}
	dto := toDTO(*doc)
	return &dto, nil
}

// ListForListing shows every document to the seller and admins and only
// verified ones to everyone else.
func (s *service) ListForListing(ctx context.Context, listingID uuid.UUID, viewer Viewer) ([]DocumentDTO, error) {
	if viewer.UserID == uuid.Nil {
		return nil, errNoIdentity
	}
	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	var statuses []enums.DocumentStatus
	if listing.SellerID != viewer.UserID && viewer.Role != enums.UserRoleAdmin {
		statuses = []enums.DocumentStatus{enums.DocumentStatusVerified}
	}
	rows, err := s.store.ListByListing(ctx, listingID, statuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	out := make([]DocumentDTO, 0, len(rows))
	for _, d := range rows {
		out = append(out, toDTO(d))
	}
	return out, nil
}

// Delete removes a pending or rejected document. Verified documents stay on
// record.
func (s *service) Delete(ctx context.Context, documentID, requesterID uuid.UUID) error {
	if requesterID == uuid.Nil {
		return errNoIdentity
	}
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.UploaderID != requesterID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the uploader can delete this document")
	}
	if doc.Status == enums.DocumentStatusVerified {
		return pkgerrors.Conflict(ReasonVerified, "verified documents cannot be deleted")
	}
	deleted, err := s.store.Delete(ctx, doc.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete document")
	}
	if !deleted {
		return pkgerrors.Conflict(ReasonVerified, "verified documents cannot be deleted")
	}
	return nil
}

// Review records an admin decision on a pending document. Rejections need a
// reason.
func (s *service) Review(ctx context.Context, input ReviewInput) (*DocumentDTO, error) {
	reason := strings.TrimSpace(input.Reason)
	switch {
	case input.ReviewerID == uuid.Nil:
		return nil, errNoIdentity
	case input.Decision != enums.DocumentStatusVerified && input.Decision != enums.DocumentStatusRejected:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be verified or rejected")
	case input.Decision == enums.DocumentStatusRejected && reason == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	if input.Decision == enums.DocumentStatusVerified {
		reason = ""
	}

	doc, err := s.load(ctx, input.DocumentID)
	if err != nil {
		return nil, err
	}
	if !doc.Status.CanTransitionTo(input.Decision) {
		return nil, errAlreadyReviewed(doc.Status)
	}
	now := s.now().UTC()
	ok, err := s.store.Review(ctx, doc.ID, doc.Status, input.Decision, input.ReviewerID, reason, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "review document")
	}
	if !ok {
		return nil, errAlreadyReviewed(doc.Status)
	}
	doc.Status = input.Decision
	doc.ReviewedBy = &input.ReviewerID
	doc.ReviewedAt = &now
	doc.RejectionReason = reason
	dto := toDTO(*doc)
	return &dto, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document id required")
	}
	doc, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}
	if doc == nil {
		return nil, errDocNotFound
	}
	return doc, nil
}

func errAlreadyReviewed(status enums.DocumentStatus) error {
	return pkgerrors.Conflict(ReasonAlreadyReviewed, "document is already "+string(status))
}

func storageKey(d *models.Document) string {
	name := sanitizeFileName(d.FileName)
	if name == "" {
		name = d.ID.String()
	}
	return fmt.Sprintf("listings/%s/%s/%s-%s", d.ListingID, d.Type, d.ID, name)
}

// sanitizeFileName keeps the base name and replaces anything outside
// letters, digits, dot, dash and underscore.
func sanitizeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
