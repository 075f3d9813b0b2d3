package controllers

import (
	"net/http"

	"github.com/angelmondragon/landhub-backend/api/middleware"
	"github.com/angelmondragon/landhub-backend/api/responses"
	"github.com/angelmondragon/landhub-backend/api/validators"
	"github.com/angelmondragon/landhub-backend/internal/documents"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
)

type registerDocumentRequest struct {
	DocumentType string `json:"documentType" validate:"required,oneof=khasra deed tax survey other"`
	FileName     string `json:"fileName" validate:"required,notblank,max=255"`
	ContentType  string `json:"contentType" validate:"required"`
	SizeBytes    int64  `json:"sizeBytes" validate:"gt=0"`
}

type rejectDocumentRequest struct {
	Reason string `json:"reason" validate:"required,notblank,max=500"`
}

// RegisterDocument records document metadata for one of the caller's
// listings. The response carries the storage key the file belongs under.
func RegisterDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "documents")
			return
		}
		uploaderID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body registerDocumentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.Register(r.Context(), documents.RegisterInput{
			ListingID:   listingID,
			UploaderID:  uploaderID,
			Type:        enums.DocumentType(body.DocumentType),
			FileName:    body.FileName,
			ContentType: body.ContentType,
			SizeBytes:   body.SizeBytes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, doc)
	}
}

func ListDocuments(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "documents")
			return
		}
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		docs, err := svc.ListForListing(r.Context(), listingID, documents.Viewer{
			UserID: userID,
			Role:   enums.UserRole(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"documents": docs})
	}
}

func DeleteDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "documents")
			return
		}
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		documentID, err := validators.ParseUUIDParam(r, "documentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), documentID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// AdminVerifyDocument marks a pending document as verified.
func AdminVerifyDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return reviewDocument(svc, logg, enums.DocumentStatusVerified)
}

// AdminRejectDocument rejects a pending document with a reason.
func AdminRejectDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return reviewDocument(svc, logg, enums.DocumentStatusRejected)
}

func reviewDocument(svc documents.Service, logg *logger.Logger, decision enums.DocumentStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "documents")
			return
		}
		reviewerID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		documentID, err := validators.ParseUUIDParam(r, "documentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := documents.ReviewInput{DocumentID: documentID, ReviewerID: reviewerID, Decision: decision}
		if decision == enums.DocumentStatusRejected {
			var body rejectDocumentRequest
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Reason = body.Reason
		}

		doc, err := svc.Review(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, doc)
	}
}
