package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/landhub-backend/api/middleware"
	"github.com/angelmondragon/landhub-backend/internal/documents"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
)

type documentsStub struct {
	registered documents.RegisterInput
	viewer     documents.Viewer
	deleted    uuid.UUID
	review     documents.ReviewInput
	err        error
}

func (s *documentsStub) Register(_ context.Context, input documents.RegisterInput) (*documents.DocumentDTO, error) {
	s.registered = input
	if s.err != nil {
		return nil, s.err
	}
	return &documents.DocumentDTO{ID: uuid.New(), ListingID: input.ListingID, Type: input.Type, Status: enums.DocumentStatusPending}, nil
}

func (s *documentsStub) ListForListing(_ context.Context, _ uuid.UUID, viewer documents.Viewer) ([]documents.DocumentDTO, error) {
	s.viewer = viewer
	return []documents.DocumentDTO{}, s.err
}

func (s *documentsStub) Delete(_ context.Context, documentID, _ uuid.UUID) error {
	s.deleted = documentID
	return s.err
}

func (s *documentsStub) Review(_ context.Context, input documents.ReviewInput) (*documents.DocumentDTO, error) {
	s.review = input
	if s.err != nil {
		return nil, s.err
	}
	return &documents.DocumentDTO{ID: input.DocumentID, Status: input.Decision}, nil
}

func asRole(req *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), userID.String(), string(role), ""))
}

func TestRegisterDocumentCreated(t *testing.T) {
	seller, listing := uuid.New(), uuid.New()
	svc := &documentsStub{}
	body := `{"documentType":"khasra","fileName":"khasra.pdf","contentType":"application/pdf","sizeBytes":2048}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = addRouteParam(asRole(req, seller, enums.UserRoleSeller), "listingId", listing.String())
	resp := httptest.NewRecorder()
	RegisterDocument(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, documents.RegisterInput{
		ListingID:   listing,
		UploaderID:  seller,
		Type:        enums.DocumentTypeKhasra,
		FileName:    "khasra.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
	}, svc.registered)
	assert.Equal(t, enums.DocumentStatusPending, decodeData[documents.DocumentDTO](t, resp).Status)
}

func TestRegisterDocumentValidation(t *testing.T) {
	cases := map[string]string{
		"bad type":  `{"documentType":"passport","fileName":"a.pdf","contentType":"application/pdf","sizeBytes":1}`,
		"no name":   `{"documentType":"deed","contentType":"application/pdf","sizeBytes":1}`,
		"zero size": `{"documentType":"deed","fileName":"a.pdf","contentType":"application/pdf","sizeBytes":0}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			req = addRouteParam(asRole(req, uuid.New(), enums.UserRoleSeller), "listingId", uuid.NewString())
			resp := httptest.NewRecorder()
			RegisterDocument(&documentsStub{}, testLogger())(resp, req)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}

	oversized := &documentsStub{err: pkgerrors.New(pkgerrors.CodeValidation, "file size exceeds 10MB limit")}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"documentType":"deed","fileName":"a.pdf","contentType":"application/pdf","sizeBytes":20971520}`))
	req = addRouteParam(asRole(req, uuid.New(), enums.UserRoleSeller), "listingId", uuid.NewString())
	resp := httptest.NewRecorder()
	RegisterDocument(oversized, testLogger())(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListDocumentsPassesViewerRole(t *testing.T) {
	admin := uuid.New()
	svc := &documentsStub{}
	req := addRouteParam(asRole(httptest.NewRequest(http.MethodGet, "/", nil), admin, enums.UserRoleAdmin), "listingId", uuid.NewString())
	resp := httptest.NewRecorder()
	ListDocuments(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, documents.Viewer{UserID: admin, Role: enums.UserRoleAdmin}, svc.viewer)
}

func TestDeleteDocumentMapsConflict(t *testing.T) {
	id := uuid.New()
	svc := &documentsStub{err: pkgerrors.Conflict(documents.ReasonVerified, "verified documents cannot be deleted")}
	req := addRouteParam(withUser(httptest.NewRequest(http.MethodDelete, "/", nil), uuid.New(), ""), "documentId", id.String())
	resp := httptest.NewRecorder()
	DeleteDocument(svc, testLogger())(resp, req)

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, id, svc.deleted)
}

func TestAdminReviewDocument(t *testing.T) {
	admin, id := uuid.New(), uuid.New()

	svc := &documentsStub{}
	req := addRouteParam(asRole(httptest.NewRequest(http.MethodPost, "/", nil), admin, enums.UserRoleAdmin), "documentId", id.String())
	resp := httptest.NewRecorder()
	AdminVerifyDocument(svc, testLogger())(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, documents.ReviewInput{DocumentID: id, ReviewerID: admin, Decision: enums.DocumentStatusVerified}, svc.review)

	svc = &documentsStub{}
	req = addRouteParam(asRole(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"illegible"}`)), admin, enums.UserRoleAdmin), "documentId", id.String())
	resp = httptest.NewRecorder()
	AdminRejectDocument(svc, testLogger())(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "illegible", svc.review.Reason)
	assert.Equal(t, enums.DocumentStatusRejected, svc.review.Decision)

	svc = &documentsStub{}
	req = addRouteParam(asRole(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"  "}`)), admin, enums.UserRoleAdmin), "documentId", id.String())
	resp = httptest.NewRecorder()
	AdminRejectDocument(svc, testLogger())(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, uuid.Nil, svc.review.DocumentID)
}
