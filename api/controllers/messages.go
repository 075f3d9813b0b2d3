package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/api/responses"
	"github.com/angelmondragon/landhub-backend/api/validators"
	"github.com/angelmondragon/landhub-backend/internal/messages"
	pkgerrors "github.com/angelmondragon/landhub-backend/pkg/errors"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
	"github.com/angelmondragon/landhub-backend/pkg/pagination"
)

type sendMessageRequest struct {
	RecipientID string `json:"recipientId" validate:"required,uuid"`
	ListingID   string `json:"listingId,omitempty" validate:"omitempty,uuid"`
	Message     string `json:"message" validate:"required,notblank,max=2000"`
}

// SendMessage posts a message from the caller to another user.
func SendMessage(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "messages")
			return
		}
		senderID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		var body sendMessageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipientID, err := uuid.Parse(body.RecipientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipientId"))
			return
		}
		input := messages.SendInput{SenderID: senderID, RecipientID: recipientID, Body: body.Message}
		if body.ListingID != "" {
			listingID, err := uuid.Parse(body.ListingID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listingId"))
				return
			}
			input.ListingID = &listingID
		}

		msg, err := svc.Send(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, msg)
	}
}

// ListMessages returns one page of a conversation, oldest first.
func ListMessages(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "messages")
			return
		}
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		conversationID, err := validators.ParseQueryUUID(r, "conversationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Thread(r.Context(), messages.ThreadParams{
			UserID:         userID,
			ConversationID: conversationID,
			Limit:          limit,
			Cursor:         strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func MarkMessageRead(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "messages")
			return
		}
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		messageID, err := validators.ParseUUIDParam(r, "messageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), userID, messageID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

func MarkConversationRead(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "messages")
			return
		}
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		conversationID, err := validators.ParseUUIDParam(r, "conversationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.MarkThreadRead(r.Context(), userID, conversationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}

func UnreadMessageCount(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "messages")
			return
		}
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		unread, err := svc.UnreadCount(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"unread": unread})
	}
}
