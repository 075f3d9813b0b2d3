package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/landhub-backend/api/controllers"
	"github.com/angelmondragon/landhub-backend/api/middleware"
	"github.com/angelmondragon/landhub-backend/internal/bids"
	"github.com/angelmondragon/landhub-backend/internal/documents"
	"github.com/angelmondragon/landhub-backend/internal/listings"
	"github.com/angelmondragon/landhub-backend/internal/messages"
	"github.com/angelmondragon/landhub-backend/internal/notifications"
	"github.com/angelmondragon/landhub-backend/internal/offers"
	"github.com/angelmondragon/landhub-backend/pkg/config"
	"github.com/angelmondragon/landhub-backend/pkg/db"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
	"github.com/angelmondragon/landhub-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	listingsService listings.Service,
	bidsService bids.Service,
	offersService offers.Service,
	notificationsService notifications.Service,
	messagesService messages.Service,
	documentsService documents.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// A nil *redis.Client must not leak into the middleware as a non-nil interface.
	var idempotencyStore middleware.IdempotencyStore
	var rateStore middleware.RateLimitStore
	readiness := map[string]controllers.Pinger{"database": dbP}
	if redisClient != nil {
		idempotencyStore = redisClient
		rateStore = redisClient
		readiness["redis"] = redisClient
	}

	bidPolicy := middleware.NewRateLimitPolicy(
		"bids",
		cfg.BidRateLimit.Window,
		cfg.BidRateLimit.Limit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/listings", controllers.ListListings(listingsService, logg))
		r.Get("/listings/{listingId}", controllers.GetListing(listingsService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			r.With(middleware.RequireRole(logg, enums.UserRoleSeller, enums.UserRoleAdmin)).
				Post("/listings", controllers.CreateListing(listingsService, logg))
			r.Post("/listings/{listingId}/withdraw", controllers.WithdrawListing(listingsService, logg))

			r.With(middleware.UserRateLimit(bidPolicy, rateStore, logg)).
				Post("/bids", controllers.PlaceBid(bidsService, logg))
			r.Get("/bids", controllers.ListBids(bidsService, logg))
			r.Get("/bids/me", controllers.ListMyBids(bidsService, logg))
			r.Delete("/bids/{bidId}", controllers.WithdrawBid(bidsService, logg))
			r.Post("/bids/{bidId}/accept", controllers.AcceptBid(bidsService, logg))

			r.Post("/offers", controllers.MakeOffer(offersService, logg))
			r.Get("/offers", controllers.ListOffers(offersService, logg))
			r.Get("/offers/{offerId}", controllers.GetOffer(offersService, logg))
			r.Patch("/offers/{offerId}", controllers.RespondOffer(offersService, logg))
			r.Delete("/offers/{offerId}", controllers.WithdrawOffer(offersService, logg))

			r.Get("/notifications", controllers.ListNotifications(notificationsService, logg))
			r.Post("/notifications/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/notifications/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))

			r.Post("/messages", controllers.SendMessage(messagesService, logg))
			r.Get("/messages", controllers.ListMessages(messagesService, logg))
			r.Get("/messages/unread-count", controllers.UnreadMessageCount(messagesService, logg))
			r.Post("/messages/{messageId}/read", controllers.MarkMessageRead(messagesService, logg))
			r.Post("/conversations/{conversationId}/read", controllers.MarkConversationRead(messagesService, logg))

			r.With(middleware.RequireRole(logg, enums.UserRoleSeller, enums.UserRoleAdmin)).
				Post("/listings/{listingId}/documents", controllers.RegisterDocument(documentsService, logg))
			r.Get("/listings/{listingId}/documents", controllers.ListDocuments(documentsService, logg))
			r.Delete("/documents/{documentId}", controllers.DeleteDocument(documentsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
		r.Post("/listings/{listingId}/publish", controllers.AdminPublishListing(listingsService, logg))
		r.Post("/documents/{documentId}/verify", controllers.AdminVerifyDocument(documentsService, logg))
		r.Post("/documents/{documentId}/reject", controllers.AdminRejectDocument(documentsService, logg))
	})

	return r
}
