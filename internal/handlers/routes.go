package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roamly/grouptrip-api/internal/auth"
)

func RegisterRoutes(
	r *chi.Mux,
	authHandler *auth.AuthHandler,
	catalogHandler *CatalogHandler,
	groupHandler *GroupHandler,
	proposalHandler *ProposalHandler,
	voteHandler *VoteHandler,
	bookingHandler *BookingHandler,
	apiKeyHandler *APIKeyHandler,
) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Initialize Huma API
	config := huma.DefaultConfig("Group Trip API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Auth routes
	r.Get("/auth/discord/login", authHandler.HandleLogin)
	r.Get("/auth/discord/callback", authHandler.HandleCallback)

	secured := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}}
	}

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authHandler.AuthMiddleware)

		huma.Get(api, "/me", authHandler.HandleMe, secured)

		// API keys
		huma.Post(api, "/api-keys", apiKeyHandler.HandleCreate, secured)
		huma.Get(api, "/api-keys", apiKeyHandler.HandleList, secured)
		huma.Delete(api, "/api-keys/{id}", apiKeyHandler.HandleDelete, secured)

		// Catalog
		huma.Post(api, "/offers", catalogHandler.HandleCreateOffer, secured)
		huma.Get(api, "/offers", catalogHandler.HandleListOffers, secured)
		huma.Get(api, "/offers/{id}", catalogHandler.HandleGetOffer, secured)

		// Groups and membership
		huma.Post(api, "/groups", groupHandler.HandleCreateGroup, secured)
		huma.Get(api, "/groups", groupHandler.HandleListGroups, secured)
		huma.Get(api, "/groups/{id}", groupHandler.HandleGetGroup, secured)
		huma.Post(api, "/groups/{id}/join", groupHandler.HandleJoinGroup, secured)
		huma.Post(api, "/groups/{id}/leave", groupHandler.HandleLeaveGroup, secured)
		huma.Post(api, "/groups/{id}/promote", groupHandler.HandlePromoteMember, secured)
		huma.Post(api, "/groups/{id}/cancel", groupHandler.HandleCancelGroup, secured)

		// Decision state machine
		huma.Post(api, "/groups/{id}/start-voting", groupHandler.HandleStartVoting, secured)
		huma.Post(api, "/groups/{id}/end-voting", groupHandler.HandleEndVoting, secured)

		// Proposals and votes
		huma.Post(api, "/groups/{id}/proposals", proposalHandler.HandleCreateProposal, secured)
		huma.Get(api, "/groups/{id}/proposals", proposalHandler.HandleListProposals, secured)
		huma.Delete(api, "/proposals/{id}", proposalHandler.HandleDeleteProposal, secured)
		huma.Post(api, "/proposals/{id}/vote", voteHandler.HandleCastVote, secured)

		// Booking and payments
		huma.Post(api, "/groups/{id}/booking", bookingHandler.HandleInitializeBooking, secured)
		huma.Get(api, "/booking/{id}", bookingHandler.HandleGetSession, secured)
		huma.Post(api, "/booking/{id}/reserve", bookingHandler.HandleReserveSpot, secured)
		huma.Post(api, "/booking/{id}/pay", bookingHandler.HandleMarkPaid, secured)
		huma.Post(api, "/booking/{id}/cancel-participation", bookingHandler.HandleCancelParticipation, secured)
		huma.Post(api, "/booking/{id}/remind", bookingHandler.HandleSendReminder, secured)
		huma.Post(api, "/booking/{id}/finalize", bookingHandler.HandleFinalizeBooking, secured)
	})
}
