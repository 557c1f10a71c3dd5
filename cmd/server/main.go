package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/roamly/grouptrip-api/internal/auth"
	"github.com/roamly/grouptrip-api/internal/config"
	"github.com/roamly/grouptrip-api/internal/database"
	"github.com/roamly/grouptrip-api/internal/handlers"
	"github.com/roamly/grouptrip-api/internal/notifier"
)

func main() {
	// Structured logging
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		TimeFormat: time.Kitchen,
	})))

	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)

	// Discord notifier is optional; the core works without it.
	var groupNotifier notifier.Notifier
	if cfg.DiscordBotToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			slog.Warn("Discord notifier not initialized", "error", err)
		} else {
			groupNotifier = notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID)
		}
	}

	// Initialize Handlers
	authHandler := auth.NewAuthHandler(cfg, db)
	catalogHandler := handlers.NewCatalogHandler(db, authHandler)
	groupHandler := handlers.NewGroupHandler(db, groupNotifier, authHandler)
	proposalHandler := handlers.NewProposalHandler(db, authHandler)
	voteHandler := handlers.NewVoteHandler(db, authHandler)
	bookingHandler := handlers.NewBookingHandler(db, groupNotifier, authHandler, cfg)
	apiKeyHandler := handlers.NewAPIKeyHandler(db, authHandler)

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, authHandler, catalogHandler, groupHandler, proposalHandler, voteHandler, bookingHandler, apiKeyHandler)

	// Start Server
	slog.Info("Starting server", "port", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
