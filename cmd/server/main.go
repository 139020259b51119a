package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/fxops/confirmhub/internal/auth"
	"github.com/fxops/confirmhub/internal/currency"
	"github.com/fxops/confirmhub/internal/database"
	"github.com/fxops/confirmhub/internal/parsing"
	"github.com/fxops/confirmhub/internal/reconciler"
	"github.com/fxops/confirmhub/internal/refdata"
	"github.com/fxops/confirmhub/internal/trades"
	"github.com/fxops/confirmhub/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// main initializes and runs the confirmation hub with graceful shutdown
// support. It wires the database, the parse orchestrator, the per-system
// response reconcilers and the ops API routes.
func main() {
	// Initialize database
	db, err := database.NewDatabase(os.Getenv("CONFIRMHUB_DB"))
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	jwtSecret := envOr("CONFIRMHUB_JWT_SECRET", "confirmhub-secret-key")
	authService := auth.NewService(jwtSecret)
	authHandlers := auth.NewGinHandlers(authService)
	// Register demo credentials; the simulation drives both the ops and the
	// internal surface, so its token carries both permissions
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret,
		auth.PermissionOps, auth.PermissionInternal)

	lookups := refdata.NewService(db)
	registry := parsing.NewRegistry(parsing.Deps{
		Lookups:    lookups,
		Convention: currency.Default(),
		Config: parsing.Config{
			OwnPartyID:   envOr("CONFIRMHUB_OWN_PARTY_ID", "OURBANK"),
			UTINamespace: envOr("CONFIRMHUB_UTI_NAMESPACE", "E02YXXXXXXXXXX"),
		},
	})
	orchestrator := parsing.NewOrchestrator(db, registry)
	parsingHandlers := parsing.NewGinHandlers(orchestrator)

	tradesService := trades.NewService(db)
	tradesHandlers := trades.NewGinHandlers(tradesService)

	// Create and start the response reconcilers; this process is assumed to
	// be the single active reconciler instance
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mx3 := reconciler.New(tradesService.GetDB(), reconciler.NewMX3Parser(), reconciler.Config{
		ResponseDir: envOr("CONFIRMHUB_MX3_RESPONSE_DIR", "drops/mx3/responses"),
		ArchiveDir:  envOr("CONFIRMHUB_MX3_ARCHIVE_DIR", "drops/mx3/archive"),
	})
	calypso := reconciler.New(tradesService.GetDB(), reconciler.NewCalypsoParser(), reconciler.Config{
		ResponseDir: envOr("CONFIRMHUB_CALYPSO_RESPONSE_DIR", "drops/calypso/responses"),
		ArchiveDir:  envOr("CONFIRMHUB_CALYPSO_ARCHIVE_DIR", "drops/calypso/archive"),
	})
	go func() {
		if err := mx3.Start(ctx); err != nil {
			zlog.Error().Err(err).Msg("mx3 reconciler stopped")
		}
	}()
	go func() {
		if err := calypso.Start(ctx); err != nil {
			zlog.Error().Err(err).Msg("calypso reconciler stopped")
		}
	}()

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, jwtSecret, authHandlers, parsingHandlers, tradesHandlers)

	// Get port from env otherwise it's 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Message/trade routes: JWT with the ops permission
// - Internal routes: JWT with the internal permission
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	parsingHandlers *parsing.GinHandlers,
	tradesHandlers *trades.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Message ingest routes
		messages := v1.Group("/messages")
		messages.Use(middleware.JWTAuth(jwtSecret, auth.PermissionOps))
		{
			messages.POST("", parsingHandlers.IngestMessageHandler())
		}

		// Trade status routes
		tradeRoutes := v1.Group("/trades")
		tradeRoutes.Use(middleware.JWTAuth(jwtSecret, auth.PermissionOps))
		{
			tradeRoutes.GET("/:trade_id", tradesHandlers.GetTradeHandler())
			tradeRoutes.GET("/:trade_id/events", tradesHandlers.GetTradeEventsHandler())
			tradeRoutes.POST("/:trade_id/links/:system_code/submit", tradesHandlers.SubmitLinkHandler())
		}

		// Internal routes: reprocessing is restricted to tokens carrying
		// the internal permission
		internal := v1.Group("/internal")
		internal.Use(middleware.JWTAuth(jwtSecret, auth.PermissionInternal))
		{
			internal.POST("/messages/:message_id/process", parsingHandlers.ProcessMessageHandler())
			internal.POST("/messages/process-pending", parsingHandlers.ProcessPendingHandler())
		}
	}
}
