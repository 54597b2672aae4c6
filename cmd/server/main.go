package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookgo/clock"
	h "github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"github.com/alertline/alertline-api/internal/alerting"
	"github.com/alertline/alertline-api/internal/config"
	"github.com/alertline/alertline-api/internal/directory"
	"github.com/alertline/alertline-api/internal/handlers"
	"github.com/alertline/alertline-api/internal/middleware"
	"github.com/alertline/alertline-api/internal/migration"
	"github.com/alertline/alertline-api/internal/repository"
	"github.com/alertline/alertline-api/internal/routes"
	"github.com/alertline/alertline-api/internal/sweeper"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config   *config.Config
	db       *sql.DB
	logger   zerolog.Logger
	alerting alerting.Service
	dir      *directory.Postgres
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL)

	// Wire the alerting engine.
	clk := clock.New()
	alertRepo := repository.NewAlertRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	dir := directory.NewPostgres(db)

	channels := alerting.Channels{
		InApp: alerting.NewInAppChannel(deliveryRepo, prefRepo, clk, logger),
		Email: alerting.NewEmailChannel(cfg.Email, logger),
		SMS:   alerting.NewSMSChannel(cfg.SMS, logger),
	}

	alertingService := alerting.NewService(
		alertRepo,
		prefRepo,
		deliveryRepo,
		alerting.NewTargetResolver(dir),
		channels,
		clk,
		cfg.Sweep.DeliveryTimeout,
		logger,
	)

	app := &application{
		config:   cfg,
		db:       db,
		logger:   logger,
		alerting: alertingService,
		dir:      dir,
	}

	// Start the reminder sweeper in a separate goroutine.
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go func() {
		reminderSweeper := sweeper.New(alertingService, cfg.Sweep.Interval, logger)
		if err := reminderSweeper.Start(sweepCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("reminder sweeper exited")
		}
	}()

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, stopSweeper, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	authHandler := handlers.NewAuthHandler(app.dir, app.config.JWTSecret, logger)
	alertHandler := handlers.NewAlertHandler(app.alerting, logger)
	feedHandler := handlers.NewFeedHandler(app.alerting, app.dir, logger)
	adminHandler := handlers.NewAdminHandler(app.alerting, app.dir, logger)

	return routes.NewRouter(authHandler, alertHandler, feedHandler, adminHandler)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, stopSweeper context.CancelFunc, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}

	// Stop the reminder sweeper.
	logger.Info().Msg("Stopping reminder sweeper...")
	stopSweeper()
	logger.Info().Msg("Reminder sweeper stopped.")
}
