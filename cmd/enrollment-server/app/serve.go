package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/attendly/enrollment-server/internal/api"
	"github.com/attendly/enrollment-server/internal/config"
	"github.com/attendly/enrollment-server/internal/db"
	"github.com/attendly/enrollment-server/internal/registration"
	"github.com/attendly/enrollment-server/internal/scheduler"
	"github.com/attendly/enrollment-server/internal/sequence"
	"github.com/attendly/enrollment-server/internal/telemetry"
	"github.com/attendly/enrollment-server/internal/versions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enrollment server",
	Long: `Start the enrollment server.

The server accepts registrations on the intake API and runs the background
reconciliation job that enrolls participants into the configured marketing
sequence one day after their session date.

The configuration file (--config) specifies the intake listen address, the
sequence API endpoints and credentials, the database connection, and the
reconciliation interval.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second // Kubernetes-friendly shutdown time
	serverRequestTimeout   = 10 * time.Second // Intake requests should respond quickly
	serverReadTimeout      = 10 * time.Second // Enough for headers and small bodies
	serverWriteTimeout     = 15 * time.Second // Must be > serverRequestTimeout to let middleware handle timeout
	serverIdleTimeout      = 60 * time.Second // Keep connections alive for reuse
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	address := viper.GetString("address")
	if address == "" {
		address = cfg.GetAddress()
	}

	slog.Info("Starting enrollment server",
		"address", address,
		"scan_interval", cfg.GetScanInterval())

	// Metrics (no-op when no endpoint is configured)
	meterProvider, err := telemetry.NewMeterProvider(ctx,
		telemetry.WithMeterServiceVersion(versions.GetVersionInfo().Version),
		telemetry.WithMeterEndpoint(cfg.Telemetry.Endpoint),
		telemetry.WithMeterInsecure(cfg.Telemetry.Insecure),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	schedulerMetrics, err := telemetry.NewSchedulerMetrics(meterProvider)
	if err != nil {
		return fmt.Errorf("failed to create scheduler metrics: %w", err)
	}

	// Database
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	store := registration.NewPostgresStore(conn.Pool)

	// External sequence API clients
	apiKey, err := cfg.Sequence.GetAPIKey()
	if err != nil {
		return fmt.Errorf("failed to read sequence API key: %w", err)
	}
	tokens := sequence.NewTokenProvider(cfg.Sequence.TokenURL, apiKey)
	enroller := sequence.NewEnroller(cfg.Sequence.ContactURL)

	// Background reconciliation
	reconciler := scheduler.NewReconciler(store, tokens, enroller,
		scheduler.WithMetrics(schedulerMetrics))
	coordinator := scheduler.NewCoordinator(reconciler, cfg,
		scheduler.WithCoordinatorMetrics(schedulerMetrics))

	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	go func() {
		if err := coordinator.Start(schedCtx); err != nil {
			slog.Error("Reconciliation coordinator failed", "error", err)
		}
	}()

	// Intake API server
	router := api.NewServer(store, conn,
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(serverRequestTimeout),
			api.LoggingMiddleware,
		),
	)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		slog.Info("Server listening", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	if err := coordinator.Stop(); err != nil {
		slog.Error("Failed to stop reconciliation coordinator", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}

	slog.Info("Server shutdown complete")
	return nil
}
