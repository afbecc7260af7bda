package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tandt53/apilot/internal/api"
	"github.com/tandt53/apilot/internal/config"
	"github.com/tandt53/apilot/internal/events"
	"github.com/tandt53/apilot/internal/stats"
	"github.com/tandt53/apilot/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Apilot server",
	Long: `Starts the Apilot import reconciliation server.

The server will:
  - Expose the Admin API at /_api/
  - Stream import events over WebSocket at /_api/events/stream
  - Persist specs, endpoints, and test cases via the configured storage

Configuration is loaded from config.yaml in the current directory,
or specify a custom config file with the --config flag.`,
	RunE: runServe,
}

var portFlag int

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Override server port")

	// Bind flags to viper
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := configFromViper()

	// Override port if flag was explicitly set
	if portFlag > 0 {
		cfg.Server.Port = portFlag
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogging(cfg.Logging)

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initialize statistics collector and event service
	statsCollector := stats.NewCollector()
	eventService := events.NewService(cfg.Events.MaxEvents)

	// Setup router
	router := api.NewRouter(store, statsCollector, eventService)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Starting Apilot server")
		log.Info().Msgf("Admin API available at http://%s/_api/", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
	return nil
}

// configFromViper assembles a Config from the resolved viper state so that
// file values, env vars, and flags all land in one place
func configFromViper() *config.Config {
	cfg := config.Default()
	cfg.Server.Port = viper.GetInt("server.port")
	cfg.Server.Host = viper.GetString("server.host")
	cfg.Storage.Type = viper.GetString("storage.type")
	cfg.Storage.Path = viper.GetString("storage.path")
	cfg.Events.MaxEvents = viper.GetInt("events.maxEvents")
	cfg.Import.OnDuplicate = viper.GetString("import.onDuplicate")
	cfg.Import.MarkAsDeprecated = viper.GetBool("import.markAsDeprecated")
	cfg.Logging.Level = viper.GetString("logging.level")
	cfg.Logging.Format = viper.GetString("logging.format")
	return cfg
}

func setupLogging(cfg config.LoggingConfig) {
	switch cfg.Level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func openStorage(cfg config.StorageConfig) (storage.Storage, error) {
	if cfg.Type != "file" {
		return storage.NewMemoryStorage(), nil
	}

	// Resolve relative storage path to absolute
	path := cfg.Path
	if path != "" && !filepath.IsAbs(path) {
		if cwd, err := os.Getwd(); err == nil {
			path = filepath.Join(cwd, path)
		}
	}

	log.Info().Str("path", path).Msg("Using data directory")

	store, err := storage.NewFileStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}
	return store, nil
}
