package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/dokzlo13/ringclock/internal/app"
	"github.com/dokzlo13/ringclock/internal/config"
)

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "Path to configuration file")
	once := pflag.Bool("once", false, "Update every device once and exit")
	dryRun := pflag.Bool("dry-run", false, "Compute and log frames without sending them")
	clearCache := pflag.Bool("clear-cache", false, "Clear cached device info on startup")
	logLevel := pflag.String("log-level", "", "Override the configured log level")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level := cfg.Log.GetLevel()
	if *logLevel != "" {
		level = *logLevel
	}

	// Setup logging
	setupLogging(level, cfg.Log.UseJSON, cfg.Log.Colors)

	log.Info().Str("config", *configPath).Bool("dry_run", *dryRun).Msg("Starting ringclock")

	// Create application
	application, err := app.New(cfg, app.Options{DryRun: *dryRun})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	// Handle clear cache flag
	if *clearCache {
		n, err := application.ClearCache()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to clear device info cache")
		} else {
			log.Info().Int64("entries", n).Msg("Cleared device info cache (--clear-cache)")
		}
	}

	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.TickInterval.Duration()+cfg.HTTPTimeout.Duration())
		outcomes, err := application.RunOnce(ctx)
		cancel()
		for name, outcome := range outcomes {
			log.Info().Str("device", name).Str("outcome", string(outcome)).Msg("Device processed")
		}
		application.Stop()
		if err != nil {
			os.Exit(1)
		}
		return
	}

	// Create context that cancels on shutdown signal
	ctx := app.SignalContext()

	// Start the application
	if err := application.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	// Wait for shutdown
	application.Wait()

	// Graceful shutdown
	if err := application.Stop(); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
}

func setupLogging(level string, useJSON bool, colors bool) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		// JSON output for production
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		// Text output (with optional colors)
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !colors,
		})
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
