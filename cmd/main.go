package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/DaviCMachado/Calendar-Agendator/internal/config"
	"github.com/DaviCMachado/Calendar-Agendator/internal/gemini"
	"github.com/DaviCMachado/Calendar-Agendator/internal/google"
	"github.com/DaviCMachado/Calendar-Agendator/internal/icloud"
	"github.com/DaviCMachado/Calendar-Agendator/internal/mailbox"
	"github.com/DaviCMachado/Calendar-Agendator/internal/pipeline"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "agendator",
		Usage: "Watch a mailbox and schedule events found in new e-mails.",
		Commands: []*cli.Command{
			runCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the e-mail to calendar extraction pipeline.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "once", Usage: "Run one pipeline cycle and exit."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be scheduled without creating events."},
			&cli.IntFlag{Name: "watch", Value: 60, Usage: "Run a cycle every N seconds. Overridden by --once."},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			logger := setupLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			dryRun := c.Bool("dry-run")
			if dryRun {
				logger.Info("Performing a dry run. No events will be created.")
			}

			if !cfg.HasMailCredentials() {
				logger.Warn("EMAIL_USER or EMAIL_PASS is not set; cycles will find no e-mails.")
			}

			mbox := mailbox.NewClient(logger, cfg.IMAPAddr, cfg.EmailUser, cfg.EmailPass, cfg.Lookback)
			extractor := gemini.NewClient(logger, cfg.GeminiAPIKey, cfg.GeminiModel, gemini.DefaultRetryPolicy)

			var sinks []pipeline.Sink
			if !dryRun {
				gClient, err := google.NewClient(ctx, logger, cfg.CredentialsFile, cfg.CalendarID, cfg.EventLocation, cfg.EventTimeZone)
				if err != nil {
					return fmt.Errorf("failed to create google calendar client: %w", err)
				}
				sinks = append(sinks, gClient)

				if cfg.HasICloud() {
					loc, err := time.LoadLocation(cfg.EventTimeZone)
					if err != nil {
						return fmt.Errorf("invalid timezone '%s': %w", cfg.EventTimeZone, err)
					}
					iClient, err := icloud.NewClient(logger, cfg.ICloudUsername, cfg.ICloudPassword, cfg.ICloudCalendar, cfg.EventLocation, loc)
					if err != nil {
						return fmt.Errorf("failed to create icloud client: %w", err)
					}
					sinks = append(sinks, iClient)
				}
			}

			p := pipeline.New(logger, mbox, extractor, sinks, dryRun)

			if c.Bool("once") {
				logger.Info("Running a single pipeline cycle.")
				if err := p.RunCycle(ctx); err != nil {
					return fmt.Errorf("single pipeline cycle failed: %w", err)
				}
				return nil
			}

			interval := time.Duration(c.Int("watch")) * time.Second
			p.Run(ctx, interval)
			return nil
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
