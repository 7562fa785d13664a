package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-permits/internal/config"
	"github.com/JakeFAU/gazette-permits/internal/logging"
	"github.com/JakeFAU/gazette-permits/internal/metrics"
)

// newRootCmd creates the single permitcrawler command.
func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "permitcrawler [start-url]",
		Short: "Collects building permit publications from the Aargau gazette",
		Long: `permitcrawler walks the gazette listing (amtsblatt.ag.ch by default),
parses every publication it has not stored yet and appends one row per
publication to the configured table. The optional argument replaces the
configured start URL.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runCrawl,
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	var startURL string
	if len(args) == 1 {
		startURL = args[0]
	}
	cfg, err := config.Load(os.Getenv("PERMITS_CONFIG"), startURL)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	app, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer app.Close()

	summary, runErr := app.orchestrator.Run(ctx)

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("metrics textfile not written", zap.String("path", cfg.Metrics.Textfile), zap.Error(err))
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("print summary: %w", err)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("run interrupted: %w", runErr)
		}
		return runErr
	}
	return nil
}
