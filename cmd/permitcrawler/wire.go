package main

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-permits/internal/browser"
	"github.com/JakeFAU/gazette-permits/internal/clock/system"
	"github.com/JakeFAU/gazette-permits/internal/config"
	"github.com/JakeFAU/gazette-permits/internal/extract"
	"github.com/JakeFAU/gazette-permits/internal/gazette"
	"github.com/JakeFAU/gazette-permits/internal/hash/sha256"
	"github.com/JakeFAU/gazette-permits/internal/id/uuid"
	"github.com/JakeFAU/gazette-permits/internal/pagination"
	"github.com/JakeFAU/gazette-permits/internal/pipeline"
	pubsubpublisher "github.com/JakeFAU/gazette-permits/internal/publisher/pubsub"
	"github.com/JakeFAU/gazette-permits/internal/storage/gcs"
	"github.com/JakeFAU/gazette-permits/internal/storage/local"
	memorytable "github.com/JakeFAU/gazette-permits/internal/table/memory"
	"github.com/JakeFAU/gazette-permits/internal/table/postgres"
	"github.com/JakeFAU/gazette-permits/internal/table/sheets"
)

// app owns the collaborators of one run and releases them on Close.
type app struct {
	orchestrator *pipeline.Orchestrator
	closers      []func()
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// build wires the orchestrator from cfg. On error every resource acquired so
// far is released.
func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	table, err := buildTable(ctx, cfg, logger, a)
	if err != nil {
		return nil, err
	}
	b, err := buildBrowser(cfg, logger, a)
	if err != nil {
		return nil, err
	}
	archive, err := buildArchive(ctx, cfg, a)
	if err != nil {
		return nil, err
	}
	var publisher gazette.Publisher
	if cfg.PubSub.ProjectID != "" {
		p, err := pubsubpublisher.New(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if cerr := p.Close(); cerr != nil {
				logger.Warn("close pubsub publisher", zap.Error(cerr))
			}
		})
		publisher = p
	}

	var detailPattern *regexp.Regexp
	if cfg.Gazette.DetailPattern != "" {
		detailPattern, err = regexp.Compile(cfg.Gazette.DetailPattern)
		if err != nil {
			return nil, fmt.Errorf("%w: gazette.detail_pattern: %w", gazette.ErrConfiguration, err)
		}
	}

	pcfg := pagination.DefaultConfig()
	pcfg.Scroll = cfg.Pagination.Scroll
	pcfg.SettleDelay = cfg.Pagination.SettleDelay
	pcfg.StagnationLimit = cfg.Pagination.StagnationLimit
	pcfg.MaxPages = cfg.Pagination.MaxPages
	if len(cfg.Pagination.Controls) > 0 {
		pcfg.Controls = cfg.Pagination.Controls
	}

	a.orchestrator, err = pipeline.New(pipeline.Config{
		StartURL:           cfg.Gazette.StartURL,
		KeyColumn:          cfg.KeyColumn(),
		Pagination:         pcfg,
		DetailInterval:     cfg.Pipeline.DetailInterval,
		RetryFailedWrites:  cfg.Pipeline.RetryFailedWrites,
		ArchivePrefix:      cfg.Storage.Prefix,
		ArchiveContentType: cfg.Storage.ContentType,
		Topic:              cfg.PubSub.Topic,
	}, pipeline.Deps{
		Browser:   b,
		Table:     table,
		Listing:   extract.NewListingExtractor(cfg.Gazette.BaseURL, detailPattern, extract.ListingLayout{}),
		Parser:    extract.NewDetailParser(cfg.Gazette.BaseURL, extract.DetailLayout{}, nil, logger),
		Hasher:    sha256.New(),
		Clock:     system.New(),
		IDs:       uuid.NewUUIDGenerator(),
		Retry:     pipeline.NewExponentialRetryPolicy(cfg.Pipeline.NavRetries),
		Archive:   archive,
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func buildTable(ctx context.Context, cfg config.Config, logger *zap.Logger, a *app) (gazette.Table, error) {
	var table gazette.Table
	switch cfg.Sink.Backend {
	case config.SinkSheets:
		t, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			Range:           cfg.Sheets.Range,
			CredentialsFile: cfg.Sheets.CredentialsFile,
			HeaderRows:      cfg.Sheets.HeaderRows,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", gazette.ErrStoreUnavailable, err)
		}
		table = t
	case config.SinkPostgres:
		t, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", gazette.ErrStoreUnavailable, err)
		}
		a.closers = append(a.closers, t.Close)
		table = t
	case config.SinkMemory:
		table = memorytable.NewTable()
	default:
		return nil, fmt.Errorf("%w: unknown sink backend %q", gazette.ErrConfiguration, cfg.Sink.Backend)
	}

	if !cfg.Pipeline.DryRun {
		return table, nil
	}
	logger.Info("dry run: appends go to an in-memory copy of the table", zap.String("backend", cfg.Sink.Backend))
	return dryRunTable(ctx, table)
}

// dryRunTable copies the rows of src into a memory table, so the key snapshot
// is real while appends stay local.
func dryRunTable(ctx context.Context, src gazette.Table) (*memorytable.Table, error) {
	rows, err := src.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read table for dry run: %w", gazette.ErrStoreUnavailable, err)
	}
	return memorytable.NewTable(rows...), nil
}

func buildBrowser(cfg config.Config, logger *zap.Logger, a *app) (gazette.Browser, error) {
	switch cfg.Browser.Mode {
	case config.BrowserStatic:
		return browser.NewStatic(browser.StaticConfig{
			UserAgent: cfg.Browser.UserAgent,
			Timeout:   cfg.Browser.NavTimeout,
		}, logger), nil
	case config.BrowserHeadless:
		h, err := browser.NewHeadless(browser.HeadlessConfig{
			UserAgent:         cfg.Browser.UserAgent,
			NavigationTimeout: cfg.Browser.NavTimeout,
			LoadDelay:         cfg.Browser.LoadDelay,
			ViewportWidth:     cfg.Browser.ViewportWidth,
			ViewportHeight:    cfg.Browser.ViewportHeight,
		}, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, h.Close)
		return h, nil
	default:
		return nil, fmt.Errorf("%w: unknown browser mode %q", gazette.ErrConfiguration, cfg.Browser.Mode)
	}
}

func buildArchive(ctx context.Context, cfg config.Config, a *app) (gazette.BlobStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageNone, "":
		return nil, nil
	case config.StorageLocal:
		return local.New(local.Config{BaseDir: cfg.Storage.Dir})
	case config.StorageGCS:
		s, err := gcs.Open(ctx, gcs.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = s.Close() })
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", gazette.ErrConfiguration, cfg.Storage.Backend)
	}
}
