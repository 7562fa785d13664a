// Package pipeline runs one scrape of the gazette: load known keys, traverse
// the listing, then fetch, parse, deduplicate and append each new record.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-permits/internal/clock/system"
	"github.com/JakeFAU/gazette-permits/internal/dedup"
	"github.com/JakeFAU/gazette-permits/internal/extract"
	"github.com/JakeFAU/gazette-permits/internal/gazette"
	"github.com/JakeFAU/gazette-permits/internal/id/uuid"
	"github.com/JakeFAU/gazette-permits/internal/logging"
	"github.com/JakeFAU/gazette-permits/internal/metrics"
	"github.com/JakeFAU/gazette-permits/internal/pagination"
	"github.com/JakeFAU/gazette-permits/internal/policy/ratelimit"
	"github.com/JakeFAU/gazette-permits/internal/sink"
)

// Config controls Orchestrator behavior.
type Config struct {
	StartURL string
	// KeyColumn is the table column holding the source URL.
	KeyColumn  int
	Pagination pagination.Config
	// DetailInterval is the minimum spacing between detail fetches.
	DetailInterval time.Duration
	// RetryFailedWrites lets a record whose append failed be attempted again
	// if its URL shows up later in the same run.
	RetryFailedWrites bool

	ArchivePrefix      string
	ArchiveContentType string
	Topic              string
}

// Deps are the collaborators of a run. Archive and Publisher are optional.
type Deps struct {
	Browser   gazette.Browser
	Table     gazette.Table
	Listing   *extract.ListingExtractor
	Parser    *extract.DetailParser
	Hasher    gazette.Hasher
	Clock     gazette.Clock
	IDs       gazette.IDGenerator
	Retry     RetryPolicy
	Archive   gazette.BlobStore
	Publisher gazette.Publisher
	Logger    *zap.Logger
}

// Orchestrator sequences a run. Every collaborator call is issued from the
// calling goroutine, one at a time.
type Orchestrator struct {
	browser   gazette.Browser
	table     gazette.Table
	listing   *extract.ListingExtractor
	parser    *extract.DetailParser
	writer    *sink.Writer
	clock     gazette.Clock
	ids       gazette.IDGenerator
	retry     RetryPolicy
	archive   gazette.BlobStore
	publisher gazette.Publisher
	cfg       Config
	logger    *zap.Logger
}

// New validates deps and fills optional ones with production defaults.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	var missing []string
	if strings.TrimSpace(cfg.StartURL) == "" {
		missing = append(missing, "start url")
	}
	if deps.Browser == nil {
		missing = append(missing, "browser")
	}
	if deps.Table == nil {
		missing = append(missing, "table")
	}
	if deps.Listing == nil {
		missing = append(missing, "listing extractor")
	}
	if deps.Parser == nil {
		missing = append(missing, "detail parser")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", gazette.ErrConfiguration, strings.Join(missing, ", "))
	}
	if cfg.KeyColumn < 0 {
		cfg.KeyColumn = gazette.ColumnSourceURL
	}
	if cfg.ArchiveContentType == "" {
		cfg.ArchiveContentType = "text/html; charset=utf-8"
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.IDs == nil {
		deps.IDs = uuid.NewUUIDGenerator()
	}
	if deps.Retry == nil {
		deps.Retry = NewExponentialRetryPolicy(2)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	metrics.Init()
	return &Orchestrator{
		browser:   deps.Browser,
		table:     deps.Table,
		listing:   deps.Listing,
		parser:    deps.Parser,
		writer:    sink.NewWriter(deps.Table, deps.Hasher),
		clock:     deps.Clock,
		ids:       deps.IDs,
		retry:     deps.Retry,
		archive:   deps.Archive,
		publisher: deps.Publisher,
		cfg:       cfg,
		logger:    deps.Logger.Named("pipeline"),
	}, nil
}

// run is the single-owner state of one Run.
type run struct {
	id      string
	logger  *zap.Logger
	dedup   *dedup.Deduplicator
	limiter *ratelimit.Limiter
}

// Run executes one scrape. Only a key-snapshot failure or a failure to load the
// start URL is returned as an error, besides cancellation; per-record failures
// are counted in the summary. The summary is returned in every case.
func (o *Orchestrator) Run(ctx context.Context) (gazette.Summary, error) {
	started := o.clock.Now()
	runID, err := o.ids.NewID()
	if err != nil {
		return gazette.Summary{StartedAt: started}, fmt.Errorf("generate run id: %w", err)
	}
	summary := gazette.Summary{RunID: runID, StartedAt: started}
	r := &run{id: runID, logger: logging.ForRun(o.logger, runID)}
	r.logger.Info("run started", zap.String("start_url", o.cfg.StartURL))

	err = o.execute(ctx, r, &summary)

	finished := o.clock.Now()
	summary.Duration = finished.Sub(started)
	metrics.ObserveListingPages(summary.Pages)
	metrics.ObserveDiscovered(summary.Discovered)
	metrics.ObserveRun(finished, summary.Duration)

	fields := []zap.Field{
		zap.Int("pages", summary.Pages),
		zap.Int("discovered", summary.Discovered),
		zap.Int("missing_url", summary.MissingURL),
		zap.Int("written", summary.Written),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	}
	if err != nil {
		r.logger.Error("run aborted", append(fields, zap.Error(err))...)
		return summary, err
	}
	r.logger.Info("run finished", fields...)
	return summary, nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run, summary *gazette.Summary) error {
	keys, err := dedup.Load(ctx, o.table, o.cfg.KeyColumn)
	if err != nil {
		return err
	}
	r.dedup = dedup.New(keys)
	r.logger.Info("existing keys loaded", zap.Int("keys", keys.Len()))

	entries, pages, err := o.traverse(ctx, r)
	summary.Pages = pages
	summary.Discovered = len(entries)
	if err != nil {
		return err
	}
	r.logger.Info("listing converged", zap.Int("pages", pages), zap.Int("entries", len(entries)))

	r.limiter = ratelimit.New(ratelimit.Config{Interval: o.cfg.DetailInterval})
	total := len(entries)
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.TrimSpace(entry.DetailURL) == "" {
			summary.MissingURL++
			r.logger.Warn("entry has no detail url",
				zap.Int("index", i+1),
				zap.Int("total", total),
				zap.String("title", entry.Title),
			)
			continue
		}
		outcome, err := o.process(ctx, r, entry)
		if err != nil {
			return err
		}
		summary.Record(outcome)
		metrics.ObserveRecord(string(outcome))
		r.logger.Info("record processed",
			zap.Int("index", i+1),
			zap.Int("total", total),
			zap.String("url", entry.DetailURL),
			zap.String("outcome", string(outcome)),
		)
	}
	return nil
}

// traverse loads the start URL and advances the listing until it converges.
// Failing to load the start URL is fatal; a failed advance ends the traversal
// with what has been collected.
func (o *Orchestrator) traverse(ctx context.Context, r *run) ([]gazette.ListEntry, int, error) {
	snap, err := o.browser.Goto(ctx, o.cfg.StartURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		metrics.ObserveNavigationFailure("listing", o.cfg.StartURL)
		var navErr *gazette.NavigationError
		if !errors.As(err, &navErr) {
			err = &gazette.NavigationError{URL: o.cfg.StartURL, Err: err}
		}
		return nil, 0, err
	}

	harvest := newCollector(o.listing, r.logger)
	driver := pagination.NewDriver(o.browser, harvest, o.cfg.Pagination, r.logger)
	cycle := driver.Start(snap)
	for cycle.Continue {
		cycle, err = driver.Advance(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return harvest.Entries(), driver.Pages(), ctxErr
			}
			metrics.ObserveNavigationFailure("listing", o.cfg.StartURL)
			r.logger.Warn("listing advance failed, keeping entries collected so far", zap.Error(err))
			break
		}
		r.logger.Debug("listing cycle",
			zap.String("action", cycle.Action),
			zap.Int("entries", cycle.Entries),
			zap.Int64("height", cycle.Height),
			zap.Bool("progress", cycle.Progress),
			zap.Stringer("state", driver.State()),
		)
	}
	return harvest.Entries(), driver.Pages(), nil
}

// process handles one entry. The returned error is non-nil only on
// cancellation.
func (o *Orchestrator) process(ctx context.Context, r *run, entry gazette.ListEntry) (gazette.Outcome, error) {
	if r.dedup.ShouldSkip(entry.DetailURL) {
		return gazette.OutcomeDuplicate, nil
	}
	waited, err := r.limiter.Wait(ctx, entry.DetailURL)
	if err != nil {
		return "", ctxOr(ctx, err)
	}
	metrics.ObservePacingDelay(waited)

	snap, err := o.fetchDetail(ctx, r, entry.DetailURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		metrics.ObserveNavigationFailure("detail", entry.DetailURL)
		r.logger.Warn("detail page failed to load", zap.String("url", entry.DetailURL), zap.Error(err))
		return gazette.OutcomeFailed, nil
	}

	rec := withListingFallbacks(o.parser.Parse(snap, entry.DetailURL), entry)
	if r.dedup.ShouldSkip(rec.SourceURL) {
		return gazette.OutcomeDuplicate, nil
	}

	r.dedup.MarkAccepted(rec.SourceURL)
	fp, err := o.writer.Append(ctx, rec)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if o.cfg.RetryFailedWrites {
			r.dedup.Forget(rec.SourceURL)
		}
		r.logger.Warn("append failed", zap.String("source_url", rec.SourceURL), zap.Error(err))
		return gazette.OutcomeFailed, nil
	}

	blobURI := o.archiveSnapshot(ctx, r, snap, fp)
	o.notify(ctx, r, rec, fp, blobURI)
	return gazette.OutcomeWritten, nil
}

// fetchDetail loads a detail page, retrying per the retry policy.
func (o *Orchestrator) fetchDetail(ctx context.Context, r *run, detailURL string) (gazette.Snapshot, error) {
	start := o.clock.Now()
	for attempt := 1; ; attempt++ {
		snap, err := o.browser.Goto(ctx, detailURL)
		if err == nil {
			metrics.ObserveDetailFetch(o.clock.Now().Sub(start))
			return snap, nil
		}
		if !o.retry.ShouldRetry(err, attempt) || ctx.Err() != nil {
			return gazette.Snapshot{}, err
		}
		r.logger.Debug("retrying detail page",
			zap.String("url", detailURL),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if waitErr := o.browser.Wait(ctx, o.retry.Backoff(attempt)); waitErr != nil {
			return gazette.Snapshot{}, ctxOr(ctx, waitErr)
		}
	}
}

// archiveSnapshot stores the detail HTML when an archive is configured. It
// returns the blob URI or "" when nothing was stored.
func (o *Orchestrator) archiveSnapshot(ctx context.Context, r *run, snap gazette.Snapshot, fp string) string {
	if o.archive == nil {
		return ""
	}
	path := buildBlobPath(o.cfg.ArchivePrefix, r.id, fp)
	uri, err := o.archive.PutObject(ctx, path, o.cfg.ArchiveContentType, bytes.NewReader([]byte(snap.HTML)))
	if err != nil {
		r.logger.Warn("archive snapshot failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return uri
}

func (o *Orchestrator) notify(ctx context.Context, r *run, rec gazette.DetailRecord, fp, blobURI string) {
	if o.publisher == nil || o.cfg.Topic == "" {
		return
	}
	msg := Notification{
		RunID:         r.id,
		SourceURL:     rec.SourceURL,
		Title:         rec.Title,
		PublishedDate: rec.PublishedDate,
		Location:      rec.Location,
		Fingerprint:   fp,
		BlobURI:       blobURI,
		Timestamp:     o.clock.Now().UTC(),
	}
	if _, err := o.publisher.Publish(ctx, o.cfg.Topic, msg); err != nil {
		r.logger.Warn("publish notification failed", zap.String("source_url", rec.SourceURL), zap.Error(err))
	}
}

// Notification announces a written record.
type Notification struct {
	RunID         string    `json:"run_id"`
	SourceURL     string    `json:"source_url"`
	Title         string    `json:"title"`
	PublishedDate string    `json:"published_date"`
	Location      string    `json:"location"`
	Fingerprint   string    `json:"fingerprint"`
	BlobURI       string    `json:"blob_uri,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Attributes returns the message attributes used for subscription filtering.
func (n Notification) Attributes() map[string]string {
	return map[string]string{
		"run_id":      n.RunID,
		"fingerprint": n.Fingerprint,
	}
}

// withListingFallbacks fills fields the detail page did not yield from the
// listing entry.
func withListingFallbacks(rec gazette.DetailRecord, entry gazette.ListEntry) gazette.DetailRecord {
	if rec.Title == "" {
		rec.Title = gazette.NormalizeSpace(entry.Title)
	}
	if rec.PublishedDate == "" {
		rec.PublishedDate = gazette.NormalizeSwissDate(entry.PublishedDateRaw)
	}
	if rec.Location == "" {
		rec.Location = gazette.NormalizeSpace(entry.LocationLabel)
	}
	if rec.DocumentURL == "" {
		rec.DocumentURL = entry.DocumentURL
	}
	return rec
}

func buildBlobPath(prefix, runID, fp string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s.html", runID, fp)
	}
	return fmt.Sprintf("%s/%s/%s.html", prefix, runID, fp)
}

// ctxOr prefers the context's own error so callers can match it with
// errors.Is.
func ctxOr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
