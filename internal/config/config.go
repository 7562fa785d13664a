// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

// Sink backends.
const (
	SinkSheets   = "sheets"
	SinkPostgres = "postgres"
	SinkMemory   = "memory"
)

// Browser modes.
const (
	BrowserHeadless = "headless"
	BrowserStatic   = "static"
)

// Storage backends for the snapshot archive.
const (
	StorageNone  = "none"
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

// Config captures all run configuration loaded via Viper.
type Config struct {
	Gazette    GazetteConfig    `mapstructure:"gazette"`
	Sink       SinkConfig       `mapstructure:"sink"`
	Sheets     SheetsConfig     `mapstructure:"sheets"`
	DB         DBConfig         `mapstructure:"db"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Storage    StorageConfig    `mapstructure:"storage"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// GazetteConfig locates the listing.
type GazetteConfig struct {
	StartURL string `mapstructure:"start_url"`
	BaseURL  string `mapstructure:"base_url"`
	// DetailPattern overrides the detail-page URL pattern when set.
	DetailPattern string `mapstructure:"detail_pattern"`
}

// SinkConfig selects the external table.
type SinkConfig struct {
	Backend string `mapstructure:"backend"`
}

// SheetsConfig addresses the Google Sheets range.
type SheetsConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Range           string `mapstructure:"range"`
	CredentialsFile string `mapstructure:"credentials_file"`
	HeaderRows      int    `mapstructure:"header_rows"`
	KeyColumn       int    `mapstructure:"key_column"`
}

// DBConfig controls access to the Postgres table.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// BrowserConfig configures page loading.
type BrowserConfig struct {
	Mode           string        `mapstructure:"mode"`
	UserAgent      string        `mapstructure:"user_agent"`
	NavTimeout     time.Duration `mapstructure:"nav_timeout"`
	LoadDelay      time.Duration `mapstructure:"load_delay"`
	ViewportWidth  int64         `mapstructure:"viewport_width"`
	ViewportHeight int64         `mapstructure:"viewport_height"`
}

// PaginationConfig tunes listing convergence.
type PaginationConfig struct {
	MaxPages        int               `mapstructure:"max_pages"`
	StagnationLimit int               `mapstructure:"stagnation_limit"`
	SettleDelay     time.Duration     `mapstructure:"settle_delay"`
	Scroll          bool              `mapstructure:"scroll"`
	Controls        []gazette.Control `mapstructure:"controls"`
}

// PipelineConfig tunes per-record processing.
type PipelineConfig struct {
	DetailInterval    time.Duration `mapstructure:"detail_interval"`
	NavRetries        int           `mapstructure:"nav_retries"`
	RetryFailedWrites bool          `mapstructure:"retry_failed_writes"`
	DryRun            bool          `mapstructure:"dry_run"`
}

// StorageConfig sets where detail snapshots are archived.
type StorageConfig struct {
	Backend     string `mapstructure:"backend"`
	Dir         string `mapstructure:"dir"`
	GCSBucket   string `mapstructure:"gcs_bucket"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
}

// PubSubConfig holds metadata for written-record notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig points at the node-exporter textfile.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// legacyEnv maps keys to the unprefixed variables older deployments set.
var legacyEnv = map[string]string{
	"sheets.spreadsheet_id":   "SHEET_ID",
	"sheets.range":            "SHEET_RANGE",
	"sheets.credentials_file": "GOOGLE_APPLICATION_CREDENTIALS",
}

// Load builds a Config from disk/environment. A non-empty startURL (the
// positional CLI argument) overrides gazette.start_url.
func Load(path, startURL string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PERMITS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "PERMITS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: read config: %w", gazette.ErrConfiguration, err)
		}
	}
	if strings.TrimSpace(startURL) != "" {
		v.Set("gazette.start_url", strings.TrimSpace(startURL))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: unmarshal config: %w", gazette.ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gazette.start_url", gazette.DefaultStartURL)
	v.SetDefault("gazette.base_url", gazette.DefaultBaseURL)
	v.SetDefault("gazette.detail_pattern", "")
	v.SetDefault("sink.backend", SinkSheets)
	v.SetDefault("sheets.header_rows", 1)
	v.SetDefault("sheets.key_column", gazette.ColumnSourceURL)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "permits")
	v.SetDefault("db.max_conns", 2)
	v.SetDefault("browser.mode", BrowserHeadless)
	v.SetDefault("browser.user_agent", "gazette-permits/0.1")
	v.SetDefault("browser.nav_timeout", 45*time.Second)
	v.SetDefault("browser.load_delay", 2*time.Second)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 1200)
	v.SetDefault("pagination.max_pages", 50)
	v.SetDefault("pagination.stagnation_limit", 3)
	v.SetDefault("pagination.settle_delay", time.Second)
	v.SetDefault("pagination.scroll", true)
	v.SetDefault("pipeline.detail_interval", 500*time.Millisecond)
	v.SetDefault("pipeline.nav_retries", 2)
	v.SetDefault("pipeline.retry_failed_writes", false)
	v.SetDefault("pipeline.dry_run", false)
	v.SetDefault("storage.backend", StorageNone)
	v.SetDefault("storage.dir", "data/snapshots")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "permits")
	v.SetDefault("storage.content_type", "text/html; charset=utf-8")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits. Every failure
// wraps gazette.ErrConfiguration.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if err := validateHTTPURL(c.Gazette.StartURL); err != nil {
		add("gazette.start_url: %w", err)
	}
	if err := validateHTTPURL(c.Gazette.BaseURL); err != nil {
		add("gazette.base_url: %w", err)
	}
	if c.Gazette.DetailPattern != "" {
		if _, err := regexp.Compile(c.Gazette.DetailPattern); err != nil {
			add("gazette.detail_pattern: %w", err)
		}
	}

	switch c.Sink.Backend {
	case SinkSheets:
		if strings.TrimSpace(c.Sheets.SpreadsheetID) == "" {
			add("sheets.spreadsheet_id is required (SHEET_ID)")
		}
		if strings.TrimSpace(c.Sheets.Range) == "" {
			add("sheets.range is required (SHEET_RANGE)")
		}
		if strings.TrimSpace(c.Sheets.CredentialsFile) == "" {
			add("sheets.credentials_file is required (GOOGLE_APPLICATION_CREDENTIALS)")
		}
		if c.Sheets.HeaderRows < 0 {
			add("sheets.header_rows must be >= 0")
		}
		if c.Sheets.KeyColumn < 0 {
			add("sheets.key_column must be >= 0")
		}
	case SinkPostgres:
		if strings.TrimSpace(c.DB.DSN) == "" {
			add("db.dsn is required for the postgres sink")
		}
	case SinkMemory:
	default:
		add("sink.backend %q is not one of sheets, postgres, memory", c.Sink.Backend)
	}

	switch c.Browser.Mode {
	case BrowserHeadless, BrowserStatic:
	default:
		add("browser.mode %q is not one of headless, static", c.Browser.Mode)
	}
	if c.Browser.NavTimeout <= 0 {
		add("browser.nav_timeout must be > 0")
	}
	if c.Pagination.MaxPages <= 0 {
		add("pagination.max_pages must be > 0")
	}
	if c.Pagination.StagnationLimit <= 0 {
		add("pagination.stagnation_limit must be > 0")
	}
	if c.Pipeline.NavRetries < 0 {
		add("pipeline.nav_retries must be >= 0")
	}
	for i, control := range c.Pagination.Controls {
		if strings.TrimSpace(control.Selector) == "" {
			add("pagination.controls[%d].selector is required", i)
		}
	}

	switch c.Storage.Backend {
	case StorageNone, "":
	case StorageLocal:
		if strings.TrimSpace(c.Storage.Dir) == "" {
			add("storage.dir is required for the local archive")
		}
	case StorageGCS:
		if strings.TrimSpace(c.Storage.GCSBucket) == "" {
			add("storage.gcs_bucket is required for the gcs archive")
		}
	default:
		add("storage.backend %q is not one of none, local, gcs", c.Storage.Backend)
	}

	if (c.PubSub.ProjectID == "") != (c.PubSub.Topic == "") {
		add("pubsub.project_id and pubsub.topic must be set together")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", gazette.ErrConfiguration, errors.Join(errs...))
}

// KeyColumn returns the table column holding the source URL for the selected
// sink.
func (c Config) KeyColumn() int {
	if c.Sink.Backend == SinkSheets {
		return c.Sheets.KeyColumn
	}
	return gazette.ColumnSourceURL
}

func validateHTTPURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}
