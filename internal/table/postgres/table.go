// Package postgres stores record rows in a Postgres table.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// columns mirrors gazette.RowHeader order.
var columns = []string{
	"published_date",
	"title",
	"publication_number",
	"location",
	"applicant_address",
	"source_url",
	"document_url",
	"fingerprint",
}

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// Table reads and appends record rows. Expected schema:
//
//	CREATE TABLE permits (
//		id                 BIGSERIAL PRIMARY KEY,
//		published_date     TEXT NOT NULL DEFAULT '',
//		title              TEXT NOT NULL DEFAULT '',
//		publication_number TEXT NOT NULL DEFAULT '',
//		location           TEXT NOT NULL DEFAULT '',
//		applicant_address  TEXT NOT NULL DEFAULT '',
//		source_url         TEXT NOT NULL,
//		document_url       TEXT NOT NULL DEFAULT '',
//		fingerprint        TEXT NOT NULL DEFAULT ''
//	);
type Table struct {
	pool  pool
	table string
}

// New opens a pool using cfg.
func New(ctx context.Context, cfg Config) (*Table, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	t, err := NewWithPool(p, cfg.Table)
	if err != nil {
		p.Close()
		return nil, err
	}
	return t, nil
}

// NewWithPool wraps an existing pool (primarily for testing).
func NewWithPool(p pool, table string) (*Table, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "permits"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Table{pool: p, table: table}, nil
}

// Close releases the pool.
func (t *Table) Close() {
	if t == nil || t.pool == nil {
		return
	}
	t.pool.Close()
}

// ReadAll returns every stored row in insertion order.
func (t *Table) ReadAll(ctx context.Context) ([][]string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(columns, ", "), t.table)
	rows, err := t.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select rows: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		row := make([]string, len(columns))
		dest := make([]any, len(columns))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Append inserts one row. Missing trailing cells are stored empty.
func (t *Table) Append(ctx context.Context, row []string) error {
	if len(row) <= gazette.ColumnSourceURL || row[gazette.ColumnSourceURL] == "" {
		return fmt.Errorf("row has no source url")
	}
	args := make([]any, len(columns))
	for i := range args {
		if i < len(row) {
			args[i] = row[i]
		} else {
			args[i] = ""
		}
	}
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.table, strings.Join(columns, ", "), strings.Join(placeholders, ","))
	if _, err := t.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	return nil
}
