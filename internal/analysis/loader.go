// Package analysis loads the combined Parquet outputs into an embedded
// DuckDB database and derives the events and sessions tables used for
// ad-hoc analysis.
package analysis

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/xtxerr/entralog/internal/config"
	"github.com/xtxerr/entralog/internal/errors"
	"github.com/xtxerr/entralog/internal/logging"
)

// Table names persisted in the database file.
const (
	TableSignin   = "combined_table_signinlogs"
	TableAudit    = "combined_table_auditlogs"
	TableEvents   = "events"
	TableSessions = "sessions"
)

// Options configures an analysis run.
type Options struct {
	// SigninParquet and AuditParquet are the combined Parquet inputs.
	SigninParquet string
	AuditParquet  string

	// EventsCSV and SessionsCSV are the export destinations.
	EventsCSV   string
	SessionsCSV string

	// Columns maps normalized event fields to source column names.
	Columns config.ColumnsConfig
}

// Result reports the derived table sizes.
type Result struct {
	SigninRows  int64
	AuditRows   int64
	EventRows   int64
	SessionRows int64
}

// Loader owns the DuckDB connection for one analysis run.
type Loader struct {
	db *sql.DB
}

// Open opens (or creates) the DuckDB database file. An empty path opens
// an in-memory database.
func Open(dbPath string) (*Loader, error) {
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Loader{db: db}, nil
}

// Close closes the database.
func (l *Loader) Close() error {
	return l.db.Close()
}

// Run loads both combined tables, derives events and sessions, and exports
// both derived tables to CSV.
func (l *Loader) Run(ctx context.Context, opts Options) (*Result, error) {
	log := logging.Component("analysis")
	res := &Result{}

	var err error
	if res.SigninRows, err = l.loadCombined(ctx, TableSignin, opts.SigninParquet); err != nil {
		return nil, err
	}
	if res.AuditRows, err = l.loadCombined(ctx, TableAudit, opts.AuditParquet); err != nil {
		return nil, err
	}
	log.Info("combined tables loaded", "signin_rows", res.SigninRows, "audit_rows", res.AuditRows)

	if res.EventRows, err = l.buildEvents(ctx, opts.Columns); err != nil {
		return nil, err
	}
	if res.SessionRows, err = l.buildSessions(ctx); err != nil {
		return nil, err
	}
	log.Info("derived tables built", "events", res.EventRows, "sessions", res.SessionRows)

	if opts.EventsCSV != "" {
		if err := l.exportCSV(ctx, TableEvents, opts.EventsCSV); err != nil {
			return nil, err
		}
	}
	if opts.SessionsCSV != "" {
		if err := l.exportCSV(ctx, TableSessions, opts.SessionsCSV); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// loadCombined (re)creates one combined table from a Parquet file.
func (l *Loader) loadCombined(ctx context.Context, table, parquetPath string) (int64, error) {
	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT * FROM read_parquet(%s)`,
		quoteIdent(table), quoteString(parquetPath))
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return 0, errors.Wrapf(err, "load %s from %s", table, parquetPath)
	}
	return l.count(ctx, table)
}

// buildEvents derives the normalized events table: one row per audit or
// sign-in event with a common schema across both sources. Missing source
// columns select as NULL so schema drift between exports does not fail
// the run.
func (l *Loader) buildEvents(ctx context.Context, cols config.ColumnsConfig) (int64, error) {
	signinSelect, err := l.sourceSelect(ctx, TableSignin, "signin", cols)
	if err != nil {
		return 0, err
	}
	auditSelect, err := l.sourceSelect(ctx, TableAudit, "audit", cols)
	if err != nil {
		return 0, err
	}

	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS %s UNION ALL %s`,
		quoteIdent(TableEvents), signinSelect, auditSelect)
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return 0, errors.Wrapf(err, "build %s", TableEvents)
	}
	return l.count(ctx, TableEvents)
}

// sourceSelect builds the normalized SELECT for one source table.
func (l *Loader) sourceSelect(ctx context.Context, table, source string, cols config.ColumnsConfig) (string, error) {
	exprs := []string{fmt.Sprintf("%s AS source", quoteString(source))}

	for _, field := range []struct {
		column string
		alias  string
		cast   string
	}{
		{cols.EventTime, "event_time", "TIMESTAMP"},
		{cols.Operation, "operation", ""},
		{cols.Category, "category", ""},
		{cols.CorrelationID, "correlation_id", ""},
		{cols.Actor, "actor", ""},
	} {
		expr, err := l.columnExpr(ctx, table, field.column, field.alias, field.cast)
		if err != nil {
			return "", err
		}
		exprs = append(exprs, expr)
	}

	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), quoteIdent(table)), nil
}

// columnExpr selects a column under an alias, or NULL if the table lacks
// the column.
func (l *Loader) columnExpr(ctx context.Context, table, column, alias, cast string) (string, error) {
	ok, err := l.hasColumn(ctx, table, column)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("NULL AS %s", quoteIdent(alias)), nil
	}
	if cast != "" {
		return fmt.Sprintf("try_cast(%s AS %s) AS %s", quoteIdent(column), cast, quoteIdent(alias)), nil
	}
	return fmt.Sprintf("%s AS %s", quoteIdent(column), quoteIdent(alias)), nil
}

// hasColumn checks the information schema for a column.
func (l *Loader) hasColumn(ctx context.Context, table, column string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT count(*) FROM information_schema.columns WHERE table_name = ? AND column_name = ?`,
		table, column).Scan(&n)
	if err != nil {
		return false, errors.Wrapf(err, "inspect %s.%s", table, column)
	}
	return n > 0, nil
}

// buildSessions aggregates events into one row per (actor, correlation_id)
// grouping key.
func (l *Loader) buildSessions(ctx context.Context) (int64, error) {
	stmt := fmt.Sprintf(`
		CREATE OR REPLACE TABLE %s AS
		SELECT
			actor,
			correlation_id,
			min(event_time) AS first_event_time,
			max(event_time) AS last_event_time,
			count(*) AS event_count
		FROM %s
		GROUP BY actor, correlation_id
	`, quoteIdent(TableSessions), quoteIdent(TableEvents))
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return 0, errors.Wrapf(err, "build %s", TableSessions)
	}
	return l.count(ctx, TableSessions)
}

// exportCSV copies a table to a CSV file with a header row.
func (l *Loader) exportCSV(ctx context.Context, table, path string) error {
	stmt := fmt.Sprintf(`COPY %s TO %s (HEADER)`, quoteIdent(table), quoteString(path))
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrapf(err, "export %s to %s", table, path)
	}
	return nil
}

// count returns a table's row count.
func (l *Loader) count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := l.db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM %s", quoteIdent(table))).Scan(&n)
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", table)
	}
	return n, nil
}

// quoteIdent double-quotes a SQL identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// quoteString single-quotes a SQL string literal.
func quoteString(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}
