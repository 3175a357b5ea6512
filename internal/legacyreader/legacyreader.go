// Package legacyreader reads transaction-bearing tables from the legacy
// point-of-sale database snapshot. The snapshot is a read-only sqlite export
// of the original desktop store; native column names are preserved so the
// schema mapper's dictionaries stay the single place that knows them.
package legacyreader

import (
	"database/sql"
	"fmt"
	"io"

	_ "modernc.org/sqlite"

	"vivaa/goldbook/internal/logging"
	"vivaa/goldbook/internal/models"
	"vivaa/goldbook/internal/pipelineerror"
)

// Reader yields one RawRow per stored record across the configured tables.
// Finite and forward-only.
type Reader struct {
	db        *sql.DB
	path      string
	tables    []string
	keyColumn string
	logger    logging.Logger

	tableIdx int
	rows     *sql.Rows
	cols     []string
	ordinal  int
	closed   bool
}

// Open opens the snapshot and verifies every expected table exists before
// any row is read, so a missing table surfaces as SchemaMissing instead of
// a mid-read failure.
func Open(path string, tables []string, keyColumn string, logger logging.Logger) (*Reader, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &pipelineerror.SourceUnreadableError{Source: path, Err: err}
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &pipelineerror.SourceUnreadableError{Source: path, Err: err}
	}

	for _, table := range tables {
		exists, err := tableExists(db, table)
		if err != nil {
			_ = db.Close()
			return nil, &pipelineerror.SourceUnreadableError{Source: path, Err: err}
		}
		if !exists {
			_ = db.Close()
			return nil, &pipelineerror.SchemaMissingError{Source: path, Schema: table}
		}
	}

	logger.Info("Opened legacy database snapshot",
		logging.F("file", path),
		logging.F("tables", len(tables)))

	return &Reader{
		db:        db,
		path:      path,
		tables:    tables,
		keyColumn: keyColumn,
		logger:    logger,
		tableIdx:  -1,
	}, nil
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Next yields the next record, advancing through tables in configured
// order. It returns io.EOF once every table is exhausted.
func (r *Reader) Next() (*models.RawRow, error) {
	if r.closed {
		return nil, io.EOF
	}
	for {
		if r.rows == nil {
			ok, err := r.advanceTable()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, io.EOF
			}
		}
		if r.rows.Next() {
			return r.scanRow()
		}
		if err := r.rows.Err(); err != nil {
			return nil, fmt.Errorf("reading table %s: %w", r.tables[r.tableIdx], err)
		}
		_ = r.rows.Close()
		r.rows = nil
	}
}

// advanceTable moves to the next configured table. A query failure
// propagates to the caller; ending the sequence here would make a partial
// read look like a complete source.
func (r *Reader) advanceTable() (bool, error) {
	r.tableIdx++
	if r.tableIdx >= len(r.tables) {
		return false, nil
	}
	table := r.tables[r.tableIdx]
	// Table names are validated against sqlite_master in Open; they cannot
	// be bound as parameters here.
	rows, err := r.db.Query("SELECT * FROM " + quoteIdent(table))
	if err != nil {
		return false, fmt.Errorf("querying table %s: %w", table, err)
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return false, fmt.Errorf("reading columns of table %s: %w", table, err)
	}
	r.rows = rows
	r.cols = cols
	r.ordinal = 0
	return true, nil
}

func (r *Reader) scanRow() (*models.RawRow, error) {
	table := r.tables[r.tableIdx]
	values := make([]any, len(r.cols))
	ptrs := make([]any, len(r.cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning table %s: %w", table, err)
	}

	fields := make(map[string]any, len(r.cols))
	for i, col := range r.cols {
		switch v := values[i].(type) {
		case []byte:
			fields[col] = string(v)
		default:
			fields[col] = v
		}
	}

	r.ordinal++
	key := fmt.Sprintf("%s#%d", table, r.ordinal)
	if r.keyColumn != "" {
		if v, ok := fields[r.keyColumn]; ok && v != nil {
			key = fmt.Sprintf("%s:%v", table, v)
		}
	}

	return &models.RawRow{
		Origin:     models.OriginLegacyDB,
		SourceFile: r.path,
		Key:        key,
		Fields:     fields,
	}, nil
}

// Close releases the database handle.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.rows != nil {
		_ = r.rows.Close()
		r.rows = nil
	}
	return r.db.Close()
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}
