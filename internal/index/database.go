// Package index is the SQLite store adapter: it persists documents and
// executes compiled query predicates.
package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aidanlsb/mdb/internal/query"
	"github.com/aidanlsb/mdb/internal/sqlutil"
)

// DefaultLimit caps query results when the caller does not specify one.
const DefaultLimit = 1000

// CurrentDBVersion is the database schema version.
const CurrentDBVersion = 1

// Database is the SQLite database handle.
type Database struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating parent
// directories as needed.
func Open(path string) (*Database, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// OpenInMemory opens an in-memory database (for testing).
func OpenInMemory() (*Database, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

// DB returns the underlying sql.DB for advanced queries.
func (d *Database) DB() *sql.DB {
	return d.db
}

// initialize creates the document table and secondary indexes.
// Idempotent: safe to run against an existing database.
func (d *Database) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			folder TEXT NOT NULL,
			name TEXT NOT NULL,
			ext TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL,
			created_at INTEGER NOT NULL,     -- unix seconds
			modified_at INTEGER NOT NULL,    -- unix seconds
			body TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',        -- JSON array
			links TEXT NOT NULL DEFAULT '[]',       -- JSON array
			backlinks TEXT NOT NULL DEFAULT '[]',   -- JSON array
			embeds TEXT NOT NULL DEFAULT '[]',      -- JSON array
			properties TEXT NOT NULL DEFAULT '{}'   -- JSON object
		);

		CREATE INDEX IF NOT EXISTS idx_documents_mtime ON documents(modified_at);
		CREATE INDEX IF NOT EXISTS idx_documents_folder ON documents(folder);
		CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(name);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	_, err := d.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", CurrentDBVersion))
	if err != nil {
		return fmt.Errorf("failed to set database version: %w", err)
	}
	return nil
}

// UpsertDocument inserts or replaces a document keyed by path. Each call
// is a single atomic statement.
func (d *Database) UpsertDocument(doc *Document) error {
	tags, err := jsonArray(doc.Tags)
	if err != nil {
		return err
	}
	links, err := jsonArray(doc.Links)
	if err != nil {
		return err
	}
	backlinks, err := jsonArray(doc.Backlinks)
	if err != nil {
		return err
	}
	embeds, err := jsonArray(doc.Embeds)
	if err != nil {
		return err
	}
	props, err := jsonObject(doc.Properties)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		INSERT OR REPLACE INTO documents
		(path, folder, name, ext, title, size, created_at, modified_at, body, tags, links, backlinks, embeds, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.Path, doc.Folder, doc.Name, doc.Ext, doc.Title, doc.Size,
		doc.CreatedAt.Unix(), doc.ModifiedAt.Unix(), doc.Body,
		tags, links, backlinks, embeds, props)
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.Path, err)
	}
	return nil
}

// RemoveDocument deletes a document by path. Removing an unknown path is
// not an error.
func (d *Database) RemoveDocument(path string) error {
	_, err := d.db.Exec(`DELETE FROM documents WHERE path = ?`, path)
	return err
}

// ModTime returns the stored modification time for a path.
func (d *Database) ModTime(path string) (time.Time, bool, error) {
	var secs int64
	err := d.db.QueryRow(`SELECT modified_at FROM documents WHERE path = ?`, path).Scan(&secs)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(secs, 0).UTC(), true, nil
}

// Times returns the stored created/modified times for a path.
func (d *Database) Times(path string) (created, modified time.Time, ok bool, err error) {
	var createdSecs, modifiedSecs int64
	err = d.db.QueryRow(`SELECT created_at, modified_at FROM documents WHERE path = ?`, path).
		Scan(&createdSecs, &modifiedSecs)
	if err == sql.ErrNoRows {
		return time.Time{}, time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return time.Unix(createdSecs, 0).UTC(), time.Unix(modifiedSecs, 0).UTC(), true, nil
}

// Count returns the number of indexed documents.
func (d *Database) Count() (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// LinkEntry is one document's link data, consumed by the backlink pass.
type LinkEntry struct {
	Path      string
	Name      string
	Links     []string
	Backlinks []string
}

// LinkGraph returns the link data for every indexed document.
func (d *Database) LinkGraph() ([]LinkEntry, error) {
	rows, err := d.db.Query(`SELECT path, name, links, backlinks FROM documents`)
	if err != nil {
		return nil, err
	}

	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (LinkEntry, error) {
		var e LinkEntry
		var links, backlinks string
		if err := rows.Scan(&e.Path, &e.Name, &links, &backlinks); err != nil {
			return e, err
		}
		if err := json.Unmarshal([]byte(links), &e.Links); err != nil {
			return e, fmt.Errorf("corrupt links for %s: %w", e.Path, err)
		}
		if err := json.Unmarshal([]byte(backlinks), &e.Backlinks); err != nil {
			return e, fmt.Errorf("corrupt backlinks for %s: %w", e.Path, err)
		}
		return e, nil
	})
}

// UpdateBacklinks replaces the computed backlink set for one document.
func (d *Database) UpdateBacklinks(path string, backlinks []string) error {
	encoded, err := jsonArray(backlinks)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`UPDATE documents SET backlinks = ? WHERE path = ?`, encoded, path)
	return err
}

// GetDocument loads one document by path.
func (d *Database) GetDocument(path string) (*Document, error) {
	row := d.db.QueryRow(`
		SELECT path, folder, name, ext, title, size, created_at, modified_at,
		       body, tags, links, backlinks, embeds, properties
		FROM documents WHERE path = ?`, path)

	var doc Document
	var created, modified int64
	var tags, links, backlinks, embeds, props string
	err := row.Scan(&doc.Path, &doc.Folder, &doc.Name, &doc.Ext, &doc.Title, &doc.Size,
		&created, &modified, &doc.Body, &tags, &links, &backlinks, &embeds, &props)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	doc.CreatedAt = time.Unix(created, 0).UTC()
	doc.ModifiedAt = time.Unix(modified, 0).UTC()
	for _, col := range []struct {
		raw    string
		target *[]string
	}{
		{tags, &doc.Tags}, {links, &doc.Links}, {backlinks, &doc.Backlinks}, {embeds, &doc.Embeds},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.target); err != nil {
			return nil, fmt.Errorf("corrupt document %s: %w", doc.Path, err)
		}
	}
	if err := json.Unmarshal([]byte(props), &doc.Properties); err != nil {
		return nil, fmt.Errorf("corrupt properties for %s: %w", doc.Path, err)
	}
	return &doc, nil
}

// Result is an executed query: column names in projection order, then
// row values. Timestamp columns surface as time.Time; everything else as
// the driver returned it.
type Result struct {
	Columns []string
	Rows    [][]interface{}
}

// Execute runs a compiled predicate with its bind values, returning rows
// limited to limit (DefaultLimit when <= 0) with the requested
// projection.
func (d *Database) Execute(predicate string, binds []interface{}, projection []query.Projection, limit int) (*Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	exprs := make([]string, len(projection))
	columns := make([]string, len(projection))
	for i, p := range projection {
		exprs[i] = p.Expr
		columns[i] = p.Name
	}

	stmt := fmt.Sprintf("SELECT %s FROM documents WHERE %s LIMIT ?",
		strings.Join(exprs, ", "), predicate)
	args := append(append([]interface{}{}, binds...), limit)

	rows, err := d.db.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	scanned, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) ([]interface{}, error) {
		values := make([]interface{}, len(projection))
		targets := make([]interface{}, len(projection))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		for i, p := range projection {
			values[i] = normalizeValue(values[i], p.Time)
		}
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{Columns: columns, Rows: scanned}, nil
}

// normalizeValue converts driver values for rendering: byte slices to
// strings, timestamp columns to time.Time.
func normalizeValue(v interface{}, isTime bool) interface{} {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if isTime {
		if secs, ok := v.(int64); ok {
			return time.Unix(secs, 0).UTC()
		}
	}
	return v
}

func jsonArray(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func jsonObject(props map[string]interface{}) (string, error) {
	if props == nil {
		props = map[string]interface{}{}
	}
	encoded, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to encode properties: %w", err)
	}
	return string(encoded), nil
}
