// Package store persists paper records in SQLite with FTS5 search.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/citegraph/citegraph/internal/paper"
)

// DB wraps a SQLite database holding paper records.
type DB struct {
	db *sql.DB
}

// selectPaperFields is the standard field list for SELECT queries.
const selectPaperFields = `id, title, abstract, authors_json,
	publication_date, pub_year, citation_count, api_source,
	external_ids_json, metadata_json`

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			abstract TEXT,
			authors_json TEXT NOT NULL,
			publication_date TEXT,
			pub_year INTEGER,
			citation_count INTEGER NOT NULL DEFAULT 0,
			api_source TEXT NOT NULL,
			external_ids_json TEXT,
			metadata_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_papers_pub_year ON papers(pub_year);
		CREATE INDEX IF NOT EXISTS idx_papers_citations ON papers(citation_count);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
			id,
			title,
			abstract,
			authors_text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// GetByID retrieves a paper by id. Returns (nil, nil) when absent.
func (d *DB) GetByID(ctx context.Context, id string) (*paper.Record, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+selectPaperFields+` FROM papers WHERE id = ?`, id)

	rec, err := scanPaper(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting paper %s: %w", id, err)
	}
	return rec, nil
}

// Upsert saves a record, replacing every field of any existing row with
// the same id (last-write-wins, no field-level merge).
func (d *DB) Upsert(ctx context.Context, rec *paper.Record) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertInTx(ctx, tx, rec); err != nil {
		return err
	}

	return tx.Commit()
}

// UpsertBatch saves all records in one transaction, all-or-nothing.
func (d *DB) UpsertBatch(ctx context.Context, recs []paper.Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range recs {
		if err := upsertInTx(ctx, tx, &recs[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// upsertInTx writes the papers row and its FTS shadow row.
func upsertInTx(ctx context.Context, tx *sql.Tx, rec *paper.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("upserting paper: empty id")
	}

	authorsJSON, err := json.Marshal(rec.Authors)
	if err != nil {
		return fmt.Errorf("marshaling authors for %s: %w", rec.ID, err)
	}
	externalJSON, err := marshalMap(rec.ExternalIDs)
	if err != nil {
		return fmt.Errorf("marshaling external ids for %s: %w", rec.ID, err)
	}
	metaJSON, err := marshalMap(rec.MetaData)
	if err != nil {
		return fmt.Errorf("marshaling metadata for %s: %w", rec.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO papers (
			id, title, abstract, authors_json,
			publication_date, pub_year, citation_count, api_source,
			external_ids_json, metadata_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			abstract = excluded.abstract,
			authors_json = excluded.authors_json,
			publication_date = excluded.publication_date,
			pub_year = excluded.pub_year,
			citation_count = excluded.citation_count,
			api_source = excluded.api_source,
			external_ids_json = excluded.external_ids_json,
			metadata_json = excluded.metadata_json
	`, rec.ID, rec.Title, rec.Abstract, string(authorsJSON),
		rec.PublicationDate, rec.Year(), rec.CitationCount, string(rec.APISource),
		externalJSON, metaJSON)
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", rec.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM papers_fts WHERE id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clearing fts for %s: %w", rec.ID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO papers_fts (id, title, abstract, authors_text)
		VALUES (?, ?, ?, ?)
	`, rec.ID, rec.Title, rec.Abstract, formatAuthorsText(rec.Authors))
	if err != nil {
		return fmt.Errorf("inserting fts for %s: %w", rec.ID, err)
	}

	return nil
}

// Count returns the number of stored papers.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// Filters contains optional search filters. All specified criteria are
// combined with AND logic.
type Filters struct {
	Query        string // free-text search over title/abstract/authors (FTS)
	Author       string // author name search (FTS, prefix matching)
	YearFrom     int    // minimum publication year (0 = no minimum)
	YearTo       int    // maximum publication year (0 = no maximum)
	MinCitations int    // minimum citation count (0 = no minimum)
	Limit        int
	Offset       int
}

// Search returns papers matching the filters and the total match count.
func (d *DB) Search(ctx context.Context, f Filters) ([]paper.Record, int, error) {
	var where []string
	var args []any

	if f.Query != "" {
		where = append(where,
			"id IN (SELECT id FROM papers_fts WHERE papers_fts MATCH ?)")
		args = append(args, prepareFTSQuery(f.Query))
	}
	if f.Author != "" {
		where = append(where,
			"id IN (SELECT id FROM papers_fts WHERE papers_fts MATCH ?)")
		args = append(args, "authors_text:"+prepareAuthorQuery(f.Author))
	}
	if f.YearFrom > 0 {
		where = append(where, "pub_year >= ?")
		args = append(args, f.YearFrom)
	}
	if f.YearTo > 0 {
		where = append(where, "pub_year <= ?")
		args = append(args, f.YearTo)
	}
	if f.MinCitations > 0 {
		where = append(where, "citation_count >= ?")
		args = append(args, f.MinCitations)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM papers`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting matches: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + selectPaperFields + ` FROM papers` + clause +
		` ORDER BY citation_count DESC, id LIMIT ? OFFSET ?`
	rows, err := d.db.QueryContext(ctx, query, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	var recs []paper.Record
	for rows.Next() {
		rec, err := scanPaper(rows)
		if err != nil {
			return nil, 0, err
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading results: %w", err)
	}

	return recs, total, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanPaper scans a row into a record, unmarshaling the JSON columns.
func scanPaper(s scanner) (*paper.Record, error) {
	var rec paper.Record
	var abstract, pubDate, authorsJSON, externalJSON, metaJSON sql.NullString
	var pubYear sql.NullInt64
	var source string

	err := s.Scan(&rec.ID, &rec.Title, &abstract, &authorsJSON,
		&pubDate, &pubYear, &rec.CitationCount, &source,
		&externalJSON, &metaJSON)
	if err != nil {
		return nil, err
	}

	rec.Abstract = abstract.String
	rec.PublicationDate = pubDate.String
	rec.APISource = paper.Source(source)

	if authorsJSON.Valid && authorsJSON.String != "" {
		if err := json.Unmarshal([]byte(authorsJSON.String), &rec.Authors); err != nil {
			return nil, fmt.Errorf("parsing authors for %s: %w", rec.ID, err)
		}
	}
	if externalJSON.Valid && externalJSON.String != "" {
		if err := json.Unmarshal([]byte(externalJSON.String), &rec.ExternalIDs); err != nil {
			return nil, fmt.Errorf("parsing external ids for %s: %w", rec.ID, err)
		}
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &rec.MetaData); err != nil {
			return nil, fmt.Errorf("parsing metadata for %s: %w", rec.ID, err)
		}
	}

	return &rec, nil
}

// marshalMap marshals a map to JSON, returning NULL for empty maps.
func marshalMap(m map[string]any) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// formatAuthorsText creates a searchable text representation of authors.
func formatAuthorsText(authors []paper.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// prepareFTSQuery quotes each term to avoid FTS5 syntax errors from
// special characters in user input.
func prepareFTSQuery(input string) string {
	terms := strings.Fields(input)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// prepareAuthorQuery quotes terms and adds prefix matching so partial
// author names match.
func prepareAuthorQuery(input string) string {
	terms := strings.Fields(input)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"*`
	}
	return strings.Join(terms, " ")
}
