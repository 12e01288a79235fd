// Package store persists extracted BCs and the CT subsets they reference in
// a SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ritzau/cmap-bc/pkg/bc"
	"github.com/ritzau/cmap-bc/pkg/model"
)

// ErrNotFound is returned when no BC is stored under a concept id
var ErrNotFound = errors.New("biomedical concept not found")

// Entry is a stored BC with its bookkeeping columns
type Entry struct {
	ConceptID   string    `json:"conceptId"`
	Designation string    `json:"designation"`
	Label       string    `json:"label"`
	Format      string    `json:"format,omitempty"`
	SavedAt     time.Time `json:"savedAt"`
}

// Store manages the BC SQLite database
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and creates the schema if it
// does not exist
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS concepts (
			concept_id TEXT PRIMARY KEY,
			designation TEXT NOT NULL,
			label TEXT NOT NULL,
			format TEXT,
			document TEXT NOT NULL,
			saved_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS qualifiers (
			concept_id TEXT NOT NULL REFERENCES concepts(concept_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			dec_concept_id TEXT NOT NULL,
			dec_name TEXT NOT NULL,
			domain_type TEXT NOT NULL,
			domain_name TEXT NOT NULL,
			domain_concept_id TEXT,
			role TEXT NOT NULL,
			mandatory INTEGER,
			PRIMARY KEY (concept_id, dec_concept_id)
		)`,
		`CREATE TABLE IF NOT EXISTS subsets (
			concept_id TEXT NOT NULL REFERENCES concepts(concept_id) ON DELETE CASCADE,
			subset_code TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (concept_id, subset_code)
		)`,
		`CREATE TABLE IF NOT EXISTS terms (
			concept_id TEXT NOT NULL,
			subset_code TEXT NOT NULL,
			position INTEGER NOT NULL,
			term_code TEXT NOT NULL,
			submission_value TEXT NOT NULL,
			is_default INTEGER NOT NULL,
			FOREIGN KEY (concept_id, subset_code) REFERENCES subsets(concept_id, subset_code) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_qualifiers_role ON qualifiers(role)`,
		`CREATE INDEX IF NOT EXISTS idx_terms_subset ON terms(concept_id, subset_code)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores the BC, replacing any earlier version with the same concept id
func (s *Store) Save(ctx context.Context, c *bc.BiomedicalConcept) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("serialize BC %s: %w", c.ConceptID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM concepts WHERE concept_id = ?`, c.ConceptID); err != nil {
		return fmt.Errorf("removing previous version: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO concepts (concept_id, designation, label, format, document, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ConceptID, c.Designation, c.Label, c.Format(), string(doc),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("inserting concept: %w", err)
	}

	for i, code := range c.DataElementConcepts.Keys() {
		q, _ := c.DataElementConcepts.Get(code)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO qualifiers (concept_id, position, dec_concept_id, dec_name, domain_type,
				domain_name, domain_concept_id, role, mandatory)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ConceptID, i, code, q.DECName, string(q.ConceptualDomainType),
			q.ConceptualDomainName, nullString(q.ConceptualDomainConceptID), q.Role, nullBool(q.Mandatory),
		); err != nil {
			return fmt.Errorf("inserting qualifier %s: %w", code, err)
		}
	}

	for _, subset := range c.Subsets() {
		if err := insertSubset(ctx, tx, c.ConceptID, subset); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertSubset(ctx context.Context, tx *sql.Tx, conceptID string, subset *model.Subset) error {
	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO subsets (concept_id, subset_code, name) VALUES (?, ?, ?)`,
		conceptID, subset.ConceptCode, subset.Name,
	)
	if err != nil {
		return fmt.Errorf("inserting subset %s: %w", subset.ConceptCode, err)
	}
	// The terms of a subset already stored with this BC are not added twice
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("inserting subset %s: %w", subset.ConceptCode, err)
	} else if n == 0 {
		return nil
	}

	for i, t := range subset.Terms {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO terms (concept_id, subset_code, position, term_code, submission_value, is_default)
			VALUES (?, ?, ?, ?, ?, ?)`,
			conceptID, subset.ConceptCode, i, t.ConceptCode, t.SubmissionValue, t.IsDefault,
		); err != nil {
			return fmt.Errorf("inserting term %s of %s: %w", t.ConceptCode, subset.ConceptCode, err)
		}
	}
	return nil
}

// Get returns the stored BC with the given concept id
func (s *Store) Get(ctx context.Context, conceptID string) (*bc.BiomedicalConcept, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM concepts WHERE concept_id = ?`, conceptID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, conceptID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying concept: %w", err)
	}
	return bc.ParseJSON([]byte(doc))
}

// List returns the stored BCs ordered by designation
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT concept_id, designation, label, COALESCE(format, ''), saved_at
		FROM concepts ORDER BY designation`)
	if err != nil {
		return nil, fmt.Errorf("listing concepts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var savedAt string
		if err := rows.Scan(&e.ConceptID, &e.Designation, &e.Label, &e.Format, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning concept: %w", err)
		}
		e.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Subset returns a CT subset stored with a BC
func (s *Store) Subset(ctx context.Context, conceptID, subsetCode string) (*model.Subset, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM subsets WHERE concept_id = ? AND subset_code = ?`, conceptID, subsetCode,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: subset %s of %s", ErrNotFound, subsetCode, conceptID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying subset: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT term_code, submission_value, is_default FROM terms
		WHERE concept_id = ? AND subset_code = ? ORDER BY position`, conceptID, subsetCode)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	subset := model.NewSubset(subsetCode, name)
	for rows.Next() {
		var code, value string
		var isDefault bool
		if err := rows.Scan(&code, &value, &isDefault); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}
		subset.AddTerm(code, value, isDefault)
	}
	return subset, rows.Err()
}

// ConceptsWithRole returns the concept ids having a qualifier with the role
func (s *Store) ConceptsWithRole(ctx context.Context, role string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT concept_id FROM qualifiers WHERE lower(role) = lower(?) ORDER BY concept_id`, role)
	if err != nil {
		return nil, fmt.Errorf("querying qualifiers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
