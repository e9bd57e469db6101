package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// Store is a results database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database at path and applies migrations.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: database path is required", domain.ErrInvalidInput)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies pending up migrations in version order.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_gaps.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveSession writes the gaps of one session in a single transaction.
// Scores are stored rounded to two decimals.
func (s *Store) SaveSession(ctx context.Context, sessionID, backend string, gaps []domain.Gap) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, backend) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET backend = excluded.backend`, sessionID, backend); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO gaps (session_id, document, page, gap_type, description, evidence_text,
			suggestion, insight_score, title, doi, chunk_id, backend, trigger_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, g := range gaps {
		if _, err := stmt.ExecContext(ctx,
			sessionID, g.DocumentName, g.Page, g.Type.String(), g.Description, g.Evidence,
			g.Suggestion, roundScore(g.InsightScore), g.Title, g.DOI, g.ChunkID, g.Backend, g.Trigger,
		); err != nil {
			return fmt.Errorf("saving gap %s: %w", g.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListGaps returns the gaps of a session ordered by score.
func (s *Store) ListGaps(ctx context.Context, sessionID string) ([]domain.Gap, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document, page, gap_type, description, evidence_text, suggestion,
			insight_score, title, doi, chunk_id, backend, trigger_source
		FROM gaps
		WHERE session_id = ?
		ORDER BY insight_score DESC, document, page, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying gaps: %w", err)
	}
	defer rows.Close()

	var gaps []domain.Gap
	for rows.Next() {
		var (
			g       domain.Gap
			gapType string
		)
		if err := rows.Scan(&g.DocumentName, &g.Page, &gapType, &g.Description, &g.Evidence,
			&g.Suggestion, &g.InsightScore, &g.Title, &g.DOI, &g.ChunkID, &g.Backend, &g.Trigger); err != nil {
			return nil, fmt.Errorf("scanning gap: %w", err)
		}
		g.Type = domain.GapType(gapType)
		gaps = append(gaps, g)
	}
	return gaps, rows.Err()
}

// Sessions returns the stored session IDs in export order.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM sessions ORDER BY exported_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func roundScore(score float64) float64 {
	return math.Round(score*100) / 100
}
