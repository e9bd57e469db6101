package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// Ensure SQLiteExporter implements the interface.
var _ driven.PathExporter = (*SQLiteExporter)(nil)

// SQLiteExporter writes gaps into a SQLite database. Each export is stored
// as a new session so a file can collect several analyses.
type SQLiteExporter struct {
	newSessionID func() string
}

// NewSQLiteExporter creates a SQLite exporter.
func NewSQLiteExporter() *SQLiteExporter {
	return &SQLiteExporter{newSessionID: uuid.NewString}
}

// Format returns "sqlite".
func (e *SQLiteExporter) Format() string { return "sqlite" }

// Extensions returns ".db" and ".sqlite".
func (e *SQLiteExporter) Extensions() []string { return []string{".db", ".sqlite"} }

// ExportPath appends a session to the database at path.
func (e *SQLiteExporter) ExportPath(ctx context.Context, path string, gaps []domain.Gap) error {
	store, err := sqlite.NewStore(path)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	defer store.Close()

	backend := ""
	if len(gaps) > 0 {
		backend = gaps[0].Backend
	}
	if err := store.SaveSession(ctx, e.newSessionID(), backend, gaps); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return nil
}

// Export builds a database in a temporary file and copies it to w.
func (e *SQLiteExporter) Export(ctx context.Context, w io.Writer, gaps []domain.Gap) error {
	dir, err := os.MkdirTemp("", "gapfinder-export-*")
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "gaps.db")
	if err := e.ExportPath(ctx, path, gaps); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return nil
}
