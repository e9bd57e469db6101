package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driving"
	"github.com/custodia-labs/gapfinder-cli/internal/logger"
)

// Ensure ExportService implements the interface.
var _ driving.ExportService = (*ExportService)(nil)

// ExportService picks an exporter by file extension and writes results to disk.
type ExportService struct {
	byExt map[string]driven.Exporter
}

// NewExportService registers exporters by their extensions. A later
// exporter claiming the same extension replaces an earlier one.
func NewExportService(exporters ...driven.Exporter) *ExportService {
	s := &ExportService{byExt: make(map[string]driven.Exporter)}
	for _, e := range exporters {
		for _, ext := range e.Extensions() {
			s.byExt[strings.ToLower(ext)] = e
		}
	}
	return s
}

// Formats lists supported extensions in sorted order.
func (s *ExportService) Formats() []string {
	exts := make([]string, 0, len(s.byExt))
	for ext := range s.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ExporterFor returns the exporter handling path's extension.
func (s *ExportService) ExporterFor(path string) (driven.Exporter, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if e, ok := s.byExt[ext]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: export format %q (supported: %s)",
		domain.ErrUnsupportedType, ext, strings.Join(s.Formats(), ", "))
}

// ExportFile writes gaps to path. Stream exporters write to a temporary
// file that replaces path only once the export succeeded.
func (s *ExportService) ExportFile(ctx context.Context, path string, gaps []domain.Gap) error {
	exporter, err := s.ExporterFor(path)
	if err != nil {
		return err
	}

	logger.Debug("Exporting %d gap(s) to %s as %s", len(gaps), path, exporter.Format())

	if pe, ok := exporter.(driven.PathExporter); ok {
		return pe.ExportPath(ctx, path, gaps)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := exporter.Export(ctx, tmp, gaps); err != nil {
		tmp.Close()
		return fmt.Errorf("export %s: %w", exporter.Format(), err)
	}
	if err := errors.Join(tmp.Chmod(0644), tmp.Close()); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}
