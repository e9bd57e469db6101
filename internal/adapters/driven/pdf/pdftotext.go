package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler-utils")

// CommandRunner executes external commands. It exists so tests can replace
// pdftotext.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Verify interface compliance.
var _ driven.PDFReader = (*PopplerReader)(nil)

// PopplerReader extracts page text with poppler's pdftotext.
// Pages are separated by form feeds in pdftotext output.
type PopplerReader struct {
	runner CommandRunner
}

// NewPopplerReader creates a reader that runs the pdftotext binary.
func NewPopplerReader() *PopplerReader {
	return &PopplerReader{runner: execRunner{}}
}

// NewPopplerReaderWithRunner creates a reader with a custom command runner.
func NewPopplerReaderWithRunner(runner CommandRunner) *PopplerReader {
	return &PopplerReader{runner: runner}
}

// CheckAvailable reports whether pdftotext is on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return `pdftotext is part of poppler:
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}

// Name returns the reader name.
func (r *PopplerReader) Name() string {
	return "pdftotext"
}

// ReadPDF writes data to a temporary file and runs pdftotext on it.
func (r *PopplerReader) ReadPDF(ctx context.Context, data []byte) (*driven.RawPDF, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input: %w", domain.ErrExtractionFailed)
	}

	tmp, err := os.CreateTemp("", "gapfinder-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	out, err := r.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "password") || strings.Contains(msg, "encrypt") {
			return nil, fmt.Errorf("pdftotext failed: %v: %w", err, domain.ErrEncryptedPDF)
		}
		return nil, fmt.Errorf("pdftotext failed: %v: %w", err, domain.ErrExtractionFailed)
	}

	pages := strings.Split(string(out), "\f")
	// pdftotext terminates the last page with a form feed
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}

	return &driven.RawPDF{Pages: pages, Info: map[string]string{}}, nil
}

// FallbackReader tries readers in order and returns the first result that
// contains text. Encrypted documents are not retried.
type FallbackReader struct {
	readers []driven.PDFReader
}

// Verify interface compliance.
var _ driven.PDFReader = (*FallbackReader)(nil)

// NewFallbackReader chains readers.
func NewFallbackReader(readers ...driven.PDFReader) *FallbackReader {
	return &FallbackReader{readers: readers}
}

// Name returns the names of the chained readers.
func (r *FallbackReader) Name() string {
	names := make([]string, len(r.readers))
	for i, rd := range r.readers {
		names[i] = rd.Name()
	}
	return strings.Join(names, "+")
}

// ReadPDF returns the first non-empty extraction.
func (r *FallbackReader) ReadPDF(ctx context.Context, data []byte) (*driven.RawPDF, error) {
	var lastErr error
	var empty *driven.RawPDF
	for _, rd := range r.readers {
		raw, err := rd.ReadPDF(ctx, data)
		if err != nil {
			if errors.Is(err, domain.ErrEncryptedPDF) || ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}
		if hasText(raw) {
			return raw, nil
		}
		if empty == nil {
			empty = raw
		}
	}
	if empty != nil {
		return empty, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no pdf reader configured: %w", domain.ErrExtractionFailed)
	}
	return nil, lastErr
}

func hasText(raw *driven.RawPDF) bool {
	for _, p := range raw.Pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}
