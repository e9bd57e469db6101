// Package pdf provides PDFReader implementations.
//
// NativeReader parses PDFs in-process with github.com/ledongthuc/pdf.
// PopplerReader shells out to pdftotext for documents the native parser
// cannot handle.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gapfinder-cli/internal/logger"
)

// infoKeys are the document information entries copied into RawPDF.Info.
var infoKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer"}

// Verify interface compliance.
var _ driven.PDFReader = (*NativeReader)(nil)

// NativeReader extracts page text with the pure-Go ledongthuc/pdf parser.
type NativeReader struct{}

// NewNativeReader creates a native PDF reader.
func NewNativeReader() *NativeReader {
	return &NativeReader{}
}

// Name returns the reader name.
func (r *NativeReader) Name() string {
	return "native"
}

// ReadPDF parses data and returns per-page plain text.
// The parser panics on some malformed inputs; those are reported as
// extraction failures.
func (r *NativeReader) ReadPDF(ctx context.Context, data []byte) (raw *driven.RawPDF, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input: %w", domain.ErrExtractionFailed)
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF")) {
		return nil, fmt.Errorf("missing PDF header: %w", domain.ErrExtractionFailed)
	}

	defer func() {
		if p := recover(); p != nil {
			raw = nil
			err = fmt.Errorf("corrupted pdf (%v): %w", p, domain.ErrExtractionFailed)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if isEncryption(err) {
			return nil, fmt.Errorf("%v: %w", err, domain.ErrEncryptedPDF)
		}
		return nil, fmt.Errorf("failed to create PDF reader: %v: %w", err, domain.ErrExtractionFailed)
	}

	pageCount := reader.NumPage()
	raw = &driven.RawPDF{
		Pages: make([]string, 0, pageCount),
		Info:  readInfo(reader),
	}

	// Pages are 1-indexed in ledongthuc/pdf
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			raw.Pages = append(raw.Pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("pdf: page %d: %v", i, err)
			raw.Pages = append(raw.Pages, "")
			continue
		}
		raw.Pages = append(raw.Pages, text)
	}

	return raw, nil
}

func readInfo(reader *pdf.Reader) map[string]string {
	info := make(map[string]string)
	dict := reader.Trailer().Key("Info")
	if dict.IsNull() {
		return info
	}
	for _, key := range infoKeys {
		if v := strings.TrimSpace(dict.Key(key).Text()); v != "" {
			info[key] = v
		}
	}
	return info
}

// isEncryption matches the parser's "encrypted PDF" and password errors.
func isEncryption(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt") || strings.Contains(msg, "password")
}
