package driven

import "context"

// RawPDF is the unprocessed output of a PDF reader.
type RawPDF struct {
	// Pages holds the raw text of each page in order, page 1 first.
	Pages []string

	// Info holds document information dictionary entries
	// (Title, Author, Subject, Keywords, ...). May be empty.
	Info map[string]string
}

// PDFReader extracts raw page text from PDF bytes.
// Implementations report encrypted or corrupted input with errors wrapping
// domain.ErrEncryptedPDF or domain.ErrExtractionFailed.
type PDFReader interface {
	// Name identifies the reader for logging.
	Name() string

	// ReadPDF parses the document and returns its pages.
	ReadPDF(ctx context.Context, data []byte) (*RawPDF, error)
}
