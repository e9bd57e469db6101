package domain

import (
	"sort"
	"strings"
)

// PageSeparator joins page texts inside Document.Text.
const PageSeparator = "\n\n"

// PageText is the extracted text of a single page.
type PageText struct {
	// Number is the 1-based page number.
	Number int
	Text   string
}

// Metadata holds best-effort bibliographic fields of a document.
// An empty string means the field could not be determined.
type Metadata struct {
	Title     string
	Author    string
	DOI       string
	Keywords  string
	PageCount int
}

// Document is the page-ordered text of one PDF. It is immutable after
// extraction.
type Document struct {
	ID             string
	SourceFilename string
	Pages          []PageText
	Metadata       Metadata

	text        string
	pageOffsets []int
}

// NewDocument assembles a document from extracted pages.
func NewDocument(id, filename string, pages []PageText, meta Metadata) *Document {
	d := &Document{
		ID:             id,
		SourceFilename: filename,
		Pages:          pages,
		Metadata:       meta,
	}
	d.build()
	return d
}

func (d *Document) build() {
	var sb strings.Builder
	d.pageOffsets = make([]int, len(d.Pages))
	for i, p := range d.Pages {
		if i > 0 {
			sb.WriteString(PageSeparator)
		}
		d.pageOffsets[i] = sb.Len()
		sb.WriteString(p.Text)
	}
	d.text = sb.String()
}

// Text returns the full document text with pages separated by a blank line.
// Chunk offsets are byte offsets into this string.
func (d *Document) Text() string {
	if d.pageOffsets == nil && len(d.Pages) > 0 {
		d.build()
	}
	return d.text
}

// PageAt returns the 1-based page number containing the given byte offset
// of Text. Offsets falling in a page separator belong to the preceding page.
func (d *Document) PageAt(offset int) int {
	if d.pageOffsets == nil && len(d.Pages) > 0 {
		d.build()
	}
	if len(d.pageOffsets) == 0 {
		return 0
	}
	i := sort.Search(len(d.pageOffsets), func(i int) bool {
		return d.pageOffsets[i] > offset
	})
	if i == 0 {
		return d.Pages[0].Number
	}
	return d.Pages[i-1].Number
}

// DisplayName returns the title if known, otherwise the source filename.
func (d *Document) DisplayName() string {
	if d.Metadata.Title != "" {
		return d.Metadata.Title
	}
	return d.SourceFilename
}

// Chunk is a contiguous passage of a document's text.
// StartOffset and EndOffset are byte offsets into Document.Text with
// EndOffset > StartOffset.
type Chunk struct {
	ID          string
	DocumentID  string
	Text        string
	StartOffset int
	EndOffset   int
	// PageNumber is the page on which the chunk starts.
	PageNumber int
	// Position is the zero-based ordinal of the chunk within its document.
	Position int
}

// Len returns the byte length of the chunk.
func (c Chunk) Len() int {
	return c.EndOffset - c.StartOffset
}

// ScoredChunk pairs a chunk with a similarity score.
type ScoredChunk struct {
	Chunk      Chunk
	Similarity float64
	// Query is the probe text that produced the hit, if any.
	Query string
}
