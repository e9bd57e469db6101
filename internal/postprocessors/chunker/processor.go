// Package chunker splits document text into overlapping passages that prefer
// paragraph and sentence boundaries.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// DefaultChunkSize is the default target chunk length in bytes.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping bytes.
const DefaultChunkOverlap = 200

// DefaultTolerance is how far from the target end a boundary is searched.
const DefaultTolerance = 150

// Boundary strengths, strongest first.
const (
	scoreParagraph = 4
	scoreSentence  = 3
	scoreLine      = 2
	scoreSpace     = 1
)

var _ driven.Chunker = (*Processor)(nil)

// Processor splits document content into overlapping chunks.
type Processor struct {
	chunkSize int
	overlap   int
	tolerance int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the target chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithTolerance sets the boundary search window around the target end.
func WithTolerance(tolerance int) Option {
	return func(p *Processor) {
		if tolerance >= 0 {
			p.tolerance = tolerance
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		tolerance: DefaultTolerance,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}
	if p.tolerance >= p.chunkSize-p.overlap {
		p.tolerance = (p.chunkSize - p.overlap) / 2
	}

	return p
}

// FromSettings builds a processor from chunking settings.
// Zero values keep the defaults.
func FromSettings(s domain.ChunkingSettings) *Processor {
	return New(WithChunkSize(s.Size), WithOverlap(s.Overlap), WithTolerance(s.Tolerance))
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document text into chunks. Consecutive chunks overlap by
// at most the configured overlap and together cover the whole text.
func (p *Processor) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	n := len(text)
	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, n/step+1)

	start := 0
	for position := 0; ; position++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := n
		if n-start > p.chunkSize {
			end = p.findEnd(text, start)
		}

		chunks = append(chunks, domain.Chunk{
			ID:          fmt.Sprintf("%s:%d", doc.ID, position),
			DocumentID:  doc.ID,
			Text:        text[start:end],
			StartOffset: start,
			EndOffset:   end,
			PageNumber:  doc.PageAt(firstNonSpace(text, start, end)),
			Position:    position,
		})

		if end == n {
			break
		}
		start = p.nextStart(text, start, end)
	}

	return chunks, nil
}

// findEnd picks the end offset of a chunk starting at start. It scores every
// candidate inside the tolerance window and prefers stronger boundaries,
// then the one closest to the target. Without a boundary it cuts hard.
func (p *Processor) findEnd(text string, start int) int {
	n := len(text)
	target := start + p.chunkSize

	lo := max(target-p.tolerance, start+p.overlap+1)
	hi := min(target+p.tolerance, n)

	best, bestScore, bestDist := -1, 0, 0
	for e := lo; e <= hi; e++ {
		score := boundaryScore(text, e)
		if score == 0 {
			continue
		}
		dist := e - target
		if dist < 0 {
			dist = -dist
		}
		if score > bestScore || (score == bestScore && dist < bestDist) {
			best, bestScore, bestDist = e, score, dist
		}
	}
	if best > 0 {
		return best
	}

	end := min(target, n)
	for end > start+1 && end < n && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

// nextStart steps back by the overlap from end, moving forward to a rune
// start so the overlap never exceeds the configured window.
func (p *Processor) nextStart(text string, start, end int) int {
	next := end - p.overlap
	for next < end && !utf8.RuneStart(text[next]) {
		next++
	}
	if next <= start {
		return end
	}
	return next
}

// boundaryScore rates splitting text just before offset e.
func boundaryScore(text string, e int) int {
	if e <= 0 || e > len(text) {
		return 0
	}
	if e < len(text) && !utf8.RuneStart(text[e]) {
		return 0
	}

	prev := text[e-1]
	switch {
	case prev == '\n' && e >= 2 && text[e-2] == '\n':
		return scoreParagraph
	case prev == '.' || prev == '!' || prev == '?':
		if e == len(text) || text[e] == ' ' || text[e] == '\n' {
			return scoreSentence
		}
		return 0
	case prev == '\n':
		return scoreLine
	case prev == ' ' || prev == '\t':
		return scoreSpace
	default:
		return 0
	}
}

func firstNonSpace(text string, start, end int) int {
	for i := start; i < end; i++ {
		switch text[i] {
		case ' ', '\n', '\t', '\r':
			continue
		}
		return i
	}
	return start
}

// Reconstruct rebuilds the text covered by ordered chunks by dropping the
// overlapping prefix of each chunk.
func Reconstruct(chunks []domain.Chunk) string {
	var sb strings.Builder
	covered := 0
	for i, c := range chunks {
		if i == 0 {
			sb.WriteString(c.Text)
			covered = c.EndOffset
			continue
		}
		skip := covered - c.StartOffset
		if skip < 0 {
			skip = 0
		}
		if skip < len(c.Text) {
			sb.WriteString(c.Text[skip:])
		}
		if c.EndOffset > covered {
			covered = c.EndOffset
		}
	}
	return sb.String()
}
