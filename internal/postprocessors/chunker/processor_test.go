package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

func newDoc(pages ...string) *domain.Document {
	pt := make([]domain.PageText, len(pages))
	for i, p := range pages {
		pt[i] = domain.PageText{Number: i + 1, Text: p}
	}
	return domain.NewDocument("doc-1", "paper.pdf", pt, domain.Metadata{})
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
		if p.tolerance != DefaultTolerance {
			t.Errorf("expected tolerance %d, got %d", DefaultTolerance, p.tolerance)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.overlap >= p.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("tolerance clamped to step", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(20), WithTolerance(500))
		if p.tolerance >= p.chunkSize-p.overlap {
			t.Errorf("tolerance %d should be below step %d", p.tolerance, p.chunkSize-p.overlap)
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1), WithTolerance(-1))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})

	t.Run("from settings", func(t *testing.T) {
		p := FromSettings(domain.ChunkingSettings{Size: 400, Overlap: 50, Tolerance: 40})
		if p.chunkSize != 400 || p.overlap != 50 || p.tolerance != 40 {
			t.Errorf("unexpected processor %+v", p)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestProcessor_EmptyDocument(t *testing.T) {
	p := New()
	chunks, err := p.Process(context.Background(), newDoc("   ", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks != nil {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestProcessor_NilDocument(t *testing.T) {
	if _, err := New().Process(context.Background(), nil); err == nil {
		t.Error("expected error for nil document")
	}
}

func TestProcessor_ShortDocument(t *testing.T) {
	p := New()
	chunks, err := p.Process(context.Background(), newDoc("A short abstract."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ID != "doc-1:0" {
		t.Errorf("unexpected chunk id %q", chunks[0].ID)
	}
	if chunks[0].StartOffset != 0 || chunks[0].EndOffset != len("A short abstract.") {
		t.Errorf("unexpected offsets %d-%d", chunks[0].StartOffset, chunks[0].EndOffset)
	}
}

func TestProcessor_ReconstructsExactly(t *testing.T) {
	sentence := "The sample was limited to one region. "
	accented := "A lacuna não foi explorada em estudos anteriores, ação necessária. "

	tests := []struct {
		name  string
		pages []string
		opts  []Option
	}{
		{"plain sentences", []string{strings.Repeat(sentence, 120)}, nil},
		{"paragraphs", []string{strings.Repeat(sentence+"\n\n", 80)}, nil},
		{"multibyte", []string{strings.Repeat(accented, 90)}, []Option{WithChunkSize(300), WithOverlap(60), WithTolerance(50)}},
		{"no boundaries", []string{strings.Repeat("x", 5000)}, nil},
		{"multibyte no boundaries", []string{strings.Repeat("ção", 2000)}, []Option{WithChunkSize(101), WithOverlap(13)}},
		{"multiple pages", []string{strings.Repeat(sentence, 40), strings.Repeat(sentence, 40)}, nil},
		{"small chunks", []string{strings.Repeat(sentence, 10)}, []Option{WithChunkSize(50), WithOverlap(10), WithTolerance(10)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDoc(tt.pages...)
			p := New(tt.opts...)

			chunks, err := p.Process(context.Background(), doc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(chunks) == 0 {
				t.Fatal("expected chunks")
			}

			if got := Reconstruct(chunks); got != doc.Text() {
				t.Errorf("reconstruction mismatch: got %d bytes, want %d", len(got), len(doc.Text()))
			}

			for i, c := range chunks {
				if c.EndOffset <= c.StartOffset {
					t.Errorf("chunk %d has empty span", i)
				}
				if c.Text != doc.Text()[c.StartOffset:c.EndOffset] {
					t.Errorf("chunk %d text does not match offsets", i)
				}
				if !utf8.ValidString(c.Text) {
					t.Errorf("chunk %d splits a rune", i)
				}
				if c.Len() > p.chunkSize+p.tolerance {
					t.Errorf("chunk %d too long: %d", i, c.Len())
				}
				if i > 0 {
					prev := chunks[i-1]
					if c.StartOffset > prev.EndOffset {
						t.Errorf("chunk %d skips text", i)
					}
					if prev.EndOffset-c.StartOffset > p.overlap {
						t.Errorf("chunk %d overlaps by %d", i, prev.EndOffset-c.StartOffset)
					}
					if c.StartOffset <= prev.StartOffset {
						t.Errorf("chunk %d does not advance", i)
					}
				}
				if c.Position != i {
					t.Errorf("chunk %d has position %d", i, c.Position)
				}
			}
		})
	}
}

func TestProcessor_PrefersParagraphBoundary(t *testing.T) {
	first := strings.Repeat("word ", 190) + "end.\n\n"
	doc := newDoc(first + strings.Repeat("next ", 300))

	chunks, err := New().Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks[0].EndOffset != len(first) {
		t.Errorf("expected first chunk to end at paragraph break %d, got %d", len(first), chunks[0].EndOffset)
	}
}

func TestProcessor_PrefersSentenceOverSpace(t *testing.T) {
	first := strings.Repeat("word ", 195) + "stop."
	doc := newDoc(first + " " + strings.Repeat("more ", 300))

	chunks, err := New().Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks[0].EndOffset != len(first) {
		t.Errorf("expected first chunk to end after sentence %d, got %d", len(first), chunks[0].EndOffset)
	}
}

func TestProcessor_PageNumbers(t *testing.T) {
	sentence := "Results are discussed in detail here. "
	doc := newDoc(strings.Repeat(sentence, 30), strings.Repeat(sentence, 30))

	chunks, err := New(WithChunkSize(400), WithOverlap(50)).Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks[0].PageNumber != 1 {
		t.Errorf("expected first chunk on page 1, got %d", chunks[0].PageNumber)
	}
	if last := chunks[len(chunks)-1]; last.PageNumber != 2 {
		t.Errorf("expected last chunk on page 2, got %d", last.PageNumber)
	}
}

func TestProcessor_Deterministic(t *testing.T) {
	doc := newDoc(strings.Repeat("Determinism matters. ", 200))
	p := New()

	a, _ := p.Process(context.Background(), doc)
	b, _ := p.Process(context.Background(), doc)

	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs", i)
		}
	}
}

func TestProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Process(ctx, newDoc(strings.Repeat("text ", 1000)))
	if err == nil {
		t.Error("expected context error")
	}
}
