package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPageDocument() *Document {
	return NewDocument("doc-1", "paper.pdf", []PageText{
		{Number: 1, Text: "Introduction."},
		{Number: 2, Text: "Limitations."},
	}, Metadata{})
}

func TestDocument_Text(t *testing.T) {
	doc := twoPageDocument()

	assert.Equal(t, "Introduction.\n\nLimitations.", doc.Text())
}

func TestDocument_PageAt(t *testing.T) {
	doc := twoPageDocument()
	text := doc.Text()

	tests := []struct {
		name   string
		offset int
		want   int
	}{
		{"start of first page", 0, 1},
		{"end of first page", len("Introduction.") - 1, 1},
		{"inside separator", len("Introduction."), 1},
		{"start of second page", len("Introduction.\n\n"), 2},
		{"last byte", len(text) - 1, 2},
		{"past the end", len(text) + 10, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doc.PageAt(tt.offset))
		})
	}
}

func TestDocument_PageAt_Empty(t *testing.T) {
	doc := NewDocument("doc", "empty.pdf", nil, Metadata{})

	assert.Equal(t, 0, doc.PageAt(0))
	assert.Empty(t, doc.Text())
}

func TestDocument_LiteralConstruction(t *testing.T) {
	doc := &Document{
		ID:    "doc-2",
		Pages: []PageText{{Number: 1, Text: "a"}, {Number: 2, Text: "b"}},
	}

	require.Equal(t, "a\n\nb", doc.Text())
	assert.Equal(t, 2, doc.PageAt(3))
}

func TestDocument_DisplayName(t *testing.T) {
	doc := twoPageDocument()
	assert.Equal(t, "paper.pdf", doc.DisplayName())

	doc.Metadata.Title = "A Study"
	assert.Equal(t, "A Study", doc.DisplayName())
}

func TestChunk_Len(t *testing.T) {
	c := Chunk{StartOffset: 10, EndOffset: 25}
	assert.Equal(t, 15, c.Len())
}
