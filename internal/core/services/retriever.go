package services

import (
	"context"
	"sort"
	"strings"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// ProbeQueries are the canonical questions asked of every document index.
var ProbeQueries = []string{
	"What limitations does this study acknowledge?",
	"What future work or open research questions are suggested?",
	"What remains unclear, unexplored or insufficiently studied?",
}

// maxQueryLength bounds an ad hoc query built from a keyword sentence.
const maxQueryLength = 300

// ChunkQuerier answers similarity queries over one document.
type ChunkQuerier interface {
	Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error)
}

// Retriever runs probe queries against a document index and merges the hits.
type Retriever struct{}

// NewRetriever creates a retriever.
func NewRetriever() *Retriever {
	return &Retriever{}
}

// Retrieve runs each query with top-k, merges the results, keeps the
// highest similarity per chunk and ranks them descending with ties broken
// by chunk position. The first failing query aborts retrieval.
func (r *Retriever) Retrieve(ctx context.Context, queries []string, index ChunkQuerier, k int) ([]domain.ScoredChunk, error) {
	best := make(map[string]domain.ScoredChunk)
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hits, err := index.Query(ctx, q, k)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if cur, ok := best[h.Chunk.ID]; !ok || h.Similarity > cur.Similarity {
				best[h.Chunk.ID] = h
			}
		}
	}

	merged := make([]domain.ScoredChunk, 0, len(best))
	for _, h := range best {
		merged = append(merged, h)
	}
	sortScored(merged)
	return merged, nil
}

// BuildQueries combines the canonical probes with up to limit ad hoc queries
// taken from keyword-bearing sentences.
func BuildQueries(snippets []string, limit int) []string {
	queries := append([]string(nil), ProbeQueries...)
	seen := make(map[string]bool, len(snippets))
	added := 0
	for _, s := range snippets {
		if added >= limit {
			break
		}
		s = strings.TrimSpace(s)
		if len(s) > maxQueryLength {
			s = truncateAtRune(s, maxQueryLength)
		}
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		queries = append(queries, s)
		added++
	}
	return queries
}

// sortScored orders by similarity descending, then chunk position.
func sortScored(hits []domain.ScoredChunk) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Chunk.Position < hits[j].Chunk.Position
	})
}

// truncateAtRune cuts s to at most n bytes without splitting a rune.
func truncateAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && (s[n]&0xC0) == 0x80 {
		n--
	}
	return s[:n]
}
