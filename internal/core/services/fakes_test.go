package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// fakePDFReader returns pages keyed by the PDF bytes.
type fakePDFReader struct {
	docs map[string]*driven.RawPDF
	errs map[string]error
}

func (f *fakePDFReader) Name() string { return "fake" }

func (f *fakePDFReader) ReadPDF(ctx context.Context, data []byte) (*driven.RawPDF, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := string(data)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if raw, ok := f.docs[key]; ok {
		return raw, nil
	}
	return nil, domain.ErrExtractionFailed
}

// fakeEmbedder embeds text as a bag of concept counts so that related
// phrases land close together.
type fakeEmbedder struct {
	mu    sync.Mutex
	err   error
	calls int
}

var concepts = [][]string{
	{"limitation", "limited", "limitações", "constraint"},
	{"future", "further", "next"},
	{"unexplored", "unclear", "remains", "insufficiently", "open"},
	{"method", "sample", "data"},
	{"result", "show", "found"},
	{"introduction", "background", "context"},
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, len(concepts)+1)
		lower := strings.ToLower(t)
		for c, words := range concepts {
			for _, w := range words {
				v[c] += float32(strings.Count(lower, w))
			}
		}
		v[len(concepts)] = 0.1
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int             { return len(concepts) + 1 }
func (f *fakeEmbedder) ModelName() string           { return "fake-embed" }
func (f *fakeEmbedder) Ping(context.Context) error { return f.err }
func (f *fakeEmbedder) Close() error                { return nil }

// fakeBackend classifies candidates whose text contains a marker phrase.
type fakeBackend struct {
	mu         sync.Mutex
	kind       domain.BackendKind
	available  error
	limit      int
	calls      int
	requests   []domain.ClassifyRequest
	classify   func(ctx context.Context, req domain.ClassifyRequest) (*domain.Classification, error)
	closed     bool
	confidence *float64
}

func (f *fakeBackend) Name() string {
	return string(f.kind) + "/fake"
}

func (f *fakeBackend) Kind() domain.BackendKind { return f.kind }

func (f *fakeBackend) Available(context.Context) error { return f.available }

func (f *fakeBackend) ContextLimit() int {
	if f.limit == 0 {
		return 4000
	}
	return f.limit
}

func (f *fakeBackend) Classify(ctx context.Context, req domain.ClassifyRequest) (*domain.Classification, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.classify != nil {
		return f.classify(ctx, req)
	}
	return limitationClassifier(f.confidence)(ctx, req)
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// limitationClassifier reports a Limitation gap for candidates that quote
// the limitation sentence of the test papers.
func limitationClassifier(conf *float64) func(context.Context, domain.ClassifyRequest) (*domain.Classification, error) {
	return func(_ context.Context, req domain.ClassifyRequest) (*domain.Classification, error) {
		text := req.Candidate.Chunk.Text
		idx := strings.Index(text, "A limitation of this study")
		if idx < 0 {
			return &domain.Classification{Found: false}, nil
		}
		end := strings.Index(text[idx:], ".")
		evidence := text[idx:]
		if end >= 0 {
			evidence = text[idx : idx+end+1]
		}
		return &domain.Classification{
			Found:       true,
			Type:        domain.GapTypeLimitation,
			Description: "Single-region sample limits generalisation",
			Evidence:    evidence,
			Suggestion:  "Replicate with multi-region samples",
			Confidence:  conf,
		}, nil
	}
}

// fakeFactory hands out prepared backends.
type fakeFactory struct {
	mu       sync.Mutex
	backends map[domain.BackendKind]*fakeBackend
	keys     []string
	err      error
}

func (f *fakeFactory) NewBackend(kind domain.BackendKind, _ domain.Settings, apiKey string) (driven.GapBackend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, apiKey)
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.backends[kind]
	if !ok {
		return nil, errors.New("no backend")
	}
	return b, nil
}

// recordingMetrics counts metric calls.
type recordingMetrics struct {
	mu        sync.Mutex
	documents map[string]int
	calls     map[string]int
	gaps      int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{documents: map[string]int{}, calls: map[string]int{}}
}

func (r *recordingMetrics) DocumentProcessed(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[outcome]++
}

func (r *recordingMetrics) ClassifyCall(_ string, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[outcome]++
}

func (r *recordingMetrics) GapsFound(_ string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gaps += n
}
