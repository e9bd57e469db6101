package backend

import (
	"context"
	"sync"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// scriptedLLM returns its responses in order; the last one repeats.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []llmResponse
	prompts   []string
	opts      []driven.GenerateOptions
	pingErr   error
	closed    bool
}

type llmResponse struct {
	text string
	err  error
}

func (s *scriptedLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	s.opts = append(s.opts, opts)
	i := min(len(s.prompts)-1, len(s.responses)-1)
	return s.responses[i].text, s.responses[i].err
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func (s *scriptedLLM) ModelName() string            { return "test-model" }
func (s *scriptedLLM) Ping(_ context.Context) error { return s.pingErr }
func (s *scriptedLLM) Close() error                 { s.closed = true; return nil }

type staticProbe struct {
	name  string
	err   error
	calls int
}

func (p *staticProbe) Detect(_ context.Context) (string, error) {
	p.calls++
	return p.name, p.err
}

type mapPrompts map[string]string

func (m mapPrompts) Load(name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m mapPrompts) Reload() {}

func testRequest() domain.ClassifyRequest {
	return domain.ClassifyRequest{
		DocumentTitle: "Solar Adoption",
		Candidate: domain.GapCandidate{
			Chunk: domain.Chunk{ID: "c1", Text: "A limitation of this study is the small sample."},
		},
	}
}

const gapAnswer = `{"gap_found": true, "gap_type": "Limitation", "description": "Small sample.", "evidence": "small sample", "suggestion": "Use a larger sample.", "confidence": 0.9}`

// blockingLLM holds every Generate call until release is closed and records
// the highest number of calls in progress at once.
type blockingLLM struct {
	release chan struct{}

	mu     sync.Mutex
	active int
	peak   int
	total  int
}

func newBlockingLLM() *blockingLLM {
	return &blockingLLM{release: make(chan struct{})}
}

func (b *blockingLLM) Generate(ctx context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	b.mu.Lock()
	b.active++
	b.total++
	b.peak = max(b.peak, b.active)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.active--
		b.mu.Unlock()
	}()

	select {
	case <-b.release:
		return gapAnswer, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (b *blockingLLM) stats() (active, peak, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active, b.peak, b.total
}

func (b *blockingLLM) ModelName() string            { return "blocking-model" }
func (b *blockingLLM) Ping(_ context.Context) error { return nil }
func (b *blockingLLM) Close() error                 { return nil }
