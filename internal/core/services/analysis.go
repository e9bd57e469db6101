package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driving"
	"github.com/custodia-labs/gapfinder-cli/internal/logger"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// maxEvidenceFallback bounds the evidence taken from the passage when the
// backend quoted nothing.
const maxEvidenceFallback = 300

// AnalysisConfig wires the collaborators of an AnalysisService.
// Embedder and VectorIndexFactory are optional; without them every document
// is analysed in keyword-only mode. Metrics is optional.
type AnalysisConfig struct {
	Extractor          *Extractor
	Chunker            driven.Chunker
	Embedder           driven.EmbeddingService
	VectorIndexFactory driven.VectorIndexFactory
	Backends           driven.BackendFactory
	Metrics            driven.MetricsRecorder
	Settings           domain.Settings
}

// AnalysisService runs gap analysis sessions.
type AnalysisService struct {
	extractor *Extractor
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	vectors   driven.VectorIndexFactory
	backends  driven.BackendFactory
	metrics   driven.MetricsRecorder
	settings  domain.Settings
	screener  *Screener
	retriever *Retriever
	scorer    *Scorer
}

// NewAnalysisService creates an analysis service.
func NewAnalysisService(cfg AnalysisConfig) *AnalysisService {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	settings := withAnalysisDefaults(cfg.Settings)
	return &AnalysisService{
		extractor: cfg.Extractor,
		chunker:   cfg.Chunker,
		embedder:  cfg.Embedder,
		vectors:   cfg.VectorIndexFactory,
		backends:  cfg.Backends,
		metrics:   metrics,
		settings:  settings,
		screener:  NewScreener(settings.Keywords),
		retriever: NewRetriever(),
		scorer:    NewScorer(settings.Scoring),
	}
}

// withAnalysisDefaults fills zero tuning values with defaults.
func withAnalysisDefaults(s domain.Settings) domain.Settings {
	d := domain.DefaultSettings()
	a := &s.Analysis
	if a.TopK <= 0 {
		a.TopK = d.Analysis.TopK
	}
	if a.MaxCandidates <= 0 {
		a.MaxCandidates = d.Analysis.MaxCandidates
	}
	if a.ContextNeighbors < 0 {
		a.ContextNeighbors = 0
	}
	if a.MaxProbeQueries < 0 {
		a.MaxProbeQueries = 0
	}
	if a.Workers <= 0 {
		a.Workers = 1
	}
	if a.CallTimeout <= 0 {
		a.CallTimeout = d.Analysis.CallTimeout
	}
	if s.Scoring.DedupeThreshold <= 0 || s.Scoring.DedupeThreshold > 1 {
		s.Scoring.DedupeThreshold = d.Scoring.DedupeThreshold
	}
	if !s.Mode.IsValid() {
		s.Mode = d.Mode
	}
	return s
}

// session is the state of one Analyze call. The backend is chosen once
// and never changes for the rest of the session.
type session struct {
	id       string
	backend  driven.GapBackend
	settings domain.Settings
}

// docOutcome is what one document contributes to the report.
type docOutcome struct {
	result       *domain.DocumentResult
	failure      *domain.FileFailure
	gaps         []domain.Gap
	undetermined []domain.Undetermined
	warnings     []domain.Warning
}

// Analyze runs the pipeline over every file. Files are processed in
// parallel, each with its own index. A failing file never affects the
// others; an authentication failure aborts the whole session.
func (s *AnalysisService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisReport, error) {
	if len(req.Files) == 0 {
		return nil, domain.ErrNoDocuments
	}

	settings := s.settings
	if req.Mode != "" {
		settings.Mode = req.Mode
	}
	if req.Fallback != "" {
		settings.Fallback = req.Fallback
	}
	if !settings.Mode.IsValid() {
		return nil, fmt.Errorf("mode %q: %w", settings.Mode, domain.ErrInvalidInput)
	}

	logger.Section("Analysis")
	started := time.Now()

	backend, warnings, err := s.selectBackend(ctx, settings, req.APIKey)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	sess := &session{id: uuid.New().String(), backend: backend, settings: settings}
	logger.Info("session %s: %d file(s), backend %s", sess.id, len(req.Files), backend.Name())

	outcomes := make([]docOutcome, len(req.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(settings.Analysis.Workers)
	for i, f := range req.Files {
		g.Go(func() error {
			out, err := s.analyseDocument(gctx, sess, f)
			outcomes[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &domain.AnalysisReport{
		SessionID: sess.id,
		Mode:      backend.Kind(),
		Backend:   backend.Name(),
		StartedAt: started,
		Warnings:  warnings,
		Cancelled: ctx.Err() != nil,
	}
	for _, out := range outcomes {
		if out.result != nil {
			report.Documents = append(report.Documents, *out.result)
		}
		if out.failure != nil {
			report.Failures = append(report.Failures, *out.failure)
		}
		report.Gaps = append(report.Gaps, out.gaps...)
		report.Undetermined = append(report.Undetermined, out.undetermined...)
		report.Warnings = append(report.Warnings, out.warnings...)
	}
	domain.SortGaps(report.Gaps)
	report.Duration = time.Since(started)

	logger.Info("session %s: %d gap(s), %d failure(s), %d undetermined in %s",
		sess.id, len(report.Gaps), len(report.Failures), len(report.Undetermined), report.Duration.Round(time.Millisecond))
	return report, nil
}

// selectBackend builds the requested backend and checks it once. When it is
// unavailable and a different fallback kind is configured, the fallback is
// tried and the switch is reported as a warning. Invalid credentials are
// never masked by a fallback.
func (s *AnalysisService) selectBackend(
	ctx context.Context,
	settings domain.Settings,
	apiKey string,
) (driven.GapBackend, []domain.Warning, error) {
	backend, err := s.openBackend(ctx, settings.Mode, settings, apiKey)
	if err == nil {
		return backend, nil, nil
	}

	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return nil, nil, err
	}

	fallback := settings.Fallback
	if !fallback.IsValid() || fallback == settings.Mode {
		return nil, nil, fmt.Errorf("%s backend unavailable: %w", settings.Mode, err)
	}

	logger.Warn("%s backend unavailable (%v), trying %s", settings.Mode, err, fallback)
	alt, altErr := s.openBackend(ctx, fallback, settings, apiKey)
	if altErr != nil {
		if errors.As(altErr, &authErr) {
			return nil, nil, altErr
		}
		return nil, nil, fmt.Errorf("%s backend unavailable: %w; fallback %s unavailable: %w",
			settings.Mode, err, fallback, altErr)
	}

	warning := domain.Warning{
		Message: fmt.Sprintf("%s backend unavailable (%v); using %s backend %s", settings.Mode, err, fallback, alt.Name()),
	}
	return alt, []domain.Warning{warning}, nil
}

func (s *AnalysisService) openBackend(
	ctx context.Context,
	kind domain.BackendKind,
	settings domain.Settings,
	apiKey string,
) (driven.GapBackend, error) {
	if s.backends == nil {
		return nil, domain.ErrBackendUnavailable
	}
	backend, err := s.backends.NewBackend(kind, settings, apiKey)
	if err != nil {
		return nil, err
	}
	if err := backend.Available(ctx); err != nil {
		_ = backend.Close()
		return nil, err
	}
	logger.Debug("backend %s available", backend.Name())
	return backend, nil
}

// advance records that a document reached a pipeline stage.
func advance(result *domain.DocumentResult, stage domain.Stage) {
	result.Stages = append(result.Stages, stage)
	logger.Stage(result.Filename, string(stage))
}

// analyseDocument drives one file through the stage machine. Only errors
// that must abort the session are returned.
func (s *AnalysisService) analyseDocument(ctx context.Context, sess *session, f domain.InputFile) (docOutcome, error) {
	var out docOutcome
	if ctx.Err() != nil {
		out.warnings = append(out.warnings, domain.Warning{Filename: f.Name, Message: "skipped: analysis cancelled"})
		return out, nil
	}

	doc, err := s.extractor.Extract(ctx, f.Name, f.Data)
	if err != nil {
		if ctx.Err() != nil {
			out.warnings = append(out.warnings, domain.Warning{Filename: f.Name, Message: "skipped: analysis cancelled"})
			return out, nil
		}
		logger.Warn("%s: %v", f.Name, err)
		s.metrics.DocumentProcessed("failed")
		out.failure = &domain.FileFailure{Filename: f.Name, Error: err.Error(), Err: err}
		return out, nil
	}

	result := &domain.DocumentResult{
		DocumentID: doc.ID,
		Filename:   f.Name,
		Metadata:   doc.Metadata,
	}
	advance(result, domain.StageExtracted)
	out.result = result

	chunks, err := s.chunker.Process(ctx, doc)
	if err != nil {
		s.metrics.DocumentProcessed("failed")
		out.result = nil
		out.failure = &domain.FileFailure{Filename: f.Name, Error: fmt.Sprintf("chunking: %v", err), Err: err}
		return out, nil
	}
	result.ChunkCount = len(chunks)
	advance(result, domain.StageChunked)
	logger.Debug("%s: %d chunks", f.Name, len(chunks))

	var index *EmbeddingIndex
	if s.embedder != nil && s.vectors != nil {
		index, err = BuildEmbeddingIndex(ctx, doc.ID, chunks, s.embedder, s.vectors, sess.settings.Embedding.BatchSize)
		switch {
		case err != nil && ctx.Err() != nil:
			index = nil
		case err != nil:
			index = nil
			out.warnings = append(out.warnings, domain.Warning{
				Filename: f.Name,
				Message:  fmt.Sprintf("semantic index unavailable, using keyword screening only: %v", err),
			})
		default:
			defer index.Close()
			advance(result, domain.StageIndexed)
		}
	}

	matches := make(map[string]domain.KeywordMatch)
	var snippets []string
	for _, c := range chunks {
		m := s.screener.Scan(c)
		if !m.Matched {
			continue
		}
		matches[c.ID] = m
		if len(snippets) < sess.settings.Analysis.MaxProbeQueries {
			snippets = append(snippets, s.screener.Snippets(c.Text, sess.settings.Analysis.MaxProbeQueries-len(snippets))...)
		}
	}
	advance(result, domain.StageScreened)

	var hits []domain.ScoredChunk
	if index != nil {
		queries := BuildQueries(snippets, sess.settings.Analysis.MaxProbeQueries)
		hits, err = s.retriever.Retrieve(ctx, queries, index, sess.settings.Analysis.TopK)
		switch {
		case err == nil:
			advance(result, domain.StageRetrieved)
		case ctx.Err() != nil:
			hits = nil
		default:
			hits = nil
			index = nil
			out.warnings = append(out.warnings, domain.Warning{
				Filename: f.Name,
				Message:  fmt.Sprintf("retrieval failed, using keyword screening only: %v", err),
			})
		}
	}
	result.KeywordOnly = index == nil

	candidates := s.selectCandidates(ctx, chunks, matches, hits, index)
	result.CandidateCount = len(candidates)
	logger.Debug("%s: %d keyword hit(s), %d retrieval hit(s), %d candidate(s), keyword-only=%t",
		f.Name, len(matches), len(hits), len(candidates), result.KeywordOnly)

	committed := make(map[string]bool)
	for _, cand := range candidates {
		if ctx.Err() != nil {
			break
		}
		if committed[cand.Chunk.ID] {
			continue
		}

		gap, undetermined, warning, err := s.classify(ctx, sess, doc, cand)
		if err != nil {
			return out, err
		}
		if warning != nil {
			out.warnings = append(out.warnings, *warning)
		}
		if undetermined != nil {
			out.undetermined = append(out.undetermined, *undetermined)
		}
		if gap != nil {
			committed[cand.Chunk.ID] = true
			out.gaps = append(out.gaps, *gap)
		}
	}
	advance(result, domain.StageClassified)

	out.gaps = dedupeGaps(out.gaps, sess.settings.Scoring.DedupeThreshold)
	result.GapCount = len(out.gaps)
	advance(result, domain.StageAggregated)

	for _, t := range domain.AllGapTypes() {
		n := 0
		for _, g := range out.gaps {
			if g.Type == t {
				n++
			}
		}
		if n > 0 {
			s.metrics.GapsFound(t.String(), n)
		}
	}
	if result.KeywordOnly {
		s.metrics.DocumentProcessed("keyword_only")
	} else {
		s.metrics.DocumentProcessed("ok")
	}
	logger.Info("%s: %d gap(s) found", f.Name, len(out.gaps))
	return out, nil
}

// selectCandidates unions keyword hits and retrieval hits above the
// similarity floor, ranks them by trigger confidence then position and
// attaches a context window to each.
func (s *AnalysisService) selectCandidates(
	ctx context.Context,
	chunks []domain.Chunk,
	matches map[string]domain.KeywordMatch,
	hits []domain.ScoredChunk,
	index *EmbeddingIndex,
) []domain.GapCandidate {
	byID := make(map[string]*domain.GapCandidate)
	var order []string

	for _, c := range chunks {
		m, ok := matches[c.ID]
		if !ok {
			continue
		}
		byID[c.ID] = &domain.GapCandidate{Chunk: c, Trigger: domain.Trigger{Keyword: &m}}
		order = append(order, c.ID)
	}
	for _, h := range hits {
		if h.Similarity < s.settings.Analysis.MinSimilarity {
			continue
		}
		hit := &domain.RetrievalHit{Query: h.Query, Similarity: h.Similarity}
		if cand, ok := byID[h.Chunk.ID]; ok {
			cand.Trigger.Retrieval = hit
			continue
		}
		byID[h.Chunk.ID] = &domain.GapCandidate{Chunk: h.Chunk, Trigger: domain.Trigger{Retrieval: hit}}
		order = append(order, h.Chunk.ID)
	}

	candidates := make([]domain.GapCandidate, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, *byID[id])
	}
	sortCandidates(candidates, s.scorer)
	if len(candidates) > s.settings.Analysis.MaxCandidates {
		candidates = candidates[:s.settings.Analysis.MaxCandidates]
	}

	for i := range candidates {
		candidates[i].Context = s.contextFor(ctx, candidates[i].Chunk, chunks, index)
	}
	return candidates
}

func sortCandidates(c []domain.GapCandidate, scorer *Scorer) {
	conf := make(map[string]float64, len(c))
	for _, cand := range c {
		conf[cand.Chunk.ID] = scorer.TriggerConfidence(cand.Trigger)
	}
	sort.SliceStable(c, func(i, j int) bool {
		ci, cj := conf[c[i].Chunk.ID], conf[c[j].Chunk.ID]
		if ci != cj {
			return ci > cj
		}
		return c[i].Chunk.Position < c[j].Chunk.Position
	})
}

// contextFor picks the neighbours of a candidate: its nearest chunks in the
// index, or the adjacent chunks when no index is available.
func (s *AnalysisService) contextFor(
	ctx context.Context,
	chunk domain.Chunk,
	chunks []domain.Chunk,
	index *EmbeddingIndex,
) []domain.Chunk {
	n := s.settings.Analysis.ContextNeighbors
	if n == 0 {
		return nil
	}

	if index != nil {
		hits, err := index.Query(ctx, chunk.Text, n+1)
		if err == nil {
			var neighbours []domain.Chunk
			for _, h := range hits {
				if h.Chunk.ID != chunk.ID && len(neighbours) < n {
					neighbours = append(neighbours, h.Chunk)
				}
			}
			return neighbours
		}
		logger.Debug("context query for %s failed: %v", chunk.ID, err)
	}

	var neighbours []domain.Chunk
	for d := 1; len(neighbours) < n && d < len(chunks); d++ {
		if p := chunk.Position - d; p >= 0 {
			neighbours = append(neighbours, chunks[p])
		}
		if p := chunk.Position + d; p < len(chunks) && len(neighbours) < n {
			neighbours = append(neighbours, chunks[p])
		}
	}
	return neighbours
}

// classify runs one bounded backend call. A cancelled session lets the call
// finish; the timeout still applies.
func (s *AnalysisService) classify(
	ctx context.Context,
	sess *session,
	doc *domain.Document,
	cand domain.GapCandidate,
) (*domain.Gap, *domain.Undetermined, *domain.Warning, error) {
	backend := sess.backend
	req := domain.ClassifyRequest{
		DocumentTitle: describeDocument(doc),
		Candidate:     cand,
		ContextText:   renderContext(cand, backend.ContextLimit()),
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sess.settings.Analysis.CallTimeout)
	defer cancel()

	start := time.Now()
	cls, err := backend.Classify(callCtx, req)
	elapsed := time.Since(start)

	if err != nil {
		var authErr *domain.AuthError
		var parseErr *domain.ParseError
		switch {
		case errors.As(err, &authErr):
			s.metrics.ClassifyCall(backend.Name(), "error", elapsed)
			return nil, nil, nil, err
		case errors.As(err, &parseErr):
			s.metrics.ClassifyCall(backend.Name(), "parse_error", elapsed)
			logger.Warn("%s: unparsable output for %s: %v", doc.SourceFilename, cand.Chunk.ID, err)
			return nil, nil, &domain.Warning{
				Filename: doc.SourceFilename,
				ChunkID:  cand.Chunk.ID,
				Message:  fmt.Sprintf("model output could not be parsed: %v", parseErr.Err),
				Raw:      parseErr.Raw,
			}, nil
		default:
			reason := err.Error()
			if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() != nil {
				reason = fmt.Sprintf("timed out after %s", sess.settings.Analysis.CallTimeout)
			}
			s.metrics.ClassifyCall(backend.Name(), "undetermined", elapsed)
			logger.Warn("%s: %s undetermined: %s", doc.SourceFilename, cand.Chunk.ID, reason)
			return nil, &domain.Undetermined{
				DocumentID: doc.ID,
				Filename:   doc.SourceFilename,
				ChunkID:    cand.Chunk.ID,
				Page:       cand.Chunk.PageNumber,
				Reason:     reason,
			}, nil, nil
		}
	}

	if cls == nil || !cls.Found {
		s.metrics.ClassifyCall(backend.Name(), "no_gap", elapsed)
		return nil, nil, nil, nil
	}
	s.metrics.ClassifyCall(backend.Name(), "gap", elapsed)

	gapType := cls.Type
	if !gapType.IsValid() {
		gapType = domain.ParseGapType(string(cls.Type))
	}
	evidence := strings.TrimSpace(cls.Evidence)
	if evidence == "" {
		evidence = truncateAtRune(strings.TrimSpace(cand.Chunk.Text), maxEvidenceFallback)
	}

	return &domain.Gap{
		DocumentID:   doc.ID,
		DocumentName: doc.SourceFilename,
		Title:        doc.Metadata.Title,
		DOI:          doc.Metadata.DOI,
		Page:         evidencePage(doc, cand, evidence, s.screener),
		Type:         gapType,
		Description:  strings.TrimSpace(cls.Description),
		Evidence:     evidence,
		Suggestion:   strings.TrimSpace(cls.Suggestion),
		InsightScore: s.scorer.Score(cand.Trigger, cls),
		ChunkID:      cand.Chunk.ID,
		Backend:      backend.Name(),
		Trigger:      cand.Trigger.Source(),
	}, nil, nil, nil
}

// renderContext joins the neighbour chunks, truncated so that passage and
// context together stay within limit characters.
func renderContext(cand domain.GapCandidate, limit int) string {
	budget := limit - len(cand.Chunk.Text)
	if budget <= 0 || len(cand.Context) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, c := range cand.Context {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		fmt.Fprintf(&sb, "[page %d] %s", c.PageNumber, c.Text)
		if sb.Len() >= budget {
			break
		}
	}
	return truncateAtRune(sb.String(), budget)
}

// evidencePage finds the page of the evidence quote in the candidate or its
// context. Case, diacritics and line wrapping are ignored. Without a match it
// uses the first gap-indicator sentence of the candidate, then the
// candidate's starting page.
func evidencePage(doc *domain.Document, cand domain.GapCandidate, evidence string, screener *Screener) int {
	quote := strings.Trim(evidence, " \t\n.…\"'“”‘’")
	for _, c := range append([]domain.Chunk{cand.Chunk}, cand.Context...) {
		if off, ok := locate(c.Text, quote); ok {
			return doc.PageAt(c.StartOffset + off)
		}
	}
	if screener != nil {
		if snippets := screener.Snippets(cand.Chunk.Text, 1); len(snippets) > 0 {
			if off, ok := locate(cand.Chunk.Text, snippets[0]); ok {
				return doc.PageAt(cand.Chunk.StartOffset + off)
			}
		}
	}
	return cand.Chunk.PageNumber
}

// locate returns the byte offset in text where quote starts, comparing
// folded text with whitespace runs collapsed.
func locate(text, quote string) (int, bool) {
	needle := foldForSearch(quote)
	if needle.text == "" {
		return 0, false
	}
	hay := foldForSearch(text)
	idx := strings.Index(hay.text, needle.text)
	if idx < 0 {
		return 0, false
	}
	return hay.offsets[idx], true
}

// searchText is folded text with, for every byte, the offset of the source
// rune it came from.
type searchText struct {
	text    string
	offsets []int
}

// foldForSearch folds case and diacritics rune by rune and collapses
// whitespace runs to one space, dropping leading and trailing whitespace.
func foldForSearch(s string) searchText {
	var sb strings.Builder
	offsets := make([]int, 0, len(s))
	pendingSpace := false
	for i, r := range s {
		if unicode.IsSpace(r) {
			pendingSpace = sb.Len() > 0
			continue
		}
		folded := foldText(string(r))
		if folded == "" {
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			offsets = append(offsets, i)
			pendingSpace = false
		}
		sb.WriteString(folded)
		for range len(folded) {
			offsets = append(offsets, i)
		}
	}
	return searchText{text: sb.String(), offsets: offsets}
}

// BackendStatusService reports which backends can run.
type BackendStatusService struct {
	backends driven.BackendFactory
	settings domain.Settings
}

// Ensure BackendStatusService implements the interface.
var _ driving.BackendService = (*BackendStatusService)(nil)

// NewBackendStatusService creates a backend status service.
func NewBackendStatusService(backends driven.BackendFactory, settings domain.Settings) *BackendStatusService {
	return &BackendStatusService{backends: backends, settings: settings}
}

// Status checks both backend kinds concurrently.
func (s *BackendStatusService) Status(ctx context.Context, apiKey string) []driving.BackendStatus {
	kinds := domain.AllBackendKinds()
	statuses := make([]driving.BackendStatus, len(kinds))

	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := driving.BackendStatus{Kind: kind, Description: kind.Description()}
			backend, err := s.backends.NewBackend(kind, s.settings, apiKey)
			if err == nil {
				st.Name = backend.Name()
				err = backend.Available(ctx)
				_ = backend.Close()
			}
			if err != nil {
				st.Reason = err.Error()
			} else {
				st.Available = true
			}
			statuses[i] = st
		}()
	}
	wg.Wait()
	return statuses
}

type nopMetrics struct{}

func (nopMetrics) DocumentProcessed(string)                   {}
func (nopMetrics) ClassifyCall(string, string, time.Duration) {}
func (nopMetrics) GapsFound(string, int)                      {}
