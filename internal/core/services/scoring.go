package services

import (
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// Keyword trigger confidence: one distinct term gives keywordBase and every
// further term adds keywordStep, capped at 1.
const (
	keywordBase = 0.6
	keywordStep = 0.2
)

// Scorer computes Insight Scores. The score is a fixed weighted blend of
// the trigger confidence and the backend confidence:
//
//	trigger = 1 - (1 - retrieval) * (1 - keyword)
//	score   = clamp01((Wt*trigger + Wb*backend) / (Wt + Wb))
//
// retrieval is the clamped cosine similarity of the retrieval hit (0 when
// absent), keyword is the keyword confidence (0 when absent) and backend is
// the model-reported confidence or DefaultConfidence when the model gave
// none. The same inputs always produce the same score.
type Scorer struct {
	triggerWeight     float64
	backendWeight     float64
	defaultConfidence float64
}

// NewScorer creates a scorer from settings. Invalid weights fall back to the
// defaults.
func NewScorer(s domain.ScoringSettings) *Scorer {
	d := domain.DefaultSettings().Scoring
	if s.TriggerWeight < 0 || s.BackendWeight < 0 || s.TriggerWeight+s.BackendWeight <= 0 {
		s.TriggerWeight, s.BackendWeight = d.TriggerWeight, d.BackendWeight
	}
	if s.DefaultConfidence <= 0 || s.DefaultConfidence > 1 {
		s.DefaultConfidence = d.DefaultConfidence
	}
	return &Scorer{
		triggerWeight:     s.TriggerWeight,
		backendWeight:     s.BackendWeight,
		defaultConfidence: s.DefaultConfidence,
	}
}

// TriggerConfidence combines keyword and retrieval evidence as a noisy-or.
func (s *Scorer) TriggerConfidence(t domain.Trigger) float64 {
	var retrieval, keyword float64
	if t.Retrieval != nil {
		retrieval = clamp01(t.Retrieval.Similarity)
	}
	if t.Keyword != nil && t.Keyword.Matched {
		n := max(len(t.Keyword.Terms), 1)
		keyword = math.Min(1, keywordBase+keywordStep*float64(n-1))
	}
	return 1 - (1-retrieval)*(1-keyword)
}

// Score computes the Insight Score of a classified candidate.
func (s *Scorer) Score(t domain.Trigger, c *domain.Classification) float64 {
	backend := s.defaultConfidence
	if c != nil && c.Confidence != nil && !math.IsNaN(*c.Confidence) {
		backend = clamp01(*c.Confidence)
	}
	score := (s.triggerWeight*s.TriggerConfidence(t) + s.backendWeight*backend) /
		(s.triggerWeight + s.backendWeight)
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// evidenceSimilarity is the Jaccard similarity of the folded word sets of
// two evidence quotes.
func evidenceSimilarity(a, b string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 1
	}
	inter := 0
	for t := range sa {
		if sb[t] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	words := strings.FieldsFunc(foldText(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// dedupeGaps drops gaps whose evidence is at least threshold-similar to a
// higher-scored gap of the same document.
func dedupeGaps(gaps []domain.Gap, threshold float64) []domain.Gap {
	ordered := append([]domain.Gap(nil), gaps...)
	domain.SortGaps(ordered)

	kept := make([]domain.Gap, 0, len(ordered))
	for _, g := range ordered {
		dup := false
		for _, k := range kept {
			if k.DocumentID == g.DocumentID && evidenceSimilarity(k.Evidence, g.Evidence) >= threshold {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, g)
		}
	}
	return kept
}
