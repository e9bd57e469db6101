package domain

import "strings"

// GapType categorises a research gap.
type GapType string

// Recognised gap types.
const (
	GapTypeLimitation     GapType = "Limitation"
	GapTypeFutureWork     GapType = "FutureWork"
	GapTypeMethodological GapType = "Methodological"
	GapTypeTheoretical    GapType = "Theoretical"
	GapTypeContextual     GapType = "Contextual"
	GapTypeEmpirical      GapType = "Empirical"
)

// AllGapTypes lists the gap types in display order.
func AllGapTypes() []GapType {
	return []GapType{
		GapTypeLimitation,
		GapTypeFutureWork,
		GapTypeMethodological,
		GapTypeTheoretical,
		GapTypeContextual,
		GapTypeEmpirical,
	}
}

// IsValid returns true if the gap type is recognised.
func (t GapType) IsValid() bool {
	for _, g := range AllGapTypes() {
		if t == g {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (t GapType) String() string {
	return string(t)
}

// ParseGapType maps a free-form label produced by a model onto a GapType.
// Unknown labels map to GapTypeEmpirical.
func ParseGapType(label string) GapType {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.NewReplacer("-", "", "_", "", " ", "").Replace(l)
	switch {
	case l == "":
		return GapTypeEmpirical
	case strings.HasPrefix(l, "limitation"):
		return GapTypeLimitation
	case strings.HasPrefix(l, "futurework"), strings.HasPrefix(l, "future"), strings.HasPrefix(l, "openquestion"):
		return GapTypeFutureWork
	case strings.HasPrefix(l, "method"):
		return GapTypeMethodological
	case strings.HasPrefix(l, "theor"):
		return GapTypeTheoretical
	case strings.HasPrefix(l, "context"):
		return GapTypeContextual
	default:
		return GapTypeEmpirical
	}
}

// KeywordMatch is the result of screening a chunk for gap indicators.
type KeywordMatch struct {
	Matched   bool
	Terms     []string
	Languages []string
}

// RetrievalHit records that a chunk was surfaced by semantic retrieval.
type RetrievalHit struct {
	Query      string
	Similarity float64
}

// Trigger records why a chunk became a gap candidate. At least one of
// Keyword and Retrieval is set.
type Trigger struct {
	Keyword   *KeywordMatch
	Retrieval *RetrievalHit
}

// Source describes the trigger for display.
func (t Trigger) Source() string {
	switch {
	case t.Keyword != nil && t.Retrieval != nil:
		return "keyword+retrieval"
	case t.Keyword != nil:
		return "keyword"
	case t.Retrieval != nil:
		return "retrieval"
	default:
		return "none"
	}
}

// GapCandidate is a chunk selected for classification together with the
// surrounding context sent to the backend.
type GapCandidate struct {
	Chunk   Chunk
	Trigger Trigger
	Context []Chunk
}

// Classification is the parsed answer of a backend for one candidate.
type Classification struct {
	Found       bool
	Type        GapType
	Description string
	Evidence    string
	Suggestion  string
	// Confidence is the model's self-reported confidence in [0,1], if any.
	Confidence *float64
	Raw        string
}

// ClassifyRequest is the input of a single backend classification call.
type ClassifyRequest struct {
	DocumentTitle string
	Candidate     GapCandidate
	// ContextText is the rendered context window, already truncated to the
	// backend's context limit.
	ContextText string
}

// Gap is a confirmed research gap.
type Gap struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document"`
	Title        string  `json:"title,omitempty"`
	DOI          string  `json:"doi,omitempty"`
	Page         int     `json:"page"`
	Type         GapType `json:"gap_type"`
	Description  string  `json:"description"`
	Evidence     string  `json:"evidence_text"`
	Suggestion   string  `json:"suggestion"`
	InsightScore float64 `json:"insight_score"`
	ChunkID      string  `json:"chunk_id"`
	Backend      string  `json:"backend"`
	Trigger      string  `json:"trigger"`
}
