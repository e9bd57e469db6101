package domain

import (
	"sort"
	"time"
)

// Stage is a step of the per-document analysis state machine.
type Stage string

// Pipeline stages in order. A document whose indexing fails skips
// StageIndexed and StageRetrieved.
const (
	StageExtracted  Stage = "extracted"
	StageChunked    Stage = "chunked"
	StageIndexed    Stage = "indexed"
	StageScreened   Stage = "screened"
	StageRetrieved  Stage = "retrieved"
	StageClassified Stage = "classified"
	StageAggregated Stage = "aggregated"
)

// InputFile is one PDF submitted for analysis.
type InputFile struct {
	Name string
	Data []byte
}

// AnalysisRequest describes one analysis session.
type AnalysisRequest struct {
	Files []InputFile

	// Mode overrides the configured backend when set.
	Mode BackendKind

	// Fallback overrides the configured fallback when set.
	Fallback BackendKind

	// APIKey is the cloud credential for this session only.
	APIKey string
}

// DocumentResult summarises the analysis of one document.
type DocumentResult struct {
	DocumentID     string   `json:"document_id"`
	Filename       string   `json:"filename"`
	Metadata       Metadata `json:"metadata"`
	Stages         []Stage  `json:"stages"`
	KeywordOnly    bool     `json:"keyword_only"`
	ChunkCount     int      `json:"chunks"`
	CandidateCount int      `json:"candidates"`
	GapCount       int      `json:"gaps"`
}

// FileFailure reports a file that could not be analysed at all.
type FileFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
	Err      error  `json:"-"`
}

// Undetermined records a candidate whose classification could not complete.
type Undetermined struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkID    string `json:"chunk_id"`
	Page       int    `json:"page"`
	Reason     string `json:"reason"`
}

// Warning is a non-fatal diagnostic surfaced to the user.
type Warning struct {
	Filename string `json:"filename,omitempty"`
	ChunkID  string `json:"chunk_id,omitempty"`
	Message  string `json:"message"`
	// Raw holds unparsable model output, when relevant.
	Raw string `json:"raw,omitempty"`
}

// AnalysisReport is the outcome of an analysis session.
type AnalysisReport struct {
	SessionID    string           `json:"session_id"`
	Mode         BackendKind      `json:"mode"`
	Backend      string           `json:"backend"`
	StartedAt    time.Time        `json:"started_at"`
	Duration     time.Duration    `json:"duration"`
	Documents    []DocumentResult `json:"documents"`
	Gaps         []Gap            `json:"gaps"`
	Failures     []FileFailure    `json:"failures,omitempty"`
	Undetermined []Undetermined   `json:"undetermined,omitempty"`
	Warnings     []Warning        `json:"warnings,omitempty"`
	Cancelled    bool             `json:"cancelled"`
}

// SortGaps orders gaps by Insight Score descending, then document, then page.
func SortGaps(gaps []Gap) {
	sort.SliceStable(gaps, func(i, j int) bool {
		a, b := gaps[i], gaps[j]
		if a.InsightScore != b.InsightScore {
			return a.InsightScore > b.InsightScore
		}
		if a.DocumentName != b.DocumentName {
			return a.DocumentName < b.DocumentName
		}
		return a.Page < b.Page
	})
}
