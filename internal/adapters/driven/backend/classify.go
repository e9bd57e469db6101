package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// Generation parameters shared by both backends.
const (
	classifyTemperature = 0.1
	classifyMaxTokens   = 512
)

// noContext is sent in place of an empty context window.
const noContext = "(none)"

// errEmptyDescription is returned when the model reports a gap it does not describe.
var errEmptyDescription = errors.New("gap reported without description")

// classification is the JSON schema the model answers with. Both field
// spellings seen in practice are accepted.
type classification struct {
	GapFound    *bool    `json:"gap_found"`
	Found       *bool    `json:"found"`
	GapType     string   `json:"gap_type"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Evidence    string   `json:"evidence"`
	Suggestion  string   `json:"suggestion"`
	Confidence  *float64 `json:"confidence"`
}

// ParseClassification decodes a model answer. Markdown fences and text
// around the JSON are ignored. An array answer uses its first element and
// an empty array means no gap.
func ParseClassification(raw string) (*domain.Classification, error) {
	body, isArray, err := extractJSON(raw)
	if err != nil {
		return nil, &domain.ParseError{Raw: raw, Err: err}
	}

	var c classification
	if isArray {
		var items []classification
		if err := json.Unmarshal([]byte(body), &items); err != nil {
			return nil, &domain.ParseError{Raw: raw, Err: err}
		}
		if len(items) == 0 {
			return &domain.Classification{Raw: raw}, nil
		}
		c = items[0]
	} else if err := json.Unmarshal([]byte(body), &c); err != nil {
		return nil, &domain.ParseError{Raw: raw, Err: err}
	}

	found := c.GapFound
	if found == nil {
		found = c.Found
	}
	if found == nil {
		return nil, &domain.ParseError{Raw: raw, Err: errors.New("missing gap_found")}
	}
	if !*found {
		return &domain.Classification{Raw: raw}, nil
	}

	description := strings.TrimSpace(c.Description)
	if description == "" {
		return nil, &domain.ParseError{Raw: raw, Err: errEmptyDescription}
	}

	label := c.GapType
	if label == "" {
		label = c.Type
	}

	out := &domain.Classification{
		Found:       true,
		Type:        domain.ParseGapType(label),
		Description: description,
		Evidence:    strings.TrimSpace(c.Evidence),
		Suggestion:  strings.TrimSpace(c.Suggestion),
		Raw:         raw,
	}
	if c.Confidence != nil {
		conf := min(1, max(0, *c.Confidence))
		out.Confidence = &conf
	}
	return out, nil
}

// extractJSON returns the outermost JSON object or array in s.
func extractJSON(s string) (string, bool, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	obj := strings.IndexByte(s, '{')
	arr := strings.IndexByte(s, '[')

	switch {
	case arr >= 0 && (obj < 0 || arr < obj):
		end := strings.LastIndexByte(s, ']')
		if end < arr {
			return "", false, errors.New("unterminated JSON array")
		}
		return s[arr : end+1], true, nil
	case obj >= 0:
		end := strings.LastIndexByte(s, '}')
		if end < obj {
			return "", false, errors.New("unterminated JSON object")
		}
		return s[obj : end+1], false, nil
	default:
		return "", false, errors.New("no JSON in model output")
	}
}

// classifier renders prompts and parses answers for one LLM service.
type classifier struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

func (c *classifier) prompt(name string) string {
	if c.prompts != nil {
		if p, err := c.prompts.Load(name); err == nil && p != "" {
			return p
		}
	}
	p, _ := file.DefaultPrompt(name)
	return p
}

// render builds the system instruction and the user prompt for a request.
func (c *classifier) render(req domain.ClassifyRequest) (string, string) {
	title := req.DocumentTitle
	if title == "" {
		title = "(untitled)"
	}
	ctxText := strings.TrimSpace(req.ContextText)
	if ctxText == "" {
		ctxText = noContext
	}
	user := fmt.Sprintf(c.prompt(driven.PromptClassify), title, req.Candidate.Chunk.Text, ctxText)
	return c.prompt(driven.PromptClassifySystem), user
}

// classify performs one generation and parses the answer. Provider errors
// are returned unchanged.
func (c *classifier) classify(ctx context.Context, req domain.ClassifyRequest) (*domain.Classification, error) {
	system, user := c.render(req)
	raw, err := c.llm.Generate(ctx, user, driven.GenerateOptions{
		System:      system,
		MaxTokens:   classifyMaxTokens,
		Temperature: classifyTemperature,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}
	return ParseClassification(raw)
}
