// Package gemini provides an LLM service adapter for the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/llm"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultModel = "gemini-2.5-flash-lite"
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint. Empty uses the public endpoint.
	BaseURL string

	// Model is the model to use (default: gemini-2.5-flash-lite).
	Model string
}

// LLMService provides LLM operations using the Gemini API.
type LLMService struct {
	svc   *generativelanguage.Service
	model string
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &LLMService{svc: svc, model: cfg.Model}, nil
}

// Generate produces a completion. With opts.JSON the response MIME type is
// set to application/json.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role:  "user",
			Parts: []*generativelanguage.Part{{Text: prompt}},
		}},
		GenerationConfig: &generativelanguage.GenerationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: int64(opts.MaxTokens),
			StopSequences:   opts.StopWords,
			ForceSendFields: []string{"Temperature"},
		},
	}
	if opts.System != "" {
		req.SystemInstruction = &generativelanguage.Content{
			Parts: []*generativelanguage.Part{{Text: opts.System}},
		}
	}
	if opts.JSON {
		req.GenerationConfig.ResponseMimeType = "application/json"
	}

	resp, err := s.svc.Models.GenerateContent(s.modelPath(), req).Context(ctx).Do()
	if err != nil {
		return "", MapError(ctx, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		reason := "no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + resp.PromptFeedback.BlockReason
		}
		return "", fmt.Errorf("gemini: %s", reason)
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	return out.String(), nil
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by fetching the model description.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.svc.Models.Get(s.modelPath()).Context(ctx).Do(); err != nil {
		return MapError(ctx, err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

func (s *LLMService) modelPath() string {
	if strings.HasPrefix(s.model, "models/") {
		return s.model
	}
	return "models/" + s.model
}

// MapError converts Google API errors into domain errors. Gemini reports an
// invalid key as 400 INVALID_ARGUMENT, which is treated as 401.
func MapError(ctx context.Context, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return llm.TransportError(ctx, "gemini", err)
	}

	status := gerr.Code
	body := gerr.Body
	if body == "" {
		body = gerr.Message
	}
	if status == http.StatusBadRequest && isInvalidKey(gerr) {
		status = http.StatusUnauthorized
	}
	return llm.StatusError("gemini", status, gerr.Header, body)
}

func isInvalidKey(gerr *googleapi.Error) bool {
	if strings.Contains(gerr.Body, "API_KEY_INVALID") || strings.Contains(gerr.Message, "API key not valid") {
		return true
	}
	for _, item := range gerr.Errors {
		if item.Reason == "API_KEY_INVALID" || item.Reason == "keyInvalid" {
			return true
		}
	}
	return false
}
