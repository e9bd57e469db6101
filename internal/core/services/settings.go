package services

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driving"
	"github.com/custodia-labs/gapfinder-cli/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyMode           = "mode"
	keyFallback       = "fallback"
	keyKeywordsPrefix = "keywords."

	// fallbackNone disables the fallback backend.
	fallbackNone = "none"
)

// ErrSecretKey is returned when a caller tries to persist a credential.
var ErrSecretKey = errors.New("API keys are never stored; pass --api-key or set GAPFINDER_API_KEY")

// settingFields maps each config key to the Settings field it controls.
// The pointer type decides how the stored value is parsed.
var settingFields = map[string]func(*domain.Settings) any{
	keyMode:     func(s *domain.Settings) any { return &s.Mode },
	keyFallback: func(s *domain.Settings) any { return &s.Fallback },

	"chunking.size":      func(s *domain.Settings) any { return &s.Chunking.Size },
	"chunking.overlap":   func(s *domain.Settings) any { return &s.Chunking.Overlap },
	"chunking.tolerance": func(s *domain.Settings) any { return &s.Chunking.Tolerance },

	"embedding.provider":   func(s *domain.Settings) any { return &s.Embedding.Provider },
	"embedding.model":      func(s *domain.Settings) any { return &s.Embedding.Model },
	"embedding.base_url":   func(s *domain.Settings) any { return &s.Embedding.BaseURL },
	"embedding.batch_size": func(s *domain.Settings) any { return &s.Embedding.BatchSize },

	"local.model":               func(s *domain.Settings) any { return &s.Local.Model },
	"local.base_url":            func(s *domain.Settings) any { return &s.Local.BaseURL },
	"local.context_chars":       func(s *domain.Settings) any { return &s.Local.ContextChars },
	"local.require_accelerator": func(s *domain.Settings) any { return &s.Local.RequireAccelerator },

	"cloud.provider":            func(s *domain.Settings) any { return &s.Cloud.Provider },
	"cloud.model":               func(s *domain.Settings) any { return &s.Cloud.Model },
	"cloud.base_url":            func(s *domain.Settings) any { return &s.Cloud.BaseURL },
	"cloud.context_chars":       func(s *domain.Settings) any { return &s.Cloud.ContextChars },
	"cloud.max_in_flight":       func(s *domain.Settings) any { return &s.Cloud.MaxInFlight },
	"cloud.requests_per_second": func(s *domain.Settings) any { return &s.Cloud.RequestsPerSecond },
	"cloud.max_attempts":        func(s *domain.Settings) any { return &s.Cloud.MaxAttempts },

	"analysis.top_k":             func(s *domain.Settings) any { return &s.Analysis.TopK },
	"analysis.max_candidates":    func(s *domain.Settings) any { return &s.Analysis.MaxCandidates },
	"analysis.min_similarity":    func(s *domain.Settings) any { return &s.Analysis.MinSimilarity },
	"analysis.context_neighbors": func(s *domain.Settings) any { return &s.Analysis.ContextNeighbors },
	"analysis.max_probe_queries": func(s *domain.Settings) any { return &s.Analysis.MaxProbeQueries },
	"analysis.workers":           func(s *domain.Settings) any { return &s.Analysis.Workers },
	"analysis.timeout":           func(s *domain.Settings) any { return &s.Analysis.CallTimeout },

	"scoring.trigger_weight":     func(s *domain.Settings) any { return &s.Scoring.TriggerWeight },
	"scoring.backend_weight":     func(s *domain.Settings) any { return &s.Scoring.BackendWeight },
	"scoring.default_confidence": func(s *domain.Settings) any { return &s.Scoring.DefaultConfidence },
	"scoring.dedupe_threshold":   func(s *domain.Settings) any { return &s.Scoring.DedupeThreshold },
}

// SettingsService manages application settings stored as flat dotted keys.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns the defaults overlaid with every valid stored value.
// Invalid stored values are ignored with a warning.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	for key, field := range settingFields {
		raw, exists := s.configStore.Get(key)
		if !exists {
			continue
		}
		if err := s.load(key, field(&settings)); err != nil {
			logger.Warn("Ignoring config %s=%v: %v", key, raw, err)
		}
	}

	for _, key := range s.configStore.Keys() {
		lang, ok := strings.CutPrefix(key, keyKeywordsPrefix)
		if !ok || lang == "" {
			continue
		}
		if terms := s.configStore.GetStringSlice(key); len(terms) > 0 {
			settings.Keywords[lang] = terms
		}
	}

	return &settings, nil
}

// load reads one stored value into the field pointer.
func (s *SettingsService) load(key string, ptr any) error {
	switch p := ptr.(type) {
	case *string:
		*p = s.configStore.GetString(key)
	case *int:
		*p = s.configStore.GetInt(key)
	case *float64:
		*p = s.configStore.GetFloat(key)
	case *bool:
		*p = s.configStore.GetBool(key)
	default:
		return parseInto(ptr, s.configStore.GetString(key))
	}
	return nil
}

// Set parses value for key, checks the resulting settings and persists it.
func (s *SettingsService) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	if domain.IsCredentialKey(key) {
		return fmt.Errorf("%w: %s", ErrSecretKey, key)
	}

	if lang, ok := strings.CutPrefix(key, keyKeywordsPrefix); ok && lang != "" {
		terms := splitList(value)
		if len(terms) == 0 {
			return fmt.Errorf("%w: %s needs at least one term", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, terms)
	}

	field, ok := settingFields[key]
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	ptr := field(settings)
	if err := parseInto(ptr, value); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if err := validateSettings(settings); err != nil {
		return err
	}

	return s.configStore.Set(key, storedValue(ptr))
}

// parseInto parses a textual value into the field pointer.
func parseInto(ptr any, value string) error {
	switch p := ptr.(type) {
	case *string:
		*p = value
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*p = n
	case *float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		*p = f
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*p = b
	case *time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*p = d
	case *domain.BackendKind:
		if value == "" || value == fallbackNone {
			*p = ""
			return nil
		}
		kind := domain.BackendKind(value)
		if !kind.IsValid() {
			return fmt.Errorf("invalid backend %q (want local or cloud)", value)
		}
		*p = kind
	case *domain.AIProvider:
		provider := domain.AIProvider(value)
		if !provider.IsValid() {
			return fmt.Errorf("invalid provider %q", value)
		}
		*p = provider
	default:
		return fmt.Errorf("unsupported setting type %T", ptr)
	}
	return nil
}

// storedValue converts a field to the value written to the config file.
func storedValue(ptr any) any {
	switch p := ptr.(type) {
	case *string:
		return *p
	case *int:
		return *p
	case *float64:
		return *p
	case *bool:
		return *p
	case *time.Duration:
		return p.String()
	case *domain.BackendKind:
		return p.String()
	case *domain.AIProvider:
		return p.String()
	default:
		return fmt.Sprint(ptr)
	}
}

// Values returns the effective value of every known key for display.
func (s *SettingsService) Values() map[string]string {
	settings, err := s.Get()
	if err != nil {
		return nil
	}

	values := make(map[string]string, len(settingFields)+len(settings.Keywords))
	for key, field := range settingFields {
		values[key] = fmt.Sprint(storedValue(field(settings)))
	}
	if values[keyFallback] == "" {
		values[keyFallback] = fallbackNone
	}

	langs := make([]string, 0, len(settings.Keywords))
	for lang := range settings.Keywords {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		values[keyKeywordsPrefix+lang] = strings.Join(settings.Keywords[lang], ", ")
	}
	return values
}

// SetMode updates the primary backend kind.
func (s *SettingsService) SetMode(mode domain.BackendKind) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: invalid mode %q", domain.ErrInvalidInput, mode)
	}
	return s.Set(keyMode, mode.String())
}

// Validate checks that the current settings are coherent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return validateSettings(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ConfigPath returns the configuration file location.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

func validateSettings(s *domain.Settings) error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(s.Mode.IsValid(), "mode %q must be local or cloud", s.Mode)
	check(s.Fallback == "" || s.Fallback.IsValid(), "fallback %q must be local, cloud or none", s.Fallback)
	check(s.Fallback == "" || s.Fallback != s.Mode, "fallback must differ from mode %q", s.Mode)

	check(s.Chunking.Size > 0, "chunking.size must be positive")
	check(s.Chunking.Overlap >= 0 && s.Chunking.Overlap < s.Chunking.Size,
		"chunking.overlap must be in [0, chunking.size)")
	check(s.Chunking.Tolerance >= 0, "chunking.tolerance must not be negative")

	embedOK := false
	for _, p := range domain.AllEmbeddingProviders() {
		embedOK = embedOK || p == s.Embedding.Provider
	}
	check(embedOK, "embedding.provider %q does not support embeddings", s.Embedding.Provider)
	check(s.Embedding.BatchSize > 0, "embedding.batch_size must be positive")

	check(s.Cloud.Provider.IsValid() && !s.Cloud.Provider.IsLocal(),
		"cloud.provider %q is not a cloud provider", s.Cloud.Provider)
	check(s.Cloud.MaxInFlight > 0, "cloud.max_in_flight must be positive")
	check(s.Cloud.MaxAttempts > 0, "cloud.max_attempts must be positive")
	check(s.Cloud.RequestsPerSecond >= 0, "cloud.requests_per_second must not be negative")
	check(s.Local.ContextChars > 0 && s.Cloud.ContextChars > 0, "context_chars must be positive")

	check(s.Analysis.TopK > 0, "analysis.top_k must be positive")
	check(s.Analysis.MaxCandidates > 0, "analysis.max_candidates must be positive")
	check(s.Analysis.MinSimilarity >= -1 && s.Analysis.MinSimilarity <= 1, "analysis.min_similarity must be in [-1, 1]")
	check(s.Analysis.ContextNeighbors >= 0, "analysis.context_neighbors must not be negative")
	check(s.Analysis.Workers > 0, "analysis.workers must be positive")
	check(s.Analysis.CallTimeout > 0, "analysis.timeout must be positive")

	check(s.Scoring.TriggerWeight >= 0 && s.Scoring.BackendWeight >= 0 &&
		s.Scoring.TriggerWeight+s.Scoring.BackendWeight > 0, "scoring weights must be non-negative and not both zero")
	check(s.Scoring.DefaultConfidence >= 0 && s.Scoring.DefaultConfidence <= 1,
		"scoring.default_confidence must be in [0, 1]")
	check(s.Scoring.DedupeThreshold > 0 && s.Scoring.DedupeThreshold <= 1,
		"scoring.dedupe_threshold must be in (0, 1]")

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
}

// splitList splits a comma-separated list and drops empty items.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
