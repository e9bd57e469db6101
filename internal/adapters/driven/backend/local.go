package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gapfinder-cli/internal/logger"
)

// Ensure LocalBackend implements the interface.
var _ driven.GapBackend = (*LocalBackend)(nil)

// DefaultLocalContextLimit is used when no context size is configured.
const DefaultLocalContextLimit = 6000

// LocalConfig configures a LocalBackend.
type LocalConfig struct {
	LLM     driven.LLMService
	Prompts driven.PromptStore
	Probe   driven.AcceleratorProbe

	// RequireAccelerator makes Available fail when Probe finds no GPU.
	RequireAccelerator bool

	ContextLimit int
}

// LocalBackend classifies candidates with a model served on this machine.
type LocalBackend struct {
	classifier
	probe              driven.AcceleratorProbe
	requireAccelerator bool
	contextLimit       int

	probeOnce   sync.Once
	accelerator string
	probeErr    error
}

// NewLocalBackend creates a local backend.
func NewLocalBackend(cfg LocalConfig) (*LocalBackend, error) {
	if cfg.LLM == nil {
		return nil, errors.New("local backend: LLM service is required")
	}
	if cfg.Probe == nil {
		cfg.Probe = NewHostProbe()
	}
	if cfg.ContextLimit <= 0 {
		cfg.ContextLimit = DefaultLocalContextLimit
	}
	return &LocalBackend{
		classifier:         classifier{llm: cfg.LLM, prompts: cfg.Prompts},
		probe:              cfg.Probe,
		requireAccelerator: cfg.RequireAccelerator,
		contextLimit:       cfg.ContextLimit,
	}, nil
}

// Name returns "local/<model>".
func (b *LocalBackend) Name() string {
	return "local/" + b.llm.ModelName()
}

// Kind returns domain.BackendLocal.
func (b *LocalBackend) Kind() domain.BackendKind {
	return domain.BackendLocal
}

// ContextLimit returns the configured context size.
func (b *LocalBackend) ContextLimit() int {
	return b.contextLimit
}

// Accelerator probes the machine once and returns the detected device.
func (b *LocalBackend) Accelerator(ctx context.Context) (string, error) {
	b.probeOnce.Do(func() {
		b.accelerator, b.probeErr = b.probe.Detect(ctx)
		if b.probeErr == nil {
			logger.Info("Accelerator detected: %s", b.accelerator)
		}
	})
	return b.accelerator, b.probeErr
}

// Available checks for an accelerator (when required) and that the model
// server answers with the configured model installed.
func (b *LocalBackend) Available(ctx context.Context) error {
	if b.requireAccelerator {
		if _, err := b.Accelerator(ctx); err != nil {
			return err
		}
	} else if _, err := b.Accelerator(ctx); err != nil {
		logger.Warn("Running local model without an accelerator: %v", err)
	}

	if err := b.llm.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrBackendUnavailable, b.Name(), err)
	}
	return nil
}

// Classify runs one classification on the local model. A failed call is
// reported as *domain.TransientBackendError; the local server is not retried.
func (b *LocalBackend) Classify(ctx context.Context, req domain.ClassifyRequest) (*domain.Classification, error) {
	cls, err := b.classify(ctx, req)
	if err == nil {
		return cls, nil
	}

	var parseErr *domain.ParseError
	switch {
	case errors.As(err, &parseErr):
		return nil, err
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, &domain.TransientBackendError{Backend: b.Name(), Attempts: 1, Err: err}
	}
}

// Close releases the LLM service.
func (b *LocalBackend) Close() error {
	return b.llm.Close()
}
