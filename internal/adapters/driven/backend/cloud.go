package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gapfinder-cli/internal/logger"
)

// Ensure CloudBackend implements the interface.
var _ driven.GapBackend = (*CloudBackend)(nil)

// Default configuration values.
const (
	DefaultCloudContextLimit = 24000
	DefaultMaxInFlight       = 4
	DefaultMaxAttempts       = 3

	// maxRetryAfter caps a server-requested delay.
	maxRetryAfter = 60 * time.Second
)

// CloudConfig configures a CloudBackend.
type CloudConfig struct {
	LLM     driven.LLMService
	Prompts driven.PromptStore

	ContextLimit int

	// MaxInFlight bounds concurrent requests.
	MaxInFlight int

	// RequestsPerSecond limits the request rate. Zero or less disables it.
	RequestsPerSecond float64

	// MaxAttempts is the total number of tries per call.
	MaxAttempts int
}

// CloudBackend classifies candidates with a hosted model. Requests share a
// concurrency bound and a token bucket. Rate limits, server errors and
// network failures are retried with exponential backoff.
type CloudBackend struct {
	classifier
	contextLimit int
	maxAttempts  int
	inFlight     *semaphore.Weighted
	limiter      *rate.Limiter
	newBackOff   func() backoff.BackOff
}

// NewCloudBackend creates a cloud backend.
func NewCloudBackend(cfg CloudConfig) (*CloudBackend, error) {
	if cfg.LLM == nil {
		return nil, errors.New("cloud backend: LLM service is required")
	}
	if cfg.ContextLimit <= 0 {
		cfg.ContextLimit = DefaultCloudContextLimit
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &CloudBackend{
		classifier:   classifier{llm: cfg.LLM, prompts: cfg.Prompts},
		contextLimit: cfg.ContextLimit,
		maxAttempts:  cfg.MaxAttempts,
		inFlight:     semaphore.NewWeighted(int64(cfg.MaxInFlight)),
		limiter:      rate.NewLimiter(limit, 1),
		newBackOff:   newExponentialBackOff,
	}, nil
}

func newExponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Name returns "cloud/<model>".
func (b *CloudBackend) Name() string {
	return "cloud/" + b.llm.ModelName()
}

// Kind returns domain.BackendCloud.
func (b *CloudBackend) Kind() domain.BackendKind {
	return domain.BackendCloud
}

// ContextLimit returns the configured context size.
func (b *CloudBackend) ContextLimit() int {
	return b.contextLimit
}

// Available validates the API key with a single request. A rejected key
// is returned as *domain.AuthError.
func (b *CloudBackend) Available(ctx context.Context) error {
	err := b.llm.Ping(ctx)
	if err == nil {
		return nil
	}

	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	if errors.Is(err, domain.ErrAuthInvalid) {
		return &domain.AuthError{Backend: b.Name(), Err: err}
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrBackendUnavailable, b.Name(), err)
}

// Classify runs one classification, retrying retryable failures up to the
// configured number of attempts.
func (b *CloudBackend) Classify(ctx context.Context, req domain.ClassifyRequest) (*domain.Classification, error) {
	if err := b.inFlight.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.inFlight.Release(1)

	policy := &retryAfterBackOff{next: b.newBackOff()}
	attempts := 0

	operation := func() (*domain.Classification, error) {
		attempts++
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		cls, err := b.classify(ctx, req)
		if err == nil {
			return cls, nil
		}

		var retryable *domain.RetryableError
		if errors.As(err, &retryable) && ctx.Err() == nil {
			policy.hint = retryable.RetryAfter
			logger.Debug("%s: attempt %d failed: %v", b.Name(), attempts, err)
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(b.maxAttempts-1)), ctx)
	cls, err := backoff.RetryWithData(operation, bo)
	if err == nil {
		return cls, nil
	}

	var retryable *domain.RetryableError
	if errors.As(err, &retryable) {
		return nil, &domain.TransientBackendError{Backend: b.Name(), Attempts: attempts, Err: retryable.Err}
	}
	return nil, err
}

// Close releases the LLM service.
func (b *CloudBackend) Close() error {
	return b.llm.Close()
}

// retryAfterBackOff waits at least as long as the server asked for after
// a rate-limited attempt.
type retryAfterBackOff struct {
	next backoff.BackOff
	hint time.Duration
}

func (r *retryAfterBackOff) NextBackOff() time.Duration {
	d := r.next.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if hint := min(r.hint, maxRetryAfter); hint > d {
		d = hint
	}
	r.hint = 0
	return d
}

func (r *retryAfterBackOff) Reset() {
	r.next.Reset()
	r.hint = 0
}
