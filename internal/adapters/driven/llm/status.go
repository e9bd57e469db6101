// Package llm holds what the model API adapters share: mapping HTTP and
// transport failures onto domain errors so that backends can decide what
// to retry.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// maxBodyInError bounds the response body quoted in an error.
const maxBodyInError = 500

var retryHint = regexp.MustCompile(`(?i)retry(?:\s+in|delay"?\s*:\s*"?)\s*(\d+(?:\.\d+)?)\s*s`)

// StatusError maps an unsuccessful HTTP status onto the domain error types.
// 401 and 403 are authentication failures, 429 is a rate limit carrying
// the server's retry delay, 408 and 5xx are transient. Everything else is
// returned as a plain error and is not retried.
func StatusError(provider string, status int, header http.Header, body string) error {
	body = strings.TrimSpace(body)
	if len(body) > maxBodyInError {
		cut := maxBodyInError
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	err := fmt.Errorf("%s error (status %d): %s", provider, status, body)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &domain.AuthError{Backend: provider, Err: err}
	case status == http.StatusTooManyRequests:
		return &domain.RetryableError{
			Err:        fmt.Errorf("%w: %w", domain.ErrRateLimited, err),
			RetryAfter: RetryAfter(header, body),
		}
	case status == http.StatusRequestTimeout || status >= http.StatusInternalServerError:
		return &domain.RetryableError{Err: fmt.Errorf("%w: %w", domain.ErrTransientBackend, err)}
	default:
		return err
	}
}

// TransportError wraps a failure to reach the API. It is retryable unless
// the caller's context has ended.
func TransportError(ctx context.Context, provider string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", provider, err)
	}
	return &domain.RetryableError{Err: fmt.Errorf("%s: %w: %w", provider, domain.ErrTransientBackend, err)}
}

// RetryAfter reads the server's requested delay from the Retry-After header
// or from a "retry in 12s" / "retryDelay": "12s" hint in the body.
func RetryAfter(header http.Header, body string) time.Duration {
	if header != nil {
		if v := strings.TrimSpace(header.Get("Retry-After")); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
				return time.Duration(secs) * time.Second
			}
			if at, err := http.ParseTime(v); err == nil {
				if d := time.Until(at); d > 0 {
					return d
				}
			}
		}
	}
	if m := retryHint.FindStringSubmatch(body); m != nil {
		if secs, err := strconv.ParseFloat(m[1], 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return 0
}
