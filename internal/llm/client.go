package llm

import (
	"context"
	"errors"
)

var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrRequestFailed = errors.New("request failed")
	ErrEmptyResponse = errors.New("empty response")
	ErrRateLimit     = errors.New("rate limit exceeded")
)

// Client is the LLM capability consumed by the query planner. It may be
// slow, fail, or return malformed output; callers own the fallback.
type Client interface {
	CompleteWithSystem(ctx context.Context, system, prompt string) (string, error)
}
