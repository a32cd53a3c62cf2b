package llm

import (
	"context"
	"errors"

	"resumegen/internal/profile"
)

// Client abstracts LLM providers for resume content generation. It returns
// the raw model text; callers extract and validate the LaTeX document.
type Client interface {
	GenerateResume(ctx context.Context, input GenerateInput) (string, error)
}

// GenerateInput captures everything a provider needs to build the prompt.
type GenerateInput struct {
	Profile        profile.CandidateProfile
	JobDescription string
	TemplateStyle  string
}

// ErrRateLimited marks a provider 429. Surfaced distinctly so callers can
// apply their own backoff on resubmission.
var ErrRateLimited = errors.New("llm: rate limited")

// ErrMalformedOutput marks a response with no recognizable LaTeX document.
var ErrMalformedOutput = errors.New("llm: malformed output")

type strictKey struct{}

// WithStrictPrompt returns a context signaling a corrective retry: providers
// prepend StrictSystemMessage so the model re-emits LaTeX only.
func WithStrictPrompt(ctx context.Context) context.Context {
	return context.WithValue(ctx, strictKey{}, true)
}

// StrictPromptFromContext reports whether the corrective system message
// should be included.
func StrictPromptFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(strictKey{}).(bool)
	return v
}
