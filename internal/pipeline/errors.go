package pipeline

import (
	"errors"
	"fmt"
)

// Kind is the caller-facing failure category of a run.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindGenerationFailed  Kind = "generation_failed"
	KindCompilationFailed Kind = "compilation_failed"
	KindPublishFailed     Kind = "publish_failed"
	KindPipelineTimeout   Kind = "pipeline_timeout"
	KindInternal          Kind = "internal_error"
)

// Reasons qualify a Kind with the specific failure mode.
const (
	ReasonTimeout         = "timeout"
	ReasonRateLimited     = "rate_limited"
	ReasonMalformedOutput = "malformed_output"
	ReasonSyntaxError     = "syntax_error"
	ReasonOutputTooLarge  = "output_too_large"
	ReasonTransient       = "transient"
	ReasonMisconfigured   = "misconfigured"
)

// Stage names, reported in errors and telemetry.
const (
	StageValidating = "validating"
	StageGenerating = "generating"
	StageCompiling  = "compiling"
	StagePublishing = "publishing"
)

// Error is the single error type a run surfaces to callers. Message is
// already sanitized; the wrapped cause is for logs only and never leaves
// the process boundary.
type Error struct {
	Kind    Kind
	Reason  string
	Stage   string
	RunID   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s) at %s: %s", e.Kind, e.Reason, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Stage, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts a pipeline Error from an error chain.
func AsError(err error) (*Error, bool) {
	var pe *Error
	ok := errors.As(err, &pe)
	return pe, ok
}
