package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"resumegen/internal/latex"
	"resumegen/internal/llm"
	"resumegen/internal/profile"
	"resumegen/internal/publish"
	"resumegen/internal/shared/storage/object"
	"resumegen/internal/shared/telemetry"
	"resumegen/internal/shared/util"
)

// ContentGenerator produces compilable LaTeX source from a profile and
// job description.
type ContentGenerator interface {
	Generate(ctx context.Context, input llm.GenerateInput) (string, error)
}

// DocumentCompiler turns LaTeX source into a PDF artifact inside a
// caller-owned workspace.
type DocumentCompiler interface {
	Compile(ctx context.Context, ws *latex.Workspace, job latex.Job) (latex.Artifact, error)
}

// ArtifactPublisher uploads a compiled artifact and returns a time-limited
// download URL.
type ArtifactPublisher interface {
	Publish(ctx context.Context, id string, artifact latex.Artifact, generatedAt time.Time) (publish.PublishedArtifact, error)
}

// GenerationRequest is one resume generation run's input.
type GenerationRequest struct {
	Profile        profile.CandidateProfile `json:"profile"`
	JobDescription string                   `json:"job_description"`
	TemplateStyle  string                   `json:"template_style"`
}

// PublishedResult is the outcome of a completed run.
type PublishedResult struct {
	PDFURL      string    `json:"pdf_url"`
	ResumeID    string    `json:"resume_id"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Options tunes a Service.
type Options struct {
	// Deadline bounds one run end to end, all stages included.
	Deadline time.Duration
	// MaxJobDescription bounds the job description length in characters.
	MaxJobDescription int
	// WorkspaceRoot is where per-run compilation directories are created.
	// Empty means the system temp directory.
	WorkspaceRoot string
}

// Service drives one run through its stages in order: validating,
// generating, compiling, publishing. Each run is independent; the service
// holds no per-run state and is safe for concurrent use.
type Service struct {
	generator ContentGenerator
	compiler  DocumentCompiler
	publisher ArtifactPublisher
	opts      Options
}

// NewService constructs the pipeline service.
func NewService(generator ContentGenerator, compiler DocumentCompiler, publisher ArtifactPublisher, opts Options) *Service {
	if opts.Deadline <= 0 {
		opts.Deadline = 30 * time.Second
	}
	if opts.MaxJobDescription <= 0 {
		opts.MaxJobDescription = 5000
	}
	return &Service{
		generator: generator,
		compiler:  compiler,
		publisher: publisher,
		opts:      opts,
	}
}

// Generate runs the full pipeline for one request. The first failing stage
// aborts the run; later stages never start. All errors surface as *Error.
func (s *Service) Generate(ctx context.Context, req GenerationRequest) (PublishedResult, error) {
	id := uuid.NewString()
	started := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, s.opts.Deadline)
	defer cancel()

	logStage(id, StageValidating)
	if err := profile.Validate(req.Profile, req.JobDescription, s.opts.MaxJobDescription); err != nil {
		return PublishedResult{}, s.fail(id, started, &Error{
			Kind:    KindInvalidInput,
			Stage:   StageValidating,
			RunID:   id,
			Message: err.Error(),
			Err:     err,
		})
	}

	logStage(id, StageGenerating)
	source, err := s.generator.Generate(runCtx, llm.GenerateInput{
		Profile:        req.Profile,
		JobDescription: req.JobDescription,
		TemplateStyle:  profile.NormalizeStyle(req.TemplateStyle),
	})
	if err != nil {
		return PublishedResult{}, s.fail(id, started, s.mapGenerationError(runCtx, ctx, id, err))
	}

	logStage(id, StageCompiling)
	ws, err := latex.AcquireWorkspace(s.opts.WorkspaceRoot, id)
	if err != nil {
		return PublishedResult{}, s.fail(id, started, &Error{
			Kind:    KindInternal,
			Stage:   StageCompiling,
			RunID:   id,
			Message: util.SanitizeError(err),
			Err:     err,
		})
	}
	defer ws.Release()

	artifact, err := s.compiler.Compile(runCtx, ws, latex.Job{
		ID:        id,
		Source:    source,
		CreatedAt: started.UTC(),
	})
	if err != nil {
		return PublishedResult{}, s.fail(id, started, s.mapCompilationError(runCtx, ctx, id, err))
	}
	// The artifact is in memory; the workspace has nothing left to hold.
	ws.Release()

	logStage(id, StagePublishing)
	generatedAt := time.Now().UTC()
	published, err := s.publisher.Publish(runCtx, id, artifact, generatedAt)
	if err != nil {
		return PublishedResult{}, s.fail(id, started, s.mapPublishError(runCtx, ctx, id, err))
	}

	telemetry.Info("pipeline.completed", map[string]any{
		"run_id":      id,
		"duration_ms": time.Since(started).Milliseconds(),
		"size_bytes":  published.SizeBytes,
	})

	return PublishedResult{
		PDFURL:      published.URL,
		ResumeID:    id,
		GeneratedAt: generatedAt,
		ExpiresAt:   published.ExpiresAt,
	}, nil
}

func (s *Service) fail(id string, started time.Time, pe *Error) *Error {
	telemetry.Error("pipeline.failed", map[string]any{
		"run_id":      id,
		"stage":       pe.Stage,
		"kind":        string(pe.Kind),
		"reason":      pe.Reason,
		"duration_ms": time.Since(started).Milliseconds(),
		"error":       pe.Message,
	})
	return pe
}

func (s *Service) mapGenerationError(runCtx, ctx context.Context, id string, err error) *Error {
	if pe := s.deadlineError(runCtx, ctx, id, StageGenerating, err); pe != nil {
		return pe
	}

	pe := &Error{
		Kind:    KindGenerationFailed,
		Stage:   StageGenerating,
		RunID:   id,
		Message: util.SanitizeError(err),
		Err:     err,
	}
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		pe.Reason = ReasonRateLimited
	case errors.Is(err, llm.ErrMalformedOutput):
		pe.Reason = ReasonMalformedOutput
	case errors.Is(err, context.DeadlineExceeded):
		pe.Reason = ReasonTimeout
	default:
		pe.Reason = ReasonTransient
	}
	return pe
}

func (s *Service) mapCompilationError(runCtx, ctx context.Context, id string, err error) *Error {
	if pe := s.deadlineError(runCtx, ctx, id, StageCompiling, err); pe != nil {
		return pe
	}

	pe := &Error{
		Kind:    KindCompilationFailed,
		Stage:   StageCompiling,
		RunID:   id,
		Message: util.SanitizeError(err),
		Err:     err,
	}
	var synErr *latex.SyntaxError
	switch {
	case errors.Is(err, latex.ErrTimeout):
		pe.Reason = ReasonTimeout
	case errors.Is(err, latex.ErrOutputSize):
		pe.Reason = ReasonOutputTooLarge
	case errors.As(err, &synErr):
		pe.Reason = ReasonSyntaxError
		pe.Message = util.SanitizeMessage(synErr.Diagnostics, 2000)
	default:
		pe.Kind = KindInternal
	}
	return pe
}

func (s *Service) mapPublishError(runCtx, ctx context.Context, id string, err error) *Error {
	if pe := s.deadlineError(runCtx, ctx, id, StagePublishing, err); pe != nil {
		return pe
	}

	pe := &Error{
		Kind:    KindPublishFailed,
		Stage:   StagePublishing,
		RunID:   id,
		Message: util.SanitizeError(err),
		Err:     err,
	}
	if object.IsConfig(err) {
		pe.Reason = ReasonMisconfigured
	} else {
		pe.Reason = ReasonTransient
	}
	return pe
}

// deadlineError reports the overall run deadline being hit, regardless of
// which stage the error bubbled up from. A cancellation that came from the
// caller is reported as such, not as a timeout.
func (s *Service) deadlineError(runCtx, ctx context.Context, id, stage string, err error) *Error {
	if runCtx.Err() == nil {
		return nil
	}
	if ctx.Err() != nil {
		return &Error{
			Kind:    KindInternal,
			Stage:   stage,
			RunID:   id,
			Message: "request canceled",
			Err:     err,
		}
	}
	return &Error{
		Kind:    KindPipelineTimeout,
		Stage:   stage,
		RunID:   id,
		Message: "run exceeded the overall deadline of " + s.opts.Deadline.String(),
		Err:     err,
	}
}

func logStage(id, stage string) {
	telemetry.Info("pipeline.stage", map[string]any{"run_id": id, "stage": stage})
}
