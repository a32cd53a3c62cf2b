package latex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"resumegen/internal/shared/telemetry"
)

const (
	sourceName = "resume.tex"
	outputName = "resume.pdf"
)

var (
	// ErrTimeout marks a compilation killed for exceeding the wall-clock budget.
	ErrTimeout = errors.New("latex: compilation timed out")

	// ErrOutputSize marks a missing, empty or oversized output file. Distinct
	// from SyntaxError so callers can tell invalid markup from a degenerate
	// or runaway document.
	ErrOutputSize = errors.New("latex: output size out of bounds")
)

// SyntaxError carries the toolchain's diagnostic output, already truncated
// to a bounded length.
type SyntaxError struct {
	Diagnostics string
}

func (e *SyntaxError) Error() string {
	return "latex: compilation failed: " + e.Diagnostics
}

// Job is one compilation unit: the generated source plus the identifier
// used for workspace and output naming.
type Job struct {
	ID        string
	Source    string
	CreatedAt time.Time
}

// Artifact is a compiled PDF.
type Artifact struct {
	Data      []byte
	MimeType  string
	SizeBytes int64
}

// Compiler runs the LaTeX toolchain in a sandboxed workspace: no network
// access for the subprocess, a wall-clock budget enforced by killing the
// process, and source passed as a file path so its contents never touch a
// shell.
type Compiler struct {
	command     string
	timeout     time.Duration
	maxPDFBytes int64
}

// NewCompiler constructs a Compiler. command is the toolchain binary
// (typically pdflatex); timeout is the wall-clock budget for one run
// including both passes.
func NewCompiler(command string, timeout time.Duration, maxPDFBytes int64) *Compiler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxPDFBytes <= 0 {
		maxPDFBytes = 5 << 20
	}
	return &Compiler{command: command, timeout: timeout, maxPDFBytes: maxPDFBytes}
}

// Compile writes the job source into the workspace, runs the toolchain up
// to twice (cross-references need a second pass; the second pass is skipped
// when the first already succeeded with a nonzero output), and reads back
// only the expected PDF. The caller owns the workspace lifecycle.
func (c *Compiler) Compile(ctx context.Context, ws *Workspace, job Job) (Artifact, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	srcPath := ws.Path(sourceName)
	if err := os.WriteFile(srcPath, []byte(job.Source), 0o600); err != nil {
		return Artifact{}, fmt.Errorf("write source: %w", err)
	}

	output, passErr := c.runPass(runCtx, ws)
	if passErr != nil || !outputUsable(ws) {
		output, passErr = c.runPass(runCtx, ws)
	}

	if runCtx.Err() != nil && ctx.Err() == nil {
		return Artifact{}, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	if passErr != nil {
		return Artifact{}, &SyntaxError{Diagnostics: collectDiagnostics(output, ws)}
	}

	info, err := os.Stat(ws.Path(outputName))
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: no output file produced", ErrOutputSize)
	}
	if info.Size() == 0 {
		return Artifact{}, fmt.Errorf("%w: output file is empty", ErrOutputSize)
	}
	if info.Size() > c.maxPDFBytes {
		return Artifact{}, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrOutputSize, info.Size(), c.maxPDFBytes)
	}

	data, err := os.ReadFile(ws.Path(outputName))
	if err != nil {
		return Artifact{}, fmt.Errorf("read output: %w", err)
	}

	if !HasTextLayer(data) {
		telemetry.Warn("latex.no_text_layer", map[string]any{"job_id": job.ID})
	}

	return Artifact{
		Data:      data,
		MimeType:  "application/pdf",
		SizeBytes: int64(len(data)),
	}, nil
}

// runPass executes one toolchain invocation inside the workspace. The
// source path is passed as an argument, never through a shell, and the TeX
// environment is pinned inside the workspace so nothing is read from or
// written to the invoking user's home.
func (c *Compiler) runPass(ctx context.Context, ws *Workspace) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.command,
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-file-line-error",
		"-no-shell-escape",
		sourceName,
	)
	cmd.Dir = ws.Dir()
	cmd.Env = []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + ws.Dir(),
		"TEXMFHOME=" + ws.Path(".texmf"),
		"TEXMFVAR=" + ws.Path(".texmf-var"),
		"TEXMFCONFIG=" + ws.Path(".texmf-config"),
	}
	cmd.WaitDelay = 2 * time.Second

	return cmd.CombinedOutput()
}

func outputUsable(ws *Workspace) bool {
	info, err := os.Stat(ws.Path(outputName))
	return err == nil && info.Size() > 0
}
