package health

import (
	"context"
	"net/http"
	"os/exec"
	"time"

	"github.com/gin-gonic/gin"

	"resumegen/internal/shared/server/respond"
	"resumegen/internal/shared/storage/object"
	"resumegen/internal/shared/util"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
)

// Check is one dependency's health.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Report aggregates all dependency checks.
type Report struct {
	Status string  `json:"status"`
	Checks []Check `json:"checks"`
}

// Handler reports whether the pipeline's dependencies are usable: the
// content provider is configured, the LaTeX toolchain resolves, and the
// object store answers.
type Handler struct {
	latexCommand  string
	llmConfigured bool
	store         object.ObjectStore
}

// NewHandler constructs the health handler.
func NewHandler(latexCommand string, llmConfigured bool, store object.ObjectStore) *Handler {
	return &Handler{
		latexCommand:  latexCommand,
		llmConfigured: llmConfigured,
		store:         store,
	}
}

// RegisterRoutes mounts the health endpoint on the API group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/health", h.health)
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	report := Report{Status: statusOK}
	report.Checks = append(report.Checks,
		h.checkLLM(),
		h.checkLaTeX(),
		h.checkStore(ctx),
	)
	for _, check := range report.Checks {
		if check.Status != statusOK {
			report.Status = statusDegraded
			break
		}
	}

	if report.Status == statusDegraded {
		respond.JSON(c, http.StatusServiceUnavailable, report)
		return
	}
	respond.OK(c, report)
}

func (h *Handler) checkLLM() Check {
	if !h.llmConfigured {
		return Check{Name: "llm", Status: statusDegraded, Detail: "provider credentials missing"}
	}
	return Check{Name: "llm", Status: statusOK}
}

func (h *Handler) checkLaTeX() Check {
	if _, err := exec.LookPath(h.latexCommand); err != nil {
		return Check{Name: "latex", Status: statusDegraded, Detail: "toolchain not found: " + h.latexCommand}
	}
	return Check{Name: "latex", Status: statusOK}
}

func (h *Handler) checkStore(ctx context.Context) Check {
	if h.store == nil {
		return Check{Name: "storage", Status: statusDegraded, Detail: "store not configured"}
	}
	if _, err := h.store.List(ctx, "resumes/"); err != nil {
		return Check{Name: "storage", Status: statusDegraded, Detail: util.SanitizeError(err)}
	}
	return Check{Name: "storage", Status: statusOK}
}
