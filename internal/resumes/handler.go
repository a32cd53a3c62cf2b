package resumes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resumegen/internal/pipeline"
	"resumegen/internal/shared/server/respond"
)

// Generator runs one resume generation end to end.
type Generator interface {
	Generate(ctx context.Context, req pipeline.GenerationRequest) (pipeline.PublishedResult, error)
}

// Handler exposes the generation pipeline over HTTP.
type Handler struct {
	svc Generator
}

// NewHandler constructs the resumes handler.
func NewHandler(svc Generator) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the resume endpoints on the API group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/resumes", h.generate)
}

func (h *Handler) generate(c *gin.Context) {
	var req pipeline.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, string(pipeline.KindInvalidInput), "request body is not valid JSON", nil)
		return
	}

	result, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.Set("resumeId", result.ResumeID)
	respond.Created(c, result)
}

func (h *Handler) renderError(c *gin.Context, err error) {
	pe, ok := pipeline.AsError(err)
	if !ok {
		respond.Error(c, http.StatusInternalServerError, string(pipeline.KindInternal), "Unexpected server error", nil)
		return
	}

	details := gin.H{
		"step":      pe.Stage,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if pe.Reason != "" {
		details["reason"] = pe.Reason
	}
	if pe.RunID != "" {
		details["resume_id"] = pe.RunID
		c.Set("resumeId", pe.RunID)
	}

	respond.Error(c, statusFor(pe), string(pe.Kind), pe.Message, details)
}

// statusFor maps a pipeline failure to an HTTP status. Upstream faults
// surface as gateway errors; only invalid input is the caller's problem.
func statusFor(pe *pipeline.Error) int {
	switch pe.Kind {
	case pipeline.KindInvalidInput:
		return http.StatusBadRequest
	case pipeline.KindGenerationFailed:
		if pe.Reason == pipeline.ReasonRateLimited {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	case pipeline.KindCompilationFailed:
		return http.StatusBadGateway
	case pipeline.KindPublishFailed:
		if pe.Reason == pipeline.ReasonMisconfigured {
			return http.StatusInternalServerError
		}
		return http.StatusBadGateway
	case pipeline.KindPipelineTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
