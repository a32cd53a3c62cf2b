package resumes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resumegen/internal/pipeline"
	"resumegen/internal/shared/server/respond"
)

type stubService struct {
	result pipeline.PublishedResult
	err    error
	calls  int
}

func (s *stubService) Generate(ctx context.Context, req pipeline.GenerationRequest) (pipeline.PublishedResult, error) {
	s.calls++
	return s.result, s.err
}

func newTestRouter(svc Generator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return router
}

func validBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"profile": map[string]any{
			"personal_info": map[string]any{
				"name":  "Ada Lovelace",
				"email": "ada@example.com",
			},
			"summary": "Analytical engine programmer.",
		},
		"job_description": "Software engineer role.",
		"template_style":  "modern",
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func postResume(t *testing.T, router *gin.Engine, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestGenerateReturnsPublishedResult(t *testing.T) {
	generatedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	svc := &stubService{result: pipeline.PublishedResult{
		PDFURL:      "https://store.test/resumes/run-1.pdf",
		ResumeID:    "run-1",
		GeneratedAt: generatedAt,
		ExpiresAt:   generatedAt.Add(24 * time.Hour),
	}}
	router := newTestRouter(svc)

	resp := postResume(t, router, validBody(t))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["pdf_url"] != "https://store.test/resumes/run-1.pdf" {
		t.Fatalf("pdf_url = %v", payload["pdf_url"])
	}
	if payload["resume_id"] != "run-1" {
		t.Fatalf("resume_id = %v", payload["resume_id"])
	}
	if payload["generated_at"] == nil || payload["expires_at"] == nil {
		t.Fatal("missing timestamps")
	}
}

func TestGenerateRejectsMalformedJSON(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	resp := postResume(t, router, []byte("{not json"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if svc.calls != 0 {
		t.Fatal("pipeline invoked for malformed JSON")
	}
}

func TestGenerateMapsPipelineErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *pipeline.Error
		wantStatus int
	}{
		{
			name:       "invalid input",
			err:        &pipeline.Error{Kind: pipeline.KindInvalidInput, Stage: pipeline.StageValidating, Message: "invalid input"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "generation rate limited",
			err:        &pipeline.Error{Kind: pipeline.KindGenerationFailed, Reason: pipeline.ReasonRateLimited, Stage: pipeline.StageGenerating, Message: "rate limited"},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "generation malformed output",
			err:        &pipeline.Error{Kind: pipeline.KindGenerationFailed, Reason: pipeline.ReasonMalformedOutput, Stage: pipeline.StageGenerating, Message: "malformed output"},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "compilation syntax error",
			err:        &pipeline.Error{Kind: pipeline.KindCompilationFailed, Reason: pipeline.ReasonSyntaxError, Stage: pipeline.StageCompiling, RunID: "run-9", Message: "! Undefined control sequence."},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "publish misconfigured",
			err:        &pipeline.Error{Kind: pipeline.KindPublishFailed, Reason: pipeline.ReasonMisconfigured, Stage: pipeline.StagePublishing, Message: "store misconfigured"},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "publish transient",
			err:        &pipeline.Error{Kind: pipeline.KindPublishFailed, Reason: pipeline.ReasonTransient, Stage: pipeline.StagePublishing, Message: "upload failed"},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "pipeline timeout",
			err:        &pipeline.Error{Kind: pipeline.KindPipelineTimeout, Stage: pipeline.StageGenerating, Message: "run exceeded deadline"},
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubService{err: tt.err})

			resp := postResume(t, router, validBody(t))
			if resp.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.Code, tt.wantStatus)
			}

			var payload respond.ErrorResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if payload.Error.Code != string(tt.err.Kind) {
				t.Fatalf("code = %q, want %q", payload.Error.Code, tt.err.Kind)
			}
			details, ok := payload.Error.Details.(map[string]any)
			if !ok {
				t.Fatalf("details missing: %v", payload.Error.Details)
			}
			if details["step"] != tt.err.Stage {
				t.Fatalf("step = %v, want %q", details["step"], tt.err.Stage)
			}
			if details["timestamp"] == nil {
				t.Fatal("details missing timestamp")
			}
		})
	}
}

func TestGenerateErrorDetailsIncludeRunID(t *testing.T) {
	router := newTestRouter(&stubService{err: &pipeline.Error{
		Kind:    pipeline.KindCompilationFailed,
		Reason:  pipeline.ReasonSyntaxError,
		Stage:   pipeline.StageCompiling,
		RunID:   "run-9",
		Message: "! Undefined control sequence.",
	}})

	resp := postResume(t, router, validBody(t))
	var payload respond.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	details := payload.Error.Details.(map[string]any)
	if details["resume_id"] != "run-9" {
		t.Fatalf("resume_id = %v, want run-9", details["resume_id"])
	}
	if details["reason"] != pipeline.ReasonSyntaxError {
		t.Fatalf("reason = %v", details["reason"])
	}
}
