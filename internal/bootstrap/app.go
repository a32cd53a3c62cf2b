package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resumegen/internal/latex"
	"resumegen/internal/llm"
	"resumegen/internal/llm/gemini"
	"resumegen/internal/llm/openai"
	"resumegen/internal/pipeline"
	"resumegen/internal/publish"
	"resumegen/internal/resumes"
	"resumegen/internal/services/health"
	"resumegen/internal/shared/config"
	"resumegen/internal/shared/server"
	"resumegen/internal/shared/storage/object"
	localstore "resumegen/internal/shared/storage/object/local"
	miniostore "resumegen/internal/shared/storage/object/minio"
	s3store "resumegen/internal/shared/storage/object/s3"
	"resumegen/internal/shared/telemetry"
)

// App wires configuration into a runnable service.
type App struct {
	Router    *gin.Engine
	Addr      string
	publisher *publish.Publisher
	cfg       *config.Config
}

// New assembles the object store, content provider, compiler, publisher
// and HTTP layer from configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("build object store: %w", err)
	}

	client, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}

	generator := llm.NewGenerator(client, cfg.LLM.RequestTimeout, cfg.LLM.MaxRetries)
	compiler := latex.NewCompiler(cfg.LaTeX.Command, cfg.LaTeX.CompileTimeout, cfg.LaTeX.MaxPDFBytes)
	publisher := publish.NewPublisher(store, cfg.Storage.LinkExpiry, cfg.Storage.MaxRetries)

	svc := pipeline.NewService(generator, compiler, publisher, pipeline.Options{
		Deadline:          cfg.Pipeline.RunDeadline,
		MaxJobDescription: cfg.Pipeline.MaxJobDescription,
		WorkspaceRoot:     cfg.LaTeX.WorkspaceRoot,
	})

	resumesHandler := resumes.NewHandler(svc)
	healthHandler := health.NewHandler(cfg.LaTeX.Command, cfg.LLM.APIKey != "", store)

	return &App{
		Router:    server.NewRouter(cfg.API, resumesHandler, healthHandler),
		Addr:      server.Addr(cfg.API.Port),
		publisher: publisher,
		cfg:       cfg,
	}, nil
}

// StartCleanup runs the stale-artifact sweep on its configured interval
// until ctx is canceled. No-op when cleanup is disabled.
func (a *App) StartCleanup(ctx context.Context) {
	maxAge := a.cfg.Pipeline.CleanupMaxAge
	if maxAge <= 0 {
		return
	}
	interval := a.cfg.Pipeline.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := a.publisher.CleanupOlderThan(ctx, maxAge); err != nil {
					telemetry.Warn("cleanup.failed", map[string]any{"error": err.Error()})
				}
			}
		}
	}()
}

func newStore(ctx context.Context, cfg config.StorageConfig) (object.ObjectStore, error) {
	switch cfg.Type {
	case "s3":
		return s3store.New(ctx, cfg.Region, cfg.Bucket, "", "")
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:         cfg.Endpoint,
			AccessKeyID:      cfg.AccessKeyID,
			SecretAccessKey:  cfg.SecretAccessKey,
			Bucket:           cfg.Bucket,
			Region:           cfg.Region,
			UseSSL:           cfg.UseSSL,
			AutoCreateBucket: true,
		})
	case "local":
		return localstore.New(cfg.LocalDir, cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown object store type %q", cfg.Type)
	}
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	// Token and character budgets are close enough for bounding output.
	maxTokens := cfg.MaxOutputChars

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return openai.NewClient(cfg.APIKey, cfg.Model, maxTokens)
	case "gemini":
		return gemini.NewClient(ctx, cfg.APIKey, cfg.Model, maxTokens)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
