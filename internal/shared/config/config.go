package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings sourced from environment variables.
// It is assembled once at startup and handed to components as read-only
// sub-structs; nothing reads ambient environment state after this point.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	LLM      LLMConfig      `mapstructure:"llm"`
	LaTeX    LaTeXConfig    `mapstructure:"latex"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port             int      `mapstructure:"port"`
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
	RatePerMinute    float64  `mapstructure:"rate_per_minute"`
	RateBurst        int      `mapstructure:"rate_burst"`
}

// LLMConfig contains settings for the content generation provider.
type LLMConfig struct {
	Provider       string        `mapstructure:"provider"`
	Model          string        `mapstructure:"model"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	MaxOutputChars int           `mapstructure:"max_output_chars"`
}

// LaTeXConfig contains settings for the sandboxed LaTeX compiler.
type LaTeXConfig struct {
	Command        string        `mapstructure:"command"`
	CompileTimeout time.Duration `mapstructure:"compile_timeout"`
	MaxPDFBytes    int64         `mapstructure:"max_pdf_bytes"`
	WorkspaceRoot  string        `mapstructure:"workspace_root"`
}

// StorageConfig contains object store settings. Type selects the backend:
// "s3", "minio" or "local".
type StorageConfig struct {
	Type            string        `mapstructure:"type"`
	Bucket          string        `mapstructure:"bucket"`
	Region          string        `mapstructure:"region"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	LocalDir        string        `mapstructure:"local_dir"`
	PublicBaseURL   string        `mapstructure:"public_base_url"`
	LinkExpiry      time.Duration `mapstructure:"link_expiry"`
	MaxRetries      int           `mapstructure:"max_retries"`
}

// PipelineConfig contains orchestration limits.
type PipelineConfig struct {
	RunDeadline       time.Duration `mapstructure:"run_deadline"`
	MaxJobDescription int           `mapstructure:"max_job_description"`
	CleanupMaxAge     time.Duration `mapstructure:"cleanup_max_age"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

// Load reads configuration from environment variables with defaults applied.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("api.rate_per_minute", 10.0)
	v.SetDefault("api.rate_burst", 3)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4.1")
	v.SetDefault("llm.request_timeout", 20*time.Second)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.max_output_chars", 2048)
	v.SetDefault("latex.command", "pdflatex")
	v.SetDefault("latex.compile_timeout", 10*time.Second)
	v.SetDefault("latex.max_pdf_bytes", int64(5<<20))
	v.SetDefault("latex.workspace_root", "")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "resumes")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.local_dir", "./data")
	v.SetDefault("storage.link_expiry", 24*time.Hour)
	v.SetDefault("storage.max_retries", 2)
	v.SetDefault("pipeline.run_deadline", 30*time.Second)
	v.SetDefault("pipeline.max_job_description", 5000)
	v.SetDefault("pipeline.cleanup_max_age", 0)
	v.SetDefault("pipeline.cleanup_interval", time.Hour)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                     "API_PORT",
		"api.cors_allow_origins":       "CORS_ALLOW_ORIGINS",
		"api.rate_per_minute":          "RATE_PER_MINUTE",
		"api.rate_burst":               "RATE_BURST",
		"llm.provider":                 "LLM_PROVIDER",
		"llm.model":                    "LLM_MODEL",
		"llm.api_key":                  "LLM_API_KEY",
		"llm.request_timeout":          "LLM_REQUEST_TIMEOUT",
		"llm.max_retries":              "LLM_MAX_RETRIES",
		"llm.max_output_chars":         "LLM_MAX_OUTPUT_CHARS",
		"latex.command":                "LATEX_COMMAND",
		"latex.compile_timeout":        "LATEX_COMPILE_TIMEOUT",
		"latex.max_pdf_bytes":          "MAX_PDF_BYTES",
		"latex.workspace_root":         "LATEX_WORKSPACE_ROOT",
		"storage.type":                 "OBJECT_STORE",
		"storage.bucket":               "STORAGE_BUCKET",
		"storage.region":               "AWS_REGION",
		"storage.endpoint":             "STORAGE_ENDPOINT",
		"storage.access_key_id":        "STORAGE_ACCESS_KEY_ID",
		"storage.secret_access_key":    "STORAGE_SECRET_ACCESS_KEY",
		"storage.use_ssl":              "STORAGE_USE_SSL",
		"storage.local_dir":            "LOCAL_STORE_DIR",
		"storage.public_base_url":      "STORAGE_PUBLIC_BASE_URL",
		"storage.link_expiry":          "LINK_EXPIRY",
		"storage.max_retries":          "PUBLISH_MAX_RETRIES",
		"pipeline.run_deadline":        "PIPELINE_RUN_DEADLINE",
		"pipeline.max_job_description": "MAX_JOB_DESCRIPTION_CHARS",
		"pipeline.cleanup_max_age":     "CLEANUP_MAX_AGE",
		"pipeline.cleanup_interval":    "CLEANUP_INTERVAL",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.LLM.RequestTimeout <= 0 {
		return errors.New("llm request timeout must be positive")
	}
	if cfg.LLM.MaxRetries < 0 {
		return errors.New("llm max retries must not be negative")
	}
	if cfg.LaTeX.Command == "" {
		return errors.New("latex command is required")
	}
	if cfg.LaTeX.CompileTimeout <= 0 {
		return errors.New("latex compile timeout must be positive")
	}
	if cfg.LaTeX.MaxPDFBytes <= 0 {
		return errors.New("max pdf bytes must be positive")
	}
	switch cfg.Storage.Type {
	case "s3", "minio", "local":
	default:
		return fmt.Errorf("unknown object store type %q", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "minio" && cfg.Storage.Endpoint == "" {
		return errors.New("storage endpoint is required for minio")
	}
	if cfg.Storage.Bucket == "" {
		return errors.New("storage bucket is required")
	}
	if cfg.Storage.LinkExpiry <= 0 {
		return errors.New("link expiry must be positive")
	}
	if cfg.Pipeline.RunDeadline <= 0 {
		return errors.New("pipeline run deadline must be positive")
	}
	if cfg.Pipeline.MaxJobDescription <= 0 {
		return errors.New("max job description length must be positive")
	}
	return nil
}
