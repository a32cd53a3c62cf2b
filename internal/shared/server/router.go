package server

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"resumegen/internal/resumes"
	"resumegen/internal/services/health"
	"resumegen/internal/shared/config"
	"resumegen/internal/shared/server/middleware"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.APIConfig, resumesHandler *resumes.Handler, healthHandler *health.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigins),
	)

	api := r.Group("/api/v1")
	healthHandler.RegisterRoutes(api)

	// Generation runs hold an LLM call and a compiler subprocess, so they
	// get their own throttle.
	generate := api.Group("")
	generate.Use(middleware.RateLimit(middleware.NewRateLimiter(nil), middleware.RateLimitRule{
		Rate:  cfg.RatePerMinute / 60.0,
		Burst: cfg.RateBurst,
	}))
	resumesHandler.RegisterRoutes(generate)

	return r
}

// Addr normalizes the listen address.
func Addr(port int) string {
	if port <= 0 {
		return ":8080"
	}
	return ":" + strconv.Itoa(port)
}
