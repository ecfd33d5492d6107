package api

import (
	"github.com/RishiKendai/overlap/internal/config"
	"github.com/RishiKendai/overlap/internal/plagiarism"

	"github.com/gin-gonic/gin"
)

// bodyOverhead covers JSON keys, escaping and candidate ids around the texts
const bodyOverhead = 64 << 10

func SetupRoutes(
	cfg *config.Config,
	detector *plagiarism.Detector,
	batch *plagiarism.BatchProcessor,
) *gin.Engine {
	return NewRouter(cfg, NewHandler(cfg, detector, batch))
}

// NewRouter wires an existing handler, so callers can drain its batches on shutdown
func NewRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	router := gin.Default()

	// Create rate limiter
	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))

	// Largest body: one original plus a full batch of candidates
	maxBody := int64(cfg.MaxTextBytes)*int64(cfg.MaxBatchCandidates+1) + bodyOverhead

	// Middleware
	router.Use(CORSMiddleware(cfg.CORSAllowedOrigins))
	router.Use(MetricsMiddleware())
	router.Use(BodyLimitMiddleware(maxBody))
	router.Use(ErrorHandlerMiddleware())

	// Health endpoints (no auth)
	router.GET("/health", handler.Health)
	router.GET("/api/health", handler.Health)

	// Unversioned compare endpoint used by the web client
	router.POST("/api/compare", RateLimitMiddleware(rateLimiter), handler.Compare)

	// Versioned API (optional auth, rate limiting)
	v1 := router.Group("/api/v1")
	if cfg.JWTSecret != "" {
		v1.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	}
	v1.Use(RateLimitMiddleware(rateLimiter))
	{
		v1.POST("/compare", handler.Compare)
		v1.POST("/batch", handler.SubmitBatch)
		v1.GET("/batch/:id", handler.GetBatch)
	}

	return router
}
