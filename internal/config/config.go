package config

import (
	"fmt"
	"time"

	"github.com/RishiKendai/overlap/internal/configs/env"
	"github.com/RishiKendai/overlap/internal/plagiarism"
	"github.com/RishiKendai/overlap/internal/preprocess"
)

// Config holds all configuration for the application
type Config struct {
	// MongoDB
	MongoURI    string
	MongoDBName string

	// Redis
	RedisHost          string
	RedisPassword      string
	RedisStreamKey     string
	RedisConsumerGroup string
	StatusTTL          time.Duration

	// JWT
	JWTSecret string
	JWTIssuer string

	// Rate Limiting
	RateLimitRPS float64

	// CORS
	CORSAllowedOrigins []string

	// Detector
	NgramSize      int
	MatchNgramSize int
	MaxSegments    int
	ContextWindow  int

	// Limits
	MaxTextBytes       int
	MaxBatchCandidates int

	// Concurrency
	MaxConcurrentCompute int
	WorkerPoolSize       int

	// Computation
	ComputationTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Server
	ServerPort  string
	MetricsPort string
}

func Load() (*Config, error) {
	cfg := &Config{}

	// MongoDB
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "overlap")

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisStreamKey = env.GetEnv("REDIS_STREAM_KEY", "comparison:stream")
	cfg.RedisConsumerGroup = env.GetEnv("REDIS_CONSUMER_GROUP", "comparison:group")
	statusHours := env.GetEnvInt("STATUS_TTL_HOURS", 12)
	cfg.StatusTTL = time.Duration(statusHours) * time.Hour

	// JWT
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")
	cfg.JWTIssuer = env.GetEnv("JWT_ISSUER", "overlap")

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)

	// CORS
	cfg.CORSAllowedOrigins = env.GetEnvList("CORS_ALLOWED_ORIGINS", []string{"*"})

	// Detector
	cfg.NgramSize = env.GetEnvInt("NGRAM_SIZE", preprocess.DefaultNgramSize)
	cfg.MatchNgramSize = env.GetEnvInt("MATCH_NGRAM_SIZE", plagiarism.DefaultMatchNgramSize)
	cfg.MaxSegments = env.GetEnvInt("MAX_MATCHING_SEGMENTS", plagiarism.DefaultMaxSegments)
	cfg.ContextWindow = env.GetEnvInt("CONTEXT_WINDOW", plagiarism.DefaultContextWindow)

	// Limits
	cfg.MaxTextBytes = env.GetEnvInt("MAX_TEXT_BYTES", 1<<20)
	cfg.MaxBatchCandidates = env.GetEnvInt("MAX_BATCH_CANDIDATES", 50)

	// Concurrency
	cfg.MaxConcurrentCompute = env.GetEnvInt("MAX_CONCURRENT_COMPUTE", 5)
	cfg.WorkerPoolSize = env.GetEnvInt("WORKER_POOL_SIZE", 0)

	// Computation
	timeoutMinutes := env.GetEnvInt("COMPUTATION_TIMEOUT_MINUTES", 5)
	cfg.ComputationTimeout = time.Duration(timeoutMinutes) * time.Minute

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")
	cfg.LogFormat = env.GetEnv("LOG_FORMAT", "json")

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8080")
	cfg.MetricsPort = env.GetEnv("METRICS_PORT", "2112")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.NgramSize <= 0 {
		return fmt.Errorf("NGRAM_SIZE must be greater than 0")
	}
	if c.MatchNgramSize <= 0 {
		return fmt.Errorf("MATCH_NGRAM_SIZE must be greater than 0")
	}
	if c.MaxSegments <= 0 {
		return fmt.Errorf("MAX_MATCHING_SEGMENTS must be greater than 0")
	}
	if c.ContextWindow <= 0 {
		return fmt.Errorf("CONTEXT_WINDOW must be greater than 0")
	}
	if c.MaxTextBytes <= 0 {
		return fmt.Errorf("MAX_TEXT_BYTES must be greater than 0")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be greater than 0")
	}
	if c.MaxConcurrentCompute <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_COMPUTE must be greater than 0")
	}
	if c.MaxBatchCandidates <= 0 {
		return fmt.Errorf("MAX_BATCH_CANDIDATES must be greater than 0")
	}
	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WORKER_POOL_SIZE must not be negative")
	}
	if c.ComputationTimeout <= 0 {
		return fmt.Errorf("COMPUTATION_TIMEOUT_MINUTES must be greater than 0")
	}
	if (c.MongoURI == "") != (c.RedisHost == "") {
		return fmt.Errorf("MONGO_URI and REDIS_HOST must be set together to enable batch comparisons")
	}
	if c.BatchEnabled() && c.StatusTTL <= 0 {
		return fmt.Errorf("STATUS_TTL_HOURS must be greater than 0")
	}
	return nil
}

// BatchEnabled reports whether the MongoDB and Redis backed batch mode is configured
func (c *Config) BatchEnabled() bool {
	return c.MongoURI != "" && c.RedisHost != ""
}

// DetectorOptions maps the detector settings onto plagiarism.Options
func (c *Config) DetectorOptions() plagiarism.Options {
	return plagiarism.Options{
		NgramSize:      c.NgramSize,
		MatchNgramSize: c.MatchNgramSize,
		MaxSegments:    c.MaxSegments,
		ContextWindow:  c.ContextWindow,
	}
}
