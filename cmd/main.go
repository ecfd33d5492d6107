package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RishiKendai/overlap/internal/api"
	"github.com/RishiKendai/overlap/internal/config"
	"github.com/RishiKendai/overlap/internal/configs/env"
	"github.com/RishiKendai/overlap/internal/infra/mongo"
	redisInfra "github.com/RishiKendai/overlap/internal/infra/redis"
	"github.com/RishiKendai/overlap/internal/logger"
	"github.com/RishiKendai/overlap/internal/metrics"
	"github.com/RishiKendai/overlap/internal/plagiarism"
	"github.com/RishiKendai/overlap/internal/preprocess"
	"github.com/RishiKendai/overlap/internal/repository"
	"github.com/RishiKendai/overlap/internal/stream"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().Msg("Starting overlap server")

	// Initialize Prometheus metrics
	metrics.InitPrometheus()
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.MetricsHandler())
	metricsServer := api.StartServer(metricsMux, cfg.MetricsPort, "metrics")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processor := preprocess.NewTextProcessor()
	detector := plagiarism.NewDetector(processor, cfg.DetectorOptions())
	log.Info().
		Int("stopwords", processor.StopwordCount()).
		Interface("options", detector.Options()).
		Msg("Detector initialized")

	// Initialize worker pool
	workerPool := plagiarism.NewWorkerPool(ctx, cfg.WorkerPoolSize)
	defer workerPool.Close()

	var (
		batchProcessor *plagiarism.BatchProcessor
		consumerDone   = make(chan struct{})
	)

	if cfg.BatchEnabled() {
		// Connect MongoDB
		mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create MongoDB client")
		}
		defer mongoClient.Close(context.Background())

		reportsRepo := repository.NewReportsRepository(repository.NewMongoRepository(mongoClient))
		if err := reportsRepo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create report indexes")
		}

		// Connect Redis
		redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Redis client")
		}
		defer redisClient.Close()

		statusStore := plagiarism.NewStatusStore(redisClient.Client, cfg.StatusTTL)
		batchProcessor = plagiarism.NewBatchProcessor(detector, workerPool, reportsRepo, statusStore, cfg.ComputationTimeout)

		// Initialize Redis stream consumer
		hostname, _ := os.Hostname()
		if hostname == "" {
			hostname = "unknown"
		}
		consumerName := fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])
		consumer := stream.NewConsumer(
			redisClient.Client,
			cfg.RedisStreamKey,
			cfg.RedisConsumerGroup,
			consumerName,
			batchProcessor,
			stream.Limits{
				MaxCandidates: cfg.MaxBatchCandidates,
				MaxTextBytes:  cfg.MaxTextBytes,
			},
		)

		go func() {
			defer close(consumerDone)
			if err := consumer.Start(ctx); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("Redis consumer error")
			}
		}()
		log.Info().Str("consumer_name", consumerName).Msg("Redis stream consumer started")
	} else {
		close(consumerDone)
		log.Info().Msg("MONGO_URI or REDIS_HOST not set, batch comparisons disabled")
	}

	handler := api.NewHandler(cfg, detector, batchProcessor)
	router := api.NewRouter(cfg, handler)
	srv := api.StartServer(router, cfg.ServerPort, "api")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")

	if err := api.ShutdownServer(srv, 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down API server")
	}

	// Let accepted HTTP batches finish before the pool stops
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := handler.WaitForBatches(drainCtx); err != nil {
		log.Warn().Err(err).Msg("Batch jobs still running, they will be marked failed")
	}
	drainCancel()

	// Stop the consumer and the pool; unfinished batches record their failure
	cancel()
	failCtx, failCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := handler.WaitForBatches(failCtx); err != nil {
		log.Error().Err(err).Msg("Timed out waiting for batch jobs to stop")
	}
	failCancel()

	select {
	case <-consumerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Timed out waiting for Redis consumer to stop")
	}

	if err := api.ShutdownServer(metricsServer, 5*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}

	log.Info().Msg("Shutdown complete")
}
