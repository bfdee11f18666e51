// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatch-workers/internal/common/camunda"
	"dispatch-workers/internal/common/config"
	"dispatch-workers/internal/common/database"
	"dispatch-workers/internal/common/logger"
	"dispatch-workers/internal/common/observability"
	"dispatch-workers/internal/engine/availability"
	"dispatch-workers/internal/engine/conflict"
	checkconflicts "dispatch-workers/internal/workers/assignment/check-conflicts"
	commitassignment "dispatch-workers/internal/workers/assignment/commit-assignment"
	rankcandidates "dispatch-workers/internal/workers/assignment/rank-candidates"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	// Zeebe broker
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var cerr error
		zeebeClient, cerr = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.Timeout),
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return cerr
	}, 10, 2*time.Second, zapLog, "zeebe connection")
	if err != nil {
		zapLog.Fatal("could not connect to zeebe broker", zap.Error(err))
	}
	defer zeebeClient.Close()

	// PostgreSQL
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var perr error
		pg, perr = database.NewPostgres(cfg.Database.Postgres)
		if perr != nil {
			return perr
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "postgres connection")
	if err != nil {
		zapLog.Fatal("could not connect to postgres", zap.Error(err))
	}
	defer pg.Close()

	// Redis
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var rerr error
		redisClient, rerr = database.NewRedis(cfg.Database.Redis)
		if rerr != nil {
			return rerr
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "redis connection")
	if err != nil {
		zapLog.Fatal("could not connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Shared engine components
	templateStore := availability.NewTemplateStore(
		pg, redisClient,
		time.Duration(cfg.Assignment.TemplateCacheTTL)*time.Second,
		log,
	)
	resolver := availability.NewResolver(templateStore, log)

	commitmentStore := conflict.NewCommitmentStore(pg, log)
	detector := conflict.NewDetector(
		commitmentStore,
		config.GetDuration(cfg.Assignment.ConflictQueryTimeout),
		log,
	)

	// Workers
	var workers []*camunda.CamundaWorker

	if config.IsWorkerEnabled(cfg, rankcandidates.TaskType) {
		handlerCfg := rankcandidates.LoadConfig()
		handlerCfg.RankingCacheTTL = time.Duration(cfg.Assignment.RankingCacheTTL) * time.Second
		handler := rankcandidates.NewHandler(handlerCfg, resolver, redisClient.GetClient(), log)
		workers = append(workers, camunda.NewWorker(zeebeClient.GetClient(), rankcandidates.TaskType, config.GetWorkerConfig(cfg, rankcandidates.TaskType), handler, zapLog))
	}

	if config.IsWorkerEnabled(cfg, checkconflicts.TaskType) {
		handler := checkconflicts.NewHandler(checkconflicts.LoadConfig(), detector, log)
		workers = append(workers, camunda.NewWorker(zeebeClient.GetClient(), checkconflicts.TaskType, config.GetWorkerConfig(cfg, checkconflicts.TaskType), handler, zapLog))
	}

	if config.IsWorkerEnabled(cfg, commitassignment.TaskType) {
		committer := commitassignment.NewCommitter(commitmentStore, log)
		handler := commitassignment.NewHandler(commitassignment.LoadConfig(), committer, log)
		workers = append(workers, camunda.NewWorker(zeebeClient.GetClient(), commitassignment.TaskType, config.GetWorkerConfig(cfg, commitassignment.TaskType), handler, zapLog))
	}

	if len(workers) == 0 {
		zapLog.Warn("no workers enabled, check the workers section of the configuration")
	}

	go serveHealth(cfg, pg, redisClient, zapLog)

	zapLog.Info("worker manager running", zap.Int("workers", len(workers)))

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	zapLog.Info("shutting down", zap.String("signal", sig.String()))
	for _, w := range workers {
		w.Close()
	}
	zapLog.Info("worker manager stopped")
}

// retryWithBackoff retries an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = operation(); err == nil {
			return nil
		}

		log.Warn("operation failed, retrying",
			zap.String("operation", operationName),
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", maxRetries),
			zap.Duration("nextDelay", delay),
			zap.Error(err),
		)

		if attempt < maxRetries {
			time.Sleep(delay)
			delay *= 2
			if delay > 30*time.Second {
				delay = 30 * time.Second
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// serveHealth exposes liveness, readiness and Prometheus metrics on :8080.
func serveHealth(cfg *config.Config, pg *database.PostgresClient, redisClient *database.RedisClient, log *zap.Logger) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"app":     cfg.App.Name,
			"version": cfg.App.Version,
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "ok", "redis": "ok"}
		ready := true

		if err := pg.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			ready = false
		}
		if err := redisClient.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			ready = false
		}

		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ready":  ready,
			"checks": checks,
		})
	})

	mux.Handle("/metrics", promhttp.Handler())

	log.Info("health endpoints listening", zap.String("addr", ":8080"))
	if err := http.ListenAndServe(":8080", mux); err != nil {
		log.Error("health server stopped", zap.Error(err))
	}
}
