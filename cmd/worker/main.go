package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cfstats/internal/app/service"
	"cfstats/internal/app/worker"
	"cfstats/internal/domain/repository"
	"cfstats/internal/platform/cache"
	"cfstats/internal/platform/codeforces"
	"cfstats/internal/platform/config"
	"cfstats/internal/platform/database"
	"cfstats/internal/platform/logger"
	"cfstats/internal/platform/queue"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// A standalone refresh worker. Run several of these next to the API server
// (with WORKER_ENABLED=false there) to drain the queue in parallel; the
// per-handle Redis lock keeps them from refreshing the same handle twice.
func main() {
	config.Load()
	cfg := config.AppConfig

	log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	database.Connect()
	defer database.Close()
	queue.ConnectRedis()
	defer queue.CloseRedis()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	codeforces.RegisterMetrics(registry)
	worker.RegisterMetrics(registry)

	client := codeforces.NewClient(codeforces.ConfigFromApp(cfg), log)
	snapshotCache := cache.NewTiered(
		cache.NewMemory(cfg.LocalCacheTTL),
		cache.NewRedis(queue.RDB, cfg.CacheKeyPrefix, cfg.CacheTTL),
		log,
	)
	statsService := service.NewStatsService(client, snapshotCache, repository.NewPgSnapshotRepository(database.DB))
	refreshWorker := worker.NewRefreshWorker(
		queue.NewListQueue(queue.RDB, cfg.RefreshQueueName),
		repository.NewPgRefreshJobRepository(database.DB),
		statsService,
		queue.NewRedisLocker(queue.RDB, cfg.RefreshLockPrefix, cfg.RefreshLockTTL()),
		log,
	)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Metrics server starting", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Metrics server failed", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		refreshWorker.Start(ctx)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Shutdown signal received")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info("Worker exited cleanly")
	case <-time.After(cfg.RefreshLockTTL()):
		log.Warn("Worker did not stop in time")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Metrics server shutdown failed", zap.Error(err))
	}
}
