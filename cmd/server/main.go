package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cfstats/internal/api"
	"cfstats/internal/api/middleware"
	"cfstats/internal/app/service"
	"cfstats/internal/app/worker"
	"cfstats/internal/common/security"
	"cfstats/internal/domain/repository"
	"cfstats/internal/platform/cache"
	"cfstats/internal/platform/codeforces"
	"cfstats/internal/platform/config"
	"cfstats/internal/platform/database"
	"cfstats/internal/platform/logger"
	"cfstats/internal/platform/queue"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig

	log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	// 2. Initialize JWT
	security.InitJWT(cfg.JWTKey, cfg.JWTExp)

	// 3. Initialize Database
	database.Connect()
	defer database.Close()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	if err := database.EnsureSchema(rootCtx, database.DB); err != nil {
		log.Fatal("Schema setup failed", zap.Error(err))
	}

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()

	// 5. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	codeforces.RegisterMetrics(registry)
	worker.RegisterMetrics(registry)
	middleware.RegisterMetrics(registry)

	// 6. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	trackedRepo := repository.NewPgTrackedHandleRepository(database.DB)
	snapshotRepo := repository.NewPgSnapshotRepository(database.DB)
	jobRepo := repository.NewPgRefreshJobRepository(database.DB)

	// 7. Initialize Services
	client := codeforces.NewClient(codeforces.ConfigFromApp(cfg), log)
	snapshotCache := cache.NewTiered(
		cache.NewMemory(cfg.LocalCacheTTL),
		cache.NewRedis(queue.RDB, cfg.CacheKeyPrefix, cfg.CacheTTL),
		log,
	)
	jobQueue := queue.NewListQueue(queue.RDB, cfg.RefreshQueueName)
	locker := queue.NewRedisLocker(queue.RDB, cfg.RefreshLockPrefix, cfg.RefreshLockTTL())

	authService := service.NewAuthService(userRepo)
	statsService := service.NewStatsService(client, snapshotCache, snapshotRepo)
	trackingService := service.NewTrackingService(trackedRepo, snapshotRepo)
	refreshJobService := service.NewRefreshJobService(jobRepo, jobQueue)

	if err := authService.EnsureAdmin(rootCtx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatal("Admin bootstrap failed", zap.Error(err))
	}
	seed, err := config.LoadTrackedHandles(cfg.TrackedHandlesFile, cfg.TrackedHandles)
	if err != nil {
		log.Fatal("Reading tracked handles failed", zap.Error(err))
	}
	if err := trackingService.Seed(rootCtx, seed); err != nil {
		log.Fatal("Seeding tracked handles failed", zap.Error(err))
	}

	// 8. Background work
	var wg sync.WaitGroup
	if cfg.WorkerEnabled {
		refreshWorker := worker.NewRefreshWorker(jobQueue, jobRepo, statsService, locker, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			refreshWorker.Start(rootCtx)
		}()
	}
	if cfg.PollEnabled {
		poller := worker.NewPoller(trackingService, statsService, locker, jobRepo, cfg.PollInterval, cfg.PollConcurrency, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(rootCtx)
		}()
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	wg.Add(1)
	go func() {
		defer wg.Done()
		limiter.Cleanup(rootCtx, 3*time.Minute)
	}()

	// 9. Initialize Router & HTTP Server
	router := api.NewRouter(log, limiter, registry, api.Services{
		Auth:     authService,
		Stats:    statsService,
		Tracking: trackingService,
		Refresh:  refreshJobService,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("Server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Could not listen", zap.String("port", cfg.APIPort), zap.Error(err))
		}
	}()

	<-stop

	log.Info("Shutting down server...")
	rootCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	wg.Wait()

	log.Info("Server and background workers stopped gracefully.")
}
