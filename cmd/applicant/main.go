package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"applicant-api-io/api/internal/container"
	"applicant-api-io/api/internal/indexer"
	"applicant-api-io/api/internal/middleware"
	"applicant-api-io/api/internal/routers"
	"applicant-api-io/api/internal/worker"
	"applicant-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := util.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger, err := util.InitLogger(cfg.Log)
	if err != nil {
		log.Fatal("Failed to initialise logger: ", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	client, err := util.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	rdb, err := util.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer rdb.Close()

	// Unique indexes back the per-user invariants, so build them before serving.
	if _, err := indexer.NewManager(client.Database(cfg.DatabaseName)).LoadFromDefinitions(indexer.Definitions()).Create(ctx); err != nil {
		logger.Warn("Index creation completed with errors", zap.Error(err))
	}

	pool := worker.NewPool(cfg.WorkerPoolSize, cfg.WorkerPoolSize*100)
	pool.Start()

	deps, err := container.ProductionDependencies(cfg, client, rdb, pool)
	if err != nil {
		logger.Fatal("Failed to build dependencies", zap.Error(err))
	}
	settings, err := container.SettingsFromConfig(cfg)
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	sc := container.NewServiceContainer(deps, settings)
	router := routers.InitRoute(sc, middleware.ApplicantRateLimiter(rdb, cfg.RateLimitPerSecond))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shut down", zap.Error(err))
	}

	// Let queued notifications and file deletions finish.
	pool.Stop()
	logger.Info("Server exited")
}
