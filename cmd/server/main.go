// Package main runs the sign-language video corpus HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lsm-recorder/backend/config"
	"github.com/lsm-recorder/backend/internal/middleware"
	"github.com/lsm-recorder/backend/internal/palabras"
	"github.com/lsm-recorder/backend/internal/videos"
	"github.com/lsm-recorder/backend/pkg/database"
	"github.com/lsm-recorder/backend/pkg/response"
	"github.com/lsm-recorder/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: time.Duration(cfg.Database.ConnectTimeoutSec) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Bucket:          cfg.Storage.Bucket,
	}, logger)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}
	if cfg.Storage.SkipCheck {
		logger.Warn("SKIP_S3_CHECK=true, skipping storage configuration check")
	} else if err := s3Client.CheckConfig(); err != nil {
		logger.Fatal("storage check", zap.Error(err))
	}

	videoRepo := videos.NewRepository(pool)
	videoHandler := videos.NewHandler(videoRepo, s3Client, pool, cfg.Storage.CleanupOnConflict, logger)

	palabraRepo := palabras.NewRepository(pool)
	palabraHandler := palabras.NewHandler(palabraRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.MaxMultipartMemory = videos.MaxVideoSize

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "LSM Web Recorder API",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": gin.H{
				"health":     "GET /api/health",
				"uploadUrl":  "POST /api/videos/upload-url",
				"saveVideo":  "POST /api/videos",
				"listVideos": "GET /api/videos",
				"stats":      "GET /api/videos/stats",
			},
		})
	})

	api := router.Group("/api")
	{
		api.GET("/health", videoHandler.Health)

		api.GET("/videos/test-upload", videoHandler.TestUpload)
		api.POST("/videos/upload-url", videoHandler.GenerateUploadURL)
		api.POST("/videos/upload", videoHandler.ProxyUpload)
		api.POST("/videos", videoHandler.SaveMetadata)
		api.GET("/videos", videoHandler.List)
		api.GET("/videos/stats", videoHandler.Stats)
		api.GET("/videos/count/:palabra", videoHandler.CountByPalabra)
		api.GET("/videos/export", videoHandler.Export)
		api.DELETE("/videos/session/:sessionId/sequence/:sequenceNumber", videoHandler.DeleteBySession)

		api.GET("/palabras", palabraHandler.List)
		api.POST("/palabras", palabraHandler.Create)
		api.DELETE("/palabras/:id", palabraHandler.Delete)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, "endpoint not found: "+c.Request.URL.Path)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
