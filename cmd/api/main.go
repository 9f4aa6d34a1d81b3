package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fundexhq/fundex/internal/fraud"
	"github.com/fundexhq/fundex/internal/gst"
	"github.com/fundexhq/fundex/internal/receipt"
	"github.com/fundexhq/fundex/internal/trust"
	"github.com/fundexhq/fundex/pkg/cache"
	"github.com/fundexhq/fundex/pkg/common"
	"github.com/fundexhq/fundex/pkg/config"
	"github.com/fundexhq/fundex/pkg/database"
	"github.com/fundexhq/fundex/pkg/logger"
	"github.com/fundexhq/fundex/pkg/middleware"
	"github.com/fundexhq/fundex/pkg/redis"
	"github.com/fundexhq/fundex/pkg/storage"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load("api")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Connect to PostgreSQL
	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	logger.Info("Connected to PostgreSQL")

	// Connect to Redis; the trust cache falls back to in-process memory when
	// Redis is unreachable so a cache outage never takes scoring down.
	var trustCache cache.Cache
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory trust cache", zap.Error(err))
		trustCache = cache.NewMemory()
	} else {
		defer redisClient.Close()
		trustCache = cache.NewRedis(redisClient.Client, "fundex", 7*24*time.Hour)
		logger.Info("Connected to Redis")
	}

	// Receipt image storage
	receiptStore, err := storage.NewS3Storage(context.Background(), storage.Config{
		Provider:  cfg.Storage.Provider,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		BaseURL:   cfg.Storage.BaseURL,
	})
	if err != nil {
		logger.Fatal("Failed to initialize receipt storage", zap.Error(err))
	}

	// Receipt analysis pipeline
	var ocrProvider receipt.OCRProvider
	if cfg.OCR.Enabled && cfg.OCR.APIKey != "" {
		ocrProvider = receipt.NewHTTPOCRProvider(
			cfg.OCR.BaseURL,
			cfg.OCR.APIKey,
			time.Duration(cfg.OCR.TimeoutSeconds)*time.Second,
		)
	}
	textExtractor := receipt.NewTextExtractor(ocrProvider, cfg.OCR.Enabled)
	amountExtractor := receipt.NewAmountExtractor()
	taxIDExtractor := receipt.NewTaxIDExtractor()

	var registryClient gst.RegistryClient
	if cfg.Registry.Enabled && cfg.Registry.BaseURL != "" {
		registryClient = gst.NewHTTPRegistryClient(
			cfg.Registry.BaseURL,
			cfg.Registry.APIKey,
			time.Duration(cfg.Registry.TimeoutSeconds)*time.Second,
		)
	}
	taxIDValidator := gst.NewValidator(registryClient)

	fraudRepo := fraud.NewRepository(db)
	fraudService := fraud.NewService(fraudRepo, textExtractor, amountExtractor, taxIDExtractor, taxIDValidator)
	fraudHandler := fraud.NewHandler(fraudService)

	trustRepo := trust.NewRepository(db)
	trustService := trust.NewService(trustRepo, trustCache, time.Duration(cfg.Trust.CacheTTLHours)*time.Hour)
	trustHandler := trust.NewHandler(trustService)

	uploadHandler := newUploadHandler(receiptStore)

	// Router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.Recovery())
	router.Use(middleware.SecurityHeaders())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", common.Health("api", version, map[string]common.DependencyCheck{
		"postgres": db.Ping,
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.Timeout(time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second))
	{
		fraudHandler.RegisterRoutes(api)
		trustHandler.RegisterRoutes(api)
		api.POST("/organizations/:id/expenses/:expense_id/receipt", uploadHandler.UploadReceipt)
	}

	addr := ":" + cfg.Server.Port
	logger.Info("Fundex API starting", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
