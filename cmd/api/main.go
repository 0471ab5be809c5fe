package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invochat-core-sync-layer/internal/application"
	"invochat-core-sync-layer/internal/domain"
	apiinfra "invochat-core-sync-layer/internal/infrastructure/api"
	"invochat-core-sync-layer/internal/infrastructure/cache"
	"invochat-core-sync-layer/internal/infrastructure/encryption"
	"invochat-core-sync-layer/internal/infrastructure/metrics"
	"invochat-core-sync-layer/internal/infrastructure/platform"
	"invochat-core-sync-layer/internal/infrastructure/platform/amazon"
	"invochat-core-sync-layer/internal/infrastructure/platform/shopify"
	"invochat-core-sync-layer/internal/infrastructure/platform/woocommerce"
	"invochat-core-sync-layer/internal/infrastructure/queue"
	"invochat-core-sync-layer/internal/infrastructure/ratelimit"
	"invochat-core-sync-layer/internal/infrastructure/repository"
	"invochat-core-sync-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Get configuration from environment
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDatabase := os.Getenv("MONGODB_DATABASE")
	if mongoDatabase == "" {
		mongoDatabase = "invochat_sync"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if encryptionKey == "" {
		logger.Fatal().Msg("ENCRYPTION_KEY environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(mongoDatabase)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	// Initialize infrastructure (implementations)
	encryptionService, err := encryption.NewService(encryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	// Initialize repositories
	integrationRepo := repository.NewMongoIntegrationRepository(db)
	catalogRepo := repository.NewMongoCatalogRepository(db)
	webhookLedger := repository.NewMongoWebhookLedger(db)
	secretVault := repository.NewMongoSecretVault(db, encryptionService)
	reportRefresher := repository.NewMongoReportRefresher(db)

	indexCtx, cancelIndexes := context.WithTimeout(ctx, 30*time.Second)
	defer cancelIndexes()
	for name, ensure := range map[string]func(context.Context) error{
		"integrations":   integrationRepo.EnsureIndexes,
		"catalog":        catalogRepo.EnsureIndexes,
		"webhook_events": webhookLedger.EnsureIndexes,
		"secrets":        secretVault.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			logger.Fatal().Err(err).Str("collection", name).Msg("Failed to ensure indexes")
		}
	}

	// Platform clients are a closed set keyed by platform slug
	clientFactory := platform.NewFactory(
		shopify.NewClient(logger),
		woocommerce.NewClient(logger),
		amazon.NewClient(logger),
	)
	verifier := platform.NewHMACVerifier()
	verifiers := map[domain.Platform]ports.WebhookVerifier{
		domain.PlatformShopify:     verifier,
		domain.PlatformWooCommerce: verifier,
	}

	syncMetrics := metrics.New(prometheus.DefaultRegisterer)
	rateLimiter := ratelimit.NewRedisLimiter(redisClient, nil)
	cacheInvalidator := cache.NewRedisInvalidator(redisClient, logger)
	syncQueue := queue.NewRedisQueue(redisClient)

	// Initialize application services
	syncService := application.NewSyncService(
		integrationRepo,
		catalogRepo,
		secretVault,
		clientFactory,
		cacheInvalidator,
		reportRefresher,
		syncQueue,
		syncMetrics,
		logger,
	)
	connectService := application.NewConnectService(integrationRepo, secretVault, logger)
	webhookService := application.NewWebhookService(
		integrationRepo,
		secretVault,
		webhookLedger,
		verifiers,
		syncService,
		syncMetrics,
		logger,
	)

	// Start the sync worker and the stale-status sweep
	worker := application.NewSyncWorker(syncQueue, syncService, integrationRepo, 30*time.Minute, logger)
	go worker.Run(ctx)
	go worker.RunStaleSweep(ctx, 5*time.Minute)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// API routes
	handler := apiinfra.NewHandler(
		connectService,
		syncService,
		webhookService,
		integrationRepo,
		rateLimiter,
		syncMetrics,
		logger,
	)
	r.Route("/api", handler.Routes)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("port", port).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + port + "/swagger/index.html")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
