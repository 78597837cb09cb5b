package main

import (
	"fmt"
	"log"
	"time"

	"pagefun/app/database"
	"pagefun/app/internal/handlers"
	"pagefun/app/internal/services"
	"pagefun/app/internal/store"
	"pagefun/shared/config"
	"pagefun/shared/env"
	"pagefun/shared/logger"
	"pagefun/shared/notifications"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func startHeartbeat(appLogger *logger.Logger) {
	go func() {
		ticker := time.NewTicker(8 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			appLogger.Info("Heartbeat: service running")
		}
	}()
}

// buildPostgresDSN assembles a DSN from DATABASE_URL or the PG*/LOCAL_*
// variable sets, in that order of preference.
func buildPostgresDSN(appLogger *logger.Logger) string {
	if env.DATABASE_URL != "" {
		appLogger.Info("Using DATABASE_URL for database connection.")
		return env.DATABASE_URL
	}

	appLogger.Warn("DATABASE_URL not set. Attempting to construct DSN from PG* or LOCAL_* variables.")
	dbHost := env.PGHOST
	dbPort := env.PGPORT
	dbUser := env.PGUSER
	dbPassword := env.PGPASSWORD
	dbName := env.PGDATABASE

	if dbHost == "" && env.LOCAL_DATABASE_HOST != "" {
		dbHost = env.LOCAL_DATABASE_HOST
	}
	if dbPort == "" && env.LOCAL_DATABASE_PORT != "" {
		dbPort = env.LOCAL_DATABASE_PORT
	}
	if dbUser == "" && env.LOCAL_DATABASE_USER != "" {
		dbUser = env.LOCAL_DATABASE_USER
	}
	if dbPassword == "" && env.LOCAL_DATABASE_PASSWORD != "" {
		dbPassword = env.LOCAL_DATABASE_PASSWORD
	}
	if dbName == "" && env.LOCAL_DATABASE_NAME != "" {
		dbName = env.LOCAL_DATABASE_NAME
	}

	if dbHost == "" || dbPort == "" || dbUser == "" || dbName == "" {
		appLogger.Fatal("Essential database connection variables are missing (DATABASE_URL, PG*, LOCAL_*)")
	}

	appLogger.Info("Constructed database DSN using individual variables (password hidden)")
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbHost, dbUser, dbPassword, dbName, dbPort,
	)
}

// buildPageStore selects the storage backend from configuration: a local
// JSON file for development, redis for a shared cache-style deployment, or
// postgres for durable production storage.
func buildPageStore(cfg *config.Config, appLogger *logger.Logger) store.PageStore {
	backend := cfg.Store.Backend
	if backend == "" {
		backend = env.StoreBackend
	}

	switch backend {
	case "postgres":
		dsn := buildPostgresDSN(appLogger)
		appLogger.Info("Connecting to database...")
		db, err := database.ConnectToDatabase(dsn)
		if err != nil {
			appLogger.Fatal("Database connection failed", "error", err)
		}
		appLogger.Info("Running database migrations...")
		database.MigrateDatabase(dsn)
		return store.NewGormStore(db, appLogger)
	case "redis":
		redisStore, err := store.NewRedisStore(env.RedisAddr, env.RedisPassword, env.RedisDB, appLogger)
		if err != nil {
			appLogger.Fatal("Redis connection failed", "error", err)
		}
		return redisStore
	default:
		path := cfg.Store.File
		if path == "" {
			path = env.PageStoreFile
		}
		fileStore, err := store.NewFileStore(path, appLogger)
		if err != nil {
			appLogger.Fatal("File store initialization failed", "error", err)
		}
		appLogger.Info("Using local file page store", "path", path)
		return fileStore
	}
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Panicf("FATAL PANIC RECOVERY: %v", r)
		}
	}()

	if err := env.LoadEnv(); err != nil {
		log.Fatalf("FATAL: Failed to load environment variables: %v", err)
	}

	log.Println("INFO: Initializing Telegram notifications...")
	if err := notifications.InitTelegramBot(); err != nil {
		log.Printf("WARN: Failed to initialize Telegram Bot, proceeding without Telegram features: %v", err)
	}

	cfg, errCfg := config.LoadConfig("app/config.yaml")
	if errCfg != nil {
		log.Fatalf("FATAL: Failed to load app/config.yaml: %v", errCfg)
	}
	config.SetGlobalConfig(cfg)

	appEnv := cfg.App.Environment
	if appEnv == "" {
		appEnv = "production"
	}
	logLevel := cfg.Logging.Level
	if logLevel == "" {
		logLevel = "info"
	}
	enableTelegramLogging := env.TelegramBotToken != "" && env.TelegramGroupID != 0
	appLogger, err := logger.NewLogger(logger.Config{
		Level:          logLevel,
		Environment:    appEnv,
		EnableTelegram: enableTelegramLogging,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	appLogger.Info("Application logger initialized.")

	verifier, err := services.NewIdentityVerifier(env.PrivyAppID, env.PrivyVerificationKey, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize identity verifier", "error", err)
	}

	appLogger.Info("Initializing balance oracle...")
	oracle, err := services.NewHeliusOracle(env.HeliusAPIKey, env.HeliusRPCURL,
		cfg.Oracle.MaxRetries, cfg.Oracle.TimeoutSeconds, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize balance oracle", "error", err)
	}
	appLogger.Info("Balance oracle initialized.")

	pageStore := buildPageStore(cfg, appLogger)
	engine := services.NewAccessEngine(pageStore, oracle, cfg.Access.OptimisticLocking, appLogger)

	appLogger.Info("Setting up web server...")
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))
	appLogger.Info("CORS middleware configured.")

	handlers.RegisterRoutes(router)
	handler := handlers.NewHandler(engine, verifier, appLogger)
	handler.RegisterAPIRoutes(router, handlers.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})
	appLogger.Info("Web server and API routes registered.")

	go func() {
		serverAddr := ":" + env.Port
		appLogger.Info("Starting web server", "address", serverAddr)
		if err := router.Run(serverAddr); err != nil {
			appLogger.Fatal("Could not start web server.", "error", err)
		}
	}()

	appLogger.Info("Starting heartbeat monitor.")
	startHeartbeat(appLogger)

	appLogger.Info("Application startup complete.")
	select {}
}
