package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"heist-server/internal/authutils"
	"heist-server/internal/config"
	"heist-server/internal/database"
	"heist-server/internal/handler"
	appLogger "heist-server/internal/logger"
	"heist-server/internal/messaging"
	"heist-server/internal/middleware"
	"heist-server/internal/models"
	"heist-server/internal/service"
	"heist-server/pkg/migration"
)

func main() {
	_ = godotenv.Load()
	log.Println("Запуск Heist Server...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := appLogger.New(appLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	logger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	// --- Внешние подключения ---
	dbPool, err := setupDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer dbPool.Close()
	logger.Info("Успешное подключение к PostgreSQL")

	// Миграции применяются на старте сервиса
	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: database.MigrationsPath,
		MigrationsFS:   database.MigrationsFS,
	}, dbPool, zerolog.New(os.Stdout).With().Timestamp().Str("component", "migrator").Logger())
	if err := migrator.Up(context.Background()); err != nil {
		logger.Fatal("Не удалось применить миграции", zap.Error(err))
	}

	redisClient, err := setupRedis(cfg)
	if err != nil {
		logger.Fatal("Не удалось подключиться к Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Успешное подключение к Redis")

	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
	}
	defer rabbitConn.Close()
	logger.Info("Успешное подключение к RabbitMQ")

	// --- Dependency Injection ---
	sessionRepo := database.NewPgPlayerSessionRepository(dbPool, logger)
	attemptRepo := database.NewPgAttemptRepository(dbPool, logger)
	rewardRepo := database.NewPgRewardLedgerRepository(dbPool, logger)
	catalogRepo := database.NewRedisCatalogCache(
		redisClient,
		database.NewPgCatalogRepository(dbPool, logger),
		cfg.CatalogCacheTTL,
		logger,
	)
	txHelper := database.NewTransactionHelper(dbPool, logger)

	publisher, err := messaging.NewRabbitMQGameNotificationPublisher(rabbitConn, cfg.GameNotificationsQueueName)
	if err != nil {
		logger.Fatal("Не удалось создать publisher игровых уведомлений", zap.Error(err))
	}

	startingBalance, err := models.ParseBitcoin(cfg.StartingBitcoins)
	if err != nil {
		logger.Fatal("Некорректное значение стартового баланса", zap.String("value", cfg.StartingBitcoins), zap.Error(err))
	}

	progressionSvc := service.NewProgressionService(
		sessionRepo, attemptRepo, rewardRepo, catalogRepo,
		txHelper, publisher,
		service.Options{
			StartRoomID:     cfg.StartRoomID,
			StartingBalance: startingBalance,
		},
		logger,
	)

	verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, cfg.InterServiceJWTSecret, logger)
	if err != nil {
		logger.Fatal("Не удалось создать JWT верификатор", zap.Error(err))
	}

	gameHandler := handler.NewGameHandler(progressionSvc, verifier, logger)

	// Rate limiter на отправку ответов: защита от брутфорса решений
	solveRateLimitStore := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: redisClient,
		Rate:        cfg.SolveRateWindow,
		Limit:       cfg.SolveRateLimit,
	})
	solveRateLimiter := ratelimit.RateLimiter(solveRateLimitStore, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			logger.Warn("Solve rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime))
			c.String(http.StatusTooManyRequests, "Too many solve attempts. Try again in "+time.Until(info.ResetTime).String())
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})

	// --- HTTP Server (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.ZapLoggingMiddlewareForGin(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Internal-Service-Token"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	gameHandler.RegisterRoutes(router, solveRateLimiter)

	// Prometheus middleware применяется после регистрации роутов
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Starting HTTP server", zap.String("port", cfg.Port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Получен сигнал завершения, начинаем graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Ошибка при graceful shutdown HTTP сервера", zap.Error(err))
	}

	log.Println("Heist Server успешно остановлен")
}

// setupDatabase инициализирует и возвращает пул соединений с БД.
func setupDatabase(cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	dsn := cfg.GetDSN()
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать пул соединений: %w", err)
	}
	if err = dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("не удалось подключиться к БД (ping failed): %w", err)
	}
	return dbPool, nil
}

// setupRedis создает клиент Redis и проверяет соединение.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками.
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Не удалось подключиться к RabbitMQ, повтор...",
			zap.Int("attempt", i+1),
			zap.Int("maxRetries", maxRetries),
			zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("не удалось подключиться к RabbitMQ после %d попыток: %w", maxRetries, err)
}
