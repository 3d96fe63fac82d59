package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"

	"heist-server/internal/utils"
)

// Config содержит конфигурацию для Heist Server
type Config struct {
	// Настройки сервера
	Port        string `envconfig:"HEIST_SERVER_PORT" default:"8083"`
	Env         string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// Настройки Redis (кэш контент-каталога и rate limiting)
	RedisAddr       string        `envconfig:"REDIS_ADDR" required:"true"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"10m"`

	// Настройки RabbitMQ
	RabbitMQURL                string `envconfig:"RABBITMQ_URL" required:"true"`
	GameNotificationsQueueName string `envconfig:"GAME_NOTIFICATIONS_QUEUE_NAME" default:"game_notifications"`

	// Игровые настройки
	StartRoomID      string `envconfig:"START_ROOM_ID" default:"safehouse"`
	StartingBitcoins string `envconfig:"STARTING_BITCOINS" default:"0"`

	// Ограничение частоты запросов на решение пазлов
	SolveRateLimit  uint          `envconfig:"SOLVE_RATE_LIMIT" default:"10"`
	SolveRateWindow time.Duration `envconfig:"SOLVE_RATE_WINDOW" default:"1m"`

	// Секретные поля БЕЗ envconfig тегов
	JWTSecret             string
	InterServiceJWTSecret string
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов
func LoadConfig() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации heist-server: %w", err)
	}

	// Загружаем ОБЯЗАТЕЛЬНЫЕ секреты
	var loadErr error
	cfg.DBPassword, loadErr = utils.ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.JWTSecret, loadErr = utils.ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.InterServiceJWTSecret, loadErr = utils.ReadSecret("interservice_jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	log.Printf("Конфигурация Heist Server загружена (секреты из файлов):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  DB Max Conns: %d", cfg.DBMaxConns)
	log.Printf("  DB Idle Timeout: %v", cfg.DBIdleTimeout)
	log.Printf("  Redis Addr: %s (db %d)", cfg.RedisAddr, cfg.RedisDB)
	log.Printf("  Catalog Cache TTL: %v", cfg.CatalogCacheTTL)
	log.Printf("  RabbitMQ URL: %s", cfg.RabbitMQURL)
	log.Printf("  Game Notifications Queue Name: %s", cfg.GameNotificationsQueueName)
	log.Printf("  Start Room ID: %s", cfg.StartRoomID)
	log.Println("  JWT Secret: [ЗАГРУЖЕН]")
	log.Println("  Inter-Service JWT Secret: [ЗАГРУЖЕН]")

	return &cfg, nil
}
