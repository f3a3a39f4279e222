package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"kassa/internal/cache"
	"kassa/internal/database"
	"kassa/internal/messaging"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	// Домен: удержание мест и фоновая очистка
	HoldDuration      time.Duration
	SweepInterval     time.Duration
	SweepBatchSize    int
	CreateIdempoTTL   time.Duration
	ConfirmIdempoTTL  time.Duration
	DefaultSeatCount  int

	Database      database.Config
	Redis         cache.Config
	NATS          messaging.Config
	Elasticsearch ElasticsearchConfig
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	// .env подхватывается только если присутствует
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		HoldDuration:     time.Duration(getEnvInt("HOLD_DURATION_SEC", 30)) * time.Second,
		SweepInterval:    time.Duration(getEnvInt("SWEEP_INTERVAL_SEC", 10)) * time.Second,
		SweepBatchSize:   getEnvInt("SWEEP_BATCH_SIZE", 50),
		CreateIdempoTTL:  time.Duration(getEnvInt("CREATE_IDEMPOTENCY_TTL_SEC", 60)) * time.Second,
		ConfirmIdempoTTL: time.Duration(getEnvInt("CONFIRM_IDEMPOTENCY_TTL_SEC", 86400)) * time.Second,
		DefaultSeatCount: getEnvInt("DEFAULT_SEAT_COUNT", 16),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "kassa"),
			Password:           getEnv("DB_PASSWORD", "kassa123"),
			DBName:             getEnv("DB_NAME", "kassa"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "kassa"),
			ClientID:  getEnv("NATS_CLIENT_ID", "kassa-api"),
		},

		Elasticsearch: LoadElasticsearchConfig(),
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
