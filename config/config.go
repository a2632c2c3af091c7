package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ExternalAPIConfig настройки внешнего провайдера данных
type ExternalAPIConfig struct {
	Enabled          bool
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	FailureThreshold int
	RecoveryTimeout  time.Duration
	MaxRetries       int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	HealthCacheTTL   time.Duration
}

type Config struct {
	AppName    string
	AppVersion string
	Env        string
	Port       string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string

	KafkaBroker      string
	ElasticsearchURL string
	SentryDSN        string

	ExternalAPI ExternalAPIConfig
}

// Load собирает конфигурацию из окружения (.env, если есть).
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppName:    getEnv("APP_NAME", "Virtual Wellness Platform"),
		AppVersion: getEnv("APP_VERSION", "1.0.0"),
		Env:        getEnv("APP_ENV", "development"),
		Port:       getEnv("PORT", "8080"),

		DatabaseDSN: buildDatabaseDSN(),

		RedisAddr:     getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBroker:      getEnv("KAFKA_BROKER", "localhost:9092"),
		ElasticsearchURL: getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
		SentryDSN:        os.Getenv("SENTRY_DSN"),

		ExternalAPI: ExternalAPIConfig{
			Enabled:          getEnvBool("EXTERNAL_API_ENABLED", false),
			BaseURL:          getEnv("EXTERNAL_API_URL", "https://your-mock-server-url.com"),
			APIKey:           getEnv("EXTERNAL_API_KEY", "YOUR_API_KEY"),
			Timeout:          getEnvDuration("EXTERNAL_API_TIMEOUT", 30*time.Second),
			FailureThreshold: getEnvInt("EXTERNAL_API_FAILURE_THRESHOLD", 3),
			RecoveryTimeout:  getEnvDuration("EXTERNAL_API_RECOVERY_TIMEOUT", 60*time.Second),
			MaxRetries:       getEnvInt("EXTERNAL_API_MAX_RETRIES", 3),
			RetryBaseDelay:   getEnvDuration("EXTERNAL_API_RETRY_BASE_DELAY", time.Second),
			RetryMaxDelay:    getEnvDuration("EXTERNAL_API_RETRY_MAX_DELAY", 10*time.Second),
			HealthCacheTTL:   getEnvDuration("EXTERNAL_API_HEALTH_CACHE_TTL", 300*time.Second),
		},
	}

	return cfg
}

func buildDatabaseDSN() string {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "wellness_db"),
		getEnv("DB_PORT", "5432"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
