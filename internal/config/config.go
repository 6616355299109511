package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config структура конфигурации приложения
type Config struct {
	Environment string
	Server      ServerConfig
	GRPC        GRPCConfig
	Database    DatabaseConfig
	Import      ImportConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Logging     LoggingConfig
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Port int
	Host string
}

// GRPCConfig конфигурация gRPC health сервера; пустой Port отключает его
type GRPCConfig struct {
	Port string
}

// DatabaseConfig конфигурация базы данных
type DatabaseConfig struct {
	Host               string
	Port               string
	Database           string
	Username           string
	Password           string
	SSLMode            string
	MaxIdleConns       int
	MaxOpenConns       int
	SlowQueryThreshold time.Duration
}

// ImportConfig ограничения загрузки KMZ/KML
type ImportConfig struct {
	MaxUploadBytes int64
	// MaxPayloadBytes ограничивает распакованный KML внутри KMZ
	MaxPayloadBytes int64
}

// RedisConfig конфигурация кэша координат; пустой Addr отключает кэш
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// KafkaConfig конфигурация публикации событий импорта; пустой Brokers отключает ее
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LoggingConfig конфигурация логирования
type LoggingConfig struct {
	Level string
}

// LoadConfig загружает конфигурацию из .env (если есть) и переменных окружения
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Environment = getEnv("ENVIRONMENT", "development")

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.GRPC.Port = os.Getenv("GRPC_PORT")

	// Конфигурация базы данных
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.Database = getEnv("DB_NAME", "lineas")
	cfg.Database.Username = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 10)
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 100)
	cfg.Database.SlowQueryThreshold = time.Duration(getEnvInt("DB_SLOW_QUERY_MS", 1000)) * time.Millisecond

	// Ограничение размера загрузки
	cfg.Import.MaxUploadBytes = int64(getEnvInt("IMPORT_MAX_UPLOAD_MB", 64)) << 20
	cfg.Import.MaxPayloadBytes = int64(getEnvInt("IMPORT_MAX_PAYLOAD_MB", 256)) << 20

	// Кэш координат
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.TTL = time.Duration(getEnvInt("REDIS_TTL_SECONDS", 3600)) * time.Second

	// События импорта
	cfg.Kafka.Brokers = getEnvList("KAFKA_BROKERS")
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", "lineas.imported")

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg
}

// IsProduction true для ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList разбирает список через запятую, пустые элементы отбрасываются
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
