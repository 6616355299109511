package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "DB_HOST", "IMPORT_MAX_UPLOAD_MB", "IMPORT_MAX_PAYLOAD_MB", "REDIS_ADDR", "KAFKA_BROKERS", "KAFKA_TOPIC", "GRPC_PORT"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q", cfg.Database.Host)
	}
	if cfg.Import.MaxUploadBytes != 64<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.Import.MaxUploadBytes)
	}
	if cfg.Import.MaxPayloadBytes != 256<<20 {
		t.Errorf("MaxPayloadBytes = %d", cfg.Import.MaxPayloadBytes)
	}
	if cfg.Redis.Addr != "" || len(cfg.Kafka.Brokers) != 0 || cfg.GRPC.Port != "" {
		t.Errorf("optional integrations must be disabled by default: %+v %+v %+v", cfg.Redis, cfg.Kafka, cfg.GRPC)
	}
	if cfg.Kafka.Topic != "lineas.imported" {
		t.Errorf("Kafka.Topic = %q", cfg.Kafka.Topic)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("IMPORT_MAX_UPLOAD_MB", "8")
	t.Setenv("REDIS_TTL_SECONDS", "60")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("DB_SLOW_QUERY_MS", "250")

	cfg := LoadConfig()

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction = false")
	}
	if cfg.Import.MaxUploadBytes != 8<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.Import.MaxUploadBytes)
	}
	if cfg.Redis.TTL != time.Minute {
		t.Errorf("Redis.TTL = %v", cfg.Redis.TTL)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "k1:9092" || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Database.SlowQueryThreshold != 250*time.Millisecond {
		t.Errorf("SlowQueryThreshold = %v", cfg.Database.SlowQueryThreshold)
	}
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	if got := getEnvInt("SOME_INT", 7); got != 7 {
		t.Errorf("getEnvInt = %d, want 7", got)
	}
}
