// Package app собирает сервисы из конфигурации для сервера и CLI.
package app

import (
	"strings"

	"powerline-locator-go/internal/cache"
	"powerline-locator-go/internal/config"
	"powerline-locator-go/internal/database"
	"powerline-locator-go/internal/events"
	"powerline-locator-go/internal/kml"
	"powerline-locator-go/internal/repository"
	"powerline-locator-go/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// App готовые к работе сервисы
type App struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Imports   *service.ImportService
	Locations *service.LocationService
	Lines     *service.LineService

	redis     *redis.Client
	publisher events.Publisher
}

// NewLogger создает JSON логгер с уровнем из конфигурации; неизвестный уровень дает info
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// New подключается к базе данных и собирает сервисы
func New(cfg *config.Config, logger *logrus.Logger) (*App, error) {
	if err := database.Connect(cfg.Database, logger); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}

	var locationCache cache.LocationCache = cache.Noop{}
	if client := cache.Open(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); client != nil {
		a.redis = client
		locationCache = cache.NewRedisLocationCache(client, cfg.Redis.TTL)
		logger.Infof("Кэш координат: Redis %s", cfg.Redis.Addr)
	}

	a.publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if len(cfg.Kafka.Brokers) > 0 {
		logger.Infof("События импорта: Kafka %v, топик %s", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	lineRepo := repository.NewLineRepository(database.DB)
	geometryRepo := repository.NewGeometryRepository(database.DB)

	a.Imports = service.NewImportService(lineRepo, kml.NewDecoder(cfg.Import.MaxPayloadBytes), locationCache, a.publisher, logger)
	a.Locations = service.NewLocationService(lineRepo, geometryRepo, locationCache, logger)
	a.Lines = service.NewLineService(lineRepo, locationCache, logger)

	return a, nil
}

// Close освобождает клиентов и соединение с базой данных
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.Logger.Warnf("Ошибка закрытия Kafka writer: %v", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warnf("Ошибка закрытия Redis клиента: %v", err)
		}
	}
	if err := database.Close(); err != nil {
		a.Logger.Warnf("Ошибка закрытия базы данных: %v", err)
	}
}
