package database

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"time"

	"powerline-locator-go/internal/config"
	"powerline-locator-go/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB глобальная переменная для подключения к базе данных
var DB *gorm.DB

//go:embed sql/*.sql
var functionsFS embed.FS

// Connect подключается к базе данных PostgreSQL/PostGIS
func Connect(cfg config.DatabaseConfig, log *logrus.Logger) error {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newGormLogger(cfg.SlowQueryThreshold),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Настройка пула соединений
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Infof("✅ Подключение к PostgreSQL %s:%s/%s установлено", cfg.Host, cfg.Port, cfg.Database)
	return nil
}

// newGormLogger логгер GORM: только медленные запросы
func newGormLogger(slowThreshold time.Duration) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Migrate создает расширение PostGIS, таблицы и функции хранилища
func Migrate(log *logrus.Logger) error {
	if DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	log.Info("🔄 Выполнение миграций базы данных...")

	if err := DB.Exec("CREATE EXTENSION IF NOT EXISTS postgis").Error; err != nil {
		return fmt.Errorf("failed to enable postgis: %w", err)
	}

	err := DB.AutoMigrate(
		&model.Line{},
		&model.Segment{},
		&model.Structure{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	names, err := functionFiles()
	if err != nil {
		return err
	}

	for _, name := range names {
		body, err := functionsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := DB.Exec(string(body)).Error; err != nil {
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
		log.Debugf("Применена функция хранилища %s", name)
	}

	log.Info("✅ Миграции базы данных выполнены")
	return nil
}

// functionFiles возвращает SQL файлы функций в порядке применения
func functionFiles() ([]string, error) {
	names, err := fs.Glob(functionsFS, "sql/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list sql functions: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Close закрывает соединение с базой данных
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// HealthCheck проверяет состояние подключения к базе данных
func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
