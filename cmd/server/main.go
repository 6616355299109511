package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"powerline-locator-go/internal/app"
	"powerline-locator-go/internal/config"
	"powerline-locator-go/internal/database"
	"powerline-locator-go/internal/handler"
	"powerline-locator-go/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg := config.LoadConfig()

	// Инициализируем логгер
	logger := app.NewLogger(cfg.Logging.Level)
	logger.Info("Запуск Powerline Locator API Server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключаемся к базе данных и собираем сервисы
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer a.Close()

	// Выполняем миграции
	if err := database.Migrate(logger); err != nil {
		logger.Fatalf("Ошибка выполнения миграций: %v", err)
	}

	// Проверяем здоровье базы данных
	if err := database.HealthCheck(); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")

	healthServer := health.NewServer()
	grpcServer := startGRPC(cfg.GRPC.Port, healthServer, logger)

	// Настраиваем Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(handler.CORSMiddleware())

	lineHandler := handler.NewLineHandler(a.Imports, a.Locations, a.Lines, database.HealthCheck, cfg.Import.MaxUploadBytes, logger)
	lineHandler.RegisterRoutes(router)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Powerline Locator API Server",
			"version": handler.Version,
			"status":  "running",
		})
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Сервер запущен на %s", server.Addr)
		logger.Infof("API доступно по адресу: http://localhost:%d/api/v1", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Остановка сервера...")

	healthServer.Shutdown()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Ошибка остановки HTTP сервера: %v", err)
	}
}

// startGRPC поднимает gRPC health сервис; пустой порт отключает его
func startGRPC(port string, healthServer *health.Server, logger *logrus.Logger) *grpc.Server {
	if port == "" {
		return nil
	}

	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logger.Fatalf("Ошибка запуска gRPC на порту %s: %v", port, err)
	}

	server := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	go func() {
		logger.Infof("gRPC health сервис запущен на порту %s", port)
		if err := server.Serve(lis); err != nil {
			logger.Errorf("Ошибка gRPC сервера: %v", err)
		}
	}()

	return server
}
