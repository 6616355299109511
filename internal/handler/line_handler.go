package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"powerline-locator-go/internal/kml"
	"powerline-locator-go/internal/service"
	"powerline-locator-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Version версия API, отдается в health
const Version = "1.0.0"

// Importer импорт KMZ/KML
type Importer interface {
	ImportFile(ctx context.Context, filename string, body []byte) (*models.ImportResult, error)
}

// Locator вычисление координат по километру
type Locator interface {
	ComputeLocation(ctx context.Context, lineaID string, km float64) (*models.LocationResult, error)
}

// LineBrowser просмотр и удаление линий
type LineBrowser interface {
	ListLines(ctx context.Context, page, pageSize int) (*models.ListLinesResponse, error)
	GetLine(ctx context.Context, id string) (*models.LineDetail, error)
	DeleteLine(ctx context.Context, id string) error
}

// LineHandler обрабатывает HTTP запросы для работы с линиями
type LineHandler struct {
	importer       Importer
	locator        Locator
	lines          LineBrowser
	healthCheck    func() error
	maxUploadBytes int64
	logger         *logrus.Logger
}

// NewLineHandler создает новый экземпляр LineHandler
func NewLineHandler(
	importer Importer,
	locator Locator,
	lines LineBrowser,
	healthCheck func() error,
	maxUploadBytes int64,
	logger *logrus.Logger,
) *LineHandler {
	return &LineHandler{
		importer:       importer,
		locator:        locator,
		lines:          lines,
		healthCheck:    healthCheck,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *LineHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/import-kmz", h.ImportKMZ)
		api.POST("/compute-fault-location", h.ComputeFaultLocation)
		api.GET("/lineas", h.ListLines)
		api.GET("/lineas/:id", h.GetLine)
		api.DELETE("/lineas/:id", h.DeleteLine)
		api.GET("/health", h.CheckHealth)
	}

	// Пути в стиле функций, которые вызывают существующие клиенты
	functions := router.Group("/functions/v1")
	{
		functions.POST("/import-kmz", h.ImportKMZ)
		functions.POST("/compute-fault-location", h.ComputeFaultLocation)
	}
}

// ImportKMZ обрабатывает загрузку KMZ/KML файла
// @Summary Импорт линий из KMZ/KML
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "KMZ или KML файл"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} gin.H
// @Failure 500 {object} gin.H
// @Router /import-kmz [post]
func (h *LineHandler) ImportKMZ(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warnf("Файл превышает %d байт", tooLarge.Limit)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		h.logger.Warnf("Файл не передан: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if !kml.IsSupportedFilename(header.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be .kmz or .kml"})
		return
	}

	body, err := io.ReadAll(file)
	if err != nil {
		h.logger.Errorf("Ошибка чтения файла %s: %v", header.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "stack": errorChain(err)})
		return
	}

	result, err := h.importer.ImportFile(c.Request.Context(), header.Filename, body)
	if err != nil {
		h.logger.Errorf("Ошибка импорта %s: %v", header.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "stack": errorChain(err)})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ComputeFaultLocation возвращает координаты точки линии по километру
// @Summary Координаты повреждения
// @Tags location
// @Accept json
// @Produce json
// @Success 200 {object} models.LocationResult
// @Router /compute-fault-location [post]
func (h *LineHandler) ComputeFaultLocation(c *gin.Context) {
	var req models.ComputeLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	if req.LineaID == "" || !req.Km.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidRequest.Error()})
		return
	}

	result, err := h.locator.ComputeLocation(c.Request.Context(), req.LineaID, req.Km.Value)
	if err != nil {
		status, body := locationError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Errorf("Ошибка вычисления координат линии %s: %v", req.LineaID, err)
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, result)
}

// locationError сопоставляет ошибку сервиса с HTTP статусом
func locationError(err error) (int, gin.H) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, gin.H{"error": service.ErrInvalidRequest.Error()}
	case errors.Is(err, service.ErrOutOfRange):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	case errors.Is(err, service.ErrLineNotFound):
		return http.StatusNotFound, gin.H{"error": "Line not found"}
	case errors.Is(err, service.ErrUnresolvable):
		return http.StatusInternalServerError, gin.H{"error": "Could not compute location", "details": err.Error()}
	default:
		return http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()}
	}
}

// ListLines возвращает список линий с пагинацией
func (h *LineHandler) ListLines(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	response, err := h.lines.ListLines(c.Request.Context(), page, size)
	if err != nil {
		h.logger.Errorf("Ошибка получения списка линий: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list lines"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetLine возвращает линию по ID
func (h *LineHandler) GetLine(c *gin.Context) {
	detail, err := h.lines.GetLine(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrLineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Line not found"})
			return
		}
		h.logger.Errorf("Ошибка получения линии: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get line"})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// DeleteLine удаляет линию по ID
func (h *LineHandler) DeleteLine(c *gin.Context) {
	if err := h.lines.DeleteLine(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrLineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Line not found"})
			return
		}
		h.logger.Errorf("Ошибка удаления линии: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete line"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Line deleted"})
}

// CheckHealth проверяет состояние сервиса
func (h *LineHandler) CheckHealth(c *gin.Context) {
	if h.healthCheck != nil {
		if err := h.healthCheck(); err != nil {
			h.logger.Errorf("База данных недоступна: %v", err)
			c.JSON(http.StatusServiceUnavailable, models.HealthResponse{
				Status:   "unhealthy",
				Database: "disconnected",
				Version:  Version,
			})
			return
		}
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:   "healthy",
		Database: "connected",
		Version:  Version,
	})
}

// errorChain раскладывает цепочку обернутых ошибок, начиная с внешней
func errorChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}
