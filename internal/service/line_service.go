package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"powerline-locator-go/internal/cache"
	"powerline-locator-go/internal/geo"
	"powerline-locator-go/internal/model"
	"powerline-locator-go/internal/repository"
	"powerline-locator-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// LineService сервис для просмотра и удаления линий
type LineService struct {
	lines  repository.LineRepository
	cache  cache.LocationCache
	logger *logrus.Logger
}

// NewLineService создает новый сервис для работы с линиями
func NewLineService(lines repository.LineRepository, locationCache cache.LocationCache, logger *logrus.Logger) *LineService {
	if locationCache == nil {
		locationCache = cache.Noop{}
	}
	return &LineService{
		lines:  lines,
		cache:  locationCache,
		logger: logger,
	}
}

// ListLines получает список линий с пагинацией
func (s *LineService) ListLines(ctx context.Context, page, pageSize int) (*models.ListLinesResponse, error) {
	s.logger.Infof("Получаем список линий: страница %d, размер %d", page, pageSize)

	lines, total, err := s.lines.List(ctx, page, pageSize)
	if err != nil {
		s.logger.Errorf("Ошибка получения списка линий: %v", err)
		return nil, fmt.Errorf("failed to list lineas: %w", err)
	}

	response := &models.ListLinesResponse{
		Lineas: make([]models.LineSummary, len(lines)),
		Total:  total,
		Page:   page,
		Size:   pageSize,
	}
	for i, line := range lines {
		response.Lineas[i] = toSummary(line)
	}

	return response, nil
}

// GetLine получает линию с геометрией и опорами
func (s *LineService) GetLine(ctx context.Context, id string) (*models.LineDetail, error) {
	line, err := s.lines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrLineNotFound, id)
		}
		return nil, fmt.Errorf("failed to get linea: %w", err)
	}

	detail := &models.LineDetail{
		LineSummary: toSummary(line),
		Geometry:    json.RawMessage("null"),
		Estructuras: []models.StructureInfo{},
	}

	geojson, err := s.lines.GeometryGeoJSON(ctx, id)
	if err != nil {
		return nil, err
	}
	if geojson != nil {
		// Отдаем только геометрию, которую понимает клиент
		if _, err := geo.ParseGeometry(*geojson); err != nil {
			s.logger.Warnf("Геометрия линии %s не распознана: %v", id, err)
		} else {
			detail.Geometry = json.RawMessage(*geojson)
		}
	}

	positions, err := s.lines.ListStructurePositions(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, p := range positions {
		detail.Estructuras = append(detail.Estructuras, models.StructureInfo{
			ID:               p.ID,
			NumeroEstructura: p.NumeroEstructura,
			Km:               p.Km,
			Lat:              p.Lat,
			Lon:              p.Lon,
		})
	}

	return detail, nil
}

// DeleteLine удаляет линию по ID вместе с пролетами и опорами
func (s *LineService) DeleteLine(ctx context.Context, id string) error {
	s.logger.Infof("Удаляем линию %s", id)

	if err := s.lines.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrLineNotFound, id)
		}
		s.logger.Errorf("Ошибка удаления линии: %v", err)
		return fmt.Errorf("failed to delete linea: %w", err)
	}

	if err := s.cache.InvalidateLine(ctx, id); err != nil {
		s.logger.Warnf("Не удалось сбросить кэш линии %s: %v", id, err)
	}

	s.logger.Infof("Линия %s успешно удалена", id)
	return nil
}

// toSummary преобразует модель базы данных в ответ API
func toSummary(line *model.Line) models.LineSummary {
	return models.LineSummary{
		ID:        line.ID,
		Numero:    line.Numero,
		Nombre:    line.Nombre,
		KmInicio:  line.KmInicio,
		KmFin:     line.KmFin,
		CreatedAt: line.CreatedAt,
		UpdatedAt: line.UpdatedAt,
	}
}
