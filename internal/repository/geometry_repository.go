package repository

import (
	"context"
	"fmt"

	"powerline-locator-go/internal/geo"

	"gorm.io/gorm"
)

// GeometryService геометрические функции хранилища.
// Возвращает nil без ошибки, если функция не дала пригодных координат.
type GeometryService interface {
	InterpolatePoint(ctx context.Context, geom1, geom2 string, km1, km2, kmTarget float64) (*geo.LatLon, error)
	PointCoords(ctx context.Context, geom string) (*geo.LatLon, error)
	InterpolateLinePoint(ctx context.Context, lineGeom string, fraction float64) (*geo.LatLon, error)
}

// geometryRepository реализация GeometryService через функции PostGIS
type geometryRepository struct {
	db *gorm.DB
}

// NewGeometryRepository создает GeometryService поверх базы данных
func NewGeometryRepository(db *gorm.DB) GeometryService {
	return &geometryRepository{db: db}
}

// InterpolatePoint вызывает interpolate_point
func (r *geometryRepository) InterpolatePoint(ctx context.Context, geom1, geom2 string, km1, km2, kmTarget float64) (*geo.LatLon, error) {
	return r.call(ctx, "interpolate_point",
		"SELECT * FROM interpolate_point(?, ?, ?, ?, ?)",
		geom1, geom2, km1, km2, kmTarget,
	)
}

// PointCoords вызывает get_point_coords
func (r *geometryRepository) PointCoords(ctx context.Context, geom string) (*geo.LatLon, error) {
	return r.call(ctx, "get_point_coords",
		"SELECT * FROM get_point_coords(?)",
		geom,
	)
}

// InterpolateLinePoint вызывает interpolate_line_point
func (r *geometryRepository) InterpolateLinePoint(ctx context.Context, lineGeom string, fraction float64) (*geo.LatLon, error) {
	return r.call(ctx, "interpolate_line_point",
		"SELECT * FROM interpolate_line_point(?, ?)",
		lineGeom, fraction,
	)
}

// call выполняет функцию и берет координаты из первой строки результата
func (r *geometryRepository) call(ctx context.Context, name, query string, args ...interface{}) (*geo.LatLon, error) {
	var rows []map[string]interface{}
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	coords, ok := geo.ExtractLatLon(rows[0])
	if !ok {
		return nil, nil
	}

	return &coords, nil
}
