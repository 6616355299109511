package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"powerline-locator-go/internal/cache"
	"powerline-locator-go/internal/geo"
	"powerline-locator-go/internal/metrics"
	"powerline-locator-go/internal/model"
	"powerline-locator-go/internal/repository"
	"powerline-locator-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// LocationService вычисляет координаты точки линии по километру
type LocationService struct {
	lines    repository.LineRepository
	geometry repository.GeometryService
	cache    cache.LocationCache
	logger   *logrus.Logger
}

// NewLocationService создает новый сервис вычисления координат
func NewLocationService(
	lines repository.LineRepository,
	geometry repository.GeometryService,
	locationCache cache.LocationCache,
	logger *logrus.Logger,
) *LocationService {
	if locationCache == nil {
		locationCache = cache.Noop{}
	}
	return &LocationService{
		lines:    lines,
		geometry: geometry,
		cache:    locationCache,
		logger:   logger,
	}
}

// strategy один способ получения координат
type strategy struct {
	method models.LocationMethod
	run    func(ctx context.Context) (*geo.LatLon, error)
}

// ComputeLocation возвращает координаты точки линии lineaID на километре km.
// Порядок: интерполяция между опорами, ближайшая опора, геометрия линии.
func (s *LocationService) ComputeLocation(ctx context.Context, lineaID string, km float64) (*models.LocationResult, error) {
	start := time.Now()
	defer func() {
		metrics.LocationDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	}()

	if lineaID == "" || math.IsNaN(km) || math.IsInf(km, 0) {
		metrics.LocationFailuresTotal.WithLabelValues("invalid_request").Inc()
		return nil, ErrInvalidRequest
	}

	log := s.logger.WithFields(logrus.Fields{"linea_id": lineaID, "km": km})

	if cached, err := s.cache.Get(ctx, lineaID, km); err != nil {
		log.Warnf("Ошибка чтения кэша координат: %v", err)
	} else if cached != nil {
		metrics.CacheHitsTotal.Inc()
		return cached, nil
	}
	metrics.CacheMissesTotal.Inc()

	line, err := s.lines.GetByID(ctx, lineaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.LocationFailuresTotal.WithLabelValues("not_found").Inc()
			return nil, fmt.Errorf("%w: %s", ErrLineNotFound, lineaID)
		}
		metrics.LocationFailuresTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("failed to load linea: %w", err)
	}

	if err := checkRange(line, km); err != nil {
		metrics.LocationFailuresTotal.WithLabelValues("out_of_range").Inc()
		return nil, err
	}

	structures, err := s.lines.ListStructures(ctx, lineaID)
	if err != nil {
		metrics.LocationFailuresTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("failed to load estructuras: %w", err)
	}

	var lastErr error
	for _, st := range s.plan(line, structures, km) {
		point, err := st.run(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warnf("Способ %s завершился ошибкой: %v", st.method, err)
			lastErr = err
			continue
		}
		if point == nil {
			log.Debugf("Способ %s не дал координат", st.method)
			continue
		}

		result := &models.LocationResult{
			Lat:    point.Lat,
			Lon:    point.Lon,
			Geom:   geo.PointWKT(point.Lat, point.Lon),
			Method: st.method,
		}
		metrics.LocationsTotal.WithLabelValues(string(st.method)).Inc()

		if err := s.cache.Set(ctx, lineaID, km, result); err != nil {
			log.Warnf("Ошибка записи кэша координат: %v", err)
		}

		log.Infof("Координаты вычислены способом %s", st.method)
		return result, nil
	}

	metrics.LocationFailuresTotal.WithLabelValues("unresolvable").Inc()
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnresolvable, lastErr)
	}
	return nil, ErrUnresolvable
}

// plan возвращает применимые способы в порядке приоритета
func (s *LocationService) plan(line *model.Line, structures []model.Structure, km float64) []strategy {
	var plan []strategy

	below, above := BracketStructures(structures, km)
	switch {
	case below != nil && above != nil:
		if below.Km != above.Km {
			plan = append(plan, strategy{
				method: models.MethodInterpolation,
				run: func(ctx context.Context) (*geo.LatLon, error) {
					return s.geometry.InterpolatePoint(ctx, below.Geom, above.Geom, below.Km, above.Km, km)
				},
			})
		}
	case below != nil || above != nil:
		only := below
		if only == nil {
			only = above
		}
		plan = append(plan, strategy{
			method: models.MethodSingleStructure,
			run: func(ctx context.Context) (*geo.LatLon, error) {
				return s.geometry.PointCoords(ctx, only.Geom)
			},
		})
	}

	if line.Geom != nil && *line.Geom != "" && line.KmInicio != nil && line.KmFin != nil {
		if fraction, ok := geo.LineFraction(km, *line.KmInicio, *line.KmFin); ok {
			geom := *line.Geom
			plan = append(plan, strategy{
				method: models.MethodLineGeometry,
				run: func(ctx context.Context) (*geo.LatLon, error) {
					return s.geometry.InterpolateLinePoint(ctx, geom, fraction)
				},
			})
		}
	}

	return plan
}

// checkRange проверяет km по границам линии, если обе заданы
func checkRange(line *model.Line, km float64) error {
	if line.KmInicio == nil || line.KmFin == nil {
		return nil
	}
	lo, hi := *line.KmInicio, *line.KmFin
	if !finite(lo) || !finite(hi) {
		return nil
	}
	if km < lo || km > hi {
		return &OutOfRangeError{Km: km, KmInicio: lo, KmFin: hi}
	}
	return nil
}

// BracketStructures находит опоры вокруг km за один проход:
// below последняя с km <= target, above первая с km >= target.
// Опоры с нечисловым km пропускаются.
func BracketStructures(structures []model.Structure, km float64) (below, above *model.Structure) {
	for i := range structures {
		st := &structures[i]
		if !finite(st.Km) {
			continue
		}
		if st.Km <= km {
			below = st
		}
		if st.Km >= km && above == nil {
			above = st
		}
	}
	return below, above
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
