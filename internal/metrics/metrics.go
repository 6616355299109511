// Package metrics регистрирует метрики Prometheus сервиса.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// durationBuckets границы гистограмм длительности в миллисекундах
var durationBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

var (
	// ImportsTotal число импортов по исходу: ok, decode_error, extract_error
	ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineas_imports_total",
		Help: "Total KMZ/KML imports by outcome",
	}, []string{"outcome"})
	// ImportDurationMs длительность импорта файла
	ImportDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineas_import_duration_ms",
		Help:    "Import duration in milliseconds",
		Buckets: durationBuckets,
	})
	// LineasCreatedTotal число созданных линий
	LineasCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lineas_created_total",
		Help: "Total lineas created by imports",
	})
	// LineasFinalizedTotal число линий, для которых отработала финализация
	LineasFinalizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lineas_finalized_total",
		Help: "Total lineas finalized by imports",
	})
	// TramosInsertedTotal число вставленных пролетов
	TramosInsertedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lineas_tramos_inserted_total",
		Help: "Total tramos inserted",
	})
	// EstructurasInsertedTotal число вставленных опор
	EstructurasInsertedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lineas_estructuras_inserted_total",
		Help: "Total estructuras inserted",
	})
	// ItemErrorsTotal число ошибок отдельных элементов импорта
	ItemErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lineas_import_item_errors_total",
		Help: "Total per-item import errors",
	})
	// LocationsTotal число найденных мест повреждения по методу расчета
	LocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineas_locations_total",
		Help: "Total resolved fault locations by method",
	}, []string{"method"})
	// LocationFailuresTotal число неудачных расчетов по причине
	LocationFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineas_location_failures_total",
		Help: "Total fault location failures by reason",
	}, []string{"reason"})
	// LocationDurationMs длительность расчета места повреждения
	LocationDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineas_location_duration_ms",
		Help:    "Fault location duration in milliseconds",
		Buckets: durationBuckets,
	})
	// CacheHitsTotal попадания в кэш расчетов
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lineas_location_cache_hits_total",
		Help: "Total location cache hits",
	})
	// CacheMissesTotal промахи кэша расчетов
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lineas_location_cache_misses_total",
		Help: "Total location cache misses",
	})
)

func init() {
	prometheus.MustRegister(ImportsTotal)
	prometheus.MustRegister(ImportDurationMs)
	prometheus.MustRegister(LineasCreatedTotal)
	prometheus.MustRegister(LineasFinalizedTotal)
	prometheus.MustRegister(TramosInsertedTotal)
	prometheus.MustRegister(EstructurasInsertedTotal)
	prometheus.MustRegister(ItemErrorsTotal)
	prometheus.MustRegister(LocationsTotal)
	prometheus.MustRegister(LocationFailuresTotal)
	prometheus.MustRegister(LocationDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// Handler возвращает обработчик /metrics
func Handler() http.Handler { return promhttp.Handler() }
