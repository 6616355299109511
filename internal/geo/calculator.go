package geo

import (
	"math"
	"strconv"
	"strings"
)

// LatLon координаты точки, полученные от геометрических функций хранилища
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LineFraction вычисляет долю длины линии для километра km,
// ограниченную отрезком [0, 1].
// Возвращает false, если диапазон вырожден или значения не конечны.
func LineFraction(km, kmInicio, kmFin float64) (float64, bool) {
	if !isFinite(km) || !isFinite(kmInicio) || !isFinite(kmFin) {
		return 0, false
	}
	if kmFin <= kmInicio {
		return 0, false
	}

	fraction := (km - kmInicio) / (kmFin - kmInicio)
	return math.Max(0, math.Min(1, fraction)), true
}

// ExtractLatLon достает координаты из строки результата функции хранилища.
// Широта: lat или latitude; долгота: lon, lng или longitude.
func ExtractLatLon(row map[string]any) (LatLon, bool) {
	if row == nil {
		return LatLon{}, false
	}

	lat, ok := firstNumber(row, "lat", "latitude")
	if !ok {
		return LatLon{}, false
	}
	lon, ok := firstNumber(row, "lon", "lng", "longitude")
	if !ok {
		return LatLon{}, false
	}

	return LatLon{Lat: lat, Lon: lon}, true
}

// firstNumber берет первое присутствующее (не nil) значение среди ключей
func firstNumber(row map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, present := row[key]
		if !present || v == nil {
			continue
		}
		n, ok := toFloat(v)
		if !ok || !isFinite(n) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
