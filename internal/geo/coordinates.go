package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ParseCoordinates разбирает содержимое элемента <coordinates>:
// кортежи "lon,lat[,alt]" через пробельные символы.
// Некорректные кортежи пропускаются, высота игнорируется.
func ParseCoordinates(raw string) []orb.Point {
	fields := strings.Fields(raw)
	points := make([]orb.Point, 0, len(fields))

	for _, tuple := range fields {
		if p, ok := parseTuple(tuple); ok {
			points = append(points, p)
		}
	}

	return points
}

// parseTuple разбирает один кортеж "lon,lat[,alt]"
func parseTuple(tuple string) (orb.Point, bool) {
	parts := strings.Split(tuple, ",")
	if len(parts) < 2 {
		return orb.Point{}, false
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || !isFinite(lon) {
		return orb.Point{}, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || !isFinite(lat) {
		return orb.Point{}, false
	}

	return orb.Point{lon, lat}, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
