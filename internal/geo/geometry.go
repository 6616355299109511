package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// SRID всех геометрий хранилища (WGS 84)
const SRID = 4326

// ErrInvalidGeometry возвращается, когда значение не является
// Point, LineString или MultiLineString с конечными координатами
var ErrInvalidGeometry = errors.New("invalid geometry")

// ParseGeometry классифицирует нетипизированное GeoJSON-подобное значение.
// Принимает map[string]any, []byte, json.RawMessage или string с JSON.
func ParseGeometry(v any) (orb.Geometry, error) {
	switch raw := v.(type) {
	case nil:
		return nil, ErrInvalidGeometry
	case []byte:
		return parseGeometryJSON(raw)
	case json.RawMessage:
		return parseGeometryJSON(raw)
	case string:
		return parseGeometryJSON([]byte(raw))
	case map[string]any:
		return classify(raw)
	default:
		return nil, fmt.Errorf("%w: unsupported input %T", ErrInvalidGeometry, v)
	}
}

func parseGeometryJSON(data []byte) (orb.Geometry, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return classify(obj)
}

func classify(obj map[string]any) (orb.Geometry, error) {
	kind, _ := obj["type"].(string)
	coords := obj["coordinates"]

	switch kind {
	case "Point":
		p, ok := toPosition(coords)
		if !ok {
			return nil, fmt.Errorf("%w: bad Point coordinates", ErrInvalidGeometry)
		}
		return p, nil
	case "LineString":
		ls, ok := toLineString(coords)
		if !ok {
			return nil, fmt.Errorf("%w: bad LineString coordinates", ErrInvalidGeometry)
		}
		return ls, nil
	case "MultiLineString":
		parts, ok := coords.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: bad MultiLineString coordinates", ErrInvalidGeometry)
		}
		mls := make(orb.MultiLineString, 0, len(parts))
		for _, part := range parts {
			ls, ok := toLineString(part)
			if !ok {
				return nil, fmt.Errorf("%w: bad MultiLineString coordinates", ErrInvalidGeometry)
			}
			mls = append(mls, ls)
		}
		return mls, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidGeometry, kind)
	}
}

func toLineString(v any) (orb.LineString, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	ls := make(orb.LineString, 0, len(items))
	for _, item := range items {
		p, ok := toPosition(item)
		if !ok {
			return nil, false
		}
		ls = append(ls, p)
	}
	return ls, true
}

func toPosition(v any) (orb.Point, bool) {
	items, ok := v.([]any)
	if !ok || len(items) < 2 {
		return orb.Point{}, false
	}
	lon, ok := items[0].(float64)
	if !ok || !isFinite(lon) {
		return orb.Point{}, false
	}
	lat, ok := items[1].(float64)
	if !ok || !isFinite(lat) {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}

// EWKT возвращает геометрию в виде "SRID=4326;<WKT>" для записи в PostGIS
func EWKT(g orb.Geometry) string {
	return fmt.Sprintf("SRID=%d;%s", SRID, wkt.MarshalString(g))
}

// PointWKT формирует "POINT(lon lat)"
func PointWKT(lat, lon float64) string {
	return fmt.Sprintf("POINT(%s %s)", formatFloat(lon), formatFloat(lat))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
