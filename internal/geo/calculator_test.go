package geo

import (
	"math"
	"testing"
)

func TestLineFraction(t *testing.T) {
	tests := []struct {
		name            string
		km, inicio, fin float64
		want            float64
		wantOK          bool
	}{
		{"середина", 5, 0, 10, 0.5, true},
		{"выше конца обрезается", 15, 0, 10, 1.0, true},
		{"ниже начала обрезается", -3, 0, 10, 0, true},
		{"смещенный диапазон", 12, 10, 20, 0.2, true},
		{"вырожденный диапазон", 5, 10, 10, 0, false},
		{"обратный диапазон", 5, 10, 0, 0, false},
		{"NaN", math.NaN(), 0, 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LineFraction(tt.km, tt.inicio, tt.fin)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("fraction = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractLatLon(t *testing.T) {
	tests := []struct {
		name   string
		row    map[string]any
		want   LatLon
		wantOK bool
	}{
		{"lat/lon", map[string]any{"lat": -33.4, "lon": -70.6}, LatLon{-33.4, -70.6}, true},
		{"lat/lng", map[string]any{"lat": -33.4, "lng": -70.6}, LatLon{-33.4, -70.6}, true},
		{"latitude/longitude", map[string]any{"latitude": 1.0, "longitude": 2.0}, LatLon{1, 2}, true},
		{"строковые значения", map[string]any{"lat": "1.5", "lon": []byte("2.5")}, LatLon{1.5, 2.5}, true},
		{"lon nil, берется lng", map[string]any{"lat": 1.0, "lon": nil, "lng": 3.0}, LatLon{1, 3}, true},
		{"нет долготы", map[string]any{"lat": 1.0}, LatLon{}, false},
		{"NaN", map[string]any{"lat": math.NaN(), "lon": 1.0}, LatLon{}, false},
		{"nil", nil, LatLon{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractLatLon(tt.row)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ExtractLatLon = %+v, want %+v", got, tt.want)
			}
		})
	}
}
