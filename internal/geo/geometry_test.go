package geo

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

func TestParseGeometry(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    orb.Geometry
		wantErr bool
	}{
		{
			name:  "point из JSON",
			input: `{"type":"Point","coordinates":[-70.1,-33.2]}`,
			want:  orb.Point{-70.1, -33.2},
		},
		{
			name:  "point с высотой",
			input: []byte(`{"type":"Point","coordinates":[1,2,300]}`),
			want:  orb.Point{1, 2},
		},
		{
			name:  "linestring из map",
			input: map[string]any{"type": "LineString", "coordinates": []any{[]any{1.0, 2.0}, []any{3.0, 4.0}}},
			want:  orb.LineString{{1, 2}, {3, 4}},
		},
		{
			name:  "multilinestring",
			input: `{"type":"MultiLineString","coordinates":[[[1,2],[3,4]],[[5,6],[7,8]]]}`,
			want:  orb.MultiLineString{{{1, 2}, {3, 4}}, {{5, 6}, {7, 8}}},
		},
		{name: "polygon не поддерживается", input: `{"type":"Polygon","coordinates":[]}`, wantErr: true},
		{name: "строка вместо числа", input: `{"type":"Point","coordinates":["1",2]}`, wantErr: true},
		{name: "одна координата", input: `{"type":"Point","coordinates":[1]}`, wantErr: true},
		{name: "битая позиция в линии", input: `{"type":"LineString","coordinates":[[1,2],[3]]}`, wantErr: true},
		{name: "nil", input: nil, wantErr: true},
		{name: "не JSON", input: "POINT(1 2)", wantErr: true},
		{name: "неизвестный тип входа", input: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGeometry(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidGeometry) {
					t.Fatalf("expected ErrInvalidGeometry, got %v (%v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !orb.Equal(got, tt.want) {
				t.Errorf("ParseGeometry = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointWKT(t *testing.T) {
	if got := PointWKT(-33.45, -70.66); got != "POINT(-70.66 -33.45)" {
		t.Errorf("PointWKT = %q", got)
	}
	if got := PointWKT(2, 1); got != "POINT(1 2)" {
		t.Errorf("PointWKT = %q", got)
	}
}

func TestEWKT(t *testing.T) {
	if got := EWKT(orb.Point{1, 2}); got != "SRID=4326;POINT(1 2)" {
		t.Errorf("EWKT = %q", got)
	}
}
