package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"powerline-locator-go/internal/model"
	"powerline-locator-go/internal/repository"
)

func TestLineService_GetLine(t *testing.T) {
	store := newFakeStore()
	store.addLine(&model.Line{ID: "l1", Numero: "L1", Nombre: strPtr("L1"), KmInicio: floatPtr(0), KmFin: floatPtr(2.5)})
	store.geojson["l1"] = `{"type":"LineString","coordinates":[[-70,-33],[-70.1,-33.1]]}`
	store.positions["l1"] = []repository.StructurePosition{
		{ID: "e1", NumeroEstructura: "E1", Km: 0, Lat: -33, Lon: -70},
	}
	s := NewLineService(store, nil, quietLogger())

	detail, err := s.GetLine(context.Background(), "l1")
	if err != nil {
		t.Fatalf("GetLine: %v", err)
	}
	if detail.Numero != "L1" || *detail.KmFin != 2.5 {
		t.Errorf("summary = %+v", detail.LineSummary)
	}
	if string(detail.Geometry) != store.geojson["l1"] {
		t.Errorf("geometry = %s", detail.Geometry)
	}
	if len(detail.Estructuras) != 1 || detail.Estructuras[0].NumeroEstructura != "E1" {
		t.Errorf("estructuras = %+v", detail.Estructuras)
	}
}

func TestLineService_GetLine_UnsupportedGeometryIsNull(t *testing.T) {
	store := newFakeStore()
	store.addLine(&model.Line{ID: "l1", Numero: "L1"})
	store.geojson["l1"] = `{"type":"Polygon","coordinates":[]}`
	s := NewLineService(store, nil, quietLogger())

	detail, err := s.GetLine(context.Background(), "l1")
	if err != nil {
		t.Fatalf("GetLine: %v", err)
	}
	if string(detail.Geometry) != "null" {
		t.Errorf("geometry = %s, want null", detail.Geometry)
	}
	if detail.Estructuras == nil {
		t.Error("estructuras must be an empty list")
	}
}

func TestLineService_NotFound(t *testing.T) {
	s := NewLineService(newFakeStore(), nil, quietLogger())

	if _, err := s.GetLine(context.Background(), "x"); !errors.Is(err, ErrLineNotFound) {
		t.Errorf("GetLine err = %v", err)
	}
	if err := s.DeleteLine(context.Background(), "x"); !errors.Is(err, ErrLineNotFound) {
		t.Errorf("DeleteLine err = %v", err)
	}
}

func TestLineService_DeleteInvalidatesCache(t *testing.T) {
	store := newFakeStore()
	store.addLine(&model.Line{ID: "l1", Numero: "L1"})
	c := newFakeCache()
	s := NewLineService(store, c, quietLogger())

	if err := s.DeleteLine(context.Background(), "l1"); err != nil {
		t.Fatalf("DeleteLine: %v", err)
	}
	if len(store.lines) != 0 {
		t.Error("line not deleted")
	}
	if !reflect.DeepEqual(c.invalidated, []string{"l1"}) {
		t.Errorf("invalidated = %v", c.invalidated)
	}
}

func TestLineService_ListLines(t *testing.T) {
	store := newFakeStore()
	store.addLine(&model.Line{ID: "l1", Numero: "L1"})
	s := NewLineService(store, nil, quietLogger())

	resp, err := s.ListLines(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("ListLines: %v", err)
	}
	if resp.Total != 1 || len(resp.Lineas) != 1 || resp.Page != 1 || resp.Size != 10 {
		t.Errorf("resp = %+v", resp)
	}
}
