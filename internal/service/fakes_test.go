package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"powerline-locator-go/internal/events"
	"powerline-locator-go/internal/geo"
	"powerline-locator-go/internal/model"
	"powerline-locator-go/internal/repository"
	"powerline-locator-go/pkg/models"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeStore хранилище в памяти; транзакция откатывается восстановлением снимка
type fakeStore struct {
	mu sync.Mutex

	lines      map[string]*model.Line
	segments   map[string][]model.Segment
	structures map[string][]model.Structure
	geojson    map[string]string
	positions  map[string][]repository.StructurePosition

	failSegment   func(s *model.Segment) error
	failStructure func(s *model.Structure) error
	failCreate    error
	failFinalize  error
	failCommit    error
	getErr        error

	getCalls        int
	structuresCalls int
	finalized       []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lines:      map[string]*model.Line{},
		segments:   map[string][]model.Segment{},
		structures: map[string][]model.Structure{},
		geojson:    map[string]string{},
		positions:  map[string][]repository.StructurePosition{},
	}
}

func (s *fakeStore) addLine(line *model.Line) {
	s.lines[line.ID] = line
}

func (s *fakeStore) lineByNumero(numero string) *model.Line {
	for _, l := range s.lines {
		if l.Numero == numero {
			return l
		}
	}
	return nil
}

type snapshot struct {
	lines      map[string]*model.Line
	segments   map[string][]model.Segment
	structures map[string][]model.Structure
	finalized  []string
}

func (s *fakeStore) snapshot() snapshot {
	snap := snapshot{
		lines:      map[string]*model.Line{},
		segments:   map[string][]model.Segment{},
		structures: map[string][]model.Structure{},
		finalized:  append([]string(nil), s.finalized...),
	}
	for k, v := range s.lines {
		cp := *v
		snap.lines[k] = &cp
	}
	for k, v := range s.segments {
		snap.segments[k] = append([]model.Segment(nil), v...)
	}
	for k, v := range s.structures {
		snap.structures[k] = append([]model.Structure(nil), v...)
	}
	return snap
}

func (s *fakeStore) restore(snap snapshot) {
	s.lines = snap.lines
	s.segments = snap.segments
	s.structures = snap.structures
	s.finalized = snap.finalized
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*model.Line, error) {
	s.getCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	line, ok := s.lines[id]
	if !ok {
		return nil, fmt.Errorf("linea %s: %w", id, repository.ErrNotFound)
	}
	return line, nil
}

func (s *fakeStore) List(_ context.Context, page, pageSize int) ([]*model.Line, int64, error) {
	var out []*model.Line
	for _, l := range s.lines {
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := s.lines[id]; !ok {
		return fmt.Errorf("linea %s: %w", id, repository.ErrNotFound)
	}
	delete(s.lines, id)
	delete(s.segments, id)
	delete(s.structures, id)
	return nil
}

func (s *fakeStore) ListStructures(_ context.Context, lineID string) ([]model.Structure, error) {
	s.structuresCalls++
	return append([]model.Structure(nil), s.structures[lineID]...), nil
}

func (s *fakeStore) ListStructurePositions(_ context.Context, lineID string) ([]repository.StructurePosition, error) {
	return s.positions[lineID], nil
}

func (s *fakeStore) GeometryGeoJSON(_ context.Context, id string) (*string, error) {
	g, ok := s.geojson[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (s *fakeStore) WithinLineTx(_ context.Context, fn func(tx repository.LineWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	err := fn(&fakeWriter{store: s})
	if err == nil && s.failCommit != nil {
		err = s.failCommit
	}
	if err != nil {
		s.restore(snap)
	}
	return err
}

type fakeWriter struct {
	store *fakeStore
}

func (w *fakeWriter) FindByNumeroForUpdate(numero string) (*model.Line, error) {
	if l := w.store.lineByNumero(numero); l != nil {
		return l, nil
	}
	return nil, fmt.Errorf("linea %s: %w", numero, repository.ErrNotFound)
}

func (w *fakeWriter) Create(line *model.Line) error {
	if w.store.failCreate != nil {
		return w.store.failCreate
	}
	w.store.addLine(line)
	return nil
}

func (w *fakeWriter) ClearTopology(lineID string) error {
	delete(w.store.segments, lineID)
	delete(w.store.structures, lineID)
	return nil
}

func (w *fakeWriter) InsertSegment(segment *model.Segment) error {
	if w.store.failSegment != nil {
		if err := w.store.failSegment(segment); err != nil {
			return err
		}
	}
	w.store.segments[segment.LineID] = append(w.store.segments[segment.LineID], *segment)
	return nil
}

func (w *fakeWriter) InsertStructure(structure *model.Structure) error {
	if w.store.failStructure != nil {
		if err := w.store.failStructure(structure); err != nil {
			return err
		}
	}
	w.store.structures[structure.LineID] = append(w.store.structures[structure.LineID], *structure)
	return nil
}

func (w *fakeWriter) Finalize(lineID string) error {
	if w.store.failFinalize != nil {
		return w.store.failFinalize
	}
	w.store.finalized = append(w.store.finalized, lineID)
	return nil
}

// fakeGeometry записывает вызовы и возвращает заданные ответы
type fakeGeometry struct {
	interpolate *geo.LatLon
	point       *geo.LatLon
	linePoint   *geo.LatLon

	interpolateErr error
	pointErr       error
	linePointErr   error

	calls        []string
	lastFraction float64
	lastGeom     string
	lastKms      [3]float64
}

func (g *fakeGeometry) InterpolatePoint(_ context.Context, geom1, geom2 string, km1, km2, kmTarget float64) (*geo.LatLon, error) {
	g.calls = append(g.calls, "interpolate_point")
	g.lastGeom = geom1 + "|" + geom2
	g.lastKms = [3]float64{km1, km2, kmTarget}
	return g.interpolate, g.interpolateErr
}

func (g *fakeGeometry) PointCoords(_ context.Context, geom string) (*geo.LatLon, error) {
	g.calls = append(g.calls, "get_point_coords")
	g.lastGeom = geom
	return g.point, g.pointErr
}

func (g *fakeGeometry) InterpolateLinePoint(_ context.Context, lineGeom string, fraction float64) (*geo.LatLon, error) {
	g.calls = append(g.calls, "interpolate_line_point")
	g.lastGeom = lineGeom
	g.lastFraction = fraction
	return g.linePoint, g.linePointErr
}

// fakeCache кэш в памяти
type fakeCache struct {
	entries     map[string]*models.LocationResult
	invalidated []string
	sets        int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*models.LocationResult{}}
}

func cacheKey(lineID string, km float64) string {
	return fmt.Sprintf("%s@%v", lineID, km)
}

func (c *fakeCache) Get(_ context.Context, lineID string, km float64) (*models.LocationResult, error) {
	return c.entries[cacheKey(lineID, km)], nil
}

func (c *fakeCache) Set(_ context.Context, lineID string, km float64, result *models.LocationResult) error {
	c.sets++
	c.entries[cacheKey(lineID, km)] = result
	return nil
}

func (c *fakeCache) InvalidateLine(_ context.Context, lineID string) error {
	c.invalidated = append(c.invalidated, lineID)
	return nil
}

// fakePublisher собирает опубликованные события
type fakePublisher struct {
	events []events.LineImported
	err    error
}

func (p *fakePublisher) PublishLineImported(_ context.Context, event events.LineImported) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }
