// Package topology извлекает линии, пролеты (tramos) и опоры (estructuras)
// из разобранного KML документа.
package topology

import (
	"errors"
	"fmt"

	"powerline-locator-go/internal/geo"
	"powerline-locator-go/internal/kml"

	"github.com/paulmach/orb"
)

// ErrUnrecognizedLayout документ не содержит ни папок, ни плоского списка меток
var ErrUnrecognizedLayout = errors.New("unrecognized KML layout")

// Layout поддерживаемая структура документа
type Layout string

const (
	// LayoutFolders папка на линию, внутри подпапки с пролетами и опорами
	LayoutFolders Layout = "folders"
	// LayoutPlacemarks плоский список меток с ExtendedData linea/estructura
	LayoutPlacemarks Layout = "placemarks"
)

// Structure опора линии
type Structure struct {
	Name  string
	Point orb.Point
}

// Line нормализованные данные одной линии
type Line struct {
	Numero     string
	Segments   []orb.LineString
	Structures []Structure
	// Discarded количество кандидатов без пригодных координат
	Discarded int
}

// Document результат извлечения
type Document struct {
	Layout Layout
	Lines  []Line
}

// SegmentCount общее число пролетов документа
func (d *Document) SegmentCount() int {
	n := 0
	for _, l := range d.Lines {
		n += len(l.Segments)
	}
	return n
}

// StructureCount общее число опор документа
func (d *Document) StructureCount() int {
	n := 0
	for _, l := range d.Lines {
		n += len(l.Structures)
	}
	return n
}

type rawStructure struct {
	name   string
	coords string
}

type rawLine struct {
	numero     string
	segments   []string
	structures []rawStructure
}

var strategies = map[Layout]func(doc *kml.Element) []rawLine{
	LayoutFolders:    extractFolders,
	LayoutPlacemarks: extractPlacemarks,
}

// Extract определяет структуру документа и извлекает линии
func Extract(root *kml.Element) (*Document, error) {
	if root == nil || root.Name != "kml" {
		return nil, fmt.Errorf("%w: root element is not <kml>", ErrUnrecognizedLayout)
	}

	doc := root.Child("Document")
	if doc == nil {
		return nil, fmt.Errorf("%w: no Document element found", ErrUnrecognizedLayout)
	}

	layout, ok := DetectLayout(doc)
	if !ok {
		return nil, fmt.Errorf("%w: no Folders or Placemarks found in KML document", ErrUnrecognizedLayout)
	}

	return &Document{
		Layout: layout,
		Lines:  normalize(strategies[layout](doc)),
	}, nil
}

// DetectLayout выбирает стратегию по содержимому <Document>.
// Папки имеют приоритет над метками.
func DetectLayout(doc *kml.Element) (Layout, bool) {
	switch {
	case doc.Child("Folder") != nil:
		return LayoutFolders, true
	case doc.Child("Placemark") != nil:
		return LayoutPlacemarks, true
	default:
		return "", false
	}
}

// normalize разбирает координаты кандидатов и отбрасывает непригодные:
// пролет с менее чем двумя точками, опору без точки или без имени
func normalize(raw []rawLine) []Line {
	lines := make([]Line, 0, len(raw))

	for _, r := range raw {
		line := Line{Numero: r.numero}

		for _, coords := range r.segments {
			points := geo.ParseCoordinates(coords)
			if len(points) < 2 {
				line.Discarded++
				continue
			}
			line.Segments = append(line.Segments, orb.LineString(points))
		}

		for _, s := range r.structures {
			points := geo.ParseCoordinates(s.coords)
			if s.name == "" || len(points) == 0 {
				line.Discarded++
				continue
			}
			line.Structures = append(line.Structures, Structure{Name: s.name, Point: points[0]})
		}

		lines = append(lines, line)
	}

	return lines
}

// pathCoordinates возвращает координаты всех LineString метки,
// включая вложенные в MultiGeometry. found = метка содержит линейную геометрию.
func pathCoordinates(pm *kml.Element) (coords []string, found bool) {
	for _, ls := range pm.ChildrenNamed("LineString") {
		coords = append(coords, ls.ChildText("coordinates"))
	}
	for _, mg := range pm.ChildrenNamed("MultiGeometry") {
		for _, ls := range mg.ChildrenNamed("LineString") {
			coords = append(coords, ls.ChildText("coordinates"))
		}
	}
	return coords, len(coords) > 0
}

// pointCoordinates возвращает координаты Point метки (или первой точки MultiGeometry)
func pointCoordinates(pm *kml.Element) (string, bool) {
	if p := pm.Child("Point"); p != nil {
		return p.ChildText("coordinates"), true
	}
	for _, mg := range pm.ChildrenNamed("MultiGeometry") {
		if p := mg.Child("Point"); p != nil {
			return p.ChildText("coordinates"), true
		}
	}
	return "", false
}
