package topology

import (
	"strings"

	"powerline-locator-go/internal/kml"
)

const (
	attrLinea      = "linea"
	attrEstructura = "estructura"
)

// extractPlacemarks обрабатывает плоский список меток с атрибутами ExtendedData.
// Метки без "linea" пропускаются; точки без "estructura" молча отбрасываются.
func extractPlacemarks(doc *kml.Element) []rawLine {
	var lines []rawLine
	index := make(map[string]int)

	for _, pm := range doc.ChildrenNamed("Placemark") {
		attrs := extendedData(pm)

		numero := attrs[attrLinea]
		if numero == "" {
			continue
		}

		i, ok := index[numero]
		if !ok {
			i = len(lines)
			index[numero] = i
			lines = append(lines, rawLine{numero: numero})
		}

		if coords, found := pathCoordinates(pm); found {
			lines[i].segments = append(lines[i].segments, coords...)
			continue
		}

		if coords, found := pointCoordinates(pm); found && attrs[attrEstructura] != "" {
			lines[i].structures = append(lines[i].structures, rawStructure{
				name:   strings.TrimSpace(pm.ChildText("name")),
				coords: coords,
			})
		}
	}

	return lines
}

// extendedData собирает пары имя/значение из ExtendedData/Data и ExtendedData/SchemaData/SimpleData.
// Пустые значения не учитываются, при повторе имени остается первое.
func extendedData(pm *kml.Element) map[string]string {
	attrs := make(map[string]string)

	set := func(name, value string) {
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			return
		}
		if _, exists := attrs[name]; !exists {
			attrs[name] = value
		}
	}

	for _, ed := range pm.ChildrenNamed("ExtendedData") {
		for _, d := range ed.ChildrenNamed("Data") {
			set(d.Attr("name"), d.ChildText("value"))
		}
		for _, sd := range ed.ChildrenNamed("SchemaData") {
			for _, simple := range sd.ChildrenNamed("SimpleData") {
				set(simple.Attr("name"), simple.Text)
			}
		}
	}

	return attrs
}
