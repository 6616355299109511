package topology

import (
	"strings"

	"powerline-locator-go/internal/kml"
)

// extractFolders обрабатывает документ вида
//
//	Document > Folder(name=<numero>) > Folder(name~"linea") > Placemark > LineString
//	                                 > Folder(name~"estructura") > Placemark > Point
//
// Каждая папка верхнего уровня дает отдельную запись, даже при повторе имени.
func extractFolders(doc *kml.Element) []rawLine {
	var lines []rawLine

	for _, folder := range doc.ChildrenNamed("Folder") {
		numero := strings.TrimSpace(folder.ChildText("name"))
		if numero == "" {
			continue
		}

		pathFolder, structureFolder := classifySubFolders(folder)
		line := rawLine{numero: numero}

		if pathFolder != nil {
			for _, pm := range pathFolder.ChildrenNamed("Placemark") {
				coords, _ := pathCoordinates(pm)
				line.segments = append(line.segments, coords...)
			}
		}

		if structureFolder != nil {
			for _, pm := range structureFolder.ChildrenNamed("Placemark") {
				coords, ok := pointCoordinates(pm)
				if !ok {
					continue
				}
				line.structures = append(line.structures, rawStructure{
					name:   strings.TrimSpace(pm.ChildText("name")),
					coords: coords,
				})
			}
		}

		lines = append(lines, line)
	}

	return lines
}

// classifySubFolders ищет подпапки по подстроке имени.
// "linea" покрывает и "lineaarea"/"lineaaerea". При нескольких совпадениях побеждает последняя.
func classifySubFolders(folder *kml.Element) (pathFolder, structureFolder *kml.Element) {
	for _, sub := range folder.ChildrenNamed("Folder") {
		name := strings.ToLower(sub.ChildText("name"))
		switch {
		case strings.Contains(name, "linea"):
			pathFolder = sub
		case strings.Contains(name, "estructura"):
			structureFolder = sub
		}
	}
	return pathFolder, structureFolder
}
