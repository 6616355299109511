// Package kml разбирает загруженные KML/KMZ файлы в типизированное дерево элементов.
package kml

// Element узел разобранного XML документа.
// Одноименные соседние элементы сохраняются в Children в порядке документа.
type Element struct {
	Name     string
	Attrs    map[string]string
	Children []*Element
	// Text содержит обрезанный текст элемента (включая CDATA)
	Text string
}

// Child возвращает первый дочерний элемент с именем name или nil
func (e *Element) Child(name string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed возвращает все дочерние элементы с именем name
func (e *Element) ChildrenNamed(name string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// ChildText возвращает текст первого дочернего элемента name или ""
func (e *Element) ChildText(name string) string {
	if c := e.Child(name); c != nil {
		return c.Text
	}
	return ""
}

// Attr возвращает значение атрибута или ""
func (e *Element) Attr(name string) string {
	if e == nil || e.Attrs == nil {
		return ""
	}
	return e.Attrs[name]
}
