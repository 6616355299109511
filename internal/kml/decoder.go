package kml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/net/html/charset"
)

// Ошибки уровня документа. Любая из них прерывает импорт целиком.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrUnreadableArchive   = errors.New("unreadable KMZ archive")
	ErrNoPayloadFound      = errors.New("no KML file found in KMZ")
	ErrMalformedMarkup     = errors.New("malformed KML markup")
)

// DefaultMaxPayloadBytes ограничение на размер распакованного KML
const DefaultMaxPayloadBytes int64 = 256 << 20

// Decoder распаковывает и разбирает загруженные файлы
type Decoder struct {
	// MaxPayloadBytes ограничивает размер одного распакованного KML
	MaxPayloadBytes int64
}

// NewDecoder создает декодер с ограничением размера maxPayloadBytes.
// Значение <= 0 означает DefaultMaxPayloadBytes.
func NewDecoder(maxPayloadBytes int64) *Decoder {
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = DefaultMaxPayloadBytes
	}
	return &Decoder{MaxPayloadBytes: maxPayloadBytes}
}

// IsSupportedFilename проверяет расширение .kmz или .kml (без учета регистра)
func IsSupportedFilename(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case ".kmz", ".kml":
		return true
	}
	return false
}

// Decode выбирает полезную нагрузку по расширению файла и разбирает ее в дерево
func (d *Decoder) Decode(filename string, body []byte) (*Element, error) {
	var payload []byte

	switch strings.ToLower(path.Ext(filename)) {
	case ".kmz":
		var err error
		payload, err = d.extractPayload(body)
		if err != nil {
			return nil, err
		}
	case ".kml":
		payload = body
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, filename)
	}

	return Parse(bytes.NewReader(payload))
}

// extractPayload выбирает KML внутри архива.
// Если KML файлов несколько, берется самый большой по распакованному размеру
// (при равенстве первый); остальные считаются вспомогательными и не читаются.
func (d *Decoder) extractPayload(body []byte) ([]byte, error) {
	archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableArchive, err)
	}

	var largest *zip.File
	for _, f := range archive.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
			continue
		}
		if largest == nil || f.UncompressedSize64 > largest.UncompressedSize64 {
			largest = f
		}
	}

	if largest == nil {
		return nil, ErrNoPayloadFound
	}

	return d.readMember(largest)
}

func (d *Decoder) readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnreadableArchive, f.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, d.MaxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnreadableArchive, f.Name, err)
	}
	if int64(len(content)) > d.MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrUnreadableArchive, f.Name, d.MaxPayloadBytes)
	}

	return content, nil
}

// Parse строит дерево элементов из XML.
// Имена элементов и атрибутов берутся без префикса пространства имен.
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Element
		stack []*Element
		texts []*strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMarkup, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local}
			if len(t.Attr) > 0 {
				el.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					el.Attrs[a.Name.Local] = a.Value
				}
			}

			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformedMarkup)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}

			stack = append(stack, el)
			texts = append(texts, &strings.Builder{})

		case xml.EndElement:
			top := len(stack) - 1
			stack[top].Text = strings.TrimSpace(texts[top].String())
			stack = stack[:top]
			texts = texts[:top]

		case xml.CharData:
			if len(texts) > 0 {
				texts[len(texts)-1].Write(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedMarkup)
	}

	return root, nil
}
