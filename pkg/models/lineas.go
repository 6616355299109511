package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ImportResult представляет итог импорта KMZ/KML
type ImportResult struct {
	LineasCreated       int      `json:"lineas_created"`       // Создано новых линий
	TramosInserted      int      `json:"tramos_inserted"`      // Вставлено пролетов
	EstructurasInserted int      `json:"estructuras_inserted"` // Вставлено опор
	LineasFinalized     int      `json:"lineas_finalized"`     // Линий с пересчитанной геометрией
	Errores             []string `json:"errores"`              // Ошибки отдельных элементов
	Warnings            []string `json:"warnings"`             // Предупреждения
}

// NewImportResult создает пустой итог; списки сериализуются как [], а не null
func NewImportResult() *ImportResult {
	return &ImportResult{
		Errores:  []string{},
		Warnings: []string{},
	}
}

// LocationMethod способ, которым получены координаты
type LocationMethod string

const (
	MethodInterpolation   LocationMethod = "interpolation"
	MethodSingleStructure LocationMethod = "single_structure"
	MethodLineGeometry    LocationMethod = "line_geometry"
)

// LocationResult представляет координаты точки на линии
type LocationResult struct {
	Lat    float64        `json:"lat"`    // Широта
	Lon    float64        `json:"lon"`    // Долгота
	Geom   string         `json:"geom"`   // POINT(lon lat)
	Method LocationMethod `json:"method"` // Способ вычисления
}

// ComputeLocationRequest запрос на вычисление координат километра линии
type ComputeLocationRequest struct {
	LineaID string         `json:"lineaId"` // ID линии
	Km      FlexibleNumber `json:"km"`      // Километр
}

// FlexibleNumber число, которое принимается как из JSON числа, так и из строки
type FlexibleNumber struct {
	Value float64
	Valid bool
}

// UnmarshalJSON принимает 12.5, "12.5"; null и "" оставляют значение невалидным
func (n *FlexibleNumber) UnmarshalJSON(data []byte) error {
	*n = FlexibleNumber{}

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		value = parsed
	default:
		return nil
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}

	n.Value = value
	n.Valid = true
	return nil
}

// LineSummary краткая информация о линии
type LineSummary struct {
	ID        string    `json:"id"`
	Numero    string    `json:"numero"`
	Nombre    *string   `json:"nombre"`
	KmInicio  *float64  `json:"km_inicio"`
	KmFin     *float64  `json:"km_fin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StructureInfo опора линии с координатами
type StructureInfo struct {
	ID               string  `json:"id"`
	NumeroEstructura string  `json:"numero_estructura"`
	Km               float64 `json:"km"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
}

// LineDetail линия с геометрией и опорами
type LineDetail struct {
	LineSummary
	Geometry    json.RawMessage `json:"geometry"`    // GeoJSON или null
	Estructuras []StructureInfo `json:"estructuras"` // Опоры по возрастанию km
}

// ListLinesResponse ответ со списком линий
type ListLinesResponse struct {
	Lineas []LineSummary `json:"lineas"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Size   int           `json:"size"`
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status   string `json:"status"`   // Статус сервиса (healthy/unhealthy)
	Database string `json:"database"` // Состояние базы данных
	Version  string `json:"version"`  // Версия сервиса
}
