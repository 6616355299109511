package model

import (
	"time"
)

// Line представляет линию электропередачи в базе данных
type Line struct {
	ID       string   `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Numero   string   `gorm:"type:varchar(255);not null;uniqueIndex" json:"numero"`
	Nombre   *string  `gorm:"type:varchar(255)" json:"nombre"`
	KmInicio *float64 `gorm:"column:km_inicio" json:"km_inicio"`
	KmFin    *float64 `gorm:"column:km_fin" json:"km_fin"`
	// Geom хранится в PostGIS; при чтении возвращается как hex EWKB
	Geom *string `gorm:"type:geometry(Geometry,4326)" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Связи с пролетами и опорами
	Segments   []Segment   `gorm:"foreignKey:LineID;constraint:OnDelete:CASCADE" json:"-"`
	Structures []Structure `gorm:"foreignKey:LineID;constraint:OnDelete:CASCADE" json:"-"`
}

// Segment представляет пролет (tramo) линии
type Segment struct {
	ID     string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	LineID string `gorm:"column:linea_id;type:varchar(36);not null;index" json:"linea_id"`
	Orden  int    `gorm:"not null" json:"orden"`
	Geom   string `gorm:"type:geometry(LineString,4326);not null" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Structure представляет опору (estructura) линии
type Structure struct {
	ID               string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	LineID           string  `gorm:"column:linea_id;type:varchar(36);not null;index" json:"linea_id"`
	NumeroEstructura string  `gorm:"type:varchar(255);not null" json:"numero_estructura"`
	Km               float64 `gorm:"not null;default:0;index" json:"km"`
	Geom             string  `gorm:"type:geometry(Point,4326);not null" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName указывает имя таблицы для Line
func (Line) TableName() string {
	return "lineas"
}

// TableName указывает имя таблицы для Segment
func (Segment) TableName() string {
	return "linea_tramos"
}

// TableName указывает имя таблицы для Structure
func (Structure) TableName() string {
	return "estructuras"
}
