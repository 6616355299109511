package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"powerline-locator-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound запись не найдена
var ErrNotFound = errors.New("record not found")

// LineRepository интерфейс для работы с линиями
type LineRepository interface {
	GetByID(ctx context.Context, id string) (*model.Line, error)
	List(ctx context.Context, page, pageSize int) ([]*model.Line, int64, error)
	Delete(ctx context.Context, id string) error
	// ListStructures возвращает опоры линии по возрастанию km
	ListStructures(ctx context.Context, lineID string) ([]model.Structure, error)
	// ListStructurePositions возвращает опоры с координатами для выдачи клиенту
	ListStructurePositions(ctx context.Context, lineID string) ([]StructurePosition, error)
	// GeometryGeoJSON возвращает геометрию линии в GeoJSON или nil
	GeometryGeoJSON(ctx context.Context, id string) (*string, error)
	// WithinLineTx выполняет fn в одной транзакции
	WithinLineTx(ctx context.Context, fn func(tx LineWriter) error) error
}

// LineWriter операции записи топологии одной линии внутри транзакции.
// Ошибка Insert*/Finalize откатывается до точки сохранения и не ломает транзакцию.
type LineWriter interface {
	FindByNumeroForUpdate(numero string) (*model.Line, error)
	Create(line *model.Line) error
	ClearTopology(lineID string) error
	InsertSegment(segment *model.Segment) error
	InsertStructure(structure *model.Structure) error
	Finalize(lineID string) error
}

// StructurePosition опора с координатами
type StructurePosition struct {
	ID               string  `json:"id"`
	NumeroEstructura string  `json:"numero_estructura"`
	Km               float64 `json:"km"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
}

// lineRepository реализация LineRepository
type lineRepository struct {
	db *gorm.DB
}

// NewLineRepository создает новый instance LineRepository
func NewLineRepository(db *gorm.DB) LineRepository {
	return &lineRepository{
		db: db,
	}
}

// GetByID получает линию по ID
func (r *lineRepository) GetByID(ctx context.Context, id string) (*model.Line, error) {
	var line model.Line
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("linea %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get linea: %w", err)
	}
	return &line, nil
}

// List получает список линий с пагинацией
func (r *lineRepository) List(ctx context.Context, page, pageSize int) ([]*model.Line, int64, error) {
	var lines []*model.Line
	var total int64

	db := r.db.WithContext(ctx)

	// Подсчитываем общее количество
	if err := db.Model(&model.Line{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count lineas: %w", err)
	}

	offset := (page - 1) * pageSize
	err := db.Order("numero ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&lines).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list lineas: %w", err)
	}

	return lines, total, nil
}

// Delete удаляет линию; пролеты и опоры удаляются каскадно
func (r *lineRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Line{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete linea: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("linea %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListStructures получает опоры линии, упорядоченные по km
func (r *lineRepository) ListStructures(ctx context.Context, lineID string) ([]model.Structure, error) {
	var structures []model.Structure
	err := r.db.WithContext(ctx).
		Where("linea_id = ?", lineID).
		Order("km ASC").
		Find(&structures).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list estructuras: %w", err)
	}
	return structures, nil
}

// ListStructurePositions получает опоры линии с широтой и долготой
func (r *lineRepository) ListStructurePositions(ctx context.Context, lineID string) ([]StructurePosition, error) {
	var positions []StructurePosition
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, numero_estructura, km, ST_Y(geom) AS lat, ST_X(geom) AS lon
		 FROM estructuras
		 WHERE linea_id = ?
		 ORDER BY km ASC, numero_estructura ASC`,
		lineID,
	).Scan(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list estructura positions: %w", err)
	}
	return positions, nil
}

// GeometryGeoJSON получает геометрию линии в формате GeoJSON
func (r *lineRepository) GeometryGeoJSON(ctx context.Context, id string) (*string, error) {
	var geojson sql.NullString

	err := r.db.WithContext(ctx).Raw(
		`SELECT ST_AsGeoJSON(geom) FROM lineas WHERE id = ?`,
		id,
	).Scan(&geojson).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get linea geometry: %w", err)
	}

	if !geojson.Valid {
		return nil, nil
	}

	return &geojson.String, nil
}

// WithinLineTx выполняет fn в транзакции: commit при nil, rollback при ошибке
func (r *lineRepository) WithinLineTx(ctx context.Context, fn func(tx LineWriter) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&lineWriter{tx: tx})
	})
}

// lineWriter реализация LineWriter поверх транзакции gorm
type lineWriter struct {
	tx *gorm.DB
}

const itemSavePoint = "topology_item"

// FindByNumeroForUpdate находит линию по номеру и блокирует строку до конца транзакции
func (w *lineWriter) FindByNumeroForUpdate(numero string) (*model.Line, error) {
	var line model.Line
	err := w.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("numero = ?", numero).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("linea %s: %w", numero, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find linea: %w", err)
	}
	return &line, nil
}

// Create создает линию
func (w *lineWriter) Create(line *model.Line) error {
	return w.tx.Create(line).Error
}

// ClearTopology удаляет все пролеты и опоры линии
func (w *lineWriter) ClearTopology(lineID string) error {
	if err := w.tx.Where("linea_id = ?", lineID).Delete(&model.Segment{}).Error; err != nil {
		return fmt.Errorf("failed to delete tramos: %w", err)
	}
	if err := w.tx.Where("linea_id = ?", lineID).Delete(&model.Structure{}).Error; err != nil {
		return fmt.Errorf("failed to delete estructuras: %w", err)
	}
	return nil
}

// InsertSegment вставляет пролет; segment.Geom должен быть в EWKT
func (w *lineWriter) InsertSegment(segment *model.Segment) error {
	return w.isolated(func(tx *gorm.DB) error {
		return tx.Exec(
			"INSERT INTO linea_tramos (id, linea_id, orden, geom, created_at) VALUES (?, ?, ?, ST_GeomFromEWKT(?), ?)",
			segment.ID, segment.LineID, segment.Orden, segment.Geom, time.Now(),
		).Error
	})
}

// InsertStructure вставляет опору; structure.Geom должен быть в EWKT
func (w *lineWriter) InsertStructure(structure *model.Structure) error {
	return w.isolated(func(tx *gorm.DB) error {
		return tx.Exec(
			"INSERT INTO estructuras (id, linea_id, numero_estructura, km, geom, created_at) VALUES (?, ?, ?, ?, ST_GeomFromEWKT(?), ?)",
			structure.ID, structure.LineID, structure.NumeroEstructura, structure.Km, structure.Geom, time.Now(),
		).Error
	})
}

// Finalize вызывает функцию хранилища, пересчитывающую геометрию и km линии
func (w *lineWriter) Finalize(lineID string) error {
	return w.isolated(func(tx *gorm.DB) error {
		return tx.Exec("SELECT finalize_kmz_import_for_linea(?)", lineID).Error
	})
}

// isolated выполняет fn внутри точки сохранения и откатывается к ней при ошибке
func (w *lineWriter) isolated(fn func(tx *gorm.DB) error) error {
	if err := w.tx.SavePoint(itemSavePoint).Error; err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	if err := fn(w.tx); err != nil {
		if rbErr := w.tx.RollbackTo(itemSavePoint).Error; rbErr != nil {
			return fmt.Errorf("%v (rollback to savepoint failed: %w)", err, rbErr)
		}
		return err
	}

	return nil
}
