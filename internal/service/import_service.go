package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"powerline-locator-go/internal/cache"
	"powerline-locator-go/internal/events"
	"powerline-locator-go/internal/geo"
	"powerline-locator-go/internal/kml"
	"powerline-locator-go/internal/metrics"
	"powerline-locator-go/internal/model"
	"powerline-locator-go/internal/repository"
	"powerline-locator-go/internal/topology"
	"powerline-locator-go/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// createLineError линия не создана; транзакция откатывается, линия пропускается
type createLineError struct {
	err error
}

func (e *createLineError) Error() string { return e.err.Error() }

func (e *createLineError) Unwrap() error { return e.err }

// ImportService сервис импорта KMZ/KML
type ImportService struct {
	lines     repository.LineRepository
	decoder   *kml.Decoder
	cache     cache.LocationCache
	publisher events.Publisher
	logger    *logrus.Logger

	newID func() string
	now   func() time.Time
}

// NewImportService создает новый сервис импорта
func NewImportService(
	lines repository.LineRepository,
	decoder *kml.Decoder,
	locationCache cache.LocationCache,
	publisher events.Publisher,
	logger *logrus.Logger,
) *ImportService {
	if locationCache == nil {
		locationCache = cache.Noop{}
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &ImportService{
		lines:     lines,
		decoder:   decoder,
		cache:     locationCache,
		publisher: publisher,
		logger:    logger,
		newID:     func() string { return uuid.New().String() },
		now:       time.Now,
	}
}

// ImportFile разбирает файл и импортирует все найденные линии
func (s *ImportService) ImportFile(ctx context.Context, filename string, body []byte) (*models.ImportResult, error) {
	start := time.Now()
	defer func() {
		metrics.ImportDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	}()

	s.logger.Infof("Начинаем импорт файла %s (%d байт)", filename, len(body))

	root, err := s.decoder.Decode(filename, body)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("decode_error").Inc()
		s.logger.Errorf("Ошибка разбора файла %s: %v", filename, err)
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}

	doc, err := topology.Extract(root)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("extract_error").Inc()
		s.logger.Errorf("Ошибка извлечения топологии из %s: %v", filename, err)
		return nil, fmt.Errorf("failed to extract topology from %s: %w", filename, err)
	}

	s.logger.WithFields(logrus.Fields{
		"layout":      doc.Layout,
		"lineas":      len(doc.Lines),
		"tramos":      doc.SegmentCount(),
		"estructuras": doc.StructureCount(),
	}).Info("Топология извлечена")

	result := s.ImportDocument(ctx, doc)
	metrics.ImportsTotal.WithLabelValues("ok").Inc()
	return result, nil
}

// ImportDocument записывает линии документа по одной транзакции на линию
func (s *ImportService) ImportDocument(ctx context.Context, doc *topology.Document) *models.ImportResult {
	result := models.NewImportResult()

	for _, line := range doc.Lines {
		if err := ctx.Err(); err != nil {
			result.Errores = append(result.Errores,
				fmt.Sprintf("Import aborted before linea %s: %v", line.Numero, err))
			s.logger.Warnf("Импорт прерван перед линией %s: %v", line.Numero, err)
			break
		}

		outcome := s.importLine(ctx, line)
		outcome.mergeInto(result)

		if outcome.committed {
			s.afterCommit(ctx, outcome)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"lineas_created":       result.LineasCreated,
		"tramos_inserted":      result.TramosInserted,
		"estructuras_inserted": result.EstructurasInserted,
		"lineas_finalized":     result.LineasFinalized,
		"errores":              len(result.Errores),
		"warnings":             len(result.Warnings),
	}).Info("Импорт завершен")

	return result
}

// lineOutcome итог импорта одной линии
type lineOutcome struct {
	numero      string
	lineID      string
	committed   bool
	created     bool
	tramos      int
	estructuras int
	finalized   bool
	errores     []string
	warnings    []string
}

// mergeInto добавляет итог линии к общему результату; счетчики только после commit
func (o *lineOutcome) mergeInto(result *models.ImportResult) {
	if o.committed {
		if o.created {
			result.LineasCreated++
		}
		result.TramosInserted += o.tramos
		result.EstructurasInserted += o.estructuras
		if o.finalized {
			result.LineasFinalized++
		}
	}
	result.Errores = append(result.Errores, o.errores...)
	result.Warnings = append(result.Warnings, o.warnings...)
}

// importLine выполняет импорт линии в одной транзакции
func (s *ImportService) importLine(ctx context.Context, line topology.Line) lineOutcome {
	log := s.logger.WithField("linea", line.Numero)
	if line.Discarded > 0 {
		log.Debugf("Отброшено %d элементов без координат", line.Discarded)
	}

	var out lineOutcome
	err := s.lines.WithinLineTx(ctx, func(tx repository.LineWriter) error {
		out = lineOutcome{numero: line.Numero}

		lineID, created, err := s.upsertLine(tx, line.Numero)
		if err != nil {
			var createErr *createLineError
			if errors.As(err, &createErr) {
				out.errores = append(out.errores,
					fmt.Sprintf("Failed to create linea %s: %v", line.Numero, createErr.err))
			}
			return err
		}
		out.lineID = lineID
		out.created = created

		for i, path := range line.Segments {
			segment := &model.Segment{
				ID:     s.newID(),
				LineID: lineID,
				Orden:  i,
				Geom:   geo.EWKT(path),
			}
			if err := tx.InsertSegment(segment); err != nil {
				out.errores = append(out.errores,
					fmt.Sprintf("Failed to insert tramo %d for linea %s: %v", i, line.Numero, err))
				continue
			}
			out.tramos++
		}

		for _, st := range line.Structures {
			structure := &model.Structure{
				ID:               s.newID(),
				LineID:           lineID,
				NumeroEstructura: st.Name,
				Km:               0,
				Geom:             geo.EWKT(st.Point),
			}
			if err := tx.InsertStructure(structure); err != nil {
				out.errores = append(out.errores,
					fmt.Sprintf("Failed to insert estructura %s for linea %s: %v", st.Name, line.Numero, err))
				continue
			}
			out.estructuras++
		}

		if out.tramos == 0 {
			out.warnings = append(out.warnings,
				fmt.Sprintf("No line segments found for linea %s, skipping finalization", line.Numero))
			return nil
		}

		if err := tx.Finalize(lineID); err != nil {
			out.errores = append(out.errores,
				fmt.Sprintf("Failed to finalize linea %s: %v", line.Numero, err))
			return nil
		}
		out.finalized = true
		return nil
	})

	var createErr *createLineError
	switch {
	case err == nil:
		out.committed = true
		log.WithFields(logrus.Fields{
			"created":     out.created,
			"tramos":      out.tramos,
			"estructuras": out.estructuras,
			"finalized":   out.finalized,
		}).Info("Линия импортирована")
	case errors.As(err, &createErr):
		log.Warnf("Линия пропущена: %v", err)
	default:
		out.errores = append(out.errores,
			fmt.Sprintf("Failed to import linea %s: %v", line.Numero, err))
		log.Errorf("Ошибка импорта линии: %v", err)
	}

	// Сообщения о сбоях отдельных элементов сохраняются даже при откате
	metrics.ItemErrorsTotal.Add(float64(len(out.errores)))
	return out
}

// upsertLine находит линию по номеру и очищает ее топологию либо создает новую
func (s *ImportService) upsertLine(tx repository.LineWriter, numero string) (string, bool, error) {
	existing, err := tx.FindByNumeroForUpdate(numero)
	if err == nil {
		if err := tx.ClearTopology(existing.ID); err != nil {
			return "", false, err
		}
		return existing.ID, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", false, err
	}

	nombre := numero
	line := &model.Line{
		ID:     s.newID(),
		Numero: numero,
		Nombre: &nombre,
	}
	if err := tx.Create(line); err != nil {
		return "", false, &createLineError{err: err}
	}
	return line.ID, true, nil
}

// afterCommit сбрасывает кэш координат и публикует событие; ошибки только логируются
func (s *ImportService) afterCommit(ctx context.Context, out lineOutcome) {
	if out.created {
		metrics.LineasCreatedTotal.Inc()
	}
	if out.finalized {
		metrics.LineasFinalizedTotal.Inc()
	}
	metrics.TramosInsertedTotal.Add(float64(out.tramos))
	metrics.EstructurasInsertedTotal.Add(float64(out.estructuras))

	if err := s.cache.InvalidateLine(ctx, out.lineID); err != nil {
		s.logger.Warnf("Не удалось сбросить кэш линии %s: %v", out.numero, err)
	}

	event := events.LineImported{
		LineaID:     out.lineID,
		Numero:      out.numero,
		Created:     out.created,
		Tramos:      out.tramos,
		Estructuras: out.estructuras,
		Finalized:   out.finalized,
		ImportedAt:  s.now().UTC(),
	}
	if err := s.publisher.PublishLineImported(ctx, event); err != nil {
		s.logger.Warnf("Не удалось опубликовать событие импорта линии %s: %v", out.numero, err)
	}
}
