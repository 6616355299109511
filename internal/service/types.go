package service

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidRequest не заданы lineaId или km
	ErrInvalidRequest = errors.New("lineaId and km are required")
	// ErrLineNotFound линия с указанным id не существует
	ErrLineNotFound = errors.New("linea not found")
	// ErrOutOfRange km вне диапазона линии
	ErrOutOfRange = errors.New("km is out of range")
	// ErrUnresolvable ни одна стратегия не дала координат
	ErrUnresolvable = errors.New("could not compute location")
)

// OutOfRangeError km вне [km_inicio, km_fin]
type OutOfRangeError struct {
	Km       float64
	KmInicio float64
	KmFin    float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("km %s is out of range [%s, %s]",
		formatKm(e.Km), formatKm(e.KmInicio), formatKm(e.KmFin))
}

// Is позволяет проверять ошибку через errors.Is(err, ErrOutOfRange)
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

func formatKm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
